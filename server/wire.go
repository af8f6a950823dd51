package server

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/google/uuid"
)

// maxMsgSize bounds a single framed message.
const maxMsgSize = 16 << 20

const headerSize = 4

// NextID returns a fresh request ID.
func NextID() string {
	return uuid.New().String()
}

// WriteMsg frames msg as a 4-byte big-endian length followed by its JSON
// encoding and writes the frame in one call.
func WriteMsg(w io.Writer, msg map[string]any) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	if len(body) > maxMsgSize {
		return fmt.Errorf("encode message: %d bytes exceeds limit", len(body))
	}
	frame := make([]byte, headerSize+len(body))
	binary.BigEndian.PutUint32(frame, uint32(len(body)))
	copy(frame[headerSize:], body)
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// ReadMsg reads one frame. io.EOF is returned only when the stream ends
// cleanly between frames.
func ReadMsg(r io.Reader) (map[string]any, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	size := binary.BigEndian.Uint32(header[:])
	if size > maxMsgSize {
		return nil, fmt.Errorf("read frame: %d bytes exceeds limit", size)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	var msg map[string]any
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	return msg, nil
}

// Client is a connection to a running server. Calls are serialised so one
// Client may be shared between goroutines.
type Client struct {
	mu   sync.Mutex
	conn net.Conn
}

func Dial(sockPath string) (*Client, error) {
	conn, err := net.Dial("unix", sockPath)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", sockPath, err)
	}
	return &Client{conn: conn}, nil
}

// Call sends req and waits for its response. A request without an id is
// given a fresh one.
func (c *Client) Call(req map[string]any) (map[string]any, error) {
	if _, ok := req["id"]; !ok {
		req["id"] = NextID()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := WriteMsg(c.conn, req); err != nil {
		return nil, err
	}
	resp, err := ReadMsg(c.conn)
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("server closed the connection")
	}
	return resp, err
}

func (c *Client) Close() error {
	return c.conn.Close()
}
