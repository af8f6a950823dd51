// Package server exposes an Interpreter over a unix socket. Every
// request is handled by a single actor goroutine that owns the session.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"

	risp "github.com/rphilander/risp/core"
)

const version = "1.0.0"

type Server struct {
	interp   *risp.Interpreter
	listener net.Listener
	requests chan request
	done     chan struct{}
	stop     sync.Once
}

type request struct {
	msg      map[string]any
	response chan map[string]any
}

// New listens on sockPath, removing a stale socket file first.
func New(interp *risp.Interpreter, sockPath string) (*Server, error) {
	os.Remove(sockPath)
	listener, err := net.Listen("unix", sockPath)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", sockPath, err)
	}
	return &Server{
		interp:   interp,
		listener: listener,
		requests: make(chan request),
		done:     make(chan struct{}),
	}, nil
}

func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Run serves connections until Shutdown is called.
func (s *Server) Run() {
	go s.actorLoop()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handleConnection(conn)
	}
}

func (s *Server) Shutdown() {
	s.stop.Do(func() {
		close(s.done)
		s.listener.Close()
	})
}

// actorLoop is the single goroutine that touches the interpreter.
func (s *Server) actorLoop() {
	for {
		select {
		case req := <-s.requests:
			req.response <- s.handleRequest(req.msg)
		case <-s.done:
			return
		}
	}
}

func (s *Server) sendToActor(msg map[string]any) map[string]any {
	resp := make(chan map[string]any, 1)
	select {
	case s.requests <- request{msg: msg, response: resp}:
		return <-resp
	case <-s.done:
		id, _ := msg["id"].(string)
		return errorResponse(id, "server is shutting down")
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	for {
		msg, err := ReadMsg(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Printf("read client message: %v", err)
			}
			return
		}

		resp := s.sendToActor(msg)
		if err := WriteMsg(conn, resp); err != nil {
			log.Printf("write client response: %v", err)
			return
		}
	}
}

func (s *Server) handleRequest(msg map[string]any) map[string]any {
	id, _ := msg["id"].(string)
	ctx := context.Background()

	op, _ := msg["op"].(string)
	switch op {
	case "":
		return manual(id)
	case "eval":
		return s.handleEval(ctx, id, msg)
	case "defs":
		return s.handleDefs(ctx, id)
	case "forget":
		return s.handleForget(ctx, id, msg)
	case "traces":
		return s.handleTraces(id, msg)
	case "clear":
		if err := s.interp.Clear(ctx); err != nil {
			return errorResponse(id, err.Error())
		}
		return map[string]any{"id": id, "ok": true, "value": "cleared"}
	default:
		return errorResponse(id, fmt.Sprintf("unknown op: %s", op))
	}
}

func manual(id string) map[string]any {
	return map[string]any{
		"id": id,
		"ok": true,
		"value": map[string]any{
			"name":    "risp",
			"version": version,
			"ops": map[string]any{
				"eval":   `{"op": "eval", "expr": "(+ 1 2)"}  evaluate every form in expr, returning the last value`,
				"defs":   `{"op": "defs"}  list persisted definitions in replay order`,
				"forget": `{"op": "forget", "name": "f"}  drop a persisted definition and rebuild the session`,
				"traces": `{"op": "traces", "n": 10}  most recent top-level evaluations, oldest first`,
				"clear":  `{"op": "clear"}  reset the session and the definition store`,
			},
		},
	}
}

func (s *Server) handleEval(ctx context.Context, id string, msg map[string]any) map[string]any {
	expr, ok := msg["expr"].(string)
	if !ok {
		return errorResponse(id, "eval: missing expr")
	}
	val, err := s.interp.EvalString(ctx, expr)
	if err != nil {
		return errorResponse(id, err.Error())
	}
	resp := map[string]any{"id": id, "ok": true, "value": risp.PrStr(val, true)}
	if data, err := risp.ToGo(val); err == nil {
		resp["data"] = data
	}
	return resp
}

func (s *Server) handleDefs(ctx context.Context, id string) map[string]any {
	defs, err := s.interp.Definitions(ctx)
	if err != nil {
		return errorResponse(id, err.Error())
	}
	result := make([]any, len(defs))
	for i, d := range defs {
		result[i] = map[string]any{"name": d.Name, "source": d.Source}
	}
	return map[string]any{"id": id, "ok": true, "value": result}
}

func (s *Server) handleForget(ctx context.Context, id string, msg map[string]any) map[string]any {
	name, ok := msg["name"].(string)
	if !ok || name == "" {
		return errorResponse(id, "forget: missing name")
	}
	if err := s.interp.Forget(ctx, name); err != nil {
		return errorResponse(id, err.Error())
	}
	return map[string]any{"id": id, "ok": true, "value": name}
}

func (s *Server) handleTraces(id string, msg map[string]any) map[string]any {
	n := -1
	if v, ok := msg["n"].(float64); ok {
		n = int(v)
	}
	traces := s.interp.Traces(n)
	result := make([]any, len(traces))
	for i, t := range traces {
		entry := map[string]any{
			"id":        t.ID,
			"entry":     t.Entry,
			"timestamp": t.Timestamp,
		}
		if t.Error != "" {
			entry["error"] = t.Error
		} else {
			entry["result"] = risp.PrStr(t.Result, true)
		}
		result[i] = entry
	}
	return map[string]any{"id": id, "ok": true, "value": result}
}

func errorResponse(id, errMsg string) map[string]any {
	return map[string]any{"id": id, "ok": false, "error": errMsg}
}
