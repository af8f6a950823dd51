package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"github.com/rphilander/risp/config"
	risp "github.com/rphilander/risp/core"
	"github.com/rphilander/risp/server"
	"github.com/rphilander/risp/store"
)

const (
	appVersion = "1.0.0"
	promptMain = "user> "
	promptCont = "  ... "
)

func red(s string) string { return "\x1b[31m" + s + "\x1b[0m" }

func usage() {
	fmt.Fprintf(os.Stderr, `usage: risp <command> [flags] [args]

commands:
  repl                     interactive prompt (default)
  run <file> [args...]     evaluate a file with *ARGV* bound to args
  serve                    serve the session on a unix socket
  send [expr]              send expr, or a JSON request read from stdin,
                           to a running server and print the response
  version                  print the version

flags:
  -config <path>           YAML config file (default $RISP_CONFIG)
`)
}

func main() {
	cmd, args := "repl", os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "repl":
		os.Exit(cmdRepl(args))
	case "run":
		os.Exit(cmdRun(args))
	case "serve":
		os.Exit(cmdServe(args))
	case "send":
		os.Exit(cmdSend(args))
	case "version":
		fmt.Println(appVersion)
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		usage()
		os.Exit(2)
	}
}

// parseFlags parses the flags shared by every command and loads config.
func parseFlags(name string, args []string) (config.Config, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML config file")
	if err := fs.Parse(args); err != nil {
		return config.Config{}, nil, err
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, fs.Args(), nil
}

// session opens the definition store named in cfg, if any, and builds an
// interpreter with the configured preload files evaluated.
func session(ctx context.Context, cfg config.Config, out io.Writer) (*risp.Interpreter, func(), error) {
	opts := risp.Options{Out: out, MaxTraces: cfg.MaxTraces}
	cleanup := func() {}
	if cfg.Database != "" {
		st, err := store.Open(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		opts.Store = st
		cleanup = func() { st.Close() }
	}

	ip, err := risp.NewInterpreter(ctx, opts)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	for _, path := range cfg.Preload {
		if _, err := ip.EvalFile(ctx, path); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("preload %s: %w", path, err)
		}
	}
	return ip, cleanup, nil
}

func cmdRun(args []string) int {
	cfg, rest, err := parseFlags("run", args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if len(rest) == 0 {
		fmt.Fprintln(os.Stderr, "run: missing file")
		return 2
	}

	ctx := context.Background()
	ip, cleanup, err := session(ctx, cfg, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 1
	}
	defer cleanup()

	ip.SetArgs(rest[1:])
	if _, err := ip.EvalFile(ctx, rest[0]); err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 1
	}
	return 0
}

func cmdServe(args []string) int {
	cfg, _, err := parseFlags("serve", args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	ip, cleanup, err := session(context.Background(), cfg, os.Stdout)
	if err != nil {
		log.Printf("failed to start session: %v", err)
		return 1
	}
	defer cleanup()

	srv, err := server.New(ip, cfg.Socket)
	if err != nil {
		log.Printf("failed to start server: %v", err)
		return 1
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Println("shutting down...")
		srv.Shutdown()
	}()

	log.Printf("risp listening on %s (store: %q)", cfg.Socket, cfg.Database)
	srv.Run()
	return 0
}

func cmdSend(args []string) int {
	cfg, rest, err := parseFlags("send", args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	req, err := buildRequest(rest, os.Stdin)
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 2
	}

	conn, err := server.Dial(cfg.Socket)
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 1
	}
	defer conn.Close()

	resp, err := conn.Call(req)
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 1
	}
	if err := printResponse(os.Stdout, resp); err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 1
	}
	if ok, _ := resp["ok"].(bool); !ok {
		return 1
	}
	return 0
}

// buildRequest turns command line source into an eval request. With no
// arguments the request is read from stdin as a JSON object.
func buildRequest(args []string, stdin io.Reader) (map[string]any, error) {
	if len(args) > 0 {
		return map[string]any{"op": "eval", "expr": strings.Join(args, " ")}, nil
	}
	var req map[string]any
	if err := json.NewDecoder(stdin).Decode(&req); err != nil {
		return nil, fmt.Errorf("parse request: %w", err)
	}
	if req == nil {
		return nil, errors.New("parse request: expected a JSON object")
	}
	return req, nil
}

func printResponse(w io.Writer, resp map[string]any) error {
	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("format response: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func cmdRepl(args []string) int {
	cfg, _, err := parseFlags("repl", args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	ctx := context.Background()
	ip, cleanup, err := session(ctx, cfg, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 1
	}
	defer cleanup()

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(func(line string) []string {
		return complete(ip.Env(), line)
	})

	if f, err := os.Open(cfg.History); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(cfg.History); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	for {
		src, ok := readForms(ln)
		if !ok {
			fmt.Println()
			return 0
		}
		if strings.TrimSpace(src) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))

		v, err := ip.EvalString(ctx, src)
		if err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
			continue
		}
		fmt.Println(risp.PrStr(v, true))
	}
}

// readForms keeps prompting while the input so far is an incomplete form.
func readForms(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			// Ctrl+C drops the pending input.
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if _, err := risp.ReadAll(src); errors.Is(err, risp.ErrEOF) {
			continue
		}
		return src, true
	}
}

// complete offers root bindings that extend the last symbol on the line.
func complete(env *risp.Env, line string) []string {
	start := strings.LastIndexAny(line, " ()[]{}'`~@") + 1
	prefix := line[start:]
	if prefix == "" {
		return nil
	}
	var out []string
	for _, name := range env.Root().Names() {
		if strings.HasPrefix(name, prefix) {
			out = append(out, line[:start]+name)
		}
	}
	return out
}
