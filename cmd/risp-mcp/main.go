package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/rphilander/risp/config"
	"github.com/rphilander/risp/server"
)

// client forwards tool calls to a running `risp serve`.
type client struct {
	conn *server.Client
}

// formatResult turns a server response into an MCP tool result.
func formatResult(resp map[string]any) (*mcp.CallToolResult, error) {
	ok, _ := resp["ok"].(bool)
	if !ok {
		errMsg, _ := resp["error"].(string)
		if errMsg == "" {
			errMsg = "unknown error"
		}
		return mcp.NewToolResultError(errMsg), nil
	}
	if s, isString := resp["value"].(string); isString {
		return mcp.NewToolResultText(s), nil
	}
	out, err := json.MarshalIndent(resp["value"], "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (c *client) forward(req map[string]any) (*mcp.CallToolResult, error) {
	resp, err := c.conn.Call(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return formatResult(resp)
}

func (c *client) handleEval(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	expr, err := request.RequireString("expr")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return c.forward(map[string]any{"op": "eval", "expr": expr})
}

func (c *client) handleDefs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.forward(map[string]any{"op": "defs"})
}

func (c *client) handleForget(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return c.forward(map[string]any{"op": "forget", "name": name})
}

func (c *client) handleTraces(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := map[string]any{"op": "traces"}
	if n := request.GetInt("n", 0); n > 0 {
		req["n"] = n
	}
	return c.forward(req)
}

func (c *client) handleClear(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.forward(map[string]any{"op": "clear"})
}

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	conn, err := server.Dial(cfg.Socket)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()
	log.Printf("connected to risp: %s", cfg.Socket)
	c := &client{conn: conn}

	s := mcpserver.NewMCPServer(
		"risp",
		"1.0.0",
		mcpserver.WithToolCapabilities(false),
	)

	s.AddTool(
		mcp.NewTool("risp_eval",
			mcp.WithDescription("Evaluate risp source. Every form is evaluated in order and the last value is returned in printed form. Top-level def! and defmacro! forms are persisted."),
			mcp.WithString("expr",
				mcp.Required(),
				mcp.Description("Source to evaluate, e.g. (def! sq (fn* (x) (* x x)))"),
			),
		),
		c.handleEval,
	)

	s.AddTool(
		mcp.NewTool("risp_defs",
			mcp.WithDescription("List persisted definitions in replay order."),
		),
		c.handleDefs,
	)

	s.AddTool(
		mcp.NewTool("risp_forget",
			mcp.WithDescription("Remove a persisted definition and rebuild the session from the remaining ones."),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("Symbol whose definitions should be dropped"),
			),
		),
		c.handleForget,
	)

	s.AddTool(
		mcp.NewTool("risp_traces",
			mcp.WithDescription("Show the most recent top-level evaluations with their results or errors."),
			mcp.WithNumber("n",
				mcp.Description("How many traces to return, all when omitted"),
			),
		),
		c.handleTraces,
	)

	s.AddTool(
		mcp.NewTool("risp_clear",
			mcp.WithDescription("Reset the session: drop every definition, trace and stored definition."),
		),
		c.handleClear,
	)

	if err := mcpserver.ServeStdio(s); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
