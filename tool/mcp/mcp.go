// Package mcp implements the tool.Executor interface over a Model Context
// Protocol server spawned as a child process on stdio transport.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sync"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/shopchat/shopchat/logging"
	"github.com/shopchat/shopchat/model"
	"github.com/shopchat/shopchat/tool"
)

// Options configures the MCP executor.
type Options struct {
	// Command and Args spawn the MCP server process (stdio transport).
	Command string
	Args    []string

	// Client identity announced during the MCP handshake.
	Name    string
	Version string

	Logger logging.Logger
}

// Executor talks to an MCP tool server. The connection is established
// lazily on first use; concurrent first callers coalesce into a single
// handshake. A failed handshake is cached; like the definition cache
// above it, the executor does not retry within a process lifetime.
type Executor struct {
	opts Options

	connectOnce sync.Once
	session     *sdk.ClientSession
	connErr     error
}

// NewExecutor constructs an Executor for the given server command.
func NewExecutor(command string, optFns ...func(o *Options)) *Executor {
	opts := Options{
		Command: command,
		Name:    "shopchat",
		Version: "1.0.0",
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Executor{opts: opts}
}

// connect performs the lazy, coalesced handshake.
func (e *Executor) connect(ctx context.Context) (*sdk.ClientSession, error) {
	e.connectOnce.Do(func() {
		client := sdk.NewClient(&sdk.Implementation{
			Name:    e.opts.Name,
			Version: e.opts.Version,
		}, nil)

		cmd := exec.Command(e.opts.Command, e.opts.Args...)
		session, err := client.Connect(ctx, &sdk.CommandTransport{Command: cmd}, nil)
		if err != nil {
			e.connErr = fmt.Errorf("mcp connect: %w", err)
			e.opts.Logger.Error("mcp.connect.failed", "command", e.opts.Command, "error", err.Error())
			return
		}
		e.session = session
		e.opts.Logger.Info("mcp.connected", "command", e.opts.Command)
	})
	return e.session, e.connErr
}

// ListTools fetches the server's tool list and normalizes it. Any failure
// is converted into an empty list for graceful degradation, so the caller
// cannot tell it apart from a server with no tools.
func (e *Executor) ListTools(ctx context.Context) ([]model.ToolDefinition, error) {
	session, err := e.connect(ctx)
	if err != nil {
		return nil, nil
	}

	res, err := session.ListTools(ctx, &sdk.ListToolsParams{})
	if err != nil {
		e.opts.Logger.Error("mcp.list_tools.failed", "error", err.Error())
		return nil, nil
	}

	defs := make([]model.ToolDefinition, 0, len(res.Tools))
	for _, t := range res.Tools {
		schema := map[string]any{}
		if t.InputSchema != nil {
			if raw, err := json.Marshal(t.InputSchema); err == nil {
				_ = json.Unmarshal(raw, &schema)
			}
		}
		defs = append(defs, model.ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: schema,
		})
	}
	return defs, nil
}

// CallTool invokes a named tool on the server and collects its textual
// content parts.
func (e *Executor) CallTool(ctx context.Context, name string, args map[string]any) (*tool.Result, error) {
	session, err := e.connect(ctx)
	if err != nil {
		return nil, tool.NewToolError(name, err.Error(), tool.CodeConnectFailed)
	}

	res, err := session.CallTool(ctx, &sdk.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return nil, tool.NewToolError(name, err.Error(), tool.CodeCallFailed)
	}

	var texts []string
	for _, c := range res.Content {
		if tc, ok := c.(*sdk.TextContent); ok {
			texts = append(texts, tc.Text)
		}
	}
	return &tool.Result{Texts: texts, IsError: res.IsError}, nil
}

// Close shuts down the MCP session and its child process.
func (e *Executor) Close() error {
	if e.session != nil {
		return e.session.Close()
	}
	return nil
}
