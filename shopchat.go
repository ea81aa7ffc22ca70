// Package shopchat provides a high-level façade over the conversation
// engine: session store, tool bridge, retrieval gate and turn orchestrator
// wired together with safe in-memory defaults. Most applications interact
// with this package by:
//  1. Creating an App via New() (optionally overriding the model backend,
//     tool executor or retriever)
//  2. Adding explicit product context with AddContext()
//  3. Running turns via Chat() or ChatStream()
//
// The façade delegates turn execution to chat.Orchestrator while keeping
// setup ergonomics concise. The defaults are suitable for local development
// and tests; production deployments supply a real model backend and the MCP
// tool executor.
package shopchat

import (
	"context"

	"github.com/shopchat/shopchat/chat"
	"github.com/shopchat/shopchat/core"
	"github.com/shopchat/shopchat/logging"
	"github.com/shopchat/shopchat/model"
	"github.com/shopchat/shopchat/retrieval"
	"github.com/shopchat/shopchat/session"
	"github.com/shopchat/shopchat/tool"
)

// Options configures the App.
type Options struct {
	// Model is the generation backend. Defaults to a MockModel, which is
	// only useful for tests and examples.
	Model model.Model

	// Executor provides tools to the bridge. Nil disables tool use.
	Executor tool.Executor

	// Retriever enables semantic grounding. Nil disables retrieval.
	Retriever retrieval.Retriever

	// Turn loop bounds; zero values fall back to the chat defaults.
	MaxRounds   int
	MaxMessages int

	// Session lifetime; zero values fall back to the session defaults.
	Session session.Options

	// Logger defaults to NoOp.
	Logger logging.Logger
}

// App is the high-level façade aggregating the engine components.
type App struct {
	sessions *session.Store
	orch     *chat.Orchestrator
}

type noToolExecutor struct{}

func (noToolExecutor) ListTools(ctx context.Context) ([]model.ToolDefinition, error) {
	return nil, nil
}

func (noToolExecutor) CallTool(ctx context.Context, name string, args map[string]any) (*tool.Result, error) {
	return &tool.Result{Texts: []string{"no tools configured"}, IsError: true}, nil
}

// New creates an App with optional overrides. Any unset component is
// initialized with an in-memory default.
func New(optFns ...func(o *Options)) *App {
	opts := Options{
		Model:  model.NewMockModel("mock", "local"),
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	sessions := session.NewStore(func(o *session.Options) {
		if opts.Session.TTL > 0 {
			o.TTL = opts.Session.TTL
		}
		if opts.Session.SweepInterval > 0 {
			o.SweepInterval = opts.Session.SweepInterval
		}
		o.Logger = opts.Logger
	})

	var exec tool.Executor = noToolExecutor{}
	if opts.Executor != nil {
		exec = opts.Executor
	}
	bridge := tool.NewBridge(exec, opts.Logger)

	var gate *retrieval.Gate
	if opts.Retriever != nil {
		gate = retrieval.NewGate(opts.Retriever, opts.Logger)
	}

	orch := chat.NewOrchestrator(sessions, opts.Model, bridge, gate, func(o *chat.Options) {
		if opts.MaxRounds > 0 {
			o.MaxRounds = opts.MaxRounds
		}
		if opts.MaxMessages > 0 {
			o.MaxMessages = opts.MaxMessages
		}
		o.Logger = opts.Logger
	})

	return &App{sessions: sessions, orch: orch}
}

// Sessions exposes the underlying store, e.g. for mounting HTTP handlers.
func (a *App) Sessions() *session.Store { return a.sessions }

// StartSweeper launches TTL eviction; it stops when ctx is cancelled.
func (a *App) StartSweeper(ctx context.Context) { a.sessions.StartSweeper(ctx) }

// EnsureSession creates the session if it does not exist.
func (a *App) EnsureSession(id string) { a.sessions.Ensure(id) }

// AddContext merges product records into the session's explicit context,
// creating the session if needed. Lookup-failure markers are skipped.
func (a *App) AddContext(sessionID string, products []core.Product) {
	a.sessions.AddProducts(sessionID, products)
}

// Chat runs one buffered turn and returns the final assistant text.
func (a *App) Chat(ctx context.Context, sessionID, text string) (string, error) {
	return a.orch.RunTurn(ctx, sessionID, text)
}

// ChatStream runs one turn, delivering deltas and tool events to sink.
func (a *App) ChatStream(ctx context.Context, sessionID, text string, sink chat.Sink) {
	a.orch.RunTurnStreaming(ctx, sessionID, text, sink)
}
