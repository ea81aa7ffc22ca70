package tool

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/shopchat/shopchat/core"
	"github.com/shopchat/shopchat/logging"
	"github.com/shopchat/shopchat/model"
)

// Bridge caches tool definitions and dispatches tool invocations to the
// Executor, normalizing results and errors into tool-result blocks.
//
// The definition fetch is attempted at most once per process lifetime;
// concurrent first callers coalesce into one fetch. An executor that turns
// a transient failure into an empty list is indistinguishable from "no
// tools exist" and is cached as such until ResetCache is called.
type Bridge struct {
	exec   Executor
	logger logging.Logger

	mu   sync.Mutex
	once *sync.Once
	defs []model.ToolDefinition
}

// NewBridge constructs a Bridge over the given executor.
func NewBridge(exec Executor, logger logging.Logger) *Bridge {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Bridge{exec: exec, logger: logger, once: new(sync.Once)}
}

// Definitions returns the cached tool definitions, fetching them on first
// call. A fetch failure is logged and cached as "no tools"; tools stay
// disabled until ResetCache or process restart.
func (b *Bridge) Definitions(ctx context.Context) []model.ToolDefinition {
	b.mu.Lock()
	once := b.once
	b.mu.Unlock()

	once.Do(func() {
		defs, err := b.exec.ListTools(ctx)
		if err != nil {
			b.logger.Error("tool.definitions.fetch_failed", "error", err.Error())
			defs = nil
		} else {
			b.logger.Info("tool.definitions.cached", "count", len(defs))
		}
		b.mu.Lock()
		b.defs = defs
		b.mu.Unlock()
	})

	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.ToolDefinition, len(b.defs))
	copy(out, b.defs)
	return out
}

// ResetCache clears the definition cache so the next Definitions call
// fetches again. Test-only escape hatch.
func (b *Bridge) ResetCache() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.once = new(sync.Once)
	b.defs = nil
}

// Invoke dispatches one tool-use block and returns the matching tool-result
// block. It never returns an error: failures become error-marked results
// embedding the cause, so the round loop can continue and the model can
// relay the outcome in natural language.
func (b *Bridge) Invoke(ctx context.Context, use core.ToolUseBlock) core.ToolResultBlock {
	start := time.Now()

	res, err := b.exec.CallTool(ctx, use.Name, use.Args)
	if err != nil {
		msg := err.Error()
		var terr *ToolError
		if errors.As(err, &terr) {
			msg = terr.Message
			b.logger.Warn("tool.call.error", "tool", use.Name, "code", terr.Code, "error", terr.Message)
		} else {
			b.logger.Warn("tool.call.error", "tool", use.Name, "error", msg)
		}
		return core.ToolResultBlock{
			ToolUseID: use.ID,
			Text:      "Tool hatası: " + msg,
			IsError:   true,
		}
	}

	text := strings.Join(res.Texts, "\n")
	if res.IsError {
		b.logger.Warn("tool.call.tool_error", "tool", use.Name, "duration_ms", time.Since(start).Milliseconds())
		return core.ToolResultBlock{ToolUseID: use.ID, Text: text, IsError: true}
	}

	b.logger.Info("tool.call.success", "tool", use.Name, "duration_ms", time.Since(start).Milliseconds())
	return core.ToolResultBlock{ToolUseID: use.ID, Text: text}
}
