// Package chat runs user turns against a model backend, driving the tool-use
// round loop and owning rollback when a turn fails. A turn either commits a
// terminal assistant message to the session or leaves the session exactly as
// it was before the turn started.
package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/shopchat/shopchat/assemble"
	"github.com/shopchat/shopchat/core"
	"github.com/shopchat/shopchat/logging"
	"github.com/shopchat/shopchat/model"
	"github.com/shopchat/shopchat/retrieval"
	"github.com/shopchat/shopchat/session"
	"github.com/shopchat/shopchat/tool"
)

const (
	// DefaultMaxRounds bounds the tool-use loop. The model is called at
	// most DefaultMaxRounds+1 times per turn: once up front, then once
	// after each tool round.
	DefaultMaxRounds = 5

	// DefaultMaxMessages is the sliding history window, applied once at
	// turn start.
	DefaultMaxMessages = 20
)

// BackendError wraps a model backend failure that aborted a turn.
type BackendError struct {
	Err error
}

func (e *BackendError) Error() string { return fmt.Sprintf("model backend: %v", e.Err) }

func (e *BackendError) Unwrap() error { return e.Err }

// Sink receives streaming turn events. Round numbers are 1-based.
type Sink interface {
	Delta(text string)
	ToolStart(tool string, round int)
	ToolEnd(tool string, round int)
	Done()
	Error(err error)
}

// Options configures an Orchestrator.
type Options struct {
	MaxRounds   int
	MaxMessages int
	Logger      logging.Logger
}

// Orchestrator coordinates session state, grounding, the model backend and
// the tool bridge for a single application.
type Orchestrator struct {
	sessions *session.Store
	backend  model.Model
	bridge   *tool.Bridge
	gate     *retrieval.Gate
	opts     Options
}

// NewOrchestrator wires the turn loop. gate may be nil when semantic
// retrieval is not configured.
func NewOrchestrator(sessions *session.Store, backend model.Model, bridge *tool.Bridge, gate *retrieval.Gate, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		MaxRounds:   DefaultMaxRounds,
		MaxMessages: DefaultMaxMessages,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Orchestrator{
		sessions: sessions,
		backend:  backend,
		bridge:   bridge,
		gate:     gate,
		opts:     opts,
	}
}

// RunTurn executes one buffered turn and returns the final assistant text.
// The session must already exist; session.ErrNotFound is returned otherwise.
func (o *Orchestrator) RunTurn(ctx context.Context, sessionID, text string) (string, error) {
	return o.run(ctx, sessionID, text, nil)
}

// RunTurnStreaming executes one turn, delivering text deltas and tool events
// to sink as they happen. Exactly one of Done or Error is delivered, unless
// ctx is cancelled, after which nothing further is emitted.
func (o *Orchestrator) RunTurnStreaming(ctx context.Context, sessionID, text string, sink Sink) {
	_, err := o.run(ctx, sessionID, text, sink)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		sink.Error(err)
		return
	}
	sink.Done()
}

func (o *Orchestrator) run(ctx context.Context, sessionID, text string, sink Sink) (string, error) {
	turnID := uuid.NewString()
	turn, err := o.sessions.BeginTurn(sessionID)
	if err != nil {
		return "", err
	}

	turn.Append(core.NewUserMessage(text))
	turn.Trim(o.opts.MaxMessages)

	explicit := turn.Products()
	var retrieved []core.Product
	if o.gate != nil {
		retrieved = retrieval.MergeContext(explicit, o.gate.Retrieve(ctx, text))
	}
	defs := o.bridge.Definitions(ctx)

	if len(explicit) == 0 && len(retrieved) == 0 && len(defs) == 0 {
		// Nothing to ground on and no tools: a model call would be
		// useless, so skip it entirely.
		turn.Rollback()
		o.opts.Logger.Info("turn.short_circuit", "turn_id", turnID, "session_id", turn.SessionID())
		if sink != nil {
			sink.Delta(assemble.FallbackMessage)
		}
		return assemble.FallbackMessage, nil
	}

	system := assemble.BuildPrompt(explicit, retrieved, sessionID, len(defs) > 0)

	o.opts.Logger.Debug("turn.start",
		"turn_id", turnID,
		"session_id", turn.SessionID(),
		"explicit", len(explicit),
		"retrieved", len(retrieved),
		"tools", len(defs),
	)

	var finalText string
	for round := 0; ; round++ {
		if err := ctx.Err(); err != nil {
			turn.Rollback()
			return "", err
		}

		final, err := o.generate(ctx, model.Request{
			System:   system,
			Messages: turn.Messages(),
			Tools:    defs,
			Stream:   sink != nil,
		}, sink)
		if err != nil {
			turn.Rollback()
			return "", &BackendError{Err: err}
		}

		if final.ToolUseRequested() && round < o.opts.MaxRounds {
			turn.Append(final.Message)
			results, err := o.dispatch(ctx, final.Message.ToolUses(), round+1, sink)
			if err != nil {
				turn.Rollback()
				return "", err
			}
			turn.Append(core.NewToolResultMessage(results))
			continue
		}

		// Budget exhaustion with tools still requested is not an
		// error: whatever text is present (possibly none) wins.
		finalText = final.Message.Text()
		break
	}

	turn.Append(core.NewAssistantMessage(finalText))
	turn.Commit()
	o.opts.Logger.Info("turn.committed", "turn_id", turnID, "session_id", turn.SessionID())
	return finalText, nil
}

// generate calls the backend once and drains both channels, forwarding
// partial text to sink.
func (o *Orchestrator) generate(ctx context.Context, req model.Request, sink Sink) (*model.Response, error) {
	respCh, errCh := o.backend.Generate(ctx, req)

	var final *model.Response
	for resp := range respCh {
		if resp.Partial {
			if sink != nil && ctx.Err() == nil {
				sink.Delta(resp.Message.Text())
			}
			continue
		}
		r := resp
		final = &r
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	if final == nil {
		return nil, errors.New("stream closed without a final response")
	}
	return final, nil
}

// dispatch invokes each requested tool in order, preserving call-id
// correlation. Tool failures surface as error-flagged result blocks, never
// as turn failures; only cancellation aborts.
func (o *Orchestrator) dispatch(ctx context.Context, uses []core.ToolUseBlock, round int, sink Sink) ([]core.ToolResultBlock, error) {
	results := make([]core.ToolResultBlock, 0, len(uses))
	for _, use := range uses {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if sink != nil {
			sink.ToolStart(use.Name, round)
		}
		o.opts.Logger.Debug("turn.tool.dispatch", "tool", use.Name, "round", round)
		res := o.bridge.Invoke(ctx, use)
		if sink != nil && ctx.Err() == nil {
			sink.ToolEnd(use.Name, round)
		}
		results = append(results, res)
	}
	return results, nil
}
