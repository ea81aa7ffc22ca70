// Package model defines the normalized interface to language-model backends
// plus a deterministic mock for tests. Providers adapt their wire formats
// into Request/Response so the orchestrator never branches per vendor.
package model

import (
	"context"
	"fmt"

	"github.com/shopchat/shopchat/core"
)

// ToolDefinition declaratively exposes a callable tool to the model.
// InputSchema is a JSON Schema object (minimal subset expected).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// Request captures the normalized model input produced by the orchestrator.
type Request struct {
	System   string           `json:"system"`
	Messages []core.Message   `json:"messages"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
	Stream   bool             `json:"stream,omitempty"`
}

// Stop reasons shared across providers.
const (
	StopEndTurn = "end_turn"
	StopToolUse = "tool_use"
)

// Response is a (partial or final) chunk emitted by a model. Partial
// responses carry incremental text; the final response carries the full
// structured assistant message plus the stop reason.
type Response struct {
	Partial    bool         `json:"partial"`
	Message    core.Message `json:"message"`
	StopReason string       `json:"stop_reason,omitempty"`
}

// ToolUseRequested reports whether the final response asks for tool
// invocations.
func (r Response) ToolUseRequested() bool {
	return r.StopReason == StopToolUse || len(r.Message.ToolUses()) > 0
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"`
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required to drive generation. Generate
// returns a response channel (closed after the final response) and a
// terminal error channel (at most one error, then closed).
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
// It echoes a canned completion for the last user text, streaming it
// character-wise when requested.
type MockModel struct {
	info      Info
	responses map[string]string
}

// NewMockModel constructs a MockModel with tool support enabled.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: provider, SupportsTools: true},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) { m.responses[prompt] = response }

// Generate implements Model; emits optional streaming char chunks then the
// final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)
		if len(req.Messages) == 0 {
			errCh <- fmt.Errorf("no messages provided")
			return
		}
		last := req.Messages[len(req.Messages)-1]
		full := m.responses[last.Text()]
		if full == "" {
			full = fmt.Sprintf("Mock response to: %s", last.Text())
		}
		if req.Stream {
			for _, r := range full {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{
					Partial: true,
					Message: core.NewAssistantMessage(string(r)),
				}:
				}
			}
		}
		respCh <- Response{
			Partial:    false,
			Message:    core.NewAssistantMessage(full),
			StopReason: StopEndTurn,
		}
	}()
	return respCh, errCh
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
