// Package tool implements the bridge between the turn orchestrator and the
// external tool executor: a process-lifetime definition cache with coalesced
// first fetch, and invocation dispatch that normalizes every outcome,
// success or failure, into a tool-result block so the round loop can
// always continue.
package tool

import (
	"context"
	"fmt"

	"github.com/shopchat/shopchat/model"
)

// Result is the normalized outcome of a tool invocation: any textual parts
// the executor produced plus an error marker for tool-level failures that
// the executor reported without raising.
type Result struct {
	Texts   []string `json:"texts"`
	IsError bool     `json:"is_error,omitempty"`
}

// Executor performs side-effecting tool calls on behalf of the bridge.
// Implementations must be safe for concurrent use.
type Executor interface {
	// ListTools returns the tool definitions the executor currently serves.
	ListTools(ctx context.Context) ([]model.ToolDefinition, error)

	// CallTool invokes a named tool with JSON-compatible arguments.
	CallTool(ctx context.Context, name string, args map[string]any) (*Result, error)
}

// Error codes executors attach to ToolError so the bridge can log the
// failure category without parsing messages.
const (
	CodeConnectFailed = "CONNECT_FAILED"
	CodeCallFailed    = "CALL_FAILED"
)

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`    // Name of the tool that failed
	Message string `json:"message"` // Error message
	Code    string `json:"code"`    // Error code for categorization
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{Tool: tool, Message: message, Code: code}
}
