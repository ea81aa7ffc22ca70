package core

// Block represents a polymorphic segment of message content. Concrete block
// types implement the unexported isBlock marker enabling a closed set, so the
// round loop can switch exhaustively over every variant.
type Block interface{ isBlock() }

// TextBlock is a plain text content segment.
type TextBlock struct {
	Text string `json:"text"`
}

// isBlock implements the Block interface for TextBlock.
func (TextBlock) isBlock() {}

// ToolUseBlock is a structured request from the model to invoke a named
// external tool with JSON-compatible arguments.
type ToolUseBlock struct {
	ID   string         `json:"id"`   // Correlation id assigned by the model
	Name string         `json:"name"` // Tool name (e.g. "ecommerce_add_to_cart")
	Args map[string]any `json:"args,omitempty"`
}

// isBlock implements the Block interface for ToolUseBlock.
func (ToolUseBlock) isBlock() {}

// ToolResultBlock conveys a tool's outcome back to the model. IsError marks
// failures that the model should relay to the user in natural language.
type ToolResultBlock struct {
	ToolUseID string `json:"tool_use_id"` // Matches the originating ToolUseBlock ID
	Text      string `json:"text"`
	IsError   bool   `json:"is_error,omitempty"`
}

// isBlock implements the Block interface for ToolResultBlock.
func (ToolResultBlock) isBlock() {}

// Role identifies the author of a message.
type Role string

// Conversation roles. Tool results travel in user-role messages, mirroring
// the Messages API wire shape.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message holds a role plus ordered content blocks. A message's blocks are
// structurally homogeneous per round: assistant content is produced by the
// model, tool-result content by the orchestrator in reply.
type Message struct {
	Role   Role    `json:"role"`
	Blocks []Block `json:"blocks"`
}

// NewUserMessage creates a user message with a single text block.
func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Blocks: []Block{TextBlock{Text: text}}}
}

// NewAssistantMessage creates an assistant message with a single text block.
func NewAssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Blocks: []Block{TextBlock{Text: text}}}
}

// NewToolResultMessage wraps a round's tool results in a single user-role
// message, preserving call order.
func NewToolResultMessage(results []ToolResultBlock) Message {
	blocks := make([]Block, len(results))
	for i, r := range results {
		blocks[i] = r
	}
	return Message{Role: RoleUser, Blocks: blocks}
}

// Text concatenates the text blocks of the message in order, ignoring
// every other block kind.
func (m Message) Text() string {
	var out string
	for _, b := range m.Blocks {
		if tb, ok := b.(TextBlock); ok {
			out += tb.Text
		}
	}
	return out
}

// ToolUses returns any tool-use blocks contained in the message preserving
// their original order.
func (m Message) ToolUses() []ToolUseBlock {
	var uses []ToolUseBlock
	for _, b := range m.Blocks {
		if tu, ok := b.(ToolUseBlock); ok {
			uses = append(uses, tu)
		}
	}
	return uses
}
