package agent

// Message is a conversation turn in the Anthropic Messages API format.
type Message struct {
	Role    string         `json:"role"` // "user" or "assistant"
	Content []ContentBlock `json:"content"`
}

// ContentBlock is the interface over the API's content block variants.
type ContentBlock interface {
	BlockType() string
}

// TextBlock is plain text content.
type TextBlock struct {
	Type string `json:"type"` // always "text"
	Text string `json:"text"`
}

func (t TextBlock) BlockType() string { return "text" }

// ToolUseBlock is a tool invocation requested by the model.
type ToolUseBlock struct {
	Type  string         `json:"type"` // always "tool_use"
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

func (t ToolUseBlock) BlockType() string { return "tool_use" }

// ToolResultBlock carries a tool execution result back to the model.
type ToolResultBlock struct {
	Type      string `json:"type"` // always "tool_result"
	ToolUseID string `json:"tool_use_id"`
	Content   string `json:"content"`
	IsError   bool   `json:"is_error,omitempty"`
}

func (t ToolResultBlock) BlockType() string { return "tool_result" }

// UserMessage wraps plain text as a user turn.
func UserMessage(text string) Message {
	return Message{Role: "user", Content: []ContentBlock{TextBlock{Type: "text", Text: text}}}
}

// AssistantMessage wraps plain text as an assistant turn.
func AssistantMessage(text string) Message {
	return Message{Role: "assistant", Content: []ContentBlock{TextBlock{Type: "text", Text: text}}}
}

// ToolCall records one executed tool invocation for observability.
type ToolCall struct {
	Name   string
	Input  map[string]any
	Output string
	Error  error
}

// UsageStats accumulates token usage across API calls.
type UsageStats struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Add accumulates usage from another call.
func (u *UsageStats) Add(other UsageStats) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.TotalTokens += other.TotalTokens
}
