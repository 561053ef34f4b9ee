// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package anthropic

import (
	"encoding/json"
	"fmt"
)

// StopReason is the model's reason for ending a response.
type StopReason string

const (
	// StopEndTurn means the model finished its answer.
	StopEndTurn StopReason = "end_turn"

	// StopToolUse means the response requests tool invocations.
	StopToolUse StopReason = "tool_use"

	// StopMaxTokens means the response hit the output token ceiling.
	StopMaxTokens StopReason = "max_tokens"
)

// Content block type tags used by the Messages API.
const (
	BlockText          = "text"
	BlockToolUse       = "tool_use"
	BlockServerToolUse = "server_tool_use"
	BlockToolResult    = "tool_result"
)

// Message is one turn in the conversation. Content stays raw JSON so
// assistant turns round-trip byte-for-byte when appended back into the
// history; the API needs the original tool_use and code-execution blocks
// intact to correlate results.
type Message struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// NewTextMessage builds a message whose content is a plain string.
func NewTextMessage(role, text string) Message {
	content, _ := json.Marshal(text)
	return Message{Role: role, Content: content}
}

// NewBlockMessage builds a message from content blocks.
func NewBlockMessage(role string, blocks []ContentBlock) (Message, error) {
	content, err := json.Marshal(blocks)
	if err != nil {
		return Message{}, fmt.Errorf("marshaling content blocks: %w", err)
	}
	return Message{Role: role, Content: content}, nil
}

// ContentBlock is a single block within a message's content. The Type tag
// decides which fields are meaningful: text blocks carry Text; tool_use and
// server_tool_use blocks carry ID, Name, and Input; tool_result blocks carry
// ToolUseID, Content, and IsError. Unrecognized types decode with just their
// tag, which is enough to skip them.
type ContentBlock struct {
	Type string `json:"type"`

	Text string `json:"text,omitempty"`

	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

// TextResult builds a tool_result block carrying a plain-text payload.
func TextResult(toolUseID, text string, isErr bool) ContentBlock {
	content, _ := json.Marshal(text)
	return ContentBlock{
		Type:      BlockToolResult,
		ToolUseID: toolUseID,
		Content:   content,
		IsError:   isErr,
	}
}

// Tool declares a capability in a request. Local tools set Name, Description,
// and InputSchema; server tools set Type and Name and are executed by the
// platform.
type Tool struct {
	Type        string          `json:"type,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema,omitempty"`
}

// MessagesRequest is the request body for the Messages API.
type MessagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Tools     []Tool    `json:"tools,omitempty"`
	Messages  []Message `json:"messages"`
}

// Usage reports token consumption for one exchange.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// MessagesResponse is the decoded response envelope. RawContent preserves
// the content array exactly as received; Blocks is the decoded view of the
// same bytes, filled in by the client.
type MessagesResponse struct {
	ID         string          `json:"id"`
	Model      string          `json:"model"`
	Role       string          `json:"role"`
	RawContent json.RawMessage `json:"content"`
	StopReason StopReason      `json:"stop_reason"`
	Usage      Usage           `json:"usage"`

	Blocks []ContentBlock `json:"-"`
}

// decodeBlocks fills Blocks from RawContent.
func (r *MessagesResponse) decodeBlocks() error {
	if len(r.RawContent) == 0 {
		r.Blocks = nil
		return nil
	}
	if err := json.Unmarshal(r.RawContent, &r.Blocks); err != nil {
		return fmt.Errorf("decoding content blocks: %w", err)
	}
	return nil
}

// AssistantMessage returns the response content as a history message, ready
// to append before sending tool results back.
func (r *MessagesResponse) AssistantMessage() Message {
	return Message{Role: "assistant", Content: r.RawContent}
}

// APIError is a structured error returned by the Messages API.
type APIError struct {
	StatusCode int    `json:"-"`
	Type       string `json:"type"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("messages API error (HTTP %d, %s): %s", e.StatusCode, e.Type, e.Message)
}

// errorEnvelope is the wire shape of an API error response.
type errorEnvelope struct {
	Error APIError `json:"error"`
}
