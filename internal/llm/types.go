package llm

import (
	"context"
	"encoding/json"
)

// Provider is the LLM endpoint abstraction. One Generate call is one model
// turn; turn chaining happens through Response.ID and Request.PreviousID.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// ToolDeclaration describes a callable tool offered to the model.
type ToolDeclaration struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ImageInput is an inline image part for the first turn.
type ImageInput struct {
	MimeType string
	Data     []byte
}

// ToolOutput feeds one executed tool call's result back to the model.
type ToolOutput struct {
	CallID string
	Output string
}

// Request is one model turn. For the first turn set Text/Images; for
// continuation turns set PreviousID and ToolOutputs instead. Store must be
// true whenever a follow-up turn may reference this one.
type Request struct {
	Model           string
	Instructions    string
	Text            string
	Images          []ImageInput
	Tools           []ToolDeclaration
	PreviousID      string
	ToolOutputs     []ToolOutput
	MaxOutputTokens int64
	Store           bool
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	CallID    string
	Name      string
	Arguments json.RawMessage
}

type Usage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.TotalTokens += other.TotalTokens
}

// Response is the model's output for one turn: either final text, or one or
// more tool-call requests.
type Response struct {
	ID        string
	Text      string
	ToolCalls []ToolCall
	Usage     Usage
}
