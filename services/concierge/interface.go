package concierge

import (
	"context"

	"bookline/models"
)

// TurnHistory is the bounded conversation window consulted on every turn.
// The production implementation is the Redis-backed HistoryStore.
type TurnHistory interface {
	Load(ctx context.Context, tenantID, identity string) ([]models.ChatTurn, error)
	Append(ctx context.Context, tenantID, identity string, turns ...models.ChatTurn) error
}

// ToolCall is one function invocation requested by the model.
type ToolCall struct {
	Name string
	Args map[string]interface{}
}

// ToolResult feeds a tool's machine-readable outcome back to the model.
type ToolResult struct {
	Name   string
	Result string
}

// TurnResponse is one model response: free text plus any tool invocations.
type TurnResponse struct {
	Text  string
	Calls []ToolCall
}

// ChatSession is one stateful model conversation.
type ChatSession interface {
	SendText(ctx context.Context, text string) (*TurnResponse, error)
	SendToolResults(ctx context.Context, results []ToolResult) (*TurnResponse, error)
}

// LLMClient abstracts the tool-calling language model so tests can script
// responses. The production implementation wraps Gemini.
type LLMClient interface {
	StartChat(systemPrompt string, history []models.ChatTurn) ChatSession
}

// BookingDirective is the structured payload of a finalize-booking control.
type BookingDirective struct {
	Service string `json:"service"`
	Date    string `json:"date"`
	Time    string `json:"time"`
}

// Control is the structured side-channel extracted from a model reply. The
// legacy inline markers are parsed and stripped here so nothing downstream
// runs regexes over prose.
type Control struct {
	Pause   bool
	Booking *BookingDirective
}

// Turn is the orchestrator's outcome for one inbound message.
type Turn struct {
	Reply   string
	Control Control
	// Aborted marks a turn cut short by the tool error budget; the reply is
	// the fixed apology and the conversation is already paused.
	Aborted bool
}
