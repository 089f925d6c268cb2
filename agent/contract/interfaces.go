package contract

import "context"

// Capability is the opaque reasoning engine boundary: given a session and a
// user utterance it emits an ordered stream of events and closes the channel
// when the turn is complete. Tool selection happens behind this interface.
type Capability interface {
	Invoke(ctx context.Context, sessionID string, text string) (<-chan Event, error)
}

// Executor dispatches one named tool call with decoded arguments.
type Executor func(ctx context.Context, tool string, args map[string]any) (ToolResult, error)
