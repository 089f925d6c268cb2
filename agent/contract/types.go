package contract

import "time"

// ResultStatus tags a tool output so the model can tell a hit from a miss
// without parsing prose.
type ResultStatus string

const (
	StatusFound      ResultStatus = "found"
	StatusNotFound   ResultStatus = "not_found"
	StatusSuccess    ResultStatus = "success"
	StatusRedirected ResultStatus = "redirected"
)

// ToolRequest is one tool invocation requested by the model.
type ToolRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

// ToolResult wraps the output of a single tool execution. Result carries a
// tool-specific output struct with its own status tag; Error is reserved for
// malformed requests (unknown tool, bad argument types), never for lookup misses.
type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

type EventType string

const (
	EventText     EventType = "text"
	EventToolCall EventType = "tool_call"
	EventError    EventType = "error"
)

// Event is one item in the capability's per-turn output stream.
// Text events carry assistant-visible fragments; tool_call events record a
// dispatched tool with its result; an error event terminates the stream.
type Event struct {
	Type EventType
	Text string
	Tool *ToolInvocation
	Err  error
}

// ToolInvocation is the audit record attached to a tool_call event.
type ToolInvocation struct {
	Tool   string         `json:"tool"`
	Args   map[string]any `json:"args,omitempty"`
	Result ToolResult     `json:"result"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatTurn is one displayed transcript entry. The transcript is replay-only;
// the capability keeps its own session-scoped message history.
type ChatTurn struct {
	Role Role      `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}
