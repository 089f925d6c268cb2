// Package assistant implements the agent capability: an eino tool-calling
// chat model driven in a dispatch loop over the tool registry, emitting an
// ordered event stream per turn.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/naratcha/shopmate/agent/contract"
	statex "github.com/naratcha/shopmate/agent/state"
)

// DefaultMaxToolIterations caps model round-trips within one turn.
const DefaultMaxToolIterations = 8

type Config struct {
	SystemPrompt      string
	Channel           string
	MaxToolIterations int
}

// Assistant holds the tool-bound chat model and per-session histories. One
// instance serves all sessions; per-session access is sequential.
type Assistant struct {
	model         einomodel.ToolCallingChatModel
	executor      contractx.Executor
	store         statex.Store
	systemPrompt  string
	channel       string
	maxIterations int

	now func() time.Time
}

var _ contractx.Capability = (*Assistant)(nil)

func New(
	chatModel einomodel.ToolCallingChatModel,
	infos []*schema.ToolInfo,
	executor contractx.Executor,
	store statex.Store,
	cfg Config,
) (*Assistant, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}
	if executor == nil {
		return nil, errors.New("tool executor is required")
	}
	if store == nil {
		return nil, errors.New("state store is required")
	}

	toolModel, err := chatModel.WithTools(infos)
	if err != nil {
		return nil, fmt.Errorf("%w: bind tools: %v", contractx.ErrModelInvoke, err)
	}

	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = "chat"
	}
	maxIterations := cfg.MaxToolIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxToolIterations
	}

	return &Assistant{
		model:         toolModel,
		executor:      executor,
		store:         store,
		systemPrompt:  strings.TrimSpace(cfg.SystemPrompt),
		channel:       channel,
		maxIterations: maxIterations,
		now:           time.Now,
	}, nil
}

// Invoke starts one turn. The returned channel carries tool_call and text
// events in emission order and is closed when the turn completes; an error
// event is terminal.
func (a *Assistant) Invoke(ctx context.Context, sessionID string, text string) (<-chan contractx.Event, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, contractx.ErrInvalidSession
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, contractx.ErrInvalidMessage
	}

	st, err := a.loadOrCreateState(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	events := make(chan contractx.Event, 8)
	go a.runTurn(ctx, st, text, events)
	return events, nil
}

func (a *Assistant) runTurn(ctx context.Context, st *statex.SessionState, text string, events chan<- contractx.Event) {
	defer close(events)

	st.AppendHistory(schema.UserMessage(text))

	messages := make([]*schema.Message, 0, len(st.History)+1)
	if a.systemPrompt != "" {
		messages = append(messages, schema.SystemMessage(a.systemPrompt))
	}
	messages = append(messages, st.History...)

	for i := 0; i < a.maxIterations; i++ {
		reply, err := a.model.Generate(ctx, messages)
		if err != nil {
			a.saveState(ctx, st)
			events <- contractx.Event{
				Type: contractx.EventError,
				Err:  fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err),
			}
			return
		}

		messages = append(messages, reply)
		st.AppendHistory(reply)

		// Text accompanies tool calls on some models; every non-empty
		// fragment is emitted in order regardless.
		if content := strings.TrimSpace(reply.Content); content != "" {
			events <- contractx.Event{Type: contractx.EventText, Text: reply.Content}
		}

		if len(reply.ToolCalls) == 0 {
			a.saveState(ctx, st)
			return
		}

		for _, call := range reply.ToolCalls {
			toolMsg, invocation := a.dispatchToolCall(ctx, call)
			events <- contractx.Event{Type: contractx.EventToolCall, Tool: invocation}
			messages = append(messages, toolMsg)
			st.AppendHistory(toolMsg)
		}
	}

	a.saveState(ctx, st)
	events <- contractx.Event{Type: contractx.EventError, Err: contractx.ErrToolOverflow}
}

func (a *Assistant) dispatchToolCall(ctx context.Context, call schema.ToolCall) (*schema.Message, *contractx.ToolInvocation) {
	name := strings.TrimSpace(call.Function.Name)
	args := decodeArgs(call.Function.Arguments)

	result, err := a.executor(ctx, name, args)
	if err != nil {
		result = contractx.ToolResult{Tool: name, Error: err.Error()}
	}

	log.Debug().
		Str("tool", name).
		Str("error", result.Error).
		Msg("tool dispatched")

	payload, err := json.Marshal(result)
	if err != nil {
		payload = []byte(fmt.Sprintf(`{"tool":%q,"error":"result not serializable"}`, name))
	}

	return schema.ToolMessage(string(payload), call.ID), &contractx.ToolInvocation{
		Tool:   name,
		Args:   args,
		Result: result,
	}
}

func (a *Assistant) loadOrCreateState(ctx context.Context, sessionID string) (*statex.SessionState, error) {
	st, err := a.store.Load(ctx, sessionID)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, statex.ErrStateNotFound) {
		return nil, err
	}
	return statex.NewSessionState(sessionID, "", a.channel, a.now()), nil
}

func (a *Assistant) saveState(ctx context.Context, st *statex.SessionState) {
	st.Touch(a.now())
	if err := a.store.Save(ctx, st); err != nil {
		log.Warn().Err(err).Str("session_id", st.SessionID).Msg("save session state failed")
	}
}

// decodeArgs tolerates malformed tool-call arguments: the empty map simply
// fails the downstream lookup.
func decodeArgs(raw string) map[string]any {
	args := map[string]any{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return args
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return map[string]any{}
	}
	return args
}
