// Package runner owns the session loop: one request/response cycle per user
// utterance, with lazy per-user session creation.
package runner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/naratcha/shopmate/agent/contract"
	statex "github.com/naratcha/shopmate/agent/state"
)

// FallbackReply is returned when a turn completes without any assistant text.
const FallbackReply = "I'm sorry, I couldn't process that. Could you try rephrasing?"

const defaultUserID = "web_user"

type Config struct {
	Channel  string
	Fallback string
}

type Runner struct {
	capability contractx.Capability
	store      statex.Store
	channel    string
	fallback   string

	mu       sync.Mutex
	sessions map[string]string // user id -> session id

	newID func() string
	now   func() time.Time
}

func New(capability contractx.Capability, store statex.Store, cfg Config) (*Runner, error) {
	if capability == nil {
		return nil, errors.New("capability is required")
	}
	if store == nil {
		return nil, errors.New("state store is required")
	}

	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = "chat"
	}
	fallback := strings.TrimSpace(cfg.Fallback)
	if fallback == "" {
		fallback = FallbackReply
	}

	return &Runner{
		capability: capability,
		store:      store,
		channel:    channel,
		fallback:   fallback,
		sessions:   make(map[string]string),
		newID:      uuid.NewString,
		now:        time.Now,
	}, nil
}

// EnsureSession returns the user's session id, creating the session on first
// use. The id stays stable for the rest of the process lifetime.
func (r *Runner) EnsureSession(ctx context.Context, userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = defaultUserID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.sessions[userID]; ok {
		return id, nil
	}

	id := r.newID()
	st := statex.NewSessionState(id, userID, r.channel, r.now())
	if err := r.store.Save(ctx, st); err != nil {
		return "", err
	}
	r.sessions[userID] = id

	log.Info().Str("session_id", id).Str("user_id", userID).Msg("session created")
	return id, nil
}

// HandleTurn performs exactly one exchange: it forwards the utterance to the
// capability, drains the event stream to exhaustion, and concatenates the
// text fragments in emission order. A turn with no text yields the fallback
// reply, never an empty string. No retry, no timeout.
func (r *Runner) HandleTurn(ctx context.Context, sessionID string, utterance string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", contractx.ErrInvalidSession
	}
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return "", contractx.ErrInvalidMessage
	}

	events, err := r.capability.Invoke(ctx, sessionID, utterance)
	if err != nil {
		return "", err
	}

	var reply strings.Builder
	var turnErr error
	for ev := range events {
		switch ev.Type {
		case contractx.EventText:
			reply.WriteString(ev.Text)
		case contractx.EventToolCall:
			if ev.Tool != nil {
				log.Debug().Str("session_id", sessionID).Str("tool", ev.Tool.Tool).Msg("turn tool call")
			}
		case contractx.EventError:
			if turnErr == nil {
				turnErr = ev.Err
			}
		}
	}
	if turnErr != nil {
		return "", turnErr
	}

	text := strings.TrimSpace(reply.String())
	if text == "" {
		return r.fallback, nil
	}
	return text, nil
}
