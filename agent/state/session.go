package state

import (
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
)

var (
	ErrStateNotFound   = errors.New("session state not found")
	ErrNilSessionState = errors.New("session state is nil")
	ErrInvalidSession  = errors.New("session id is empty")
)

// SessionState is the capability-side memory for one conversation session:
// identity plus the full model message history. The displayed transcript is
// kept separately by the chat surface and never read back into the model.
type SessionState struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Channel   string `json:"channel_type"`

	History []*schema.Message `json:"history,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewSessionState(sessionID, userID, channel string, now time.Time) *SessionState {
	return &SessionState{
		SessionID: sessionID,
		UserID:    userID,
		Channel:   channel,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

// AppendHistory appends messages in order. Messages are treated as immutable
// once appended.
func (s *SessionState) AppendHistory(msgs ...*schema.Message) {
	for _, m := range msgs {
		if m == nil {
			continue
		}
		s.History = append(s.History, m)
	}
}

func (s *SessionState) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

func (s *SessionState) Validate() error {
	if s == nil {
		return ErrNilSessionState
	}
	if strings.TrimSpace(s.SessionID) == "" {
		return ErrInvalidSession
	}
	return nil
}

// Clone returns a copy safe to hand across the store boundary. History
// messages themselves are shared; they are append-only by convention.
func (s *SessionState) Clone() *SessionState {
	if s == nil {
		return nil
	}
	dup := *s
	dup.History = append([]*schema.Message(nil), s.History...)
	return &dup
}
