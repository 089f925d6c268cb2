package runner

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	contractx "github.com/naratcha/shopmate/agent/contract"
	statex "github.com/naratcha/shopmate/agent/state"
)

type fakeCapability struct {
	events  []contractx.Event
	err     error
	invokes int
}

func (f *fakeCapability) Invoke(ctx context.Context, sessionID string, text string) (<-chan contractx.Event, error) {
	f.invokes++
	if f.err != nil {
		return nil, f.err
	}
	ch := make(chan contractx.Event, len(f.events)+1)
	for _, ev := range f.events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func newTestRunner(t *testing.T, capability contractx.Capability) *Runner {
	t.Helper()
	r, err := New(capability, statex.NewMemoryStore(), Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r
}

func TestHandleTurnAccumulatesFragments(t *testing.T) {
	t.Parallel()

	r := newTestRunner(t, &fakeCapability{
		events: []contractx.Event{
			{Type: contractx.EventToolCall, Tool: &contractx.ToolInvocation{Tool: "search_products"}},
			{Type: contractx.EventText, Text: "Here are "},
			{Type: contractx.EventText, Text: "two TVs.  "},
		},
	})

	reply, err := r.HandleTurn(context.Background(), "s1", "show me tvs")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if reply != "Here are two TVs." {
		t.Fatalf("unexpected reply: %q", reply)
	}
}

func TestHandleTurnFallbackOnSilence(t *testing.T) {
	t.Parallel()

	r := newTestRunner(t, &fakeCapability{
		events: []contractx.Event{
			{Type: contractx.EventToolCall, Tool: &contractx.ToolInvocation{Tool: "check_order_status"}},
		},
	})

	reply, err := r.HandleTurn(context.Background(), "s1", "anything")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if reply != FallbackReply {
		t.Fatalf("expected the fallback reply, got %q", reply)
	}
}

func TestHandleTurnWhitespaceOnlyTextFallsBack(t *testing.T) {
	t.Parallel()

	r := newTestRunner(t, &fakeCapability{
		events: []contractx.Event{
			{Type: contractx.EventText, Text: "   \n"},
		},
	})

	reply, err := r.HandleTurn(context.Background(), "s1", "anything")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if reply != FallbackReply {
		t.Fatalf("expected the fallback reply, got %q", reply)
	}
}

func TestHandleTurnPropagatesErrorEvents(t *testing.T) {
	t.Parallel()

	r := newTestRunner(t, &fakeCapability{
		events: []contractx.Event{
			{Type: contractx.EventText, Text: "partial"},
			{Type: contractx.EventError, Err: contractx.ErrModelInvoke},
		},
	})

	_, err := r.HandleTurn(context.Background(), "s1", "hi")
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}
}

func TestHandleTurnValidatesInput(t *testing.T) {
	t.Parallel()

	r := newTestRunner(t, &fakeCapability{})

	if _, err := r.HandleTurn(context.Background(), "", "hi"); !errors.Is(err, contractx.ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
	if _, err := r.HandleTurn(context.Background(), "s1", "  "); !errors.Is(err, contractx.ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
}

func TestHandleTurnSingleExchange(t *testing.T) {
	t.Parallel()

	capability := &fakeCapability{}
	r := newTestRunner(t, capability)

	if _, err := r.HandleTurn(context.Background(), "s1", "hi"); err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if capability.invokes != 1 {
		t.Fatalf("expected exactly one invoke, got %d", capability.invokes)
	}
}

func TestEnsureSessionIsLazyAndStable(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	r, err := New(&fakeCapability{}, store, Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	seq := 0
	r.newID = func() string {
		seq++
		return fmt.Sprintf("session-%d", seq)
	}
	r.now = func() time.Time {
		return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	}

	first, err := r.EnsureSession(context.Background(), "alice")
	if err != nil {
		t.Fatalf("EnsureSession() error = %v", err)
	}
	again, err := r.EnsureSession(context.Background(), "alice")
	if err != nil {
		t.Fatalf("EnsureSession() error = %v", err)
	}
	if first != again {
		t.Fatalf("session id must be stable per user: %s vs %s", first, again)
	}

	other, err := r.EnsureSession(context.Background(), "bob")
	if err != nil {
		t.Fatalf("EnsureSession() error = %v", err)
	}
	if other == first {
		t.Fatal("distinct users must get distinct sessions")
	}

	st, err := store.Load(context.Background(), first)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if st.UserID != "alice" {
		t.Fatalf("unexpected user id: %s", st.UserID)
	}
}

func TestEnsureSessionDefaultsUser(t *testing.T) {
	t.Parallel()

	r := newTestRunner(t, &fakeCapability{})
	id, err := r.EnsureSession(context.Background(), "  ")
	if err != nil {
		t.Fatalf("EnsureSession() error = %v", err)
	}
	if id == "" {
		t.Fatal("expected a session id")
	}
	again, err := r.EnsureSession(context.Background(), "")
	if err != nil {
		t.Fatalf("EnsureSession() error = %v", err)
	}
	if id != again {
		t.Fatal("blank user must map to one default session")
	}
}
