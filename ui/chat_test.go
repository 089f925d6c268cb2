package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	contractx "github.com/naratcha/shopmate/agent/contract"
)

func TestAppendTurnIsAppendOnly(t *testing.T) {
	t.Parallel()

	m := NewModel(nil, Config{})
	m.appendTurn(contractx.RoleUser, "hello")
	m.appendTurn(contractx.RoleAssistant, "hi there")

	if len(m.transcript) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(m.transcript))
	}
	if m.transcript[0].Role != contractx.RoleUser || m.transcript[1].Role != contractx.RoleAssistant {
		t.Fatalf("unexpected roles: %#v", m.transcript)
	}
}

func TestRenderTranscriptShowsWelcomeAndTurns(t *testing.T) {
	t.Parallel()

	m := NewModel(nil, Config{})
	m.width = 80
	m.appendTurn(contractx.RoleUser, "where is my order?")

	out := m.renderTranscript()
	if !strings.Contains(out, "AI Shopping Assistant") {
		t.Fatalf("welcome message missing from transcript:\n%s", out)
	}
	if !strings.Contains(out, "where is my order?") {
		t.Fatalf("user turn missing from transcript:\n%s", out)
	}
}

func TestTurnReplyClearsWaiting(t *testing.T) {
	t.Parallel()

	m := NewModel(nil, Config{})
	m.waiting = true

	updated, _ := m.Update(turnReplyMsg{reply: "done"})
	next, ok := updated.(Model)
	if !ok {
		t.Fatalf("unexpected model type: %T", updated)
	}
	if next.waiting {
		t.Fatal("reply must clear the waiting flag")
	}
	if len(next.transcript) != 1 || next.transcript[0].Text != "done" {
		t.Fatalf("reply not appended: %#v", next.transcript)
	}
}

func TestQuitKeys(t *testing.T) {
	t.Parallel()

	m := NewModel(nil, Config{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg, got %#v", cmd())
	}
}
