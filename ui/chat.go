// Package ui renders the chat transcript and feeds user turns to the session
// loop. It owns session creation triggering and turn history; the loop itself
// knows nothing about display.
package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	contractx "github.com/naratcha/shopmate/agent/contract"
	runnerx "github.com/naratcha/shopmate/agent/runner"
)

const (
	DefaultTitle = "AI Shopping Assistant"

	welcomeMessage = "Hello! I'm your AI Shopping Assistant. I can help you with:\n" +
		"  - Product information: specs, features, comparisons\n" +
		"  - Technical terms explained: BTU, inverter, OLED, etc.\n" +
		"  - Order tracking: check your order status\n" +
		"  - Support routing: connect you with the right department\n" +
		"What can I help you with today?"

	// Shown in the transcript when a turn fails outright; the real error only
	// goes to the log.
	errorReply = "Sorry, something went wrong on my side. Please try again in a moment."
)

type Config struct {
	Title  string
	UserID string
}

type turnReplyMsg struct {
	reply string
}

type turnErrMsg struct {
	err error
}

// Model is the bubbletea model for the chat surface. The transcript is
// append-only and display-only.
type Model struct {
	runner *runnerx.Runner
	title  string
	userID string

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	transcript []contractx.ChatTurn
	waiting    bool
	ready      bool
	width      int
}

func NewModel(run *runnerx.Runner, cfg Config) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask me about products, orders, or shopping..."
	ta.Prompt = "> "
	ta.CharLimit = 500
	ta.SetHeight(1)
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	title := strings.TrimSpace(cfg.Title)
	if title == "" {
		title = DefaultTitle
	}

	return Model{
		runner:   run,
		title:    title,
		userID:   strings.TrimSpace(cfg.UserID),
		textarea: ta,
		spinner:  sp,
	}
}

func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		vpHeight := msg.Height - 6
		if vpHeight < 3 {
			vpHeight = 3
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = vpHeight
		}
		m.textarea.SetWidth(msg.Width - 2)
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.waiting {
				return m, nil
			}
			prompt := strings.TrimSpace(m.textarea.Value())
			if prompt == "" {
				return m, nil
			}
			m.textarea.Reset()
			m.appendTurn(contractx.RoleUser, prompt)
			m.waiting = true
			return m, tea.Batch(m.spinner.Tick, m.submitTurn(prompt))
		}

	case turnReplyMsg:
		m.waiting = false
		m.appendTurn(contractx.RoleAssistant, msg.reply)
		return m, nil

	case turnErrMsg:
		m.waiting = false
		log.Error().Err(msg.err).Msg("turn failed")
		m.appendTurn(contractx.RoleAssistant, errorReply)
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var taCmd, vpCmd tea.Cmd
	m.textarea, taCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(taCmd, vpCmd)
}

func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if m.waiting {
		b.WriteString(m.spinner.View() + " Thinking...")
	} else {
		b.WriteString(m.textarea.View())
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter: send - esc: quit"))
	return b.String()
}

// submitTurn runs one exchange off the UI goroutine. The session is created
// lazily on the first turn and reused afterwards.
func (m Model) submitTurn(prompt string) tea.Cmd {
	run := m.runner
	userID := m.userID
	return func() tea.Msg {
		ctx := context.Background()
		sessionID, err := run.EnsureSession(ctx, userID)
		if err != nil {
			return turnErrMsg{err: err}
		}
		reply, err := run.HandleTurn(ctx, sessionID, prompt)
		if err != nil {
			return turnErrMsg{err: err}
		}
		return turnReplyMsg{reply: reply}
	}
}

func (m *Model) appendTurn(role contractx.Role, text string) {
	m.transcript = append(m.transcript, contractx.ChatTurn{
		Role: role,
		Text: text,
		At:   time.Now(),
	})
	if m.ready {
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
	}
}

func (m Model) renderTranscript() string {
	var b strings.Builder
	b.WriteString(welcomeStyle.Render(welcomeMessage))
	b.WriteString("\n\n")

	for _, turn := range m.transcript {
		label := assistantLabelStyle.Render("Assistant")
		if turn.Role == contractx.RoleUser {
			label = userLabelStyle.Render("You")
		}
		b.WriteString(label)
		b.WriteString("\n")
		b.WriteString(turnTextStyle.Width(max(m.width-2, 20)).Render(turn.Text))
		b.WriteString("\n\n")
	}
	return b.String()
}

// Run starts the chat program and blocks until the user quits.
func Run(run *runnerx.Runner, cfg Config) error {
	p := tea.NewProgram(NewModel(run, cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
