package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/toolchat/pkg/conversation"
	"github.com/go-go-golems/toolchat/pkg/inference/session"
	"github.com/go-go-golems/toolchat/pkg/inference/toolloop"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// states:
// - user input
// - user scrolling through the history
// - waiting for the agent loop
// - showing error

type State string

const (
	StateUserInput    State = "user_input"
	StateMovingAround State = "moving_around"
	StateThinking     State = "thinking"
	StateError        State = "error"
)

const headerText = "TOOLCHAT AT YOUR SERVICE:"

type turnDoneMsg struct {
	answer string
	err    error
}

type toolEventMsg struct {
	ev   toolloop.Event
	next tea.Cmd
}

type refreshMessageMsg struct {
	GoToBottom bool
}

type frameStyle struct {
	Focused   lipgloss.Style
	Unfocused lipgloss.Style
}

// Model is the full-screen chat. Every submitted question goes through
// session.Submit, so the history shown is always the session's memory.
type Model struct {
	session *session.Session

	viewport viewport.Model
	textArea textarea.Model
	help     help.Model
	keyMap   KeyMap
	styles   *Styles
	frame    frameStyle

	width  int
	height int

	state State
	err   error

	// set while a turn is running
	cancel   context.CancelFunc
	question string
	trace    []string

	quitReceived bool
}

// NewModel builds the chat model for s. styles may be nil.
func NewModel(s *session.Session, styles *Styles) Model {
	if styles == nil {
		st := NewStyles(nil, false)
		styles = &st
	}
	m := Model{
		session:  s,
		viewport: viewport.New(0, 0),
		help:     help.New(),
		keyMap:   DefaultKeyMap,
		styles:   styles,
		frame: frameStyle{
			Focused:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("12")).Padding(0, 1),
			Unfocused: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Faint(true).Padding(0, 1),
		},
	}

	m.textArea = textarea.New()
	m.textArea.Placeholder = "Ask anything..."
	m.textArea.ShowLineNumbers = false
	m.textArea.SetHeight(3)
	m.textArea.KeyMap.InsertNewline.SetEnabled(false)
	m.textArea.Focus()
	m.state = StateUserInput

	m.viewport.SetContent(m.messageView())
	m.viewport.GotoBottom()
	m.updateKeyBindings()
	return m
}

func (m Model) State() State { return m.state }

func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keyMap.CancelCompletion):
			m.cancelTurn()
			return m, nil

		case key.Matches(msg, m.keyMap.Quit):
			m.quitReceived = true
			if m.cancel != nil {
				m.cancelTurn()
				return m, nil
			}
			return m, tea.Quit

		case key.Matches(msg, m.keyMap.DismissError):
			m.err = nil
			m.state = StateUserInput
			cmds = append(cmds, m.textArea.Focus())
			m.updateKeyBindings()
			m.recomputeSize()
			return m, tea.Batch(cmds...)

		case key.Matches(msg, m.keyMap.UnfocusMessage):
			m.textArea.Blur()
			m.state = StateMovingAround
			m.updateKeyBindings()
			return m, nil

		case key.Matches(msg, m.keyMap.FocusMessage):
			m.state = StateUserInput
			m.updateKeyBindings()
			return m, m.textArea.Focus()

		case key.Matches(msg, m.keyMap.SubmitMessage):
			return m, m.submit()

		case key.Matches(msg, m.keyMap.Help):
			m.help.ShowAll = !m.help.ShowAll
			m.recomputeSize()
			return m, nil

		case key.Matches(msg, m.keyMap.ScrollUp, m.keyMap.ScrollDown):
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd

		default:
			switch m.state {
			case StateUserInput:
				m.textArea, cmd = m.textArea.Update(msg)
			case StateMovingAround, StateThinking, StateError:
				m.viewport, cmd = m.viewport.Update(msg)
			}
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recomputeSize()

	case toolEventMsg:
		m.trace = append(m.trace, formatEvent(msg.ev))
		m.recomputeSize()
		cmds = append(cmds, msg.next)

	case turnDoneMsg:
		cmds = append(cmds, m.finishTurn(msg))

	case refreshMessageMsg:
		m.viewport.SetContent(m.messageView())
		if msg.GoToBottom {
			m.viewport.GotoBottom()
		}

	default:
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) updateKeyBindings() {
	m.keyMap.SubmitMessage.SetEnabled(m.state == StateUserInput)
	m.keyMap.UnfocusMessage.SetEnabled(m.state == StateUserInput)
	m.keyMap.FocusMessage.SetEnabled(m.state == StateMovingAround)
	m.keyMap.CancelCompletion.SetEnabled(m.state == StateThinking)
	m.keyMap.DismissError.SetEnabled(m.state == StateError)
}

func (m *Model) recomputeSize() {
	headerHeight := lipgloss.Height(m.headerView())
	inputHeight := lipgloss.Height(m.inputView())
	helpHeight := lipgloss.Height(m.help.View(m.keyMap))

	newHeight := m.height - inputHeight - headerHeight - helpHeight - 2
	if newHeight < 0 {
		newHeight = 0
	}
	m.viewport.Width = m.width
	m.viewport.Height = newHeight
	m.viewport.YPosition = headerHeight + 1

	h, _ := m.frame.Focused.GetFrameSize()
	m.textArea.SetWidth(max(m.width-h, 1))
	m.help.Width = m.width

	m.viewport.SetContent(m.messageView())
	m.viewport.GotoBottom()
}

func (m Model) headerView() string {
	return m.styles.Notice.Render(headerText)
}

func (m Model) messageView() string {
	var b strings.Builder
	width := m.width - 2
	for _, t := range m.session.History() {
		var v string
		switch t.Role {
		case conversation.RoleUser:
			v = m.styles.Prompt.Render(PromptLabel) + t.Content
		case conversation.RoleAssistant:
			v = m.styles.Label.Render(AnswerLabel) + m.styles.Answer.Render(t.Content)
		case conversation.RoleTool:
			v = m.styles.Tool.Render(fmt.Sprintf("→ %s(%s)", t.ToolName, t.ToolArgument)) +
				"\n  " + m.styles.Notice.Render(firstLine(t.Content))
		default:
			v = t.String()
		}
		b.WriteString(wrapWords(v, width))
		b.WriteString("\n\n")
	}
	if m.question != "" {
		b.WriteString(wrapWords(m.styles.Prompt.Render(PromptLabel)+m.question, width))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) inputView() string {
	w, _ := m.frame.Focused.GetFrameSize()
	width := m.width - w
	switch m.state {
	case StateError:
		msg := "Error: " + m.err.Error()
		return m.frame.Unfocused.Render(wrapWords(m.styles.Error.Render(msg), width))
	case StateThinking:
		lines := append([]string{m.styles.Notice.Render("thinking...")}, m.trace...)
		return m.frame.Unfocused.Render(wrapWords(strings.Join(lines, "\n"), width))
	case StateMovingAround:
		return m.frame.Unfocused.Render(m.textArea.View())
	default:
		return m.frame.Focused.Render(m.textArea.View())
	}
}

func (m Model) View() string {
	return m.headerView() + "\n" +
		m.viewport.View() + "\n" +
		m.inputView() + "\n" +
		m.help.View(m.keyMap)
}

// submit starts a turn for the text in the input box. Submit runs on its
// own goroutine; tool events and the final result reach the model, in order,
// through one channel.
func (m *Model) submit() tea.Cmd {
	text := strings.TrimSpace(m.textArea.Value())
	if text == "" {
		return nil
	}
	if m.cancel != nil {
		return m.setError(errors.New("a question is already being answered"))
	}

	ctx, cancel := context.WithCancel(context.Background())
	msgs := make(chan tea.Msg, 16)
	ctx = toolloop.WithHook(ctx, func(ctx context.Context, ev toolloop.Event) {
		if ev.Phase != toolloop.PhaseToolDispatch && ev.Phase != toolloop.PhaseToolResult {
			return
		}
		select {
		case msgs <- toolEventMsg{ev: ev}:
		case <-ctx.Done():
		}
	})

	m.cancel = cancel
	m.question = text
	m.trace = nil
	m.textArea.Reset()
	m.textArea.Blur()
	m.state = StateThinking
	m.updateKeyBindings()
	m.recomputeSize()

	s := m.session
	go func() {
		answer, err := s.Submit(ctx, text)
		msgs <- turnDoneMsg{answer: answer, err: err}
		close(msgs)
	}()
	return waitForMsg(msgs)
}

func waitForMsg(msgs <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-msgs
		if !ok {
			return nil
		}
		if ev, ok := msg.(toolEventMsg); ok {
			ev.next = waitForMsg(msgs)
			return ev
		}
		return msg
	}
}

func (m *Model) cancelTurn() {
	if m.cancel == nil {
		return
	}
	log.Debug().Msg("dropping question")
	m.cancel()
}

func (m *Model) finishTurn(msg turnDoneMsg) tea.Cmd {
	if m.cancel != nil {
		m.cancel()
	}
	m.cancel = nil
	m.question = ""
	m.trace = nil

	if m.quitReceived {
		return tea.Quit
	}

	var cmd tea.Cmd
	switch {
	case msg.err == nil:
		m.state = StateUserInput
		cmd = m.textArea.Focus()
	case errors.Is(msg.err, context.Canceled):
		m.state = StateUserInput
		cmd = m.textArea.Focus()
	default:
		cmd = m.setError(msg.err)
	}
	m.updateKeyBindings()
	m.recomputeSize()
	return tea.Batch(cmd, func() tea.Msg { return refreshMessageMsg{GoToBottom: true} })
}

func (m *Model) setError(err error) tea.Cmd {
	m.err = err
	m.state = StateError
	m.textArea.Blur()
	m.updateKeyBindings()
	m.recomputeSize()
	return nil
}

func formatEvent(ev toolloop.Event) string {
	if ev.Call == nil {
		return ""
	}
	if ev.Phase == toolloop.PhaseToolResult && ev.Turn != nil {
		return "  " + firstLine(ev.Turn.Content)
	}
	return fmt.Sprintf("→ %s(%s)", ev.Call.Name, ev.Call.Argument)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}
