package bubbletea

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/aira"
	"github.com/mattn/go-runewidth"
)

var _ tea.Model = Model{}

// Model is the Bubble Tea model for the chat TUI.
type Model struct {
	// Input is the text input component. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable output area. Exported for test access.
	Viewport viewport.Model

	ctrl       Controller
	theme      aira.Theme
	styles     Styles
	failureMsg string

	blocks []MessageBlock
	active *AssistantBlock

	phase   aira.Phase
	updates chan aira.Update
	done    chan TurnDoneMsg
	err     error
	ready   bool
}

// Option configures a [Model].
type Option func(*Model)

// WithFailureMessage sets the message shown for failed turns.
func WithFailureMessage(msg string) Option {
	return func(m *Model) { m.failureMsg = msg }
}

// New creates a new TUI Model driving ctrl.
func New(ctrl Controller, theme aira.Theme, opts ...Option) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.Prompt = ""
	ti.Focus()
	ti.CharLimit = 0

	m := Model{
		Input:      ti,
		ctrl:       ctrl,
		theme:      theme,
		styles:     NewStyles(theme),
		failureMsg: aira.DefaultFailureMessage,
	}
	for _, o := range opts {
		o(&m)
	}
	return m
}

// Running returns whether a turn is in flight.
func (m Model) Running() bool {
	return m.phase == aira.PhaseSending || m.phase == aira.PhaseStreaming
}

// Phase returns the lifecycle phase shown in the status line.
func (m Model) Phase() aira.Phase { return m.phase }

// Err returns the error of the last failed turn, if any.
func (m Model) Err() error { return m.err }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case UpdateMsg:
		m.phase = aira.PhaseStreaming
		if m.active != nil {
			m.active.SetText(msg.Update.Text)
		}
		m = m.refresh()
		if m.updates != nil {
			return m, listen(m.updates, m.done)
		}
		return m, nil

	case TurnDoneMsg:
		return m.finishTurn(msg)
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)

	if !m.Running() {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	inputH := 1
	statusHeight := 1
	borderHeight := 2 // newlines between sections
	vpHeight := max(msg.Height-inputH-statusHeight-borderHeight, 1)

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m = m.renderSession()
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	m.Input.Width = msg.Width
	return m.refresh()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.Running() {
			m.ctrl.Cancel()
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyEnter:
		if m.Running() {
			return m, nil
		}
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		return m.submitInput(text)
	}

	if m.Running() {
		return m, nil
	}

	// Only forward non-character keys to the viewport so typing never
	// scrolls.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	if msg.Type != tea.KeyRunes {
		m.Viewport, cmd = m.Viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.Input, cmd = m.Input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) submitInput(text string) (tea.Model, tea.Cmd) {
	m.Input.SetValue("")
	m.Input.Blur()
	m.err = nil

	m.active = NewAssistantBlock(m.theme, m.styles)
	m.blocks = append(m.blocks, NewUserMessageBlock(text, m.styles), m.active)
	m = m.refresh()

	m.phase = aira.PhaseSending
	m.updates = make(chan aira.Update, 1)
	m.done = make(chan TurnDoneMsg, 1)

	return m, tea.Batch(
		startTurn(m.ctrl, text, m.updates, m.done),
		listen(m.updates, m.done),
	)
}

func (m Model) finishTurn(msg TurnDoneMsg) (tea.Model, tea.Cmd) {
	m.updates = nil
	m.done = nil
	m.phase = aira.PhaseIdle

	if m.active != nil {
		m.active.Finish(msg.Turn.Text, msg.Turn.State == aira.TurnAborted)
		m.active = nil
	}
	if msg.Turn.State == aira.TurnFailed || (msg.Err != nil && !errors.Is(msg.Err, aira.ErrCanceled)) {
		m.phase = aira.PhaseError
		m.err = msg.Err
		m.blocks = append(m.blocks, NewFailureBlock(m.failureMsg, msg.Err, m.styles))
	}
	m = m.refresh()
	return m, m.Input.Focus()
}

// renderSession creates blocks for turns finished before the TUI started.
func (m Model) renderSession() Model {
	for _, turn := range m.ctrl.Session().Turns {
		m.blocks = append(m.blocks, NewUserMessageBlock(turn.Message, m.styles))
		b := NewAssistantBlock(m.theme, m.styles)
		b.Finish(turn.Text, turn.State == aira.TurnAborted)
		m.blocks = append(m.blocks, b)
		if turn.State == aira.TurnFailed {
			m.blocks = append(m.blocks, NewFailureBlock(m.failureMsg, turn.Err, m.styles))
		}
	}
	return m
}

func (m Model) refresh() Model {
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()
	return m
}

func (m Model) renderContent() string {
	var b strings.Builder
	for i, block := range m.blocks {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(block.View(m.Viewport.Width))
	}
	return b.String()
}

func (m Model) statusLine() string {
	var text string
	style := m.styles.Muted
	switch m.phase {
	case aira.PhaseSending:
		text = "Sending..."
		style = m.styles.Status
	case aira.PhaseStreaming:
		text = "Streaming... Ctrl+C to cancel"
		style = m.styles.Status
	case aira.PhaseError:
		text = fmt.Sprintf("Error: %v", m.err)
		style = m.styles.Error
	default:
		text = "Enter to send, Ctrl+C to quit"
	}
	if w := m.Viewport.Width; w > 0 {
		text = runewidth.Truncate(text, w, "…")
	}
	return style.Render(text)
}

// startTurn runs one turn on the controller. Updates are coalesced: only
// the newest undelivered update is kept, so the controller never blocks on
// the UI.
func startTurn(ctrl Controller, text string, updates chan aira.Update, done chan<- TurnDoneMsg) tea.Cmd {
	return func() tea.Msg {
		turn, err := ctrl.Run(context.Background(), text, func(u aira.Update) {
			offer(updates, u)
		})
		done <- TurnDoneMsg{Turn: turn, Err: err}
		return nil
	}
}

// offer replaces any pending update with u. There is a single sender.
func offer(ch chan aira.Update, u aira.Update) {
	for {
		select {
		case ch <- u:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

// listen waits for the next update or the end of the turn. The final text
// travels with TurnDoneMsg, so a dropped update is never lost.
func listen(updates <-chan aira.Update, done <-chan TurnDoneMsg) tea.Cmd {
	return func() tea.Msg {
		select {
		case u := <-updates:
			return UpdateMsg{Update: u}
		case d := <-done:
			return d
		}
	}
}
