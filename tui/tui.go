package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/fablecore/cli"
	"github.com/nathoo/fablecore/narrate"
	"github.com/nathoo/fablecore/session"
)

// Model is the Bubble Tea model for the FableCore TUI.
type Model struct {
	ctx     context.Context
	session *session.Session
	meta    *cli.Meta
	history *History
	log     transcript
	lastCmd string

	viewport viewport.Model
	input    textinput.Model

	width    int
	height   int
	ready    bool
	quitting bool
}

// introMsg carries the opening banner and room description.
type introMsg []string

// New creates a TUI model wired to the given session.
func New(ctx context.Context, s *session.Session) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	return Model{
		ctx:     ctx,
		session: s,
		meta:    cli.NewMeta(s),
		history: NewHistory(100),
		input:   ti,
	}
}

// Run starts the Bubble Tea program and blocks until the player quits or
// ctx is cancelled.
func Run(ctx context.Context, s *session.Session, trace bool) error {
	m := New(ctx, s)
	m.meta.Trace = trace
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.initialOutput())
}

func (m Model) initialOutput() tea.Cmd {
	return func() tea.Msg {
		lines := []string{cli.Banner(m.session), ""}
		if intro := m.session.Content.Game.Intro; intro != "" {
			lines = append(lines, intro, "")
		}
		return introMsg(append(lines, m.meta.Describe()...))
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		if next, cmd, ok := m.handleKey(msg); ok {
			return next, cmd
		}

	case introMsg:
		m.log.lines(msg)
		m.log.separator()
		m.refresh()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// resize fits the viewport above the status bar and input line.
func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	vpHeight := max(height-2, 1)

	if !m.ready {
		m.viewport = viewport.New(width, vpHeight)
		m.viewport.KeyMap = viewportKeyMap()
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = vpHeight
	}
	m.refresh()
}

// handleKey reports false for keys the text input should receive.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit, true

	case "enter":
		quit := m.submit()
		if quit {
			m.quitting = true
			return m, tea.Quit, true
		}
		return m, nil, true

	case "up":
		if prev, ok := m.history.Prev(m.input.Value()); ok {
			m.input.SetValue(prev)
			m.input.CursorEnd()
		}
		return m, nil, true

	case "down":
		if next, ok := m.history.Next(); ok {
			m.input.SetValue(next)
		} else {
			m.input.SetValue(m.history.Draft())
			m.history.ResetCursor()
		}
		m.input.CursorEnd()
		return m, nil, true

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd, true
	}
	return m, nil, false
}

// submit runs the input line and reports whether the player quit.
func (m *Model) submit() bool {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	m.history.ResetCursor()
	if input == "" {
		return false
	}

	m.log.echo(input)
	quit := m.run(input)
	m.log.separator()
	m.refresh()
	return quit
}

func (m *Model) run(input string) bool {
	switch lower := strings.ToLower(input); {
	case lower == "/history":
		recent := m.history.Recent(10)
		if len(recent) == 0 {
			m.log.meta([]string{"No commands yet."})
		} else {
			m.log.meta([]string{"Recent: " + strings.Join(recent, " | ")})
		}
		return false

	case lower == "again" || lower == "g":
		if m.lastCmd == "" {
			m.log.meta([]string{"Nothing to repeat."})
			return false
		}
		input = m.lastCmd

	default:
		m.history.Push(input)
		m.lastCmd = input
	}

	if strings.HasPrefix(input, "/") {
		reply := m.meta.Handle(m.ctx, input)
		m.log.meta(reply.System)
		m.log.lines(reply.Narrative)
		return reply.Quit
	}

	res := m.session.Engine.Step(m.ctx, input)
	m.log.segments(narrate.Segments(res))
	m.log.lines(m.meta.TraceLines(res))
	return false
}

// refresh re-renders the transcript at the current width and scrolls to
// the bottom.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.log.render(m.width))
	m.viewport.GotoBottom()
}

// View renders the viewport, status bar and input line.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}
	return m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + m.input.View()
}

// viewportKeyMap leaves Up/Down to input history.
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
