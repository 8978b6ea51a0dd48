// Package tui is the interactive terminal chat.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/mithrel/classkit/internal/chat"
	"github.com/mithrel/classkit/internal/present/format"
)

const maxInputLines = 5

type role int

const (
	roleAssistant role = iota
	roleUser
)

type bubble struct {
	role role
	text string
}

// Result is what the chat leaves behind once the program exits.
type Result struct {
	// LastHTML is the render output of the last assistant reply.
	LastHTML string
}

// RunChat opens the chat UI for sess and blocks until the user quits.
func RunChat(ctx context.Context, sess *chat.Session) (Result, error) {
	m := newModel(ctx, sess)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	m.cancel()
	if err != nil {
		return Result{}, err
	}
	if fm, ok := final.(model); ok {
		return Result{LastHTML: fm.lastHTML}, nil
	}
	return Result{}, nil
}

type model struct {
	ctx    context.Context
	cancel context.CancelFunc
	sess   *chat.Session

	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	bubbles   []bubble
	streaming string
	lastHTML  string
	busy      bool
	updates   chan tea.Msg

	width  int
	height int
	ready  bool
	status string
}

func newModel(ctx context.Context, sess *chat.Session) model {
	ctx, cancel := context.WithCancel(ctx)

	ta := textarea.New()
	ta.Placeholder = "输入消息… (Enter 发送, Alt+Enter 换行, Ctrl+C 退出)"
	ta.ShowLineNumbers = false
	ta.Prompt = "┃ "
	ta.CharLimit = 0
	ta.SetHeight(1)
	ta.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	return model{
		ctx:      ctx,
		cancel:   cancel,
		sess:     sess,
		input:    ta,
		spinner:  sp,
		viewport: viewport.New(80, 20),
		bubbles:  []bubble{{role: roleAssistant, text: sess.Agent.Welcome}},
		updates:  make(chan tea.Msg, 64),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.SetWidth(msg.Width)
		m.resize()
		if r, err := format.NewRenderer(msg.Width - 4); err == nil {
			m.renderer = r
		}
		m.ready = true
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			if m.busy {
				m.cancel()
			}
			return m, tea.Quit
		case "esc":
			if !m.busy {
				return m, tea.Quit
			}
			return m, nil
		case "enter":
			return m.submit()
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		if m.busy {
			// input stays disabled while a reply streams
			return m, nil
		}

	case sourceMsg:
		m.streaming = msg.text
		m.refresh()
		return m, waitForUpdate(m.updates)

	case renderMsg:
		m.lastHTML = msg.html
		return m, waitForUpdate(m.updates)

	case turnDoneMsg:
		m.busy = false
		m.streaming = ""
		switch {
		case msg.err != nil:
			m.status = msg.err.Error()
		case msg.turn.Err != nil:
			m.bubbles = append(m.bubbles, bubble{role: roleAssistant, text: chat.Apology(msg.turn.Err)})
			m.status = "连接失败"
		default:
			m.bubbles = append(m.bubbles, bubble{role: roleAssistant, text: msg.turn.Reply})
			m.status = formatTurnStatus(msg.turn)
		}
		m.input.Focus()
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.resize()
	return m, tea.Batch(cmds...)
}

// submit starts a turn with the current input.
func (m model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if m.busy || text == "" {
		return m, nil
	}
	m.bubbles = append(m.bubbles, bubble{role: roleUser, text: text})
	m.input.Reset()
	m.input.Blur()
	m.busy = true
	m.status = ""
	m.resize()
	m.refresh()
	return m, tea.Batch(
		startTurn(m.ctx, m.sess, text, m.updates),
		waitForUpdate(m.updates),
		m.spinner.Tick,
	)
}

// resize grows the input with its content up to maxInputLines and gives the
// rest of the screen to the transcript.
func (m *model) resize() {
	lines := m.input.LineCount()
	if lines < 1 {
		lines = 1
	}
	if lines > maxInputLines {
		lines = maxInputLines
	}
	m.input.SetHeight(lines)
	if m.width > 0 {
		m.viewport.Width = m.width
	}
	if m.height > 0 {
		// header, status line and input border
		h := m.height - lines - 3
		if h < 3 {
			h = 3
		}
		m.viewport.Height = h
	}
}

func (m *model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}
