// Package tui is the interactive front end. Its bubbletea event loop is the
// interactive goroutine of the orchestrator: every Pump, Start and Seek
// happens inside Update.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/expressfrac/internal/frac"
	"github.com/san-kum/expressfrac/internal/logcapture"
	"github.com/san-kum/expressfrac/internal/orchestrator"
)

const (
	defaultWidth  = 100
	defaultHeight = 32
	maxLogLines   = 2000
)

// wakeMsg means the orchestrator has events or log lines to pump.
type wakeMsg struct{}

// stepView is the playback renderer: it remembers what the controller
// last selected so View can draw it.
type stepView struct {
	index int
	step  frac.StepResult
	ok    bool
}

func (v *stepView) Render(index int, step frac.StepResult) {
	v.index, v.step, v.ok = index, step, true
}

func (v *stepView) Clear() {
	*v = stepView{}
}

type Option func(*Model)

func WithTheme(name string) Option {
	return func(m *Model) { m.setTheme(GetTheme(name)) }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Model) { m.logger = l }
}

type Model struct {
	orch   *orchestrator.Orchestrator
	req    frac.Request
	keys   KeyMap
	theme  Theme
	st     styles
	logger *slog.Logger

	log   viewport.Model
	lines []string
	view  *stepView

	ctx    context.Context
	cancel context.CancelFunc

	width, height int
	showHelp      bool
}

// New wires the model into o: it becomes the log subscriber and the
// playback renderer. req is submitted on every start.
func New(o *orchestrator.Orchestrator, req frac.Request, opts ...Option) *Model {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Model{
		orch:   o,
		req:    req,
		keys:   DefaultKeyMap(),
		logger: slog.Default(),
		log:    viewport.New(0, 0),
		view:   &stepView{},
		ctx:    ctx,
		cancel: cancel,
	}
	m.setTheme(ThemeOcean)
	for _, opt := range opts {
		opt(m)
	}
	m.resize(defaultWidth, defaultHeight)

	o.SubscribeLog(m.appendLog)
	o.Playback().SetRenderer(m.view)
	return m
}

func (m *Model) setTheme(t Theme) {
	m.theme = t
	m.st = newStyles(t)
}

func (m *Model) Init() tea.Cmd {
	return m.wait()
}

// wait parks a command on the orchestrator until it has work. Exactly one
// is outstanding at a time; each wakeMsg schedules the next.
func (m *Model) wait() tea.Cmd {
	o, ctx := m.orch, m.ctx
	return func() tea.Msg {
		if err := o.Wait(ctx); err != nil {
			return nil
		}
		return wakeMsg{}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case wakeMsg:
		m.orch.Pump()
		return m, m.wait()
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	play := m.orch.Playback()
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancel()
		return tea.Quit
	case key.Matches(msg, m.keys.Start):
		if err := m.orch.Start(m.req); err != nil {
			m.logger.Debug("start not accepted", "err", err)
		}
	case key.Matches(msg, m.keys.Back):
		play.Step(-1)
	case key.Matches(msg, m.keys.Forward):
		play.Step(1)
	case key.Matches(msg, m.keys.First):
		play.First()
	case key.Matches(msg, m.keys.Last):
		play.Last()
	case key.Matches(msg, m.keys.LogUp):
		if m.log.YOffset > 0 {
			m.log.SetYOffset(m.log.YOffset - 1)
		}
	case key.Matches(msg, m.keys.LogDown):
		m.log.SetYOffset(m.log.YOffset + 1)
	case key.Matches(msg, m.keys.Theme):
		names := ThemeNames()
		for i, name := range names {
			if name == m.theme.Name {
				m.setTheme(GetTheme(names[(i+1)%len(names)]))
				break
			}
		}
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
	}
	return nil
}

func (m *Model) appendLog(l logcapture.Line) {
	m.lines = append(m.lines, fmt.Sprintf("%s %s", l.Time.Format("15:04:05"), l.Text))
	if over := len(m.lines) - maxLogLines; over > 0 {
		m.lines = m.lines[over:]
	}
	follow := m.log.AtBottom()
	m.log.SetContent(strings.Join(m.lines, "\n"))
	if follow {
		m.log.GotoBottom()
	}
}

// LogLines returns the log panel contents.
func (m *Model) LogLines() []string {
	return append([]string(nil), m.lines...)
}

func (m *Model) resize(w, h int) {
	m.width, m.height = w, h
	m.log.Width = max(w-4, 20)
	m.log.Height = max(h/3, 5)
	m.log.SetContent(strings.Join(m.lines, "\n"))
	m.log.GotoBottom()
}
