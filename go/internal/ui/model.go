package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mcdev12/countdown/go/internal/reconciler"
)

// Controls is what the watch view needs to act on the countdown.
type Controls interface {
	Refresh(ctx context.Context) (int64, error)
	Reset(ctx context.Context) (int64, error)
}

// Model is the Bubble Tea state for the watch view.
type Model struct {
	ctx      context.Context
	controls Controls
	admin    bool
	keys     keyMap
	progress progress.Model

	remaining int64
	end       int64
	source    string
	expired   bool
	status    string
	width     int
}

// New creates the watch model. admin enables the reset binding.
func New(ctx context.Context, controls Controls, admin bool) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	return Model{
		ctx:      ctx,
		controls: controls,
		admin:    admin,
		keys:     defaultKeyMap(),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		width:    60,
	}
}

// Messages

type tickMsg struct {
	remaining int64
	end       int64
	source    string
}

type expiredMsg struct{}

type actionResultMsg struct {
	action string
	end    int64
	err    error
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = max(10, msg.Width-4)
		return m, nil

	case tickMsg:
		m.remaining = msg.remaining
		m.end = msg.end
		m.source = msg.source
		return m, nil

	case expiredMsg:
		m.remaining = 0
		m.expired = true
		return m, nil

	case actionResultMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("%s failed: %v", msg.action, msg.err)
		} else {
			m.status = fmt.Sprintf("%s ok, ends %s", msg.action, time.UnixMilli(msg.end).Local().Format(time.DateTime))
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Refresh) && m.controls != nil:
		m.status = "refreshing…"
		return m, m.actionCmd("refresh", m.controls.Refresh)
	case key.Matches(msg, m.keys.Reset) && m.admin && m.controls != nil:
		m.status = "resetting…"
		return m, m.actionCmd("reset", m.controls.Reset)
	}
	return m, nil
}

func (m Model) actionCmd(name string, fn func(context.Context) (int64, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		end, err := fn(ctx)
		return actionResultMsg{action: name, end: end, err: err}
	}
}

var (
	timerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E4572E")).Padding(1, 2)
	expiredStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5555")).Padding(1, 2)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4"))
	keyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#BD93F9"))
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	if m.expired {
		b.WriteString(expiredStyle.Render("00:00:00  expired"))
	} else {
		b.WriteString(timerStyle.Render(reconciler.FormatHHMMSS(m.remaining)))
	}
	b.WriteString("\n  ")
	b.WriteString(m.progress.ViewAs(reconciler.Progress(m.remaining)))
	b.WriteString("\n\n")

	if m.end > 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  ends %s (source: %s)",
			time.UnixMilli(m.end).Local().Format(time.DateTime), m.source)))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString("  " + m.status + "\n")
	}

	var help []string
	for _, binding := range m.keys.bindings(m.admin) {
		h := binding.Help()
		help = append(help, keyStyle.Render(h.Key)+" "+mutedStyle.Render(h.Desc))
	}
	b.WriteString("\n  " + strings.Join(help, "  •  ") + "\n")
	return b.String()
}
