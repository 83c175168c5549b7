package ui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeControls struct {
	refreshes int
	resets    int
	end       int64
	err       error
}

func (f *fakeControls) Refresh(context.Context) (int64, error) {
	f.refreshes++
	return f.end, f.err
}

func (f *fakeControls) Reset(context.Context) (int64, error) {
	f.resets++
	return f.end, f.err
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func TestModel_TickRendersRemaining(t *testing.T) {
	m := New(context.Background(), nil, false)

	m, cmd := update(t, m, tickMsg{remaining: 3725, end: 1_700_000_000_000, source: "server"})
	assert.Nil(t, cmd)

	view := m.View()
	assert.Contains(t, view, "01:02:05")
	assert.Contains(t, view, "source: server")
	assert.NotContains(t, view, "expired")
}

func TestModel_Expired(t *testing.T) {
	m := New(context.Background(), nil, false)
	m, _ = update(t, m, tickMsg{remaining: 1, end: 1, source: "cache"})
	m, _ = update(t, m, expiredMsg{})

	view := m.View()
	assert.Contains(t, view, "00:00:00")
	assert.Contains(t, view, "expired")
}

func TestModel_QuitKeys(t *testing.T) {
	for _, msg := range []tea.KeyMsg{runeKey('q'), {Type: tea.KeyCtrlC}, {Type: tea.KeyEsc}} {
		_, cmd := update(t, New(context.Background(), nil, false), msg)
		require.NotNil(t, cmd, msg.String())
		assert.IsType(t, tea.QuitMsg{}, cmd(), msg.String())
	}
}

func TestModel_Refresh(t *testing.T) {
	controls := &fakeControls{end: 1_700_000_000_000}
	m := New(context.Background(), controls, false)

	m, cmd := update(t, m, runeKey('r'))
	require.NotNil(t, cmd)
	assert.Contains(t, m.View(), "refreshing")

	m, _ = update(t, m, cmd())
	assert.Equal(t, 1, controls.refreshes)
	assert.Contains(t, m.View(), "refresh ok")
}

func TestModel_ResetRequiresAdmin(t *testing.T) {
	controls := &fakeControls{end: 1_700_000_000_000}

	m := New(context.Background(), controls, false)
	_, cmd := update(t, m, runeKey('R'))
	assert.Nil(t, cmd)
	assert.NotContains(t, m.View(), "Reset")

	m = New(context.Background(), controls, true)
	assert.Contains(t, m.View(), "Reset")
	m, cmd = update(t, m, runeKey('R'))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	assert.Equal(t, 1, controls.resets)
	assert.Contains(t, m.View(), "reset ok")
}

func TestModel_ActionFailureIsShown(t *testing.T) {
	controls := &fakeControls{err: errors.New("connection refused")}
	m := New(context.Background(), controls, true)

	m, cmd := update(t, m, runeKey('R'))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	assert.Contains(t, m.View(), "reset failed: connection refused")
}

func TestModel_WindowResize(t *testing.T) {
	m := New(context.Background(), nil, false)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.Equal(t, 96, m.progress.Width)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 5, Height: 30})
	assert.Equal(t, 10, m.progress.Width)
}
