package chat

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/aichat/internal/app"
	"github.com/j-veylop/aichat/internal/models"
)

func typeText(m *Model, s string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

// collect runs cmd and flattens batches into their messages.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func findSend(msgs []tea.Msg) (app.SendMsg, bool) {
	for _, msg := range msgs {
		if s, ok := msg.(app.SendMsg); ok {
			return s, true
		}
	}
	return app.SendMsg{}, false
}

func TestNew(t *testing.T) {
	m := New(app.NewState())
	require.NotNil(t, m)
	assert.NotNil(t, m.Init())
	assert.True(t, m.CapturesInput())
}

func TestSend(t *testing.T) {
	state := app.NewState()
	m := New(state)
	m.SetSize(80, 24)

	typeText(m, "hello there")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	send, ok := findSend(collect(cmd))
	require.True(t, ok)
	assert.Equal(t, "hello there", send.Text)
	assert.Equal(t, state.SelectedModel().ID, send.Model)
	assert.Empty(t, m.input.Value())
}

func TestSendIgnoresBlankInput(t *testing.T) {
	m := New(app.NewState())
	typeText(m, "   ")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestSendWhilePending(t *testing.T) {
	state := app.NewState()
	state.SetPending(true)
	m := New(state)

	typeText(m, "again")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, "again", m.input.Value())
}

func TestCycleModel(t *testing.T) {
	state := app.NewState()
	m := New(state)
	first := state.SelectedModel()

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.NotEqual(t, first.ID, state.SelectedModel().ID)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	assert.Equal(t, first.ID, state.SelectedModel().ID)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	last := state.Models()[len(state.Models())-1]
	assert.Equal(t, last.ID, state.SelectedModel().ID)
}

func TestClearHistoryConfirm(t *testing.T) {
	m := New(app.NewState())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.Nil(t, cmd)
	assert.True(t, m.confirmClear)
	assert.Contains(t, ansi.Strip(m.View()), "Delete all chat history?")

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'y'}})
	require.NotNil(t, cmd)
	assert.IsType(t, app.ClearHistoryMsg{}, cmd())
	assert.False(t, m.confirmClear)
	assert.Empty(t, m.input.Value())
}

func TestClearHistoryCancel(t *testing.T) {
	m := New(app.NewState())

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	assert.Nil(t, cmd)
	assert.False(t, m.confirmClear)
	assert.Empty(t, m.input.Value())
}

func TestExport(t *testing.T) {
	m := New(app.NewState())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	assert.Equal(t, app.ExportMsg{Kind: app.ExportChat}, cmd())
}

func TestView_Empty(t *testing.T) {
	m := New(app.NewState())
	m.SetSize(80, 24)

	view := ansi.Strip(m.View())
	assert.Contains(t, view, "No messages yet")
	assert.Contains(t, view, "DeepSeek")
}

func TestView_Messages(t *testing.T) {
	state := app.NewState()
	state.SetMessages([]models.Message{
		{Timestamp: time.Now(), Model: "gpt-3.5-turbo", UserMessage: "ping", AIResponse: "pong", TokensUsed: 7},
	})
	m := New(state)
	m.SetSize(80, 30)

	view := ansi.Strip(m.View())
	assert.Contains(t, view, "ping")
	assert.Contains(t, view, "pong")
	assert.Contains(t, view, "7 tokens")

	state.AppendMessage(models.Message{Timestamp: time.Now(), Model: "gpt-3.5-turbo", UserMessage: "second", AIResponse: "Error: rate limited"})
	view = ansi.Strip(m.View())
	assert.Contains(t, view, "Error: rate limited")
}

func TestView_Pending(t *testing.T) {
	state := app.NewState()
	state.SetPending(true)
	m := New(state)
	m.SetSize(80, 24)

	assert.Contains(t, ansi.Strip(m.View()), "Waiting for reply...")
}

func TestView_PendingShowsModel(t *testing.T) {
	state := app.NewState()
	m := New(state)
	m.SetSize(120, 24)
	model := state.SelectedModel().ID

	typeText(m, "hello")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	state.SetPending(true)

	view := ansi.Strip(m.View())
	assert.Contains(t, view, "Waiting for reply from "+model+"...")
}

func TestRenderMessages_Order(t *testing.T) {
	now := time.Now()
	out := ansi.Strip(renderMessages([]models.Message{
		{Timestamp: now, UserMessage: "first", AIResponse: "a"},
		{Timestamp: now, UserMessage: "second", AIResponse: "b"},
	}, 60))

	assert.Less(t, indexOf(out, "first"), indexOf(out, "second"))
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func TestModel_Help(t *testing.T) {
	m := New(app.NewState())
	assert.NotEmpty(t, m.ShortHelp())
	assert.Len(t, m.FullHelp(), 4)
}
