// Package chat provides the conversation tab.
package chat

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/aichat/internal/app"
	"github.com/j-veylop/aichat/internal/ui/components"
)

const inputHeight = 3

// keyMap defines the key bindings specific to the chat tab.
type keyMap struct {
	Send      key.Binding
	Newline   key.Binding
	NextModel key.Binding
	PrevModel key.Binding
	Clear     key.Binding
	Export    key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
	Confirm   key.Binding
	Cancel    key.Binding
}

// defaultKeyMap returns the default key bindings for the chat tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Newline: key.NewBinding(
			key.WithKeys("alt+enter", "ctrl+j"),
			key.WithHelp("alt+enter", "new line"),
		),
		NextModel: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "next model"),
		),
		PrevModel: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("ctrl+p", "prev model"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "clear history"),
		),
		Export: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save chat"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "scroll down"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n/esc", "cancel"),
		),
	}
}

// Model represents the chat tab state.
type Model struct {
	state    *app.State
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model
	input    textarea.Model
	wait     components.ReplyWait

	confirmClear bool
	// rendered is the message count last written to the viewport.
	rendered int
	// renderedWidth is the width the viewport content was wrapped at.
	renderedWidth int
}

// New creates a new chat model.
func New(state *app.State) *Model {
	keys := defaultKeyMap()

	ta := textarea.New()
	ta.Placeholder = "Type a message..."
	ta.ShowLineNumbers = false
	ta.SetHeight(inputHeight)
	ta.CharLimit = 0
	ta.KeyMap.InsertNewline = keys.Newline
	ta.Focus()

	return &Model{
		state:    state,
		keys:     keys,
		viewport: viewport.New(0, 0),
		input:    ta,
		wait:     components.NewReplyWait(),
		rendered: -1,
	}
}

// Init initializes the chat tab.
func (m *Model) Init() tea.Cmd {
	return textarea.Blink
}

// CapturesInput reports that character keys belong to the message field.
func (m *Model) CapturesInput() bool {
	return true
}

// Update handles messages for the chat tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.confirmClear {
			return m, m.handleConfirm(msg)
		}
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}

	case spinner.TickMsg:
		if !m.state.IsPending() {
			return m, nil
		}
		var cmd tea.Cmd
		m.wait, cmd = m.wait.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirm(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.confirmClear = false
		return app.ClearHistory()
	case key.Matches(msg, m.keys.Cancel):
		m.confirmClear = false
	}
	return nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Send):
		return m.send(), true

	case key.Matches(msg, m.keys.NextModel):
		m.state.CycleModel(1)
		return nil, true

	case key.Matches(msg, m.keys.PrevModel):
		m.state.CycleModel(-1)
		return nil, true

	case key.Matches(msg, m.keys.Clear):
		m.confirmClear = true
		return nil, true

	case key.Matches(msg, m.keys.Export):
		return app.Export(app.ExportChat), true

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.PageUp()
		return nil, true

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.PageDown()
		return nil, true
	}
	return nil, false
}

func (m *Model) send() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.state.IsPending() {
		return nil
	}
	m.input.Reset()
	model := m.state.SelectedModel().ID
	return tea.Batch(
		app.Send(text, model),
		m.wait.Start(model, time.Now()),
	)
}

// SetSize sets the available size for the chat tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height

	m.input.SetWidth(max(width-4, 10))
	// header, input border and footer
	m.viewport.Width = width
	m.viewport.Height = max(height-inputHeight-5, 1)
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.Send,
		m.keys.Newline,
		m.keys.NextModel,
		m.keys.PrevModel,
		m.keys.Clear,
		m.keys.Export,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Send, m.keys.Newline},
		{m.keys.NextModel, m.keys.PrevModel},
		{m.keys.Clear, m.keys.Export},
		{m.keys.PageUp, m.keys.PageDown},
	}
}
