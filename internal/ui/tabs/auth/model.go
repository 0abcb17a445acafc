// Package auth provides the login screen: API key registration and PIN entry.
package auth

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/aichat/internal/app"
	"github.com/j-veylop/aichat/internal/services/credentials"
)

// keyMap defines the key bindings specific to the auth screen.
type keyMap struct {
	Submit key.Binding
	NewKey key.Binding
	Back   key.Binding
}

// defaultKeyMap returns the default key bindings for the auth screen.
func defaultKeyMap() keyMap {
	return keyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "submit"),
		),
		NewKey: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "use another API key"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back to PIN"),
		),
	}
}

// Model represents the auth screen state.
type Model struct {
	state  *app.State
	width  int
	height int
	keys   keyMap
	input  textinput.Model

	// stage the input is configured for
	stage app.AuthStage
	busy  bool
	// canGoBack is set when the secret form was opened from the PIN form.
	canGoBack bool
}

// New creates a new auth model.
func New(state *app.State) *Model {
	m := &Model{
		state: state,
		keys:  defaultKeyMap(),
		input: textinput.New(),
	}
	m.configure(state.Stage())
	return m
}

// configure resets the input for stage.
func (m *Model) configure(stage app.AuthStage) {
	m.stage = stage
	m.input.Reset()
	m.input.Prompt = "> "
	m.input.EchoMode = textinput.EchoPassword
	m.input.EchoCharacter = '•'

	switch stage {
	case app.StageEnterPin:
		m.input.Placeholder = "4-digit PIN"
		m.input.CharLimit = credentials.PinLength
	default:
		m.input.Placeholder = "sk-or-..."
		m.input.CharLimit = 256
	}
	m.input.Focus()
}

// Init initializes the auth screen.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// CapturesInput reports that character keys belong to the text field.
func (m *Model) CapturesInput() bool {
	return true
}

// Update handles messages for the auth screen.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	if stage := m.state.Stage(); stage != m.stage && stage != app.StageAuthenticated {
		m.configure(stage)
	}

	switch msg := msg.(type) {
	case app.RegisteredMsg:
		m.busy = false
		if msg.Error == nil {
			m.canGoBack = false
			m.configure(app.StageEnterPin)
		}
		return m, nil

	case app.LoggedInMsg:
		m.busy = false
		m.input.Reset()
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Submit):
		if m.busy {
			return nil
		}
		value := strings.TrimSpace(m.input.Value())
		if value == "" {
			return nil
		}
		m.busy = true
		if m.stage == app.StageEnterPin {
			return app.Login(value)
		}
		return app.RegisterSecret(value)

	case key.Matches(msg, m.keys.NewKey):
		if m.stage == app.StageEnterPin {
			m.canGoBack = true
			m.state.SetStage(app.StageEnterSecret)
			m.configure(app.StageEnterSecret)
		}
		return nil

	case key.Matches(msg, m.keys.Back):
		if m.stage == app.StageEnterSecret && m.canGoBack {
			m.canGoBack = false
			m.state.SetStage(app.StageEnterPin)
			m.configure(app.StageEnterPin)
		}
		return nil
	}

	// The PIN field only takes digits.
	if m.stage == app.StageEnterPin && msg.Type == tea.KeyRunes {
		for _, r := range msg.Runes {
			if !unicode.IsDigit(r) {
				return nil
			}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// SetSize sets the available size for the auth screen.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = min(max(width/2, 20), 60)
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	if m.stage == app.StageEnterPin {
		return []key.Binding{m.keys.Submit, m.keys.NewKey}
	}
	return []key.Binding{m.keys.Submit, m.keys.Back}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Submit},
		{m.keys.NewKey, m.keys.Back},
	}
}
