// Package analytics provides the usage statistics tab.
package analytics

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/aichat/internal/app"
	"github.com/j-veylop/aichat/internal/config"
	"github.com/j-veylop/aichat/internal/services/monitor"
)

// keyMap defines the key bindings specific to the analytics tab.
type keyMap struct {
	Export  key.Binding
	Refresh key.Binding
	Up      key.Binding
	Down    key.Binding
}

// defaultKeyMap returns the default key bindings for the analytics tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Export: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "save analytics"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// Model represents the analytics tab state.
type Model struct {
	state      *app.State
	config     *config.Config
	thresholds monitor.Thresholds
	width      int
	height     int
	keys       keyMap
	viewport   viewport.Model
}

// New creates a new analytics model. cfg may be nil.
func New(state *app.State, cfg *config.Config) *Model {
	return &Model{
		state:      state,
		config:     cfg,
		thresholds: monitor.DefaultThresholds(),
		keys:       defaultKeyMap(),
		viewport:   viewport.New(0, 0),
	}
}

// Init initializes the analytics tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the analytics tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Export):
			return m, app.Export(app.ExportAnalytics)
		case key.Matches(msg, m.keys.Refresh):
			return m, app.Refresh("stats")
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// SetSize sets the available size for the analytics tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Export, m.keys.Refresh, m.keys.Up, m.keys.Down}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Export, m.keys.Refresh},
		{m.keys.Up, m.keys.Down},
	}
}
