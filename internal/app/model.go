// Package app implements the main Bubble Tea application: a login screen
// that gates a chat tab and an analytics tab.
package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/aichat/internal/config"
	"github.com/j-veylop/aichat/internal/models"
	"github.com/j-veylop/aichat/internal/services"
	"github.com/j-veylop/aichat/internal/services/credentials"
	"github.com/j-veylop/aichat/internal/ui/styles"
)

// TabID represents the identifier for a tab in the application.
type TabID int

const (
	// TabAuth is the key/PIN screen shown until login.
	TabAuth TabID = iota
	// TabChat is the conversation tab.
	TabChat
	// TabAnalytics is the usage statistics tab.
	TabAnalytics

	tabCount = 3
)

// String returns the string representation of the TabID.
func (t TabID) String() string {
	switch t {
	case TabAuth:
		return "Login"
	case TabChat:
		return "Chat"
	case TabAnalytics:
		return "Analytics"
	default:
		return "Unknown"
	}
}

// Tab defines the interface that all tabs must implement.
type Tab interface {
	// Init initializes the tab and returns any initial commands.
	Init() tea.Cmd

	// Update handles messages and returns the updated tab and any commands.
	Update(msg tea.Msg) (Tab, tea.Cmd)

	// View renders the tab content.
	View() string

	// SetSize sets the available size for the tab.
	SetSize(width, height int)

	// ShortHelp returns key bindings for the short help view.
	ShortHelp() []key.Binding

	// FullHelp returns key bindings for the full help view.
	FullHelp() [][]key.Binding
}

// InputCapturer is implemented by tabs with a focused text field. While it
// reports true, plain character keys go to the tab instead of the global
// shortcuts.
type InputCapturer interface {
	CapturesInput() bool
}

// KeyMap defines the keybindings for the application.
type KeyMap struct {
	Tab1    key.Binding
	Tab2    key.Binding
	NextTab key.Binding
	PrevTab key.Binding
	Refresh key.Binding
	Help    key.Binding
	Quit    key.Binding
	Escape  key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Tab1:    key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "chat")),
		Tab2:    key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "analytics")),
		NextTab: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		PrevTab: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab")),
		Refresh: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refresh")),
		Help:    key.NewBinding(key.WithKeys("?", "f1"), key.WithHelp("?/f1", "toggle help")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Escape:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Refresh, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab1, k.Tab2},
		{k.NextTab, k.PrevTab},
		{k.Refresh, k.Help, k.Quit},
	}
}

// Styles defines the application styles.
type Styles struct {
	// Tab bar styles
	TabBar      lipgloss.Style
	ActiveTab   lipgloss.Style
	InactiveTab lipgloss.Style
	StatusBar   lipgloss.Style

	// Notification styles
	NotificationSuccess lipgloss.Style
	NotificationError   lipgloss.Style
	NotificationWarning lipgloss.Style
	NotificationInfo    lipgloss.Style

	// Content styles
	Content lipgloss.Style
	Spinner lipgloss.Style
	Toast   lipgloss.Style

	// Common styles
	Title     lipgloss.Style
	Subtle    lipgloss.Style
	Highlight lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
}

// DefaultStyles returns the default application styles.
func DefaultStyles() Styles {
	subtle := lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}
	highlight := lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	success := lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}
	warning := lipgloss.AdaptiveColor{Light: "#FF8C00", Dark: "#FF8C00"}
	errorColor := lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"}
	info := lipgloss.AdaptiveColor{Light: "#0087D7", Dark: "#5FAFFF"}

	s := Styles{}
	s.TabBar = lipgloss.NewStyle().Padding(0, 1).BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).BorderForeground(subtle)
	s.ActiveTab = lipgloss.NewStyle().Bold(true).Foreground(highlight).Padding(0, 2)
	s.InactiveTab = lipgloss.NewStyle().Foreground(subtle).Padding(0, 2)
	s.StatusBar = lipgloss.NewStyle().Foreground(subtle).Padding(0, 1)

	s.NotificationSuccess = lipgloss.NewStyle().Foreground(success).Padding(0, 1)
	s.NotificationError = lipgloss.NewStyle().Foreground(errorColor).Bold(true).Padding(0, 1)
	s.NotificationWarning = lipgloss.NewStyle().Foreground(warning).Padding(0, 1)
	s.NotificationInfo = lipgloss.NewStyle().Foreground(info).Padding(0, 1)

	s.Content = lipgloss.NewStyle().Padding(1, 2)
	s.Spinner = lipgloss.NewStyle().Foreground(highlight)
	s.Toast = styles.ToastStyle

	s.Title = lipgloss.NewStyle().Bold(true).Foreground(highlight)
	s.Subtle = lipgloss.NewStyle().Foreground(subtle)
	s.Highlight = lipgloss.NewStyle().Foreground(highlight)
	s.Error = lipgloss.NewStyle().Foreground(errorColor)
	s.Success = lipgloss.NewStyle().Foreground(success)
	s.Warning = lipgloss.NewStyle().Foreground(warning)

	return s
}

// Model is the main application model.
type Model struct {
	// Tab management
	activeTab TabID
	tabs      []Tab

	// Shared state
	state    *State
	services *services.Manager
	keymap   KeyMap
	styles   Styles

	// UI components
	spinner spinner.Model

	// Window dimensions
	width  int
	height int

	// UI state
	showHelp bool
	ready    bool

	// Service subscription
	eventChannel chan services.ServiceEvent
}

// NewModel initializes a new application model. mgr may be nil, in which
// case requests are answered with an error notification.
func NewModel(mgr *services.Manager) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	state := NewState()
	if mgr != nil && mgr.HasSecret() {
		state.SetStage(StageEnterPin)
	}

	return &Model{
		activeTab: TabAuth,
		tabs:      make([]Tab, tabCount), // set by SetTabs
		state:     state,
		services:  mgr,
		keymap:    DefaultKeyMap(),
		styles:    DefaultStyles(),
		spinner:   s,
	}
}

// SetTabs sets the tabs for the model, indexed by TabID.
func (m *Model) SetTabs(tabs []Tab) {
	m.tabs = tabs
	if m.width > 0 && m.height > 0 {
		m.updateTabSizes()
	}
}

// GetState returns the application state.
func (m *Model) GetState() *State {
	return m.state
}

// GetActiveTab returns the currently active tab ID.
func (m *Model) GetActiveTab() TabID {
	return m.activeTab
}

// IsReady returns true if the model is ready (window size received).
func (m *Model) IsReady() bool {
	return m.ready
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		defaultTickCmd(),
	}

	if m.services != nil {
		cmds = append(cmds, subscribeToServicesCmd(m.services))
	}

	for _, tab := range m.tabs {
		if tab != nil {
			cmds = append(cmds, tab.Init())
		}
	}

	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// The tab that was on screen when msg arrived gets it, even if handling
	// it switches tabs.
	target := m.activeTab

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.isGlobalKey(msg) {
			return m, m.handleKeyMsg(msg)
		}

	case tea.WindowSizeMsg, spinner.TickMsg:
		if cmd := m.handleTeaMsg(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}

	default:
		if appCmds := m.handleAppMsg(msg); len(appCmds) > 0 {
			cmds = append(cmds, appCmds...)
		}
	}

	if cmd := m.updateTab(target, msg); cmd != nil {
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleTeaMsg(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleWindowSize(msg)
	case spinner.TickMsg:
		return m.handleSpinnerTick(msg)
	}
	return nil
}

func (m *Model) handleAppMsg(msg tea.Msg) []tea.Cmd {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case TickMsg:
		cmds = append(cmds, m.handleTick())
	case SubscriptionEventMsg:
		m.eventChannel = msg.Channel
		cmds = append(cmds, waitForServiceEventCmd(m.eventChannel))
	case ServiceEventMsg:
		cmds = append(cmds, m.handleServiceEventMsg(msg)...)
	case RegisterSecretMsg:
		cmds = append(cmds, m.handleRegisterSecret(msg))
	case RegisteredMsg:
		cmds = append(cmds, m.handleRegistered(msg))
	case LoginMsg:
		cmds = append(cmds, m.handleLogin(msg))
	case LoggedInMsg:
		cmds = append(cmds, m.handleLoggedIn(msg)...)
	case SendMsg:
		cmds = append(cmds, m.handleSend(msg))
	case ReplyMsg:
		cmds = append(cmds, m.handleReply(msg)...)
	case HistoryLoadedMsg:
		if msg.Error != nil {
			cmds = append(cmds, notifyErrorCmd(fmt.Sprintf("Failed to load history: %v", msg.Error)))
		} else {
			m.state.SetMessages(msg.Messages)
		}
	case ModelsLoadedMsg:
		m.state.SetModels(msg.Models)
	case BalanceLoadedMsg:
		m.state.SetBalance(msg.Balance)
	case StatsLoadedMsg:
		m.state.SetStats(msg.Stats, msg.TokenSeries)
		m.state.SetPerformance(msg.Performance, msg.HasSamples)
	case ClearHistoryMsg:
		cmds = append(cmds, m.run(clearHistoryCmd))
	case HistoryClearedMsg:
		cmds = append(cmds, m.handleHistoryCleared(msg)...)
	case ExportMsg:
		cmds = append(cmds, m.run(func(mgr *services.Manager) tea.Cmd { return exportCmd(mgr, msg.Kind) }))
	case ExportResultMsg:
		cmds = append(cmds, m.handleExportResult(msg))
	case RefreshMsg:
		cmds = append(cmds, m.handleRefresh(msg)...)
	case AddNotificationMsg:
		cmds = append(cmds, m.handleAddNotification(msg)...)
	case RemoveNotificationMsg:
		m.state.RemoveNotification(msg.ID)
	case ErrorMsg:
		cmds = append(cmds, notifyErrorCmd(fmt.Sprintf("%s: %v", msg.Context, msg.Error)))
	case TabSwitchMsg:
		cmds = append(cmds, m.switchTab(msg.Tab))
	case ToggleHelpMsg:
		m.showHelp = !m.showHelp
	}
	return cmds
}

// run wraps a command that needs the service manager.
func (m *Model) run(build func(*services.Manager) tea.Cmd) tea.Cmd {
	if m.services == nil {
		return notifyErrorCmd("Services are not available")
	}
	return build(m.services)
}

func (m *Model) handleWindowSize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true
	m.updateTabSizes()
}

func (m *Model) handleSpinnerTick(msg spinner.TickMsg) tea.Cmd {
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return cmd
}

func (m *Model) handleTick() tea.Cmd {
	m.state.ClearExpiredNotifications()
	return defaultTickCmd()
}

func (m *Model) handleServiceEventMsg(msg ServiceEventMsg) []tea.Cmd {
	var cmds []tea.Cmd
	if cmd := m.handleServiceEvent(msg.Event); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if m.eventChannel != nil {
		cmds = append(cmds, waitForServiceEventCmd(m.eventChannel))
	}
	return cmds
}

func (m *Model) handleRegisterSecret(msg RegisterSecretMsg) tea.Cmd {
	secret := strings.TrimSpace(msg.Secret)
	if secret == "" {
		m.state.SetAuthError(authErrorText(config.ErrMissingSecret))
		return nil
	}
	return m.run(func(mgr *services.Manager) tea.Cmd {
		m.state.SetLoadingNotification("Checking API key...")
		return registerSecretCmd(mgr, secret)
	})
}

func (m *Model) handleRegistered(msg RegisteredMsg) tea.Cmd {
	m.state.ClearLoadingNotification()
	if msg.Error != nil {
		m.state.SetAuthError(authErrorText(msg.Error))
		return nil
	}
	m.state.SetIssuedPin(msg.Pin)
	m.state.SetStage(StageEnterPin)
	return notifySuccessCmd("API key saved")
}

func (m *Model) handleLogin(msg LoginMsg) tea.Cmd {
	return m.run(func(mgr *services.Manager) tea.Cmd { return loginCmd(mgr, strings.TrimSpace(msg.Pin)) })
}

func (m *Model) handleLoggedIn(msg LoggedInMsg) []tea.Cmd {
	if msg.Error != nil {
		m.state.SetAuthError(authErrorText(msg.Error))
		return nil
	}
	m.state.SetStage(StageAuthenticated)
	m.activeTab = TabChat
	m.updateTabSizes()

	cmds := []tea.Cmd{notifySuccessCmd("Logged in")}
	if m.services != nil {
		cmds = append(cmds, loadInitialData(m.services))
	}
	return cmds
}

func (m *Model) handleSend(msg SendMsg) tea.Cmd {
	if !m.state.IsAuthenticated() {
		return notifyErrorCmd("Log in first")
	}
	if strings.TrimSpace(msg.Text) == "" || m.state.IsPending() {
		return nil
	}
	return m.run(func(mgr *services.Manager) tea.Cmd {
		m.state.SetPending(true)
		return sendCmd(mgr, msg.Text, msg.Model)
	})
}

func (m *Model) handleReply(msg ReplyMsg) []tea.Cmd {
	m.state.SetPending(false)

	if msg.Error != nil {
		if errors.Is(msg.Error, services.ErrNotAuthenticated) || errors.Is(msg.Error, config.ErrMissingSecret) {
			return []tea.Cmd{m.backToLogin("Session expired, log in again")}
		}
		return []tea.Cmd{notifyErrorCmd(fmt.Sprintf("Failed to save message: %v", msg.Error))}
	}

	m.state.AppendMessage(msg.Exchange.Message)

	var cmds []tea.Cmd
	if msg.Exchange.APIError != nil {
		cmds = append(cmds, notifyErrorCmd(fmt.Sprintf("API error: %v", msg.Exchange.APIError)))
	}
	if m.services != nil {
		cmds = append(cmds, loadStatsCmd(m.services), loadBalanceCmd(m.services))
	}
	return cmds
}

func (m *Model) handleHistoryCleared(msg HistoryClearedMsg) []tea.Cmd {
	if msg.Error != nil {
		return []tea.Cmd{notifyErrorCmd(fmt.Sprintf("Failed to clear history: %v", msg.Error))}
	}
	m.state.SetMessages(nil)
	cmds := []tea.Cmd{notifySuccessCmd("Chat history cleared")}
	if m.services != nil {
		cmds = append(cmds, loadStatsCmd(m.services))
	}
	return cmds
}

func (m *Model) handleExportResult(msg ExportResultMsg) tea.Cmd {
	if msg.Error != nil {
		return notifyErrorCmd(fmt.Sprintf("Failed to export %s: %v", msg.Kind, msg.Error))
	}
	return notifySuccessCmd(fmt.Sprintf("Saved %s to %s", msg.Kind, msg.Path))
}

func (m *Model) handleRefresh(msg RefreshMsg) []tea.Cmd {
	var cmds []tea.Cmd
	if m.services == nil || !m.state.IsAuthenticated() {
		return cmds
	}

	switch msg.Resource {
	case "all":
		cmds = append(cmds, loadInitialData(m.services))
	case "models":
		cmds = append(cmds, loadModelsCmd(m.services))
	case "balance":
		cmds = append(cmds, loadBalanceCmd(m.services))
	case "stats":
		cmds = append(cmds, loadStatsCmd(m.services))
	case "history":
		cmds = append(cmds, loadHistoryCmd(m.services))
	}
	return cmds
}

func (m *Model) handleAddNotification(msg AddNotificationMsg) []tea.Cmd {
	var cmds []tea.Cmd
	id := m.state.AddNotification(msg.Type, msg.Message, msg.Duration)
	if msg.Duration > 0 {
		cmds = append(cmds, clearNotificationCmd(id, msg.Duration))
	}
	return cmds
}

// backToLogin locks the chat and shows the auth screen again.
func (m *Model) backToLogin(reason string) tea.Cmd {
	stage := StageEnterSecret
	if m.services != nil && m.services.HasSecret() {
		stage = StageEnterPin
	}
	m.state.SetStage(stage)
	m.state.SetPending(false)
	m.activeTab = TabAuth
	m.showHelp = false
	m.updateTabSizes()
	return notifyWarningCmd(reason)
}

// switchTab moves between the chat and analytics tabs. The auth tab is only
// reachable through login state changes.
func (m *Model) switchTab(id TabID) tea.Cmd {
	if !m.state.IsAuthenticated() || id == TabAuth || id < 0 || id >= tabCount {
		return nil
	}
	m.activeTab = id
	m.updateTabSizes()
	if id == TabAnalytics && m.services != nil {
		return loadStatsCmd(m.services)
	}
	return nil
}

func (m *Model) cycleTab(delta int) tea.Cmd {
	if m.activeTab == TabAuth {
		return nil
	}
	// Chat and analytics alternate.
	next := TabChat + TabID(((int(m.activeTab-TabChat)+delta)%2+2)%2)
	return m.switchTab(next)
}

func (m *Model) updateTab(id TabID, msg tea.Msg) tea.Cmd {
	if int(id) < len(m.tabs) && m.tabs[id] != nil {
		var cmd tea.Cmd
		m.tabs[id], cmd = m.tabs[id].Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) updateTabSizes() {
	contentHeight := m.height - 4
	contentHeight = max(0, contentHeight)

	for _, tab := range m.tabs {
		if tab != nil {
			tab.SetSize(m.width, contentHeight)
		}
	}
}

// capturing reports whether the active tab owns character keys right now.
func (m *Model) capturing() bool {
	if int(m.activeTab) >= len(m.tabs) || m.tabs[m.activeTab] == nil {
		return false
	}
	c, ok := m.tabs[m.activeTab].(InputCapturer)
	return ok && c.CapturesInput()
}

// isGlobalKey reports whether msg was consumed by a global shortcut.
func (m *Model) isGlobalKey(msg tea.KeyMsg) bool {
	if msg.Type == tea.KeyRunes && m.capturing() {
		return false
	}
	if m.showHelp && !key.Matches(msg, m.keymap.Quit) {
		return true
	}
	switch {
	case key.Matches(msg, m.keymap.Quit), key.Matches(msg, m.keymap.Help):
		return true
	case m.activeTab == TabAuth:
		return false
	}
	return key.Matches(msg, m.keymap.Tab1, m.keymap.Tab2, m.keymap.NextTab, m.keymap.PrevTab, m.keymap.Refresh)
}

// handleKeyMsg handles a key isGlobalKey claimed.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	if m.showHelp {
		switch {
		case key.Matches(msg, m.keymap.Quit):
			return tea.Quit
		case key.Matches(msg, m.keymap.Help), key.Matches(msg, m.keymap.Escape):
			m.showHelp = false
		}
		return nil
	}

	switch {
	case key.Matches(msg, m.keymap.Quit):
		return tea.Quit

	case key.Matches(msg, m.keymap.Help):
		m.showHelp = true
		return nil
	}

	if m.activeTab == TabAuth {
		return nil
	}

	switch {
	case key.Matches(msg, m.keymap.Tab1):
		return m.switchTab(TabChat)
	case key.Matches(msg, m.keymap.Tab2):
		return m.switchTab(TabAnalytics)
	case key.Matches(msg, m.keymap.NextTab):
		return m.cycleTab(1)
	case key.Matches(msg, m.keymap.PrevTab):
		return m.cycleTab(-1)
	case key.Matches(msg, m.keymap.Refresh):
		return Refresh("all")
	}
	return nil
}

func (m *Model) handleServiceEvent(event services.ServiceEvent) tea.Cmd {
	switch e := event.(type) {
	case services.BalanceUpdatedEvent:
		m.state.SetBalance(e.Balance)

	case services.HealthEvent:
		m.state.SetHealth(e.Health)
		var cmds []tea.Cmd
		if e.Health.Status == models.HealthWarning {
			cmds = append(cmds, notifyWarningCmd(strings.Join(e.Health.Warnings, "; ")))
		}
		if m.services != nil {
			cmds = append(cmds, loadStatsCmd(m.services))
		}
		return tea.Batch(cmds...)

	case services.SecretChangedEvent:
		if !e.HasSecret {
			if m.state.IsAuthenticated() {
				return m.backToLogin("API key removed from .env")
			}
			m.state.SetStage(StageEnterSecret)
			return notifyWarningCmd("API key removed from .env")
		}
		if !m.state.IsAuthenticated() {
			m.state.SetStage(StageEnterPin)
			return notifyInfoCmd("API key reloaded")
		}
		return tea.Batch(notifyInfoCmd("API key reloaded"), Refresh("balance"), Refresh("models"))

	case services.ErrorEvent:
		return notifyErrorCmd(fmt.Sprintf("[%s] %v", e.Service, e.Error))
	}

	return nil
}

// authErrorText turns a login or registration failure into a short message.
func authErrorText(err error) string {
	switch {
	case errors.Is(err, credentials.ErrInvalidPinFormat):
		return "PIN must be exactly 4 digits"
	case errors.Is(err, credentials.ErrInvalidPin):
		return "Invalid PIN"
	case errors.Is(err, services.ErrSecretMismatch):
		return "This PIN belongs to a different API key"
	case errors.Is(err, services.ErrInvalidSecret):
		return "Invalid API key or zero balance"
	case errors.Is(err, config.ErrMissingSecret):
		return "Enter your OpenRouter API key"
	default:
		return err.Error()
	}
}

// View renders the application UI.
func (m *Model) View() string {
	var b strings.Builder

	if m.width > 0 {
		b.WriteString(m.renderNavbar())
		b.WriteString("\n")
	}

	if !m.ready {
		b.WriteString(m.styles.Content.Render(fmt.Sprintf("%s Loading...", m.spinner.View())))
		return b.String()
	}

	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		b.WriteString(m.tabs[m.activeTab].View())
	} else {
		b.WriteString(m.styles.Content.Render(m.styles.Subtle.Render("Nothing to show.")))
	}

	mainView := b.String()

	if m.showHelp {
		mainView = m.overlayCentered(mainView, m.renderHelp())
	}

	if toasts := m.renderNotifications(); len(toasts) > 0 {
		return m.overlayToasts(mainView, toasts)
	}

	return mainView
}

func (m *Model) overlayCentered(mainView string, overlay string) string {
	mainLines := padLines(strings.Split(mainView, "\n"), m.height)
	overlayLines := strings.Split(overlay, "\n")

	overlayWidth := lipgloss.Width(overlay)

	y := max((m.height-len(overlayLines))/2, 0)
	x := max((m.width-overlayWidth)/2, 0)

	for i, overlayLine := range overlayLines {
		mainY := y + i
		if mainY >= len(mainLines) {
			break
		}

		mainLine := mainLines[mainY]
		left := ansi.Truncate(mainLine, x, "")
		right := ansi.TruncateLeft(mainLine, x+overlayWidth, "")

		if lipgloss.Width(left) < x {
			left += strings.Repeat(" ", x-lipgloss.Width(left))
		}

		mainLines[mainY] = left + overlayLine + right
	}

	return strings.Join(mainLines, "\n")
}

// padLines extends lines to height so overlays have somewhere to land.
func padLines(lines []string, height int) []string {
	for len(lines) < height {
		lines = append(lines, "")
	}
	return lines
}

func (m *Model) renderNavbar() string {
	var tabs []string

	if m.activeTab == TabAuth {
		tabs = append(tabs, m.styles.ActiveTab.Render(TabAuth.String()))
	} else {
		for i, id := range []TabID{TabChat, TabAnalytics} {
			label := fmt.Sprintf("%d  %s", i+1, id)
			if id == m.activeTab {
				tabs = append(tabs, m.styles.ActiveTab.Render("["+label+"]"))
			} else {
				tabs = append(tabs, m.styles.InactiveTab.Render(" "+label+" "))
			}
		}
	}

	tabBar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	if m.state.IsAuthenticated() {
		status := m.styles.StatusBar.Render(fmt.Sprintf("%s  Balance: %s",
			m.state.SelectedModel().Name, m.state.Balance()))
		gap := m.width - lipgloss.Width(tabBar) - lipgloss.Width(status) - 2
		if gap > 0 {
			tabBar = lipgloss.JoinHorizontal(lipgloss.Top, tabBar, strings.Repeat(" ", gap), status)
		}
	}

	return m.styles.TabBar.Width(m.width).Render(tabBar)
}

func (m *Model) renderNotifications() []string {
	notifications := m.state.GetNotifications()
	if len(notifications) == 0 {
		return nil
	}

	var toasts []string
	for _, n := range notifications {
		var style lipgloss.Style
		var prefix string

		switch n.Type {
		case NotificationSuccess:
			style = m.styles.NotificationSuccess
			prefix = "[OK]"
		case NotificationError:
			style = m.styles.NotificationError
			prefix = "[ERR]"
		case NotificationWarning:
			style = m.styles.NotificationWarning
			prefix = "[WARN]"
		case NotificationInfo:
			style = m.styles.NotificationInfo
			prefix = "[INFO]"
		case NotificationLoading:
			style = m.styles.NotificationInfo
			prefix = m.spinner.View()
		}

		content := style.Render(fmt.Sprintf("%s %s", prefix, n.Message))
		toasts = append(toasts, m.styles.Toast.Render(content))
	}

	return toasts
}

func (m *Model) overlayToasts(mainView string, toasts []string) string {
	if len(toasts) == 0 {
		return mainView
	}

	toastStack := lipgloss.JoinVertical(lipgloss.Right, toasts...)
	toastLines := strings.Split(toastStack, "\n")
	mainLines := padLines(strings.Split(mainView, "\n"), m.height)

	toastWidth := lipgloss.Width(toastStack)
	startX := max(m.width-toastWidth-2, 0)

	startY := 2

	for i, toastLine := range toastLines {
		lineIdx := startY + i
		if lineIdx >= len(mainLines) {
			break
		}

		mainLine := mainLines[lineIdx]
		mainLineWidth := lipgloss.Width(mainLine)

		if mainLineWidth < startX {
			padding := strings.Repeat(" ", startX-mainLineWidth)
			mainLines[lineIdx] = mainLine + padding + toastLine
		} else {
			truncated := ansi.Truncate(mainLine, startX, "")
			mainLines[lineIdx] = truncated + toastLine
		}
	}

	return strings.Join(mainLines, "\n")
}

func (m *Model) renderHelp() string {
	var lines []string

	lines = append(lines, m.styles.Title.Render("Keyboard Shortcuts"))
	lines = append(lines, "")

	lines = append(lines, m.styles.Highlight.Render("Navigation"))
	lines = append(lines, "  1-2        Switch tabs")
	lines = append(lines, "  Tab        Next tab")
	lines = append(lines, "  Shift+Tab  Previous tab")
	lines = append(lines, "")

	lines = append(lines, m.styles.Highlight.Render("Actions"))
	lines = append(lines, "  Ctrl+R     Refresh data")
	lines = append(lines, "  ?/F1       Toggle help")
	lines = append(lines, "  q/Ctrl+C   Quit")
	lines = append(lines, "")

	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		tabHelp := m.tabs[m.activeTab].ShortHelp()
		if len(tabHelp) > 0 {
			lines = append(lines, m.styles.Highlight.Render(fmt.Sprintf("%s Tab", m.activeTab)))
			for _, binding := range tabHelp {
				lines = append(lines, fmt.Sprintf("  %-10s %s", binding.Help().Key, binding.Help().Desc))
			}
			lines = append(lines, "")
		}
	}

	lines = append(lines, m.styles.Subtle.Render("Press ? or Esc to close"))

	return styles.HelpPanelStyle.Render(strings.Join(lines, "\n"))
}
