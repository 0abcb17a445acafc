// Package services provides service orchestration for the TUI.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"
	"github.com/robfig/cron/v3"

	"github.com/j-veylop/aichat/internal/config"
	"github.com/j-veylop/aichat/internal/db"
	"github.com/j-veylop/aichat/internal/export"
	"github.com/j-veylop/aichat/internal/logger"
	"github.com/j-veylop/aichat/internal/models"
	"github.com/j-veylop/aichat/internal/services/analytics"
	"github.com/j-veylop/aichat/internal/services/credentials"
	"github.com/j-veylop/aichat/internal/services/monitor"
	"github.com/j-veylop/aichat/internal/services/openrouter"
)

type (
	// BalanceUpdatedEvent is emitted when the scheduled balance refresh completes.
	BalanceUpdatedEvent struct {
		Balance string
	}

	// HealthEvent is emitted after each scheduled metrics sample.
	HealthEvent struct {
		Health models.Health
	}

	// SecretChangedEvent is emitted when the API secret changes on disk.
	SecretChangedEvent struct {
		HasSecret bool
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (BalanceUpdatedEvent) isServiceEvent() {}
func (HealthEvent) isServiceEvent()         {}
func (SecretChangedEvent) isServiceEvent()  {}
func (ErrorEvent) isServiceEvent()          {}

// Notifier shows a desktop notification.
type Notifier func(title, body string) error

// Option configures a Manager.
type Option func(*Manager)

// WithMonitor replaces the process monitor.
func WithMonitor(mon *monitor.Monitor) Option {
	return func(m *Manager) { m.monitor = mon }
}

// WithNotifier replaces desktop notifications. Nil disables them.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) { m.notify = n }
}

// WithHTTPClient sets the HTTP client used by the API client.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) { m.httpClient = c }
}

// WithoutWatcher disables watching the .env file.
func WithoutWatcher() Option {
	return func(m *Manager) { m.noWatcher = true }
}

// Manager orchestrates services and event routing.
type Manager struct {
	mu          sync.RWMutex
	cfg         *config.Config
	log         *slog.Logger
	database    *db.DB
	credentials *credentials.Service
	session     *credentials.Session
	tracker     *analytics.Tracker
	monitor     *monitor.Monitor
	exporter    *export.Exporter
	client      *openrouter.Client
	httpClient  *http.Client
	notify      Notifier
	scheduler   *cron.Cron
	watcher     *config.Watcher
	noWatcher   bool
	closeOnce   sync.Once
	subscribers []chan<- ServiceEvent
	credential  *models.Credential
}

// NewManager opens the database, loads analytics history and starts the
// background jobs. A missing API secret is not an error; the client is
// created once a secret is registered.
func NewManager(ctx context.Context, cfg *config.Config, log *slog.Logger, opts ...Option) (*Manager, error) {
	m := &Manager{
		cfg:      cfg,
		log:      logger.OrDiscard(log),
		session:  credentials.NewSession(),
		exporter: export.New(cfg.ExportsDir),
		notify:   beeepNotify,
	}
	for _, opt := range opts {
		opt(m)
	}

	var err error
	m.database, err = db.New(cfg.DatabasePath,
		db.WithBusyTimeout(cfg.BusyTimeout),
		db.WithMaxOpenConns(cfg.MaxOpenConns),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	m.credentials = credentials.New(m.database, credentials.WithLogger(m.log))

	m.tracker, err = analytics.New(ctx, m.database, analytics.WithLogger(m.log))
	if err != nil {
		_ = m.database.Close()
		return nil, fmt.Errorf("failed to initialize analytics: %w", err)
	}

	if m.monitor == nil {
		m.monitor, err = monitor.New(monitor.WithLogger(m.log), monitor.WithNotifier(monitor.Notifier(m.notify)))
		if err != nil {
			m.log.Warn("process monitor unavailable", "error", err)
		}
	}

	if cfg.APIKey != "" {
		if err := m.setSecret(cfg.APIKey); err != nil {
			m.log.Warn("failed to create api client", "error", err)
		}
	}

	if err := m.startScheduler(); err != nil {
		_ = m.database.Close()
		return nil, err
	}

	if !m.noWatcher {
		m.startWatcher()
	}

	m.log.Info("services started",
		"session_id", m.tracker.SessionID(),
		"database", m.database.Path(),
	)
	return m, nil
}

func beeepNotify(title, body string) error {
	return beeep.Notify(title, body, "")
}

func (m *Manager) startScheduler() error {
	m.scheduler = cron.New()

	if m.monitor != nil && m.cfg.MonitorSchedule != "" {
		if _, err := m.scheduler.AddFunc(m.cfg.MonitorSchedule, m.logMetrics); err != nil {
			return fmt.Errorf("invalid monitor schedule %q: %w", m.cfg.MonitorSchedule, err)
		}
	}

	if m.cfg.BalanceSchedule != "" {
		if _, err := m.scheduler.AddFunc(m.cfg.BalanceSchedule, m.refreshBalance); err != nil {
			return fmt.Errorf("invalid balance schedule %q: %w", m.cfg.BalanceSchedule, err)
		}
	}

	m.scheduler.Start()
	return nil
}

func (m *Manager) envFile() string {
	if m.cfg.EnvFile == "" {
		return config.DefaultEnvFile
	}
	return m.cfg.EnvFile
}

func (m *Manager) startWatcher() {
	path := m.envFile()
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		return
	}

	m.watcher, err = config.NewWatcher(path, m.onSecretChanged, m.log)
	if err != nil {
		m.log.Warn("failed to watch env file", "path", path, "error", err)
	}
}

func (m *Manager) logMetrics() {
	health := m.monitor.LogMetrics(m.log)
	m.broadcast(HealthEvent{Health: health})
}

func (m *Manager) refreshBalance() {
	client := m.Client()
	if client == nil {
		return
	}
	balance, err := client.RefreshBalance(context.Background())
	if err != nil {
		m.log.Warn("failed to refresh balance", "error", err)
		m.broadcast(ErrorEvent{Service: "balance", Error: err})
		return
	}
	m.broadcast(BalanceUpdatedEvent{Balance: balance})
}

func (m *Manager) onSecretChanged(secret string) {
	if err := m.setSecret(secret); err != nil {
		m.broadcast(ErrorEvent{Service: "config", Error: err})
	}
	m.broadcast(SecretChangedEvent{HasSecret: secret != ""})
}

// setSecret replaces the API client. An empty secret removes it.
func (m *Manager) setSecret(secret string) error {
	if secret == "" {
		m.mu.Lock()
		m.cfg.APIKey = ""
		m.client = nil
		m.mu.Unlock()
		return config.ErrMissingSecret
	}

	client, err := m.newClient(secret)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.cfg.APIKey = secret
	m.client = client
	m.mu.Unlock()
	return nil
}

func (m *Manager) newClient(secret string) (*openrouter.Client, error) {
	return openrouter.New(secret, openrouter.Options{
		BaseURL:    m.cfg.BaseURL,
		Referrer:   m.cfg.Referrer,
		Title:      m.cfg.Title,
		CacheTTL:   m.cfg.CacheTTL,
		HTTPClient: m.httpClient,
		Logger:     m.log,
	})
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, WaitForEvent(ch)
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return event
	}
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Client returns the API client, or nil before a secret is configured.
func (m *Manager) Client() *openrouter.Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client
}

// Database returns the database instance for direct access.
func (m *Manager) Database() *db.DB {
	return m.database
}

// Credentials returns the credential service.
func (m *Manager) Credentials() *credentials.Service {
	return m.credentials
}

// Session returns the login session.
func (m *Manager) Session() *credentials.Session {
	return m.session
}

// Tracker returns the analytics tracker.
func (m *Manager) Tracker() *analytics.Tracker {
	return m.tracker
}

// Monitor returns the process monitor, which may be nil.
func (m *Manager) Monitor() *monitor.Monitor {
	return m.monitor
}

// Config returns the configuration.
func (m *Manager) Config() *config.Config {
	return m.cfg
}

// Close stops background jobs and closes the database.
func (m *Manager) Close() error {
	var errs []error

	m.closeOnce.Do(func() {
		if m.scheduler != nil {
			<-m.scheduler.Stop().Done()
		}

		if m.watcher != nil {
			if err := m.watcher.Close(); err != nil {
				errs = append(errs, err)
			}
		}

		m.mu.Lock()
		for _, sub := range m.subscribers {
			close(sub)
		}
		m.subscribers = nil
		m.mu.Unlock()

		if m.database != nil {
			if err := m.database.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})

	return errors.Join(errs...)
}
