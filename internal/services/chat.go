package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/j-veylop/aichat/internal/config"
	"github.com/j-veylop/aichat/internal/models"
	"github.com/j-veylop/aichat/internal/services/credentials"
	"github.com/j-veylop/aichat/internal/services/openrouter"
)

// BalanceUnavailable is shown when the balance cannot be fetched.
const BalanceUnavailable = "n/a"

var (
	// ErrNotAuthenticated is returned by chat operations before login.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrSecretMismatch is returned when a PIN belongs to a different secret
	// than the one configured.
	ErrSecretMismatch = errors.New("pin was issued for a different api key")
	// ErrInvalidSecret is returned when the API rejects a secret.
	ErrInvalidSecret = errors.New("invalid api key or zero balance")
)

// Exchange is one stored request/response pair.
type Exchange struct {
	Message models.Message
	// APIError is set when the model call failed; the message then carries
	// the error text as its response and zero tokens.
	APIError     error
	ResponseTime time.Duration
}

// RegisterSecret checks secret against the API, saves it to the .env file
// and returns the PIN bound to it.
func (m *Manager) RegisterSecret(ctx context.Context, secret string) (string, error) {
	if secret == "" {
		return "", config.ErrMissingSecret
	}

	client, err := m.newClient(secret)
	if err != nil {
		return "", err
	}
	if _, err := client.GetBalance(ctx); err != nil {
		m.log.Warn("api key rejected", "error", err)
		return "", fmt.Errorf("%w: %w", ErrInvalidSecret, err)
	}

	if err := config.SaveSecret(m.envFile(), secret); err != nil {
		return "", fmt.Errorf("failed to save api key: %w", err)
	}

	pin, err := m.credentials.Register(ctx, secret)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.cfg.APIKey = secret
	m.client = client
	m.mu.Unlock()

	m.session.Issue(pin)
	return pin, nil
}

// Login authenticates with pin. The matched credential must belong to the
// configured secret.
func (m *Manager) Login(ctx context.Context, pin string) (*models.Credential, error) {
	cred, err := m.credentials.Authenticate(ctx, pin)
	if err != nil {
		m.session.Verify(false)
		return nil, err
	}

	m.mu.RLock()
	secret := m.cfg.APIKey
	m.mu.RUnlock()

	if secret == "" {
		m.session.Verify(false)
		return nil, config.ErrMissingSecret
	}
	if credentials.HashSecret(secret) != cred.APIKeyHash {
		m.session.Verify(false)
		return nil, ErrSecretMismatch
	}

	if m.Client() == nil {
		if err := m.setSecret(secret); err != nil {
			m.session.Verify(false)
			return nil, err
		}
	}

	m.mu.Lock()
	m.credential = cred
	m.mu.Unlock()

	m.session.Verify(true)
	m.log.Info("logged in", "credential_id", cred.ID)
	return cred, nil
}

// Credential returns the credential the session is bound to, or nil.
func (m *Manager) Credential() *models.Credential {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.credential
}

func (m *Manager) authenticatedClient() (*openrouter.Client, error) {
	if m.session.State() != credentials.StateAuthenticated {
		return nil, ErrNotAuthenticated
	}
	client := m.Client()
	if client == nil {
		return nil, config.ErrMissingSecret
	}
	return client, nil
}

// Send asks model for a reply to text, stores the exchange and records its
// analytics. A failed model call still stores the exchange with the error as
// the reply. The returned error is set only when storing failed.
func (m *Manager) Send(ctx context.Context, text, model string) (Exchange, error) {
	client, err := m.authenticatedClient()
	if err != nil {
		return Exchange{}, err
	}

	start := time.Now()
	reply := ""
	tokens := 0

	completion, apiErr := client.SendMessage(ctx, text, model)
	if apiErr != nil {
		reply = "Error: " + apiErr.Error()
		m.log.Error("api error", "model", model, "error", apiErr)
	} else {
		reply = completion.Content
		tokens = completion.TokensUsed
	}

	saved, err := m.database.SaveMessage(ctx, model, text, reply, tokens)
	if err != nil {
		return Exchange{}, fmt.Errorf("failed to save message: %w", err)
	}

	elapsed := time.Since(start)
	if err := m.tracker.TrackMessage(ctx, model, len([]rune(text)), elapsed, tokens); err != nil {
		m.log.Error("failed to track message", "error", err)
	}

	if m.monitor != nil {
		m.monitor.LogMetrics(m.log)
	}

	return Exchange{
		Message:      saved,
		APIError:     apiErr,
		ResponseTime: elapsed,
	}, nil
}

// History returns the most recent messages, oldest first, for display.
func (m *Manager) History(ctx context.Context) ([]models.Message, error) {
	msgs, err := m.database.GetChatHistory(ctx, m.cfg.HistoryLimit)
	if err != nil {
		return nil, err
	}
	return models.Reversed(msgs), nil
}

// ClearHistory deletes the stored chat and resets the in-memory statistics.
// Stored analytics records are kept.
func (m *Manager) ClearHistory(ctx context.Context) error {
	n, err := m.database.ClearHistory(ctx)
	if err != nil {
		return err
	}
	m.tracker.Clear()
	m.log.Info("chat history cleared", "messages", n)
	return nil
}

// ExportHistory writes the whole chat, oldest first, to a JSON file.
func (m *Manager) ExportHistory(ctx context.Context) (string, error) {
	msgs, err := m.database.GetFormattedHistory(ctx)
	if err != nil {
		return "", err
	}
	path, err := m.exporter.ChatHistory(msgs)
	if err != nil {
		return "", err
	}
	m.log.Info("chat history exported", "path", path, "messages", len(msgs))
	m.notifyf("Chat saved", "Saved to %s", path)
	return path, nil
}

// ExportAnalytics writes the in-memory event log to a JSON file.
func (m *Manager) ExportAnalytics() (string, error) {
	recs := m.tracker.Export()
	path, err := m.exporter.Analytics(recs)
	if err != nil {
		return "", err
	}
	m.log.Info("analytics exported", "path", path, "records", len(recs))
	m.notifyf("Analytics saved", "Saved to %s", path)
	return path, nil
}

func (m *Manager) notifyf(title, format string, args ...any) {
	if m.notify == nil {
		return
	}
	if err := m.notify(title, fmt.Sprintf(format, args...)); err != nil {
		m.log.Debug("failed to send notification", "error", err)
	}
}

// Balance returns the formatted balance, or BalanceUnavailable.
func (m *Manager) Balance(ctx context.Context) string {
	client := m.Client()
	if client == nil {
		return BalanceUnavailable
	}
	balance, err := client.GetBalance(ctx)
	if err != nil {
		m.log.Error("failed to update balance", "error", err)
		return BalanceUnavailable
	}
	return balance
}

// Models lists the models to choose from.
func (m *Manager) Models(ctx context.Context) []models.ModelInfo {
	client := m.Client()
	if client == nil {
		return openrouter.DefaultModels()
	}
	return client.ListModels(ctx)
}

// Statistics returns the current usage statistics.
func (m *Manager) Statistics() models.Statistics {
	return m.tracker.Statistics()
}

// Performance returns average process metrics, if any were sampled.
func (m *Manager) Performance() (models.AverageMetrics, bool) {
	if m.monitor == nil {
		return models.AverageMetrics{}, false
	}
	return m.monitor.Averages()
}

// TokenSeries returns tokens used by the last n tracked exchanges, oldest first.
func (m *Manager) TokenSeries(n int) []float64 {
	return m.tracker.TokenSeries(n)
}

// HasSecret reports whether an API secret is configured.
func (m *Manager) HasSecret() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.APIKey != ""
}
