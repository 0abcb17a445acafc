// Package analytics keeps running usage statistics for the chat session.
//
// The in-memory aggregate is rebuilt from every stored analytics record when a
// Tracker is created, so startup cost grows with history. That is fine for a
// single local user.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/j-veylop/aichat/internal/logger"
	"github.com/j-veylop/aichat/internal/models"
)

// Store is the persistence a Tracker folds from and appends to.
type Store interface {
	SaveAnalytics(ctx context.Context, rec *models.AnalyticsRecord) error
	GetAnalyticsHistory(ctx context.Context) ([]models.AnalyticsRecord, error)
}

// Tracker aggregates per-model usage. It is safe for concurrent use.
type Tracker struct {
	mu        sync.RWMutex
	store     Store
	log       *slog.Logger
	now       func() time.Time
	sessionID string
	startedAt time.Time

	usage  map[string]models.ModelUsage
	events []models.AnalyticsRecord
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(t *Tracker) {
		if log != nil {
			t.log = log
		}
	}
}

// WithClock replaces time.Now for session timing and record timestamps.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithSessionID overrides the generated session id.
func WithSessionID(id string) Option {
	return func(t *Tracker) {
		if id != "" {
			t.sessionID = id
		}
	}
}

// New loads all stored records oldest first, folds them into the aggregate
// and starts the session clock.
func New(ctx context.Context, store Store, opts ...Option) (*Tracker, error) {
	t := &Tracker{
		store:     store,
		log:       logger.Discard(),
		now:       time.Now,
		sessionID: uuid.NewString(),
		usage:     make(map[string]models.ModelUsage),
	}
	for _, opt := range opts {
		opt(t)
	}

	history, err := store.GetAnalyticsHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load analytics history: %w", err)
	}
	for _, rec := range history {
		t.fold(rec)
	}
	t.startedAt = t.now()

	t.log.Debug("analytics loaded", "session_id", t.sessionID, "records", len(history))
	return t, nil
}

// TrackMessage records one completed exchange. The record is stored first;
// if that fails the in-memory state is left untouched.
func (t *Tracker) TrackMessage(ctx context.Context, model string, messageLength int, responseTime time.Duration, tokensUsed int) error {
	rec := models.AnalyticsRecord{
		Timestamp:     t.now(),
		Model:         model,
		MessageLength: messageLength,
		ResponseTime:  responseTime.Seconds(),
		TokensUsed:    tokensUsed,
	}
	if err := t.store.SaveAnalytics(ctx, &rec); err != nil {
		return fmt.Errorf("failed to track message: %w", err)
	}

	t.mu.Lock()
	t.fold(rec)
	t.mu.Unlock()

	t.log.Debug("tracked message", "model", model, "tokens", tokensUsed, "response_time", responseTime)
	return nil
}

func (t *Tracker) fold(rec models.AnalyticsRecord) {
	u := t.usage[rec.Model]
	u.Count++
	u.Tokens += rec.TokensUsed
	t.usage[rec.Model] = u
	t.events = append(t.events, rec)
}

// Statistics returns a snapshot of the aggregate. Rates are 0 when there is
// nothing to divide by.
func (t *Tracker) Statistics() models.Statistics {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stats := models.Statistics{
		SessionID:       t.sessionID,
		SessionDuration: t.now().Sub(t.startedAt),
		ModelUsage:      models.CloneUsage(t.usage),
	}
	for _, u := range t.usage {
		stats.TotalMessages += u.Count
		stats.TotalTokens += u.Tokens
	}

	if secs := stats.SessionDuration.Seconds(); secs > 0 {
		stats.MessagesPerMinute = float64(stats.TotalMessages) * 60 / secs
	}
	if stats.TotalMessages > 0 {
		stats.TokensPerMessage = float64(stats.TotalTokens) / float64(stats.TotalMessages)
	}
	return stats
}

// Export returns the event log in insertion order.
func (t *Tracker) Export() []models.AnalyticsRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.events)
}

// TokenSeries returns the token counts of the last n events, oldest first.
// n <= 0 returns all of them.
func (t *Tracker) TokenSeries(n int) []float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	events := t.events
	if n > 0 && len(events) > n {
		events = events[len(events)-n:]
	}
	series := make([]float64, len(events))
	for i, rec := range events {
		series[i] = float64(rec.TokensUsed)
	}
	return series
}

// SessionID identifies this tracker's session.
func (t *Tracker) SessionID() string {
	return t.sessionID
}

// Clear empties the in-memory aggregate and event log. Stored records are
// kept and will be folded in again by the next Tracker.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.usage)
	t.events = nil
	t.log.Info("analytics cleared", "session_id", t.sessionID)
}
