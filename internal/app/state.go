// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"slices"
	"sync"
	"time"

	"github.com/j-veylop/aichat/internal/models"
	"github.com/j-veylop/aichat/internal/services"
	"github.com/j-veylop/aichat/internal/services/openrouter"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

const (
	// LoadingNotificationID is the fixed ID for loading notifications.
	LoadingNotificationID = "__loading__"

	maxNotifications = 10
)

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	case NotificationLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing notification message.
type Notification struct {
	ID        string
	Type      NotificationType
	Message   string
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// AuthStage is where the user is in the key/PIN bootstrap.
type AuthStage int

const (
	// StageEnterSecret asks for an API key.
	StageEnterSecret AuthStage = iota
	// StageEnterPin asks for the PIN of the configured key.
	StageEnterPin
	// StageAuthenticated means the chat is unlocked.
	StageAuthenticated
)

// State is the data shared between the root model and its tabs. The tabs
// render from it; the root model writes to it as command results arrive.
type State struct {
	mu sync.RWMutex

	stage     AuthStage
	issuedPin string
	authError string

	messages      []models.Message
	pending       bool
	models        []models.ModelInfo
	selectedModel int
	balance       string

	stats       models.Statistics
	tokenSeries []float64
	performance models.AverageMetrics
	perfOK      bool
	health      models.Health

	lastUpdated time.Time

	notifications   []Notification
	notificationSeq int
}

// NewState creates an empty state waiting for an API key.
func NewState() *State {
	return &State{
		models:        openrouter.DefaultModels(),
		balance:       services.BalanceUnavailable,
		notifications: make([]Notification, 0),
	}
}

// Stage returns the current bootstrap stage.
func (s *State) Stage() AuthStage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stage
}

// SetStage moves to stage and clears any previous auth error.
func (s *State) SetStage(stage AuthStage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stage = stage
	s.authError = ""
}

// IsAuthenticated reports whether the chat is unlocked.
func (s *State) IsAuthenticated() bool {
	return s.Stage() == StageAuthenticated
}

// SetIssuedPin records the PIN just issued for a new key.
func (s *State) SetIssuedPin(pin string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issuedPin = pin
}

// IssuedPin returns the PIN issued during this run, if any.
func (s *State) IssuedPin() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.issuedPin
}

// SetAuthError sets the message shown on the auth screen.
func (s *State) SetAuthError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authError = msg
}

// AuthError returns the message shown on the auth screen.
func (s *State) AuthError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authError
}

// SetMessages replaces the displayed conversation, oldest first.
func (s *State) SetMessages(msgs []models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = slices.Clone(msgs)
	s.lastUpdated = time.Now()
}

// AppendMessage adds a completed exchange to the conversation.
func (s *State) AppendMessage(msg models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	s.lastUpdated = time.Now()
}

// Messages returns a copy of the displayed conversation.
func (s *State) Messages() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.messages)
}

// SetPending marks whether a request to the model is in flight.
func (s *State) SetPending(pending bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = pending
}

// IsPending reports whether a request to the model is in flight.
func (s *State) IsPending() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending
}

// SetModels replaces the model list, keeping the selection when the
// selected model is still offered.
func (s *State) SetModels(list []models.ModelInfo) {
	if len(list) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current := ""
	if s.selectedModel < len(s.models) {
		current = s.models[s.selectedModel].ID
	}
	s.models = slices.Clone(list)
	s.selectedModel = 0
	for i, m := range s.models {
		if m.ID == current {
			s.selectedModel = i
			break
		}
	}
}

// Models returns a copy of the model list.
func (s *State) Models() []models.ModelInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.models)
}

// SelectedModel returns the model messages are sent to.
func (s *State) SelectedModel() models.ModelInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.models) == 0 {
		return models.ModelInfo{}
	}
	return s.models[s.selectedModel]
}

// CycleModel moves the selection by delta, wrapping around.
func (s *State) CycleModel(delta int) models.ModelInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.models)
	if n == 0 {
		return models.ModelInfo{}
	}
	s.selectedModel = ((s.selectedModel+delta)%n + n) % n
	return s.models[s.selectedModel]
}

// SetBalance sets the formatted account balance.
func (s *State) SetBalance(balance string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balance = balance
}

// Balance returns the formatted account balance.
func (s *State) Balance() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balance
}

// SetStats updates the usage statistics and the token series.
func (s *State) SetStats(stats models.Statistics, series []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = stats
	s.tokenSeries = slices.Clone(series)
}

// Stats returns the last loaded statistics.
func (s *State) Stats() models.Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// TokenSeries returns the tokens used per recent exchange.
func (s *State) TokenSeries() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tokenSeries)
}

// SetPerformance updates the process averages. ok is false before the
// first sample.
func (s *State) SetPerformance(avg models.AverageMetrics, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.performance = avg
	s.perfOK = ok
}

// Performance returns the process averages.
func (s *State) Performance() (models.AverageMetrics, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.performance, s.perfOK
}

// SetHealth records the latest health check.
func (s *State) SetHealth(h models.Health) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.health = h
}

// Health returns the latest health check.
func (s *State) Health() models.Health {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.health
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notificationSeq++
	id := time.Now().Format("20060102150405") + "-" + string(rune('A'+s.notificationSeq%26))

	s.notifications = append(s.notifications, Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	})

	if len(s.notifications) > maxNotifications {
		s.notifications = s.notifications[len(s.notifications)-maxNotifications:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = slices.DeleteFunc(s.notifications, func(n Notification) bool {
		return n.IsExpired()
	})
}

// GetNotifications returns a copy of all active notifications.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	return active
}

// SetLoadingNotification sets a loading notification message.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

// ClearLoadingNotification removes the loading notification.
func (s *State) ClearLoadingNotification() {
	s.RemoveNotification(LoadingNotificationID)
}

// LastUpdated returns when the conversation last changed.
func (s *State) LastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated
}
