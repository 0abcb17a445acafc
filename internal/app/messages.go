package app

import (
	"time"

	"github.com/j-veylop/aichat/internal/models"
	"github.com/j-veylop/aichat/internal/services"
)

// TickMsg is sent periodically to trigger state refresh.
type TickMsg struct {
	Time time.Time
}

// RegisterSecretMsg asks to validate and register an API key.
type RegisterSecretMsg struct {
	Secret string
}

// RegisteredMsg is the result of a registration.
type RegisteredMsg struct {
	Pin   string
	Error error
}

// LoginMsg asks to unlock the chat with a PIN.
type LoginMsg struct {
	Pin string
}

// LoggedInMsg is the result of a login attempt.
type LoggedInMsg struct {
	Credential *models.Credential
	Error      error
}

// SendMsg asks to send text to the selected model.
type SendMsg struct {
	Text  string
	Model string
}

// ReplyMsg carries the stored exchange for a SendMsg.
type ReplyMsg struct {
	Exchange services.Exchange
	Error    error
}

// HistoryLoadedMsg contains the stored conversation, oldest first.
type HistoryLoadedMsg struct {
	Messages []models.Message
	Error    error
}

// ModelsLoadedMsg contains the models offered by the API.
type ModelsLoadedMsg struct {
	Models []models.ModelInfo
}

// BalanceLoadedMsg contains the formatted balance.
type BalanceLoadedMsg struct {
	Balance string
}

// StatsLoadedMsg contains usage statistics and process averages.
type StatsLoadedMsg struct {
	Stats       models.Statistics
	TokenSeries []float64
	Performance models.AverageMetrics
	HasSamples  bool
}

// ClearHistoryMsg asks to delete the stored conversation.
type ClearHistoryMsg struct{}

// HistoryClearedMsg is the result of a ClearHistoryMsg.
type HistoryClearedMsg struct {
	Error error
}

// ExportKind selects what an export writes.
type ExportKind int

const (
	// ExportChat writes the stored conversation.
	ExportChat ExportKind = iota
	// ExportAnalytics writes the tracked usage events.
	ExportAnalytics
)

// String returns the string representation of an ExportKind.
func (k ExportKind) String() string {
	if k == ExportAnalytics {
		return "analytics"
	}
	return "chat history"
}

// ExportMsg requests exporting data.
type ExportMsg struct {
	Kind ExportKind
}

// ExportResultMsg contains the result of an export operation.
type ExportResultMsg struct {
	Kind  ExportKind
	Path  string
	Error error
}

// RefreshMsg requests a refresh of data.
type RefreshMsg struct {
	Resource string // "all", "models", "balance", "stats"
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Type     NotificationType
	Message  string
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}
