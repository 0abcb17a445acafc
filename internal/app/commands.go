package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/aichat/internal/services"
)

const (
	// DefaultTickInterval is the default interval between ticks.
	DefaultTickInterval = 2 * time.Second

	// DefaultNotificationDuration is the default duration for notifications.
	DefaultNotificationDuration = 5 * time.Second

	// QuickNotificationDuration is for brief notifications.
	QuickNotificationDuration = 3 * time.Second

	// LongNotificationDuration is for important notifications.
	LongNotificationDuration = 10 * time.Second

	// requestTimeout bounds a single call to the model API.
	requestTimeout = 2 * time.Minute

	// chartPoints is how many exchanges the analytics chart shows.
	chartPoints = 60
)

// tickCmd returns a command that sends a TickMsg after the specified interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// defaultTickCmd returns a command that sends a TickMsg after the default interval.
func defaultTickCmd() tea.Cmd {
	return tickCmd(DefaultTickInterval)
}

// loadInitialData returns a command that loads everything the chat screen
// shows once unlocked.
func loadInitialData(mgr *services.Manager) tea.Cmd {
	return tea.Batch(
		loadHistoryCmd(mgr),
		loadModelsCmd(mgr),
		loadBalanceCmd(mgr),
		loadStatsCmd(mgr),
	)
}

func registerSecretCmd(mgr *services.Manager, secret string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		pin, err := mgr.RegisterSecret(ctx, secret)
		return RegisteredMsg{Pin: pin, Error: err}
	}
}

func loginCmd(mgr *services.Manager, pin string) tea.Cmd {
	return func() tea.Msg {
		cred, err := mgr.Login(context.Background(), pin)
		return LoggedInMsg{Credential: cred, Error: err}
	}
}

// sendCmd runs the model call off the UI goroutine.
func sendCmd(mgr *services.Manager, text, model string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		ex, err := mgr.Send(ctx, text, model)
		return ReplyMsg{Exchange: ex, Error: err}
	}
}

func loadHistoryCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		msgs, err := mgr.History(context.Background())
		return HistoryLoadedMsg{Messages: msgs, Error: err}
	}
}

func loadModelsCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		return ModelsLoadedMsg{Models: mgr.Models(context.Background())}
	}
}

func loadBalanceCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		return BalanceLoadedMsg{Balance: mgr.Balance(context.Background())}
	}
}

func loadStatsCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		perf, ok := mgr.Performance()
		return StatsLoadedMsg{
			Stats:       mgr.Statistics(),
			TokenSeries: mgr.TokenSeries(chartPoints),
			Performance: perf,
			HasSamples:  ok,
		}
	}
}

func clearHistoryCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		return HistoryClearedMsg{Error: mgr.ClearHistory(context.Background())}
	}
}

func exportCmd(mgr *services.Manager, kind ExportKind) tea.Cmd {
	return func() tea.Msg {
		var (
			path string
			err  error
		)
		switch kind {
		case ExportAnalytics:
			path, err = mgr.ExportAnalytics()
		default:
			path, err = mgr.ExportHistory(context.Background())
		}
		return ExportResultMsg{Kind: kind, Path: path, Error: err}
	}
}

// subscribeToServicesCmd returns a command that subscribes to service events.
func subscribeToServicesCmd(mgr *services.Manager) tea.Cmd {
	ch, _ := mgr.Subscribe()
	return func() tea.Msg {
		return SubscriptionEventMsg{Channel: ch}
	}
}

// waitForServiceEventCmd returns a command that waits for the next service event.
func waitForServiceEventCmd(ch <-chan services.ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return ServiceEventMsg{Event: event}
	}
}

// clearNotificationCmd returns a command that removes a notification after a delay.
func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}

func notifyCmd(t NotificationType, message string, d time.Duration) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{Type: t, Message: message, Duration: d}
	}
}

// notifySuccessCmd returns a command that adds a success notification.
func notifySuccessCmd(message string) tea.Cmd {
	return notifyCmd(NotificationSuccess, message, DefaultNotificationDuration)
}

// notifyErrorCmd returns a command that adds an error notification.
func notifyErrorCmd(message string) tea.Cmd {
	return notifyCmd(NotificationError, message, LongNotificationDuration)
}

// notifyWarningCmd returns a command that adds a warning notification.
func notifyWarningCmd(message string) tea.Cmd {
	return notifyCmd(NotificationWarning, message, DefaultNotificationDuration)
}

// notifyInfoCmd returns a command that adds an info notification.
func notifyInfoCmd(message string) tea.Cmd {
	return notifyCmd(NotificationInfo, message, QuickNotificationDuration)
}

// Request helpers for tabs. Tabs never talk to the service manager; they
// emit these and the root model runs the matching command.

// RegisterSecret returns a command requesting registration of secret.
func RegisterSecret(secret string) tea.Cmd {
	return func() tea.Msg { return RegisterSecretMsg{Secret: secret} }
}

// Login returns a command requesting a login with pin.
func Login(pin string) tea.Cmd {
	return func() tea.Msg { return LoginMsg{Pin: pin} }
}

// Send returns a command requesting text be sent to model.
func Send(text, model string) tea.Cmd {
	return func() tea.Msg { return SendMsg{Text: text, Model: model} }
}

// ClearHistory returns a command requesting the conversation be deleted.
func ClearHistory() tea.Cmd {
	return func() tea.Msg { return ClearHistoryMsg{} }
}

// Export returns a command requesting an export.
func Export(kind ExportKind) tea.Cmd {
	return func() tea.Msg { return ExportMsg{Kind: kind} }
}

// Refresh returns a command requesting resource be reloaded.
func Refresh(resource string) tea.Cmd {
	return func() tea.Msg { return RefreshMsg{Resource: resource} }
}

// Notify returns a command that adds a notification of the given type.
func Notify(t NotificationType, message string) tea.Cmd {
	switch t {
	case NotificationError:
		return notifyErrorCmd(message)
	case NotificationWarning:
		return notifyWarningCmd(message)
	case NotificationSuccess:
		return notifySuccessCmd(message)
	default:
		return notifyInfoCmd(message)
	}
}
