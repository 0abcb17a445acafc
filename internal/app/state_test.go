package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/aichat/internal/models"
	"github.com/j-veylop/aichat/internal/services"
)

func TestNewState(t *testing.T) {
	s := NewState()
	assert.Equal(t, StageEnterSecret, s.Stage())
	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, services.BalanceUnavailable, s.Balance())
	assert.NotEmpty(t, s.Models())
	assert.Empty(t, s.GetNotifications())
}

func TestState_StageClearsAuthError(t *testing.T) {
	s := NewState()
	s.SetAuthError("Invalid PIN")
	assert.Equal(t, "Invalid PIN", s.AuthError())

	s.SetStage(StageAuthenticated)
	assert.Empty(t, s.AuthError())
	assert.True(t, s.IsAuthenticated())
}

func TestState_Messages(t *testing.T) {
	s := NewState()
	s.SetMessages([]models.Message{{UserMessage: "a"}})
	s.AppendMessage(models.Message{UserMessage: "b"})

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "a", msgs[0].UserMessage)
	assert.Equal(t, "b", msgs[1].UserMessage)
	assert.False(t, s.LastUpdated().IsZero())

	// Returned slice is a copy.
	msgs[0].UserMessage = "changed"
	assert.Equal(t, "a", s.Messages()[0].UserMessage)
}

func TestState_CycleModel(t *testing.T) {
	s := NewState()
	s.SetModels([]models.ModelInfo{{ID: "a"}, {ID: "b"}, {ID: "c"}})

	assert.Equal(t, "a", s.SelectedModel().ID)
	assert.Equal(t, "b", s.CycleModel(1).ID)
	assert.Equal(t, "a", s.CycleModel(-1).ID)
	assert.Equal(t, "c", s.CycleModel(-1).ID)
	assert.Equal(t, "a", s.CycleModel(1).ID)
}

func TestState_SetModelsKeepsSelection(t *testing.T) {
	s := NewState()
	s.SetModels([]models.ModelInfo{{ID: "a"}, {ID: "b"}})
	s.CycleModel(1)

	s.SetModels([]models.ModelInfo{{ID: "x"}, {ID: "b"}, {ID: "a"}})
	assert.Equal(t, "b", s.SelectedModel().ID)

	s.SetModels([]models.ModelInfo{{ID: "y"}})
	assert.Equal(t, "y", s.SelectedModel().ID)

	// An empty list leaves the current one in place.
	s.SetModels(nil)
	assert.Equal(t, "y", s.SelectedModel().ID)
}

func TestState_StatsAndPerformance(t *testing.T) {
	s := NewState()
	_, ok := s.Performance()
	assert.False(t, ok)

	s.SetStats(models.Statistics{TotalMessages: 2}, []float64{1, 2})
	s.SetPerformance(models.AverageMetrics{AvgCPU: 5, SampleCount: 1}, true)
	s.SetHealth(models.Health{Status: models.HealthOK})

	assert.Equal(t, 2, s.Stats().TotalMessages)
	assert.Equal(t, []float64{1, 2}, s.TokenSeries())
	avg, ok := s.Performance()
	assert.True(t, ok)
	assert.InDelta(t, 5.0, avg.AvgCPU, 0.001)
	assert.Equal(t, models.HealthOK, s.Health().Status)
}

func TestState_Notifications(t *testing.T) {
	s := NewState()
	id := s.AddNotification(NotificationSuccess, "saved", time.Minute)
	require.Len(t, s.GetNotifications(), 1)

	s.RemoveNotification(id)
	assert.Empty(t, s.GetNotifications())
}

func TestState_NotificationLimit(t *testing.T) {
	s := NewState()
	for range maxNotifications + 5 {
		s.AddNotification(NotificationInfo, "n", time.Minute)
	}
	assert.Len(t, s.GetNotifications(), maxNotifications)
}

func TestState_ExpiredNotifications(t *testing.T) {
	s := NewState()
	s.AddNotification(NotificationInfo, "old", time.Nanosecond)
	s.AddNotification(NotificationInfo, "sticky", 0)
	time.Sleep(time.Millisecond)

	notes := s.GetNotifications()
	require.Len(t, notes, 1)
	assert.Equal(t, "sticky", notes[0].Message)

	s.ClearExpiredNotifications()
	assert.Len(t, s.GetNotifications(), 1)
}

func TestState_LoadingNotification(t *testing.T) {
	s := NewState()
	s.SetLoadingNotification("Checking API key...")
	s.SetLoadingNotification("Still checking...")

	notes := s.GetNotifications()
	require.Len(t, notes, 1)
	assert.Equal(t, LoadingNotificationID, notes[0].ID)
	assert.Equal(t, "Still checking...", notes[0].Message)

	s.ClearLoadingNotification()
	assert.Empty(t, s.GetNotifications())
}

func TestNotificationType_String(t *testing.T) {
	tests := map[NotificationType]string{
		NotificationSuccess:  "success",
		NotificationError:    "error",
		NotificationWarning:  "warning",
		NotificationInfo:     "info",
		NotificationLoading:  "loading",
		NotificationType(99): "unknown",
	}
	for nt, want := range tests {
		assert.Equal(t, want, nt.String())
	}
}
