package db

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveMessage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	defer db.Close()

	before := time.Now().Truncate(time.Microsecond)
	saved, err := db.SaveMessage(ctx, "deepseek-coder", "Привет", "Здравствуйте! 👋", 42)
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)

	msgs, err := db.GetFormattedHistory(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	got := msgs[0]
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, "deepseek-coder", got.Model)
	assert.Equal(t, "Привет", got.UserMessage)
	assert.Equal(t, "Здравствуйте! 👋", got.AIResponse)
	assert.Equal(t, 42, got.TokensUsed)
	assert.False(t, got.Timestamp.Before(before), "timestamp %v earlier than save call %v", got.Timestamp, before)
	assert.True(t, saved.Timestamp.Equal(got.Timestamp), "returned %v, stored %v", saved.Timestamp, got.Timestamp)
	assert.Equal(t, got.Model, saved.Model)
	assert.Equal(t, got.TokensUsed, saved.TokensUsed)
}

func TestSaveMessage_EmptyStrings(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	defer db.Close()

	_, err := db.SaveMessage(ctx, "", "", "", 0)
	require.NoError(t, err)

	msgs, err := db.GetChatHistory(ctx, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Empty(t, msgs[0].Model)
	assert.Empty(t, msgs[0].UserMessage)
	assert.Empty(t, msgs[0].AIResponse)
}

func TestGetChatHistory_NewestFirstAndLimited(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	defer db.Close()

	for i := range 5 {
		_, err := db.SaveMessage(ctx, "m", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i), i)
		require.NoError(t, err)
	}

	recent, err := db.GetChatHistory(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)

	assert.Equal(t, "q4", recent[0].UserMessage)
	assert.Equal(t, "q3", recent[1].UserMessage)
	assert.Equal(t, "q2", recent[2].UserMessage)
	for i := 1; i < len(recent); i++ {
		assert.False(t, recent[i].Timestamp.After(recent[i-1].Timestamp), "history not descending at %d", i)
		assert.Less(t, recent[i].ID, recent[i-1].ID)
	}
}

func TestGetChatHistory_DefaultLimit(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	defer db.Close()

	for i := range DefaultHistoryLimit + 5 {
		_, err := db.SaveMessage(ctx, "m", fmt.Sprint(i), "", 0)
		require.NoError(t, err)
	}

	msgs, err := db.GetChatHistory(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, DefaultHistoryLimit)
}

func TestGetChatHistory_Empty(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	msgs, err := db.GetChatHistory(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestGetFormattedHistory_OldestFirst(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	defer db.Close()

	for i := range 4 {
		_, err := db.SaveMessage(ctx, "m", fmt.Sprintf("q%d", i), "", 0)
		require.NoError(t, err)
	}

	msgs, err := db.GetFormattedHistory(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	for i, msg := range msgs {
		assert.Equal(t, fmt.Sprintf("q%d", i), msg.UserMessage)
		if i > 0 {
			assert.False(t, msg.Timestamp.Before(msgs[i-1].Timestamp))
		}
	}
}

func TestClearHistory_KeepsAnalytics(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	defer db.Close()

	_, err := db.SaveMessage(ctx, "m", "q", "a", 7)
	require.NoError(t, err)
	require.NoError(t, db.SaveAnalytics(ctx, sampleRecord("m", 7, time.Now())))

	removed, err := db.ClearHistory(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	n, err := db.CountMessages(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	records, err := db.GetAnalyticsHistory(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestSaveMessage_Concurrent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	defer db.Close()

	const workers = 20
	var wg sync.WaitGroup
	ids := make(chan int64, workers)
	errs := make(chan error, workers)

	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			msg, err := db.SaveMessage(ctx, "m", fmt.Sprintf("q%d", i), "a", i)
			if err != nil {
				errs <- err
				return
			}
			ids <- msg.ID
		}(i)
	}
	wg.Wait()
	close(ids)
	close(errs)

	for err := range errs {
		t.Errorf("SaveMessage() failed: %v", err)
	}

	seen := make(map[int64]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers)

	n, err := db.CountMessages(ctx)
	require.NoError(t, err)
	assert.Equal(t, workers, n)
}
