package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/j-veylop/aichat/internal/models"
)

// SaveAnalytics stores one usage record with the timestamp the caller chose.
// A zero timestamp is replaced by the current time.
func (qs queries) SaveAnalytics(ctx context.Context, rec *models.AnalyticsRecord) error {
	query := `
		INSERT INTO analytics_messages (timestamp, model, message_length, response_time, tokens_used)
		VALUES (?, ?, ?, ?, ?)
	`

	timestamp := rec.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	return qs.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query,
			formatTime(timestamp),
			rec.Model,
			rec.MessageLength,
			rec.ResponseTime,
			rec.TokensUsed,
		)
		if err != nil {
			return fmt.Errorf("failed to insert analytics record: %w", err)
		}

		id, err := result.LastInsertId()
		if err == nil {
			rec.ID = id
		}
		return nil
	})
}

// GetAnalyticsHistory returns every analytics record, oldest first.
func (qs queries) GetAnalyticsHistory(ctx context.Context) ([]models.AnalyticsRecord, error) {
	query := `
		SELECT id, timestamp, model, message_length, response_time, tokens_used
		FROM analytics_messages
		ORDER BY timestamp ASC, id ASC
	`

	rows, err := qs.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query analytics history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]models.AnalyticsRecord, 0)
	for rows.Next() {
		var (
			rec            models.AnalyticsRecord
			ts             sqlTime
			model          sql.NullString
			length, tokens sql.NullInt64
			responseTime   sql.NullFloat64
		)

		if err := rows.Scan(&rec.ID, &ts, &model, &length, &responseTime, &tokens); err != nil {
			return nil, fmt.Errorf("failed to scan analytics record: %w", err)
		}

		rec.Timestamp = ts.Time
		rec.Model = model.String
		rec.MessageLength = int(length.Int64)
		rec.ResponseTime = responseTime.Float64
		rec.TokensUsed = int(tokens.Int64)
		records = append(records, rec)
	}

	return records, rows.Err()
}
