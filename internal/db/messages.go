package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/j-veylop/aichat/internal/models"
)

const selectMessageColumns = `
	SELECT id, model, user_message, ai_response, timestamp, tokens_used
	FROM messages
`

// SaveMessage stores one completed exchange stamped with the current time and
// returns the stored row. Empty strings are stored as given.
func (qs queries) SaveMessage(ctx context.Context, model, userMessage, aiResponse string, tokensUsed int) (models.Message, error) {
	query := `
		INSERT INTO messages (model, user_message, ai_response, timestamp, tokens_used)
		VALUES (?, ?, ?, ?, ?)
	`

	msg := models.Message{
		Model:       model,
		UserMessage: userMessage,
		AIResponse:  aiResponse,
		Timestamp:   time.Now().UTC().Truncate(time.Microsecond),
		TokensUsed:  tokensUsed,
	}
	err := qs.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query,
			msg.Model,
			msg.UserMessage,
			msg.AIResponse,
			formatTime(msg.Timestamp),
			msg.TokensUsed,
		)
		if err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
		msg.ID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read message id: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// GetChatHistory returns up to limit messages, newest first.
func (qs queries) GetChatHistory(ctx context.Context, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	rows, err := qs.q.QueryContext(ctx, selectMessageColumns+`
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanMessages(rows)
}

// GetFormattedHistory returns every stored message, oldest first.
func (qs queries) GetFormattedHistory(ctx context.Context) ([]models.Message, error) {
	rows, err := qs.q.QueryContext(ctx, selectMessageColumns+`
		ORDER BY timestamp ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query formatted history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanMessages(rows)
}

// ClearHistory deletes every message and reports how many were removed.
// Analytics records are left alone.
func (qs queries) ClearHistory(ctx context.Context) (int64, error) {
	var n int64
	err := qs.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, "DELETE FROM messages")
		if err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		n, _ = result.RowsAffected()
		return nil
	})
	return n, err
}

// CountMessages returns the number of stored messages.
func (qs queries) CountMessages(ctx context.Context) (int, error) {
	var n int
	if err := qs.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM messages").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return n, nil
}

func scanMessages(rows *sql.Rows) ([]models.Message, error) {
	msgs := make([]models.Message, 0)
	for rows.Next() {
		var (
			msg                          models.Message
			model, userMessage, response sql.NullString
			tokens                       sql.NullInt64
			ts                           sqlTime
		)

		if err := rows.Scan(&msg.ID, &model, &userMessage, &response, &ts, &tokens); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}

		msg.Model = model.String
		msg.UserMessage = userMessage.String
		msg.AIResponse = response.String
		msg.Timestamp = ts.Time
		msg.TokensUsed = int(tokens.Int64)
		msgs = append(msgs, msg)
	}

	return msgs, rows.Err()
}
