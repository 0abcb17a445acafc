package db

import (
	"context"
	"fmt"
)

// schema is applied in order on every start. Each statement is create-if-absent
// so reopening an existing file is a no-op.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		model TEXT,
		user_message TEXT,
		ai_response TEXT,
		timestamp DATETIME,
		tokens_used INTEGER
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages(timestamp)`,

	`CREATE TABLE IF NOT EXISTS analytics_messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME,
		model TEXT,
		message_length INTEGER,
		response_time REAL,
		tokens_used INTEGER
	)`,
	`CREATE INDEX IF NOT EXISTS idx_analytics_messages_timestamp ON analytics_messages(timestamp)`,

	`CREATE TABLE IF NOT EXISTS api_keys (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		api_key_hash TEXT UNIQUE,
		pin_code TEXT,
		created_at DATETIME
	)`,
	`CREATE INDEX IF NOT EXISTS idx_api_keys_pin ON api_keys(pin_code)`,
}

// migrate creates all tables and indexes.
func migrate(ctx context.Context, q querier) error {
	for _, stmt := range schema {
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

// fixLegacyTimeFormats rewrites timestamps that were stored with Go's
// time.Time.String() suffix (" +0000 UTC") into the plain sortable layout.
// Text ordering in ORDER BY timestamp depends on it.
func fixLegacyTimeFormats(ctx context.Context, q querier) error {
	queries := []string{
		`UPDATE messages
		 SET timestamp = SUBSTR(timestamp, 1, INSTR(timestamp, ' +') - 1)
		 WHERE INSTR(timestamp, ' +') > 0 AND timestamp LIKE '% UTC'`,

		`UPDATE analytics_messages
		 SET timestamp = SUBSTR(timestamp, 1, INSTR(timestamp, ' +') - 1)
		 WHERE INSTR(timestamp, ' +') > 0 AND timestamp LIKE '% UTC'`,

		`UPDATE api_keys
		 SET created_at = SUBSTR(created_at, 1, INSTR(created_at, ' +') - 1)
		 WHERE INSTR(created_at, ' +') > 0 AND created_at LIKE '% UTC'`,
	}

	for _, query := range queries {
		if _, err := q.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to fix legacy time formats: %w", err)
		}
	}

	return nil
}
