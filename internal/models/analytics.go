// Package models defines data structures and domain types.
package models

import (
	"maps"
	"time"
)

// AnalyticsRecord is one durable usage sample written per completed exchange.
type AnalyticsRecord struct {
	Timestamp     time.Time `json:"timestamp"`
	Model         string    `json:"model"`
	ID            int64     `json:"-"`
	MessageLength int       `json:"message_length"`
	ResponseTime  float64   `json:"response_time"`
	TokensUsed    int       `json:"tokens_used"`
}

// ModelUsage holds running totals for a single model identifier.
type ModelUsage struct {
	Count  int `json:"count"`
	Tokens int `json:"tokens"`
}

// Statistics is a point-in-time summary of tracked usage.
type Statistics struct {
	ModelUsage        map[string]ModelUsage `json:"model_usage"`
	SessionID         string                `json:"session_id"`
	SessionDuration   time.Duration         `json:"session_duration"`
	TotalMessages     int                   `json:"total_messages"`
	TotalTokens       int                   `json:"total_tokens"`
	MessagesPerMinute float64               `json:"messages_per_minute"`
	TokensPerMessage  float64               `json:"tokens_per_message"`
}

// CloneUsage returns a deep copy of a usage mapping.
func CloneUsage(usage map[string]ModelUsage) map[string]ModelUsage {
	out := make(map[string]ModelUsage, len(usage))
	maps.Copy(out, usage)
	return out
}
