// Package models defines data structures and domain types.
package models

import "time"

// Message is one completed exchange with the remote model.
type Message struct {
	Timestamp   time.Time `json:"timestamp"`
	Model       string    `json:"model"`
	UserMessage string    `json:"user_message"`
	AIResponse  string    `json:"ai_response"`
	ID          int64     `json:"id"`
	TokensUsed  int       `json:"tokens_used"`
}

// Reversed returns a copy of msgs in the opposite order.
// GetChatHistory is newest first; the chat view wants oldest first.
func Reversed(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[len(msgs)-1-i] = m
	}
	return out
}
