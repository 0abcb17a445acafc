// Package export writes chat history and analytics to JSON files.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/j-veylop/aichat/internal/models"
)

// DefaultDir is the export directory used when none is configured.
const DefaultDir = "exports"

// timestampLayout matches how the database stores timestamps.
const timestampLayout = "2006-01-02 15:04:05.000000"

type chatEntry struct {
	Timestamp   string `json:"timestamp"`
	Model       string `json:"model"`
	UserMessage string `json:"user_message"`
	AIResponse  string `json:"ai_response"`
	TokensUsed  int    `json:"tokens_used"`
}

type analyticsEntry struct {
	Timestamp     string  `json:"timestamp"`
	Model         string  `json:"model"`
	MessageLength int     `json:"message_length"`
	ResponseTime  float64 `json:"response_time"`
	TokensUsed    int     `json:"tokens_used"`
}

// Exporter writes timestamped files into one directory.
type Exporter struct {
	dir string
	now func() time.Time
}

// New creates an exporter for dir. The directory is created on first write.
func New(dir string) *Exporter {
	if dir == "" {
		dir = DefaultDir
	}
	return &Exporter{dir: dir, now: time.Now}
}

// Dir returns the export directory.
func (e *Exporter) Dir() string {
	return e.dir
}

// ChatHistoryFileName returns the file name for a chat export made at t.
func ChatHistoryFileName(t time.Time) string {
	return "chat_history_" + t.Format("20060102_150405") + ".json"
}

// AnalyticsFileName returns the file name for an analytics export made at t.
func AnalyticsFileName(t time.Time) string {
	return "analytics_" + t.Format("20060102_150405") + ".json"
}

// ChatHistory writes msgs in the given order and returns the file path.
func (e *Exporter) ChatHistory(msgs []models.Message) (string, error) {
	entries := make([]chatEntry, len(msgs))
	for i, m := range msgs {
		entries[i] = chatEntry{
			Timestamp:   m.Timestamp.Local().Format(timestampLayout),
			Model:       m.Model,
			UserMessage: m.UserMessage,
			AIResponse:  m.AIResponse,
			TokensUsed:  m.TokensUsed,
		}
	}
	return e.write(ChatHistoryFileName(e.now()), entries)
}

// Analytics writes recs in the given order and returns the file path.
func (e *Exporter) Analytics(recs []models.AnalyticsRecord) (string, error) {
	entries := make([]analyticsEntry, len(recs))
	for i, r := range recs {
		entries[i] = analyticsEntry{
			Timestamp:     r.Timestamp.Local().Format(timestampLayout),
			Model:         r.Model,
			MessageLength: r.MessageLength,
			ResponseTime:  r.ResponseTime,
			TokensUsed:    r.TokensUsed,
		}
	}
	return e.write(AnalyticsFileName(e.now()), entries)
}

func (e *Exporter) write(name string, v any) (string, error) {
	if err := os.MkdirAll(e.dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("failed to encode export: %w", err)
	}

	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	return path, nil
}
