package db

import (
	"fmt"
	"time"
)

// DefaultHistoryLimit bounds GetChatHistory when the caller passes no limit.
const DefaultHistoryLimit = 50

// timeLayout is how every timestamp is written: UTC, microsecond precision,
// lexically sortable.
const timeLayout = "2006-01-02 15:04:05.000000"

// timeFormats are accepted on read, newest layout first.
var timeFormats = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999 -0700 MST",
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTimeString(s string) (time.Time, bool) {
	for _, format := range timeFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// sqlTime scans a DATETIME column whether the driver hands back a parsed
// time.Time or the raw text.
type sqlTime struct {
	time.Time
}

// Scan implements sql.Scanner.
func (t *sqlTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
	case time.Time:
		t.Time = v.UTC()
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
	return nil
}

func (t *sqlTime) parse(s string) error {
	parsed, ok := parseTimeString(s)
	if !ok {
		return fmt.Errorf("unrecognised timestamp %q", s)
	}
	t.Time = parsed
	return nil
}
