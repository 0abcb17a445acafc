// Package models defines data structures and domain types.
package models

import "time"

// Credential binds the digest of a long-lived API secret to a short PIN.
// The secret itself is never stored.
type Credential struct {
	CreatedAt  time.Time
	APIKeyHash string
	PinCode    string
	ID         int64
}
