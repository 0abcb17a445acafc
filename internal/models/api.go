// Package models defines data structures and domain types.
package models

// ModelInfo describes a model offered by the remote API.
type ModelInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Completion is the useful part of a chat completion response.
type Completion struct {
	Content    string
	Model      string
	TokensUsed int
}
