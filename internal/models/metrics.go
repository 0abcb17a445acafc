// Package models defines data structures and domain types.
package models

import "time"

// Metrics is one sample of process resource usage.
type Metrics struct {
	Timestamp     time.Time
	CPUPercent    float64
	MemoryPercent float64
	ThreadCount   int
	Uptime        time.Duration
}

// HealthStatus summarises a Metrics sample against thresholds.
type HealthStatus string

const (
	// HealthOK means every metric is under its threshold.
	HealthOK HealthStatus = "healthy"
	// HealthWarning means at least one metric exceeded its threshold.
	HealthWarning HealthStatus = "warning"
	// HealthError means the sample itself could not be taken.
	HealthError HealthStatus = "error"
)

// Health is the result of a threshold check.
type Health struct {
	Timestamp time.Time
	Status    HealthStatus
	Warnings  []string
	Error     string
}

// AverageMetrics are means over the retained sample history.
type AverageMetrics struct {
	AvgCPU      float64
	AvgMemory   float64
	AvgThreads  float64
	SampleCount int
}
