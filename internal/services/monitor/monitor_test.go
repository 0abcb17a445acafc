package monitor

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/aichat/internal/models"
)

type reading struct {
	cpu, mem float64
	threads  int
	err      error
}

type fakeSampler struct {
	mu       sync.Mutex
	readings []reading
}

func (f *fakeSampler) Sample() (float64, float64, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.readings[0]
	if len(f.readings) > 1 {
		f.readings = f.readings[1:]
	}
	return r.cpu, r.mem, r.threads, r.err
}

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) notify(title, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, body)
	return nil
}

func newTestMonitor(t *testing.T, readings ...reading) (*Monitor, *recorder) {
	t.Helper()
	rec := &recorder{}
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m, err := New(
		WithSampler(&fakeSampler{readings: readings}),
		WithNotifier(rec.notify),
		WithClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}),
	)
	require.NoError(t, err)
	return m, rec
}

func TestSample(t *testing.T) {
	m, _ := newTestMonitor(t, reading{cpu: 12.5, mem: 3.25, threads: 9})

	got, err := m.Sample()
	require.NoError(t, err)
	assert.InDelta(t, 12.5, got.CPUPercent, 1e-9)
	assert.InDelta(t, 3.25, got.MemoryPercent, 1e-9)
	assert.Equal(t, 9, got.ThreadCount)
	assert.Equal(t, time.Second, got.Uptime)
}

func TestSample_HistoryCap(t *testing.T) {
	m, _ := newTestMonitor(t, reading{cpu: 1})
	for range HistorySize + 25 {
		_, err := m.Sample()
		require.NoError(t, err)
	}

	avg, ok := m.Averages()
	require.True(t, ok)
	assert.Equal(t, HistorySize, avg.SampleCount)
}

func TestEvaluate(t *testing.T) {
	m, _ := newTestMonitor(t, reading{})

	tests := []struct {
		name     string
		metrics  models.Metrics
		status   models.HealthStatus
		warnings int
	}{
		{"Healthy", models.Metrics{CPUPercent: 80, MemoryPercent: 75, ThreadCount: 50}, models.HealthOK, 0},
		{"HighCPU", models.Metrics{CPUPercent: 80.1}, models.HealthWarning, 1},
		{"HighMemory", models.Metrics{MemoryPercent: 90}, models.HealthWarning, 1},
		{"AllHigh", models.Metrics{CPUPercent: 99, MemoryPercent: 99, ThreadCount: 51}, models.HealthWarning, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			health := m.Evaluate(tt.metrics)
			assert.Equal(t, tt.status, health.Status)
			assert.Len(t, health.Warnings, tt.warnings)
		})
	}
}

func TestCheckHealth_NotifiesOnceOnTransition(t *testing.T) {
	m, rec := newTestMonitor(t,
		reading{cpu: 10},
		reading{cpu: 95},
		reading{cpu: 96},
		reading{cpu: 10},
		reading{threads: 60},
	)

	statuses := make([]models.HealthStatus, 0, 5)
	for range 5 {
		statuses = append(statuses, m.CheckHealth().Status)
	}

	assert.Equal(t, []models.HealthStatus{
		models.HealthOK, models.HealthWarning, models.HealthWarning, models.HealthOK, models.HealthWarning,
	}, statuses)
	require.Len(t, rec.calls, 2)
	assert.Contains(t, rec.calls[0], "High CPU usage: 95.0%")
	assert.Contains(t, rec.calls[1], "High thread count: 60")
}

func TestCheckHealth_SampleError(t *testing.T) {
	m, _ := newTestMonitor(t, reading{err: errors.New("permission denied")})

	health := m.CheckHealth()
	assert.Equal(t, models.HealthError, health.Status)
	assert.Contains(t, health.Error, "permission denied")

	_, ok := m.Averages()
	assert.False(t, ok)
}

func TestAverages(t *testing.T) {
	m, _ := newTestMonitor(t,
		reading{cpu: 10, mem: 20, threads: 4},
		reading{cpu: 30, mem: 40, threads: 8},
	)
	_, ok := m.Averages()
	assert.False(t, ok, "no samples yet")

	for range 2 {
		_, err := m.Sample()
		require.NoError(t, err)
	}

	avg, ok := m.Averages()
	require.True(t, ok)
	assert.InDelta(t, 20.0, avg.AvgCPU, 1e-9)
	assert.InDelta(t, 30.0, avg.AvgMemory, 1e-9)
	assert.InDelta(t, 6.0, avg.AvgThreads, 1e-9)
	assert.Equal(t, 2, avg.SampleCount)
}

func TestLogMetrics(t *testing.T) {
	m, _ := newTestMonitor(t, reading{cpu: 85, mem: 10, threads: 3})

	var buf bytes.Buffer
	health := m.LogMetrics(slog.New(slog.NewTextHandler(&buf, nil)))
	assert.Equal(t, models.HealthWarning, health.Status)

	out := buf.String()
	assert.Contains(t, out, "performance metrics")
	assert.Contains(t, out, "cpu_percent=85.0")
	assert.Contains(t, out, "threads=3")
	assert.Equal(t, 1, strings.Count(out, "performance warning"))
}

func TestNew_ProcessSampler(t *testing.T) {
	m, err := New(WithNotifier(nil))
	if err != nil {
		t.Skipf("process metrics unavailable: %v", err)
	}

	got, err := m.Sample()
	if err != nil {
		t.Skipf("process metrics unavailable: %v", err)
	}
	assert.GreaterOrEqual(t, got.ThreadCount, 1)
	assert.GreaterOrEqual(t, got.MemoryPercent, 0.0)
}
