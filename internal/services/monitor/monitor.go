// Package monitor samples the application's own CPU, memory and thread usage
// and checks it against fixed thresholds.
package monitor

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/j-veylop/aichat/internal/logger"
	"github.com/j-veylop/aichat/internal/models"
)

// HistorySize is the number of samples kept for averages.
const HistorySize = 1000

// Thresholds above which a metric is reported as a warning.
type Thresholds struct {
	CPUPercent    float64
	MemoryPercent float64
	ThreadCount   int
}

// DefaultThresholds returns the standard limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CPUPercent:    80,
		MemoryPercent: 75,
		ThreadCount:   50,
	}
}

// Sampler reads raw resource usage.
type Sampler interface {
	Sample() (cpuPercent, memoryPercent float64, threads int, err error)
}

// Notifier shows a desktop notification.
type Notifier func(title, body string) error

// Monitor is safe for concurrent use.
type Monitor struct {
	mu         sync.Mutex
	sampler    Sampler
	notify     Notifier
	log        *slog.Logger
	now        func() time.Time
	thresholds Thresholds
	startedAt  time.Time
	history    []models.Metrics
	lastStatus models.HealthStatus
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithSampler replaces the process sampler.
func WithSampler(s Sampler) Option {
	return func(m *Monitor) { m.sampler = s }
}

// WithNotifier replaces desktop notifications. Nil disables them.
func WithNotifier(n Notifier) Option {
	return func(m *Monitor) { m.notify = n }
}

// WithThresholds overrides DefaultThresholds.
func WithThresholds(t Thresholds) Option {
	return func(m *Monitor) { m.thresholds = t }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Monitor) { m.log = logger.OrDiscard(log) }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// New creates a monitor for the current process.
func New(opts ...Option) (*Monitor, error) {
	m := &Monitor{
		notify:     beeepNotify,
		log:        logger.Discard(),
		now:        time.Now,
		thresholds: DefaultThresholds(),
		lastStatus: models.HealthOK,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.sampler == nil {
		s, err := newProcessSampler()
		if err != nil {
			return nil, err
		}
		m.sampler = s
	}
	m.startedAt = m.now()
	return m, nil
}

func beeepNotify(title, body string) error {
	return beeep.Notify(title, body, "")
}

// Sample takes one reading and adds it to the history.
func (m *Monitor) Sample() (models.Metrics, error) {
	cpu, mem, threads, err := m.sampler.Sample()
	if err != nil {
		return models.Metrics{}, fmt.Errorf("failed to sample process metrics: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	metrics := models.Metrics{
		Timestamp:     now,
		CPUPercent:    cpu,
		MemoryPercent: mem,
		ThreadCount:   threads,
		Uptime:        now.Sub(m.startedAt),
	}
	m.history = append(m.history, metrics)
	if len(m.history) > HistorySize {
		m.history = m.history[len(m.history)-HistorySize:]
	}
	return metrics, nil
}

// Evaluate checks metrics against the thresholds.
func (m *Monitor) Evaluate(metrics models.Metrics) models.Health {
	health := models.Health{
		Timestamp: metrics.Timestamp,
		Status:    models.HealthOK,
	}
	if metrics.CPUPercent > m.thresholds.CPUPercent {
		health.Warnings = append(health.Warnings, fmt.Sprintf("High CPU usage: %.1f%%", metrics.CPUPercent))
	}
	if metrics.MemoryPercent > m.thresholds.MemoryPercent {
		health.Warnings = append(health.Warnings, fmt.Sprintf("High memory usage: %.1f%%", metrics.MemoryPercent))
	}
	if metrics.ThreadCount > m.thresholds.ThreadCount {
		health.Warnings = append(health.Warnings, fmt.Sprintf("High thread count: %d", metrics.ThreadCount))
	}
	if len(health.Warnings) > 0 {
		health.Status = models.HealthWarning
	}
	return health
}

// CheckHealth takes a fresh sample and evaluates it. Entering the warning
// state raises one desktop notification; staying there raises none.
func (m *Monitor) CheckHealth() models.Health {
	metrics, err := m.Sample()
	if err != nil {
		return models.Health{Timestamp: m.now(), Status: models.HealthError, Error: err.Error()}
	}
	health := m.Evaluate(metrics)
	m.transition(health)
	return health
}

func (m *Monitor) transition(health models.Health) {
	m.mu.Lock()
	entered := health.Status == models.HealthWarning && m.lastStatus != models.HealthWarning
	m.lastStatus = health.Status
	notify := m.notify
	m.mu.Unlock()

	if entered && notify != nil {
		if err := notify("aichat: performance warning", strings.Join(health.Warnings, "\n")); err != nil {
			m.log.Debug("failed to send notification", "error", err)
		}
	}
}

// Averages returns means over the retained history. ok is false when there
// are no samples yet.
func (m *Monitor) Averages() (avg models.AverageMetrics, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.history)
	if n == 0 {
		return models.AverageMetrics{}, false
	}
	for _, s := range m.history {
		avg.AvgCPU += s.CPUPercent
		avg.AvgMemory += s.MemoryPercent
		avg.AvgThreads += float64(s.ThreadCount)
	}
	avg.AvgCPU /= float64(n)
	avg.AvgMemory /= float64(n)
	avg.AvgThreads /= float64(n)
	avg.SampleCount = n
	return avg, true
}

// LogMetrics samples once, logs the reading plus any warnings and returns
// the health of that sample.
func (m *Monitor) LogMetrics(log *slog.Logger) models.Health {
	log = logger.OrDiscard(log)

	metrics, err := m.Sample()
	if err != nil {
		log.Error("failed to collect performance metrics", "error", err)
		return models.Health{Timestamp: m.now(), Status: models.HealthError, Error: err.Error()}
	}
	log.Info("performance metrics",
		"cpu_percent", fmt.Sprintf("%.1f", metrics.CPUPercent),
		"memory_percent", fmt.Sprintf("%.1f", metrics.MemoryPercent),
		"threads", metrics.ThreadCount,
		"uptime", metrics.Uptime.Truncate(time.Second),
	)

	health := m.Evaluate(metrics)
	m.transition(health)
	for _, w := range health.Warnings {
		log.Warn("performance warning", "warning", w)
	}
	return health
}

type processSampler struct {
	proc *process.Process
}

func newProcessSampler() (*processSampler, error) {
	proc, err := process.NewProcess(int32(os.Getpid())) //nolint:gosec // pid fits in int32
	if err != nil {
		return nil, fmt.Errorf("failed to open process: %w", err)
	}
	// Prime the CPU counter so the next reading covers a real interval.
	_, _ = proc.Percent(0)
	return &processSampler{proc: proc}, nil
}

func (s *processSampler) Sample() (cpuPercent, memoryPercent float64, threads int, err error) {
	cpuPercent, err = s.proc.Percent(0)
	if err != nil {
		return 0, 0, 0, err
	}
	mem, err := s.proc.MemoryPercent()
	if err != nil {
		return 0, 0, 0, err
	}
	n, err := s.proc.NumThreads()
	if err != nil {
		return 0, 0, 0, err
	}
	return cpuPercent, float64(mem), int(n), nil
}
