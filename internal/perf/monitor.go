// Package perf samples frame rate and memory use over one-second windows.
package perf

import (
	"context"
	"math"
	"runtime"
	"sync"
	"time"
)

const (
	// HistorySize is the number of FPS samples kept
	HistorySize = 60

	// SampleWindow is the minimum time between FPS samples
	SampleWindow = time.Second

	// InitialFPS is reported until the first window completes
	InitialFPS = 60
)

// MemoryReader returns the process memory in bytes, or ok=false when the
// platform cannot report it.
type MemoryReader func() (bytes uint64, ok bool)

// RuntimeMemory reports the Go heap in use
func RuntimeMemory() (uint64, bool) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.HeapAlloc, true
}

// Metrics is a snapshot of the monitor state
type Metrics struct {
	FPS             int           `json:"fps"`
	MemoryUsageMB   int           `json:"memoryUsage"`
	DataPointsCount int           `json:"dataPointsCount"`
	RenderTime      time.Duration `json:"renderTime"`
	LastUpdate      time.Time     `json:"lastUpdate"`
}

// RenderTimeMs returns the last render time in fractional milliseconds
func (m Metrics) RenderTimeMs() float64 {
	return float64(m.RenderTime) / float64(time.Millisecond)
}

// Monitor counts frames and turns them into FPS once per window
type Monitor struct {
	mu      sync.Mutex
	metrics Metrics
	history []int
	frames  int
	last    time.Time
	memory  MemoryReader
}

// NewMonitor creates a Monitor whose first window starts at now. A nil reader
// reports 0 memory.
func NewMonitor(now time.Time, memory MemoryReader) *Monitor {
	return &Monitor{
		metrics: Metrics{FPS: InitialFPS, LastUpdate: now},
		history: make([]int, 0, HistorySize),
		last:    now,
		memory:  memory,
	}
}

// Tick counts one frame at now. Once at least SampleWindow has passed since the
// last sample it computes FPS, records memory and starts a new window.
// It reports whether a sample was taken.
func (m *Monitor) Tick(now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.frames++
	delta := now.Sub(m.last)
	if delta < SampleWindow {
		return false
	}

	deltaMs := float64(delta) / float64(time.Millisecond)
	fps := int(math.Round(float64(m.frames) * 1000 / deltaMs))

	m.history = append(m.history, fps)
	if len(m.history) > HistorySize {
		m.history = append(m.history[:0], m.history[len(m.history)-HistorySize:]...)
	}

	m.metrics.FPS = fps
	m.metrics.MemoryUsageMB = m.readMemoryMB()
	m.metrics.LastUpdate = now

	m.frames = 0
	m.last = now
	return true
}

func (m *Monitor) readMemoryMB() int {
	if m.memory == nil {
		return 0
	}
	bytes, ok := m.memory()
	if !ok {
		return 0
	}
	return int(math.Round(float64(bytes) / (1 << 20)))
}

// SetDataPointsCount records the size of the displayed dataset
func (m *Monitor) SetDataPointsCount(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics.DataPointsCount = n
}

// SetRenderTime records the duration of the last draw
func (m *Monitor) SetRenderTime(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics.RenderTime = d
}

// Metrics returns the current metrics
func (m *Monitor) Metrics() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.metrics
}

// FPSHistory returns a copy of the FPS samples, oldest first
func (m *Monitor) FPSHistory() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.history...)
}

// Run ticks the monitor every interval until ctx is done. Hosts without their
// own paint loop use it to drive frame counting.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.Tick(now)
		}
	}
}
