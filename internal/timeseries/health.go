package timeseries

import (
	"sync"
	"sync/atomic"
	"time"
)

// IngestStats tracks how points flow through a Window
type IngestStats struct {
	mu sync.Mutex

	// Counters
	appended atomic.Int64 // Points appended (lifetime)
	evicted  atomic.Int64 // Points evicted by the capacity bound
	replaced atomic.Int64 // Bulk replacements
	dropped  atomic.Int64 // Inbound messages rejected before reaching the window

	// Rate tracking
	lastResetTime    time.Time
	pointsThisSecond int64
	pointsPerSec     int64
}

// NewIngestStats creates a new stats tracker
func NewIngestStats() *IngestStats {
	return &IngestStats{lastResetTime: time.Now()}
}

// RecordAppended records points appended to the window
func (s *IngestStats) RecordAppended(n int) {
	s.appended.Add(int64(n))

	s.mu.Lock()
	s.pointsThisSecond += int64(n)
	s.rollLocked(time.Now())
	s.mu.Unlock()
}

// RecordEvicted records points evicted in one batch
func (s *IngestStats) RecordEvicted(n int) {
	s.evicted.Add(int64(n))
}

// RecordReplaced records a bulk replacement
func (s *IngestStats) RecordReplaced() {
	s.replaced.Add(1)
}

// RecordDropped records an inbound message that could not be used
func (s *IngestStats) RecordDropped() {
	s.dropped.Add(1)
}

func (s *IngestStats) rollLocked(now time.Time) {
	if now.Sub(s.lastResetTime) >= time.Second {
		s.pointsPerSec = s.pointsThisSecond
		s.pointsThisSecond = 0
		s.lastResetTime = now
	}
}

// Snapshot returns a point-in-time copy of the counters
func (s *IngestStats) Snapshot() IngestSnapshot {
	s.mu.Lock()
	s.rollLocked(time.Now())
	perSec := s.pointsPerSec
	s.mu.Unlock()

	return IngestSnapshot{
		Appended:     s.appended.Load(),
		Evicted:      s.evicted.Load(),
		Replaced:     s.replaced.Load(),
		Dropped:      s.dropped.Load(),
		PointsPerSec: perSec,
		Timestamp:    time.Now(),
	}
}

// IngestSnapshot represents a point-in-time snapshot of ingest counters
type IngestSnapshot struct {
	Appended     int64     `json:"appended"`
	Evicted      int64     `json:"evicted"`
	Replaced     int64     `json:"replaced"`
	Dropped      int64     `json:"dropped"`
	PointsPerSec int64     `json:"points_per_sec"`
	Timestamp    time.Time `json:"timestamp"`
}

// IsHealthy reports whether fewer than 10% of inbound messages were dropped
func (s IngestSnapshot) IsHealthy() bool {
	total := s.Appended + s.Dropped
	if total == 0 {
		return true
	}
	return float64(s.Dropped)/float64(total) <= 0.1
}

// GetStatus returns a human-readable status string
func (s IngestSnapshot) GetStatus() string {
	if s.IsHealthy() {
		return "healthy"
	}
	return "warning: high drop rate"
}
