package timeseries

import "sync"

// Window is a capacity-bounded, append-only sequence of data points.
// Once capacity is exceeded the oldest entries are evicted in one batch.
type Window struct {
	mu       sync.RWMutex
	capacity int
	stats    *IngestStats

	// Live points are buf[head:]. Evicted entries stay in front of head
	// until the next compaction.
	buf     []DataPoint
	head    int
	version uint64
}

// NewWindow creates a new Window holding at most capacity points
func NewWindow(capacity int) *Window {
	return NewWindowWithStats(capacity, NewIngestStats())
}

// NewWindowWithStats creates a new Window that reports to the given stats tracker
func NewWindowWithStats(capacity int, stats *IngestStats) *Window {
	if capacity < 0 {
		capacity = 0
	}
	if stats == nil {
		stats = NewIngestStats()
	}
	return &Window{
		capacity: capacity,
		stats:    stats,
	}
}

// Append adds one point, evicting the oldest excess entries if needed
func (w *Window) Append(p DataPoint) uint64 {
	return w.AppendBatch([]DataPoint{p})
}

// AppendBatch adds points in order and evicts the oldest excess entries once
func (w *Window) AppendBatch(points []DataPoint) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(points) == 0 {
		return w.version
	}

	w.buf = append(w.buf, points...)
	w.stats.RecordAppended(len(points))

	if excess := w.lenLocked() - w.capacity; excess > 0 {
		w.head += excess
		w.stats.RecordEvicted(excess)
		w.compactLocked()
	}

	w.version++
	return w.version
}

// compactLocked moves live points to the front once the dead prefix is at
// least as long as the live part, keeping eviction O(1) amortized.
func (w *Window) compactLocked() {
	if w.head < w.lenLocked() {
		return
	}

	n := copy(w.buf, w.buf[w.head:])
	clear(w.buf[n:])
	w.buf = w.buf[:n]
	w.head = 0
}

// ReplaceAll discards the current contents and installs the most recent
// capacity entries of points.
func (w *Window) ReplaceAll(points []DataPoint) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(points) > w.capacity {
		points = points[len(points)-w.capacity:]
	}

	w.buf = append(make([]DataPoint, 0, len(points)), points...)
	w.head = 0
	w.stats.RecordReplaced()

	w.version++
	return w.version
}

// Clear removes all points
func (w *Window) Clear() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = nil
	w.head = 0

	w.version++
	return w.version
}

// Snapshot returns a copy of the current contents in arrival order
func (w *Window) Snapshot() []DataPoint {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]DataPoint, w.lenLocked())
	copy(out, w.buf[w.head:])
	return out
}

// SnapshotWithVersion returns a copy of the contents and the version it reflects
func (w *Window) SnapshotWithVersion() ([]DataPoint, uint64) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]DataPoint, w.lenLocked())
	copy(out, w.buf[w.head:])
	return out, w.version
}

// Version returns a counter that changes on every mutation
func (w *Window) Version() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.version
}

// Len returns the number of live points
func (w *Window) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lenLocked()
}

func (w *Window) lenLocked() int {
	return len(w.buf) - w.head
}

// Cap returns the configured capacity
func (w *Window) Cap() int {
	return w.capacity
}

// Stats returns the stats tracker fed by this window
func (w *Window) Stats() *IngestStats {
	return w.stats
}
