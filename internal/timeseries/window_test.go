package timeseries

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makePoints(from, to int) []DataPoint {
	points := make([]DataPoint, 0, to-from)
	for i := from; i < to; i++ {
		points = append(points, DataPoint{Timestamp: int64(i), Value: float64(i)})
	}
	return points
}

func TestWindow_AppendKeepsMostRecent(t *testing.T) {
	w := NewWindow(10)

	for i := 0; i < 37; i++ {
		w.Append(DataPoint{Timestamp: int64(i), Value: float64(i)})

		require.LessOrEqual(t, w.Len(), 10, "length exceeded capacity after append %d", i)

		expectedLen := min(i+1, 10)
		assert.Equal(t, makePoints(i+1-expectedLen, i+1), w.Snapshot())
	}

	stats := w.Stats().Snapshot()
	assert.Equal(t, int64(37), stats.Appended)
	assert.Equal(t, int64(27), stats.Evicted)
}

func TestWindow_AppendBatchEvictsOnce(t *testing.T) {
	w := NewWindow(5)
	w.AppendBatch(makePoints(0, 3))
	w.AppendBatch(makePoints(3, 12))

	assert.Equal(t, makePoints(7, 12), w.Snapshot())
	assert.Equal(t, int64(7), w.Stats().Snapshot().Evicted)
}

func TestWindow_ReplaceAll(t *testing.T) {
	w := NewWindow(4)
	w.AppendBatch(makePoints(100, 103))

	input := makePoints(0, 9)
	w.ReplaceAll(input)

	assert.Equal(t, input[len(input)-4:], w.Snapshot())

	// The window must not alias the caller's slice
	input[8].Value = -1
	assert.Equal(t, float64(8), w.Snapshot()[3].Value)

	w.ReplaceAll(makePoints(0, 2))
	assert.Equal(t, makePoints(0, 2), w.Snapshot())
}

func TestWindow_SnapshotIsACopy(t *testing.T) {
	w := NewWindow(3)
	w.AppendBatch(makePoints(0, 3))

	snap := w.Snapshot()
	snap[0].Value = 99

	assert.Equal(t, float64(0), w.Snapshot()[0].Value)
}

func TestWindow_VersionChangesOnEveryMutation(t *testing.T) {
	w := NewWindow(2)
	seen := map[uint64]bool{w.Version(): true}

	mutations := []func() uint64{
		func() uint64 { return w.Append(DataPoint{Timestamp: 1}) },
		func() uint64 { return w.Append(DataPoint{Timestamp: 2}) },
		func() uint64 { return w.Append(DataPoint{Timestamp: 3}) },
		func() uint64 { return w.ReplaceAll(makePoints(0, 1)) },
		func() uint64 { return w.Clear() },
	}

	for i, mutate := range mutations {
		v := mutate()
		assert.False(t, seen[v], "mutation %d reused version %d", i, v)
		assert.Equal(t, v, w.Version())
		seen[v] = true
	}

	assert.Equal(t, 0, w.Len())
}

func TestWindow_ZeroCapacity(t *testing.T) {
	w := NewWindow(-5)
	w.Append(DataPoint{Timestamp: 1})
	w.ReplaceAll(makePoints(0, 3))

	assert.Equal(t, 0, w.Cap())
	assert.Empty(t, w.Snapshot())
}

func TestWindow_ConcurrentAccess(t *testing.T) {
	w := NewWindow(100)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			w.Append(DataPoint{Timestamp: int64(i)})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			snap, _ := w.SnapshotWithVersion()
			assert.LessOrEqual(t, len(snap), 100)
		}
	}()
	wg.Wait()

	assert.Equal(t, makePoints(900, 1000)[99].Timestamp, w.Snapshot()[99].Timestamp)
}
