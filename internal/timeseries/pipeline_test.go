package timeseries

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAggregate(t *testing.T) {
	tests := []struct {
		name     string
		input    []DataPoint
		period   int64
		expected []DataPoint
	}{
		{
			name:     "same bucket averages",
			input:    []DataPoint{{Timestamp: 0, Value: 10}, {Timestamp: 500, Value: 20}},
			period:   1000,
			expected: []DataPoint{{Timestamp: 0, Value: 15}},
		},
		{
			name: "sorted by bucket",
			input: []DataPoint{
				{Timestamp: 2500, Value: 1},
				{Timestamp: 100, Value: 3},
				{Timestamp: 1999, Value: 4},
				{Timestamp: 1000, Value: 6},
			},
			period: 1000,
			expected: []DataPoint{
				{Timestamp: 0, Value: 3},
				{Timestamp: 1000, Value: 5},
				{Timestamp: 2000, Value: 1},
			},
		},
		{
			name:     "rounds to two decimals",
			input:    []DataPoint{{Timestamp: 1, Value: 1}, {Timestamp: 2, Value: 1}, {Timestamp: 3, Value: 2}},
			period:   60000,
			expected: []DataPoint{{Timestamp: 0, Value: 1.33}},
		},
		{
			name:     "negative timestamps floor",
			input:    []DataPoint{{Timestamp: -1, Value: 4}, {Timestamp: -1000, Value: 2}},
			period:   1000,
			expected: []DataPoint{{Timestamp: -1000, Value: 3}},
		},
		{
			name: "first-seen category",
			input: []DataPoint{
				{Timestamp: 10, Value: 1, Category: "B"},
				{Timestamp: 20, Value: 1, Category: "A"},
			},
			period:   1000,
			expected: []DataPoint{{Timestamp: 0, Value: 1, Category: "B"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Aggregate(tt.input, tt.period))
		})
	}
}

func TestAggregate_DisabledIsIdentity(t *testing.T) {
	input := []DataPoint{{Timestamp: 5, Value: 1.234}, {Timestamp: 1, Value: 2, Category: "A"}}

	assert.Equal(t, input, Aggregate(input, 0))
	assert.Equal(t, input, Aggregate(input, AggregateNone.Millis()))
	assert.Empty(t, Aggregate(nil, 1000))
}

func TestFilterByRange(t *testing.T) {
	now := time.UnixMilli(100000)
	input := []DataPoint{
		{Timestamp: 0},
		{Timestamp: 39999},
		{Timestamp: 40000},
		{Timestamp: 99000},
	}

	filtered := FilterByRange(input, Range1Min, now)
	assert.Equal(t, []DataPoint{{Timestamp: 40000}, {Timestamp: 99000}}, filtered)

	assert.Equal(t, input, FilterByRange(input, RangeAll, now))
}

func TestProcess(t *testing.T) {
	now := time.UnixMilli(10 * 60 * 1000)
	input := []DataPoint{
		{Timestamp: 0, Value: 100},           // outside 5min
		{Timestamp: 6 * 60 * 1000, Value: 1}, // bucket 6min
		{Timestamp: 6*60*1000 + 30000, Value: 3},
		{Timestamp: 9 * 60 * 1000, Value: 7}, // bucket 9min
	}

	out := Process(input, Settings{Range: Range5Min, Aggregation: Aggregate1Min}, now)
	assert.Equal(t, []DataPoint{
		{Timestamp: 6 * 60 * 1000, Value: 2},
		{Timestamp: 9 * 60 * 1000, Value: 7},
	}, out)

	assert.Equal(t, input, Process(input, DefaultSettings(), now))
}

func TestBucketStart(t *testing.T) {
	assert.Equal(t, int64(0), BucketStart(999, 1000))
	assert.Equal(t, int64(1000), BucketStart(1000, 1000))
	assert.Equal(t, int64(-1000), BucketStart(-1, 1000))
	assert.Equal(t, int64(-2000), BucketStart(-1001, 1000))
}
