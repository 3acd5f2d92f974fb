package timeseries

import (
	"math"
	"sort"
	"time"
)

// Settings selects how the raw window is turned into a display dataset
type Settings struct {
	Range       TimeRange         `json:"timeRange" yaml:"time_range"`
	Aggregation AggregationPeriod `json:"aggregation" yaml:"aggregation"`
}

// DefaultSettings returns the settings the dashboard starts with
func DefaultSettings() Settings {
	return Settings{Range: RangeAll, Aggregation: AggregateNone}
}

// Process filters points by time range and then aggregates them.
// The input slice is never modified.
func Process(points []DataPoint, settings Settings, now time.Time) []DataPoint {
	filtered := FilterByRange(points, settings.Range, now)
	return Aggregate(filtered, settings.Aggregation.Millis())
}

// FilterByRange keeps points with timestamp >= now - range. RangeAll returns
// the input unchanged.
func FilterByRange(points []DataPoint, r TimeRange, now time.Time) []DataPoint {
	d := r.Duration()
	if d <= 0 {
		return points
	}

	cutoff := now.UnixMilli() - d.Milliseconds()
	result := make([]DataPoint, 0, len(points))
	for _, p := range points {
		if p.Timestamp >= cutoff {
			result = append(result, p)
		}
	}
	return result
}

type bucket struct {
	sum      float64
	count    int
	category string
}

// Aggregate averages points into buckets of periodMs milliseconds.
// Each output point carries the bucket start as timestamp, the mean rounded
// to 2 decimals and the category of the first point seen in the bucket.
// Output is sorted by bucket timestamp. periodMs <= 0 returns the input unchanged.
func Aggregate(points []DataPoint, periodMs int64) []DataPoint {
	if periodMs <= 0 || len(points) == 0 {
		return points
	}

	buckets := make(map[int64]*bucket)
	for _, p := range points {
		key := BucketStart(p.Timestamp, periodMs)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{category: p.Category}
			buckets[key] = b
		}
		b.sum += p.Value
		b.count++
	}

	result := make([]DataPoint, 0, len(buckets))
	for ts, b := range buckets {
		result = append(result, DataPoint{
			Timestamp: ts,
			Value:     Round2(b.sum / float64(b.count)),
			Category:  b.category,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp < result[j].Timestamp
	})

	return result
}

// BucketStart returns floor(ts/period)*period, flooring towards negative infinity
func BucketStart(ts, periodMs int64) int64 {
	q := ts / periodMs
	if ts%periodMs != 0 && (ts < 0) != (periodMs < 0) {
		q--
	}
	return q * periodMs
}

// Round2 rounds to 2 decimal places, halves away from zero
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
