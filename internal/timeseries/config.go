package timeseries

import (
	"fmt"
	"time"
)

// TimeRange selects how far back the dashboard looks
type TimeRange string

const (
	Range1Min  TimeRange = "1min"
	Range5Min  TimeRange = "5min"
	Range1Hour TimeRange = "1hour"
	RangeAll   TimeRange = "all"
)

// AggregationPeriod selects the bucket width used to average points
type AggregationPeriod string

const (
	AggregateNone  AggregationPeriod = "none"
	Aggregate1Min  AggregationPeriod = "1min"
	Aggregate5Min  AggregationPeriod = "5min"
	Aggregate1Hour AggregationPeriod = "1hour"
)

const (
	// DefaultCapacity is the default number of points kept in a Window
	DefaultCapacity = 50000

	// MinRequestCount and MaxRequestCount bound bulk dataset requests
	MinRequestCount = 100
	MaxRequestCount = 100000
)

// TimeRanges lists the supported ranges in display order
func TimeRanges() []TimeRange {
	return []TimeRange{Range1Min, Range5Min, Range1Hour, RangeAll}
}

// AggregationPeriods lists the supported periods in display order
func AggregationPeriods() []AggregationPeriod {
	return []AggregationPeriod{AggregateNone, Aggregate1Min, Aggregate5Min, Aggregate1Hour}
}

// Duration returns the look-back duration, or 0 for RangeAll
func (r TimeRange) Duration() time.Duration {
	switch r {
	case Range1Min:
		return time.Minute
	case Range5Min:
		return 5 * time.Minute
	case Range1Hour:
		return time.Hour
	default:
		return 0
	}
}

// ParseTimeRange validates a time range tag
func ParseTimeRange(s string) (TimeRange, error) {
	for _, r := range TimeRanges() {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown time range %q", s)
}

// Millis returns the bucket width in milliseconds. Unknown periods disable aggregation.
func (p AggregationPeriod) Millis() int64 {
	switch p {
	case Aggregate1Min:
		return int64(time.Minute / time.Millisecond)
	case Aggregate5Min:
		return int64(5 * time.Minute / time.Millisecond)
	case Aggregate1Hour:
		return int64(time.Hour / time.Millisecond)
	default:
		return 0
	}
}

// ParseAggregationPeriod validates an aggregation period tag
func ParseAggregationPeriod(s string) (AggregationPeriod, error) {
	for _, p := range AggregationPeriods() {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown aggregation period %q", s)
}

// Next returns the following range, wrapping around
func (r TimeRange) Next() TimeRange {
	ranges := TimeRanges()
	for i, candidate := range ranges {
		if candidate == r {
			return ranges[(i+1)%len(ranges)]
		}
	}
	return RangeAll
}

// Next returns the following period, wrapping around
func (p AggregationPeriod) Next() AggregationPeriod {
	periods := AggregationPeriods()
	for i, candidate := range periods {
		if candidate == p {
			return periods[(i+1)%len(periods)]
		}
	}
	return AggregateNone
}
