package timeseries

import "time"

// DataPoint represents a single observation on the dashboard
type DataPoint struct {
	Timestamp int64   `json:"timestamp"`          // Unix timestamp in milliseconds
	Value     float64 `json:"value"`              // Observed value
	Category  string  `json:"category,omitempty"` // Optional short label
}

// NewDataPoint creates a new DataPoint at the given time
func NewDataPoint(t time.Time, v float64, category string) DataPoint {
	return DataPoint{Timestamp: t.UnixMilli(), Value: v, Category: category}
}

// Time returns the timestamp as a time.Time
func (p DataPoint) Time() time.Time {
	return time.UnixMilli(p.Timestamp)
}

// IsZero returns true if the point is the zero value
func (p DataPoint) IsZero() bool {
	return p.Timestamp == 0 && p.Value == 0 && p.Category == ""
}
