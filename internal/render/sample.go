package render

import (
	"math"

	"github.com/aaronlmathis/vizstream/internal/timeseries"
)

const (
	// BarSampleBudget is the most bars drawn per frame
	BarSampleBudget = 50

	// DefaultDecimationBudget is the most points a line or scatter frame visits
	DefaultDecimationBudget = 2000

	// MinVisiblePoints is the smallest zoom window of the line chart
	MinVisiblePoints = 10
)

// SampleEvenly keeps every step-th point, step = floor(n/budget), and at most
// budget of them. Inputs at or under budget are returned unchanged.
func SampleEvenly(points []timeseries.DataPoint, budget int) []timeseries.DataPoint {
	if budget <= 0 || len(points) <= budget {
		return points
	}

	step := len(points) / budget
	out := make([]timeseries.DataPoint, 0, budget)
	for i := 0; i < len(points) && len(out) < budget; i += step {
		out = append(out, points[i])
	}
	return out
}

// Decimate picks at most budget evenly spaced points by index, always keeping
// the first and the most recent point.
func Decimate(points []timeseries.DataPoint, budget int) []timeseries.DataPoint {
	n := len(points)
	if budget <= 0 || n <= budget {
		return points
	}
	if budget == 1 {
		return points[n-1:]
	}

	out := make([]timeseries.DataPoint, budget)
	stride := float64(n-1) / float64(budget-1)
	for i := range out {
		out[i] = points[int(math.Round(float64(i)*stride))]
	}
	return out
}

// ZoomWindow returns the most recent max(floor(n/zoom), 10) points
func ZoomWindow(points []timeseries.DataPoint, zoom float64) []timeseries.DataPoint {
	if zoom < 1 {
		zoom = 1
	}
	visible := max(int(math.Floor(float64(len(points))/zoom)), MinVisiblePoints)
	start := max(0, len(points)-visible)
	return points[start:]
}
