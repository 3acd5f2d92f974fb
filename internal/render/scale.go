package render

import "github.com/aaronlmathis/vizstream/internal/timeseries"

// Domain is a value range mapped onto a chart axis
type Domain struct {
	Min float64
	Max float64
}

// Span returns Max - Min
func (d Domain) Span() float64 {
	return d.Max - d.Min
}

// ValueDomain returns the value range of points padded by 10% on each side.
// Empty input yields 0..100; a flat series is widened by 1 on each side.
func ValueDomain(points []timeseries.DataPoint) Domain {
	if len(points) == 0 {
		return Domain{Min: 0, Max: 100}
	}

	lo, hi := points[0].Value, points[0].Value
	for _, p := range points[1:] {
		lo = min(lo, p.Value)
		hi = max(hi, p.Value)
	}

	if lo == hi {
		return Domain{Min: lo - 1, Max: hi + 1}
	}

	padding := (hi - lo) * 0.1
	return Domain{Min: lo - padding, Max: hi + padding}
}

// TimeDomain returns the timestamp range of points. A single instant spans 1ms.
func TimeDomain(points []timeseries.DataPoint) Domain {
	if len(points) == 0 {
		return Domain{Min: 0, Max: 1}
	}

	lo, hi := points[0].Timestamp, points[0].Timestamp
	for _, p := range points[1:] {
		lo = min(lo, p.Timestamp)
		hi = max(hi, p.Timestamp)
	}
	if lo == hi {
		hi = lo + 1
	}
	return Domain{Min: float64(lo), Max: float64(hi)}
}

// Plot is the drawable area of a chart inside its margins
type Plot struct {
	Left, Top, Width, Height float64
}

// Bottom returns the y coordinate of the x axis
func (p Plot) Bottom() float64 { return p.Top + p.Height }

// Right returns the x coordinate of the right edge
func (p Plot) Right() float64 { return p.Left + p.Width }

// ScaleY maps a value to a y coordinate, larger values higher up
func (p Plot) ScaleY(v float64, d Domain) float64 {
	span := d.Span()
	if span == 0 {
		return p.Bottom()
	}
	return p.Bottom() - (v-d.Min)/span*p.Height
}

// ScaleX maps a value to an x coordinate
func (p Plot) ScaleX(v float64, d Domain) float64 {
	span := d.Span()
	if span == 0 {
		return p.Left
	}
	return p.Left + (v-d.Min)/span*p.Width
}
