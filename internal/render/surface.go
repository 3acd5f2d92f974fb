// Package render draws chart frames onto an abstract drawing surface and
// coalesces redraw requests to at most one per frame interval.
package render

import (
	"fmt"
	"math"
)

// Color is a "#rrggbb" hex string
type Color string

// Align is the horizontal anchor of a text label
type Align int

const (
	AlignLeft Align = iota
	AlignRight
	AlignCenter
)

// Surface is a drawing target in logical coordinates. The origin is the top
// left corner; Reset fixes the logical resolution for the next frame.
type Surface interface {
	Reset(width, height int, pixelRatio float64)
	Clear(bg Color)
	FillRect(x, y, w, h float64, c Color)
	Line(x1, y1, x2, y2 float64, c Color)
	Circle(x, y, r float64, c Color)
	Text(x, y float64, s string, c Color, align Align)
}

// HSL converts hue (degrees), saturation and lightness (percent) to a Color
func HSL(h, s, l float64) Color {
	s /= 100
	l /= 100

	c := (1 - math.Abs(2*l-1)) * s
	hp := math.Mod(h, 360) / 60
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))

	var r, g, b float64
	switch {
	case hp < 1:
		r, g = c, x
	case hp < 2:
		r, g = x, c
	case hp < 3:
		g, b = c, x
	case hp < 4:
		g, b = x, c
	case hp < 5:
		r, b = x, c
	default:
		r, b = c, x
	}

	m := l - c/2
	return RGB(
		uint8(math.Round((r+m)*255)),
		uint8(math.Round((g+m)*255)),
		uint8(math.Round((b+m)*255)),
	)
}

// RGB builds a Color from its components
func RGB(r, g, b uint8) Color {
	return Color(fmt.Sprintf("#%02x%02x%02x", r, g, b))
}
