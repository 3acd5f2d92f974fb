package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/vizstream/internal/render"
	"github.com/aaronlmathis/vizstream/internal/timeseries"
)

// newSurface returns a 10x5 grid where each cell covers 10x10 logical units
func newSurface() *CellSurface {
	s := NewCellSurface(10, 5)
	s.Reset(100, 50, 1)
	return s
}

func TestCellSurface_Lines(t *testing.T) {
	s := newSurface()

	s.Line(0, 25, 99, 25, "#000000")
	for col := 0; col < 10; col++ {
		assert.Equal(t, glyphHorizontal, s.Rune(col, 2), "col %d", col)
	}

	s.Line(55, 0, 55, 49, "#000000")
	for _, row := range []int{0, 1, 3, 4} {
		assert.Equal(t, glyphVertical, s.Rune(5, row), "row %d", row)
	}

	s.Clear("")
	s.Line(0, 0, 99, 49, "#000000")
	assert.Equal(t, glyphPoint, s.Rune(0, 0))
	assert.Equal(t, glyphPoint, s.Rune(9, 4))
}

func TestCellSurface_OutOfRangeIsClamped(t *testing.T) {
	s := newSurface()

	s.Line(-50, -50, 500, -50, "#000000")
	assert.Equal(t, glyphHorizontal, s.Rune(0, 0))
	assert.Equal(t, rune(0), s.Rune(10, 0))
	assert.Equal(t, rune(0), s.Rune(-1, 0))
}

func TestCellSurface_Text(t *testing.T) {
	s := newSurface()

	s.Text(0, 0, "abc", "#000000", render.AlignLeft)
	s.Text(99, 10, "abc", "#000000", render.AlignRight)
	s.Text(50, 20, "abc", "#000000", render.AlignCenter)

	lines := strings.Split(s.Plain(), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "abc       ", lines[0])
	assert.Equal(t, "       abc", lines[1])
	assert.Equal(t, "    abc   ", lines[2])
}

func TestCellSurface_FillRectAndClear(t *testing.T) {
	s := newSurface()

	s.FillRect(0, 0, 20, 10, "#ff0000")
	assert.Equal(t, render.Color("#ff0000"), s.Background(0, 0))
	assert.Equal(t, render.Color("#ff0000"), s.Background(1, 0))
	assert.Equal(t, render.Color(""), s.Background(2, 0))
	assert.Equal(t, render.Color(""), s.Background(0, 1))

	s.FillRect(0, 0, 0, 10, "#00ff00")
	assert.Equal(t, render.Color("#ff0000"), s.Background(0, 0), "empty rect draws nothing")

	s.Text(0, 0, "x", "#000000", render.AlignLeft)
	s.Clear("#ffffff")
	assert.Equal(t, ' ', s.Rune(0, 0))
	assert.Equal(t, render.Color("#ffffff"), s.Background(9, 4))
}

func TestCellSurface_Resize(t *testing.T) {
	s := newSurface()
	s.Resize(4, 2)

	cols, rows := s.Size()
	assert.Equal(t, 4, cols)
	assert.Equal(t, 2, rows)
	assert.Equal(t, "    \n    ", s.Plain())
	assert.Contains(t, s.String(), "    ")
}

func TestCellSurface_WithRenderer(t *testing.T) {
	points := make([]timeseries.DataPoint, 200)
	base := time.Unix(1700000000, 0)
	for i := range points {
		points[i] = timeseries.NewDataPoint(base.Add(time.Duration(i)*time.Second), float64(i%17), "A")
	}

	s := NewCellSurface(80, 20)
	r := render.NewRenderer()

	for _, kind := range render.ChartKinds() {
		stats := r.Draw(s, kind, points, render.DarkTheme(), render.DefaultViewport())
		assert.Equal(t, len(points), stats.Points, string(kind))
		assert.Positive(t, stats.Drawn, string(kind))
		if kind != render.ChartHeatmap {
			assert.NotEmpty(t, strings.TrimSpace(s.Plain()), string(kind))
		}
	}
}
