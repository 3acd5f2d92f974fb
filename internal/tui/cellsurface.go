package tui

import (
	"math"
	"strings"

	styles "github.com/charmbracelet/lipgloss"

	"github.com/aaronlmathis/vizstream/internal/render"
)

const (
	glyphHorizontal = '─'
	glyphVertical   = '│'
	glyphPoint      = '•'
	glyphDot        = '●'
)

type cell struct {
	r  rune
	fg render.Color
	bg render.Color
}

// CellSurface rasterizes chart drawing calls onto a character grid. Logical
// coordinates set by Reset are scaled to the grid size set by Resize.
type CellSurface struct {
	cols, rows    int
	width, height float64
	cells         []cell
}

// NewCellSurface creates a surface of cols x rows cells
func NewCellSurface(cols, rows int) *CellSurface {
	s := &CellSurface{}
	s.Resize(cols, rows)
	return s
}

// Resize changes the grid size and blanks it
func (s *CellSurface) Resize(cols, rows int) {
	s.cols, s.rows = max(cols, 0), max(rows, 0)
	s.cells = make([]cell, s.cols*s.rows)
	s.blank("")
}

// Size returns the grid size in cells
func (s *CellSurface) Size() (cols, rows int) {
	return s.cols, s.rows
}

func (s *CellSurface) Reset(width, height int, _ float64) {
	s.width, s.height = float64(max(width, 1)), float64(max(height, 1))
	s.blank("")
}

func (s *CellSurface) Clear(bg render.Color) {
	s.blank(bg)
}

func (s *CellSurface) blank(bg render.Color) {
	for i := range s.cells {
		s.cells[i] = cell{r: ' ', bg: bg}
	}
}

func (s *CellSurface) FillRect(x, y, w, h float64, c render.Color) {
	if w <= 0 || h <= 0 {
		return
	}
	c0, r0 := s.toCell(x, y)
	c1 := s.ceilCol(x+w) - 1
	r1 := s.ceilRow(y+h) - 1

	for row := r0; row <= max(r1, r0); row++ {
		for col := c0; col <= max(c1, c0); col++ {
			if p := s.at(col, row); p != nil {
				*p = cell{r: ' ', bg: c}
			}
		}
	}
}

func (s *CellSurface) Line(x1, y1, x2, y2 float64, c render.Color) {
	c0, r0 := s.toCell(x1, y1)
	c1, r1 := s.toCell(x2, y2)

	glyph := glyphPoint
	switch {
	case r0 == r1 && c0 != c1:
		glyph = glyphHorizontal
	case c0 == c1 && r0 != r1:
		glyph = glyphVertical
	}

	// Bresenham over cells
	dc, dr := abs(c1-c0), -abs(r1-r0)
	sc, sr := sign(c1-c0), sign(r1-r0)
	e := dc + dr
	for {
		s.plot(c0, r0, glyph, c)
		if c0 == c1 && r0 == r1 {
			return
		}
		e2 := 2 * e
		if e2 >= dr {
			e += dr
			c0 += sc
		}
		if e2 <= dc {
			e += dc
			r0 += sr
		}
	}
}

func (s *CellSurface) Circle(x, y, _ float64, c render.Color) {
	col, row := s.toCell(x, y)
	s.plot(col, row, glyphDot, c)
}

func (s *CellSurface) Text(x, y float64, text string, c render.Color, align render.Align) {
	col, row := s.toCell(x, y)
	runes := []rune(text)

	switch align {
	case render.AlignRight:
		col -= len(runes) - 1
	case render.AlignCenter:
		col -= len(runes) / 2
	}

	for i, r := range runes {
		s.plot(col+i, row, r, c)
	}
}

func (s *CellSurface) plot(col, row int, r rune, fg render.Color) {
	if p := s.at(col, row); p != nil {
		p.r = r
		p.fg = fg
	}
}

func (s *CellSurface) at(col, row int) *cell {
	if col < 0 || row < 0 || col >= s.cols || row >= s.rows {
		return nil
	}
	return &s.cells[row*s.cols+col]
}

func (s *CellSurface) toCell(x, y float64) (int, int) {
	col := int(math.Floor(x / s.scaleX()))
	row := int(math.Floor(y / s.scaleY()))
	return min(max(col, 0), s.cols-1), min(max(row, 0), s.rows-1)
}

func (s *CellSurface) ceilCol(x float64) int {
	return min(int(math.Ceil(x/s.scaleX())), s.cols)
}

func (s *CellSurface) ceilRow(y float64) int {
	return min(int(math.Ceil(y/s.scaleY())), s.rows)
}

func (s *CellSurface) scaleX() float64 {
	if s.cols == 0 || s.width == 0 {
		return 1
	}
	return s.width / float64(s.cols)
}

func (s *CellSurface) scaleY() float64 {
	if s.rows == 0 || s.height == 0 {
		return 1
	}
	return s.height / float64(s.rows)
}

// Rune returns the glyph at a cell, or 0 outside the grid
func (s *CellSurface) Rune(col, row int) rune {
	if p := s.at(col, row); p != nil {
		return p.r
	}
	return 0
}

// Background returns the fill colour at a cell
func (s *CellSurface) Background(col, row int) render.Color {
	if p := s.at(col, row); p != nil {
		return p.bg
	}
	return ""
}

// Plain returns the grid without colours, one line per row
func (s *CellSurface) Plain() string {
	var sb strings.Builder
	sb.Grow((s.cols + 1) * s.rows)
	for row := 0; row < s.rows; row++ {
		if row > 0 {
			sb.WriteByte('\n')
		}
		for col := 0; col < s.cols; col++ {
			sb.WriteRune(s.cells[row*s.cols+col].r)
		}
	}
	return sb.String()
}

// String renders the grid with lipgloss, one style per run of equal colours
func (s *CellSurface) String() string {
	var sb strings.Builder
	var run strings.Builder

	for row := 0; row < s.rows; row++ {
		if row > 0 {
			sb.WriteByte('\n')
		}

		var cur cell
		flush := func() {
			if run.Len() == 0 {
				return
			}
			sb.WriteString(cellStyle(cur.fg, cur.bg).Render(run.String()))
			run.Reset()
		}

		for col := 0; col < s.cols; col++ {
			c := s.cells[row*s.cols+col]
			if col > 0 && (c.fg != cur.fg || c.bg != cur.bg) {
				flush()
			}
			cur = c
			run.WriteRune(c.r)
		}
		flush()
	}
	return sb.String()
}

func cellStyle(fg, bg render.Color) styles.Style {
	st := styles.NewStyle()
	if fg != "" {
		st = st.Foreground(styles.Color(string(fg)))
	}
	if bg != "" {
		st = st.Background(styles.Color(string(bg)))
	}
	return st
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
