// Package virtual computes which rows of a long list intersect a scrolled
// viewport, so hosts only materialize those.
package virtual

// Default table parameters
const (
	DefaultItemHeight     = 48
	DefaultViewportHeight = 400
	DefaultOverscan       = 10
)

// Params describes the list and viewport. All lengths share one unit
// (pixels for a canvas host, terminal rows for the TUI).
type Params struct {
	ScrollOffset   int
	ItemHeight     int
	ViewportHeight int
	ItemCount      int
	Overscan       int
}

// Row is one materialized row and its offset from the top of the list
type Row struct {
	Index  int
	Offset int
}

// VisibleRange is the result of Compute. An empty range has Start 0 and End -1.
type VisibleRange struct {
	Start       int
	End         int
	Rows        []Row
	TotalHeight int
}

// Len returns the number of rows in the range
func (r VisibleRange) Len() int {
	return r.End - r.Start + 1
}

// Empty reports whether no rows are visible
func (r VisibleRange) Empty() bool {
	return r.End < r.Start
}

// Compute returns the rows that must be rendered for p. It keeps no state.
func Compute(p Params) VisibleRange {
	if p.ItemCount <= 0 || p.ItemHeight <= 0 {
		return VisibleRange{Start: 0, End: -1}
	}

	overscan := max(p.Overscan, 0)
	scroll := max(p.ScrollOffset, 0)

	start := max(0, scroll/p.ItemHeight-overscan)
	end := min(p.ItemCount-1, (scroll+max(p.ViewportHeight, 0))/p.ItemHeight+overscan)

	r := VisibleRange{
		Start:       start,
		End:         end,
		TotalHeight: p.ItemCount * p.ItemHeight,
	}
	if end < start {
		// Scrolled past the end of a list that shrank
		r.Start, r.End = 0, -1
		return r
	}

	r.Rows = make([]Row, 0, end-start+1)
	for i := start; i <= end; i++ {
		r.Rows = append(r.Rows, Row{Index: i, Offset: i * p.ItemHeight})
	}
	return r
}

// ScrollToIndex returns the scroll offset that puts row index at the top
func ScrollToIndex(index, itemHeight int) int {
	return max(index, 0) * itemHeight
}

// ClampScroll keeps offset within [0, total-viewport]
func ClampScroll(offset, itemCount, itemHeight, viewportHeight int) int {
	maxOffset := max(itemCount*itemHeight-viewportHeight, 0)
	return min(max(offset, 0), maxOffset)
}
