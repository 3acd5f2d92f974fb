package render

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/aaronlmathis/vizstream/internal/timeseries"
)

// ChartKind selects the chart body drawn by the Renderer
type ChartKind string

const (
	ChartLine    ChartKind = "line"
	ChartBar     ChartKind = "bar"
	ChartScatter ChartKind = "scatter"
	ChartHeatmap ChartKind = "heatmap"
)

// ChartKinds lists all chart kinds in display order
func ChartKinds() []ChartKind {
	return []ChartKind{ChartLine, ChartBar, ChartScatter, ChartHeatmap}
}

// ParseChartKind validates a chart kind name
func ParseChartKind(s string) (ChartKind, error) {
	for _, k := range ChartKinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown chart kind %q", s)
}

const (
	gridColumns = 10
	gridRows    = 8
	yTicks      = 5
	heatCells   = 20
	heatSteps   = 20
	pointRadius = 3
	barGapRatio = 0.2
)

// Margin is the space around the plot area
type Margin struct {
	Top, Right, Bottom, Left float64
}

// ChartConfig is the logical layout of one chart
type ChartConfig struct {
	Width    int
	Height   int
	Margin   Margin
	ShowGrid bool
	ShowAxes bool
}

// DefaultChartConfig returns the layout used for kind
func DefaultChartConfig(kind ChartKind) ChartConfig {
	cfg := ChartConfig{
		Width:    800,
		Height:   400,
		Margin:   Margin{Top: 20, Right: 20, Bottom: 40, Left: 60},
		ShowGrid: true,
		ShowAxes: true,
	}

	switch kind {
	case ChartScatter:
		cfg.Height = 800
	case ChartHeatmap:
		cfg.Height = 800
		cfg.Margin.Right = 80
		cfg.ShowGrid = false
		cfg.ShowAxes = false
	}
	return cfg
}

// Plot returns the drawable area inside the margins
func (c ChartConfig) Plot() Plot {
	return Plot{
		Left:   c.Margin.Left,
		Top:    c.Margin.Top,
		Width:  max(float64(c.Width)-c.Margin.Left-c.Margin.Right, 0),
		Height: max(float64(c.Height)-c.Margin.Top-c.Margin.Bottom, 0),
	}
}

// RenderStats describes one completed draw
type RenderStats struct {
	Kind     ChartKind
	Points   int // points in the display dataset
	Drawn    int // points the chart body visited
	Duration time.Duration
}

// Renderer draws charts onto surfaces
type Renderer struct {
	// Configs overrides the layout per chart kind
	Configs map[ChartKind]ChartConfig

	PixelRatio       float64
	DecimationBudget int

	// OnRenderComplete is called after every draw
	OnRenderComplete func(RenderStats)

	now func() time.Time
}

// NewRenderer creates a Renderer with the default layouts
func NewRenderer() *Renderer {
	configs := make(map[ChartKind]ChartConfig)
	for _, kind := range ChartKinds() {
		configs[kind] = DefaultChartConfig(kind)
	}
	return &Renderer{
		Configs:          configs,
		PixelRatio:       1,
		DecimationBudget: DefaultDecimationBudget,
		now:              time.Now,
	}
}

// Config returns the layout used for kind
func (r *Renderer) Config(kind ChartKind) ChartConfig {
	if cfg, ok := r.Configs[kind]; ok {
		return cfg
	}
	return DefaultChartConfig(kind)
}

// Draw renders one frame of data. Work in the chart body is bounded by the
// sample and decimation budgets, not by len(data).
func (r *Renderer) Draw(s Surface, kind ChartKind, data []timeseries.DataPoint, theme Theme, vp ViewportState) RenderStats {
	start := r.now()
	cfg := r.Config(kind)

	s.Reset(cfg.Width, cfg.Height, r.PixelRatio)
	s.Clear(theme.Background)

	if cfg.ShowGrid {
		drawGrid(s, cfg, theme)
	}
	if cfg.ShowAxes {
		drawAxes(s, cfg, theme)
	}

	var drawn int
	switch kind {
	case ChartBar:
		drawn = r.drawBars(s, cfg, data, theme)
	case ChartScatter:
		drawn = r.drawScatter(s, cfg, data, theme)
	case ChartHeatmap:
		drawn = r.drawHeatmap(s, cfg, data, theme)
	default:
		kind = ChartLine
		drawn = r.drawLine(s, cfg, data, theme, vp)
	}

	stats := RenderStats{
		Kind:     kind,
		Points:   len(data),
		Drawn:    drawn,
		Duration: r.now().Sub(start),
	}
	if r.OnRenderComplete != nil {
		r.OnRenderComplete(stats)
	}
	return stats
}

func (r *Renderer) budget() int {
	if r.DecimationBudget <= 0 {
		return DefaultDecimationBudget
	}
	return r.DecimationBudget
}

func drawGrid(s Surface, cfg ChartConfig, theme Theme) {
	plot := cfg.Plot()

	for i := 0; i <= gridColumns; i++ {
		x := plot.Left + plot.Width/gridColumns*float64(i)
		s.Line(x, plot.Top, x, plot.Bottom(), theme.Grid)
	}
	for i := 0; i <= gridRows; i++ {
		y := plot.Top + plot.Height/gridRows*float64(i)
		s.Line(plot.Left, y, plot.Right(), y, theme.Grid)
	}
}

func drawAxes(s Surface, cfg ChartConfig, theme Theme) {
	plot := cfg.Plot()
	s.Line(plot.Left, plot.Top, plot.Left, plot.Bottom(), theme.Axis)
	s.Line(plot.Left, plot.Bottom(), plot.Right(), plot.Bottom(), theme.Axis)
}

func drawYTicks(s Surface, plot Plot, d Domain, theme Theme) {
	for i := 0; i <= yTicks; i++ {
		v := d.Min + d.Span()/yTicks*float64(i)
		y := plot.ScaleY(v, d)
		s.Text(plot.Left-10, y+4, strconv.FormatFloat(v, 'f', 1, 64), theme.Text, AlignRight)
	}
}

func (r *Renderer) drawLine(s Surface, cfg ChartConfig, data []timeseries.DataPoint, theme Theme, vp ViewportState) int {
	if len(data) == 0 {
		return 0
	}

	visible := Decimate(ZoomWindow(data, vp.ZoomLevel), r.budget())
	plot := cfg.Plot()
	domain := ValueDomain(visible)
	xStep := plot.Width / float64(max(len(visible)-1, 1))

	prevX, prevY := plot.Left, plot.ScaleY(visible[0].Value, domain)
	for i, p := range visible[1:] {
		x := plot.Left + float64(i+1)*xStep
		y := plot.ScaleY(p.Value, domain)
		s.Line(prevX, prevY, x, y, theme.Line)
		prevX, prevY = x, y
	}
	if len(visible) == 1 {
		s.Circle(prevX, prevY, pointRadius, theme.Line)
	}

	drawYTicks(s, plot, domain, theme)
	return len(visible)
}

func (r *Renderer) drawBars(s Surface, cfg ChartConfig, data []timeseries.DataPoint, theme Theme) int {
	if len(data) == 0 {
		return 0
	}

	sampled := SampleEvenly(data, BarSampleBudget)
	plot := cfg.Plot()
	domain := ValueDomain(sampled)

	barWidth := plot.Width / float64(len(sampled))
	gap := barWidth * barGapRatio

	for i, p := range sampled {
		x := plot.Left + float64(i)*barWidth + gap/2
		y := plot.ScaleY(p.Value, domain)
		s.FillRect(x, y, barWidth-gap, plot.Bottom()-y, theme.CategoryColor(p.Category, i))
	}

	drawYTicks(s, plot, domain, theme)
	return len(sampled)
}

func (r *Renderer) drawScatter(s Surface, cfg ChartConfig, data []timeseries.DataPoint, theme Theme) int {
	if len(data) == 0 {
		return 0
	}

	visible := Decimate(data, r.budget())
	plot := cfg.Plot()
	yDomain := ValueDomain(visible)
	xDomain := TimeDomain(visible)

	for _, p := range visible {
		x := plot.ScaleX(float64(p.Timestamp), xDomain)
		y := plot.ScaleY(p.Value, yDomain)
		s.Circle(x, y, pointRadius, theme.CategoryColor(p.Category, 0))
	}

	drawYTicks(s, plot, yDomain, theme)
	return len(visible)
}

// HeatGrid folds points into a cells x cells grid: the row follows arrival
// order, the column follows value/100. Each cell holds the sum of its values.
func HeatGrid(data []timeseries.DataPoint, cells int) [][]float64 {
	grid := make([][]float64, cells)
	for i := range grid {
		grid[i] = make([]float64, cells)
	}
	if len(data) == 0 || cells <= 0 {
		return grid
	}

	n := float64(len(data))
	for i, p := range data {
		row := int(math.Floor(float64(i)/n*float64(cells))) % cells
		col := int(math.Floor(p.Value/100*float64(cells))) % cells
		if col < 0 {
			continue
		}
		grid[row][col] += p.Value
	}
	return grid
}

func (r *Renderer) drawHeatmap(s Surface, cfg ChartConfig, data []timeseries.DataPoint, theme Theme) int {
	grid := HeatGrid(data, heatCells)
	plot := cfg.Plot()

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, row := range grid {
		for _, v := range row {
			if v > 0 {
				lo = min(lo, v)
				hi = max(hi, v)
			}
		}
	}
	if math.IsInf(lo, 1) {
		lo = 0
	}
	if math.IsInf(hi, -1) {
		hi = 100
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	color := func(v float64) Color {
		if v <= 0 {
			return theme.HeatEmpty
		}
		return theme.HeatColor((v - lo) / span)
	}

	cellW := plot.Width / heatCells
	cellH := plot.Height / heatCells
	for i, row := range grid {
		for j, v := range row {
			s.FillRect(plot.Left+float64(j)*cellW, plot.Top+float64(i)*cellH, cellW-1, cellH-1, color(v))
		}
	}

	// Legend
	legendX := float64(cfg.Width) - cfg.Margin.Right + 20
	stepH := plot.Height / heatSteps
	for i := 0; i < heatSteps; i++ {
		v := lo + (hi-lo)/heatSteps*float64(i)
		y := plot.Top + plot.Height - stepH*float64(i+1)
		s.FillRect(legendX, y, 20, stepH, theme.HeatColor((v-lo)/span))
	}
	s.Text(legendX+24, plot.Top+10, strconv.FormatFloat(hi, 'f', 0, 64), theme.Text, AlignLeft)
	s.Text(legendX+24, plot.Bottom(), strconv.FormatFloat(lo, 'f', 0, 64), theme.Text, AlignLeft)

	return len(data)
}
