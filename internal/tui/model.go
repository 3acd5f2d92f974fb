// Package tui is the terminal dashboard. It drives a stream.Controller, runs
// the display pipeline on every frame and draws charts onto a CellSurface.
package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tui "github.com/charmbracelet/bubbletea"
	styles "github.com/charmbracelet/lipgloss"
	plot "github.com/chriskim06/drawille-go"
	"go.uber.org/zap"

	"github.com/aaronlmathis/vizstream/internal/config"
	"github.com/aaronlmathis/vizstream/internal/perf"
	"github.com/aaronlmathis/vizstream/internal/render"
	"github.com/aaronlmathis/vizstream/internal/stream"
	"github.com/aaronlmathis/vizstream/internal/timeseries"
	"github.com/aaronlmathis/vizstream/internal/virtual"
)

const (
	defaultWidth  = 120
	defaultHeight = 40

	// rows taken by the header, the table header and the help line
	chromeRows   = 3
	metricsWidth = 30
	fpsPlotRows  = 6
	timeFormat   = "15:04:05.000"
)

type (
	frameMsg       struct{}
	tickMsg        time.Time
	startStreamMsg struct{}
	stoppedMsg     struct{}
	loadedMsg      struct {
		op      string
		count   int
		elapsed time.Duration
		err     error
	}
)

// Options wires the dashboard to its collaborators. Monitor, Renderer and
// Logger are optional.
type Options struct {
	Config     *config.Config
	Controller *stream.Controller
	Monitor    *perf.Monitor
	Renderer   *render.Renderer
	Logger     *zap.Logger
}

// Model is the bubbletea model of the dashboard
type Model struct {
	cfg      *config.Config
	ctrl     *stream.Controller
	monitor  *perf.Monitor
	renderer *render.Renderer
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	scheduler   *render.FrameScheduler
	unsubscribe func()
	closeOnce   sync.Once

	sendMu sync.Mutex
	send   func(tui.Msg)

	errMu     sync.Mutex
	streamErr error

	width, height int
	chart         render.ChartKind
	theme         render.Theme
	viewport      render.ViewportState
	settings      timeseries.Settings
	scroll        int

	surface *CellSurface
	frame   string
	display []timeseries.DataPoint
	total   int
	status  string
	busy    bool

	fpsPlot *plot.Canvas
	help    help.Model
}

// New creates the dashboard model. Call Attach with the program's Send before
// running it and Close after it exits.
func New(opts Options) *Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	monitor := opts.Monitor
	if monitor == nil {
		monitor = perf.NewMonitor(time.Now(), nil)
	}
	renderer := opts.Renderer
	if renderer == nil {
		renderer = render.NewRenderer()
		renderer.DecimationBudget = cfg.Render.DecimationBudget
	}

	theme, err := render.ThemeByName(render.ThemeName(cfg.Render.Theme))
	if err != nil {
		theme = render.LightTheme()
	}
	chart, err := render.ParseChartKind(cfg.Render.Chart)
	if err != nil {
		chart = render.ChartLine
	}

	ctx, cancel := context.WithCancel(context.Background())

	p := plot.NewCanvas(metricsWidth-2, fpsPlotRows)
	p.NumDataPoints = perf.HistorySize
	p.ShowAxis = false
	p.LineColors = []plot.Color{plot.Red}

	m := &Model{
		cfg:      cfg,
		ctrl:     opts.Controller,
		monitor:  monitor,
		renderer: renderer,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		width:    defaultWidth,
		height:   defaultHeight,
		chart:    chart,
		theme:    theme,
		viewport: render.DefaultViewport(),
		settings: cfg.PipelineSettings(),
		fpsPlot:  &p,
		help:     help.New(),
	}
	m.fpsPlot.Fill([][]float64{make([]float64, perf.HistorySize)})

	m.renderer.OnRenderComplete = func(stats render.RenderStats) {
		m.monitor.SetRenderTime(stats.Duration)
	}

	m.scheduler = render.NewFrameScheduler(cfg.FrameInterval(), func() {
		m.notify(frameMsg{})
	})
	m.unsubscribe = m.ctrl.Subscribe(m.onEvent)

	m.layout()
	return m
}

// Attach sets the function used to deliver frame messages to the program
func (m *Model) Attach(send func(tui.Msg)) {
	m.sendMu.Lock()
	defer m.sendMu.Unlock()
	m.send = send
}

func (m *Model) notify(msg tui.Msg) {
	m.sendMu.Lock()
	send := m.send
	m.sendMu.Unlock()
	if send != nil {
		send(msg)
	}
}

// onEvent runs on controller goroutines and only requests a frame
func (m *Model) onEvent(ev stream.Event) {
	if ev.Kind == stream.StateChanged {
		m.errMu.Lock()
		switch {
		case ev.Err != nil:
			m.streamErr = ev.Err
		case ev.State == stream.Streaming:
			m.streamErr = nil
		}
		m.errMu.Unlock()
	}
	m.scheduler.Schedule()
}

func (m *Model) lastStreamErr() error {
	m.errMu.Lock()
	defer m.errMu.Unlock()
	return m.streamErr
}

// Close stops the stream and all pending frames. It is safe to call twice.
func (m *Model) Close() {
	m.closeOnce.Do(func() {
		m.cancel()
		m.ctrl.Stop()
		m.scheduler.Stop()
		m.unsubscribe()
	})
}

func (m *Model) Init() tui.Cmd {
	return tui.Batch(
		m.loadCmd("initial", func(ctx context.Context) (int, error) {
			return m.ctrl.LoadInitial(ctx, m.cfg.Client.InitialCount)
		}),
		m.tick(),
		tui.Tick(m.cfg.StartDelay(), func(time.Time) tui.Msg { return startStreamMsg{} }),
	)
}

func (m *Model) tick() tui.Cmd {
	return tui.Tick(m.cfg.FrameInterval(), func(t time.Time) tui.Msg { return tickMsg(t) })
}

func (m *Model) loadCmd(op string, load func(context.Context) (int, error)) tui.Cmd {
	m.busy = true
	return func() tui.Msg {
		start := time.Now()
		n, err := load(m.ctx)
		return loadedMsg{op: op, count: n, elapsed: time.Since(start), err: err}
	}
}

func (m *Model) Update(msg tui.Msg) (tui.Model, tui.Cmd) {
	switch msg := msg.(type) {
	case tui.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.help.Width = msg.Width
		m.scheduler.Schedule()

	case frameMsg:
		m.redraw(time.Now())

	case tickMsg:
		if m.monitor.Tick(time.Time(msg)) {
			m.updatePlot()
			// The time range filter is relative to now
			m.scheduler.Schedule()
		}
		return m, m.tick()

	case startStreamMsg:
		m.ctrl.Start(m.ctx)

	case stoppedMsg:
		m.status = "Stream stopped"

	case loadedMsg:
		m.busy = false
		if msg.err != nil {
			m.logger.Warn("Bulk load failed", zap.String("op", msg.op), zap.Error(msg.err))
			m.status = fmt.Sprintf("%s load failed: %v", msg.op, msg.err)
		} else {
			m.status = fmt.Sprintf("Loaded %d points (%s) in %s", msg.count, msg.op, msg.elapsed.Round(time.Millisecond))
		}

	case tui.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tui.KeyMsg) tui.Cmd {
	switch {
	case key.Matches(msg, keys.Quit):
		m.Close()
		return tui.Quit

	case key.Matches(msg, keys.Stream):
		if m.ctrl.State().Active() {
			return func() tui.Msg {
				m.ctrl.Stop()
				return stoppedMsg{}
			}
		}
		m.ctrl.Start(m.ctx)

	case key.Matches(msg, keys.Clear):
		m.ctrl.Clear()
		m.scroll = 0
		m.status = "Cleared"

	case key.Matches(msg, keys.Stress):
		if m.busy {
			return nil
		}
		count := stressCounts[msg.String()]
		m.status = fmt.Sprintf("Generating %d points...", count)
		return m.loadCmd(fmt.Sprintf("stress %d", count), func(ctx context.Context) (int, error) {
			return m.ctrl.StressTest(ctx, count, 0)
		})

	case key.Matches(msg, keys.Range):
		m.settings.Range = m.settings.Range.Next()
		m.scheduler.Schedule()

	case key.Matches(msg, keys.Aggregate):
		m.settings.Aggregation = m.settings.Aggregation.Next()
		m.scheduler.Schedule()

	case key.Matches(msg, keys.Chart):
		m.chart = nextChart(m.chart)
		m.scheduler.Schedule()

	case key.Matches(msg, keys.ZoomIn):
		m.viewport = m.viewport.ZoomIn()
		m.scheduler.Schedule()

	case key.Matches(msg, keys.ZoomOut):
		m.viewport = m.viewport.ZoomOut()
		m.scheduler.Schedule()

	case key.Matches(msg, keys.ZoomReset):
		m.viewport = m.viewport.Reset()
		m.scheduler.Schedule()

	case key.Matches(msg, keys.Theme):
		m.theme = m.theme.Toggle()
		m.scheduler.Schedule()

	case key.Matches(msg, keys.Up):
		m.scrollBy(-1)
	case key.Matches(msg, keys.Down):
		m.scrollBy(1)
	case key.Matches(msg, keys.PageUp):
		m.scrollBy(-m.tableHeight())
	case key.Matches(msg, keys.PageDown):
		m.scrollBy(m.tableHeight())
	case key.Matches(msg, keys.Top):
		m.scroll = virtual.ScrollToIndex(0, 1)

	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
		m.scheduler.Schedule()
	}
	return nil
}

func nextChart(current render.ChartKind) render.ChartKind {
	kinds := render.ChartKinds()
	for i, k := range kinds {
		if k == current {
			return kinds[(i+1)%len(kinds)]
		}
	}
	return kinds[0]
}

func (m *Model) scrollBy(delta int) {
	m.scroll = virtual.ClampScroll(m.scroll+delta, m.tableItems(), 1, m.tableHeight())
}

// layout sizes the chart surface and the FPS plot to the terminal
func (m *Model) layout() {
	cols, rows := m.chartSize()
	if m.surface == nil {
		m.surface = NewCellSurface(cols, rows)
	} else {
		m.surface.Resize(cols, rows)
	}
	m.resizePlot(metricsWidth-2, fpsPlotRows)
}

func (m *Model) chartSize() (cols, rows int) {
	cols = max(m.width-metricsWidth-1, 10)
	rows = max((m.height-chromeRows)*2/3, 5)
	return cols, rows
}

func (m *Model) tableHeight() int {
	_, chartRows := m.chartSize()
	helpRows := 1
	if m.help.ShowAll {
		helpRows = 5
	}
	return max(m.height-chartRows-chromeRows-helpRows+1, 1)
}

// tableItems is the number of rows the table may scroll through
func (m *Model) tableItems() int {
	return min(len(m.display), m.cfg.Client.TableRows)
}

func (m *Model) resizePlot(w, h int) {
	p := plot.NewCanvas(w, h)
	p.NumDataPoints = m.fpsPlot.NumDataPoints
	p.ShowAxis = m.fpsPlot.ShowAxis
	p.LineColors = m.fpsPlot.LineColors
	m.fpsPlot = &p
	m.updatePlot()
}

func (m *Model) updatePlot() {
	history := m.monitor.FPSHistory()
	series := make([]float64, perf.HistorySize)
	offset := len(series) - len(history)
	for i, fps := range history {
		series[offset+i] = float64(fps)
	}

	if styles.DefaultRenderer().HasDarkBackground() {
		m.fpsPlot.LineColors = []plot.Color{plot.Red}
	} else {
		m.fpsPlot.LineColors = []plot.Color{plot.Black}
	}
	m.fpsPlot.Fill([][]float64{series})
}

// redraw runs the display pipeline over the current window and draws one
// chart frame
func (m *Model) redraw(now time.Time) {
	snapshot, _ := m.ctrl.Snapshot()
	m.total = len(snapshot)
	m.display = timeseries.Process(snapshot, m.settings, now)
	m.scroll = virtual.ClampScroll(m.scroll, m.tableItems(), 1, m.tableHeight())

	m.renderer.Draw(m.surface, m.chart, m.display, m.theme, m.viewport)
	m.frame = m.surface.String()
	m.monitor.SetDataPointsCount(len(m.display))
}

func (m *Model) View() string {
	header := m.headerView()
	body := styles.JoinHorizontal(styles.Top, m.frame, " ", m.metricsView())
	table := m.tableView()
	return strings.Join([]string{header, body, table, m.help.View(keys)}, "\n")
}

func (m *Model) headerView() string {
	state := m.ctrl.State()
	parts := []string{
		titleStyle.Render("vizstream"),
		stateStyle(state).Render(state.String()),
		fmt.Sprintf("%d/%d points", len(m.display), m.total),
		"range " + selectedFg.Render(string(m.settings.Range)),
		"agg " + selectedFg.Render(string(m.settings.Aggregation)),
		"chart " + selectedFg.Render(string(m.chart)),
		"theme " + selectedFg.Render(string(m.theme.Name)),
	}
	if m.viewport.ZoomLevel > 1 {
		parts = append(parts, fmt.Sprintf("zoom %.2fx", m.viewport.ZoomLevel))
	}

	line := strings.Join(parts, borderFg.Render(" | "))
	if err := m.lastStreamErr(); err != nil && state != stream.Streaming {
		line += "  " + errorFg.Render(err.Error())
	} else if m.status != "" {
		line += "  " + borderFg.Render(m.status)
	}
	return line
}

func (m *Model) metricsView() string {
	metrics := m.monitor.Metrics()
	ingest := m.ctrl.Stats()

	lines := []string{
		titleStyle.Render("Performance"),
		fmt.Sprintf("FPS      %d", metrics.FPS),
		fmt.Sprintf("Memory   %d MB", metrics.MemoryUsageMB),
		fmt.Sprintf("Points   %d", metrics.DataPointsCount),
		fmt.Sprintf("Render   %.2f ms", metrics.RenderTimeMs()),
		"",
		titleStyle.Render("Ingest"),
		fmt.Sprintf("Rate     %d/s", ingest.PointsPerSec),
		fmt.Sprintf("Appended %d", ingest.Appended),
		fmt.Sprintf("Evicted  %d", ingest.Evicted),
		fmt.Sprintf("Dropped  %d", ingest.Dropped),
		fmt.Sprintf("Status   %s", ingest.GetStatus()),
	}

	fps := plotStyle.Render(m.fpsPlot.String())
	return styles.JoinVertical(styles.Left, strings.Join(lines, "\n"), fps)
}

// tableView renders the newest-first point table. Only rows inside the
// scrolled viewport are formatted.
func (m *Model) tableView() string {
	height := m.tableHeight()
	n := m.tableItems()

	visible := virtual.Compute(virtual.Params{
		ScrollOffset:   m.scroll,
		ItemHeight:     1,
		ViewportHeight: height,
		ItemCount:      n,
	})

	var sb strings.Builder
	sb.WriteString(tableHeaderFg.Render(fmt.Sprintf("%-14s %12s  %-10s", "Time", "Value", "Category")))

	written := 0
	for _, row := range visible.Rows {
		if written == height {
			break
		}
		p := m.display[len(m.display)-1-row.Index]
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%-14s %12.2f  %-10s", p.Time().Format(timeFormat), p.Value, p.Category))
		written++
	}
	for ; written < height; written++ {
		sb.WriteString("\n")
	}
	return sb.String()
}
