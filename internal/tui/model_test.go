package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	tui "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/aaronlmathis/vizstream/internal/config"
	"github.com/aaronlmathis/vizstream/internal/generator"
	"github.com/aaronlmathis/vizstream/internal/render"
	"github.com/aaronlmathis/vizstream/internal/stream"
	"github.com/aaronlmathis/vizstream/internal/timeseries"
)

const waitFor = 5 * time.Second

var fixedNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// dataServer serves the bulk endpoints from a seeded generator and holds
// stream connections open after one point
func dataServer(t *testing.T) *httptest.Server {
	t.Helper()
	gen := generator.NewSeeded(7, func() time.Time { return fixedNow })

	mux := http.NewServeMux()
	writePoints := func(w http.ResponseWriter, count int) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(gen.Series(count, time.Minute))
	}
	mux.HandleFunc("/api/data/initial/", func(w http.ResponseWriter, r *http.Request) {
		count, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/api/data/initial/"))
		if err != nil {
			http.Error(w, `{"error":"bad count"}`, http.StatusBadRequest)
			return
		}
		writePoints(w, count)
	})
	mux.HandleFunc("/api/data/generate", func(w http.ResponseWriter, r *http.Request) {
		count, _ := strconv.Atoi(r.URL.Query().Get("count"))
		writePoints(w, count)
	})
	mux.HandleFunc("/api/data/stream", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		data, _ := json.Marshal(gen.Live())
		fmt.Fprintf(w, "data: %s\n\n", data)
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestModel(t *testing.T, baseURL string) *Model {
	t.Helper()
	logger := zaptest.NewLogger(t)

	cfg := config.Default()
	cfg.Client.ServerURL = baseURL
	cfg.Client.InitialCount = 500
	cfg.Client.ReconnectDelay = "0s"

	ctrl := stream.NewController(cfg.StreamControllerConfig(), timeseries.NewWindow(cfg.Window.Capacity), logger)
	m := New(Options{Config: cfg, Controller: ctrl, Logger: logger})
	t.Cleanup(m.Close)

	m.Update(tui.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

func press(k string) tui.KeyMsg {
	switch k {
	case "tab":
		return tui.KeyMsg{Type: tui.KeyTab}
	case "up":
		return tui.KeyMsg{Type: tui.KeyUp}
	case "down":
		return tui.KeyMsg{Type: tui.KeyDown}
	case "pgup":
		return tui.KeyMsg{Type: tui.KeyPgUp}
	case "pgdown":
		return tui.KeyMsg{Type: tui.KeyPgDown}
	case "home":
		return tui.KeyMsg{Type: tui.KeyHome}
	}
	return tui.KeyMsg{Type: tui.KeyRunes, Runes: []rune(k)}
}

// run feeds a key to the model and executes the returned command once
func run(m *Model, k string) tui.Msg {
	_, cmd := m.Update(press(k))
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if msg != nil {
		m.Update(msg)
	}
	return msg
}

func seed(m *Model, n int) {
	points := make([]timeseries.DataPoint, n)
	for i := range points {
		points[i] = timeseries.NewDataPoint(fixedNow.Add(time.Duration(i)*time.Second), float64(i), "A")
	}
	m.ctrl.ReplaceAll(points)
	m.Update(frameMsg{})
}

func TestModel_InitialLoad(t *testing.T) {
	srv := dataServer(t)
	m := newTestModel(t, srv.URL)

	cmd := m.loadCmd("initial", func(ctx context.Context) (int, error) {
		return m.ctrl.LoadInitial(ctx, m.cfg.Client.InitialCount)
	})
	m.Update(cmd())
	m.Update(frameMsg{})

	assert.False(t, m.busy)
	assert.Contains(t, m.status, "Loaded 500 points")
	assert.Len(t, m.display, 500)
	assert.Equal(t, 500, m.monitor.Metrics().DataPointsCount)
	assert.NotEmpty(t, m.frame)
}

func TestModel_StressTest(t *testing.T) {
	srv := dataServer(t)
	m := newTestModel(t, srv.URL)

	msg := run(m, "2")
	require.IsType(t, loadedMsg{}, msg)
	require.NoError(t, msg.(loadedMsg).err)

	m.Update(frameMsg{})
	assert.Len(t, m.display, 25000)
	assert.Equal(t, 25000, m.total)
	assert.Contains(t, m.status, "stress 25000")
}

func TestModel_StressTestIgnoredWhileBusy(t *testing.T) {
	m := newTestModel(t, "http://127.0.0.1:1")
	m.busy = true

	_, cmd := m.Update(press("1"))
	assert.Nil(t, cmd)
}

func TestModel_LoadFailureKeepsWindow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal server error"}`))
	}))
	defer srv.Close()

	m := newTestModel(t, srv.URL)
	seed(m, 10)

	run(m, "1")
	m.Update(frameMsg{})

	assert.Contains(t, m.status, "failed")
	assert.Len(t, m.display, 10)
}

func TestModel_Clear(t *testing.T) {
	m := newTestModel(t, "http://127.0.0.1:1")
	seed(m, 50)
	require.Len(t, m.display, 50)

	run(m, "c")
	m.Update(frameMsg{})

	assert.Empty(t, m.display)
	assert.Zero(t, m.ctrl.Len())
}

func TestModel_SettingKeys(t *testing.T) {
	m := newTestModel(t, "http://127.0.0.1:1")

	run(m, "r")
	assert.Equal(t, timeseries.RangeAll.Next(), m.settings.Range)

	run(m, "a")
	assert.Equal(t, timeseries.AggregateNone.Next(), m.settings.Aggregation)

	run(m, "tab")
	assert.Equal(t, render.ChartBar, m.chart)
	for range render.ChartKinds()[1:] {
		run(m, "tab")
	}
	assert.Equal(t, render.ChartLine, m.chart, "chart kinds cycle")

	run(m, "t")
	assert.Equal(t, render.ThemeDark, m.theme.Name)

	run(m, "+")
	run(m, "+")
	assert.InDelta(t, 2.25, m.viewport.ZoomLevel, 1e-9)
	run(m, "-")
	assert.InDelta(t, 1.5, m.viewport.ZoomLevel, 1e-9)
	run(m, "0")
	assert.Equal(t, render.DefaultViewport(), m.viewport)

	view := m.View()
	assert.Contains(t, view, string(m.settings.Range))
	assert.Contains(t, view, "theme")
}

func TestModel_TableIsNewestFirstAndClamped(t *testing.T) {
	m := newTestModel(t, "http://127.0.0.1:1")
	seed(m, 300)

	table := m.tableView()
	lines := strings.Split(table, "\n")
	require.Len(t, lines, m.tableHeight()+1)
	assert.Contains(t, lines[1], "299.00")
	assert.Contains(t, lines[2], "298.00")

	for i := 0; i < 1000; i++ {
		m.Update(press("pgdown"))
	}
	assert.Equal(t, 300-m.tableHeight(), m.scroll)
	lines = strings.Split(m.tableView(), "\n")
	assert.Contains(t, lines[len(lines)-1], " 0.00")

	m.Update(press("up"))
	assert.Equal(t, 300-m.tableHeight()-1, m.scroll)

	m.Update(press("home"))
	assert.Zero(t, m.scroll)

	m.Update(press("up"))
	assert.Zero(t, m.scroll)
}

func TestModel_TableRowsCapped(t *testing.T) {
	m := newTestModel(t, "http://127.0.0.1:1")
	m.cfg.Client.TableRows = 100
	seed(m, 500)

	for i := 0; i < 100; i++ {
		m.Update(press("pgdown"))
	}
	assert.Equal(t, 100-m.tableHeight(), m.scroll)
}

func TestModel_ControllerEventsRequestFrames(t *testing.T) {
	m := newTestModel(t, "http://127.0.0.1:1")

	frames := make(chan tui.Msg, 16)
	m.Attach(func(msg tui.Msg) { frames <- msg })

	for i := 0; i < 10; i++ {
		m.ctrl.Clear()
	}

	select {
	case msg := <-frames:
		assert.IsType(t, frameMsg{}, msg)
	case <-time.After(waitFor):
		t.Fatal("no frame delivered")
	}
	assert.LessOrEqual(t, m.scheduler.Frames(), uint64(3))
}

func TestModel_StreamToggle(t *testing.T) {
	srv := dataServer(t)
	m := newTestModel(t, srv.URL)

	run(m, "s")
	require.Eventually(t, func() bool {
		return m.ctrl.State() == stream.Streaming && m.ctrl.Len() == 1
	}, waitFor, 10*time.Millisecond)

	msg := run(m, "s")
	assert.IsType(t, stoppedMsg{}, msg)
	assert.Equal(t, stream.Idle, m.ctrl.State())
	assert.Equal(t, "Stream stopped", m.status)
}

func TestModel_StreamErrorShownInHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	m := newTestModel(t, srv.URL)
	m.Update(startStreamMsg{})

	require.Eventually(t, func() bool {
		return m.ctrl.State() == stream.Idle && m.lastStreamErr() != nil
	}, waitFor, 10*time.Millisecond)
	assert.Contains(t, m.headerView(), "503")
}

func TestModel_FPSSample(t *testing.T) {
	m := newTestModel(t, "http://127.0.0.1:1")

	start := time.Now()
	for i := 1; i <= 30; i++ {
		m.Update(tickMsg(start.Add(time.Duration(i) * 40 * time.Millisecond)))
	}

	assert.NotEmpty(t, m.monitor.FPSHistory())
	assert.Contains(t, m.metricsView(), "FPS")
}

func TestModel_Quit(t *testing.T) {
	m := newTestModel(t, "http://127.0.0.1:1")

	_, cmd := m.Update(press("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tui.QuitMsg{}, cmd())

	// Closed models ignore further frame requests
	m.scheduler.Schedule()
	assert.False(t, m.scheduler.Pending())
}
