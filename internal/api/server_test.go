package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/aaronlmathis/vizstream/internal/config"
	"github.com/aaronlmathis/vizstream/internal/generator"
	"github.com/aaronlmathis/vizstream/internal/stream"
	"github.com/aaronlmathis/vizstream/internal/timeseries"
)

const waitFor = 5 * time.Second

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()

	cfg := config.Default()
	cfg.Stream.Interval = "10ms"
	if mutate != nil {
		mutate(cfg)
	}

	s, err := newServer(zaptest.NewLogger(t), cfg, generator.NewSeeded(42, time.Now))
	require.NoError(t, err)
	t.Cleanup(s.Stop)
	return s
}

func serve(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.RemoteAddr = "192.0.2.1:1234"
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodePoints(t *testing.T, rec *httptest.ResponseRecorder) []timeseries.DataPoint {
	t.Helper()

	var points []timeseries.DataPoint
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &points), rec.Body.String())
	return points
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body["error"]
}

func TestNewServer_RejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Stream.Interval = "never"

	_, err := NewServer(zaptest.NewLogger(t), cfg)
	assert.Error(t, err)
}

func TestHandleInitialData(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name      string
		target    string
		wantCode  int
		wantCount int
	}{
		{"default count", "/api/data/initial", http.StatusOK, 10000},
		{"explicit count", "/api/data/initial/500", http.StatusOK, 500},
		{"lower bound", "/api/data/initial/100", http.StatusOK, 100},
		{"upper bound", "/api/data/initial/100000", http.StatusOK, 100000},
		{"below range", "/api/data/initial/99", http.StatusBadRequest, 0},
		{"above range", "/api/data/initial/100001", http.StatusBadRequest, 0},
		{"not a number", "/api/data/initial/lots", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, s, http.MethodGet, tt.target, "")
			require.Equal(t, tt.wantCode, rec.Code)

			if tt.wantCode != http.StatusOK {
				assert.Equal(t, "Count must be between 100 and 100000", errorMessage(t, rec))
				return
			}

			points := decodePoints(t, rec)
			assert.Len(t, points, tt.wantCount)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestHandleGenerate(t *testing.T) {
	s := newTestServer(t, nil)

	before := time.Now().UnixMilli()
	rec := serve(t, s, http.MethodGet, "/api/data/generate?count=200&timeRange=5000", "")
	require.Equal(t, http.StatusOK, rec.Code)

	points := decodePoints(t, rec)
	require.Len(t, points, 200)
	assert.GreaterOrEqual(t, points[0].Timestamp, before-5000)
	for i := 1; i < len(points); i++ {
		assert.GreaterOrEqual(t, points[i].Timestamp, points[i-1].Timestamp)
	}

	rec = serve(t, s, http.MethodGet, "/api/data/generate?count=20", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, s, http.MethodGet, "/api/data/generate?count=200&timeRange=-5", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "timeRange")
}

func TestHandleGenerate_RateLimited(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.RateLimits.GeneratePerMinute = 1
		cfg.RateLimits.Burst = 2
	})

	for i := 0; i < 2; i++ {
		rec := serve(t, s, http.MethodGet, "/api/data/generate?count=100", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := serve(t, s, http.MethodGet, "/api/data/generate?count=100", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Other endpoints are not limited
	rec = serve(t, s, http.MethodGet, "/api/data/initial/100", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleAggregate(t *testing.T) {
	s := newTestServer(t, nil)

	t.Run("buckets by period", func(t *testing.T) {
		body := `{"data":[{"timestamp":0,"value":10,"category":"A"},{"timestamp":500,"value":20,"category":"B"},{"timestamp":60000,"value":3}],"period":"1min"}`
		rec := serve(t, s, http.MethodPost, "/api/data/aggregate", body)
		require.Equal(t, http.StatusOK, rec.Code)

		assert.Equal(t, []timeseries.DataPoint{
			{Timestamp: 0, Value: 15, Category: "A"},
			{Timestamp: 60000, Value: 3},
		}, decodePoints(t, rec))
	})

	t.Run("unknown period is identity", func(t *testing.T) {
		body := `{"data":[{"timestamp":500,"value":20},{"timestamp":0,"value":10}],"period":"1day"}`
		rec := serve(t, s, http.MethodPost, "/api/data/aggregate", body)
		require.Equal(t, http.StatusOK, rec.Code)

		assert.Equal(t, []timeseries.DataPoint{{Timestamp: 500, Value: 20}, {Timestamp: 0, Value: 10}}, decodePoints(t, rec))
	})

	t.Run("empty data", func(t *testing.T) {
		rec := serve(t, s, http.MethodPost, "/api/data/aggregate", `{"data":[],"period":"5min"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("data must be an array", func(t *testing.T) {
		for _, body := range []string{`{"data":{"timestamp":0},"period":"1min"}`, `{"period":"1min"}`, `{"data":null}`} {
			rec := serve(t, s, http.MethodPost, "/api/data/aggregate", body)
			require.Equal(t, http.StatusBadRequest, rec.Code, body)
			assert.Equal(t, "Data must be an array", errorMessage(t, rec))
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		rec := serve(t, s, http.MethodPost, "/api/data/aggregate", `{"data":[`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serve(t, s, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Positive(t, health.Timestamp)
	assert.Equal(t, 100000, health.Capabilities.MaxDataPoints)
	assert.ElementsMatch(t, []timeseries.AggregationPeriod{"1min", "5min", "1hour", "none"}, health.Capabilities.SupportedAggregations)
	assert.Equal(t, []stream.Transport{stream.TransportSSE, stream.TransportWebSocket}, health.Capabilities.Transports)
	assert.Equal(t, int64(10), health.Capabilities.StreamIntervalMs)
}

func TestAmbientEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	for _, target := range []string{"/healthz", "/version", "/metrics"} {
		rec := serve(t, s, http.MethodGet, target, "")
		assert.Equal(t, http.StatusOK, rec.Code, target)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"), target)
	}

	rec := serve(t, s, http.MethodGet, "/version", "")
	assert.Contains(t, rec.Body.String(), `"name":"vizstream"`)

	rec = serve(t, s, http.MethodOptions, "/api/data/aggregate", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHandleDataStream(t *testing.T) {
	s := newTestServer(t, nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/data/stream")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	reader := stream.NewEventReader(resp.Body)
	var last int64
	for i := 0; i < 3; i++ {
		ev, err := reader.Next()
		require.NoError(t, err)

		var p timeseries.DataPoint
		require.NoError(t, json.Unmarshal([]byte(ev.Data), &p))
		assert.GreaterOrEqual(t, p.Value, 0.0)
		assert.LessOrEqual(t, p.Value, 120.0)
		assert.Contains(t, generator.Categories, p.Category)
		assert.GreaterOrEqual(t, p.Timestamp, last)
		last = p.Timestamp
	}
}

func TestStop_EndsOpenStreams(t *testing.T) {
	s := newTestServer(t, nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/data/stream")
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := stream.NewEventReader(resp.Body)
	_, err = reader.Next()
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("Stop did not return")
	}

	// Drain whatever was buffered; the body must end
	_, err = io.Copy(io.Discard, resp.Body)
	assert.NoError(t, err)
}

func TestHandleDataWebSocket(t *testing.T) {
	s := newTestServer(t, nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/data/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	for i := 0; i < 3; i++ {
		conn.SetReadDeadline(time.Now().Add(waitFor))
		var p timeseries.DataPoint
		require.NoError(t, conn.ReadJSON(&p))
		assert.Contains(t, generator.Categories, p.Category)
	}
}

func TestHandleDataWebSocket_Disabled(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) { cfg.Stream.EnableWebSocket = false })

	rec := serve(t, s, http.MethodGet, "/api/data/ws", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestControllerAgainstServer(t *testing.T) {
	for _, transport := range []stream.Transport{stream.TransportSSE, stream.TransportWebSocket} {
		t.Run(string(transport), func(t *testing.T) {
			s := newTestServer(t, nil)
			ts := httptest.NewServer(s.Handler())
			defer ts.Close()

			window := timeseries.NewWindow(25)
			c := stream.NewController(stream.Config{BaseURL: ts.URL, Transport: transport}, window, zaptest.NewLogger(t))

			loaded, err := c.LoadInitial(context.Background(), 100)
			require.NoError(t, err)
			assert.Equal(t, 100, loaded)
			assert.Equal(t, 25, c.Len())

			c.Start(context.Background())
			require.Eventually(t, func() bool {
				return c.State() == stream.Streaming && c.Stats().Appended >= 3
			}, waitFor, 10*time.Millisecond)

			c.Stop()
			assert.Equal(t, stream.Idle, c.State())
			assert.Equal(t, 25, c.Len())
			assert.Zero(t, c.Stats().Dropped)
		})
	}
}
