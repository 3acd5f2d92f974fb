package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/aaronlmathis/vizstream/internal/metrics"
	"github.com/aaronlmathis/vizstream/internal/stream"
	"github.com/aaronlmathis/vizstream/internal/timeseries"
	"github.com/aaronlmathis/vizstream/internal/version"
)

const (
	// defaultGenerateRangeMs is the span of a stress test dataset when the
	// client does not pass timeRange
	defaultGenerateRangeMs = 60000

	// maxAggregateBody bounds POST /api/data/aggregate; 100k points fit comfortably
	maxAggregateBody = 32 << 20
)

// HealthResponse is the /api/health payload
type HealthResponse struct {
	Status       string       `json:"status"`
	Timestamp    int64        `json:"timestamp"`
	Capabilities Capabilities `json:"capabilities"`
}

// Capabilities advertises what the server can produce
type Capabilities struct {
	MaxDataPoints         int                            `json:"maxDataPoints"`
	SupportedAggregations []timeseries.AggregationPeriod `json:"supportedAggregations"`
	Transports            []stream.Transport             `json:"transports"`
	StreamIntervalMs      int64                          `json:"streamIntervalMs"`
}

// AggregateRequest is the POST /api/data/aggregate body
type AggregateRequest struct {
	Data   json.RawMessage `json:"data"`
	Period string          `json:"period"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, version.Get())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	transports := []stream.Transport{stream.TransportSSE}
	if s.config.Stream.EnableWebSocket {
		transports = append(transports, stream.TransportWebSocket)
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UnixMilli(),
		Capabilities: Capabilities{
			MaxDataPoints: timeseries.MaxRequestCount,
			SupportedAggregations: []timeseries.AggregationPeriod{
				timeseries.Aggregate1Min,
				timeseries.Aggregate5Min,
				timeseries.Aggregate1Hour,
				timeseries.AggregateNone,
			},
			Transports:       transports,
			StreamIntervalMs: s.config.StreamInterval().Milliseconds(),
		},
	})
}

// handleInitialData serves GET /api/data/initial/{count}
func (s *Server) handleInitialData(w http.ResponseWriter, r *http.Request) {
	count, ok := parseCount(chi.URLParam(r, "count"), s.config.Window.DefaultCount)
	if !ok {
		s.sanitizer.SanitizeAndRespond(w, r, nil, http.StatusBadRequest, countRangeMessage)
		return
	}

	s.writeSeries(w, "initial", count, defaultGenerateRangeMs*time.Millisecond)
}

// handleGenerate serves GET /api/data/generate?count=&timeRange=
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	count, ok := parseCount(query.Get("count"), s.config.Window.DefaultCount)
	if !ok {
		s.sanitizer.SanitizeAndRespond(w, r, nil, http.StatusBadRequest, countRangeMessage)
		return
	}

	rangeMs, ok := parsePositiveInt(query.Get("timeRange"), defaultGenerateRangeMs)
	if !ok {
		s.sanitizer.SanitizeAndRespond(w, r, nil, http.StatusBadRequest, "timeRange must be a positive number of milliseconds")
		return
	}

	s.writeSeries(w, "generate", count, time.Duration(rangeMs)*time.Millisecond)
}

func (s *Server) writeSeries(w http.ResponseWriter, endpoint string, count int, span time.Duration) {
	start := time.Now()
	data := s.generator.Series(count, span)
	metrics.RecordGenerated(endpoint, len(data), time.Since(start))

	s.logger.Debug("Generated dataset",
		zap.String("endpoint", endpoint),
		zap.Int("count", len(data)),
		zap.Duration("span", span),
		zap.Duration("took", time.Since(start)))

	writeJSON(w, http.StatusOK, data)
}

// handleAggregate serves POST /api/data/aggregate
func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAggregateBody)

	var req AggregateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.sanitizer.SanitizeAndRespond(w, r, err, http.StatusRequestEntityTooLarge, "")
			return
		}
		s.sanitizer.SanitizeAndRespond(w, r, err, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if !isJSONArray(req.Data) {
		s.sanitizer.SanitizeAndRespond(w, r, nil, http.StatusBadRequest, "Data must be an array")
		return
	}

	var points []timeseries.DataPoint
	if err := json.Unmarshal(req.Data, &points); err != nil {
		s.sanitizer.SanitizeAndRespond(w, r, err, http.StatusBadRequest, "Data must contain data points")
		return
	}

	// Unknown periods disable aggregation
	period, err := timeseries.ParseAggregationPeriod(req.Period)
	if err != nil {
		period = timeseries.AggregateNone
	}
	metrics.RecordAggregateRequest(string(period))

	aggregated := timeseries.Aggregate(points, period.Millis())
	if aggregated == nil {
		aggregated = []timeseries.DataPoint{}
	}

	writeJSON(w, http.StatusOK, aggregated)
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}
