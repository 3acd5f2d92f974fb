package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aaronlmathis/vizstream/internal/timeseries"
	"github.com/aaronlmathis/vizstream/internal/version"
)

// APIError is returned when the data server rejects a bulk request
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("data server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("data server returned %d: %s", e.StatusCode, e.Message)
}

// LoadInitial fetches the initial dataset and installs it in the window.
// On failure the window is left unchanged.
func (c *Controller) LoadInitial(ctx context.Context, count int) (int, error) {
	path := "/api/data/initial/" + strconv.Itoa(count)
	return c.load(ctx, "initial load", path)
}

// StressTest replaces the window with a generated dataset of count points
// covering span. On failure the window is left unchanged.
func (c *Controller) StressTest(ctx context.Context, count int, span time.Duration) (int, error) {
	q := url.Values{}
	q.Set("count", strconv.Itoa(count))
	if span > 0 {
		q.Set("timeRange", strconv.FormatInt(span.Milliseconds(), 10))
	}
	return c.load(ctx, "stress test", "/api/data/generate?"+q.Encode())
}

func (c *Controller) load(ctx context.Context, op, path string) (int, error) {
	start := time.Now()

	points, err := c.fetchPoints(ctx, path)
	if err != nil {
		c.logger.Error("Bulk fetch failed",
			zap.String("operation", op),
			zap.Error(err))
		return 0, fmt.Errorf("%s failed: %w", op, err)
	}

	c.ReplaceAll(points)

	c.logger.Info("Bulk dataset loaded",
		zap.String("operation", op),
		zap.Int("points", len(points)),
		zap.Duration("duration", time.Since(start)))

	return len(points), nil
}

func (c *Controller) fetchPoints(ctx context.Context, path string) ([]timeseries.DataPoint, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(c.config.BaseURL, "/")+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var body struct {
			Error string `json:"error"`
		}
		if data, err := io.ReadAll(io.LimitReader(resp.Body, 4096)); err == nil {
			if json.Unmarshal(data, &body) == nil {
				apiErr.Message = body.Error
			}
		}
		return nil, apiErr
	}

	var points []timeseries.DataPoint
	if err := json.NewDecoder(resp.Body).Decode(&points); err != nil {
		return nil, fmt.Errorf("failed to decode dataset: %w", err)
	}
	return points, nil
}
