// Package stream ingests live data points into a bounded window and keeps
// observers informed about data and connection changes.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/aaronlmathis/vizstream/internal/timeseries"
)

// Config holds the controller settings
type Config struct {
	BaseURL   string
	Transport Transport

	// ReconnectDelay is how long to wait after a transient failure.
	// Zero disables reconnection; the controller goes Idle instead.
	ReconnectDelay time.Duration

	// MaxReconnectDelay caps delays announced by the server via retry
	MaxReconnectDelay time.Duration

	HTTPClient *http.Client
}

// Controller owns the window, feeds it from a long-lived connection and
// notifies subscribers of every change.
type Controller struct {
	config Config
	window *timeseries.Window
	logger *zap.Logger
	client *http.Client
	dialer *websocket.Dialer

	mu     sync.Mutex
	state  State
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}

	subMu   sync.RWMutex
	subs    map[int]Subscriber
	nextSub int
}

// NewController creates a new stream controller around window
func NewController(config Config, window *timeseries.Window, logger *zap.Logger) *Controller {
	if config.Transport == "" {
		config.Transport = TransportSSE
	}

	client := config.HTTPClient
	if client == nil {
		// No overall timeout: a stalled stream is tolerated indefinitely
		client = &http.Client{}
	}

	return &Controller{
		config: config,
		window: window,
		logger: logger,
		client: client,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		subs: make(map[int]Subscriber),
	}
}

// Subscribe registers fn for every event and returns a function removing it
func (c *Controller) Subscribe(fn Subscriber) func() {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn

	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Controller) publish(ev Event) {
	c.subMu.RLock()
	subs := make([]Subscriber, 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.subMu.RUnlock()

	for _, fn := range subs {
		fn(ev)
	}
}

// State returns the current connection state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns a copy of the window and its version
func (c *Controller) Snapshot() ([]timeseries.DataPoint, uint64) {
	return c.window.SnapshotWithVersion()
}

// Version returns the current window version
func (c *Controller) Version() uint64 {
	return c.window.Version()
}

// Len returns the number of points in the window
func (c *Controller) Len() int {
	return c.window.Len()
}

// Stats returns the window ingest counters
func (c *Controller) Stats() timeseries.IngestSnapshot {
	return c.window.Stats().Snapshot()
}

// Start opens the live stream. It is a no-op unless the controller is Idle.
// The connection lives until Stop is called, ctx is cancelled or the server
// closes the stream.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	if c.state != Idle {
		c.mu.Unlock()
		return
	}

	c.gen++
	gen := c.gen
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done
	c.state = Connecting
	c.mu.Unlock()

	c.logger.Info("Starting data stream",
		zap.String("url", c.config.BaseURL),
		zap.String("transport", string(c.config.Transport)))

	c.publish(Event{Kind: StateChanged, State: Connecting, Version: c.window.Version()})

	go c.run(runCtx, gen, done)
}

// Stop closes the stream and waits for the reader to exit. It is idempotent.
// Messages that arrive after Stop are ignored.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.cancel == nil {
		c.mu.Unlock()
		return
	}

	c.gen++
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	wasIdle := c.state == Idle
	c.state = Idle
	c.mu.Unlock()

	cancel()
	<-done

	c.logger.Info("Data stream stopped")

	if !wasIdle {
		c.publish(Event{Kind: StateChanged, State: Idle, Version: c.window.Version()})
	}
}

// ReplaceAll seeds the window with points, independent of the stream state
func (c *Controller) ReplaceAll(points []timeseries.DataPoint) uint64 {
	v := c.window.ReplaceAll(points)
	c.publish(Event{Kind: DataChanged, State: c.State(), Version: v})
	return v
}

// Clear empties the window
func (c *Controller) Clear() uint64 {
	v := c.window.Clear()
	c.publish(Event{Kind: DataChanged, State: c.State(), Version: v})
	return v
}

func (c *Controller) run(ctx context.Context, gen uint64, done chan struct{}) {
	defer close(done)

	delay := c.config.ReconnectDelay
	for {
		err := c.consume(ctx, gen, &delay)

		if ctx.Err() != nil {
			c.finish(gen, nil)
			return
		}

		if IsTerminal(err) || delay <= 0 {
			c.logger.Info("Data stream ended", zap.Error(err))
			c.finish(gen, err)
			return
		}

		c.logger.Warn("Data stream interrupted, reconnecting",
			zap.Error(err),
			zap.Duration("delay", delay))
		if !c.transition(gen, Reconnecting, err) {
			return
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			c.finish(gen, nil)
			return
		case <-timer.C:
		}

		if !c.transition(gen, Connecting, nil) {
			return
		}
	}
}

// consume reads one connection until it fails
func (c *Controller) consume(ctx context.Context, gen uint64, delay *time.Duration) error {
	src, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer src.Close()

	if !c.transition(gen, Streaming, nil) {
		return context.Canceled
	}

	for {
		payload, err := src.Recv()
		if retry := src.Retry(); retry > 0 && c.config.ReconnectDelay > 0 {
			*delay = c.capDelay(retry)
		}
		if err != nil {
			return err
		}

		point, err := decodePoint(payload)
		if err != nil {
			c.window.Stats().RecordDropped()
			c.logger.Warn("Dropping malformed stream message",
				zap.Error(err),
				zap.Int("bytes", len(payload)))
			continue
		}

		c.mu.Lock()
		if c.gen != gen {
			c.mu.Unlock()
			return context.Canceled
		}
		v := c.window.Append(point)
		state := c.state
		c.mu.Unlock()

		c.publish(Event{Kind: DataChanged, State: state, Version: v})
	}
}

func (c *Controller) open(ctx context.Context) (source, error) {
	switch c.config.Transport {
	case TransportWebSocket:
		return openWebSocket(ctx, c.dialer, c.config.BaseURL)
	default:
		return openSSE(ctx, c.client, c.config.BaseURL)
	}
}

func (c *Controller) capDelay(d time.Duration) time.Duration {
	if c.config.MaxReconnectDelay > 0 && d > c.config.MaxReconnectDelay {
		return c.config.MaxReconnectDelay
	}
	return d
}

// transition moves to state if gen is still current
func (c *Controller) transition(gen uint64, state State, cause error) bool {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return false
	}
	c.state = state
	c.mu.Unlock()

	c.publish(Event{Kind: StateChanged, State: state, Version: c.window.Version(), Err: cause})
	return true
}

// finish moves to Idle and releases the run context if gen is still current
func (c *Controller) finish(gen uint64, cause error) {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	cancel := c.cancel
	c.cancel, c.done = nil, nil
	c.state = Idle
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	c.publish(Event{Kind: StateChanged, State: Idle, Version: c.window.Version(), Err: cause})
}

func decodePoint(payload []byte) (timeseries.DataPoint, error) {
	var raw struct {
		Timestamp *json.Number `json:"timestamp"`
		Value     *json.Number `json:"value"`
		Category  string       `json:"category"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return timeseries.DataPoint{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if raw.Timestamp == nil || raw.Value == nil {
		return timeseries.DataPoint{}, fmt.Errorf("%w: missing timestamp or value", ErrMalformedEvent)
	}

	ts, err := raw.Timestamp.Float64()
	if err != nil {
		return timeseries.DataPoint{}, fmt.Errorf("%w: bad timestamp: %v", ErrMalformedEvent, err)
	}
	value, err := raw.Value.Float64()
	if err != nil {
		return timeseries.DataPoint{}, fmt.Errorf("%w: bad value: %v", ErrMalformedEvent, err)
	}

	return timeseries.DataPoint{
		Timestamp: int64(ts),
		Value:     value,
		Category:  raw.Category,
	}, nil
}
