package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aaronlmathis/vizstream/internal/version"
)

// Transport selects how the controller receives live points
type Transport string

const (
	TransportSSE       Transport = "sse"
	TransportWebSocket Transport = "ws"
)

const (
	streamPath    = "/api/data/stream"
	websocketPath = "/api/data/ws"

	// Maximum message size allowed from the server
	maxMessageSize = 4096

	// Time allowed to read the next message from the server
	pongWait = 60 * time.Second
)

// source yields raw message payloads from one connection
type source interface {
	// Recv returns the next payload, or an error once the connection is unusable
	Recv() ([]byte, error)
	// Retry returns the reconnection delay announced by the server, or 0
	Retry() time.Duration
	Close() error
}

type sseSource struct {
	body   io.ReadCloser
	reader *EventReader
	stop   func() bool
}

func openSSE(ctx context.Context, client *http.Client, baseURL string) (source, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+streamPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to stream: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || mediaType != "text/event-stream" {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %q", ErrNotEventStream, resp.Header.Get("Content-Type"))
	}

	return &sseSource{
		body:   resp.Body,
		reader: NewEventReader(resp.Body),
		stop:   context.AfterFunc(ctx, func() { resp.Body.Close() }),
	}, nil
}

func (s *sseSource) Recv() ([]byte, error) {
	ev, err := s.reader.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrStreamClosed
		}
		return nil, fmt.Errorf("stream read failed: %w", err)
	}
	return []byte(ev.Data), nil
}

func (s *sseSource) Retry() time.Duration {
	return s.reader.Retry()
}

func (s *sseSource) Close() error {
	s.stop()
	return s.body.Close()
}

type wsSource struct {
	conn *websocket.Conn
	stop func() bool
}

func openWebSocket(ctx context.Context, dialer *websocket.Dialer, baseURL string) (source, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + websocketPath)
	if err != nil {
		return nil, fmt.Errorf("invalid stream url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	header := http.Header{}
	header.Set("User-Agent", version.UserAgent())

	conn, resp, err := dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil && (resp.StatusCode < 200 || resp.StatusCode > 299) {
			return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
		}
		return nil, fmt.Errorf("failed to connect to stream: %w", err)
	}

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(time.Second))
	})

	return &wsSource{
		conn: conn,
		stop: context.AfterFunc(ctx, func() { conn.Close() }),
	}, nil
}

func (s *wsSource) Recv() ([]byte, error) {
	for {
		msgType, payload, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, ErrStreamClosed
			}
			return nil, fmt.Errorf("stream read failed: %w", err)
		}
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		if msgType == websocket.TextMessage {
			return payload, nil
		}
	}
}

func (s *wsSource) Retry() time.Duration {
	return 0
}

func (s *wsSource) Close() error {
	s.stop()
	return s.conn.Close()
}
