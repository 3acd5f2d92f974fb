package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/aaronlmathis/vizstream/internal/metrics"
	"github.com/aaronlmathis/vizstream/internal/stream"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Clients only send control frames
	maxClientMessageSize = 512
)

// handleDataStream serves GET /api/data/stream as server-sent events. One point
// goes out on connect and then one per stream interval until the client leaves.
func (s *Server) handleDataStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.sanitizer.SanitizeAndRespond(w, r, fmt.Errorf("response writer %T cannot flush", w), http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	s.streams.Add(1)
	defer s.streams.Done()

	connID := uuid.NewString()
	transport := string(stream.TransportSSE)

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	connected := time.Now()
	metrics.RecordStreamConnection(transport)
	defer func() { metrics.RecordStreamDisconnection(transport, time.Since(connected)) }()

	s.logger.Info("Stream client connected",
		zap.String("connId", connID),
		zap.String("transport", transport),
		zap.String("remoteAddr", r.RemoteAddr))

	send := func() error {
		payload, err := json.Marshal(s.generator.Live())
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return err
		}
		flusher.Flush()
		metrics.RecordStreamPoint(transport)
		return nil
	}

	ticker := time.NewTicker(s.config.StreamInterval())
	defer ticker.Stop()

	sent := 0
	defer func() {
		s.logger.Info("Stream client disconnected",
			zap.String("connId", connID),
			zap.Int("points", sent))
	}()

	if err := send(); err != nil {
		return
	}
	sent++

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.shutdown:
			return
		case <-ticker.C:
			if err := send(); err != nil {
				s.logger.Debug("Stream write failed", zap.String("connId", connID), zap.Error(err))
				return
			}
			sent++
		}
	}
}

// handleDataWebSocket serves GET /api/data/ws, one JSON point per text frame
func (s *Server) handleDataWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}

	s.streams.Add(1)
	defer s.streams.Done()

	connID := uuid.NewString()
	transport := string(stream.TransportWebSocket)

	connected := time.Now()
	metrics.RecordStreamConnection(transport)
	defer func() { metrics.RecordStreamDisconnection(transport, time.Since(connected)) }()

	s.logger.Info("Stream client connected",
		zap.String("connId", connID),
		zap.String("transport", transport),
		zap.String("remoteAddr", r.RemoteAddr))

	closed := make(chan struct{})
	go s.wsReader(conn, connID, closed)
	s.wsWriter(conn, connID, closed)
}

// wsReader drains control frames so pongs extend the deadline. It closes
// closed when the peer goes away.
func (s *Server) wsReader(conn *websocket.Conn, connID string, closed chan<- struct{}) {
	defer close(closed)

	conn.SetReadLimit(maxClientMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.Warn("Unexpected WebSocket close", zap.String("connId", connID), zap.Error(err))
			}
			return
		}
	}
}

// wsWriter sends live points and pings until the reader reports the peer gone
// or the server shuts down
func (s *Server) wsWriter(conn *websocket.Conn, connID string, closed <-chan struct{}) {
	ticker := time.NewTicker(s.config.StreamInterval())
	ping := time.NewTicker(pingPeriod)
	sent := 0
	defer func() {
		ticker.Stop()
		ping.Stop()
		conn.Close()
		s.logger.Info("Stream client disconnected",
			zap.String("connId", connID),
			zap.Int("points", sent))
	}()

	send := func() error {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(s.generator.Live()); err != nil {
			return err
		}
		metrics.RecordStreamPoint(string(stream.TransportWebSocket))
		sent++
		return nil
	}

	if err := send(); err != nil {
		return
	}

	for {
		select {
		case <-closed:
			return

		case <-s.shutdown:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return

		case <-ticker.C:
			if err := send(); err != nil {
				s.logger.Debug("Stream write failed", zap.String("connId", connID), zap.Error(err))
				return
			}

		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
