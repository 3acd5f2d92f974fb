package stream

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"
)

// SSEEvent is one dispatched server-sent event
type SSEEvent struct {
	ID    string
	Event string
	Data  string
	Retry time.Duration
}

// EventReader decodes a text/event-stream body into events
type EventReader struct {
	r *bufio.Reader

	lastID string
	retry  time.Duration
}

// NewEventReader creates a reader over an event stream body
func NewEventReader(r io.Reader) *EventReader {
	return &EventReader{r: bufio.NewReader(r)}
}

// Next blocks until the next event is dispatched. Events without data are
// skipped. An incomplete event at end of input is discarded and io.EOF returned.
func (er *EventReader) Next() (SSEEvent, error) {
	var (
		data      strings.Builder
		eventType string
		hasData   bool
	)

	for {
		line, err := er.r.ReadString('\n')
		if err != nil {
			// Partial trailing line is discarded along with the pending event
			if err == io.EOF {
				return SSEEvent{}, io.EOF
			}
			return SSEEvent{}, err
		}

		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")

		if line == "" {
			if !hasData {
				eventType = ""
				continue
			}
			return SSEEvent{
				ID:    er.lastID,
				Event: eventType,
				Data:  strings.TrimSuffix(data.String(), "\n"),
				Retry: er.retry,
			}, nil
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "data":
			data.WriteString(value)
			data.WriteByte('\n')
			hasData = true
		case "event":
			eventType = value
		case "id":
			if !strings.ContainsRune(value, 0) {
				er.lastID = value
			}
		case "retry":
			if ms, err := strconv.ParseUint(value, 10, 32); err == nil {
				er.retry = time.Duration(ms) * time.Millisecond
			}
		}
	}
}

// Retry returns the last reconnection delay announced by the server, or 0
func (er *EventReader) Retry() time.Duration {
	return er.retry
}
