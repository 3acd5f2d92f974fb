package stream

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventReader(t *testing.T) {
	input := strings.Join([]string{
		": keepalive comment",
		"data: {\"timestamp\":1,\"value\":2}",
		"",
		"event: tick",
		"id: 7",
		"retry: 1500",
		"data: first",
		"data:second",
		"",
		"",
		"data: crlf\r",
		"\r",
		"data: incomplete",
	}, "\n")

	r := NewEventReader(strings.NewReader(input))

	ev, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, `{"timestamp":1,"value":2}`, ev.Data)
	assert.Empty(t, ev.Event)

	ev, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond", ev.Data)
	assert.Equal(t, "tick", ev.Event)
	assert.Equal(t, "7", ev.ID)
	assert.Equal(t, 1500*time.Millisecond, ev.Retry)

	ev, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, "crlf", ev.Data)
	assert.Equal(t, "7", ev.ID, "last event id carries over")

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 1500*time.Millisecond, r.Retry())
}

func TestEventReader_IgnoresInvalidRetryAndEmptyEvents(t *testing.T) {
	r := NewEventReader(strings.NewReader("retry: soon\n\nevent: nodata\n\ndata: x\n\n"))

	ev, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "x", ev.Data)
	assert.Empty(t, ev.Event, "event type resets when an event without data is dispatched")
	assert.Zero(t, ev.Retry)
}
