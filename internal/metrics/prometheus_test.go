package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordStreamConnection(t *testing.T) {
	active := streamConnectionsActive.With(prometheus.Labels{"transport": "test-sse"})
	before := testutil.ToFloat64(active)

	RecordStreamConnection("test-sse")
	RecordStreamConnection("test-sse")
	assert.Equal(t, before+2, testutil.ToFloat64(active))

	RecordStreamDisconnection("test-sse", 90*time.Second)
	assert.Equal(t, before+1, testutil.ToFloat64(active))
	assert.Equal(t, 1, testutil.CollectAndCount(streamConnectionDuration))
}

func TestRecordGenerated(t *testing.T) {
	counter := generatedPointsTotal.With(prometheus.Labels{"endpoint": "test-initial"})
	before := testutil.ToFloat64(counter)

	RecordGenerated("test-initial", 500, 3*time.Millisecond)
	assert.Equal(t, before+500, testutil.ToFloat64(counter))
}

func TestRecordAggregateRequest(t *testing.T) {
	counter := aggregateRequestsTotal.With(prometheus.Labels{"period": "none"})
	before := testutil.ToFloat64(counter)

	RecordAggregateRequest("")
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestRecordHTTPRequest(t *testing.T) {
	counter := httpRequestsTotal.With(prometheus.Labels{"method": "GET", "path": "/test", "status_code": "200"})
	before := testutil.ToFloat64(counter)

	RecordHTTPRequest("GET", "/test", 200, time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
