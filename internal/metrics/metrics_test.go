package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordSubmission(t *testing.T) {
	before := testutil.ToFloat64(ReportsSubmitted.WithLabelValues("stored"))
	RecordSubmission("stored")
	assert.Equal(t, before+1, testutil.ToFloat64(ReportsSubmitted.WithLabelValues("stored")))
}

func TestRecordRecompute_CountsFailures(t *testing.T) {
	before := testutil.ToFloat64(StatsRecomputeFailures)
	RecordRecompute(time.Millisecond, nil)
	RecordRecompute(time.Millisecond, errors.New("boom"))
	assert.Equal(t, before+1, testutil.ToFloat64(StatsRecomputeFailures))
}

func TestRecordHTTPRequest(t *testing.T) {
	RecordHTTPRequest("GET", "/bars/{barID}", 200, 5*time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(HTTPRequestDuration, "barpulse_http_request_duration_seconds"))
}
