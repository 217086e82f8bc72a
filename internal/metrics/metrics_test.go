package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordCacheHit(t *testing.T) {
	before := testutil.ToFloat64(cacheHits.WithLabelValues("memory"))
	RecordCacheHit("memory")
	assert.Equal(t, before+1, testutil.ToFloat64(cacheHits.WithLabelValues("memory")))
}

func TestRecordOutcome(t *testing.T) {
	before := testutil.ToFloat64(outcomes.WithLabelValues("INVALID_SCREENSHOT"))
	RecordOutcome("INVALID_SCREENSHOT")
	RecordOutcome("INVALID_SCREENSHOT")
	assert.Equal(t, before+2, testutil.ToFloat64(outcomes.WithLabelValues("INVALID_SCREENSHOT")))
}

func TestRecordRateLimited(t *testing.T) {
	before := testutil.ToFloat64(rateLimited)
	RecordRateLimited()
	assert.Equal(t, before+1, testutil.ToFloat64(rateLimited))
}
