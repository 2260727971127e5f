package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveRequest(t *testing.T) {
	okBefore := testutil.ToFloat64(RecommendRequests.WithLabelValues(PathPopular, "ok"))
	errBefore := testutil.ToFloat64(RecommendRequests.WithLabelValues(PathPopular, "error"))

	ObserveRequest(PathPopular, time.Now(), nil)
	ObserveRequest(PathPopular, time.Now(), errors.New("boom"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(RecommendRequests.WithLabelValues(PathPopular, "ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(RecommendRequests.WithLabelValues(PathPopular, "error")))
}
