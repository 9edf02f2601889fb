package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveRequest(t *testing.T) {
	successBefore := testutil.ToFloat64(RequestsTotal.WithLabelValues("get", "success"))
	errorBefore := testutil.ToFloat64(RequestsTotal.WithLabelValues("get", "error"))

	ObserveRequest("get", time.Now(), nil)
	ObserveRequest("get", time.Now(), errors.New("boom"))

	assert.Equal(t, successBefore+1, testutil.ToFloat64(RequestsTotal.WithLabelValues("get", "success")))
	assert.Equal(t, errorBefore+1, testutil.ToFloat64(RequestsTotal.WithLabelValues("get", "error")))
}

func TestConflictsResolved(t *testing.T) {
	before := testutil.ToFloat64(ConflictsResolved)
	ConflictsResolved.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(ConflictsResolved))
}
