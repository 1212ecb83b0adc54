package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "abstat/internal/errors"
)

func TestRecorder_CountsOutcomes(t *testing.T) {
	r := NewRecorder()

	r.Observe(KindSignificance, time.Now(), nil)
	r.Observe(KindSignificance, time.Now(), nil)
	r.Observe(KindSampleSize, time.Now(), apperrors.InvalidParameter("alpha", 2, "must be in (0, 1)"))

	assert.Equal(t, 2.0, testutil.ToFloat64(r.calculations.WithLabelValues(KindSignificance, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.calculations.WithLabelValues(KindSampleSize, apperrors.CodeInvalidParameter)))
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() { r.Observe(KindBatch, time.Now(), nil) })
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder()
	r.Observe(KindBatch, time.Now(), nil)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `abstat_calculations_total{kind="batch",outcome="ok"} 1`), body)
	assert.Contains(t, body, "abstat_calculation_duration_seconds")
}
