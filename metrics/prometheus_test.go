package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestPrometheusMetricsObserveDropped(t *testing.T) {
	m := NewPrometheusMetrics("blockberry_test_dropped")
	m.ObserveDropped("continuity")
	m.ObserveDropped("continuity")
	m.ObserveDropped("view_factory_error")

	require.Equal(t, float64(2), counterValue(t, m.dropped.WithLabelValues("continuity")))
	require.Equal(t, float64(1), counterValue(t, m.dropped.WithLabelValues("view_factory_error")))
}

func TestPrometheusMetricsObserveVerifiedAndSigned(t *testing.T) {
	m := NewPrometheusMetrics("blockberry_test_verified")
	m.ObserveVerified(3)
	m.ObserveVerified(0)
	m.ObserveSigned()

	require.Equal(t, float64(2), counterValue(t, m.verified))
	require.Equal(t, float64(1), counterValue(t, m.signed))
}

func TestPrometheusMetricsObserveSigningFailure(t *testing.T) {
	m := NewPrometheusMetrics("blockberry_test_signing_failure")
	m.ObserveSigningFailure()

	require.Equal(t, float64(1), counterValue(t, m.signingFailures))
}

func TestPrometheusMetricsHandlerServesExposition(t *testing.T) {
	m := NewPrometheusMetrics("blockberry_test_handler")
	m.ObserveSigned()

	require.NotNil(t, m.Handler())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "blockberry_test_handler_blocks_signed_total 1")
}
