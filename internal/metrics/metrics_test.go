package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetricsExposition(t *testing.T) {
	m := New()
	m.Rejections.WithLabelValues("withdrawal", "insufficient_balance").Inc()
	m.Submissions.WithLabelValues("deposit").Add(2)

	require.Equal(t, float64(1), testutil.ToFloat64(m.Rejections.WithLabelValues("withdrawal", "insufficient_balance")))
	require.Equal(t, float64(2), testutil.ToFloat64(m.Submissions.WithLabelValues("deposit")))

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), `ledger_rejections_total{kind="withdrawal",reason="insufficient_balance"} 1`))
}

func TestNewIsolatedRegistries(t *testing.T) {
	// two instances must not collide on registration
	a := New()
	b := New()
	a.Submissions.WithLabelValues("deposit").Inc()
	require.Equal(t, float64(0), testutil.ToFloat64(b.Submissions.WithLabelValues("deposit")))
}
