package monitoring

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, c.Write(m))
	return m.GetCounter().GetValue()
}

func TestObserveBacktest_CountsByOutcome(t *testing.T) {
	before := counterValue(t, backtestsTotal.WithLabelValues("maCross", "true"))
	ObserveBacktest("maCross", true, 3*time.Millisecond)
	after := counterValue(t, backtestsTotal.WithLabelValues("maCross", "true"))

	assert.Equal(t, before+1, after)
}

func TestRecordGuardBlock(t *testing.T) {
	before := counterValue(t, guardBlocksTotal.WithLabelValues("cooldown"))
	RecordGuardBlock("cooldown")
	assert.Equal(t, before+1, counterValue(t, guardBlocksTotal.WithLabelValues("cooldown")))
}

func TestHealthChecker_DegradesOnProviderError(t *testing.T) {
	h := NewHealthChecker()
	assert.Equal(t, "healthy", h.Status().Status)

	for i := 0; i < maxHealthErrors+5; i++ {
		h.providerError("news", errors.New("timeout"))
	}
	st := h.Status()
	assert.Equal(t, "degraded", st.Status)
	assert.Len(t, st.Errors, maxHealthErrors)
}

func TestServeMux_Endpoints(t *testing.T) {
	mux := NewServeMux()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "strategylab_autotune_best_score")

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	var st HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.NotEmpty(t, st.Uptime)
}
