package monitoring

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const maxHealthErrors = 20

var (
	startTime = time.Now()
	health    = NewHealthChecker()
)

type HealthChecker struct {
	mu           sync.RWMutex
	lastBacktest time.Time
	lastDecision time.Time
	backtests    int64
	decisions    int64
	errors       []string
}

type HealthStatus struct {
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
	LastBacktest time.Time `json:"last_backtest"`
	LastDecision time.Time `json:"last_decision"`
	Backtests    int64     `json:"backtests"`
	Decisions    int64     `json:"decisions"`
	Uptime       string    `json:"uptime"`
	Errors       []string  `json:"errors,omitempty"`
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		errors: make([]string, 0),
	}
}

// Health returns the process-wide checker fed by the Record/Observe helpers.
func Health() *HealthChecker {
	return health
}

func (h *HealthChecker) backtestRan() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastBacktest = time.Now()
	h.backtests++
}

func (h *HealthChecker) decisionMade() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastDecision = time.Now()
	h.decisions++
}

func (h *HealthChecker) providerError(provider string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors = append(h.errors, fmt.Sprintf("%s: %s: %v", time.Now().UTC().Format(time.RFC3339), provider, err))
	if len(h.errors) > maxHealthErrors {
		h.errors = h.errors[len(h.errors)-maxHealthErrors:]
	}
}

// Status reports the current health snapshot. Provider errors degrade the
// status; the engine itself keeps working without providers.
func (h *HealthChecker) Status() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	if len(h.errors) > 0 {
		status = "degraded"
	}
	errs := make([]string, len(h.errors))
	copy(errs, h.errors)

	return HealthStatus{
		Status:       status,
		Timestamp:    time.Now(),
		LastBacktest: h.lastBacktest,
		LastDecision: h.lastDecision,
		Backtests:    h.backtests,
		Decisions:    h.decisions,
		Uptime:       time.Since(startTime).String(),
		Errors:       errs,
	}
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.Status()
	w.Header().Set("Content-Type", "application/json")
	if status.Status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(status)
}

// NewServeMux exposes /metrics and /healthz.
func NewServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", NewMetricsHandler())
	mux.Handle("/healthz", health)
	return mux
}
