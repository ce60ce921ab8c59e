package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

var startTime = time.Now()

// HealthChecker tracks engine liveness: when the last sweep finished, whether
// the bridge is reachable, and recent errors.
type HealthChecker struct {
	mu              sync.RWMutex
	lastSweep       time.Time
	bridgeConnected bool
	staleAfter      time.Duration
	errors          []string
}

// HealthStatus is the JSON body of the health endpoint.
type HealthStatus struct {
	Status          string    `json:"status"`
	Timestamp       time.Time `json:"timestamp"`
	LastSweep       time.Time `json:"last_sweep"`
	BridgeConnected bool      `json:"bridge_connected"`
	Uptime          string    `json:"uptime"`
	Errors          []string  `json:"errors,omitempty"`
}

// NewHealthChecker creates a health checker; staleAfter is how long without a
// completed sweep counts as degraded (typically a few sweep intervals).
func NewHealthChecker(staleAfter time.Duration) *HealthChecker {
	return &HealthChecker{
		staleAfter: staleAfter,
		errors:     make([]string, 0),
	}
}

// ServeHTTP serves the health endpoint.
func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	code := http.StatusOK
	if !h.bridgeConnected || time.Since(h.lastSweep) > h.staleAfter {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	if len(h.errors) > 0 {
		status = "unhealthy"
		code = http.StatusInternalServerError
	}

	health := HealthStatus{
		Status:          status,
		Timestamp:       time.Now(),
		LastSweep:       h.lastSweep,
		BridgeConnected: h.bridgeConnected,
		Uptime:          time.Since(startTime).String(),
		Errors:          h.errors,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(health)
}

// UpdateLastSweep marks a completed sweep and clears accumulated errors.
func (h *HealthChecker) UpdateLastSweep(t time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastSweep = t
	h.errors = h.errors[:0]
}

// SetBridgeConnected records bridge reachability.
func (h *HealthChecker) SetBridgeConnected(connected bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bridgeConnected = connected
}

// AddError appends an error to the health report, keeping the last few.
func (h *HealthChecker) AddError(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors = append(h.errors, msg)
	if len(h.errors) > 10 {
		h.errors = h.errors[len(h.errors)-10:]
	}
}
