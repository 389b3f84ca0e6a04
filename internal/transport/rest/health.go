package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
)

const probeTimeout = 3 * time.Second

// Check is a named dependency probe.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// HealthHandler serves the liveness, readiness and health endpoints.
type HealthHandler struct {
	checks  []Check
	version string
	clock   clockwork.Clock
	started time.Time
}

// NewHealthHandler creates a HealthHandler probing checks.
func NewHealthHandler(version string, clock clockwork.Clock, checks ...Check) *HealthHandler {
	return &HealthHandler{checks: checks, version: version, clock: clock, started: clock.Now()}
}

// HealthResponse is the JSON body of every probe.
type HealthResponse struct {
	Status     string                `json:"status"`
	Version    string                `json:"version,omitempty"`
	Uptime     string                `json:"uptime,omitempty"`
	Components map[string]CompStatus `json:"components,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}

// CompStatus is the status of an individual component.
type CompStatus struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Live always answers 200 while the process serves HTTP.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Timestamp: h.clock.Now()})
}

// Ready answers 503 as soon as any dependency fails its probe.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	_, ok := h.probe(r.Context())
	status, code := "ok", http.StatusOK
	if !ok {
		status, code = "down", http.StatusServiceUnavailable
	}
	writeJSON(w, code, HealthResponse{Status: status, Timestamp: h.clock.Now()})
}

// Health reports every dependency with its latency, plus version and uptime.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	components, ok := h.probe(r.Context())
	status, code := "ok", http.StatusOK
	if !ok {
		status, code = "down", http.StatusServiceUnavailable
	}

	now := h.clock.Now()
	writeJSON(w, code, HealthResponse{
		Status:     status,
		Version:    h.version,
		Uptime:     now.Sub(h.started).Round(time.Second).String(),
		Components: components,
		Timestamp:  now,
	})
}

func (h *HealthHandler) probe(ctx context.Context) (map[string]CompStatus, bool) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	healthy := true
	components := make(map[string]CompStatus, len(h.checks))
	for _, c := range h.checks {
		start := time.Now()
		err := c.Ping(ctx)
		latency := time.Since(start)

		if err != nil {
			healthy = false
			components[c.Name] = CompStatus{Status: "down", Error: err.Error()}
			continue
		}
		components[c.Name] = CompStatus{Status: "ok", Latency: latency.String()}
	}
	return components, healthy
}
