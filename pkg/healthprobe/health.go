package healthprobe

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// Probe tracks process liveness and readiness for the HTTP health endpoints.
// Liveness holds for the lifetime of the process; readiness starts false and
// is flipped by the application once every component is running.
type Probe struct {
	startedAt time.Time
	ready     atomic.Bool
}

// New creates a probe with readiness unset.
func New() *Probe {
	return &Probe{
		startedAt: time.Now(),
	}
}

// SetReady updates the readiness flag.
func (p *Probe) SetReady(ready bool) {
	p.ready.Store(ready)
}

// IsReady reports whether the application has finished starting.
func (p *Probe) IsReady() bool {
	return p.ready.Load()
}

// Uptime returns the time elapsed since the probe was created.
func (p *Probe) Uptime() time.Duration {
	return time.Since(p.startedAt)
}

// Status is the response payload for the health and readiness endpoints.
type Status struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Message string `json:"message,omitempty"`
}

// Health returns an HTTP handler for liveness checks. It always reports
// healthy: a process that can answer the request is alive.
func (p *Probe) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p.writeStatus(w, http.StatusOK, Status{
			Status: "healthy",
			Uptime: p.Uptime().String(),
		})
	}
}

// Ready returns an HTTP handler for readiness checks. It reports 503 until
// SetReady(true) so load balancers hold traffic during startup.
func (p *Probe) Ready() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !p.ready.Load() {
			p.writeStatus(w, http.StatusServiceUnavailable, Status{
				Status:  "not_ready",
				Uptime:  p.Uptime().String(),
				Message: "application is starting",
			})
			return
		}

		p.writeStatus(w, http.StatusOK, Status{
			Status: "ready",
			Uptime: p.Uptime().String(),
		})
	}
}

func (p *Probe) writeStatus(w http.ResponseWriter, code int, status Status) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(status)
}
