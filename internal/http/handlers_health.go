package httpx

import (
	"context"
	"net/http"
	"time"
)

// Pinger is anything that can report liveness of a backing store.
// The Redis session store satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlers exposes liveness and readiness endpoints. Both are
// exempt from the access pipeline.
type HealthHandlers struct {
	Store Pinger
}

// Healthz reports process liveness.
// GET|HEAD /healthz.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz reports whether the session store is reachable, so load
// balancers stop routing to an instance that cannot answer auth
// decisions.
// GET /readyz.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.Store.Ping(ctx); err != nil {
			WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"error":  "session store unreachable",
			})
			return
		}
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
