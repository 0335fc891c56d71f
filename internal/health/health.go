// Package health provides HTTP liveness and readiness probes for the
// metrics listener.
//
//   - /healthz always returns 200; a running process that can serve HTTP is
//     alive.
//   - /readyz probes the upstream generation service with a one-page effect
//     listing and returns 503 when it fails.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/emberfx/emberfx/pkg/eternal"
)

// probeTimeout bounds the upstream readiness probe.
const probeTimeout = 5 * time.Second

// Pinger is the single upstream operation the readiness probe needs.
// *eternal.Client satisfies it.
type Pinger interface {
	ListEffects(ctx context.Context, effectType eternal.EffectType, page int) (*eternal.EffectPage, error)
}

// response is the JSON body of both probes.
type response struct {
	Status   string `json:"status"`
	Upstream string `json:"upstream,omitempty"`
}

// Handler serves the /healthz and /readyz endpoints.
type Handler struct {
	upstream Pinger
}

// New creates a Handler that probes upstream on each /readyz request.
func New(upstream Pinger) *Handler {
	return &Handler{upstream: upstream}
}

// Healthz is the liveness probe.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, response{Status: "ok"})
}

// Readyz is the readiness probe. It fetches the first catalogue page from
// the upstream; any error marks the server not ready.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	if _, err := h.upstream.ListEffects(ctx, "", 1); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, response{
			Status:   "fail",
			Upstream: "fail: " + err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, response{Status: "ok", Upstream: "ok"})
}

// Register adds the probe routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

// writeJSON encodes v with the given status code. On encoding failure it
// falls back to a plain 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
