package handlers

import (
	"net/http"

	"reelsmith/internal/httpkit"
)

// Root is the plain-text liveness marker.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("reelsmith render service\n"))
}

// Health reports service health. With ?deep=true it also runs the
// registered dependency checks (encoder binaries, filesystem roots).
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("deep") != "true" {
		httpkit.WriteOK(w, nil)
		return
	}

	ctx := r.Context()
	checks := make(map[string]any, len(h.checks))
	healthy := true
	for _, check := range h.checks {
		name, err := check(ctx)
		if err != nil {
			healthy = false
			checks[name] = map[string]any{"status": "failed", "error": err.Error()}
			h.log.WithError(err).Warn("health check failed", "check", name)
		} else {
			checks[name] = map[string]any{"status": "ok"}
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	httpkit.WriteJSON(w, status, map[string]any{
		"ok":     healthy,
		"checks": checks,
	})
}
