// Package httpapi assembles the chi router for the render service.
package httpapi

import (
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"

	"reelsmith/internal/httpapi/handlers"
	"reelsmith/internal/httpkit"
	"reelsmith/internal/pkg/logger"
	"reelsmith/internal/pkg/middleware"
)

type Deps struct {
	Handlers *handlers.Handler
	Logger   *logger.Logger

	// Metrics is mounted at /metrics when non-nil.
	Metrics http.Handler
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(d.Logger))
	r.Use(middleware.Recovery(d.Logger))

	r.Use(httpkit.CORS(httpkit.CORSOptions{
		AllowedOrigins: envCSV("CORS_ALLOWED_ORIGINS", []string{"*"}),
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Accept"},
		MaxAgeSeconds:  600,
	}))

	h := d.Handlers

	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Post("/render", h.PostRender)
	r.Get("/videos/{name}", h.GetVideo)

	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	return r
}

func envCSV(key string, def []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
