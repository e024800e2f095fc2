// Package handlers implements the HTTP endpoints of the render service.
package handlers

import (
	"context"

	"reelsmith/internal/config"
	"reelsmith/internal/pkg/logger"
	"reelsmith/internal/render"
)

// Renderer is the orchestrator surface the handlers drive.
type Renderer interface {
	Render(ctx context.Context, job *render.Job) (*render.Result, error)
}

// Recorder is the slice of the metrics surface the handlers touch.
type Recorder interface {
	IncBusyRejections()
}

// HealthCheck reports the readiness of one dependency, keyed by name.
type HealthCheck func(ctx context.Context) (name string, err error)

type Deps struct {
	Renderer Renderer
	Recorder Recorder
	Config   config.Config
	Logger   *logger.Logger

	// Checks run on GET /health?deep=true.
	Checks []HealthCheck
}

type Handler struct {
	renderer Renderer
	rec      Recorder
	cfg      config.Config
	log      *logger.Logger
	checks   []HealthCheck
}

func New(d Deps) *Handler {
	return &Handler{
		renderer: d.Renderer,
		rec:      d.Recorder,
		cfg:      d.Config,
		log:      d.Logger.WithComponent("httpapi"),
		checks:   d.Checks,
	}
}
