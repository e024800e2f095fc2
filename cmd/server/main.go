package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"time"

	"reelsmith/internal/assets"
	"reelsmith/internal/config"
	"reelsmith/internal/encoder"
	"reelsmith/internal/gate"
	"reelsmith/internal/httpapi"
	"reelsmith/internal/httpapi/handlers"
	"reelsmith/internal/media"
	"reelsmith/internal/pkg/logger"
	"reelsmith/internal/pkg/metrics"
	"reelsmith/internal/pkg/shutdown"
	"reelsmith/internal/render"
	"reelsmith/internal/storage"
	"reelsmith/internal/subtitles"
)

func main() {
	cfg := config.Load()

	log := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: "reelsmith",
		AddSource:   config.GetEnv("LOG_SOURCE", "false") == "true",
	})

	log.Info("starting reelsmith",
		"version", "0.1.0",
	)

	if err := cfg.Validate(); err != nil {
		log.LogFatal("invalid configuration", err)
	}
	if err := cfg.EnsureDirs(); err != nil {
		log.LogFatal("failed to create data directories", err)
	}

	// Fail at startup rather than on the first render if the encoder
	// binaries are not installed.
	for _, bin := range []string{cfg.FFmpegBin, cfg.FFprobeBin} {
		if _, err := exec.LookPath(bin); err != nil {
			log.LogFatal("encoder binary not found", err)
		}
	}

	shutdownMgr := shutdown.NewManager(log, 30*time.Second)

	log.Info("initializing storage provider")
	sp, err := storage.NewProvider()
	if err != nil {
		log.LogFatal("failed to initialize storage provider", err)
	}
	var publisher render.Publisher
	if sp != nil {
		publisher = storage.NewObjectPublisher(sp)
		log.Info("storage provider initialized", "provider", sp.Provider())
	} else {
		log.Info("publishing disabled, serving renders locally")
	}

	m := metrics.New()
	g := gate.New()

	orch := render.New(render.Config{
		Resolver:    assets.NewCache(cfg.CacheDir, log, assets.WithMetrics(m)),
		Prober:      media.NewFFprobe(cfg.FFprobeBin),
		Fitter:      subtitles.NewFitter(cfg.SubMinDur, cfg.SubMaxDur, cfg.SubFitTolerance),
		Encoder:     encoder.NewSupervisor(cfg.FFmpegBin, log),
		Gate:        g,
		Publisher:   publisher,
		Recorder:    m,
		WorkDir:     cfg.WorkDir,
		OutputDir:   cfg.OutputDir,
		SoftTimeout: cfg.SoftTimeout,
		HardTimeout: cfg.HardTimeout,
		Logger:      log,
	})

	h := handlers.New(handlers.Deps{
		Renderer: orch,
		Recorder: m,
		Config:   cfg,
		Logger:   log,
		Checks:   healthChecks(cfg),
	})

	router := httpapi.NewRouter(httpapi.Deps{
		Handlers: h,
		Logger:   log,
		Metrics: m.Handler(func() {
			m.SetEncoderBusy(g.Busy())
		}),
	})

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.HardTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdownMgr.Register("http-server", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return server.Shutdown(ctx)
	})

	go func() {
		log.Info("HTTP server listening",
			"addr", server.Addr,
			"port", cfg.Port,
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogFatal("HTTP server failed", err)
		}
	}()

	shutdownMgr.Wait()
}

// healthChecks builds the deep-health probes: encoder binaries resolvable
// and every data root writable.
func healthChecks(cfg config.Config) []handlers.HealthCheck {
	binCheck := func(name, bin string) handlers.HealthCheck {
		return func(ctx context.Context) (string, error) {
			_, err := exec.LookPath(bin)
			return name, err
		}
	}
	dirCheck := func(name, dir string) handlers.HealthCheck {
		return func(ctx context.Context) (string, error) {
			probe := dir + "/.healthcheck"
			if err := os.WriteFile(probe, nil, 0o644); err != nil {
				return name, fmt.Errorf("root not writable: %w", err)
			}
			os.Remove(probe)
			return name, nil
		}
	}
	return []handlers.HealthCheck{
		binCheck("ffmpeg", cfg.FFmpegBin),
		binCheck("ffprobe", cfg.FFprobeBin),
		dirCheck("cache_dir", cfg.CacheDir),
		dirCheck("output_dir", cfg.OutputDir),
		dirCheck("work_dir", cfg.WorkDir),
		dirCheck("upload_dir", cfg.UploadDir),
	}
}
