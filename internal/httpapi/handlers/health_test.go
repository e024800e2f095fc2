package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"reelsmith/internal/httpapi/handlers"
	"reelsmith/internal/pkg/logger"
)

func TestHealthDeep(t *testing.T) {
	tests := []struct {
		name       string
		checks     []handlers.HealthCheck
		wantStatus int
		wantOK     bool
	}{
		{
			name: "all checks pass",
			checks: []handlers.HealthCheck{
				func(context.Context) (string, error) { return "ffmpeg", nil },
				func(context.Context) (string, error) { return "cache_dir", nil },
			},
			wantStatus: http.StatusOK,
			wantOK:     true,
		},
		{
			name: "one check fails",
			checks: []handlers.HealthCheck{
				func(context.Context) (string, error) { return "ffmpeg", nil },
				func(context.Context) (string, error) {
					return "cache_dir", errors.New("read-only filesystem")
				},
			},
			wantStatus: http.StatusServiceUnavailable,
			wantOK:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handlers.New(handlers.Deps{
				Renderer: &fakeRenderer{},
				Logger:   logger.NewDefault(),
				Checks:   tt.checks,
			})

			req := httptest.NewRequest(http.MethodGet, "/health?deep=true", nil)
			w := httptest.NewRecorder()
			h.Health(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			body := decodeBody(t, w)
			if body["ok"] != tt.wantOK {
				t.Errorf("ok = %v, want %v", body["ok"], tt.wantOK)
			}
			if body["checks"] == nil {
				t.Error("deep health missing checks map")
			}
		})
	}
}
