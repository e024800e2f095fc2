package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"reelsmith/internal/httpkit"
	"reelsmith/internal/pkg/errors"
)

// GetVideo serves a finished render from the output root. Responses are
// never cached so a re-rendered job ID is always fetched fresh.
func (h *Handler) GetVideo(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name != filepath.Base(name) || !strings.HasSuffix(name, ".mp4") {
		httpkit.WriteError(w, errors.New(errors.CodeNotFound, "video not found"), nil)
		return
	}

	path := filepath.Join(h.cfg.OutputDir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		httpkit.WriteError(w, errors.New(errors.CodeNotFound, "video not found"), nil)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "video/mp4")
	http.ServeFile(w, r, path)
}
