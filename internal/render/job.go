// Package render composes the full request lifecycle: asset resolution,
// probing, subtitle fitting, program building, admission, encoding.
package render

import (
	"strings"

	"reelsmith/internal/compose"
	"reelsmith/internal/encoder"
	"reelsmith/internal/pkg/errors"
	"reelsmith/internal/subtitles"
)

// Default output geometry for short vertical video.
const (
	DefaultWidth  = 1080
	DefaultHeight = 1920
	DefaultFPS    = 30

	maxCardImages = 3
)

// Job is one validated render request. It owns its staged audio file and
// every artifact derived during the pipeline; all of it is unlinked when
// the request completes, success or not.
type Job struct {
	ID string

	Spec compose.Spec

	BackgroundURL string
	EndCardURL    string
	CardURLs      []string

	Title  string
	Footer string

	Lines            []subtitles.Line
	DisableSubtitles bool

	// AudioPath is the staged upload, owned by this job.
	AudioPath string
}

// Result is the successful (or partially diagnostic) outcome of a render.
type Result struct {
	DownloadURL string

	AudioMS   int64
	VideoMS   int64
	ElapsedMS int64

	Last    *encoder.ProgressSample
	Samples []encoder.ProgressSample

	DisableSubtitles bool
}

// Validate applies defaults and checks the invariants the pipeline
// depends on. It must be called before Render.
func (j *Job) Validate() error {
	if j.Spec.Width <= 0 {
		j.Spec.Width = DefaultWidth
	}
	if j.Spec.Height <= 0 {
		j.Spec.Height = DefaultHeight
	}
	if j.Spec.FPS <= 0 {
		j.Spec.FPS = DefaultFPS
	}

	if strings.TrimSpace(j.BackgroundURL) == "" {
		return errors.ValidationField("assets.base_background_url", "missing required asset URL")
	}
	if strings.TrimSpace(j.EndCardURL) == "" {
		return errors.ValidationField("assets.end_card_url", "missing required asset URL")
	}
	if len(j.CardURLs) > maxCardImages {
		return errors.Validationf("at most %d card images allowed, got %d", maxCardImages, len(j.CardURLs))
	}
	if len(j.Lines) == 0 {
		return errors.ValidationField("subtitles.lines", "at least one subtitle line required")
	}
	if j.AudioPath == "" {
		return errors.ValidationField("audio", "staged audio file missing")
	}
	return nil
}
