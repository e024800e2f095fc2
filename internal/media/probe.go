// Package media wraps the external duration prober.
package media

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"reelsmith/internal/pkg/errors"
)

// Prober measures the duration of a media file. The ffprobe-backed
// implementation below is the production one; tests substitute fakes.
type Prober interface {
	Probe(ctx context.Context, path string) (time.Duration, error)
}

// FFprobe shells out to the ffprobe binary.
type FFprobe struct {
	Bin string
}

// NewFFprobe returns a prober using the given binary ("ffprobe" if empty).
func NewFFprobe(bin string) *FFprobe {
	if bin == "" {
		bin = "ffprobe"
	}
	return &FFprobe{Bin: bin}
}

// Probe returns the container-format duration of the file at path.
func (f *FFprobe) Probe(ctx context.Context, path string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, f.Bin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, errors.Probe(path, err)
	}

	return ParseDuration(string(out), path)
}

// ParseDuration converts ffprobe's seconds output to a duration.
func ParseDuration(raw, path string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Probe(path, fmt.Errorf("parse duration %q: %w", s, err))
	}
	if sec <= 0 {
		return 0, errors.Probe(path, fmt.Errorf("non-positive duration %v", sec))
	}
	return time.Duration(sec * float64(time.Second)), nil
}
