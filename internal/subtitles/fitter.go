// Package subtitles normalizes a raw subtitle timeline and rescales it to
// match the measured audio duration exactly.
package subtitles

import (
	"math"
	"sort"
	"strings"
	"time"
)

// Line is one subtitle cue in integer milliseconds.
type Line struct {
	StartMS int64  `json:"start_ms"`
	EndMS   int64  `json:"end_ms"`
	Text    string `json:"text"`
}

// DurationMS returns the cue duration in milliseconds.
func (l Line) DurationMS() int64 {
	return l.EndMS - l.StartMS
}

// Default bounds for fitted cue durations.
const (
	DefaultMinDur    = 550 * time.Millisecond
	DefaultMaxDur    = 2200 * time.Millisecond
	DefaultTolerance = 250 * time.Millisecond

	// floorDur replaces a malformed cue whose end precedes its start.
	floorDur = 180 * time.Millisecond
)

// Fitter rescales subtitle timelines onto a target duration while keeping
// each cue within readable bounds.
type Fitter struct {
	minDur    int64
	maxDur    int64
	tolerance int64
}

// NewFitter creates a fitter with the given bounds. Zero values fall back
// to the defaults.
func NewFitter(minDur, maxDur, tolerance time.Duration) *Fitter {
	if minDur <= 0 {
		minDur = DefaultMinDur
	}
	if maxDur <= 0 {
		maxDur = DefaultMaxDur
	}
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Fitter{
		minDur:    minDur.Milliseconds(),
		maxDur:    maxDur.Milliseconds(),
		tolerance: tolerance.Milliseconds(),
	}
}

// Fit maps rawLines onto audioDur. The result is contiguous, starts at 0,
// every cue duration lies in [minDur, maxDur], and the last cue ends at
// audioDur exactly.
//
// The clamp -> scale -> clamp sequence is intentionally not iterated to a
// fixed point: naive scaling can push individual durations outside bounds,
// so the clamp pass runs once more on the scaled lines and the final cue
// end is pinned to the target.
func (f *Fitter) Fit(rawLines []Line, audioDur time.Duration) []Line {
	lines := normalize(rawLines)
	if len(lines) == 0 {
		return nil
	}

	lines = f.clampAndSequence(lines)

	target := audioDur.Milliseconds()
	lastEnd := lines[len(lines)-1].EndMS

	if abs(lastEnd-target) <= f.tolerance {
		lines[len(lines)-1].EndMS = target
		return lines
	}

	scale := float64(target) / float64(lastEnd)
	for i := range lines {
		lines[i].StartMS = int64(math.Round(float64(lines[i].StartMS) * scale))
		lines[i].EndMS = int64(math.Round(float64(lines[i].EndMS) * scale))
	}

	lines = f.clampAndSequence(lines)
	lines[len(lines)-1].EndMS = target
	return lines
}

// normalize drops empty cues, clamps negative times, sorts by start, and
// repairs overlapping or inverted cue boundaries.
func normalize(raw []Line) []Line {
	out := make([]Line, 0, len(raw))
	for _, l := range raw {
		text := strings.TrimSpace(l.Text)
		if text == "" {
			continue
		}
		if l.StartMS < 0 {
			l.StartMS = 0
		}
		if l.EndMS < 0 {
			l.EndMS = 0
		}
		l.Text = text
		out = append(out, l)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartMS < out[j].StartMS
	})

	floor := floorDur.Milliseconds()
	var prevEnd int64
	for i := range out {
		if out[i].StartMS < prevEnd {
			out[i].StartMS = prevEnd
		}
		if out[i].EndMS <= out[i].StartMS {
			out[i].EndMS = out[i].StartMS + floor
		}
		prevEnd = out[i].EndMS
	}

	return out
}

// clampAndSequence recomputes each cue as [cursor, cursor+clampedDur],
// which makes the sequence contiguous from 0 as a side effect.
func (f *Fitter) clampAndSequence(lines []Line) []Line {
	var cursor int64
	out := make([]Line, len(lines))
	for i, l := range lines {
		d := l.DurationMS()
		if d < f.minDur {
			d = f.minDur
		}
		if d > f.maxDur {
			d = f.maxDur
		}
		out[i] = Line{StartMS: cursor, EndMS: cursor + d, Text: l.Text}
		cursor += d
	}
	return out
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
