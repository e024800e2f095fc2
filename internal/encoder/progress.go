// Package encoder supervises the external media encoder subprocess.
package encoder

import (
	"strconv"
	"strings"
	"time"
)

// ProgressSample is a point-in-time snapshot parsed from the encoder's
// progress stream. Samples are retained for diagnostics only; control
// decisions use wall-clock timers, never sample arrival.
type ProgressSample struct {
	TMS       int64   `json:"t_ms"`
	OutTimeMS int64   `json:"out_time_ms"`
	Speed     string  `json:"speed"`
	FPS       float64 `json:"fps"`
	Frame     int64   `json:"frame"`
	Progress  string  `json:"progress"`
}

// ringSize bounds the retained sample history.
const ringSize = 32

// progressParser accumulates key=value lines into a last-known record and
// flushes a sample into the ring each time the encoder emits its
// per-flush progress sentinel.
type progressParser struct {
	start   time.Time
	current ProgressSample
	last    ProgressSample
	ring    []ProgressSample
	sampled bool
}

func newProgressParser(start time.Time) *progressParser {
	return &progressParser{start: start}
}

// feed consumes one stream line. It reports whether the line was a
// recognized progress key; unrecognized lines belong to the error tail.
func (p *progressParser) feed(line string, now time.Time) bool {
	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return false
	}
	value = strings.TrimSpace(value)

	switch key {
	case "out_time_ms":
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			p.current.OutTimeMS = n
		}
	case "speed":
		p.current.Speed = value
	case "fps":
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			p.current.FPS = f
		}
	case "frame":
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			p.current.Frame = n
		}
	case "progress":
		// The sentinel closes one flush of the stream: snapshot it.
		p.current.Progress = value
		p.current.TMS = now.Sub(p.start).Milliseconds()
		p.last = p.current
		p.sampled = true
		p.ring = append(p.ring, p.current)
		if len(p.ring) > ringSize {
			p.ring = p.ring[len(p.ring)-ringSize:]
		}
	default:
		return false
	}
	return true
}

// Last returns the most recent complete sample and whether one exists.
func (p *progressParser) Last() (ProgressSample, bool) {
	return p.last, p.sampled
}

// Samples returns the retained ring, oldest first.
func (p *progressParser) Samples() []ProgressSample {
	out := make([]ProgressSample, len(p.ring))
	copy(out, p.ring)
	return out
}
