// Package compose synthesizes the composition program for the external
// encoder: a time-gated filtergraph plus the full argument list.
package compose

import (
	"fmt"
	"time"
)

// Tail is the fixed end-card hold appended after the audio ends.
const Tail = 4 * time.Second

// Spec is the validated output geometry.
type Spec struct {
	Width  int
	Height int
	FPS    int
}

// Request carries everything the builder needs. Asset paths are local
// files already resolved by the cache; durations come from the probe.
type Request struct {
	Spec Spec

	BackgroundPath string
	EndCardPath    string
	CardPaths      []string
	AudioPath      string

	Title  string
	Footer string

	// SubtitlePath is the SRT to burn in; empty disables the burn.
	SubtitlePath string

	AudioDur time.Duration
	VideoDur time.Duration

	OutputPath string
}

// Program is the complete composition program for one render.
type Program struct {
	Graph string
	Args  []string
}

// VideoDuration returns the total output duration for a given audio length.
func VideoDuration(audioDur time.Duration) time.Duration {
	return audioDur + Tail
}

// Build synthesizes the filtergraph and encoder argument list.
//
// Visual timeline: subtitles and the title/footer text are visible only
// while the audio plays (t < A); the end card covers the full frame for
// the tail (A <= t < V).
func Build(req Request) (Program, error) {
	if err := validate(req); err != nil {
		return Program{}, err
	}

	a := fmtSec(req.AudioDur)
	v := fmtSec(req.VideoDur)
	w, h := req.Spec.Width, req.Spec.Height

	var g graph
	cur := "bg"

	fill := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,setsar=1", w, h, w, h)
	if err := g.add(fill, []string{"0:v"}, []string{cur}); err != nil {
		return Program{}, err
	}

	if req.SubtitlePath != "" {
		burn := fmt.Sprintf("subtitles='%s'", EscapeFilterPath(req.SubtitlePath))
		if err := g.add(burn, []string{cur}, []string{"sub"}); err != nil {
			return Program{}, err
		}
		cur = "sub"
	}

	duringAudio := escapeEnableExpr(fmt.Sprintf("lt(t,%s)", a))

	if req.Title != "" {
		title := fmt.Sprintf(
			"drawtext=text='%s':fontcolor=white:fontsize=%d:borderw=3:bordercolor=black:x=(w-text_w)/2:y=%d:enable='%s'",
			EscapeDrawtext(req.Title), h/18, h/12, duringAudio)
		if err := g.add(title, []string{cur}, []string{"ttl"}); err != nil {
			return Program{}, err
		}
		cur = "ttl"
	}

	if req.Footer != "" {
		footer := fmt.Sprintf(
			"drawtext=text='%s':fontcolor=white:fontsize=%d:borderw=2:bordercolor=black:x=(w-text_w)/2:y=h-%d:enable='%s'",
			EscapeDrawtext(req.Footer), h/36, h/10, duringAudio)
		if err := g.add(footer, []string{cur}, []string{"ftr"}); err != nil {
			return Program{}, err
		}
		cur = "ftr"
	}

	// Cards split the audio window into equal visibility slices.
	cardCount := len(req.CardPaths)
	for i := range req.CardPaths {
		in := fmt.Sprintf("%d:v", 2+i)
		scaled := fmt.Sprintf("card%d", i)
		if err := g.add(fmt.Sprintf("scale=%d:-1", w*3/4), []string{in}, []string{scaled}); err != nil {
			return Program{}, err
		}

		sliceStart := req.AudioDur * time.Duration(i) / time.Duration(cardCount)
		sliceEnd := req.AudioDur * time.Duration(i+1) / time.Duration(cardCount)
		gate := escapeEnableExpr(fmt.Sprintf("between(t,%s,%s)", fmtSec(sliceStart), fmtSec(sliceEnd)))

		out := fmt.Sprintf("vc%d", i)
		overlay := fmt.Sprintf("overlay=(W-w)/2:(H-h)/2:enable='%s'", gate)
		if err := g.add(overlay, []string{cur, scaled}, []string{out}); err != nil {
			return Program{}, err
		}
		cur = out
	}

	if err := g.add(fill, []string{"1:v"}, []string{"end"}); err != nil {
		return Program{}, err
	}
	tailGate := escapeEnableExpr(fmt.Sprintf("between(t,%s,%s)", a, v))
	endOverlay := fmt.Sprintf("overlay=0:0:enable='%s'", tailGate)
	if err := g.add(endOverlay, []string{cur, "end"}, []string{"vout"}); err != nil {
		return Program{}, err
	}

	graphExpr := g.serialize()
	audioIdx := 2 + cardCount

	args := []string{"-y"}
	args = append(args, "-loop", "1", "-framerate", fmt.Sprintf("%d", req.Spec.FPS), "-i", req.BackgroundPath)
	args = append(args, "-loop", "1", "-framerate", fmt.Sprintf("%d", req.Spec.FPS), "-i", req.EndCardPath)
	for _, card := range req.CardPaths {
		args = append(args, "-loop", "1", "-framerate", fmt.Sprintf("%d", req.Spec.FPS), "-i", card)
	}
	args = append(args, "-i", req.AudioPath)
	args = append(args,
		"-filter_complex", graphExpr,
		"-map", "[vout]",
		"-map", fmt.Sprintf("%d:a", audioIdx),
		"-t", v,
		"-r", fmt.Sprintf("%d", req.Spec.FPS),
		"-pix_fmt", "yuv420p",
		"-c:v", "libx264", "-preset", "ultrafast", "-tune", "stillimage", "-threads", "1",
		"-c:a", "aac", "-b:a", "192k",
		"-movflags", "+faststart",
		"-progress", "pipe:2", "-nostats", "-loglevel", "error",
		req.OutputPath,
	)

	return Program{Graph: graphExpr, Args: args}, nil
}

func validate(req Request) error {
	switch {
	case req.Spec.Width <= 0 || req.Spec.Height <= 0 || req.Spec.FPS <= 0:
		return fmt.Errorf("invalid spec %dx%d@%d", req.Spec.Width, req.Spec.Height, req.Spec.FPS)
	case req.BackgroundPath == "":
		return fmt.Errorf("background path required")
	case req.EndCardPath == "":
		return fmt.Errorf("end card path required")
	case req.AudioPath == "":
		return fmt.Errorf("audio path required")
	case req.OutputPath == "":
		return fmt.Errorf("output path required")
	case req.AudioDur <= 0:
		return fmt.Errorf("audio duration must be positive")
	case req.VideoDur <= req.AudioDur:
		return fmt.Errorf("video duration must exceed audio duration")
	case len(req.CardPaths) > 3:
		return fmt.Errorf("at most 3 card images, got %d", len(req.CardPaths))
	}
	return nil
}

// fmtSec formats a duration in seconds with millisecond precision, the
// way the encoder expects time values.
func fmtSec(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
