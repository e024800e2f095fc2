package subtitles

import (
	"fmt"
	"os"
	"strings"
)

// WriteSRT writes the fitted lines as a SubRip file at path.
func WriteSRT(path string, lines []Line) error {
	var b strings.Builder
	for i, l := range lines {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n",
			i+1, srtTimestamp(l.StartMS), srtTimestamp(l.EndMS), l.Text)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// srtTimestamp formats milliseconds as HH:MM:SS,mmm.
func srtTimestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	h := ms / 3600000
	m := (ms % 3600000) / 60000
	s := (ms % 60000) / 1000
	rem := ms % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, rem)
}
