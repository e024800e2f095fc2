package media

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"reelsmith/internal/pkg/errors"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{"plain seconds", "10.000000\n", 10 * time.Second, false},
		{"fractional", "9.876500", 9876500 * time.Microsecond, false},
		{"whitespace", "  3.5  \n", 3500 * time.Millisecond, false},
		{"empty", "", 0, true},
		{"garbage", "N/A", 0, true},
		{"zero", "0.0", 0, true},
		{"negative", "-1.0", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDuration(tt.raw, "x.mp3")
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDuration(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if err != nil {
				if errors.GetCode(err) != errors.CodeProbe {
					t.Errorf("expected PROBE_FAILED, got %s", errors.GetCode(err))
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseDuration(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestProbeWithStubBinary(t *testing.T) {
	dir := t.TempDir()
	stub := filepath.Join(dir, "ffprobe-stub")
	script := "#!/bin/sh\necho 12.340000\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	p := NewFFprobe(stub)
	got, err := p.Probe(context.Background(), "whatever.mp3")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if got != 12340*time.Millisecond {
		t.Errorf("Probe = %v, want 12.34s", got)
	}
}

func TestProbeBinaryFailure(t *testing.T) {
	dir := t.TempDir()
	stub := filepath.Join(dir, "ffprobe-stub")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\nexit 1\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	p := NewFFprobe(stub)
	_, err := p.Probe(context.Background(), "whatever.mp3")
	if err == nil {
		t.Fatal("expected error from failing prober")
	}
	if errors.GetCode(err) != errors.CodeProbe {
		t.Errorf("expected PROBE_FAILED, got %s", errors.GetCode(err))
	}
}
