// Package config loads service configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable of the render service.
type Config struct {
	Port string

	// Encoder supervision.
	SoftTimeout time.Duration
	HardTimeout time.Duration
	FFmpegBin   string
	FFprobeBin  string

	// Filesystem roots. All are ephemeral and safe to purge between restarts.
	CacheDir  string
	OutputDir string
	WorkDir   string
	UploadDir string

	// Upload limits.
	MaxAudioUploadBytes int64

	// Subtitle fitting bounds.
	SubMinDur       time.Duration
	SubMaxDur       time.Duration
	SubFitTolerance time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads .env (if present) and builds a Config from the environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port: GetEnv("PORT", "8080"),

		SoftTimeout: time.Duration(GetEnvInt("FFMPEG_SOFT_TIMEOUT_MS", 120000)) * time.Millisecond,
		HardTimeout: time.Duration(GetEnvInt("FFMPEG_HARD_TIMEOUT_MS", 180000)) * time.Millisecond,
		FFmpegBin:   GetEnv("FFMPEG_BIN", "ffmpeg"),
		FFprobeBin:  GetEnv("FFPROBE_BIN", "ffprobe"),

		CacheDir:  GetEnv("CACHE_DIR", "data/cache"),
		OutputDir: GetEnv("OUTPUT_DIR", "data/videos"),
		WorkDir:   GetEnv("WORK_DIR", "data/work"),
		UploadDir: GetEnv("UPLOAD_DIR", "data/uploads"),

		MaxAudioUploadBytes: int64(GetEnvInt("MAX_AUDIO_UPLOAD_MB", 40)) << 20,

		SubMinDur:       time.Duration(GetEnvInt("SUB_MIN_DUR_MS", 550)) * time.Millisecond,
		SubMaxDur:       time.Duration(GetEnvInt("SUB_MAX_DUR_MS", 2200)) * time.Millisecond,
		SubFitTolerance: time.Duration(GetEnvInt("SUB_FIT_TOLERANCE_MS", 250)) * time.Millisecond,

		LogLevel:  GetEnv("LOG_LEVEL", "info"),
		LogFormat: GetEnv("LOG_FORMAT", "json"),
	}
}

// Validate checks the timeout ordering the supervisor depends on.
func (c Config) Validate() error {
	if c.SoftTimeout <= 0 {
		return fmt.Errorf("soft timeout must be positive, got %v", c.SoftTimeout)
	}
	if c.HardTimeout <= c.SoftTimeout {
		return fmt.Errorf("hard timeout (%v) must exceed soft timeout (%v)", c.HardTimeout, c.SoftTimeout)
	}
	if c.SubMinDur <= 0 || c.SubMaxDur <= c.SubMinDur {
		return fmt.Errorf("subtitle duration bounds invalid: min=%v max=%v", c.SubMinDur, c.SubMaxDur)
	}
	return nil
}

// EnsureDirs creates every filesystem root the service writes to.
func (c Config) EnsureDirs() error {
	for _, dir := range []string{c.CacheDir, c.OutputDir, c.WorkDir, c.UploadDir} {
		if err := os.MkdirAll(filepath.Clean(dir), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// GetEnv returns the trimmed value of key, or fallback if unset or empty.
func GetEnv(key, fallback string) string {
	if s := strings.TrimSpace(os.Getenv(key)); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt returns the integer value of key, or fallback if unset, empty,
// or not a valid integer.
func GetEnvInt(key string, fallback int) int {
	if s := strings.TrimSpace(os.Getenv(key)); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}
