// Package assets provides a content-addressed download cache for remote
// image assets. Entries are keyed by the SHA-1 of the source URL so the
// filenames stay filesystem-safe regardless of what the URL looks like.
package assets

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"reelsmith/internal/pkg/errors"
	"reelsmith/internal/pkg/logger"
)

const fetchTimeout = 30 * time.Second

// recognizedExts lists every extension a cached entry may carry. Lookup
// order matters only for the existence check; writes pick one extension.
var recognizedExts = []string{".jpg", ".png", ".webp", ".gif", ".bin"}

// Recorder receives cache hit/miss counts. Satisfied by *metrics.Metrics.
type Recorder interface {
	IncCacheHit()
	IncCacheMiss()
}

// Cache downloads remote assets once and reuses them indefinitely.
// Entries are immutable after the write-then-rename commit; there is no
// eviction because the set of template URLs is small and stable.
type Cache struct {
	root    string
	client  *http.Client
	log     *logger.Logger
	metrics Recorder
}

// Option configures a Cache.
type Option func(*Cache)

// WithHTTPClient replaces the HTTP client, mainly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(cache *Cache) { cache.client = c }
}

// WithMetrics attaches a hit/miss recorder.
func WithMetrics(r Recorder) Option {
	return func(cache *Cache) { cache.metrics = r }
}

// NewCache creates a cache rooted at dir.
func NewCache(dir string, log *logger.Logger, opts ...Option) *Cache {
	c := &Cache{
		root:   dir,
		client: &http.Client{Timeout: fetchTimeout},
		log:    log.WithComponent("assets"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve returns a local file path for the given URL, downloading it on
// first use. A pre-existing entry is returned without touching the
// network; stale content is accepted as a deliberate trade-off.
func (c *Cache) Resolve(ctx context.Context, rawURL string) (string, error) {
	key := cacheKey(rawURL)

	for _, ext := range recognizedExts {
		p := filepath.Join(c.root, key+ext)
		if _, err := os.Stat(p); err == nil {
			c.log.Debug("cache hit", "url", rawURL, "path", p)
			if c.metrics != nil {
				c.metrics.IncCacheHit()
			}
			return p, nil
		}
	}

	if c.metrics != nil {
		c.metrics.IncCacheMiss()
	}
	return c.fetch(ctx, rawURL, key)
}

func (c *Cache) fetch(ctx context.Context, rawURL, key string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", errors.AssetDownload(rawURL, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.AssetDownload(rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.AssetDownload(rawURL, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	ext := extForResponse(resp.Header.Get("Content-Type"), rawURL)
	dst := filepath.Join(c.root, key+ext)

	if err := os.MkdirAll(c.root, 0o755); err != nil {
		return "", errors.AssetDownload(rawURL, err)
	}

	// Write-then-rename so a concurrent resolve of the same URL never
	// observes a partial file.
	tmp, err := os.CreateTemp(c.root, key+".tmp-*")
	if err != nil {
		return "", errors.AssetDownload(rawURL, err)
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", errors.AssetDownload(rawURL, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", errors.AssetDownload(rawURL, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		_ = os.Remove(tmp.Name())
		return "", errors.AssetDownload(rawURL, err)
	}

	c.log.Debug("cache fill", "url", rawURL, "path", dst)
	return dst, nil
}

// cacheKey hashes the URL string so the filename is stable and safe.
func cacheKey(rawURL string) string {
	sum := sha1.Sum([]byte(rawURL))
	return hex.EncodeToString(sum[:])
}

// extForResponse derives the stored extension: declared content type
// first, then the URL path, then a generic fallback. Content type wins
// because many CDNs serve images from extensionless paths.
func extForResponse(contentType, rawURL string) string {
	if ext := extFromContentType(contentType); ext != "" {
		return ext
	}
	if u, err := url.Parse(rawURL); err == nil {
		if ext := strings.ToLower(path.Ext(u.Path)); isRecognized(ext) && ext != ".bin" {
			return ext
		}
	}
	return ".bin"
}

func extFromContentType(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch ct {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ""
	}
}

func isRecognized(ext string) bool {
	for _, e := range recognizedExts {
		if e == ext {
			return true
		}
	}
	return false
}
