package assets

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"reelsmith/internal/pkg/errors"
	"reelsmith/internal/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json", Output: &bytes.Buffer{}})
}

func TestResolveDownloadsOnce(t *testing.T) {
	var fetches int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&fetches, 1)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	c := NewCache(t.TempDir(), testLogger())

	first, err := c.Resolve(context.Background(), srv.URL+"/bg")
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	second, err := c.Resolve(context.Background(), srv.URL+"/bg")
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}

	if first != second {
		t.Errorf("expected same path, got %q vs %q", first, second)
	}
	if got := atomic.LoadInt64(&fetches); got != 1 {
		t.Errorf("expected exactly 1 network fetch, got %d", got)
	}

	data, err := os.ReadFile(first)
	if err != nil {
		t.Fatalf("read cached file: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("unexpected cached content: %q", data)
	}
}

func TestExtensionFromContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg; charset=binary")
		_, _ = w.Write([]byte("jpg"))
	}))
	defer srv.Close()

	c := NewCache(t.TempDir(), testLogger())

	// URL says .png but content type says jpeg; content type must win.
	p, err := c.Resolve(context.Background(), srv.URL+"/asset.png")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if filepath.Ext(p) != ".jpg" {
		t.Errorf("expected .jpg from content type, got %s", filepath.Ext(p))
	}
}

func TestExtensionFromURLPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("data"))
	}))
	defer srv.Close()

	c := NewCache(t.TempDir(), testLogger())

	p, err := c.Resolve(context.Background(), srv.URL+"/card.webp")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if filepath.Ext(p) != ".webp" {
		t.Errorf("expected .webp from URL path, got %s", filepath.Ext(p))
	}
}

func TestExtensionFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("data"))
	}))
	defer srv.Close()

	c := NewCache(t.TempDir(), testLogger())

	p, err := c.Resolve(context.Background(), srv.URL+"/no-extension")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if filepath.Ext(p) != ".bin" {
		t.Errorf("expected .bin fallback, got %s", filepath.Ext(p))
	}
}

func TestResolveNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewCache(t.TempDir(), testLogger())

	_, err := c.Resolve(context.Background(), srv.URL+"/missing.png")
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if errors.GetCode(err) != errors.CodeAssetDownload {
		t.Errorf("expected ASSET_DOWNLOAD_FAILED, got %s", errors.GetCode(err))
	}

	// A failed fetch must not leave partial files behind.
	root := c.root
	entries, _ := os.ReadDir(root)
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("leftover temp file: %s", e.Name())
		}
	}
}

func TestResolveUnreachableHost(t *testing.T) {
	c := NewCache(t.TempDir(), testLogger())

	_, err := c.Resolve(context.Background(), "http://127.0.0.1:1/asset.png")
	if err == nil {
		t.Fatal("expected error for unreachable host")
	}
	if errors.GetCode(err) != errors.CodeAssetDownload {
		t.Errorf("expected ASSET_DOWNLOAD_FAILED, got %s", errors.GetCode(err))
	}
}

func TestDistinctURLsDistinctEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte(r.URL.Path))
	}))
	defer srv.Close()

	c := NewCache(t.TempDir(), testLogger())

	a, err := c.Resolve(context.Background(), srv.URL+"/a")
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.Resolve(context.Background(), srv.URL+"/b")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("different URLs must map to different cache entries")
	}
}

type countingRecorder struct {
	hits, misses int64
}

func (c *countingRecorder) IncCacheHit()  { atomic.AddInt64(&c.hits, 1) }
func (c *countingRecorder) IncCacheMiss() { atomic.AddInt64(&c.misses, 1) }

func TestMetricsRecorder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	rec := &countingRecorder{}
	c := NewCache(t.TempDir(), testLogger(), WithMetrics(rec))

	_, _ = c.Resolve(context.Background(), srv.URL+"/bg")
	_, _ = c.Resolve(context.Background(), srv.URL+"/bg")

	if rec.misses != 1 || rec.hits != 1 {
		t.Errorf("expected 1 miss + 1 hit, got misses=%d hits=%d", rec.misses, rec.hits)
	}
}
