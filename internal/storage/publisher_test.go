package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"reelsmith/internal/adapters/storage/localfs"
)

func TestObjectPublisherLocalFallbackURL(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "job-1.mp4")
	if err := os.WriteFile(src, []byte("mp4-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	pubRoot := filepath.Join(root, "published")
	p := NewObjectPublisher(localfs.New(pubRoot))

	url, err := p.Publish(context.Background(), src, "job-1.mp4")
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if url != "/videos/job-1.mp4" {
		t.Errorf("url = %q, want local fallback", url)
	}

	data, err := os.ReadFile(filepath.Join(pubRoot, "renders", "job-1.mp4"))
	if err != nil {
		t.Fatalf("published copy missing: %v", err)
	}
	if string(data) != "mp4-bytes" {
		t.Errorf("published content = %q", data)
	}
}

func TestObjectPublisherMissingSource(t *testing.T) {
	p := NewObjectPublisher(localfs.New(t.TempDir()))
	if _, err := p.Publish(context.Background(), "/nonexistent/file.mp4", "x.mp4"); err == nil {
		t.Fatal("expected error for missing source file")
	}
}
