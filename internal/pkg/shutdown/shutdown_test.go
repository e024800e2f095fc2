package shutdown

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"reelsmith/internal/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json", Output: &bytes.Buffer{}})
}

func TestShutdownRunsAllHandlers(t *testing.T) {
	m := NewManager(testLogger(), time.Second)

	var mu sync.Mutex
	ran := []string{}

	for _, name := range []string{"first", "second", "third"} {
		name := name
		m.Register(name, func(ctx context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			ran = append(ran, name)
			return nil
		})
	}

	m.Shutdown()

	mu.Lock()
	defer mu.Unlock()
	if len(ran) != 3 {
		t.Fatalf("expected 3 handlers to run, got %d", len(ran))
	}
}

func TestShutdownHandlerError(t *testing.T) {
	m := NewManager(testLogger(), time.Second)

	ok := false
	m.Register("failing", func(ctx context.Context) error {
		return fmt.Errorf("cleanup failed")
	})
	m.Register("succeeding", func(ctx context.Context) error {
		ok = true
		return nil
	})

	m.Shutdown()

	if !ok {
		t.Error("remaining handlers should run even when one fails")
	}
}

func TestShutdownTimeout(t *testing.T) {
	m := NewManager(testLogger(), 50*time.Millisecond)

	release := make(chan struct{})
	m.Register("hanging", func(ctx context.Context) error {
		<-release
		return nil
	})

	start := time.Now()
	m.Shutdown()
	close(release)

	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("shutdown should respect timeout, took %v", elapsed)
	}
}

func TestDoneClosed(t *testing.T) {
	m := NewManager(testLogger(), time.Second)
	m.Shutdown()

	select {
	case <-m.Done():
	case <-time.After(time.Second):
		t.Error("Done channel should be closed after Shutdown")
	}
}
