package encoder

import (
	"bufio"
	"context"
	"os/exec"
	"sync"
	"time"

	"reelsmith/internal/pkg/errors"
	"reelsmith/internal/pkg/logger"
)

const (
	heartbeatInterval = 5 * time.Second
	stderrTailLimit   = 8 << 10
	failureTextLimit  = 2000
)

// Result is the outcome of a supervised encoder run. On timeout and
// failure paths the partial result still carries the progress history.
type Result struct {
	Last     ProgressSample
	HasLast  bool
	Samples  []ProgressSample
	Elapsed  time.Duration
}

// Runner abstracts the supervisor so the orchestrator and its tests can
// substitute a fake encoder.
type Runner interface {
	Run(ctx context.Context, args []string, softTimeout, hardTimeout time.Duration) (*Result, error)
}

// Supervisor spawns the encoder binary, parses its progress stream, and
// enforces the two-tier timeout policy.
type Supervisor struct {
	bin       string
	log       *logger.Logger
	heartbeat time.Duration
}

// NewSupervisor creates a supervisor for the given encoder binary.
func NewSupervisor(bin string, log *logger.Logger) *Supervisor {
	if bin == "" {
		bin = "ffmpeg"
	}
	return &Supervisor{
		bin:       bin,
		log:       log.WithComponent("encoder"),
		heartbeat: heartbeatInterval,
	}
}

// Run executes the encoder and blocks until it exits or a timeout fires.
//
// The soft timer kills the subprocess and resolves a recoverable timeout
// carrying the last progress snapshot, so operators can tell a slow
// render from a stuck one. The hard timer is a failsafe for the case
// where the soft kill did not terminate the process.
func (s *Supervisor) Run(ctx context.Context, args []string, softTimeout, hardTimeout time.Duration) (*Result, error) {
	start := time.Now()
	parser := newProgressParser(start)

	cmd := exec.Command(s.bin, args...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, errors.EncoderFailure(err, "")
	}
	if err := cmd.Start(); err != nil {
		return nil, errors.EncoderFailure(err, "")
	}

	s.log.Debug("encoder started", "bin", s.bin, "pid", cmd.Process.Pid)

	var (
		mu   sync.Mutex
		tail []byte
	)

	// The scanner owns the stderr pipe; samples are observed through the
	// parser under the mutex so the timer loop can snapshot them.
	scanDone := make(chan struct{})
	go func() {
		defer close(scanDone)
		scanner := bufio.NewScanner(stderr)
		scanner.Buffer(make([]byte, 64<<10), 64<<10)
		for scanner.Scan() {
			line := scanner.Text()
			mu.Lock()
			if !parser.feed(line, time.Now()) {
				tail = appendBounded(tail, line)
				s.log.Debug("encoder output", "line", line)
			}
			mu.Unlock()
		}
	}()

	waitCh := make(chan error, 1)
	go func() {
		<-scanDone
		waitCh <- cmd.Wait()
	}()

	softTimer := time.NewTimer(softTimeout)
	defer softTimer.Stop()
	hardTimer := time.NewTimer(hardTimeout)
	defer hardTimer.Stop()
	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	snapshot := func() *Result {
		mu.Lock()
		defer mu.Unlock()
		last, has := parser.Last()
		return &Result{
			Last:    last,
			HasLast: has,
			Samples: parser.Samples(),
			Elapsed: time.Since(start),
		}
	}

	softFired := false
	for {
		select {
		case err := <-waitCh:
			res := snapshot()
			if softFired {
				s.log.Warn("encoder killed after soft timeout", "elapsed_ms", res.Elapsed.Milliseconds())
				return res, errors.EncoderTimeout(res.Elapsed.Milliseconds(), false)
			}
			if err != nil {
				mu.Lock()
				text := truncate(string(tail), failureTextLimit)
				mu.Unlock()
				s.log.Error("encoder failed", "error", err.Error(), "elapsed_ms", res.Elapsed.Milliseconds())
				return res, errors.EncoderFailure(err, text)
			}
			s.log.Info("encoder finished", "elapsed_ms", res.Elapsed.Milliseconds())
			return res, nil

		case <-softTimer.C:
			softFired = true
			s.log.Warn("soft timeout reached, killing encoder", "timeout", softTimeout.String())
			_ = cmd.Process.Kill()

		case <-hardTimer.C:
			// Failsafe: the soft kill did not take the process down.
			res := snapshot()
			s.log.Error("hard timeout reached, forcing termination", "timeout", hardTimeout.String())
			_ = cmd.Process.Kill()
			return res, errors.EncoderTimeout(res.Elapsed.Milliseconds(), true)

		case <-ctx.Done():
			_ = cmd.Process.Kill()
			<-waitCh
			res := snapshot()
			return res, errors.WrapWithCode(ctx.Err(), errors.CodeEncoderFailed, "encoder.run", "render canceled")

		case <-heartbeat.C:
			res := snapshot()
			s.log.Info("encoder heartbeat",
				"elapsed_ms", res.Elapsed.Milliseconds(),
				"out_time_ms", res.Last.OutTimeMS,
				"speed", res.Last.Speed,
				"frame", res.Last.Frame,
			)
		}
	}
}

// appendBounded keeps the most recent stderr text within the tail limit.
func appendBounded(tail []byte, line string) []byte {
	tail = append(tail, line...)
	tail = append(tail, '\n')
	if len(tail) > stderrTailLimit {
		tail = tail[len(tail)-stderrTailLimit:]
	}
	return tail
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
