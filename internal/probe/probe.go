// Package probe supplies source video durations to the command
// executor. The production prober shells out to ffprobe; the stub
// serves tests and installations without ffmpeg.
package probe

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Prober answers duration queries for a source file.
type Prober interface {
	// Duration returns the total duration of the file in seconds.
	Duration(ctx context.Context, path string) (float64, error)
}

// StubProber returns a fixed duration for every file.
type StubProber struct {
	logger  *slog.Logger
	Seconds float64
}

func NewStubProber(seconds float64, logger *slog.Logger) *StubProber {
	return &StubProber{Seconds: seconds, logger: logger}
}

func (p *StubProber) Duration(ctx context.Context, path string) (float64, error) {
	if p.logger != nil {
		p.logger.Debug("probe stub: duration requested", "path", path)
	}
	return p.Seconds, nil
}

// FFProber resolves durations with an ffprobe subprocess.
type FFProber struct {
	binary  string
	timeout time.Duration
	logger  *slog.Logger
}

func NewFFProber(binary string, timeout time.Duration, logger *slog.Logger) (*FFProber, error) {
	if binary == "" {
		binary = "ffprobe"
	}
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("cannot locate ffprobe: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &FFProber{binary: resolved, timeout: timeout, logger: logger}, nil
}

func (p *FFProber) Duration(ctx context.Context, path string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.binary,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}

	dur, err := strconv.ParseFloat(strings.TrimSpace(stdout.String()), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: unparseable duration %q", path, stdout.String())
	}
	if p.logger != nil {
		p.logger.Debug("probed duration", "path", path, "duration_s", dur)
	}
	return dur, nil
}
