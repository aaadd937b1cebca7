// Package probe provides adapters that run external commands for the resolver.
package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/MyCarrier-DevOps/gcl-context/internal/domain"
)

// DefaultTimeout bounds a single probe when none is configured.
const DefaultTimeout = 10 * time.Second

// Logger defines the logging interface for the exec prober.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
}

// ExecProber implements domain.Prober by running commands with os/exec.
type ExecProber struct {
	timeout time.Duration
	logger  Logger
}

// NewExecProber creates an ExecProber. A non-positive timeout selects DefaultTimeout.
func NewExecProber(timeout time.Duration, log Logger) *ExecProber {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ExecProber{
		timeout: timeout,
		logger:  log,
	}
}

// Probe runs cmd in dir and returns its standard output.
// Returns an error wrapping domain.ErrCommandNotFound when the executable
// cannot be started, and domain.ErrCommandFailed on a non-zero exit or timeout.
func (p *ExecProber) Probe(ctx context.Context, dir string, cmd domain.Command) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = dir
	c.Stdout = &stdout
	c.Stderr = &stderr
	c.WaitDelay = time.Second

	start := time.Now()
	err := c.Run()
	p.logger.Debug(ctx, "ran probe command", map[string]interface{}{
		"command":  cmd.String(),
		"dir":      dir,
		"duration": time.Since(start).String(),
		"ok":       err == nil,
	})

	if err == nil {
		return stdout.String(), nil
	}

	var exitErr *exec.ExitError
	switch {
	case errors.Is(err, exec.ErrNotFound):
		return "", fmt.Errorf("%w: %s: %w", domain.ErrCommandNotFound, cmd.Name, err)
	case errors.As(err, &exitErr):
		return "", fmt.Errorf("%w: %s: exit code %d: %s",
			domain.ErrCommandFailed, cmd, exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
	case ctx.Err() != nil:
		return "", fmt.Errorf("%w: %s: %w", domain.ErrCommandFailed, cmd, ctx.Err())
	default:
		// Start failures other than lookup, e.g. a missing working directory.
		return "", fmt.Errorf("%w: %s: %w", domain.ErrCommandNotFound, cmd, err)
	}
}
