// Package runner spawns external nix processes and captures their output.
package runner

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/mattjoyce/nixgw/internal/log"
)

// Result is the uniform outcome of one external command execution. Spawn
// failures are folded into this shape (exit code 1, stderr holds the OS
// error) so downstream formatting never has to special-case them.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Ok reports whether the command exited successfully.
func (r Result) Ok() bool { return r.ExitCode == 0 }

// Runner executes the configured nix binary. It applies no timeout and no
// cancellation: once started, a command runs to completion. A hung command
// blocks its own request only; other requests proceed on their own
// goroutines.
type Runner struct {
	binary    string
	extraArgs []string
	logger    *slog.Logger
}

// New creates a Runner for the given binary. extraArgs are prepended to every
// invocation (typically experimental-feature flags).
func New(binary string, extraArgs []string) *Runner {
	return &Runner{
		binary:    binary,
		extraArgs: extraArgs,
		logger:    log.WithComponent("runner"),
	}
}

// Run executes the binary with the given arguments, inheriting the current
// environment, and collects stdout and stderr independently to completion.
// ctx is accepted for interface symmetry; the base design deliberately does
// not kill the child on cancellation.
func (r *Runner) Run(ctx context.Context, args []string, dir string) Result {
	full := append(append([]string{}, r.extraArgs...), args...)

	cmd := exec.Command(r.binary, full...)
	if dir != "" {
		cmd.Dir = dir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("spawning command", "binary", r.binary, "args", strings.Join(args, " "), "dir", dir)

	err := cmd.Run()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			code := exitErr.ExitCode()
			if code < 0 {
				// Killed by signal or otherwise unknown status.
				code = 1
			}
			r.logger.Debug("command exited non-zero", "exit_code", code)
			return Result{
				Stdout:   stdout.String(),
				Stderr:   stderr.String(),
				ExitCode: code,
			}
		}
		// The process never started (binary missing, permission denied).
		// Fold the spawn error into the normal result shape.
		r.logger.Warn("command spawn failed", "binary", r.binary, "error", err)
		return Result{
			Stdout:   "",
			Stderr:   err.Error(),
			ExitCode: 1,
		}
	}

	return Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: 0,
	}
}

// CommandString renders the full command line for display and archiving.
func (r *Runner) CommandString(args []string) string {
	parts := append([]string{r.binary}, r.extraArgs...)
	parts = append(parts, args...)
	return strings.Join(parts, " ")
}
