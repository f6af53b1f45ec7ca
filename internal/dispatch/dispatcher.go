package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mattjoyce/nixgw/internal/format"
	"github.com/mattjoyce/nixgw/internal/log"
	"github.com/mattjoyce/nixgw/internal/logstore"
	"github.com/mattjoyce/nixgw/internal/nix"
	"github.com/mattjoyce/nixgw/internal/runner"
)

// CommandRunner abstracts process execution so the dispatcher can be tested
// without spawning anything.
type CommandRunner interface {
	Run(ctx context.Context, args []string, dir string) runner.Result
	CommandString(args []string) string
}

// Journal abstracts the persistent execution history.
type Journal interface {
	Append(ctx context.Context, op, command string, exitCode int, duration time.Duration) (string, error)
}

// GetLogArgs are the arguments of the nix_get_log retrieval operation.
type GetLogArgs struct {
	ID   string `json:"id"`
	Grep string `json:"grep"`
	Head int    `json:"head"`
	Tail int    `json:"tail"`
}

// Dispatcher resolves operation names to typed commands, runs them, and pipes
// results through the formatter. The two retrieval operations talk to the log
// store directly and never touch the runner.
type Dispatcher struct {
	runner    CommandRunner
	store     *logstore.Store
	formatter *format.Formatter
	journal   Journal
	workDir   string
	logger    *slog.Logger
}

// New creates a Dispatcher. journal may be nil when the history subsystem is
// disabled.
func New(r CommandRunner, store *logstore.Store, f *format.Formatter, journal Journal, workDir string) *Dispatcher {
	return &Dispatcher{
		runner:    r,
		store:     store,
		formatter: f,
		journal:   journal,
		workDir:   workDir,
		logger:    log.WithComponent("dispatch"),
	}
}

// Execute runs one named operation with raw JSON arguments and returns the
// display text. Errors are reserved for caller mistakes (unknown operation,
// malformed arguments, bad grep pattern) and internal faults; a failed
// command or a missing log id is a successful response carrying explanatory
// text.
func (d *Dispatcher) Execute(ctx context.Context, op string, raw json.RawMessage) (out string, err error) {
	// Nothing below should ever take the process down with it.
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("operation panicked", "op", op, "panic", r)
			err = fmt.Errorf("internal error executing %s: %v", op, r)
		}
	}()

	switch op {
	case "nix_get_log":
		var args GetLogArgs
		if len(raw) > 0 {
			if jsonErr := json.Unmarshal(raw, &args); jsonErr != nil {
				return "", fmt.Errorf("invalid arguments for %s: %w", op, jsonErr)
			}
		}
		return d.store.Fetch(args.ID, logstore.FetchOptions{
			Grep: args.Grep,
			Head: args.Head,
			Tail: args.Tail,
		})

	case "nix_list_logs":
		return logstore.FormatRecent(d.store.Recent(logstore.DefaultRecentLimit)), nil
	}

	cmd, err := nix.Decode(op, raw)
	if err != nil {
		return "", err
	}

	args := cmd.CommandLine()
	rendered := d.runner.CommandString(args)
	d.logger.Info("executing operation", "op", op, "command", rendered)

	started := time.Now()
	res := d.runner.Run(ctx, args, d.workDir)
	elapsed := time.Since(started)

	d.logger.Info("operation finished",
		"op", op,
		"exit_code", res.ExitCode,
		"duration_ms", elapsed.Milliseconds(),
	)

	if d.journal != nil {
		if _, jerr := d.journal.Append(ctx, op, rendered, res.ExitCode, elapsed); jerr != nil {
			// The journal is an audit supplement; its failure must not fail
			// the operation.
			d.logger.Warn("failed to journal execution", "op", op, "error", jerr)
		}
	}

	return d.formatter.Render(rendered, res), nil
}

// Ops lists the dispatch surface for discovery.
func (d *Dispatcher) Ops() []nix.OpInfo {
	return nix.Operations()
}
