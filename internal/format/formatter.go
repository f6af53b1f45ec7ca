// Package format turns raw captured command output into a bounded display
// string, archiving oversized output in the log store before any filtering
// or truncation touches it.
package format

import (
	"fmt"
	"strings"

	"github.com/mattjoyce/nixgw/internal/logstore"
	"github.com/mattjoyce/nixgw/internal/runner"
)

const (
	// DefaultMaxOutputLines is the archiving and truncation line threshold.
	DefaultMaxOutputLines = 50

	// DefaultMaxOutputChars is the archiving and truncation character threshold.
	DefaultMaxOutputChars = 4000

	// successFallback is returned instead of an empty display string.
	successFallback = "Command completed successfully."
)

// Formatter renders execution results for inline display. The same line and
// character thresholds drive both the archiving decision and display
// truncation; keeping them identical is what guarantees that anything the
// display window cannot show is recoverable through the log store.
type Formatter struct {
	store    *logstore.Store
	maxLines int
	maxChars int
}

// New creates a Formatter writing archives to store. Non-positive limits fall
// back to the defaults.
func New(store *logstore.Store, maxLines, maxChars int) *Formatter {
	if maxLines <= 0 {
		maxLines = DefaultMaxOutputLines
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxOutputChars
	}
	return &Formatter{store: store, maxLines: maxLines, maxChars: maxChars}
}

// Render produces the display string for one execution and, when the
// combined output exceeds either threshold, archives the complete unfiltered
// result first. The archive decision runs on raw output: filtered-away noise
// must never hide the existence of recoverable content.
func (f *Formatter) Render(command string, res runner.Result) string {
	fullOutput := res.Stdout + res.Stderr

	logID := ""
	if len(fullOutput) > f.maxChars || countLines(fullOutput) > f.maxLines {
		logID = f.store.Put(command, res)
	}

	display := res.Stdout
	if filtered := FilterStderr(res.Stderr); filtered != "" {
		if display != "" {
			display += "\n" + filtered
		} else {
			display = filtered
		}
	}

	display = f.truncateLines(display)
	display = f.truncateChars(display)

	if footer := f.footer(res.ExitCode, logID); footer != "" {
		if display != "" {
			display += "\n\n" + footer
		} else {
			display = footer
		}
	}

	if display == "" {
		return successFallback
	}
	return display
}

// truncateLines keeps the first and last maxLines/2 lines with a marker in
// between.
func (f *Formatter) truncateLines(s string) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= f.maxLines {
		return s
	}
	keep := f.maxLines / 2
	omitted := len(lines) - 2*keep
	head := strings.Join(lines[:keep], "\n")
	tail := strings.Join(lines[len(lines)-keep:], "\n")
	return head + fmt.Sprintf("\n... [%d lines omitted] ...\n", omitted) + tail
}

// truncateChars keeps the first and last maxChars/2 characters with a marker
// in between. Applied after line truncation; both can fire on one result.
func (f *Formatter) truncateChars(s string) string {
	if len(s) <= f.maxChars {
		return s
	}
	keep := f.maxChars / 2
	omitted := len(s) - 2*keep
	return s[:keep] + fmt.Sprintf("\n... [%d characters omitted] ...\n", omitted) + s[len(s)-keep:]
}

// footer builds the trailing status annotation. Both clauses are optional and
// independent; a clean, unarchived run gets no footer at all.
func (f *Formatter) footer(exitCode int, logID string) string {
	var clauses []string
	if exitCode != 0 {
		clauses = append(clauses, fmt.Sprintf("Exit code: %d", exitCode))
	}
	if logID != "" {
		clauses = append(clauses, fmt.Sprintf("Full log: use nix_get_log with id=%q", logID))
	}
	if len(clauses) == 0 {
		return ""
	}
	return "[" + strings.Join(clauses, " | ") + "]"
}

// countLines counts newline-delimited lines; the empty string has none.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
