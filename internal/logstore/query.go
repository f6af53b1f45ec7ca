package logstore

import (
	"fmt"
	"regexp"
	"strings"
)

// FetchOptions filter the body of a fetched log. Grep keeps only lines
// matching the pattern (case-insensitive). Head keeps the first N lines and
// is applied before Tail, which keeps the last N of what remains. The order
// matters for overlapping windows and is part of the contract.
type FetchOptions struct {
	Grep string
	Head int
	Tail int
}

// Fetch reconstructs the archived output for id with optional line filtering.
// A missing id is not an error: callers get a guidance message pointing at
// the listing operation. A malformed Grep pattern is a caller mistake and is
// returned as an error carrying the compiler's message.
func (s *Store) Fetch(id string, opts FetchOptions) (string, error) {
	entry, ok := s.Get(id)
	if !ok {
		return fmt.Sprintf("Log %q not found. Use nix_list_logs to see available logs.", id), nil
	}

	body := entry.Stdout + "\n" + entry.Stderr

	if opts.Grep != "" {
		re, err := regexp.Compile("(?i)" + opts.Grep)
		if err != nil {
			return "", fmt.Errorf("invalid grep pattern: %w", err)
		}
		var kept []string
		for _, line := range strings.Split(body, "\n") {
			if re.MatchString(line) {
				kept = append(kept, line)
			}
		}
		body = strings.Join(kept, "\n")
	}

	if opts.Head > 0 {
		lines := strings.Split(body, "\n")
		if len(lines) > opts.Head {
			lines = lines[:opts.Head]
		}
		body = strings.Join(lines, "\n")
	}

	if opts.Tail > 0 {
		lines := strings.Split(body, "\n")
		if len(lines) > opts.Tail {
			lines = lines[len(lines)-opts.Tail:]
		}
		body = strings.Join(lines, "\n")
	}

	header := fmt.Sprintf("Command: %s\nExit code: %d\nTimestamp: %s\n\n",
		entry.Command, entry.ExitCode, entry.Timestamp)
	return header + body, nil
}

// FormatRecent renders entries as a listing, one line per entry:
//
//	[id] timestamp - command (exit: code)
//
// Commands longer than 50 characters are truncated with an ellipsis.
func FormatRecent(entries []*Entry) string {
	if len(entries) == 0 {
		return "No logs available."
	}

	var b strings.Builder
	for i, e := range entries {
		cmd := e.Command
		if len(cmd) > 50 {
			cmd = cmd[:50] + "..."
		}
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[%s] %s - %s (exit: %d)", e.ID, e.Timestamp, cmd, e.ExitCode)
	}
	return b.String()
}
