package logstore

import (
	"fmt"
	"strings"
	"testing"

	"github.com/mattjoyce/nixgw/internal/runner"
)

func numberedLines(from, to int) string {
	var lines []string
	for i := from; i <= to; i++ {
		lines = append(lines, fmt.Sprintf("%d", i))
	}
	return strings.Join(lines, "\n")
}

func TestFetchNotFoundReturnsGuidance(t *testing.T) {
	t.Parallel()

	s := New(10)
	out, err := s.Fetch("42", FetchOptions{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.Contains(out, "not found") || !strings.Contains(out, "nix_list_logs") {
		t.Fatalf("expected guidance message, got %q", out)
	}
}

func TestFetchHeaderFormat(t *testing.T) {
	t.Parallel()

	s := New(10)
	id := s.Put("nix build .#foo", runner.Result{Stdout: "body", ExitCode: 3})

	out, err := s.Fetch(id, FetchOptions{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.HasPrefix(out, "Command: nix build .#foo\nExit code: 3\nTimestamp: ") {
		t.Fatalf("unexpected header: %q", out)
	}
	if !strings.Contains(out, "\n\nbody") {
		t.Fatalf("body not separated from header by blank line: %q", out)
	}
}

func TestFetchGrepIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	s := New(10)
	id := s.Put("cmd", runner.Result{Stdout: "Error: failed\nall good\nERROR again"})

	out, err := s.Fetch(id, FetchOptions{Grep: "error"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	body := out[strings.Index(out, "\n\n")+2:]
	if body != "Error: failed\nERROR again" {
		t.Fatalf("unexpected grep result: %q", body)
	}
}

func TestFetchBadPatternIsError(t *testing.T) {
	t.Parallel()

	s := New(10)
	id := s.Put("cmd", runner.Result{Stdout: "x"})

	if _, err := s.Fetch(id, FetchOptions{Grep: "("}); err == nil {
		t.Fatalf("expected error for malformed pattern")
	}
}

func TestFetchHeadThenTailComposition(t *testing.T) {
	t.Parallel()

	s := New(10)
	id := s.Put("cmd", runner.Result{Stdout: numberedLines(1, 20)})

	// head=10 keeps [1..10]; tail=5 of that keeps [6..10]. Reversing the
	// order would give [16..20].
	out, err := s.Fetch(id, FetchOptions{Head: 10, Tail: 5})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	body := out[strings.Index(out, "\n\n")+2:]
	if body != "6\n7\n8\n9\n10" {
		t.Fatalf("head-then-tail gave %q, want lines 6..10", body)
	}
}

func TestFetchHeadAlone(t *testing.T) {
	t.Parallel()

	s := New(10)
	id := s.Put("cmd", runner.Result{Stdout: numberedLines(1, 20)})

	out, err := s.Fetch(id, FetchOptions{Head: 3})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	body := out[strings.Index(out, "\n\n")+2:]
	if body != "1\n2\n3" {
		t.Fatalf("head gave %q", body)
	}
}

func TestFormatRecentEmpty(t *testing.T) {
	t.Parallel()

	if got := FormatRecent(nil); got != "No logs available." {
		t.Fatalf("expected fixed empty message, got %q", got)
	}
}

func TestFormatRecentTruncatesCommand(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 60)
	entries := []*Entry{
		{ID: "1", Timestamp: "2026-01-01T00:00:00.000Z", Command: long, ExitCode: 0},
		{ID: "2", Timestamp: "2026-01-01T00:00:01.000Z", Command: "short", ExitCode: 1},
	}

	got := FormatRecent(entries)
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), got)
	}
	want0 := "[1] 2026-01-01T00:00:00.000Z - " + strings.Repeat("x", 50) + "... (exit: 0)"
	if lines[0] != want0 {
		t.Fatalf("line 0 = %q, want %q", lines[0], want0)
	}
	want1 := "[2] 2026-01-01T00:00:01.000Z - short (exit: 1)"
	if lines[1] != want1 {
		t.Fatalf("line 1 = %q, want %q", lines[1], want1)
	}
}
