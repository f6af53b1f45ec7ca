package logstore

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/mattjoyce/nixgw/internal/runner"
)

func TestPutReturnsIncreasingIDs(t *testing.T) {
	t.Parallel()

	s := New(10)
	prev := int64(0)
	for i := 0; i < 25; i++ {
		id := s.Put("nix build", runner.Result{Stdout: "out"})
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			t.Fatalf("id %q is not numeric: %v", id, err)
		}
		if n <= prev {
			t.Fatalf("id %d not strictly greater than %d", n, prev)
		}
		prev = n
	}
}

func TestCapacityBoundAndEviction(t *testing.T) {
	t.Parallel()

	const capacity = 5
	s := New(capacity)

	var ids []string
	for i := 0; i < capacity*3; i++ {
		ids = append(ids, s.Put(fmt.Sprintf("cmd %d", i), runner.Result{}))
		if s.Len() > capacity {
			t.Fatalf("store size %d exceeds capacity %d", s.Len(), capacity)
		}
	}

	// The oldest entries must be gone and must not alias newer ones.
	for _, id := range ids[:len(ids)-capacity] {
		if e, ok := s.Get(id); ok {
			t.Fatalf("evicted id %s still resolves to %+v", id, e)
		}
	}
	// The newest entries are all present.
	for _, id := range ids[len(ids)-capacity:] {
		if _, ok := s.Get(id); !ok {
			t.Fatalf("recent id %s missing", id)
		}
	}
}

func TestIDsNeverReusedAcrossEviction(t *testing.T) {
	t.Parallel()

	s := New(2)
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := s.Put("cmd", runner.Result{})
		if seen[id] {
			t.Fatalf("id %s issued twice", id)
		}
		seen[id] = true
	}
}

func TestGetIsExact(t *testing.T) {
	t.Parallel()

	s := New(10)
	id := s.Put("nix build .#foo", runner.Result{Stdout: "hello", ExitCode: 2})

	e, ok := s.Get(id)
	if !ok {
		t.Fatalf("Get(%s): not found", id)
	}
	if e.Command != "nix build .#foo" || e.Stdout != "hello" || e.ExitCode != 2 {
		t.Fatalf("unexpected entry: %+v", e)
	}

	if _, ok := s.Get(id + "0"); ok {
		t.Fatalf("partial-ish id %s0 should not resolve", id)
	}
	if _, ok := s.Get("999"); ok {
		t.Fatalf("unknown id should not resolve")
	}
}

func TestRecentOrderAndLimit(t *testing.T) {
	t.Parallel()

	s := New(50)
	for i := 0; i < 30; i++ {
		s.Put(fmt.Sprintf("cmd %d", i), runner.Result{})
	}

	got := s.Recent(20)
	if len(got) != 20 {
		t.Fatalf("expected 20 entries, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Timestamp < got[i].Timestamp {
			t.Fatalf("entries not in descending timestamp order: %q before %q",
				got[i-1].Timestamp, got[i].Timestamp)
		}
	}

	all := s.Recent(100)
	if len(all) != 30 {
		t.Fatalf("expected all 30 entries, got %d", len(all))
	}
}

func TestRecentDefaultLimit(t *testing.T) {
	t.Parallel()

	s := New(50)
	for i := 0; i < 25; i++ {
		s.Put("cmd", runner.Result{})
	}
	if got := s.Recent(0); len(got) != DefaultRecentLimit {
		t.Fatalf("expected default limit %d, got %d", DefaultRecentLimit, len(got))
	}
}
