// Package logstore is a bounded, insertion-ordered record of past command
// executions. Entries are archived with their complete, unfiltered output and
// addressed by a stable, monotonically-issued id.
package logstore

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/mattjoyce/nixgw/internal/runner"
)

const (
	// DefaultMaxLogs is the default store capacity.
	DefaultMaxLogs = 100

	// DefaultRecentLimit is the default number of entries returned by Recent.
	DefaultRecentLimit = 20

	// timestampLayout has millisecond resolution. Recent sorts these strings
	// lexicographically, so the layout must be fixed-width.
	timestampLayout = "2006-01-02T15:04:05.000Z"
)

// Entry represents one completed external-command execution. Entries are
// immutable after creation.
type Entry struct {
	ID        string
	Command   string
	Timestamp string
	Stdout    string
	Stderr    string
	ExitCode  int
}

// Store holds at most capacity entries. Insertion past capacity evicts the
// oldest inserted entry (FIFO, not LRU: reads never affect eviction order).
// Ids are issued from a per-process monotonic counter and are never reused,
// so a Get on an evicted id fails cleanly rather than aliasing a newer entry.
type Store struct {
	mu       sync.Mutex
	capacity int
	nextID   int64
	entries  map[string]*Entry
	order    []string
}

// New creates a Store with the given capacity. Non-positive capacity falls
// back to DefaultMaxLogs.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultMaxLogs
	}
	return &Store{
		capacity: capacity,
		entries:  make(map[string]*Entry, capacity),
	}
}

// Put archives a completed execution and returns its id. The stored copy is
// the complete, unfiltered output. O(1) amortized.
func (s *Store) Put(command string, res runner.Result) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := strconv.FormatInt(s.nextID, 10)

	if len(s.order) >= s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.entries, oldest)
	}

	s.entries[id] = &Entry{
		ID:        id,
		Command:   command,
		Timestamp: time.Now().UTC().Format(timestampLayout),
		Stdout:    res.Stdout,
		Stderr:    res.Stderr,
		ExitCode:  res.ExitCode,
	}
	s.order = append(s.order, id)
	return id
}

// Get returns the entry for id, if present. Lookup is exact; there is no
// partial or fuzzy matching.
func (s *Store) Get(id string) (*Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	return e, ok
}

// Recent returns up to limit entries, most recent first. Ordering compares
// the millisecond-resolution timestamp strings lexicographically; entries
// created within the same millisecond may not come back in insertion order.
// Known limitation, kept as documented behavior.
func (s *Store) Recent(limit int) []*Entry {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	s.mu.Lock()
	out := make([]*Entry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entries[id])
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Len returns the number of entries currently stored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}
