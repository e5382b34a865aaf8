package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/roach88/docgraph/internal/clock"
	"github.com/roach88/docgraph/internal/event"
	"github.com/roach88/docgraph/internal/flex"
)

var testEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// testOptions returns options with a deterministic clock and an
// authorizer that allows "auditor".
func testOptions() Options {
	return Options{
		Compression:  CompressionZstd,
		CacheTTL:     time.Minute,
		CacheCleanup: time.Minute,
		Authorizer:   NewStaticAuthorizer("auditor"),
		Clock:        clock.Fake(testEpoch, time.Millisecond),
	}
}

// createTestStore creates a new store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	return createTestStoreWith(t, testOptions())
}

func createTestStoreWith(t *testing.T, opts Options) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// titleGroups builds [[{title: Text(title)}]].
func titleGroups(title string) []flex.ContentGroup {
	return []flex.ContentGroup{flex.Group(flex.C("title", flex.Text(title)))}
}

func mustCreate(t *testing.T, s *Store, creator string, groups []flex.ContentGroup) flex.Document {
	t.Helper()
	doc, err := s.Create(context.Background(), flex.Identifier(creator), groups)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	return doc
}

func mustCount(t *testing.T, s *Store) int64 {
	t.Helper()
	n, err := s.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	return n
}

// recorder is an event.Sink that keeps every event it sees.
type recorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *recorder) Notify(_ context.Context, e event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) snapshot() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.Event(nil), r.events...)
}
