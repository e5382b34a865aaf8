package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
	cache "github.com/patrickmn/go-cache"

	"github.com/roach88/docgraph/internal/clock"
	"github.com/roach88/docgraph/internal/event"
	"github.com/roach88/docgraph/internal/flex"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema
const currentSchemaVersion = 1

// Meta keys written once when a database is created.
const (
	metaHashAlgorithm   = "hash_algorithm"
	metaEncodingVersion = "encoding_version"
)

// Options configures a Store. The zero value is usable: SHA-256, no
// compression, no cache, a discarded log, the real clock and an
// authorizer that denies every certifier.
type Options struct {
	// Algorithm is the content hash function. It must match the algorithm
	// the database was created with.
	Algorithm flex.Algorithm

	// Compression applies to newly stored payloads.
	Compression Compression

	// CacheTTL is how long decoded content groups stay cached.
	// Zero disables the cache.
	CacheTTL time.Duration

	// CacheCleanup is the interval between expired-entry sweeps.
	CacheCleanup time.Duration

	// Authorizer decides who may certify.
	Authorizer Authorizer

	// Sinks are notified of each event after its transaction commits.
	Sinks []event.Sink

	Logger *slog.Logger
	Clock  clock.Clock
}

// Store provides durable storage for documents, certificates and events.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db *sql.DB

	// writeMu serializes mutations so the hash check and insert are a
	// single critical section.
	writeMu sync.Mutex
	entropy io.Reader

	hasher      flex.Hasher
	compression Compression
	cache       *cache.Cache
	cacheTTL    time.Duration
	authorizer  Authorizer
	sinks       []event.Sink
	logger      *slog.Logger
	clock       clock.Clock
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// Opening an existing database with a different Algorithm fails.
func Open(path string, opts Options) (*Store, error) {
	hasher, err := flex.NewHasher(opts.Algorithm)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if _, err := ParseCompression(opts.Compression.String()); err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	if err := pinMeta(db, metaHashAlgorithm, string(hasher.Algorithm())); err != nil {
		db.Close()
		return nil, err
	}
	if err := pinMeta(db, metaEncodingVersion, flex.EncodingVersion); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{
		db:          db,
		entropy:     ulid.Monotonic(rand.Reader, 0),
		hasher:      hasher,
		compression: opts.Compression,
		cacheTTL:    opts.CacheTTL,
		authorizer:  opts.Authorizer,
		sinks:       opts.Sinks,
		logger:      opts.Logger,
		clock:       opts.Clock,
	}
	if s.authorizer == nil {
		s.authorizer = denyAll{}
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.clock == nil {
		s.clock = clock.Real()
	}
	if opts.CacheTTL > 0 {
		s.cache = cache.New(opts.CacheTTL, opts.CacheCleanup)
	}

	s.logger.Debug("store opened",
		"path", path,
		"algorithm", hasher.Algorithm(),
		"compression", opts.Compression,
		"cache_ttl", opts.CacheTTL,
	)
	return s, nil
}

// Close closes the database connection.
// Should be called when the store is no longer needed.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Hasher returns the content hasher pinned for this database.
func (s *Store) Hasher() flex.Hasher {
	return s.hasher
}

// AddSink registers a sink for events committed after this call.
// Not safe to call concurrently with mutations.
func (s *Store) AddSink(sink event.Sink) {
	s.sinks = append(s.sinks, sink)
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d",
			version, currentSchemaVersion)
	}

	// Version 1 is the initial schema; later migrations go here in order.

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// pinMeta records value under key on first open and fails if a later
// open disagrees.
func pinMeta(db *sql.DB, key, value string) error {
	if _, err := db.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO NOTHING
	`, key, value); err != nil {
		return fmt.Errorf("pin %s: %w", key, err)
	}

	var stored string
	if err := db.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&stored); err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if stored != value {
		return fmt.Errorf("database %s is %q, store configured with %q", key, stored, value)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}

// newCertificateID returns a ULID. Callers hold writeMu, which the
// monotonic entropy source requires.
func (s *Store) newCertificateID(at time.Time) string {
	return ulid.MustNew(ulid.Timestamp(at), s.entropy).String()
}

// notify delivers committed events to every sink.
func (s *Store) notify(ctx context.Context, e event.Event) {
	for _, sink := range s.sinks {
		sink.Notify(ctx, e)
	}
}
