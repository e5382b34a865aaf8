// Package store provides SQLite-backed durable storage for the document
// graph.
//
// The store is an append-only log with:
//   - Documents: immutable, content-addressed records (UNIQUE hash)
//   - Certificates: attestations appended to a document, never hashed
//   - Events: one outbox record per mutation, for external mirrors
//
// # Critical Patterns
//
// Content-addressed uniqueness:
//   - documents.hash is UNIQUE and the insert uses ON CONFLICT(hash) DO
//     NOTHING inside the write transaction; zero rows affected means the
//     content already exists and the whole mutation is rolled back
//
// Atomic mutations:
//   - hash check, id assignment, persistence and the event append commit
//     as one transaction, so readers never observe partial writes
//   - writers are serialized by a store-level mutex
//
// Immutability:
//   - triggers reject UPDATE and DELETE on every data table
//
// Deterministic query results:
//   - every list query orders by id or seq ascending
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Content hashes are computed by flex.Hasher over the canonical payload.
// The hash algorithm is pinned in the meta table when the database is
// created.
package store
