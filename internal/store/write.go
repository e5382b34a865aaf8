package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/docgraph/internal/event"
	"github.com/roach88/docgraph/internal/fault"
	"github.com/roach88/docgraph/internal/flex"
)

// Create stores a new document and returns it.
//
// The groups are canonically encoded and hashed; the hash check, id
// assignment, persistence and the create event commit as one unit. If a
// document with the same hash exists, Create fails with a
// DUPLICATE_CONTENT error and the store is unchanged, whoever the creator.
//
// The returned document holds the groups as stored, with text and labels
// NFC-normalized.
func (s *Store) Create(ctx context.Context, creator flex.Identifier, groups []flex.ContentGroup) (flex.Document, error) {
	doc, err := s.insert(ctx, event.OpCreate, creator, groups, nil)
	if err != nil {
		return flex.Document{}, fmt.Errorf("create: %w", err)
	}
	return doc, nil
}

// CreateFork stores a document whose groups already contain a back-edge
// to parent. The parent must exist at commit time; the event records the
// operation as a fork.
//
// Building the groups (and the edge) is the fork engine's job.
func (s *Store) CreateFork(ctx context.Context, creator flex.Identifier, groups []flex.ContentGroup, parent flex.Digest) (flex.Document, error) {
	doc, err := s.insert(ctx, event.OpFork, creator, groups, &parent)
	if err != nil {
		return flex.Document{}, fmt.Errorf("fork: %w", err)
	}
	return doc, nil
}

func (s *Store) insert(ctx context.Context, op event.Operation, creator flex.Identifier, groups []flex.ContentGroup, parent *flex.Digest) (flex.Document, error) {
	if err := flex.ValidateIdentifier(string(creator)); err != nil {
		return flex.Document{}, fmt.Errorf("creator: %w", err)
	}

	payload, err := flex.MarshalCanonical(groups)
	if err != nil {
		return flex.Document{}, err
	}
	hash := s.hasher.Sum(payload)

	stored, tag, err := compress(payload, s.compression)
	if err != nil {
		return flex.Document{}, err
	}

	ev, err := s.commitDocument(ctx, op, creator, hash, payload, stored, tag, parent)
	if err != nil {
		return flex.Document{}, err
	}
	id, createdAt := ev.DocumentID, ev.Timestamp

	normalized, err := flex.UnmarshalCanonical(payload)
	if err != nil {
		return flex.Document{}, err
	}
	s.cachePut(hash, normalized)

	s.logger.Info("document stored",
		"operation", op,
		"id", id,
		"hash", hash,
		"creator", creator,
		"groups", len(normalized),
		"bytes", len(payload),
		"stored_bytes", len(stored),
		"compression", tag,
	)
	s.notify(ctx, ev)

	return flex.Document{
		ID:            id,
		Hash:          hash,
		Creator:       creator,
		ContentGroups: normalized,
		Certificates:  []flex.Certificate{},
		CreatedAt:     createdAt,
	}, nil
}

// commitDocument reserves hash and writes the document row and its event
// in one transaction under writeMu. The lock is released before sinks are
// notified so a sink may write back to the store.
func (s *Store) commitDocument(ctx context.Context, op event.Operation, creator flex.Identifier, hash flex.Digest, payload, stored []byte, tag Compression, parent *flex.Digest) (event.Event, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	createdAt := flex.TimestampOf(s.clock.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return event.Event{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if parent != nil {
		if _, err := lookupHash(ctx, tx, *parent); err != nil {
			return event.Event{}, fmt.Errorf("parent: %w", err)
		}
	}

	id, inserted, err := reserve(ctx, tx, hash, creator, stored, tag, len(payload), createdAt)
	if err != nil {
		return event.Event{}, err
	}
	if !inserted {
		existing, err := lookupHash(ctx, tx, hash)
		if err != nil {
			return event.Event{}, err
		}
		s.logger.Debug("duplicate content rejected",
			"hash", hash,
			"existing_id", existing,
			"creator", creator,
		)
		return event.Event{}, fault.NewDuplicateContent(hash.String(), existing)
	}

	ev := event.Event{
		ID:         event.NewID(),
		Operation:  op,
		DocumentID: id,
		Hash:       hash,
		Creator:    creator,
		Timestamp:  createdAt,
		Parent:     parent,
		Payload:    payload,
	}
	if ev.Seq, err = appendEvent(ctx, tx, ev); err != nil {
		return event.Event{}, err
	}

	if err := tx.Commit(); err != nil {
		return event.Event{}, fmt.Errorf("commit: %w", err)
	}
	return ev, nil
}

// reserve is the check-and-insert of the dedup index. It runs inside the
// caller's transaction so the reservation and the document row are one
// write. Returns inserted=false, and writes nothing, if hash is taken.
func reserve(ctx context.Context, tx *sql.Tx, hash flex.Digest, creator flex.Identifier, stored []byte, tag Compression, rawSize int, createdAt flex.Timestamp) (id uint64, inserted bool, err error) {
	result, err := tx.ExecContext(ctx, `
		INSERT INTO documents
		(hash, creator, payload, compression, raw_size, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`,
		hash.String(),
		string(creator),
		stored,
		int(tag),
		rawSize,
		int64(createdAt),
	)
	if err != nil {
		return 0, false, fmt.Errorf("reserve: insert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("reserve: rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return 0, false, nil
	}

	lastID, err := result.LastInsertId()
	if err != nil {
		return 0, false, fmt.Errorf("reserve: last insert id: %w", err)
	}
	return uint64(lastID), true, nil
}

func lookupHash(ctx context.Context, tx *sql.Tx, hash flex.Digest) (uint64, error) {
	var id uint64
	err := tx.QueryRowContext(ctx, `SELECT id FROM documents WHERE hash = ?`, hash.String()).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fault.NewNotFoundHash(hash.String())
	}
	if err != nil {
		return 0, fmt.Errorf("lookup hash: %w", err)
	}
	return id, nil
}

func appendEvent(ctx context.Context, tx *sql.Tx, ev event.Event) (int64, error) {
	record, err := event.Marshal(ev)
	if err != nil {
		return 0, err
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO events (id, operation, document_id, record)
		VALUES (?, ?, ?, ?)
	`, ev.ID, string(ev.Operation), ev.DocumentID, record)
	if err != nil {
		return 0, fmt.Errorf("append event: %w", err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("append event: last insert id: %w", err)
	}
	return seq, nil
}

// Certify appends a certificate to a document.
//
// The certifier must pass the store's Authorizer (UNAUTHORIZED otherwise)
// and the document must exist (NOT_FOUND otherwise). The document's hash
// and content are never touched.
func (s *Store) Certify(ctx context.Context, documentID uint64, certifier flex.Identifier, notes string) (flex.Certificate, error) {
	if err := flex.ValidateIdentifier(string(certifier)); err != nil {
		return flex.Certificate{}, fmt.Errorf("certify: certifier: %w", err)
	}
	if err := flex.Validate(flex.Text(notes)); err != nil {
		return flex.Certificate{}, fmt.Errorf("certify: notes: %w", err)
	}

	if !s.authorizer.IsAuthorized(ctx, certifier) {
		s.logger.Warn("certify denied", "id", documentID, "certifier", certifier)
		return flex.Certificate{}, fault.NewUnauthorized(string(certifier), documentID)
	}

	cert, ev, err := s.commitCertificate(ctx, documentID, certifier, notes)
	if err != nil {
		return flex.Certificate{}, err
	}

	s.logger.Info("document certified",
		"id", documentID,
		"hash", ev.Hash,
		"certifier", certifier,
		"certificate", cert.ID,
		"event_seq", ev.Seq,
	)
	s.notify(ctx, ev)

	return cert, nil
}

// commitCertificate writes the certificate row and its event in one
// transaction under writeMu.
func (s *Store) commitCertificate(ctx context.Context, documentID uint64, certifier flex.Identifier, notes string) (flex.Certificate, event.Event, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	now := s.clock.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return flex.Certificate{}, event.Event{}, fmt.Errorf("certify: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var hashHex, creator string
	err = tx.QueryRowContext(ctx, `SELECT hash, creator FROM documents WHERE id = ?`, documentID).Scan(&hashHex, &creator)
	if errors.Is(err, sql.ErrNoRows) {
		return flex.Certificate{}, event.Event{}, fault.NewNotFoundID(documentID)
	}
	if err != nil {
		return flex.Certificate{}, event.Event{}, fmt.Errorf("certify: select document: %w", err)
	}
	hash, err := flex.ParseDigest(hashHex)
	if err != nil {
		return flex.Certificate{}, event.Event{}, fmt.Errorf("certify: stored hash: %w", err)
	}

	var seq int64
	if err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) + 1 FROM certificates WHERE document_id = ?
	`, documentID).Scan(&seq); err != nil {
		return flex.Certificate{}, event.Event{}, fmt.Errorf("certify: next seq: %w", err)
	}

	cert := flex.Certificate{
		ID:          s.newCertificateID(now),
		Certifier:   certifier,
		Notes:       notes,
		CertifiedAt: flex.TimestampOf(now),
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO certificates
		(id, document_id, seq, certifier, notes, certified_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		cert.ID,
		documentID,
		seq,
		string(cert.Certifier),
		cert.Notes,
		int64(cert.CertifiedAt),
	); err != nil {
		return flex.Certificate{}, event.Event{}, fmt.Errorf("certify: insert: %w", err)
	}

	ev := event.Event{
		ID:          event.NewID(),
		Operation:   event.OpCertify,
		DocumentID:  documentID,
		Hash:        hash,
		Creator:     flex.Identifier(creator),
		Timestamp:   cert.CertifiedAt,
		Certificate: &cert,
	}
	if ev.Seq, err = appendEvent(ctx, tx, ev); err != nil {
		return flex.Certificate{}, event.Event{}, fmt.Errorf("certify: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return flex.Certificate{}, event.Event{}, fmt.Errorf("certify: commit: %w", err)
	}
	return cert, ev, nil
}
