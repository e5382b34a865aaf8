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

// documentRow is a documents row before its payload is decoded.
type documentRow struct {
	id          uint64
	hash        string
	creator     string
	payload     []byte
	compression int
	rawSize     int
	createdAt   int64
}

const documentColumns = `id, hash, creator, payload, compression, raw_size, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocumentRow(r rowScanner) (documentRow, error) {
	var row documentRow
	err := r.Scan(&row.id, &row.hash, &row.creator, &row.payload, &row.compression, &row.rawSize, &row.createdAt)
	return row, err
}

// GetByID returns the document with the given id, or a NOT_FOUND error.
func (s *Store) GetByID(ctx context.Context, id uint64) (flex.Document, error) {
	row, err := scanDocumentRow(s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return flex.Document{}, fault.NewNotFoundID(id)
	}
	if err != nil {
		return flex.Document{}, fmt.Errorf("get document %d: %w", id, err)
	}
	return s.loadDocument(ctx, row)
}

// GetByHash returns the document with the given content hash, or a
// NOT_FOUND error.
func (s *Store) GetByHash(ctx context.Context, hash flex.Digest) (flex.Document, error) {
	row, err := scanDocumentRow(s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE hash = ?`, hash.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return flex.Document{}, fault.NewNotFoundHash(hash.String())
	}
	if err != nil {
		return flex.Document{}, fmt.Errorf("get document %s: %w", hash, err)
	}
	return s.loadDocument(ctx, row)
}

// GetByCreator returns every document created by creator, ordered by id.
// A creator with no documents yields a NOT_FOUND error.
func (s *Store) GetByCreator(ctx context.Context, creator flex.Identifier) ([]flex.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE creator = ?
		ORDER BY id ASC
	`, string(creator))
	if err != nil {
		return nil, fmt.Errorf("get documents by creator: %w", err)
	}

	// Drain rows before loading certificates: the pool has one connection.
	var docRows []documentRow
	for rows.Next() {
		row, err := scanDocumentRow(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("get documents by creator: scan: %w", err)
		}
		docRows = append(docRows, row)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("get documents by creator: %w", err)
	}
	rows.Close()

	if len(docRows) == 0 {
		return nil, &fault.Error{
			Code:    fault.CodeNotFound,
			Message: fmt.Sprintf("no documents for creator %q", creator),
		}
	}

	docs := make([]flex.Document, 0, len(docRows))
	for _, row := range docRows {
		doc, err := s.loadDocument(ctx, row)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Exists reports whether a document with hash is stored.
func (s *Store) Exists(ctx context.Context, hash flex.Digest) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE hash = ?`, hash.String()).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}
	return n > 0, nil
}

// Count returns the number of stored documents.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

// Certificates returns a document's certificates in append order.
func (s *Store) Certificates(ctx context.Context, documentID uint64) ([]flex.Certificate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, certifier, notes, certified_at
		FROM certificates
		WHERE document_id = ?
		ORDER BY seq ASC
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("query certificates: %w", err)
	}
	defer rows.Close()

	certs := []flex.Certificate{}
	for rows.Next() {
		var (
			c           flex.Certificate
			certifier   string
			certifiedAt int64
		)
		if err := rows.Scan(&c.ID, &certifier, &c.Notes, &certifiedAt); err != nil {
			return nil, fmt.Errorf("scan certificate: %w", err)
		}
		c.Certifier = flex.Identifier(certifier)
		c.CertifiedAt = flex.Timestamp(certifiedAt)
		certs = append(certs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate certificates: %w", err)
	}
	return certs, nil
}

// Events returns up to limit events with seq > afterSeq, in seq order.
// A limit <= 0 means no limit.
func (s *Store) Events(ctx context.Context, afterSeq int64, limit int) ([]event.Event, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, record
		FROM events
		WHERE seq > ?
		ORDER BY seq ASC
		LIMIT ?
	`, afterSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		var (
			seq    int64
			record []byte
		)
		if err := rows.Scan(&seq, &record); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e, err := event.Unmarshal(record)
		if err != nil {
			return nil, fmt.Errorf("event seq=%d: %w", seq, err)
		}
		e.Seq = seq
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// loadDocument decodes a row's payload (through the cache) and attaches
// its certificates.
func (s *Store) loadDocument(ctx context.Context, row documentRow) (flex.Document, error) {
	hash, err := flex.ParseDigest(row.hash)
	if err != nil {
		return flex.Document{}, fmt.Errorf("document %d: stored hash: %w", row.id, err)
	}

	groups, ok := s.cacheGet(hash)
	if !ok {
		groups, err = s.decodePayload(row, hash)
		if err != nil {
			return flex.Document{}, err
		}
		s.cachePut(hash, groups)
	}

	certs, err := s.Certificates(ctx, row.id)
	if err != nil {
		return flex.Document{}, fmt.Errorf("document %d: %w", row.id, err)
	}

	return flex.Document{
		ID:            row.id,
		Hash:          hash,
		Creator:       flex.Identifier(row.creator),
		ContentGroups: groups,
		Certificates:  certs,
		CreatedAt:     flex.Timestamp(row.createdAt),
	}, nil
}

// decodePayload restores and verifies a stored payload. A payload that no
// longer hashes to its row's hash is reported as corruption.
func (s *Store) decodePayload(row documentRow, hash flex.Digest) ([]flex.ContentGroup, error) {
	payload, err := decompress(row.payload, Compression(row.compression), row.rawSize)
	if err != nil {
		return nil, fmt.Errorf("document %d: %w", row.id, err)
	}
	if got := s.hasher.Sum(payload); got != hash {
		return nil, fmt.Errorf("document %d: payload hashes to %s, stored hash is %s", row.id, got, hash)
	}
	groups, err := flex.UnmarshalCanonical(payload)
	if err != nil {
		return nil, fmt.Errorf("document %d: %w", row.id, err)
	}
	return groups, nil
}
