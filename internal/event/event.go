package event

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/docgraph/internal/flex"
)

// Operation names the mutation an event records.
type Operation string

const (
	OpCreate  Operation = "create"
	OpFork    Operation = "fork"
	OpCertify Operation = "certify"
)

// Valid reports whether op is a known operation.
func (op Operation) Valid() bool {
	switch op {
	case OpCreate, OpFork, OpCertify:
		return true
	}
	return false
}

// Event is a single mutation record.
//
// Seq is assigned by the store when the event is appended and is not part
// of the encoded record.
type Event struct {
	Seq         int64             `cbor:"-" json:"seq"`
	ID          string            `cbor:"1,keyasint" json:"id"`
	Operation   Operation         `cbor:"2,keyasint" json:"operation"`
	DocumentID  uint64            `cbor:"3,keyasint" json:"document_id"`
	Hash        flex.Digest       `cbor:"4,keyasint" json:"hash"`
	Creator     flex.Identifier   `cbor:"5,keyasint" json:"creator"`
	Timestamp   flex.Timestamp    `cbor:"6,keyasint" json:"timestamp"`
	Parent      *flex.Digest      `cbor:"7,keyasint,omitempty" json:"parent,omitempty"`
	Payload     []byte            `cbor:"8,keyasint,omitempty" json:"payload,omitempty"`
	Certificate *flex.Certificate `cbor:"9,keyasint,omitempty" json:"certificate,omitempty"`
}

// NewID generates a time-ordered event ID.
// Uses UUIDv7 so IDs sort by creation time.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Validate checks the fields every event must carry for its operation.
func (e Event) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("event: id is required")
	}
	if !e.Operation.Valid() {
		return fmt.Errorf("event %s: unknown operation %q", e.ID, e.Operation)
	}
	if e.DocumentID == 0 {
		return fmt.Errorf("event %s: document_id is required", e.ID)
	}
	switch e.Operation {
	case OpCreate, OpFork:
		if e.Payload == nil {
			return fmt.Errorf("event %s: %s requires payload", e.ID, e.Operation)
		}
		if e.Operation == OpFork && e.Parent == nil {
			return fmt.Errorf("event %s: fork requires parent", e.ID)
		}
	case OpCertify:
		if e.Certificate == nil {
			return fmt.Errorf("event %s: certify requires certificate", e.ID)
		}
	}
	return nil
}

// Groups decodes the canonical payload carried by create and fork events.
func (e Event) Groups() ([]flex.ContentGroup, error) {
	if e.Payload == nil {
		return nil, fmt.Errorf("event %s: %s carries no payload", e.ID, e.Operation)
	}
	return flex.UnmarshalCanonical(e.Payload)
}

// Verify checks that a mirror can trust e. Create and fork payloads must
// hash to e.Hash under h. Certify events carry no payload and only need
// their certificate.
func (e Event) Verify(h flex.Hasher) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if e.Operation == OpCertify {
		if e.Payload != nil {
			return fmt.Errorf("event %s: certify carries a payload", e.ID)
		}
		return nil
	}

	groups, err := e.Groups()
	if err != nil {
		return err
	}
	got, err := h.ComputeHash(groups)
	if err != nil {
		return err
	}
	if got != e.Hash {
		return fmt.Errorf("event %s: payload hashes to %s, record says %s", e.ID, got, e.Hash)
	}
	return nil
}

// Sink receives events after the transaction that produced them commits.
// Implementations must not block for long: they run on the writer's
// goroutine, after the store's write lock is released, so they may write
// back to the store.
type Sink interface {
	Notify(ctx context.Context, e Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, e Event)

// Notify calls f(ctx, e).
func (f SinkFunc) Notify(ctx context.Context, e Event) { f(ctx, e) }
