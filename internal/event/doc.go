// Package event defines the mutation records emitted by the document store.
//
// Every successful create, fork or certify produces exactly one Event,
// written in the same transaction as the mutation it describes. External
// mirrors consume events in seq order to stay in sync.
//
// Records are encoded with CBOR Core Deterministic Encoding (RFC 8949
// §4.2), so the same event always produces identical bytes. Create and fork
// events carry the document's canonical payload, which lets a mirror
// rebuild the document and check its hash without any other input.
package event
