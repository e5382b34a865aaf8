package event

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// encMode uses Core Deterministic Encoding: sorted map keys, smallest
// integer encoding, no indefinite-length items.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error

	// Digest is a byte array and encodes as a CBOR byte string; Timestamp
	// encodes as its integer microseconds.
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("event: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		panic("event: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes e deterministically. Seq is not encoded.
func Marshal(e Event) ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	data, err := encMode.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event %s: %w", e.ID, err)
	}
	return data, nil
}

// Unmarshal decodes a record produced by Marshal. The caller sets Seq.
func Unmarshal(data []byte) (Event, error) {
	var e Event
	if err := decMode.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("unmarshal event: %w", err)
	}
	if err := e.Validate(); err != nil {
		return Event{}, err
	}
	return e, nil
}
