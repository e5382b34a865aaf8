package flex

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/roach88/docgraph/internal/fault"
)

// NOTE: JSON is a presentation and input format, NOT canonical. Use
// MarshalCanonical for hashing.

type contentJSON struct {
	Label string          `json:"label"`
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON renders {"label":..,"type":..,"value":..}. Int64 values are
// JSON numbers; every other variant uses its String form.
func (c Content) MarshalJSON() ([]byte, error) {
	if err := Validate(c.Value); err != nil {
		return nil, fmt.Errorf("marshal content %q: %w", c.Label, err)
	}
	var raw []byte
	var err error
	if n, ok := c.Value.(Int64); ok {
		raw = []byte(strconv.FormatInt(int64(n), 10))
	} else {
		raw, err = json.Marshal(c.Value.String())
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(contentJSON{Label: c.Label, Type: c.Value.Kind().String(), Value: raw})
}

// UnmarshalJSON parses the MarshalJSON form. Floats are rejected.
func (c *Content) UnmarshalJSON(data []byte) error {
	var cj contentJSON
	if err := json.Unmarshal(data, &cj); err != nil {
		return fault.Encodingf("content: %v", err)
	}
	if len(cj.Value) == 0 {
		return fault.Encodingf("content %q: value is required", cj.Label)
	}

	dec := json.NewDecoder(bytes.NewReader(cj.Value))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return fault.Encodingf("content %q: %v", cj.Label, err)
	}

	v, err := ParseValue(cj.Type, raw)
	if err != nil {
		return fmt.Errorf("content %q: %w", cj.Label, err)
	}
	*c = Content{Label: cj.Label, Value: v}
	return nil
}

// ParseValue converts a loosely typed input (as produced by JSON, YAML or
// CUE decoders) into a Value of the named type.
func ParseValue(typeName string, raw any) (Value, error) {
	kind, err := ParseKind(typeName)
	if err != nil {
		return nil, err
	}

	var v Value
	switch kind {
	case KindIdentifier:
		s, err := asString(kind, raw)
		if err != nil {
			return nil, err
		}
		v = Identifier(s)
	case KindText:
		s, err := asString(kind, raw)
		if err != nil {
			return nil, err
		}
		v = Text(s)
	case KindQuantity:
		s, err := asString(kind, raw)
		if err != nil {
			return nil, err
		}
		if v, err = ParseQuantity(s); err != nil {
			return nil, err
		}
	case KindTimestamp:
		switch t := raw.(type) {
		case time.Time:
			if t.Nanosecond()%1000 != 0 {
				return nil, fault.Encodingf("timestamp %v has sub-microsecond precision", t)
			}
			v = TimestampOf(t)
		case string:
			if v, err = ParseTimestamp(t); err != nil {
				return nil, err
			}
		default:
			// Integers are microseconds since the epoch.
			n, err := asInt64(kind, raw)
			if err != nil {
				return nil, err
			}
			v = Timestamp(n)
		}
	case KindInt64:
		n, err := asInt64(kind, raw)
		if err != nil {
			return nil, err
		}
		v = Int64(n)
	case KindDigest:
		s, err := asString(kind, raw)
		if err != nil {
			return nil, err
		}
		if v, err = ParseDigest(s); err != nil {
			return nil, err
		}
	}

	if err := Validate(v); err != nil {
		return nil, err
	}
	return v, nil
}

func asString(kind Kind, raw any) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", fault.Encodingf("%s value must be a string, got %T", kind, raw)
	}
	return s, nil
}

// asInt64 accepts integer inputs only. CRITICAL: floats are rejected.
func asInt64(kind Kind, raw any) (int64, error) {
	switch n := raw.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fault.Encodingf("%s value %d out of range", kind, n)
		}
		return int64(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fault.Encodingf("%s value %s is not an int64", kind, n)
		}
		return i, nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, fault.Encodingf("%s value %q is not an int64", kind, n)
		}
		return i, nil
	case float32, float64:
		return 0, fault.Encodingf("floats are forbidden: %v", n)
	default:
		return 0, fault.Encodingf("%s value must be an integer, got %T", kind, raw)
	}
}
