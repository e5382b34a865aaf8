package flex

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/docgraph/internal/fault"
)

// DecodeGroups converts loosely typed input into content groups. The
// input is a list of groups, each a list of {label, type, value} maps, as
// produced by decoding YAML, JSON (with UseNumber) or CUE.
//
// type may be omitted for strings (text), integers (int64) and times
// (timestamp). A missing label is the empty label.
func DecodeGroups(raw any) ([]ContentGroup, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fault.Encodingf("content groups must be a list, got %T", raw)
	}

	groups := make([]ContentGroup, len(list))
	for i, item := range list {
		g, err := decodeGroup(item)
		if err != nil {
			return nil, fmt.Errorf("group[%d]: %w", i, err)
		}
		groups[i] = g
	}
	return groups, nil
}

func decodeGroup(raw any) (ContentGroup, error) {
	if raw == nil {
		return ContentGroup{}, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fault.Encodingf("group must be a list, got %T", raw)
	}
	g := make(ContentGroup, len(list))
	for j, item := range list {
		c, err := decodeContent(item)
		if err != nil {
			return nil, fmt.Errorf("content[%d]: %w", j, err)
		}
		g[j] = c
	}
	return g, nil
}

func decodeContent(raw any) (Content, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return Content{}, fault.Encodingf("content must be a map, got %T", raw)
	}
	for k := range m {
		switch k {
		case "label", "type", "value":
		default:
			return Content{}, fault.Encodingf("unknown content key %q", k)
		}
	}

	var label string
	if l, ok := m["label"]; ok && l != nil {
		s, ok := l.(string)
		if !ok {
			return Content{}, fault.Encodingf("label must be a string, got %T", l)
		}
		label = s
	}

	value, ok := m["value"]
	if !ok || value == nil {
		return Content{}, fault.Encodingf("content %q: value is required", label)
	}

	typeName, _ := m["type"].(string)
	if typeName == "" {
		var err error
		if typeName, err = inferType(value); err != nil {
			return Content{}, fmt.Errorf("content %q: %w", label, err)
		}
	}

	v, err := ParseValue(typeName, value)
	if err != nil {
		return Content{}, fmt.Errorf("content %q: %w", label, err)
	}
	return Content{Label: label, Value: v}, nil
}

func inferType(raw any) (string, error) {
	switch n := raw.(type) {
	case string:
		return KindText.String(), nil
	case json.Number:
		if strings.ContainsAny(string(n), ".eE") {
			return "", fault.Encodingf("floats are forbidden: %s", n)
		}
		return KindInt64.String(), nil
	case int, int64, uint64:
		return KindInt64.String(), nil
	case time.Time:
		return KindTimestamp.String(), nil
	case float32, float64:
		return "", fault.Encodingf("floats are forbidden: %v", raw)
	default:
		return "", fault.Encodingf("cannot infer a type for %T; set type explicitly", raw)
	}
}
