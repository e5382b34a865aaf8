package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/roach88/docgraph/internal/flex"
)

// Input formats for content files, chosen by extension.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
	FormatCUE  = "cue"
)

// FormatForPath returns the input format for a file extension.
// .json and .jsonc are both read as JSON with comments.
func FormatForPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json", ".jsonc":
		return FormatJSON, nil
	case ".cue":
		return FormatCUE, nil
	default:
		return "", fmt.Errorf("unsupported content file %q: want .yaml, .yml, .json, .jsonc or .cue", path)
	}
}

// LoadGroups reads content groups from path. "-" reads YAML (or JSON,
// which YAML accepts) from stdin.
func LoadGroups(path string, stdin io.Reader) ([]flex.ContentGroup, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return ParseGroups(data, FormatYAML, "<stdin>")
	}

	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content file: %w", err)
	}
	return ParseGroups(data, format, path)
}

// ParseGroups decodes content groups from data. The document is either a
// list of groups or a map with a "groups" key; CUE files use the latter.
func ParseGroups(data []byte, format, filename string) ([]flex.ContentGroup, error) {
	var raw any
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &raw)
	case FormatJSON:
		raw, err = decodeJSON(jsonc.ToJSON(data))
	case FormatCUE:
		raw, err = decodeCUE(data, filename)
	default:
		err = fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	if m, ok := raw.(map[string]any); ok {
		g, found := m["groups"]
		if !found || len(m) != 1 {
			return nil, fmt.Errorf("%s: a map document must have exactly one key, groups", filename)
		}
		raw = g
	}

	groups, err := flex.DecodeGroups(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return groups, nil
}

// decodeJSON keeps integers exact by decoding numbers as json.Number.
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after JSON value")
	}
	return raw, nil
}

// decodeCUE evaluates a CUE file and decodes its concrete JSON form.
func decodeCUE(data []byte, filename string) (any, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile CUE: %w", err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("CUE value is not concrete: %w", err)
	}
	out, err := v.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("export CUE: %w", err)
	}
	return decodeJSON(out)
}
