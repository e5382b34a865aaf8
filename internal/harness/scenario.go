package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/docgraph/internal/fault"
	"github.com/roach88/docgraph/internal/flex"
	"github.com/roach88/docgraph/internal/store"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden
	// trace file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Options configures the store and engine for this scenario.
	Options Options `yaml:"options,omitempty"`

	// Steps are executed in order against a fresh store.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final graph.
	Assertions []Assertion `yaml:"assertions"`
}

// Options configures the store and engine a scenario runs against.
type Options struct {
	// Hash is sha256 (default) or blake3.
	Hash string `yaml:"hash,omitempty"`

	// Compression is none (default), zstd or lz4.
	Compression string `yaml:"compression,omitempty"`

	// MaxDepth is the reconstruction bound for assertions and for
	// reconstruct steps without their own bound. Zero means the engine
	// default.
	MaxDepth int `yaml:"max_depth,omitempty"`

	// Certifiers may certify documents.
	Certifiers []string `yaml:"certifiers,omitempty"`
}

// Step is a single operation.
type Step struct {
	// Op is create, fork, certify or reconstruct.
	Op string `yaml:"op"`

	// As names the created document so later steps can refer to it.
	As string `yaml:"as,omitempty"`

	// Creator is the creator of create and fork.
	Creator string `yaml:"creator,omitempty"`

	// Parent is the alias forked from.
	Parent string `yaml:"parent,omitempty"`

	// Diff makes a fork store only the overlay that reconstructs Groups.
	Diff bool `yaml:"diff,omitempty"`

	// Document is the alias certified or reconstructed.
	Document string `yaml:"document,omitempty"`

	Certifier string `yaml:"certifier,omitempty"`
	Notes     string `yaml:"notes,omitempty"`

	// MaxDepth overrides the scenario bound for a reconstruct step.
	MaxDepth *int `yaml:"max_depth,omitempty"`

	// Groups is the content of create and fork, decoded with
	// flex.DecodeGroups.
	Groups any `yaml:"groups,omitempty"`

	// ExpectError is the error code the step must fail with.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Step operations.
const (
	OpCreate      = "create"
	OpFork        = "fork"
	OpCertify     = "certify"
	OpReconstruct = "reconstruct"
)

// Assertion validates the final graph.
type Assertion struct {
	// Type specifies the assertion type:
	// - "label": Document's reconstruction has Label = Value
	// - "document_count": the store holds Count documents
	// - "certificate_count": Document has Count certificates
	// - "hash_equal", "hash_not_equal": compare the hashes of Documents
	// - "depth": Document is Count edges from its root
	Type string `yaml:"type"`

	Document  string   `yaml:"document,omitempty"`
	Documents []string `yaml:"documents,omitempty"`
	Label     string   `yaml:"label,omitempty"`

	// Value is parsed as the same variant as the actual value.
	Value any `yaml:"value,omitempty"`

	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertLabel            = "label"
	AssertDocumentCount    = "document_count"
	AssertCertificateCount = "certificate_count"
	AssertHashEqual        = "hash_equal"
	AssertHashNotEqual     = "hash_not_equal"
	AssertDepth            = "depth"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every .yaml and .yml file in dir, sorted by name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	seen := make(map[string]string)
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if prev, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("%s: scenario name %q already used by %s", path, s.Name, prev)
		}
		seen[s.Name] = path
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
// Aliases must be defined by an earlier step before they are used.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if _, err := flex.ParseAlgorithm(s.Options.Hash); err != nil {
		return fmt.Errorf("options: %w", err)
	}
	if _, err := store.ParseCompression(s.Options.Compression); err != nil {
		return fmt.Errorf("options: %w", err)
	}
	if s.Options.MaxDepth < 0 {
		return fmt.Errorf("options: max_depth must be non-negative")
	}

	aliases := make(map[string]bool)
	for i, step := range s.Steps {
		if err := validateStep(step, aliases); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
		if step.As != "" {
			if aliases[step.As] {
				return fmt.Errorf("steps[%d]: alias %q already defined", i, step.As)
			}
			aliases[step.As] = true
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a, aliases); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(step Step, aliases map[string]bool) error {
	requireAlias := func(field, alias string) error {
		if alias == "" {
			return fmt.Errorf("%s is required for %s", field, step.Op)
		}
		if !aliases[alias] {
			return fmt.Errorf("%s %q is not defined by an earlier step", field, alias)
		}
		return nil
	}

	switch step.Op {
	case OpCreate:
		if step.Creator == "" {
			return fmt.Errorf("creator is required for create")
		}
	case OpFork:
		if step.Creator == "" {
			return fmt.Errorf("creator is required for fork")
		}
		if err := requireAlias("parent", step.Parent); err != nil {
			return err
		}
	case OpCertify:
		if step.Certifier == "" {
			return fmt.Errorf("certifier is required for certify")
		}
		if err := requireAlias("document", step.Document); err != nil {
			return err
		}
	case OpReconstruct:
		if err := requireAlias("document", step.Document); err != nil {
			return err
		}
		if step.As != "" {
			return fmt.Errorf("reconstruct does not define an alias")
		}
	case "":
		return fmt.Errorf("op is required")
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}

	if (step.Op == OpCertify || step.Op == OpReconstruct) && step.Groups != nil {
		return fmt.Errorf("groups are not allowed for %s", step.Op)
	}
	if step.As != "" && step.ExpectError != "" {
		return fmt.Errorf("as cannot be combined with expect_error")
	}
	if step.ExpectError != "" && !knownCode(fault.Code(step.ExpectError)) {
		return fmt.Errorf("unknown expect_error code %q", step.ExpectError)
	}
	return nil
}

func knownCode(c fault.Code) bool {
	switch c {
	case fault.CodeEncoding, fault.CodeDuplicateContent, fault.CodeNotFound,
		fault.CodeUnauthorized, fault.CodeRecursionDepth:
		return true
	}
	return false
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(a Assertion, aliases map[string]bool) error {
	needDocument := func() error {
		if a.Document == "" {
			return fmt.Errorf("document is required for %s", a.Type)
		}
		if !aliases[a.Document] {
			return fmt.Errorf("document %q is not defined", a.Document)
		}
		return nil
	}

	switch a.Type {
	case AssertLabel:
		if err := needDocument(); err != nil {
			return err
		}
		if a.Value == nil {
			return fmt.Errorf("value is required for label")
		}
	case AssertDocumentCount:
		if a.Count < 0 {
			return fmt.Errorf("count must be non-negative")
		}
	case AssertCertificateCount, AssertDepth:
		if err := needDocument(); err != nil {
			return err
		}
		if a.Count < 0 {
			return fmt.Errorf("count must be non-negative")
		}
	case AssertHashEqual, AssertHashNotEqual:
		if len(a.Documents) != 2 {
			return fmt.Errorf("%s needs exactly two documents", a.Type)
		}
		for _, d := range a.Documents {
			if !aliases[d] {
				return fmt.Errorf("document %q is not defined", d)
			}
		}
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
