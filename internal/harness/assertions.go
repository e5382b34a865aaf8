package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/docgraph/internal/flex"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// evaluateAssertions evaluates all assertions against the final graph.
// Returns a message for each failed assertion.
func (h *Harness) evaluateAssertions(ctx context.Context, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertLabel:
			err = h.assertLabel(ctx, a)
		case AssertDocumentCount:
			err = h.assertDocumentCount(ctx, a)
		case AssertCertificateCount:
			err = h.assertCertificateCount(ctx, a)
		case AssertHashEqual, AssertHashNotEqual:
			err = h.assertHashes(a)
		case AssertDepth:
			err = h.assertDepth(ctx, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

// assertLabel reconstructs the document and compares the first value
// labeled a.Label. The expected value is parsed as the actual value's
// variant, so a Text "7" never equals an Int64 7.
func (h *Harness) assertLabel(ctx context.Context, a Assertion) error {
	doc := h.aliases[a.Document]
	r, err := h.engine.Reconstruct(ctx, doc.ID, h.maxDepth)
	if err != nil {
		return err
	}

	actual, ok := flex.Lookup(r.Groups, a.Label)
	if !ok {
		return &AssertionError{
			Type:     AssertLabel,
			Expected: fmt.Sprintf("%s.%s = %v", a.Document, a.Label, a.Value),
			Actual:   "label not present",
		}
	}

	expected, err := flex.ParseValue(actual.Kind().String(), a.Value)
	if err != nil || !flex.Equal(expected, actual) {
		return &AssertionError{
			Type:     AssertLabel,
			Expected: fmt.Sprintf("%s.%s = %v", a.Document, a.Label, a.Value),
			Actual:   fmt.Sprintf("%s %q", actual.Kind(), actual.String()),
		}
	}
	return nil
}

func (h *Harness) assertDocumentCount(ctx context.Context, a Assertion) error {
	n, err := h.store.Count(ctx)
	if err != nil {
		return err
	}
	if n != int64(a.Count) {
		return &AssertionError{
			Type:     AssertDocumentCount,
			Expected: fmt.Sprintf("%d documents", a.Count),
			Actual:   fmt.Sprintf("%d documents", n),
		}
	}
	return nil
}

func (h *Harness) assertCertificateCount(ctx context.Context, a Assertion) error {
	certs, err := h.store.Certificates(ctx, h.aliases[a.Document].ID)
	if err != nil {
		return err
	}
	if len(certs) != a.Count {
		return &AssertionError{
			Type:     AssertCertificateCount,
			Expected: fmt.Sprintf("%s has %d certificates", a.Document, a.Count),
			Actual:   fmt.Sprintf("%d certificates", len(certs)),
		}
	}
	return nil
}

func (h *Harness) assertHashes(a Assertion) error {
	x, y := h.aliases[a.Documents[0]].Hash, h.aliases[a.Documents[1]].Hash
	want := a.Type == AssertHashEqual
	if (x == y) != want {
		relation := "!="
		if want {
			relation = "=="
		}
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("hash(%s) %s hash(%s)", a.Documents[0], relation, a.Documents[1]),
			Actual:   fmt.Sprintf("%s vs %s", x, y),
		}
	}
	return nil
}

func (h *Harness) assertDepth(ctx context.Context, a Assertion) error {
	r, err := h.engine.Reconstruct(ctx, h.aliases[a.Document].ID, h.maxDepth)
	if err != nil {
		return err
	}
	if r.Depth != a.Count {
		return &AssertionError{
			Type:     AssertDepth,
			Expected: fmt.Sprintf("%s at depth %d", a.Document, a.Count),
			Actual:   fmt.Sprintf("depth %d", r.Depth),
		}
	}
	return nil
}
