package engine

import (
	"github.com/roach88/docgraph/internal/fault"
	"github.com/roach88/docgraph/internal/flex"
)

// Diff computes the smallest overlay that turns base into desired under
// the reconstruction merge rule, so that overlay(base, Diff(base,
// desired)) equals desired.
//
// Unchanged groups become empty placeholders and trailing placeholders
// are trimmed. Only replacements and additions are expressible: removing
// or reordering contents, or dropping groups, is an ENCODING error.
func Diff(base, desired []flex.ContentGroup) ([]flex.ContentGroup, error) {
	if len(desired) < len(base) {
		return nil, fault.Encodingf("diff: desired has %d groups, base has %d; groups cannot be removed",
			len(desired), len(base))
	}

	out := make([]flex.ContentGroup, 0, len(desired))
	for j, d := range desired {
		if j >= len(base) {
			out = append(out, d.Clone())
			continue
		}
		g, err := diffGroup(j, base[j], d)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}

	// Trim trailing placeholders; groups past the end of base are real.
	end := len(out)
	for end > 0 && end <= len(base) && len(out[end-1]) == 0 {
		end--
	}
	return out[:end], nil
}

func diffGroup(j int, base, desired flex.ContentGroup) (flex.ContentGroup, error) {
	if len(desired) < len(base) {
		return nil, fault.Encodingf("diff: group %d shrinks from %d to %d contents; removal is not expressible",
			j, len(base), len(desired))
	}

	// need[L] is how many leading occurrences of L the overlay must carry
	// so that its occurrence numbering lines up with base.
	need := make(map[string]int)
	occurrence := make(map[string]int)
	baseCount := make(map[string]int)
	for i, b := range base {
		d := desired[i]
		if d.Label != b.Label {
			return nil, fault.Encodingf("diff: group %d content %d label %q became %q; reordering is not expressible",
				j, i, b.Label, d.Label)
		}
		k := occurrence[b.Label]
		occurrence[b.Label]++
		baseCount[b.Label]++
		if !flex.Equal(b.Value, d.Value) {
			need[b.Label] = k + 1
		}
	}

	tail := desired[len(base):]
	for _, c := range tail {
		// Appended contents must not land on an existing occurrence.
		need[c.Label] = baseCount[c.Label]
	}

	var out flex.ContentGroup
	occurrence = make(map[string]int)
	for i := range base {
		d := desired[i]
		k := occurrence[d.Label]
		occurrence[d.Label]++
		if k < need[d.Label] {
			out = append(out, d)
		}
	}
	out = append(out, tail...)

	if out == nil {
		out = flex.ContentGroup{}
	}
	return out, nil
}
