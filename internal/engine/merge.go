package engine

import "github.com/roach88/docgraph/internal/flex"

// overlay applies child onto base index by index. base is not modified.
func overlay(base, child []flex.ContentGroup) []flex.ContentGroup {
	out := flex.CloneGroups(base)
	for j, g := range child {
		if j >= len(out) {
			out = append(out, g.Clone())
			continue
		}
		out[j] = overlayGroup(out[j], g)
	}
	return out
}

// overlayGroup replaces the k-th occurrence of each label in base with the
// k-th occurrence in child, and appends child contents with no
// counterpart.
func overlayGroup(base, child flex.ContentGroup) flex.ContentGroup {
	n := len(base)
	out := base.Clone()
	seen := make(map[string]int)
	for _, c := range child {
		k := seen[c.Label]
		seen[c.Label]++
		if i := nthLabel(out[:n], c.Label, k); i >= 0 {
			out[i] = c
		} else {
			out = append(out, c)
		}
	}
	return out
}

// nthLabel returns the index of the k-th (0-based) content labeled label,
// or -1.
func nthLabel(g flex.ContentGroup, label string, k int) int {
	for i, c := range g {
		if c.Label != label {
			continue
		}
		if k == 0 {
			return i
		}
		k--
	}
	return -1
}
