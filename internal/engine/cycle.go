package engine

import (
	"fmt"

	"github.com/roach88/docgraph/internal/fault"
	"github.com/roach88/docgraph/internal/flex"
)

// walkGuard bounds a single ancestry walk.
//
// A walk fails when it would traverse more than maxDepth edges or reach a
// hash it has already visited. Both are reported as
// RECURSION_DEPTH_EXCEEDED: a cycle is the degenerate case of an
// unbounded ancestry.
//
// Not safe for concurrent use; each walk owns its guard.
type walkGuard struct {
	maxDepth int
	depth    int
	visited  map[flex.Digest]bool
}

func newWalkGuard(start flex.Digest, maxDepth int) *walkGuard {
	if maxDepth < 0 {
		maxDepth = 0
	}
	return &walkGuard{
		maxDepth: maxDepth,
		visited:  map[flex.Digest]bool{start: true},
	}
}

// Step records traversal of an edge from the document fromID to hash.
func (g *walkGuard) Step(fromID uint64, to flex.Digest) error {
	if g.visited[to] {
		return fault.NewRecursionDepth(fromID, to.String(), g.maxDepth,
			fmt.Sprintf("cycle: %s already visited at depth %d", to, g.depth))
	}
	if g.depth >= g.maxDepth {
		return fault.NewRecursionDepth(fromID, to.String(), g.maxDepth,
			fmt.Sprintf("%d edges traversed", g.depth))
	}
	g.visited[to] = true
	g.depth++
	return nil
}

// Depth returns the number of edges traversed.
func (g *walkGuard) Depth() int {
	return g.depth
}
