package engine

import (
	"context"
	"fmt"

	"github.com/roach88/docgraph/internal/fault"
	"github.com/roach88/docgraph/internal/flex"
)

// Reconstruction is the effective content of a document.
type Reconstruction struct {
	// DocumentID and Hash identify the reconstructed (leaf) document.
	DocumentID uint64
	Hash       flex.Digest

	// Groups is the merged content: Data followed by the leaf's edge
	// group, if the leaf has a parent.
	Groups []flex.ContentGroup

	// Data is the merged content without the leaf's edge group.
	Data []flex.ContentGroup

	// Lineage lists hashes from the leaf to the root.
	Lineage []flex.Digest

	// Depth is the number of edges traversed.
	Depth int
}

// node is one document on the walk with its edge split off.
type node struct {
	doc  flex.Document
	data []flex.ContentGroup
	edge flex.ContentGroup // nil for a root
}

// Reconstruct materializes the effective content of documentID by
// walking its ancestry. maxDepth bounds the number of edges traversed;
// negative values are treated as 0.
func (e *Engine) Reconstruct(ctx context.Context, documentID uint64, maxDepth int) (Reconstruction, error) {
	leaf, err := e.docs.GetByID(ctx, documentID)
	if err != nil {
		return Reconstruction{}, fmt.Errorf("reconstruct: %w", err)
	}
	return e.reconstruct(ctx, leaf, maxDepth)
}

// ReconstructHash is Reconstruct addressed by content hash.
func (e *Engine) ReconstructHash(ctx context.Context, hash flex.Digest, maxDepth int) (Reconstruction, error) {
	leaf, err := e.docs.GetByHash(ctx, hash)
	if err != nil {
		return Reconstruction{}, fmt.Errorf("reconstruct: %w", err)
	}
	return e.reconstruct(ctx, leaf, maxDepth)
}

func (e *Engine) reconstruct(ctx context.Context, leaf flex.Document, maxDepth int) (Reconstruction, error) {
	guard := newWalkGuard(leaf.Hash, maxDepth)

	var chain []node
	cur := leaf
	for {
		n, parent, err := e.split(ctx, cur)
		if err != nil {
			return Reconstruction{}, fmt.Errorf("reconstruct %d: %w", leaf.ID, err)
		}
		chain = append(chain, n)
		if parent == nil {
			break
		}
		if err := guard.Step(cur.ID, parent.Hash); err != nil {
			e.logger.Warn("reconstruction aborted",
				"id", leaf.ID,
				"at", cur.ID,
				"depth", guard.Depth(),
				"max_depth", maxDepth,
				"error", err,
			)
			return Reconstruction{}, fmt.Errorf("reconstruct %d: %w", leaf.ID, err)
		}
		cur = *parent
	}

	// chain runs leaf -> root; merge root -> leaf.
	root := chain[len(chain)-1]
	data := flex.CloneGroups(root.data)
	for i := len(chain) - 2; i >= 0; i-- {
		data = overlay(data, chain[i].data)
	}

	groups := flex.CloneGroups(data)
	if edge := chain[0].edge; edge != nil {
		groups = append(groups, edge.Clone())
	}

	lineage := make([]flex.Digest, len(chain))
	for i, n := range chain {
		lineage[i] = n.doc.Hash
	}

	e.logger.Debug("document reconstructed",
		"id", leaf.ID,
		"hash", leaf.Hash,
		"depth", guard.Depth(),
		"groups", len(groups),
	)

	return Reconstruction{
		DocumentID: leaf.ID,
		Hash:       leaf.Hash,
		Groups:     groups,
		Data:       data,
		Lineage:    lineage,
		Depth:      guard.Depth(),
	}, nil
}

// split finds doc's back-edge. The parent is the first Digest in the last
// group that resolves to a stored document; that group is then the edge
// group. A document without one is a root.
func (e *Engine) split(ctx context.Context, doc flex.Document) (node, *flex.Document, error) {
	n := node{doc: doc, data: doc.ContentGroups}
	if len(doc.ContentGroups) == 0 {
		return n, nil, nil
	}

	last := doc.ContentGroups[len(doc.ContentGroups)-1]
	for _, d := range last.Digests() {
		parent, err := e.docs.GetByHash(ctx, d)
		if fault.IsNotFound(err) {
			continue
		}
		if err != nil {
			return node{}, nil, err
		}
		n.data = doc.ContentGroups[:len(doc.ContentGroups)-1]
		n.edge = last
		return n, &parent, nil
	}
	return n, nil, nil
}
