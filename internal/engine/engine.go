package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/docgraph/internal/flex"
)

// DefaultMaxDepth bounds ancestry walks when no other bound is given.
const DefaultMaxDepth = 64

// EdgeLabel labels the back-edge content of a fork.
const EdgeLabel = "forked_from"

// Documents is the slice of the document store the engine needs.
// *store.Store implements it.
type Documents interface {
	GetByID(ctx context.Context, id uint64) (flex.Document, error)
	GetByHash(ctx context.Context, hash flex.Digest) (flex.Document, error)
	CreateFork(ctx context.Context, creator flex.Identifier, groups []flex.ContentGroup, parent flex.Digest) (flex.Document, error)
}

// Engine forks and reconstructs documents.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	docs     Documents
	maxDepth int
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxDepth sets the bound ForkDiff uses to reconstruct the parent.
//
// Default: DefaultMaxDepth
func WithMaxDepth(maxDepth int) Option {
	return func(e *Engine) {
		e.maxDepth = maxDepth
	}
}

// WithLogger sets the logger. Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine over docs.
func New(docs Documents, opts ...Option) *Engine {
	e := &Engine{
		docs:     docs,
		maxDepth: DefaultMaxDepth,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxDepth returns the configured default walk bound.
func (e *Engine) MaxDepth() int {
	return e.maxDepth
}

// EdgeGroup builds the back-edge group pointing at parent.
func EdgeGroup(parent flex.Digest) flex.ContentGroup {
	return flex.Group(flex.C(EdgeLabel, parent))
}

// Fork creates a child of the document parentID.
//
// The child's groups are groups followed by EdgeGroup(parent.Hash).
// Callers are expected to pass only the groups that changed; Fork does
// not compute a diff (see ForkDiff). Fails with NOT_FOUND if the parent
// does not exist and DUPLICATE_CONTENT if the child's content is already
// stored.
func (e *Engine) Fork(ctx context.Context, parentID uint64, groups []flex.ContentGroup, creator flex.Identifier) (flex.Document, error) {
	parent, err := e.docs.GetByID(ctx, parentID)
	if err != nil {
		return flex.Document{}, fmt.Errorf("fork parent: %w", err)
	}

	child := append(flex.CloneGroups(groups), EdgeGroup(parent.Hash))

	doc, err := e.docs.CreateFork(ctx, creator, child, parent.Hash)
	if err != nil {
		return flex.Document{}, err
	}

	e.logger.Debug("document forked",
		"parent_id", parent.ID,
		"parent", parent.Hash,
		"child_id", doc.ID,
		"child", doc.Hash,
		"changed_groups", len(groups),
	)
	return doc, nil
}

// ForkDiff forks parentID so that the child reconstructs to desired,
// storing only the overlay computed by Diff against the parent's
// reconstructed data groups.
func (e *Engine) ForkDiff(ctx context.Context, parentID uint64, desired []flex.ContentGroup, creator flex.Identifier) (flex.Document, error) {
	base, err := e.Reconstruct(ctx, parentID, e.maxDepth)
	if err != nil {
		return flex.Document{}, fmt.Errorf("fork diff: %w", err)
	}

	overlay, err := Diff(base.Data, desired)
	if err != nil {
		return flex.Document{}, fmt.Errorf("fork diff: %w", err)
	}

	return e.Fork(ctx, parentID, overlay, creator)
}
