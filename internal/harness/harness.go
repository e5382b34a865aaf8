package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/docgraph/internal/clock"
	"github.com/roach88/docgraph/internal/engine"
	"github.com/roach88/docgraph/internal/fault"
	"github.com/roach88/docgraph/internal/flex"
	"github.com/roach88/docgraph/internal/store"
)

// Epoch is the fake clock's start time for every scenario.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Harness is the scenario execution engine.
// It runs steps against a private store with a deterministic clock.
type Harness struct {
	store    *store.Store
	engine   *engine.Engine
	maxDepth int
	aliases  map[string]flex.Document
	logger   *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// A nil logger discards output.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Execute steps, checking expected errors
// 3. Evaluate assertions if every step behaved as expected
//
// The returned error reports harness failures (the store could not be
// opened); scenario failures are reported in Result.
func Run(ctx context.Context, scenario *Scenario, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With("scenario", scenario.Name)

	alg, err := flex.ParseAlgorithm(scenario.Options.Hash)
	if err != nil {
		return nil, err
	}
	compression, err := store.ParseCompression(scenario.Options.Compression)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:", store.Options{
		Algorithm:   alg,
		Compression: compression,
		Authorizer:  store.NewStaticAuthorizer(scenario.Options.Certifiers...),
		Logger:      logger,
		Clock:       clock.Fake(Epoch, time.Millisecond),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	maxDepth := scenario.Options.MaxDepth
	if maxDepth == 0 {
		maxDepth = engine.DefaultMaxDepth
	}

	h := &Harness{
		store:    st,
		engine:   engine.New(st, engine.WithMaxDepth(maxDepth), engine.WithLogger(logger)),
		maxDepth: maxDepth,
		aliases:  make(map[string]flex.Document),
		logger:   logger,
	}

	result := NewResult()
	if !h.executeSteps(ctx, scenario.Steps, result) {
		return result, nil
	}

	for _, msg := range h.evaluateAssertions(ctx, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// executeSteps runs steps in order and stops at the first step that does
// not behave as expected. Reports whether all steps did.
func (h *Harness) executeSteps(ctx context.Context, steps []Step, result *Result) bool {
	for i, step := range steps {
		ev, err := h.execute(ctx, step)
		ev.Step = i
		ev.Op = step.Op
		ev.Alias = step.As

		code := fault.CodeOf(err)
		if err != nil {
			ev.Error = string(code)
		}
		result.AddTrace(ev)

		switch {
		case err != nil && step.ExpectError == "":
			result.AddError(fmt.Sprintf("steps[%d] %s: unexpected error: %v", i, step.Op, err))
			return false
		case err == nil && step.ExpectError != "":
			result.AddError(fmt.Sprintf("steps[%d] %s: expected %s, step succeeded", i, step.Op, step.ExpectError))
			return false
		case err != nil && string(code) != step.ExpectError:
			result.AddError(fmt.Sprintf("steps[%d] %s: expected %s, got %v", i, step.Op, step.ExpectError, err))
			return false
		}

		h.logger.Debug("step completed",
			"step", i,
			"op", step.Op,
			"document_id", ev.DocumentID,
			"error", ev.Error,
		)
	}
	return true
}

// execute performs one step. The returned event carries the step's
// observable outcome.
func (h *Harness) execute(ctx context.Context, step Step) (TraceEvent, error) {
	var ev TraceEvent

	switch step.Op {
	case OpCreate, OpFork:
		groups, err := flex.DecodeGroups(step.Groups)
		if err != nil {
			return ev, err
		}
		creator := flex.Identifier(step.Creator)

		var doc flex.Document
		if step.Op == OpCreate {
			doc, err = h.store.Create(ctx, creator, groups)
		} else {
			parent := h.aliases[step.Parent]
			ev.Parent = parent.Hash.String()
			if step.Diff {
				doc, err = h.engine.ForkDiff(ctx, parent.ID, groups, creator)
			} else {
				doc, err = h.engine.Fork(ctx, parent.ID, groups, creator)
			}
		}
		if err != nil {
			return ev, err
		}
		if step.As != "" {
			h.aliases[step.As] = doc
		}
		ev.DocumentID = doc.ID
		ev.Hash = doc.Hash.String()
		return ev, nil

	case OpCertify:
		doc := h.aliases[step.Document]
		ev.DocumentID = doc.ID
		ev.Hash = doc.Hash.String()
		ev.Certifier = step.Certifier
		_, err := h.store.Certify(ctx, doc.ID, flex.Identifier(step.Certifier), step.Notes)
		return ev, err

	case OpReconstruct:
		doc := h.aliases[step.Document]
		ev.DocumentID = doc.ID
		ev.Hash = doc.Hash.String()
		maxDepth := h.maxDepth
		if step.MaxDepth != nil {
			maxDepth = *step.MaxDepth
		}
		r, err := h.engine.Reconstruct(ctx, doc.ID, maxDepth)
		if err != nil {
			return ev, err
		}
		ev.Depth = r.Depth
		return ev, nil
	}

	return ev, fmt.Errorf("unknown op %q", step.Op)
}
