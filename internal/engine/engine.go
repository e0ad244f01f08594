package engine

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"csn-resolver/internal/common"
	"csn-resolver/internal/ctxlog"
	"csn-resolver/internal/diagnostic"
	"csn-resolver/internal/expand"
	"csn-resolver/internal/link"
	"csn-resolver/internal/model"
	"csn-resolver/internal/navigate"
	"csn-resolver/internal/pass"
	"csn-resolver/internal/redirect"
	"csn-resolver/internal/typeres"
)

// Engine runs the resolution pass over one model.
type Engine struct {
	model    *model.Model
	sink     diagnostic.Sink
	opts     Options
	rewriter *redirect.Rewriter
}

// Result summarizes a pass.
type Result struct {
	States    map[redirect.State]int
	Failed    []string // associations in state Failed, by locator
	Rewritten []string // associations in state Rewritten, in processing order
	Types     typeres.Stats

	Errors   int
	Warnings int
	Infos    int

	// Passed is false if errors were reported, or warnings with
	// Options.FailOnWarnings.
	Passed bool
}

// New creates an engine for the linked model m. Diagnostics go to sink.
func New(m *model.Model, sink diagnostic.Sink, opts Options) *Engine {
	return &Engine{model: m, sink: sink, opts: opts}
}

// Load reads, parses and links a model file.
func Load(path string) (*model.Model, error) {
	m, err := model.LoadFile(path)
	if err != nil {
		return nil, err
	}

	if err := link.Model(m); err != nil {
		return nil, fmt.Errorf("linking %s: %w", path, err)
	}

	return m, nil
}

// State returns the rewrite state of the association element id. It is
// Unvisited before Run.
func (e *Engine) State(id model.ArtifactID) redirect.State {
	if e.rewriter == nil {
		return redirect.Unvisited
	}

	return e.rewriter.State(id)
}

// Run rewrites every association of the model and validates on-conditions,
// stored calculated elements and queries. User errors are reported to the
// sink; the returned error is an internal error or the context's error.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	counts := &counter{next: e.sink}

	pc := pass.New(e.model, diagnostic.NewLoggingSink(counts, logger), logger)
	e.rewriter = redirect.New(pc)

	assocs := associations(e.model)

	logger.Debug("starting pass", slog.Int("associations", len(assocs)))

	for _, a := range assocs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if _, err := e.rewriter.Rewrite(a.ID); err != nil {
			return nil, err
		}
	}

	if err := e.validate(ctx, pc, assocs); err != nil {
		return nil, err
	}

	if e.opts.ExpandTuples {
		if err := e.expand(pc, assocs); err != nil {
			return nil, err
		}
	}

	res := e.result(pc, assocs, counts)

	logger.Info("pass finished",
		slog.Int("rewritten", len(res.Rewritten)),
		slog.Int("failed", len(res.Failed)),
		slog.Int("errors", res.Errors),
		slog.Int("warnings", res.Warnings),
		slog.Int("type_walks", res.Types.Walks),
		slog.Int("type_cache_hits", res.Types.Hits),
	)

	return res, nil
}

func (e *Engine) validate(ctx context.Context, pc *pass.Context, assocs []*model.Artifact) error {
	for _, a := range assocs {
		if e.rewriter.Validated(a.ID) || e.rewriter.State(a.ID) == redirect.Failed {
			continue
		}

		if err := navigate.OnCondition(pc.At(a.ID), a); err != nil {
			return err
		}
	}

	for a := range e.model.Members() {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := navigate.Calculated(pc.At(a.ID), a); err != nil {
			return err
		}
	}

	if !e.opts.ValidateQueries {
		return nil
	}

	for _, def := range e.model.Definitions() {
		if def.IsView() {
			if err := navigate.Query(pc.At(def.ID), def); err != nil {
				return err
			}
		}
	}

	return nil
}

func (e *Engine) expand(pc *pass.Context, assocs []*model.Artifact) error {
	for _, a := range assocs {
		if a.On == nil || e.rewriter.State(a.ID) == redirect.Failed {
			continue
		}

		on, err := expandAll(pc.At(a.ID), a.On)
		if err != nil {
			return diagnostic.NewInternalError(diagnostic.ErrMissingArtifactForReference,
				pc.Locate(a.ID).String(), "expanding on-condition: %v", err)
		}

		a.On = on
	}

	return nil
}

// expandAll replaces every tuple comparison in e by its expansion.
func expandAll(pc *pass.Context, e *model.Expr) (*model.Expr, error) {
	if e.Kind == model.ExprCompare {
		return expand.Expand(pc, e)
	}

	for i, arg := range e.Args {
		x, err := expandAll(pc, arg)
		if err != nil {
			return nil, err
		}

		e.Args[i] = x
	}

	return e, nil
}

func (e *Engine) result(pc *pass.Context, assocs []*model.Artifact, counts *counter) *Result {
	res := &Result{
		States:   make(map[redirect.State]int),
		Types:    pc.Types.Stats(),
		Errors:   counts.errors,
		Warnings: counts.warnings,
		Infos:    counts.infos,
	}

	for _, a := range assocs {
		st := e.rewriter.State(a.ID)
		res.States[st]++

		if st == redirect.Failed {
			res.Failed = append(res.Failed, pc.Name(a.ID))
		}
	}

	for _, id := range e.rewriter.Rewritten() {
		res.Rewritten = append(res.Rewritten, pc.Name(id))
	}

	res.Passed = res.Errors == 0 && !(e.opts.FailOnWarnings && res.Warnings > 0)

	return res
}

// associations returns every association element of m, each after the
// element it originates from. Ties are broken by locator. If origins form a
// cycle the plain locator order is returned and the rewriter reports the
// cycle.
func associations(m *model.Model) []*model.Artifact {
	var list []*model.Artifact

	for a := range m.Members() {
		if a.IsAssociation() {
			list = append(list, a)
		}
	}

	if common.IsEmpty(list) {
		return nil
	}

	slices.SortFunc(list, func(a, b *model.Artifact) int {
		return cmp.Compare(m.Locator(a.ID), m.Locator(b.ID))
	})

	index := make(map[model.ArtifactID]int, len(list))
	for i, a := range list {
		index[a.ID] = i
	}

	order, err := common.TopoSort(len(list), func(i int) []int {
		if j, ok := index[list[i].Origin]; ok {
			return []int{j}
		}

		return nil
	})
	if err != nil {
		return list
	}

	sorted := make([]*model.Artifact, len(order))
	for i, j := range order {
		sorted[i] = list[j]
	}

	return sorted
}

// counter is a Sink that counts diagnostics per severity before forwarding
// them.
type counter struct {
	next diagnostic.Sink

	errors, warnings, infos int
}

func (c *counter) Error(kind diagnostic.Kind, loc diagnostic.Location, params diagnostic.Params) {
	c.errors++
	c.next.Error(kind, loc, params)
}

func (c *counter) Warning(kind diagnostic.Kind, loc diagnostic.Location, params diagnostic.Params) {
	c.warnings++
	c.next.Warning(kind, loc, params)
}

func (c *counter) Info(kind diagnostic.Kind, loc diagnostic.Location, params diagnostic.Params) {
	c.infos++
	c.next.Info(kind, loc, params)
}
