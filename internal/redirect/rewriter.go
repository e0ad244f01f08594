package redirect

import (
	"csn-resolver/internal/diagnostic"
	"csn-resolver/internal/model"
	"csn-resolver/internal/navigate"
	"csn-resolver/internal/pass"
)

// Rewriter rewrites association elements of one model. Its state table is
// scoped to a single pass.
type Rewriter struct {
	ctx       *pass.Context
	states    map[model.ArtifactID]State
	validated map[model.ArtifactID]bool
	rewritten []model.ArtifactID
}

// New creates a rewriter.
func New(ctx *pass.Context) *Rewriter {
	return &Rewriter{
		ctx:       ctx,
		states:    make(map[model.ArtifactID]State),
		validated: make(map[model.ArtifactID]bool),
	}
}

// State returns the rewrite state of id.
func (r *Rewriter) State(id model.ArtifactID) State {
	return r.states[id]
}

// Validated reports whether the on-condition of id was already checked for
// navigability by the rewriter.
func (r *Rewriter) Validated(id model.ArtifactID) bool {
	return r.validated[id]
}

// Rewritten returns the elements in state Rewritten in processing order.
func (r *Rewriter) Rewritten() []model.ArtifactID {
	return r.rewritten
}

// Rewrite processes the association element id after the elements it
// originates from. A cycle in the origin chain is an internal error.
func (r *Rewriter) Rewrite(id model.ArtifactID) (State, error) {
	if st := r.states[id]; st.Done() {
		return st, nil
	}

	var chain []*model.Artifact

	for cur := r.ctx.Model.Art(id); cur != nil; cur = r.ctx.Model.Art(cur.Origin) {
		st := r.states[cur.ID]
		if st.Done() {
			break
		}

		if st == InProgress {
			for _, a := range chain {
				delete(r.states, a.ID)
			}

			return Failed, diagnostic.NewInternalError(diagnostic.ErrCircularRedirectionChain,
				r.ctx.Locate(id).String(), "%s is reached again through its origins", r.ctx.Name(cur.ID))
		}

		if cur.Origin == model.NoArtifact {
			r.states[cur.ID] = Unchanged
			break
		}

		r.states[cur.ID] = InProgress
		chain = append(chain, cur)
	}

	for i := len(chain) - 1; i >= 0; i-- {
		n := chain[i]

		st, err := r.process(n, r.ctx.Model.Art(n.Origin))
		if err != nil {
			for _, a := range chain[:i+1] {
				delete(r.states, a.ID)
			}

			return Failed, err
		}

		r.states[n.ID] = st
		if st == Rewritten {
			r.rewritten = append(r.rewritten, n.ID)
		}
	}

	return r.states[id], nil
}

func (r *Rewriter) process(n, o *model.Artifact) (State, error) {
	if !n.IsAssociation() || !o.IsAssociation() {
		return Unchanged, nil
	}

	if r.states[o.ID] == Failed {
		return Failed, nil
	}

	ctx := r.ctx.At(n.ID)

	if n.On != nil || n.Keys != nil {
		return r.explicit(ctx, n, o)
	}

	oldTarget, _ := ctx.Model.Target(o)
	newTarget, _ := ctx.Model.Target(n)

	chain, ok := NewChain(ctx.Model, oldTarget, newTarget)
	if !ok {
		ctx.Sink.Error(diagnostic.RedirectionToUnrelatedTarget, ctx.Here(), diagnostic.Params{
			"name":   ctx.Name(n.ID),
			"target": newTarget.Name,
			"origin": oldTarget.Name,
		})

		return Failed, nil
	}

	changed := len(chain.Scopes) > 0 || n.Filter != nil

	var (
		st  State
		err error
	)

	switch {
	case o.On != nil:
		st, err = r.inheritCondition(ctx, n, o, chain)
	case n.Filter != nil:
		st, err = r.publishFilter(ctx, n, o, chain)
	default:
		st, err = r.inheritKeys(ctx, n, o, chain)
	}

	if err != nil || st == Failed {
		return st, err
	}

	if n.Cardinality == nil {
		n.Cardinality = o.Cardinality.Clone()
	}

	if !changed {
		return Unchanged, nil
	}

	ctx.Logger.Debug("rewrote association",
		"element", ctx.Name(n.ID),
		"target", n.Target,
		"chain", len(chain.Scopes),
	)

	return Rewritten, nil
}

// explicit checks an element that declares its own on-condition or keys
// against its origin.
func (r *Rewriter) explicit(ctx *pass.Context, n, o *model.Artifact) (State, error) {
	given, kind := "", ""

	switch {
	case n.On != nil && o.IsManaged():
		given, kind = "an on-condition", "managed"
	case n.Keys != nil && !o.IsManaged():
		given, kind = "foreign keys", "unmanaged"
	}

	if given != "" {
		ctx.Sink.Error(diagnostic.MismatchedRedirectionKind, ctx.Here(), diagnostic.Params{
			"name":   ctx.Name(n.ID),
			"given":  given,
			"origin": ctx.Name(o.ID),
			"kind":   kind,
		})

		return Failed, nil
	}

	if n.Keys != nil {
		if !r.coverage(ctx, n, o) {
			return Failed, nil
		}

		return Unchanged, nil
	}

	r.validated[n.ID] = true
	if err := navigate.OnCondition(ctx, n); err != nil {
		return Failed, err
	}

	return Unchanged, nil
}

// coverage checks that the keys of n are named like the keys of o.
func (r *Rewriter) coverage(ctx *pass.Context, n, o *model.Artifact) bool {
	own := make(map[string]bool, len(n.Keys))
	for _, k := range n.Keys {
		own[k.Name] = true
	}

	inherited := make(map[string]bool, len(o.Keys))
	for _, k := range o.Keys {
		inherited[k.Name] = true
	}

	ok := true
	loc := ctx.Here().Property("keys")

	for _, k := range o.Keys {
		if !own[k.Name] {
			ctx.Sink.Error(diagnostic.ForeignKeyNotCoveredByRedirection, loc, diagnostic.Params{
				"id": k.Name, "origin": ctx.Name(o.ID), "name": ctx.Name(n.ID),
			})

			ok = false
		}
	}

	for _, k := range n.Keys {
		if !inherited[k.Name] {
			ctx.Sink.Error(diagnostic.ForeignKeyNotMatchedByRedirection, loc, diagnostic.Params{
				"id": k.Name, "origin": ctx.Name(o.ID), "name": ctx.Name(n.ID),
			})

			ok = false
		}
	}

	return ok
}
