package redirect

import (
	"strings"

	"csn-resolver/internal/diagnostic"
	"csn-resolver/internal/link"
	"csn-resolver/internal/match"
	"csn-resolver/internal/model"
	"csn-resolver/internal/navigate"
	"csn-resolver/internal/pass"
)

// remapper rewrites the paths of an expression inherited from the origin o
// so that they read relative to the element n.
type remapper struct {
	ctx   *pass.Context
	rw    *Rewriter
	n, o  *model.Artifact
	chain Chain
	loc   diagnostic.Location
	// err is an internal error met while remapping.
	err error
}

// condition returns a rewritten copy of e. It reports the first path that
// can't be remapped and returns false.
func (rm *remapper) condition(e *model.Expr) (*model.Expr, bool) {
	out := e.Clone()
	ok := true

	out.Walk(func(x *model.Expr) bool {
		if !ok || x.Kind != model.ExprRef {
			return ok
		}

		p, good := rm.sourcePath(x.Ref)
		if !good {
			ok = false
			return false
		}

		x.Ref = p

		return true
	})

	return out, ok
}

// sourcePath remaps a path of an inherited on-condition. Paths through the
// association follow the redirection chain, paths to sibling elements are
// mapped to the elements of n's parent projected from them, and $self is
// bound to n's definition when the result is linked.
func (rm *remapper) sourcePath(p *model.Path) (*model.Path, bool) {
	switch p.Scope {
	case model.ScopeParam, model.ScopeMagic:
		return p, true

	case model.ScopeSelf:
		if p.Len() == 1 {
			return &model.Path{Steps: []model.Step{{ID: p.Steps[0].ID}}, Scope: model.ScopeSelf}, true
		}

		tail, ok := rm.ordinary(p.Steps[1:], p.Links[1:])
		if !ok {
			return nil, false
		}

		steps := append([]model.Step{{ID: p.Steps[0].ID}}, tail...)

		return &model.Path{Steps: steps, Scope: model.ScopeSelf}, true
	}

	steps, ok := rm.ordinary(p.Steps, p.Links)
	if !ok {
		return nil, false
	}

	return &model.Path{Steps: steps}, true
}

func (rm *remapper) ordinary(steps []model.Step, links []model.Link) ([]model.Step, bool) {
	if links[0].Art == rm.o.ID && links[0].Key == nil {
		tail, ok := rm.targetSteps(steps[1:], links[1:])
		if !ok {
			return nil, false
		}

		return append([]model.Step{{ID: rm.n.Name}}, tail...), true
	}

	if links[0].Key != nil {
		field, ok := rm.keyField(links[0].Key, steps[0].ID)
		if !ok {
			return nil, false
		}

		return append([]model.Step{{ID: field}}, unlinked(steps[1:])...), true
	}

	sibling, ok := rm.sibling(links[0].Art, steps[0].ID)
	if !ok {
		return nil, false
	}

	return append([]model.Step{{ID: sibling.Name}}, unlinked(steps[1:])...), true
}

// keyField maps the generated foreign key field name of o's parent to the
// field generated for the association of n's parent projected from
// key.Assoc. That association gets its keys first.
func (rm *remapper) keyField(key *model.KeyRef, name string) (string, bool) {
	if rm.n.Parent == rm.o.Parent {
		return name, true
	}

	parent := rm.ctx.Model.Art(rm.n.Parent)

	assoc := exposedBy(rm.ctx.Model, parent, key.Assoc)
	if assoc != nil && assoc.Keys == nil && rm.rw != nil {
		st, err := rm.rw.Rewrite(assoc.ID)
		if err != nil {
			rm.err = err
			return "", false
		}

		// already reported
		if st == Failed {
			return "", false
		}
	}

	if assoc != nil && assoc.IsManaged() {
		for _, k := range assoc.Keys {
			if k.Name == key.Key {
				return assoc.Name + "_" + k.Name, true
			}
		}
	}

	names := parent.Elements.Names()
	for _, id := range parent.Elements.All() {
		if a := rm.ctx.Model.Art(id); a.IsManaged() {
			for _, k := range a.Keys {
				names = append(names, a.Name+"_"+k.Name)
			}
		}
	}

	rm.ctx.Sink.Error(diagnostic.ConditionElementNotProjected, rm.loc, diagnostic.Params{
		"id":           name,
		"art":          rm.ctx.Name(parent.ID),
		"name":         rm.ctx.Name(rm.n.ID),
		"alternatives": strings.Join(match.Suggest(name, names, 3), ", "),
	})

	return "", false
}

// targetSteps maps the first of steps, an element of the original target,
// through the redirection chain.
func (rm *remapper) targetSteps(steps []model.Step, links []model.Link) ([]model.Step, bool) {
	if len(steps) == 0 {
		return nil, true
	}

	if links[0].Key != nil {
		return unlinked(steps), true
	}

	el, miss := rm.chain.Map(rm.ctx.Model, links[0].Art)
	if miss != nil {
		rm.ctx.Sink.Error(diagnostic.RedirectionTargetNotProjected, rm.loc, diagnostic.Params{
			"id":           miss.Name,
			"target":       miss.Scope.Name,
			"name":         rm.ctx.Name(rm.n.ID),
			"alternatives": miss.Alternatives(),
		})

		return nil, false
	}

	return append([]model.Step{{ID: el.Name}}, unlinked(steps[1:])...), true
}

// sibling returns the element of n's parent projected from the element id
// of o's parent.
func (rm *remapper) sibling(id model.ArtifactID, name string) (*model.Artifact, bool) {
	parent := rm.ctx.Model.Art(rm.n.Parent)

	if rm.n.Parent == rm.o.Parent {
		if el := rm.ctx.Model.Art(id); el != nil {
			return el, true
		}
	}

	if el := exposedBy(rm.ctx.Model, parent, id); el != nil {
		return el, true
	}

	rm.ctx.Sink.Error(diagnostic.ConditionElementNotProjected, rm.loc, diagnostic.Params{
		"id":           name,
		"art":          rm.ctx.Name(parent.ID),
		"name":         rm.ctx.Name(rm.n.ID),
		"alternatives": strings.Join(match.Suggest(name, parent.Elements.Names(), 3), ", "),
	})

	return nil, false
}

// filterPath prefixes a path of a published filter, which reads relative to
// the original target, with the association.
func (rm *remapper) filterPath(p *model.Path) (*model.Path, bool) {
	if p.Scope != model.ScopeOrdinary {
		return p, true
	}

	tail, ok := rm.targetSteps(p.Steps, p.Links)
	if !ok {
		return nil, false
	}

	return &model.Path{Steps: append([]model.Step{{ID: rm.n.Name}}, tail...)}, true
}

// filter returns the published filter of n rewritten relative to n's parent.
func (rm *remapper) filter() (*model.Expr, bool) {
	out := rm.n.Filter.Clone()
	ok := true

	out.Walk(func(x *model.Expr) bool {
		if !ok || x.Kind != model.ExprRef {
			return ok
		}

		p, good := rm.filterPath(x.Ref)
		if !good {
			ok = false
			return false
		}

		x.Ref = p

		return true
	})

	return out, ok
}

// inheritCondition copies the on-condition of o to n.
func (r *Rewriter) inheritCondition(ctx *pass.Context, n, o *model.Artifact, chain Chain) (State, error) {
	rm := &remapper{ctx: ctx, rw: r, n: n, o: o, chain: chain, loc: ctx.Here().Property("on")}

	on, ok := rm.condition(o.On)
	if rm.err != nil {
		return Failed, rm.err
	}

	if !ok {
		return Failed, nil
	}

	if n.Filter != nil {
		filter, ok := rm.filter()
		if !ok {
			return Failed, nil
		}

		on = junction(on, filter)
	}

	return r.install(ctx, n, on)
}

// publishFilter turns the managed association n, published with a filter,
// into an unmanaged one: each foreign key becomes an equality between the
// target element and the foreign key field generated for o, and the filter
// is added.
func (r *Rewriter) publishFilter(ctx *pass.Context, n, o *model.Artifact, chain Chain) (State, error) {
	loc := ctx.Here().Property("on")

	if len(o.Keys) == 0 {
		ctx.Sink.Error(diagnostic.MissingForeignKeyForPublishedFilter, loc, diagnostic.Params{
			"name": ctx.Name(n.ID),
		})

		return Failed, nil
	}

	rm := &remapper{ctx: ctx, n: n, o: o, chain: chain, loc: loc}
	terms := make([]*model.Expr, 0, len(o.Keys))

	for _, k := range o.Keys {
		tail, ok := rm.targetSteps(k.Ref.Steps, k.Ref.Links)
		if !ok {
			return Failed, nil
		}

		lhs := &model.Path{Steps: append([]model.Step{{ID: n.Name}}, tail...)}
		rhs := &model.Path{
			Steps: []model.Step{{ID: o.Name + "_" + k.Name}},
			Links: []model.Link{{Art: k.Ref.Leaf().Art, Key: &model.KeyRef{Assoc: o.ID, Key: k.Name}}},
		}

		terms = append(terms, model.Compare(model.OpEq, model.RefExpr(lhs), model.RefExpr(rhs)))
	}

	filter, ok := rm.filter()
	if !ok {
		return Failed, nil
	}

	on := junction(model.And(terms...), filter)

	st, err := r.install(ctx, n, on)
	if err != nil || st == Failed {
		return st, err
	}

	ctx.Sink.Info(diagnostic.PublishedFilterConvertedAssociation, ctx.Here(), diagnostic.Params{
		"name": ctx.Name(n.ID),
	})

	return st, nil
}

// install links the new on-condition, swaps it onto n and validates it.
func (r *Rewriter) install(ctx *pass.Context, n *model.Artifact, on *model.Expr) (State, error) {
	if err := linkFresh(ctx, on, ctx.Linker.ElementEnv(n)); err != nil {
		return Failed, diagnostic.NewInternalError(diagnostic.ErrMissingArtifactForReference,
			ctx.Here().String(), "relinking rewritten on-condition: %v", err)
	}

	n.On, n.Keys = on, nil
	r.validated[n.ID] = true

	if err := navigate.OnCondition(ctx, n); err != nil {
		return Failed, err
	}

	return Unchanged, nil
}

// inheritKeys regenerates the foreign keys of o for n.
func (r *Rewriter) inheritKeys(ctx *pass.Context, n, o *model.Artifact, chain Chain) (State, error) {
	rm := &remapper{ctx: ctx, n: n, o: o, chain: chain, loc: ctx.Here().Property("keys")}
	keys := make([]*model.ForeignKey, 0, len(o.Keys))

	for _, k := range o.Keys {
		steps, ok := rm.targetSteps(k.Ref.Steps, k.Ref.Links)
		if !ok {
			return Failed, nil
		}

		keys = append(keys, &model.ForeignKey{Name: k.Name, Ref: &model.Path{Steps: steps}})
	}

	env, err := ctx.Linker.TargetEnv(n)
	if err == nil {
		for _, k := range keys {
			if err = ctx.Linker.LinkPath(k.Ref, env); err != nil {
				break
			}
		}
	}

	if err != nil {
		return Failed, diagnostic.NewInternalError(diagnostic.ErrMissingArtifactForReference,
			ctx.Here().String(), "relinking rewritten keys: %v", err)
	}

	n.Keys = keys

	return Unchanged, nil
}

// junction adds filter to on: as a disjunct if the filter is negated, as a
// conjunct otherwise.
func junction(on, filter *model.Expr) *model.Expr {
	if filter.IsNegated() {
		return model.Or(on, filter)
	}

	return model.And(on, filter)
}

// linkFresh links the paths of e that have no links yet.
func linkFresh(ctx *pass.Context, e *model.Expr, env link.Env) error {
	for _, p := range e.Refs() {
		if p.IsLinked() {
			continue
		}

		if err := ctx.Linker.LinkPath(p, env); err != nil {
			return err
		}
	}

	return nil
}

func unlinked(steps []model.Step) []model.Step {
	out := make([]model.Step, len(steps))
	for i, s := range steps {
		out[i] = model.Step{ID: s.ID, Filter: s.Filter.Clone(), Args: s.Args}
	}

	return out
}
