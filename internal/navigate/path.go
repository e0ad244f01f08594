package navigate

import (
	"csn-resolver/internal/diagnostic"
	"csn-resolver/internal/expand"
	"csn-resolver/internal/match"
	"csn-resolver/internal/model"
	"csn-resolver/internal/typeres"
)

// path checks the steps of p. It reports at most one diagnostic and returns
// false if it did.
func (v *validator) path(p *model.Path, opts pathOptions) (bool, error) {
	if p.Scope == model.ScopeParam || p.Scope == model.ScopeMagic {
		return true, nil
	}

	if !p.IsLinked() {
		return false, diagnostic.NewInternalError(diagnostic.ErrMissingArtifactForReference,
			v.loc.String(), "path %s is not linked", p)
	}

	start := 0
	if p.Scope == model.ScopeSelf {
		start = 1
	}

	last := p.Len() - 1

	for i := start; i <= last; i++ {
		if !v.stepDecorations(p, i, opts) {
			return false, nil
		}

		if i == last {
			break
		}

		lk := p.Link(i)
		if lk.Key != nil {
			continue
		}

		art := v.ctx.Model.Art(lk.Art)
		if art == nil {
			return false, diagnostic.NewInternalError(diagnostic.ErrMissingArtifactForReference,
				v.loc.String(), "step %q of %s has no artifact", p.Steps[i].ID, p)
		}

		desc, err := v.ctx.Types.ResolveArtifact(art.ID)
		if err != nil {
			return false, err
		}

		if desc.Association() && art.ID != v.owner {
			if !desc.Managed() {
				v.report(diagnostic.NavigationThroughUnmanagedAssociation, p, i)
				return false, nil
			}

			access := match.RequireForeignKeyAccess(v.ctx, p, i)
			if !access.OK() {
				v.report(diagnostic.NonForeignKeyAccessThroughManagedAssociation, p, i, access.Index)
				return false, nil
			}

			for k := i + 1; k < access.Index; k++ {
				if !v.stepDecorations(p, k, opts) {
					return false, nil
				}
			}

			// The last key step gets the full check: a key may itself be a
			// managed association.
			i = access.Index - 1

			continue
		}

		if art.Virtual {
			v.report(diagnostic.VirtualElementInRestrictedContext, p, i)
			return false, nil
		}

		if desc.Arrayed() {
			v.report(diagnostic.ArrayedPathInRestrictedContext, p, i)
			return false, nil
		}
	}

	return true, nil
}

// stepDecorations rejects filters and arguments on step i.
func (v *validator) stepDecorations(p *model.Path, i int, opts pathOptions) bool {
	s := p.Steps[i]
	if s.Filter == nil && s.Args == nil {
		return true
	}

	finalAssoc := false

	if opts.leafFilter && i == p.Len()-1 {
		desc, err := v.ctx.Types.ResolveArtifact(p.Link(i).Art)
		finalAssoc = err == nil && desc.Association()
	}

	if s.Filter != nil && !finalAssoc {
		v.report(diagnostic.UnexpectedFilterInPath, p, i)
		return false
	}

	if s.Args != nil && !finalAssoc && !opts.args {
		v.report(diagnostic.UnexpectedArgumentsInPath, p, i)
		return false
	}

	return true
}

// report emits kind for step i of p. The step named by the "id" parameter is
// the one at the optional index at, or step i.
func (v *validator) report(kind diagnostic.Kind, p *model.Path, i int, at ...int) {
	idx := i
	if len(at) > 0 {
		idx = at[0]
	}

	id := "nothing"
	if idx < p.Len() {
		id = p.Steps[idx].ID
	}

	v.ctx.Sink.Error(kind, v.loc, diagnostic.Params{
		"name":    p.Steps[i].ID,
		"id":      id,
		"path":    p.String(),
		"context": v.family.String(),
	})
}

// leaves checks that the operands of comparison e end on scalars, unless
// they may be compared as tuples or one of them is a bare $self.
func (v *validator) leaves(e *model.Expr) error {
	if e.Kind != model.ExprCompare {
		return nil
	}

	var (
		flagged []*model.Path
		arrayed []*model.Path
		self    bool
	)

	for _, a := range e.Args {
		if a.Kind != model.ExprRef {
			continue
		}

		if a.Ref.IsBareSelf() {
			self = true
			continue
		}

		if a.Ref.Scope == model.ScopeParam || a.Ref.Scope == model.ScopeMagic {
			continue
		}

		desc, err := expand.LeafType(v.ctx, a.Ref)
		if err != nil {
			return err
		}

		if desc.Arrayed() {
			arrayed = append(arrayed, a.Ref)
		} else if needsScalarCheck(v.ctx.Model.Art(a.Ref.Leaf().Art), desc) {
			flagged = append(flagged, a.Ref)
		}
	}

	for _, p := range arrayed {
		v.reportLeaf(p)
	}

	if len(flagged) == 0 || self {
		return nil
	}

	tuple, err := expand.Check(v.ctx, e, v.loc)
	if err != nil {
		return err
	}

	if tuple {
		return nil
	}

	for _, p := range flagged {
		v.reportLeaf(p)
	}

	return nil
}

func needsScalarCheck(art *model.Artifact, desc *typeres.Descriptor) bool {
	if art == nil {
		return false
	}

	return art.Virtual || desc.Structured() || (desc.Association() && !desc.Managed())
}

func (v *validator) reportLeaf(p *model.Path) {
	v.ctx.Sink.Error(diagnostic.StructuralLeafNotScalar, v.loc, diagnostic.Params{
		"path":    p.String(),
		"context": v.family.String(),
	})
}
