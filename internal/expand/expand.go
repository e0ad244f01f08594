package expand

import (
	"fmt"
	"strings"

	"csn-resolver/internal/diagnostic"
	"csn-resolver/internal/model"
	"csn-resolver/internal/pass"
	"csn-resolver/internal/typeres"
)

// Leaf is the relative path of one scalar leaf of a tuple operand.
type Leaf []string

// String returns the dotted name of the leaf.
func (l Leaf) String() string {
	return strings.Join(l, ".")
}

// IsRestrictedOperator reports whether op orders values and thus can't
// compare tuples.
func IsRestrictedOperator(op string) bool {
	switch op {
	case model.OpLt, model.OpGt, model.OpLe, model.OpGe:
		return true
	default:
		return false
	}
}

// Leaves returns the leaves of the element p ends on if it is a tuple: a
// structure or a managed association with at least one foreign key.
func Leaves(ctx *pass.Context, p *model.Path) ([]Leaf, bool, error) {
	desc, err := LeafType(ctx, p)
	if err != nil {
		return nil, false, err
	}

	return leavesOf(ctx, desc, nil)
}

// LeafType resolves the type of the element p ends on. A generated foreign
// key field has the type of the target element it stands for.
func LeafType(ctx *pass.Context, p *model.Path) (*typeres.Descriptor, error) {
	leaf := p.Leaf()
	if leaf.Art == model.NoArtifact {
		return nil, nil
	}

	return ctx.Types.ResolveArtifact(leaf.Art)
}

func leavesOf(ctx *pass.Context, desc *typeres.Descriptor, prefix Leaf) ([]Leaf, bool, error) {
	switch {
	case desc.Structured():
		var out []Leaf

		for name, id := range desc.Art.Elements.All() {
			el := ctx.Model.Art(id)
			if el.Virtual {
				continue
			}

			sub, err := ctx.Types.ResolveArtifact(id)
			if err != nil {
				return nil, false, err
			}

			path := append(append(Leaf{}, prefix...), name)

			nested, ok, err := leavesOf(ctx, sub, path)
			if err != nil {
				return nil, false, err
			}

			switch {
			case ok:
				out = append(out, nested...)
			case sub.Scalar() || sub == nil:
				out = append(out, path)
			}
		}

		return out, true, nil

	case desc.Managed() && len(desc.Art.Keys) > 0:
		out := make([]Leaf, 0, len(desc.Art.Keys))
		for _, k := range desc.Art.Keys {
			out = append(out, append(append(Leaf{}, prefix...), k.Segments()...))
		}

		return out, true, nil

	default:
		return nil, false, nil
	}
}

// Check decides whether the comparison cmp may be a tuple comparison and
// reports the problems of one that is. It returns true if no scalar leaf
// check is needed for the operands: the comparison tests for null, has a
// null literal operand, or compares two tuples.
func Check(ctx *pass.Context, cmp *model.Expr, loc diagnostic.Location) (bool, error) {
	switch cmp.Kind {
	case model.ExprIsNull, model.ExprIsNotNull:
		return true, nil
	case model.ExprCompare:
	default:
		return false, nil
	}

	lhs, rhs := cmp.Args[0], cmp.Args[1]
	if lhs.IsNullLiteral() || rhs.IsNullLiteral() {
		return true, nil
	}

	if lhs.Kind != model.ExprRef || rhs.Kind != model.ExprRef {
		return false, nil
	}

	ll, lok, err := Leaves(ctx, lhs.Ref)
	if err != nil {
		return false, err
	}

	rl, rok, err := Leaves(ctx, rhs.Ref)
	if err != nil {
		return false, err
	}

	if !lok || !rok {
		return false, nil
	}

	if IsRestrictedOperator(cmp.Op) {
		ctx.Sink.Error(diagnostic.UnexpectedOperatorInStructuralComparison, loc, diagnostic.Params{
			"op":  cmp.Op,
			"lhs": lhs.Ref.String(),
			"rhs": rhs.Ref.String(),
		})
	}

	reportMissing(ctx, loc, ll, rl, lhs.Ref, rhs.Ref)
	reportMissing(ctx, loc, rl, ll, rhs.Ref, lhs.Ref)

	return true, nil
}

func reportMissing(ctx *pass.Context, loc diagnostic.Location, have, other []Leaf, present, missing *model.Path) {
	names := leafSet(other)

	for _, l := range have {
		if !names[l.String()] {
			ctx.Sink.Error(diagnostic.MissingSubPathInStructuralComparison, loc, diagnostic.Params{
				"name":    l.String(),
				"present": present.String(),
				"missing": missing.String(),
			})
		}
	}
}

func leafSet(leaves []Leaf) map[string]bool {
	set := make(map[string]bool, len(leaves))
	for _, l := range leaves {
		set[l.String()] = true
	}

	return set
}

// Expand rewrites a tuple comparison into comparisons of corresponding
// leaves, joined with "and" for equality and "or" for inequality. Leaves
// present on one side only are left out. A comparison that is not a tuple
// comparison is returned unchanged.
func Expand(ctx *pass.Context, cmp *model.Expr) (*model.Expr, error) {
	if cmp.Kind != model.ExprCompare || cmp.Args[0].Kind != model.ExprRef || cmp.Args[1].Kind != model.ExprRef {
		return cmp, nil
	}

	lhs, rhs := cmp.Args[0].Ref, cmp.Args[1].Ref

	ll, lok, err := Leaves(ctx, lhs)
	if err != nil || !lok {
		return cmp, err
	}

	rl, rok, err := Leaves(ctx, rhs)
	if err != nil || !rok {
		return cmp, err
	}

	names := leafSet(rl)

	var terms []*model.Expr

	for _, l := range ll {
		if !names[l.String()] {
			continue
		}

		lp, err := Extend(ctx, lhs, l)
		if err != nil {
			return nil, err
		}

		rp, err := Extend(ctx, rhs, l)
		if err != nil {
			return nil, err
		}

		terms = append(terms, model.Compare(cmp.Op, model.RefExpr(lp), model.RefExpr(rp)))
	}

	if len(terms) == 0 {
		return cmp, nil
	}

	if cmp.Op == model.OpNe || cmp.Op == model.OpNeAlt {
		return model.Or(terms...), nil
	}

	return model.And(terms...), nil
}

// Extend returns a copy of the linked path p with the steps ids appended
// and linked.
func Extend(ctx *pass.Context, p *model.Path, ids []string) (*model.Path, error) {
	out := p.Clone()

	for _, id := range ids {
		container, err := ctx.Linker.Container(out.Leaf().Art)
		if err != nil {
			return nil, err
		}

		if container == nil {
			return nil, fmt.Errorf("%s: %q can't be followed", out, out.Steps[len(out.Steps)-1].ID)
		}

		el, ok := container.Elements.Get(id)
		if !ok {
			return nil, fmt.Errorf("%s: unknown element %q in %s", out, id, container.Name)
		}

		out.Steps = append(out.Steps, model.Step{ID: id})
		out.Links = append(out.Links, model.Link{Art: el})
	}

	return out, nil
}
