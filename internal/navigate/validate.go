package navigate

import (
	"csn-resolver/internal/common"
	"csn-resolver/internal/diagnostic"
	"csn-resolver/internal/model"
	"csn-resolver/internal/pass"
)

// Family is the kind of expression a path occurs in.
type Family int

const (
	FamilyOnCondition Family = iota
	FamilyCalculated
	FamilyQuery
)

// String returns the name used in diagnostics.
func (f Family) String() string {
	switch f {
	case FamilyOnCondition:
		return "on-condition"
	case FamilyCalculated:
		return "stored calculated element"
	case FamilyQuery:
		return "query"
	default:
		return common.UnknownStr
	}
}

// pathOptions relax the step rules for particular query positions.
type pathOptions struct {
	leafFilter bool // a final association step may carry a filter and arguments
	args       bool // any step may carry arguments
}

type validator struct {
	ctx    *pass.Context
	family Family
	owner  model.ArtifactID
	loc    diagnostic.Location
}

// OnCondition validates the on-condition of the association el.
func OnCondition(ctx *pass.Context, el *model.Artifact) error {
	return OnConditionExpr(ctx, el, el.On)
}

// OnConditionExpr validates on as if it were the on-condition of el.
func OnConditionExpr(ctx *pass.Context, el *model.Artifact, on *model.Expr) error {
	if on == nil {
		return nil
	}

	v := &validator{ctx: ctx, family: FamilyOnCondition, owner: el.ID, loc: ctx.Locate(el.ID).Property("on")}

	return v.expr(on)
}

// Calculated validates the value of a stored calculated element.
func Calculated(ctx *pass.Context, el *model.Artifact) error {
	if !el.IsStoredCalculated() {
		return nil
	}

	v := &validator{ctx: ctx, family: FamilyCalculated, loc: ctx.Locate(el.ID).Property("value")}

	return v.expr(el.Value)
}

// Query validates every path of the query of view.
func Query(ctx *pass.Context, view *model.Artifact) error {
	q := view.Query
	if q == nil {
		return nil
	}

	base := ctx.Locate(view.ID).Property("query")
	v := &validator{ctx: ctx, family: FamilyQuery}

	v.loc = base.Property("from")
	if _, err := v.path(q.From, pathOptions{args: true}); err != nil {
		return err
	}

	for i, col := range q.Columns {
		v.loc = base.Property("columns").Index(i)

		switch {
		case col.Ref != nil:
			ok, err := v.path(col.Ref, pathOptions{leafFilter: true})
			if err != nil {
				return err
			}

			if filter := col.Ref.Steps[len(col.Ref.Steps)-1].Filter; ok && filter != nil {
				if err := v.expr(filter); err != nil {
					return err
				}
			}

		case col.Expr != nil:
			if err := v.expr(col.Expr); err != nil {
				return err
			}
		}
	}

	clauses := []struct {
		name  string
		exprs []*model.Expr
	}{
		{"where", []*model.Expr{q.Where}},
		{"having", []*model.Expr{q.Having}},
		{"groupBy", q.GroupBy},
		{"orderBy", q.OrderBy},
	}

	for _, c := range clauses {
		for i, e := range c.exprs {
			if e == nil {
				continue
			}

			v.loc = base.Property(c.name)
			if len(c.exprs) > 1 || c.name == "groupBy" || c.name == "orderBy" {
				v.loc = v.loc.Index(i)
			}

			if err := v.expr(e); err != nil {
				return err
			}
		}
	}

	return nil
}

func (v *validator) expr(e *model.Expr) error {
	switch e.Kind {
	case model.ExprRef:
		_, err := v.path(e.Ref, pathOptions{})
		return err

	case model.ExprCompare, model.ExprIsNull, model.ExprIsNotNull:
		return v.comparison(e)

	default:
		for _, a := range e.Args {
			if err := v.expr(a); err != nil {
				return err
			}
		}

		return nil
	}
}

func (v *validator) comparison(e *model.Expr) error {
	failed := false

	for _, a := range e.Args {
		if a.Kind != model.ExprRef {
			if err := v.expr(a); err != nil {
				return err
			}

			continue
		}

		ok, err := v.path(a.Ref, pathOptions{})
		if err != nil {
			return err
		}

		failed = failed || !ok
	}

	if failed {
		return nil
	}

	return v.leaves(e)
}
