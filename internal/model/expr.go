package model

import (
	"fmt"
	"strings"

	"csn-resolver/internal/common"
)

// ExprKind classifies an expression node.
type ExprKind int

const (
	ExprUnknown   ExprKind = iota
	ExprRef                // path reference
	ExprValue              // literal
	ExprNull               // null literal
	ExprCompare            // binary relational comparison, Op holds the operator
	ExprAnd                // conjunction of Args
	ExprOr                 // disjunction of Args
	ExprNot                // negation of Args[0]
	ExprIsNull             // Args[0] is null
	ExprIsNotNull          // Args[0] is not null
	ExprFunc               // function call, Op holds the name
)

// String returns a human-readable representation of the ExprKind.
func (k ExprKind) String() string {
	switch k {
	case ExprRef:
		return "ref"
	case ExprValue:
		return "val"
	case ExprNull:
		return "null"
	case ExprCompare:
		return "compare"
	case ExprAnd:
		return "and"
	case ExprOr:
		return "or"
	case ExprNot:
		return "not"
	case ExprIsNull:
		return "is null"
	case ExprIsNotNull:
		return "is not null"
	case ExprFunc:
		return "func"
	default:
		return common.UnknownStr
	}
}

// Comparison operators.
const (
	OpEq    = "="
	OpNe    = "<>"
	OpNeAlt = "!="
	OpLt    = "<"
	OpGt    = ">"
	OpLe    = "<="
	OpGe    = ">="
)

// IsCompareOp reports whether op is a binary relational operator.
func IsCompareOp(op string) bool {
	switch op {
	case OpEq, OpNe, OpNeAlt, OpLt, OpGt, OpLe, OpGe:
		return true
	default:
		return false
	}
}

// Expr is a node of an on-condition, filter, calculated value or query clause.
type Expr struct {
	Kind  ExprKind
	Op    string
	Args  []*Expr
	Ref   *Path
	Value any
}

// RefExpr wraps a path.
func RefExpr(p *Path) *Expr {
	return &Expr{Kind: ExprRef, Ref: p}
}

// ValueExpr wraps a literal.
func ValueExpr(v any) *Expr {
	return &Expr{Kind: ExprValue, Value: v}
}

// NullExpr returns the null literal.
func NullExpr() *Expr {
	return &Expr{Kind: ExprNull}
}

// Compare builds a binary comparison.
func Compare(op string, lhs, rhs *Expr) *Expr {
	return &Expr{Kind: ExprCompare, Op: op, Args: []*Expr{lhs, rhs}}
}

// And conjoins terms. A single term is returned as is.
func And(terms ...*Expr) *Expr {
	return junction(ExprAnd, terms)
}

// Or disjoins terms. A single term is returned as is.
func Or(terms ...*Expr) *Expr {
	return junction(ExprOr, terms)
}

func junction(kind ExprKind, terms []*Expr) *Expr {
	if len(terms) == 1 {
		return terms[0]
	}

	return &Expr{Kind: kind, Args: terms}
}

// IsNullLiteral reports whether e is the null literal.
func (e *Expr) IsNullLiteral() bool {
	return e != nil && e.Kind == ExprNull
}

// IsNegated reports whether the expression is a negated equality or an
// "is not null" test at its top level.
func (e *Expr) IsNegated() bool {
	if e == nil {
		return false
	}

	switch e.Kind {
	case ExprCompare:
		return e.Op == OpNe || e.Op == OpNeAlt
	case ExprIsNotNull, ExprNot:
		return true
	default:
		return false
	}
}

// Clone returns a deep copy. Paths, steps and filters are copied too.
func (e *Expr) Clone() *Expr {
	if e == nil {
		return nil
	}

	c := &Expr{Kind: e.Kind, Op: e.Op, Value: e.Value, Ref: e.Ref.Clone()}
	if e.Args != nil {
		c.Args = make([]*Expr, len(e.Args))
		for i, a := range e.Args {
			c.Args[i] = a.Clone()
		}
	}

	return c
}

// Walk visits e and its descendants depth-first. Returning false from fn
// skips the children of the visited node. Step filters and arguments are not
// visited.
func (e *Expr) Walk(fn func(*Expr) bool) {
	if e == nil || !fn(e) {
		return
	}

	for _, a := range e.Args {
		a.Walk(fn)
	}
}

// Refs returns every reference in e in visiting order.
func (e *Expr) Refs() []*Path {
	var refs []*Path

	e.Walk(func(x *Expr) bool {
		if x.Kind == ExprRef && x.Ref != nil {
			refs = append(refs, x.Ref)
		}

		return true
	})

	return refs
}

// String renders the expression in a compact infix form.
func (e *Expr) String() string {
	if e == nil {
		return "<nil>"
	}

	switch e.Kind {
	case ExprRef:
		return e.Ref.String()
	case ExprValue:
		if s, ok := e.Value.(string); ok {
			return "'" + s + "'"
		}

		return fmt.Sprint(e.Value)
	case ExprNull:
		return "null"
	case ExprCompare:
		return e.Args[0].String() + " " + e.Op + " " + e.Args[1].String()
	case ExprAnd, ExprOr:
		parts := make([]string, len(e.Args))
		for i, a := range e.Args {
			parts[i] = a.String()
			if a.Kind == ExprAnd || a.Kind == ExprOr {
				parts[i] = "(" + parts[i] + ")"
			}
		}

		return strings.Join(parts, " "+e.Kind.String()+" ")
	case ExprNot:
		return "not (" + e.Args[0].String() + ")"
	case ExprIsNull, ExprIsNotNull:
		return e.Args[0].String() + " " + e.Kind.String()
	case ExprFunc:
		parts := make([]string, len(e.Args))
		for i, a := range e.Args {
			parts[i] = a.String()
		}

		return e.Op + "(" + strings.Join(parts, ", ") + ")"
	default:
		return common.UnknownStr
	}
}
