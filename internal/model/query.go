package model

import "strings"

// Query is the single-source projection a view is defined by.
type Query struct {
	From    *Path // Links[0] is the source definition
	Alias   string
	Columns []*Column
	Where   *Expr
	Having  *Expr
	GroupBy []*Expr
	OrderBy []*Expr
}

// SourceAlias returns the name the query source is visible under.
func (q *Query) SourceAlias() string {
	if q.Alias != "" {
		return q.Alias
	}

	if q.From == nil || len(q.From.Steps) == 0 {
		return ""
	}

	name := q.From.Steps[len(q.From.Steps)-1].ID
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}

	return name
}

// Column is one entry of a query's select list.
type Column struct {
	Star       bool
	Ref        *Path
	Expr       *Expr
	As         string
	Redirected string
	On         *Expr
	Keys       []*ForeignKey
	Element    ArtifactID // element the column produced
}

// Name returns the name of the element the column produces.
func (c *Column) Name() string {
	if c.As != "" {
		return c.As
	}

	if c.Ref != nil && len(c.Ref.Steps) > 0 {
		return c.Ref.Steps[len(c.Ref.Steps)-1].ID
	}

	return ""
}

// Exprs returns every expression the query holds, columns excluded.
func (q *Query) Exprs() []*Expr {
	var out []*Expr
	if q.Where != nil {
		out = append(out, q.Where)
	}

	if q.Having != nil {
		out = append(out, q.Having)
	}

	out = append(out, q.GroupBy...)
	out = append(out, q.OrderBy...)

	return out
}
