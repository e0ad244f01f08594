package expand

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csn-resolver/internal/diagnostic"
	"csn-resolver/internal/link"
	"csn-resolver/internal/model"
	"csn-resolver/internal/pass"
)

const expandModel = `
definitions:
  Address:
    kind: type
    elements:
      city: { type: cds.String }
      zip:  { type: cds.String }
  Other:
    kind: type
    elements:
      city:   { type: cds.String }
      street: { type: cds.String }
  Loc:
    kind: type
    elements:
      addr:   { type: Address }
      floor:  { type: cds.Integer }
      hidden: { type: cds.String, virtual: true }
  F:
    elements:
      id:   { key: true, type: cds.Integer }
      code: { key: true, type: cds.String }
      name: { type: cds.String }
  E:
    elements:
      id:     { key: true, type: cds.Integer }
      n:      { type: cds.Integer }
      a1:     { type: Address }
      a2:     { type: Address }
      o:      { type: Other }
      l1:     { type: Loc }
      l2:     { type: Loc }
      toF:    { target: F }
      toF2:   { target: F }
      toNone: { target: F, keys: [] }
`

type fixture struct {
	ctx   *pass.Context
	diags *diagnostic.Diagnostics
	e     *model.Artifact
}

func load(t *testing.T) *fixture {
	t.Helper()

	m, err := model.Parse([]byte(expandModel))
	require.NoError(t, err)
	require.NoError(t, link.Model(m))

	diags := &diagnostic.Diagnostics{}
	e, ok := m.Definition("E")
	require.True(t, ok)

	return &fixture{ctx: pass.New(m, diags, nil), diags: diags, e: e}
}

func (f *fixture) ref(t *testing.T, path string) *model.Expr {
	t.Helper()

	p, err := model.ParsePath(path)
	require.NoError(t, err)
	require.NoError(t, f.ctx.Linker.LinkPath(p, link.Env{Self: f.e, Base: f.e}))

	return model.RefExpr(p)
}

func (f *fixture) compare(t *testing.T, op, lhs, rhs string) *model.Expr {
	t.Helper()

	return model.Compare(op, f.ref(t, lhs), f.ref(t, rhs))
}

func TestLeaves(t *testing.T) {
	tests := []struct {
		path  string
		want  []Leaf
		tuple bool
	}{
		{path: "a1", want: []Leaf{{"city"}, {"zip"}}, tuple: true},
		{path: "l1", want: []Leaf{{"addr", "city"}, {"addr", "zip"}, {"floor"}}, tuple: true},
		{path: "toF", want: []Leaf{{"id"}, {"code"}}, tuple: true},
		{path: "toNone"},
		{path: "n"},
		{path: "a1.city"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			f := load(t)

			leaves, tuple, err := Leaves(f.ctx, f.ref(t, tt.path).Ref)
			require.NoError(t, err)
			assert.Equal(t, tt.tuple, tuple)
			assert.Empty(t, cmp.Diff(tt.want, leaves))
		})
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name  string
		expr  func(t *testing.T, f *fixture) *model.Expr
		tuple bool
		kinds []diagnostic.Kind
	}{
		{
			name:  "matching structures",
			expr:  func(t *testing.T, f *fixture) *model.Expr { return f.compare(t, model.OpEq, "a1", "a2") },
			tuple: true,
		},
		{
			name:  "managed associations",
			expr:  func(t *testing.T, f *fixture) *model.Expr { return f.compare(t, model.OpNe, "toF", "toF2") },
			tuple: true,
		},
		{
			name:  "sub paths missing on both sides",
			expr:  func(t *testing.T, f *fixture) *model.Expr { return f.compare(t, model.OpEq, "a1", "o") },
			tuple: true,
			kinds: []diagnostic.Kind{
				diagnostic.MissingSubPathInStructuralComparison,
				diagnostic.MissingSubPathInStructuralComparison,
			},
		},
		{
			name:  "ordering operator",
			expr:  func(t *testing.T, f *fixture) *model.Expr { return f.compare(t, model.OpLt, "a1", "a2") },
			tuple: true,
			kinds: []diagnostic.Kind{diagnostic.UnexpectedOperatorInStructuralComparison},
		},
		{
			name: "null literal",
			expr: func(t *testing.T, f *fixture) *model.Expr {
				return model.Compare(model.OpEq, f.ref(t, "a1"), model.NullExpr())
			},
			tuple: true,
		},
		{
			name: "null test",
			expr: func(t *testing.T, f *fixture) *model.Expr {
				return &model.Expr{Kind: model.ExprIsNull, Args: []*model.Expr{f.ref(t, "a1")}}
			},
			tuple: true,
		},
		{
			name: "scalars",
			expr: func(t *testing.T, f *fixture) *model.Expr { return f.compare(t, model.OpEq, "n", "id") },
		},
		{
			name: "structure and scalar",
			expr: func(t *testing.T, f *fixture) *model.Expr { return f.compare(t, model.OpEq, "a1", "n") },
		},
		{
			name: "structure and literal",
			expr: func(t *testing.T, f *fixture) *model.Expr {
				return model.Compare(model.OpEq, f.ref(t, "a1"), model.ValueExpr("x"))
			},
		},
		{
			name: "association without keys",
			expr: func(t *testing.T, f *fixture) *model.Expr { return f.compare(t, model.OpEq, "toNone", "toF") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := load(t)

			tuple, err := Check(f.ctx, tt.expr(t, f), diagnostic.NewLocation("E").Element("x").Property("on"))
			require.NoError(t, err)
			assert.Equal(t, tt.tuple, tuple)

			if tt.kinds == nil {
				assert.Empty(t, f.diags.Errors)
				return
			}

			assert.Equal(t, tt.kinds, f.diags.Kinds())
		})
	}
}

func TestCheck_MissingSubPathParams(t *testing.T) {
	f := load(t)

	_, err := Check(f.ctx, f.compare(t, model.OpEq, "a1", "o"), diagnostic.NewLocation("E"))
	require.NoError(t, err)
	require.Len(t, f.diags.Errors, 2)

	assert.Equal(t, diagnostic.Params{"name": "zip", "present": "a1", "missing": "o"}, f.diags.Errors[0].Params)
	assert.Equal(t, diagnostic.Params{"name": "street", "present": "o", "missing": "a1"}, f.diags.Errors[1].Params)
	assert.Equal(t, "zip of a1 has no counterpart in o", f.diags.Errors[0].Message)
}

func TestExpand(t *testing.T) {
	tests := []struct {
		name     string
		op       string
		lhs, rhs string
		want     string
	}{
		{name: "structures", op: model.OpEq, lhs: "a1", rhs: "a2", want: "a1.city = a2.city and a1.zip = a2.zip"},
		{name: "inequality", op: model.OpNe, lhs: "a1", rhs: "a2", want: "a1.city <> a2.city or a1.zip <> a2.zip"},
		{name: "common leaves only", op: model.OpEq, lhs: "a1", rhs: "o", want: "a1.city = o.city"},
		{name: "foreign keys", op: model.OpEq, lhs: "toF", rhs: "toF2", want: "toF.id = toF2.id and toF.code = toF2.code"},
		{
			name: "nested structures",
			op:   model.OpEq,
			lhs:  "l1",
			rhs:  "l2",
			want: "l1.addr.city = l2.addr.city and l1.addr.zip = l2.addr.zip and l1.floor = l2.floor",
		},
		{name: "scalars", op: model.OpEq, lhs: "n", rhs: "id", want: "n = id"},
		{name: "structure and scalar", op: model.OpEq, lhs: "a1", rhs: "n", want: "a1 = n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := load(t)

			got, err := Expand(f.ctx, f.compare(t, tt.op, tt.lhs, tt.rhs))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
			assert.Empty(t, f.diags.Errors)

			for _, p := range got.Refs() {
				assert.True(t, p.IsLinked(), p.String())
			}
		})
	}
}

func TestExpand_Links(t *testing.T) {
	f := load(t)

	got, err := Expand(f.ctx, f.compare(t, model.OpEq, "toF", "toF2"))
	require.NoError(t, err)

	refs := got.Refs()
	require.Len(t, refs, 4)

	fDef, ok := f.ctx.Model.Definition("F")
	require.True(t, ok)

	id, ok := f.ctx.Model.Element(fDef.ID, "id")
	require.True(t, ok)

	assert.Equal(t, id.ID, refs[0].Leaf().Art)
	assert.Equal(t, id.ID, refs[1].Leaf().Art)
}

func TestExpand_Unchanged(t *testing.T) {
	f := load(t)

	scalar := f.compare(t, model.OpEq, "n", "id")
	got, err := Expand(f.ctx, scalar)
	require.NoError(t, err)
	assert.Same(t, scalar, got)

	null := model.Compare(model.OpEq, f.ref(t, "a1"), model.NullExpr())
	got, err = Expand(f.ctx, null)
	require.NoError(t, err)
	assert.Same(t, null, got)
}

func TestExtend(t *testing.T) {
	f := load(t)

	p := f.ref(t, "l1").Ref

	out, err := Extend(f.ctx, p, Leaf{"addr", "zip"})
	require.NoError(t, err)
	assert.Equal(t, "l1.addr.zip", out.String())
	assert.True(t, out.IsLinked())
	assert.Equal(t, "l1", p.String())

	_, err = Extend(f.ctx, p, Leaf{"nope"})
	assert.Error(t, err)

	_, err = Extend(f.ctx, f.ref(t, "n").Ref, Leaf{"x"})
	assert.Error(t, err)
}

func TestIsRestrictedOperator(t *testing.T) {
	for _, op := range []string{model.OpLt, model.OpGt, model.OpLe, model.OpGe} {
		assert.True(t, IsRestrictedOperator(op), op)
	}

	for _, op := range []string{model.OpEq, model.OpNe, model.OpNeAlt} {
		assert.False(t, IsRestrictedOperator(op), op)
	}

	assert.Equal(t, "addr.city", Leaf{"addr", "city"}.String())
}
