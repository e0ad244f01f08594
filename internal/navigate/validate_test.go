package navigate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csn-resolver/internal/diagnostic"
	"csn-resolver/internal/link"
	"csn-resolver/internal/model"
	"csn-resolver/internal/pass"
)

const navModel = `
definitions:
  Address:
    kind: type
    elements:
      city: { type: cds.String }
      zip:  { type: cds.String }
  Short:
    kind: type
    elements:
      city: { type: cds.String }
  G:
    elements:
      id:    { key: true, type: cds.Integer }
      label: { type: cds.String }
  F:
    elements:
      id:   { key: true, type: cds.Integer }
      name: { type: cds.String }
      kid:  { type: cds.Integer, value: id, stored: true }
      toG:  { target: G }
  E:
    params:
      p: { type: cds.Integer }
    elements:
      id:    { key: true, type: cds.Integer }
      fid:   { type: cds.Integer }
      toF:   { target: F }
      toFs:  { target: F, on: { "=": [toFs.id, fid] } }
      note:  { type: cds.String, virtual: true }
      vaddr: { type: Address, virtual: true }
      addr:  { type: Address }
      short: { type: Short }
      tags:  { items: { type: cds.String } }
      lines: { items: { elements: { qty: { type: cds.Integer } } } }
      toK:   { target: K, keys: [toG] }
  K:
    elements:
      id:  { key: true, type: cds.Integer }
      toG: { target: G }
`

type fixture struct {
	ctx   *pass.Context
	diags *diagnostic.Diagnostics
}

// load links navModel extended by elements of E and further definitions.
func load(t *testing.T, elements, defs string) *fixture {
	t.Helper()

	m, err := model.Parse([]byte(navModel + elements + defs))
	require.NoError(t, err)
	require.NoError(t, link.Model(m))

	diags := &diagnostic.Diagnostics{}

	return &fixture{ctx: pass.New(m, diags, nil), diags: diags}
}

func (f *fixture) art(t *testing.T, def string, names ...string) *model.Artifact {
	t.Helper()

	a, ok := f.ctx.Model.Definition(def)
	require.True(t, ok, "definition %s", def)

	for _, name := range names {
		a, ok = f.ctx.Model.Element(a.ID, name)
		require.True(t, ok, "element %s", name)
	}

	return a
}

func TestOnCondition(t *testing.T) {
	tests := []struct {
		name  string
		elem  string
		kinds []diagnostic.Kind
	}{
		{
			name: "own association and sibling",
			elem: `{ target: F, on: { "=": [x.id, fid] } }`,
		},
		{
			name: "foreign key of managed association",
			elem: `{ target: F, on: { "=": [x.id, toF.id] } }`,
		},
		{
			name: "generated foreign key field",
			elem: `{ target: F, on: { "=": [x.id, toF_id] } }`,
		},
		{
			name: "calculated foreign key",
			elem: `{ target: F, on: { "=": [x.id, toF.kid] } }`,
		},
		{
			name: "parameter",
			elem: `{ target: F, on: { "=": [x.id, $parameters.p] } }`,
		},
		{
			name: "key of a key association",
			elem: `{ target: F, on: { "=": [x.id, toK.toG.id] } }`,
		},
		{
			name:  "non key behind a key association",
			elem:  `{ target: F, on: { "=": [x.id, toK.toG.label] } }`,
			kinds: []diagnostic.Kind{diagnostic.NonForeignKeyAccessThroughManagedAssociation},
		},
		{
			name:  "unmanaged association",
			elem:  `{ target: F, on: { "=": [x.id, toFs.name] } }`,
			kinds: []diagnostic.Kind{diagnostic.NavigationThroughUnmanagedAssociation},
		},
		{
			name:  "non foreign key",
			elem:  `{ target: F, on: { "=": [x.id, toF.name] } }`,
			kinds: []diagnostic.Kind{diagnostic.NonForeignKeyAccessThroughManagedAssociation},
		},
		{
			name:  "virtual step",
			elem:  `{ target: F, on: { "=": [x.id, vaddr.city] } }`,
			kinds: []diagnostic.Kind{diagnostic.VirtualElementInRestrictedContext},
		},
		{
			name:  "arrayed step",
			elem:  `{ target: F, on: { "=": [x.id, lines.qty] } }`,
			kinds: []diagnostic.Kind{diagnostic.ArrayedPathInRestrictedContext},
		},
		{
			name:  "filter",
			elem:  `{ target: F, on: { "=": [x.id, { ref: [{ id: toF, filter: { "=": [name, 'a'] } }, id] }] } }`,
			kinds: []diagnostic.Kind{diagnostic.UnexpectedFilterInPath},
		},
		{
			name:  "arguments",
			elem:  `{ target: F, on: { "=": [x.id, { ref: [{ id: toF, args: { a: 1 } }, id] }] } }`,
			kinds: []diagnostic.Kind{diagnostic.UnexpectedArgumentsInPath},
		},
		{
			name:  "one diagnostic per path",
			elem:  `{ target: F, on: { and: [{ "=": [x.id, toFs.name] }, { "=": [x.name, toF.name] }] } }`,
			kinds: []diagnostic.Kind{
				diagnostic.NavigationThroughUnmanagedAssociation,
				diagnostic.NonForeignKeyAccessThroughManagedAssociation,
			},
		},
		{
			name:  "structure against scalar",
			elem:  `{ target: F, on: { "=": [x.id, addr] } }`,
			kinds: []diagnostic.Kind{diagnostic.StructuralLeafNotScalar},
		},
		{
			name:  "virtual leaf",
			elem:  `{ target: F, on: { "=": [x.id, note] } }`,
			kinds: []diagnostic.Kind{diagnostic.StructuralLeafNotScalar},
		},
		{
			name:  "arrayed leaf",
			elem:  `{ target: F, on: { "=": [x.id, tags] } }`,
			kinds: []diagnostic.Kind{diagnostic.StructuralLeafNotScalar},
		},
		{
			name:  "unmanaged leaf",
			elem:  `{ target: F, on: { "=": [x.id, toFs] } }`,
			kinds: []diagnostic.Kind{diagnostic.StructuralLeafNotScalar},
		},
		{
			name: "structure tuple",
			elem: `{ target: E, on: { "=": [x.addr, addr] } }`,
		},
		{
			name:  "ordered structures",
			elem:  `{ target: E, on: { "<": [x.addr, addr] } }`,
			kinds: []diagnostic.Kind{diagnostic.UnexpectedOperatorInStructuralComparison},
		},
		{
			name:  "missing sub path",
			elem:  `{ target: E, on: { "=": [x.addr, short] } }`,
			kinds: []diagnostic.Kind{diagnostic.MissingSubPathInStructuralComparison},
		},
		{
			name: "compared with self",
			elem: `{ target: E, on: { "=": [x.addr, $self] } }`,
		},
		{
			name: "null test on structure",
			elem: `{ target: F, on: { and: [{ "=": [x.id, fid] }, { "is null": addr }] } }`,
		},
		{
			name: "null literal",
			elem: `{ target: F, on: { "=": [addr, null] } }`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := load(t, "      x: "+tt.elem+"\n", "")
			x := f.art(t, "E", "x")

			require.NoError(t, OnCondition(f.ctx.At(x.ID), x))

			if tt.kinds == nil {
				assert.Empty(t, f.diags.Errors)
				return
			}

			assert.Equal(t, tt.kinds, f.diags.Kinds())

			for _, d := range f.diags.Errors {
				assert.Equal(t, "E:x/on", d.Location)
			}
		})
	}
}

func TestOnCondition_Message(t *testing.T) {
	f := load(t, `      x: { target: F, on: { "=": [x.id, toF.name] } }`+"\n", "")
	x := f.art(t, "E", "x")

	require.NoError(t, OnCondition(f.ctx, x))
	require.Len(t, f.diags.Errors, 1)
	assert.Equal(t,
		"only foreign keys of managed association toF can be accessed in on-condition, found name",
		f.diags.Errors[0].Message)
}

func TestOnCondition_Unlinked(t *testing.T) {
	f := load(t, "", "")
	toFs := f.art(t, "E", "toFs")

	on := model.Compare(model.OpEq, model.RefExpr(model.NewPath("toFs", "id")), model.RefExpr(model.NewPath("fid")))

	err := OnConditionExpr(f.ctx, toFs, on)
	require.Error(t, err)
	assert.True(t, diagnostic.IsInternal(err))
}

func TestCalculated(t *testing.T) {
	tests := []struct {
		name  string
		elem  string
		kinds []diagnostic.Kind
	}{
		{
			name: "foreign key",
			elem: `{ type: cds.Integer, value: toF.id, stored: true }`,
		},
		{
			name:  "non foreign key",
			elem:  `{ type: cds.String, value: toF.name, stored: true }`,
			kinds: []diagnostic.Kind{diagnostic.NonForeignKeyAccessThroughManagedAssociation},
		},
		{
			name:  "unmanaged association",
			elem:  `{ type: cds.String, value: toFs.name, stored: true }`,
			kinds: []diagnostic.Kind{diagnostic.NavigationThroughUnmanagedAssociation},
		},
		{
			name:  "association after association",
			elem:  `{ type: cds.String, value: { func: upper, args: [toF.toG] }, stored: true }`,
			kinds: []diagnostic.Kind{diagnostic.NonForeignKeyAccessThroughManagedAssociation},
		},
		{
			name: "not stored",
			elem: `{ type: cds.String, value: toFs.name }`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := load(t, "      c: "+tt.elem+"\n", "")
			c := f.art(t, "E", "c")

			require.NoError(t, Calculated(f.ctx, c))

			if tt.kinds == nil {
				assert.Empty(t, f.diags.Errors)
				return
			}

			assert.Equal(t, tt.kinds, f.diags.Kinds())
			assert.Equal(t, "E:c/value", f.diags.Errors[0].Location)
		})
	}
}

func TestQuery(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		kinds    []diagnostic.Kind
		location string
	}{
		{
			name:  "publishing associations",
			query: `{ from: E, columns: [id, { ref: toF.id, as: fkey }, toF, { ref: toF, as: openF, filter: { "=": [name, 'x'] } }, { ref: toFs, as: fs }] }`,
		},
		{
			name:     "non foreign key column",
			query:    `{ from: E, columns: [id, toF.name] }`,
			kinds:    []diagnostic.Kind{diagnostic.NonForeignKeyAccessThroughManagedAssociation},
			location: "V/query/columns[1]",
		},
		{
			name:     "unmanaged column",
			query:    `{ from: E, columns: [id, toFs.name] }`,
			kinds:    []diagnostic.Kind{diagnostic.NavigationThroughUnmanagedAssociation},
			location: "V/query/columns[1]",
		},
		{
			name:     "virtual column",
			query:    `{ from: E, columns: [id, vaddr.city] }`,
			kinds:    []diagnostic.Kind{diagnostic.VirtualElementInRestrictedContext},
			location: "V/query/columns[1]",
		},
		{
			name:     "arrayed column",
			query:    `{ from: E, columns: [id, lines.qty] }`,
			kinds:    []diagnostic.Kind{diagnostic.ArrayedPathInRestrictedContext},
			location: "V/query/columns[1]",
		},
		{
			name:     "filter before the leaf",
			query:    `{ from: E, columns: [{ ref: [{ id: toF, filter: { "=": [name, 'x'] } }, id], as: fidx }] }`,
			kinds:    []diagnostic.Kind{diagnostic.UnexpectedFilterInPath},
			location: "V/query/columns[0]",
		},
		{
			name:     "path in published filter",
			query:    `{ from: E, columns: [{ ref: toF, as: bad, filter: { "=": [toG.label, 'x'] } }] }`,
			kinds:    []diagnostic.Kind{diagnostic.NonForeignKeyAccessThroughManagedAssociation},
			location: "V/query/columns[0]",
		},
		{
			name:     "expression column",
			query:    `{ from: E, columns: [id, { expr: { "=": [toFs.id, 1] }, as: one }] }`,
			kinds:    []diagnostic.Kind{diagnostic.NavigationThroughUnmanagedAssociation},
			location: "V/query/columns[1]",
		},
		{
			name:     "where",
			query:    `{ from: E, columns: ["*"], where: { "=": [toFs.id, 1] } }`,
			kinds:    []diagnostic.Kind{diagnostic.NavigationThroughUnmanagedAssociation},
			location: "V/query/where",
		},
		{
			name:     "order by",
			query:    `{ from: E, columns: [id], orderBy: [id, toF.name] }`,
			kinds:    []diagnostic.Kind{diagnostic.NonForeignKeyAccessThroughManagedAssociation},
			location: "V/query/orderBy[1]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := load(t, "", "  V:\n    query: "+tt.query+"\n")
			v := f.art(t, "V")

			require.NoError(t, Query(f.ctx, v))

			if tt.kinds == nil {
				assert.Empty(t, f.diags.Errors)
				return
			}

			assert.Equal(t, tt.kinds, f.diags.Kinds())
			assert.Equal(t, tt.location, f.diags.Errors[0].Location)
		})
	}
}

func TestFamily_String(t *testing.T) {
	assert.Equal(t, "on-condition", FamilyOnCondition.String())
	assert.Equal(t, "stored calculated element", FamilyCalculated.String())
	assert.Equal(t, "query", FamilyQuery.String())
	assert.Equal(t, "unknown", Family(9).String())
}
