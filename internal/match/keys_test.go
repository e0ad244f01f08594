package match

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csn-resolver/internal/diagnostic"
	"csn-resolver/internal/link"
	"csn-resolver/internal/model"
	"csn-resolver/internal/pass"
)

const keysModel = `
definitions:
  F:
    elements:
      id:      { key: true, type: cds.Integer }
      other:   { type: cds.String }
      addr:
        elements:
          city: { type: cds.String }
          zip:  { type: cds.String }
      idCopy:  { type: cds.Integer, value: id, stored: true }
      idCopy2: { type: cds.Integer, value: idCopy, stored: true }
      idCalc:  { type: cds.Integer, value: id }
  E:
    elements:
      id:      { key: true, type: cds.Integer }
      toF:     { target: F }
      toFAddr: { target: F, keys: [addr.city] }
      toFBoth: { target: F, keys: [{ ref: id, as: a }, { ref: id, as: b }] }
      toFPre:  { target: F, keys: [addr.city, addr.zip] }
      toNone:  { target: F, keys: [] }
`

func loadContext(t testing.TB, src string) *pass.Context {
	t.Helper()

	m, err := model.Parse([]byte(src))
	require.NoError(t, err)
	require.NoError(t, link.Model(m))

	return pass.New(m, &diagnostic.Diagnostics{}, nil)
}

func linkedPath(t testing.TB, ctx *pass.Context, def, ref string) *model.Path {
	t.Helper()

	d, ok := ctx.Model.Definition(def)
	require.True(t, ok, "definition %s", def)

	p, err := model.ParsePath(ref)
	require.NoError(t, err)
	require.NoError(t, ctx.Linker.LinkPath(p, link.Env{Self: d, Base: d}))

	return p
}

func TestRequireForeignKeyAccess(t *testing.T) {
	ctx := loadContext(t, keysModel)

	tests := []struct {
		name  string
		path  string
		ok    bool
		key   string
		index int
	}{
		{name: "implicit key", path: "toF.id", ok: true, key: "id", index: 1},
		{name: "not a key", path: "toF.other", index: 1},
		{name: "no step after association", path: "toF", index: 1},
		{name: "structured key", path: "toFAddr.addr.city", ok: true, key: "addr_city", index: 2},
		{name: "partial structured key", path: "toFAddr.addr", index: 2},
		{name: "wrong structured sub key", path: "toFAddr.addr.zip", index: 2},
		{name: "keys sharing a prefix", path: "toFPre.addr.zip", ok: true, key: "addr_zip", index: 2},
		{name: "stored calculated key", path: "toF.idCopy", ok: true, key: "id", index: 1},
		{name: "calculated chain", path: "toF.idCopy2", ok: true, key: "id", index: 1},
		{name: "not stored calculated", path: "toF.idCalc", index: 1},
		{name: "no keys", path: "toNone.id", index: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := linkedPath(t, ctx, "E", tt.path)

			got := RequireForeignKeyAccess(ctx, p, 0)
			assert.Equal(t, tt.ok, got.OK())
			assert.Equal(t, tt.index, got.Index)

			if tt.ok {
				require.NotNil(t, got.Key)
				assert.Equal(t, tt.key, got.Key.Name)
			}
		})
	}
}

func TestRequireForeignKeyAccess_AmbiguousKeysPickFirst(t *testing.T) {
	ctx := loadContext(t, keysModel)
	p := linkedPath(t, ctx, "E", "toFBoth.id")

	got := RequireForeignKeyAccess(ctx, p, 0)
	require.True(t, got.OK())
	assert.Equal(t, "a", got.Key.Name)
	assert.Equal(t, 1, got.Index)
}

func TestRequireForeignKeyAccess_CalculatedCycle(t *testing.T) {
	ctx := loadContext(t, `
definitions:
  F:
    elements:
      id: { key: true, type: cds.Integer }
      c1: { type: cds.Integer, value: c2, stored: true }
      c2: { type: cds.Integer, value: c1, stored: true }
  E:
    elements:
      toF: { target: F }
`)
	p := linkedPath(t, ctx, "E", "toF.c1")

	got := RequireForeignKeyAccess(ctx, p, 0)
	assert.False(t, got.OK())
	assert.Equal(t, 1, got.Index)
}

func TestSuggest(t *testing.T) {
	names := []string{"id", "title", "author_ID", "stock", "price"}

	assert.Equal(t, []string{"author_ID"}, Suggest("authorId", names, 3))
	assert.Equal(t, []string{"title"}, Suggest("titel", names, 3))
	assert.Empty(t, Suggest("zzz", names, 3))
}

func TestRank_Deterministic(t *testing.T) {
	list := Rank("ab", []string{"ac", "aa", "ad"})
	require.Len(t, list, 3)
	assert.Equal(t, "aa", list[0].Name)
	assert.Equal(t, "ac", list[1].Name)
	assert.Equal(t, "ad", list[2].Name)
}

func ExampleRequireForeignKeyAccess() {
	m, _ := model.Parse([]byte(keysModel))
	_ = link.Model(m)
	ctx := pass.New(m, &diagnostic.Diagnostics{}, nil)
	e, _ := m.Definition("E")

	for _, ref := range []string{"toFAddr.addr.city", "toFAddr.addr", "toF.other"} {
		p, _ := model.ParsePath(ref)
		_ = ctx.Linker.LinkPath(p, link.Env{Self: e, Base: e})

		access := RequireForeignKeyAccess(ctx, p, 0)
		if access.OK() {
			fmt.Printf("%s: key %s\n", ref, access.Key.Name)
		} else {
			fmt.Printf("%s: fails at step %d\n", ref, access.Index)
		}
	}

	// Output:
	// toFAddr.addr.city: key addr_city
	// toFAddr.addr: fails at step 2
	// toF.other: fails at step 1
}
