package diagnostic

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocation(t *testing.T) {
	// Definition
	l1 := NewLocation("E")
	assert.Equal(t, "E", l1.String())
	assert.Equal(t, "E", l1.Definition())

	// Nested element
	l2 := l1.Element("addr").Element("city")
	assert.Equal(t, "E:addr.city", l2.String())

	// Property of an element
	l3 := l1.Element("toF").Property("on")
	assert.Equal(t, "E:toF/on", l3.String())

	// Indexed property
	l4 := NewLocation("V").Property("query").Property("columns").Index(2)
	assert.Equal(t, "V/query/columns[2]", l4.String())

	// Index without property
	assert.Equal(t, "V/[0]", NewLocation("V").Index(0).String())

	// Derived locations don't share state
	a := l1.Element("a")
	b := l1.Element("b")
	assert.Equal(t, "E:a", a.String())
	assert.Equal(t, "E:b", b.String())

	assert.True(t, Location{}.IsZero())
	assert.False(t, l1.IsZero())
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name   string
		kind   Kind
		params Params
		want   string
	}{
		{
			name:   "all placeholders",
			kind:   NavigationThroughUnmanagedAssociation,
			params: Params{"name": "toF", "context": "query"},
			want:   "unmanaged association toF can't be followed in query",
		},
		{
			name:   "missing placeholder kept",
			kind:   RedirectionToUnrelatedTarget,
			params: Params{"target": "V", "name": "W:toF"},
			want:   "V does not project {origin}, can't redirect W:toF",
		},
		{
			name: "unknown kind",
			kind: KindUnknown,
			want: "unknown",
		},
		{
			name:   "extra params ignored",
			kind:   PublishedFilterConvertedAssociation,
			params: Params{"name": "W:toF", "other": "x"},
			want:   "managed association W:toF published with a filter became unmanaged",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.kind, tt.params))
		})
	}
}

func TestKind_String(t *testing.T) {
	for k := NavigationThroughUnmanagedAssociation; k <= PublishedFilterConvertedAssociation; k++ {
		assert.NotEqual(t, "unknown", k.String(), "kind %d", k)
		assert.NotEqual(t, "{kind}", k.template(), "kind %s", k)
	}

	assert.Equal(t, "non_foreign_key_access", NonForeignKeyAccessThroughManagedAssociation.String())
	assert.Equal(t, "unknown", Kind(1000).String())
}

func TestNew_Suggestions(t *testing.T) {
	d := New(DiagnosticError, ConditionElementNotProjected, NewLocation("W").Element("toF"), Params{
		"id":           "fid",
		"art":          "W",
		"name":         "W:toF",
		"alternatives": "fid2, id",
	})

	assert.Equal(t, []string{"fid2", "id"}, d.Suggestions)
	assert.Equal(t, "W:toF", d.Location)
	assert.Equal(t,
		"W:toF: [condition_element_not_projected] fid is not projected by W, needed in the condition of W:toF (did you mean fid2, id?)",
		d.String())

	// No alternatives
	d = New(DiagnosticWarning, ConditionElementNotProjected, Location{}, Params{"alternatives": ""})
	assert.Nil(t, d.Suggestions)
	assert.NotContains(t, d.String(), "did you mean")
}

func TestDiagnostics(t *testing.T) {
	var d Diagnostics

	assert.True(t, d.IsValid())
	assert.NoError(t, d.Err())
	assert.NotNil(t, d.Kinds())
	assert.Empty(t, d.Kinds())

	var sink Sink = &d

	sink.Warning(StructuralLeafNotScalar, NewLocation("E"), Params{"path": "addr", "context": "query"})
	sink.Info(PublishedFilterConvertedAssociation, NewLocation("W"), Params{"name": "W:toF"})
	sink.Error(StructuralLeafNotScalar, NewLocation("E").Element("x"), Params{"path": "addr", "context": "query"})
	sink.Error(UnexpectedFilterInPath, NewLocation("E").Element("y"), Params{"id": "toF", "context": "query"})

	assert.True(t, d.HasErrors())
	assert.False(t, d.IsValid())
	assert.Equal(t, []Kind{StructuralLeafNotScalar, UnexpectedFilterInPath}, d.Kinds())
	assert.Equal(t, 2, d.Count(StructuralLeafNotScalar))
	assert.Equal(t, 1, d.Count(PublishedFilterConvertedAssociation))

	all := d.All()
	require.Len(t, all, 4)
	assert.Equal(t, DiagnosticError, all[0].Severity)
	assert.Equal(t, DiagnosticWarning, all[2].Severity)
	assert.Equal(t, DiagnosticInfo, all[3].Severity)

	err := d.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E:x: [structural_leaf_not_scalar] addr must end on a scalar element in query")
	assert.Contains(t, err.Error(), "; E:y: [unexpected_filter]")

	var other Diagnostics
	other.Merge(d)
	assert.Len(t, other.Errors, 2)
	assert.Len(t, other.Warnings, 1)
	assert.Len(t, other.Infos, 1)
}

func TestDiagnosticSeverity_String(t *testing.T) {
	assert.Equal(t, "info", DiagnosticInfo.String())
	assert.Equal(t, "warning", DiagnosticWarning.String())
	assert.Equal(t, "error", DiagnosticError.String())
	assert.Equal(t, "unknown", DiagnosticSeverity(7).String())
}

func TestLoggingSink(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var d Diagnostics

	sink := NewLoggingSink(&d, logger)
	sink.Error(MismatchedRedirectionKind, NewLocation("W").Element("toF"), Params{
		"name": "W:toF", "given": "an on-condition", "origin": "E:toF", "kind": "managed",
	})
	sink.Info(PublishedFilterConvertedAssociation, NewLocation("W"), Params{"name": "W:toF"})

	require.Len(t, d.Errors, 1)
	require.Len(t, d.Infos, 1)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &rec))
	assert.Equal(t, "ERROR", rec["level"])
	assert.Equal(t, "W:toF is redirected with an on-condition but E:toF is managed", rec["msg"])
	assert.Equal(t, "mismatched_redirection_kind", rec["code"])
	assert.Equal(t, "W:toF", rec["location"])

	require.NoError(t, json.Unmarshal(lines[1], &rec))
	assert.Equal(t, "INFO", rec["level"])
}

func TestLoggingSink_NilLogger(t *testing.T) {
	var d Diagnostics

	sink := NewLoggingSink(&d, nil)
	sink.Warning(StructuralLeafNotScalar, NewLocation("E"), nil)

	assert.Len(t, d.Warnings, 1)
}

func TestInternalError(t *testing.T) {
	err := NewInternalError(ErrCircularRedirectionChain, "W:toF", "%s is reached again", "V:toF")
	assert.Equal(t, "internal error: circular redirection chain at W:toF: V:toF is reached again", err.Error())

	wrapped := fmt.Errorf("pass: %w", err)
	assert.True(t, IsInternal(wrapped))
	assert.True(t, IsCircular(wrapped))
	assert.ErrorIs(t, wrapped, ErrCircularRedirectionChain)

	missing := NewInternalError(ErrMissingArtifactForReference, "", "")
	assert.Equal(t, "internal error: missing artifact for reference", missing.Error())
	assert.False(t, IsCircular(missing))

	assert.False(t, IsInternal(errors.New("plain")))
}
