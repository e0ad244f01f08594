package model

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile loads and parses a YAML model file from the given path.
// The returned model is not linked yet.
func LoadFile(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses YAML (or JSON) data into a model.
func Parse(data []byte) (*Model, error) {
	var doc Document

	err := yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse model YAML: %w", err)
	}

	return Build(&doc)
}

// Build creates a model from a decoded document.
func Build(doc *Document) (*Model, error) {
	if doc.Version == "" {
		doc.Version = "1"
	}

	if doc.Version != "1" {
		return nil, fmt.Errorf("unsupported model version %q", doc.Version)
	}

	m := New()

	for _, def := range doc.Definitions {
		if err := m.buildDefinition(def.Name, &def.Doc); err != nil {
			return nil, fmt.Errorf("definition %s: %w", def.Name, err)
		}
	}

	return m, nil
}

func (m *Model) buildDefinition(name string, doc *MemberDoc) error {
	kind, err := parseKind(doc)
	if err != nil {
		return err
	}

	art := &Artifact{Kind: kind, Name: name}
	if err := fillArtifact(art, doc); err != nil {
		return err
	}

	if doc.Query != nil {
		if kind != KindEntity {
			return errors.New("only entities can be defined by a query")
		}

		q, err := buildQuery(doc.Query)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}

		art.Query = q
	}

	id, err := m.AddDefinition(art)
	if err != nil {
		return err
	}

	for _, p := range doc.Params {
		pa := &Artifact{Name: p.Name}
		if err := fillArtifact(pa, &p.Doc); err != nil {
			return fmt.Errorf("param %s: %w", p.Name, err)
		}

		if _, err := m.AddParam(id, pa); err != nil {
			return err
		}
	}

	return m.buildMembers(id, doc)
}

// buildMembers registers the elements and the array payload described by doc
// below owner.
func (m *Model) buildMembers(owner ArtifactID, doc *MemberDoc) error {
	if doc.Elements != nil && m.Art(owner).Elements == nil {
		m.Art(owner).Elements = NewElements()
	}

	for _, el := range doc.Elements {
		a := &Artifact{Name: el.Name}
		if err := fillArtifact(a, &el.Doc); err != nil {
			return fmt.Errorf("element %s: %w", el.Name, err)
		}

		id, err := m.AddElement(owner, a)
		if err != nil {
			return err
		}

		if err := m.buildMembers(id, &el.Doc); err != nil {
			return fmt.Errorf("element %s: %w", el.Name, err)
		}
	}

	if doc.Items != nil {
		a := &Artifact{}
		if err := fillArtifact(a, doc.Items); err != nil {
			return fmt.Errorf("items: %w", err)
		}

		id := m.SetItems(owner, a)
		if err := m.buildMembers(id, doc.Items); err != nil {
			return fmt.Errorf("items: %w", err)
		}
	}

	return nil
}

func parseKind(doc *MemberDoc) (Kind, error) {
	switch doc.Kind {
	case "", "entity", "view":
		return KindEntity, nil
	case "type":
		return KindType, nil
	default:
		return KindUnknown, fmt.Errorf("unknown definition kind %q", doc.Kind)
	}
}

// fillArtifact copies the scalar properties of doc into a. Members are
// registered separately because they need the parent's ID.
func fillArtifact(a *Artifact, doc *MemberDoc) error {
	if doc.Type != "" {
		t := ParseTypeRef(doc.Type)
		a.Type = &t
	}

	a.Facets = Facets{
		Length:    doc.Length,
		Precision: doc.Precision,
		Scale:     doc.Scale,
		Enum:      doc.Enum,
	}

	if doc.Default != nil {
		a.Facets.Default = doc.Default.Expr
	}

	a.IsKey = doc.Key
	a.Virtual = doc.Virtual
	a.Stored = doc.Stored

	if doc.Value != nil {
		a.Value = doc.Value.Expr
	}

	if doc.Target != "" {
		if a.Type == nil {
			a.Type = &TypeRef{Name: TypeAssociation}
		}

		a.Target = doc.Target
	} else if a.Type != nil && a.Type.IsAssociation() {
		return fmt.Errorf("%s without target", a.Type.Name)
	}

	if doc.Cardinality != nil {
		a.Cardinality = &Cardinality{Src: doc.Cardinality.Src, Min: doc.Cardinality.Min, Max: doc.Cardinality.Max}
	}

	if doc.On != nil && doc.Keys != nil {
		return errors.New("association cannot have both on and keys")
	}

	if (doc.On != nil || doc.Keys != nil) && a.Target == "" {
		return errors.New("on and keys require a target")
	}

	if doc.On != nil {
		a.On = doc.On.Expr
	}

	keys, err := buildKeys(doc.Keys)
	if err != nil {
		return err
	}

	a.Keys = keys

	return nil
}

func buildKeys(docs []KeyDoc) ([]*ForeignKey, error) {
	if docs == nil {
		return nil, nil
	}

	keys := make([]*ForeignKey, 0, len(docs))

	for _, kd := range docs {
		p, err := ParsePath(kd.Ref)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", kd.Ref, err)
		}

		if p.Scope != ScopeOrdinary {
			return nil, fmt.Errorf("key %q: must reference a target element", kd.Ref)
		}

		keys = append(keys, &ForeignKey{Name: KeyName(kd.As, p), Ref: p})
	}

	return keys, nil
}

// KeyName returns the name of a foreign key: its alias if given, otherwise
// the reference segments joined by "_".
func KeyName(alias string, ref *Path) string {
	if alias != "" {
		return alias
	}

	return strings.Join(ref.IDs(), "_")
}

func buildQuery(doc *QueryDoc) (*Query, error) {
	if doc.From == "" {
		return nil, errors.New("missing from")
	}

	// Definition names may be dotted, so the source is a single step.
	q := &Query{From: &Path{Steps: []Step{{ID: doc.From}}}, Alias: doc.Alias}

	for i := range doc.Columns {
		col, err := buildColumn(&doc.Columns[i])
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i+1, err)
		}

		q.Columns = append(q.Columns, col)
	}

	if doc.Where != nil {
		q.Where = doc.Where.Expr
	}

	if doc.Having != nil {
		q.Having = doc.Having.Expr
	}

	for _, e := range doc.GroupBy {
		q.GroupBy = append(q.GroupBy, e.Expr)
	}

	for _, e := range doc.OrderBy {
		q.OrderBy = append(q.OrderBy, e.Expr)
	}

	return q, nil
}

func buildColumn(doc *ColumnDoc) (*Column, error) {
	if doc.Star {
		return &Column{Star: true}, nil
	}

	col := &Column{As: doc.As, Redirected: doc.Redirected}

	switch {
	case doc.Ref != nil && doc.Expr != nil:
		return nil, errors.New("column has both ref and expr")
	case doc.Ref != nil:
		col.Ref = doc.Ref.Path
	case doc.Expr != nil:
		if doc.As == "" {
			return nil, errors.New("expression column needs an alias")
		}

		col.Expr = doc.Expr.Expr
	default:
		return nil, errors.New("column needs ref or expr")
	}

	if doc.Filter != nil {
		if col.Ref == nil {
			return nil, errors.New("filter requires a column reference")
		}

		col.Ref.Steps[len(col.Ref.Steps)-1].Filter = doc.Filter.Expr
	}

	if doc.On != nil && doc.Keys != nil {
		return nil, errors.New("column cannot have both on and keys")
	}

	if doc.On != nil {
		col.On = doc.On.Expr
	}

	keys, err := buildKeys(doc.Keys)
	if err != nil {
		return nil, err
	}

	col.Keys = keys

	return col, nil
}
