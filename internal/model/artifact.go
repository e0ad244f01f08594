package model

import (
	"strings"

	"csn-resolver/internal/common"
)

// ArtifactID addresses an artifact in the model arena.
// The zero value never denotes a real artifact.
type ArtifactID int

// NoArtifact is the ID of "nothing".
const NoArtifact ArtifactID = 0

// Kind classifies an artifact.
type Kind int

const (
	KindUnknown Kind = iota
	KindEntity       // entity or view (a view carries a Query)
	KindType         // named type definition
	KindElement      // member of an entity, type or structured element
	KindParam        // entity parameter
	KindItems        // payload of an arrayed type
)

// String returns a human-readable representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindEntity:
		return "entity"
	case KindType:
		return "type"
	case KindElement:
		return "element"
	case KindParam:
		return "param"
	case KindItems:
		return "items"
	default:
		return common.UnknownStr
	}
}

// Builtin type names the model treats specially.
const (
	TypeAssociation = "cds.Association"
	TypeComposition = "cds.Composition"
)

// TypeRef references a type: a builtin ("cds.String"), a named definition
// ("my.Address") or an element of a definition ("E:addr.city", i.e. "type of").
type TypeRef struct {
	Name string
	Of   []string
}

// ParseTypeRef parses the textual form of a type reference.
func ParseTypeRef(s string) TypeRef {
	name, elem, found := strings.Cut(s, ":")
	if !found || elem == "" {
		return TypeRef{Name: s}
	}

	return TypeRef{Name: name, Of: strings.Split(elem, ".")}
}

// IsBuiltin reports whether the reference names a builtin type.
func (t TypeRef) IsBuiltin() bool {
	return len(t.Of) == 0 && strings.HasPrefix(t.Name, "cds.")
}

// IsAssociation reports whether the reference is one of the association builtins.
func (t TypeRef) IsAssociation() bool {
	return len(t.Of) == 0 && (t.Name == TypeAssociation || t.Name == TypeComposition)
}

// Key returns the normalized cache key of the reference.
func (t TypeRef) Key() string {
	if len(t.Of) == 0 {
		return t.Name
	}

	return t.Name + ":" + strings.Join(t.Of, ".")
}

// String implements fmt.Stringer.
func (t TypeRef) String() string {
	return t.Key()
}

// Facets are the scalar type properties copied forward along a type chain.
type Facets struct {
	Length    *int
	Precision *int
	Scale     *int
	Enum      []string
	Default   *Expr
}

// Inherit fills every facet that is unset in f from base.
func (f Facets) Inherit(base Facets) Facets {
	if f.Length == nil {
		f.Length = base.Length
	}

	if f.Precision == nil {
		f.Precision = base.Precision
	}

	if f.Scale == nil {
		f.Scale = base.Scale
	}

	if f.Enum == nil {
		f.Enum = base.Enum
	}

	if f.Default == nil {
		f.Default = base.Default
	}

	return f
}

// Cardinality of an association.
type Cardinality struct {
	Src string // source max, "1" or "*"
	Min int    // target min
	Max string // target max, "1" or "*"
}

// Clone returns a copy of c, nil for nil.
func (c *Cardinality) Clone() *Cardinality {
	if c == nil {
		return nil
	}

	out := *c

	return &out
}

// ForeignKey is a declared key of a managed association. Ref is resolved
// relative to the association target.
type ForeignKey struct {
	Name string
	Ref  *Path
}

// Segments returns the identifiers of the key reference.
func (k *ForeignKey) Segments() []string {
	if k == nil || k.Ref == nil {
		return nil
	}

	return k.Ref.IDs()
}

// Clone returns a deep copy of the key.
func (k *ForeignKey) Clone() *ForeignKey {
	if k == nil {
		return nil
	}

	return &ForeignKey{Name: k.Name, Ref: k.Ref.Clone()}
}

// Artifact is a definition or a nested member of the model.
type Artifact struct {
	ID     ArtifactID
	Kind   Kind
	Name   string     // fully qualified for definitions, local otherwise
	Parent ArtifactID // owner of a member

	Type     *TypeRef
	Facets   Facets
	Elements *Elements
	Items    ArtifactID // payload of an arrayed type

	Target      string
	On          *Expr
	Keys        []*ForeignKey
	Cardinality *Cardinality

	IsKey   bool
	Virtual bool
	Value   *Expr // calculated element
	Stored  bool

	Origin ArtifactID // element this one was projected from
	Filter *Expr      // filter published with the association
	Query  *Query
	Params *Elements
}

// IsDefinition reports whether the artifact is a top-level definition.
func (a *Artifact) IsDefinition() bool {
	return a.Kind == KindEntity || a.Kind == KindType
}

// IsView reports whether the artifact is defined by a query.
func (a *Artifact) IsView() bool {
	return a.Kind == KindEntity && a.Query != nil
}

// IsAssociation reports whether the artifact directly declares a target.
func (a *Artifact) IsAssociation() bool {
	return a.Target != ""
}

// IsManaged reports whether the artifact is a managed association.
func (a *Artifact) IsManaged() bool {
	return a.IsAssociation() && a.On == nil
}

// IsComposition reports whether the association is a composition.
func (a *Artifact) IsComposition() bool {
	return a.Type != nil && a.Type.Name == TypeComposition
}

// IsStoredCalculated reports whether the element is a stored calculated element.
func (a *Artifact) IsStoredCalculated() bool {
	return a.Value != nil && a.Stored
}
