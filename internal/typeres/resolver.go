package typeres

import (
	"fmt"

	"csn-resolver/internal/diagnostic"
	"csn-resolver/internal/model"
)

// Descriptor is the flat result of resolving a type chain.
type Descriptor struct {
	// Name is the final type name: a builtin or the name of the definition
	// that terminates the chain.
	Name string
	// Facets accumulated along the chain.
	Facets model.Facets
	// Art carries the elements, items or target of a non-scalar type.
	// It is nil for scalars.
	Art *model.Artifact
}

// Structured reports whether the type has elements.
func (d *Descriptor) Structured() bool {
	return d != nil && d.Art != nil && d.Art.Elements != nil && !d.Art.IsAssociation()
}

// Arrayed reports whether the type has items.
func (d *Descriptor) Arrayed() bool {
	return d != nil && d.Art != nil && d.Art.Items != model.NoArtifact
}

// Association reports whether the type is an association or composition.
func (d *Descriptor) Association() bool {
	return d != nil && d.Art != nil && d.Art.IsAssociation()
}

// Managed reports whether the type is a managed association.
func (d *Descriptor) Managed() bool {
	return d.Association() && d.Art.IsManaged()
}

// Scalar reports whether the type is neither structured, arrayed nor an
// association.
func (d *Descriptor) Scalar() bool {
	return d != nil && d.Art == nil
}

type state int

const (
	stateInProgress state = iota + 1
	stateDone
)

type entry struct {
	state state
	desc  *Descriptor
}

// Stats describes the cache usage of a Resolver.
type Stats struct {
	Entries int
	Walks   int
	Hits    int
}

// Resolver resolves type references of one model. It is not safe for
// concurrent use.
type Resolver struct {
	model *model.Model
	cache map[string]*entry
	walks int
	hits  int
}

// New creates a resolver for m.
func New(m *model.Model) *Resolver {
	return &Resolver{
		model: m,
		cache: make(map[string]*entry),
	}
}

// Stats returns the cache statistics.
func (r *Resolver) Stats() Stats {
	return Stats{Entries: len(r.cache), Walks: r.walks, Hits: r.hits}
}

// Walks returns how many chains were walked, i.e. the number of cache misses.
func (r *Resolver) Walks() int {
	return r.walks
}

// Resolve returns the final type of t. A nil descriptor without error means
// the chain has no usable type.
func (r *Resolver) Resolve(t model.TypeRef) (*Descriptor, error) {
	if t.IsBuiltin() {
		return &Descriptor{Name: t.Name}, nil
	}

	key := t.Key()

	if e, ok := r.cache[key]; ok {
		if e.state == stateInProgress {
			return nil, diagnostic.NewInternalError(diagnostic.ErrCircularTypeReference, key,
				"type chain reaches %s again", key)
		}

		r.hits++

		return e.desc, nil
	}

	r.cache[key] = &entry{state: stateInProgress}
	r.walks++

	desc, err := r.walk(t)
	if err != nil {
		delete(r.cache, key)
		return nil, err
	}

	r.cache[key] = &entry{state: stateDone, desc: desc}

	return desc, nil
}

// ResolveArtifact returns the final type of an artifact: its own shape if it
// declares elements, items or a target, otherwise the resolution of its type
// with its own facets taking precedence.
func (r *Resolver) ResolveArtifact(id model.ArtifactID) (*Descriptor, error) {
	art := r.model.Art(id)
	if art == nil {
		return nil, diagnostic.NewInternalError(diagnostic.ErrMissingArtifactForReference, "",
			"no artifact with id %d", id)
	}

	return r.describe(art)
}

func (r *Resolver) walk(t model.TypeRef) (*Descriptor, error) {
	def, ok := r.model.Definition(t.Name)
	if !ok {
		return nil, diagnostic.NewInternalError(diagnostic.ErrMissingArtifactForReference, t.Key(),
			"unknown definition %q", t.Name)
	}

	art := def

	for _, name := range t.Of {
		next, err := r.member(art, name)
		if err != nil {
			return nil, err
		}

		if next == nil {
			return nil, diagnostic.NewInternalError(diagnostic.ErrMissingArtifactForReference, t.Key(),
				"%s has no element %q", r.model.Locator(art.ID), name)
		}

		art = next
	}

	return r.describe(art)
}

// member looks up name in the elements of art, looking through its type if
// art declares no elements itself.
func (r *Resolver) member(art *model.Artifact, name string) (*model.Artifact, error) {
	if art.Elements != nil {
		el, _ := r.model.Element(art.ID, name)
		return el, nil
	}

	desc, err := r.describe(art)
	if err != nil {
		return nil, err
	}

	if !desc.Structured() {
		return nil, nil
	}

	el, _ := r.model.Element(desc.Art.ID, name)

	return el, nil
}

func (r *Resolver) describe(art *model.Artifact) (*Descriptor, error) {
	if art.Elements != nil || art.Items != model.NoArtifact || art.IsAssociation() {
		return &Descriptor{Name: shapeName(art), Facets: art.Facets, Art: art}, nil
	}

	if art.Type == nil {
		return nil, nil
	}

	base, err := r.Resolve(*art.Type)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.model.Locator(art.ID), err)
	}

	if base == nil {
		return nil, nil
	}

	desc := *base
	desc.Facets = art.Facets.Inherit(base.Facets)

	return &desc, nil
}

func shapeName(art *model.Artifact) string {
	if art.Type != nil && art.Type.IsBuiltin() {
		return art.Type.Name
	}

	return art.Name
}
