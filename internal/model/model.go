package model

import (
	"fmt"
	"iter"
	"strings"
)

// Model owns every artifact of one compilation. It is not safe for
// concurrent use.
type Model struct {
	arts []*Artifact
	defs *Elements
}

// New creates an empty model.
func New() *Model {
	return &Model{
		arts: []*Artifact{nil}, // index 0 is NoArtifact
		defs: NewElements(),
	}
}

// Art returns the artifact with the given ID, or nil.
func (m *Model) Art(id ArtifactID) *Artifact {
	if id <= NoArtifact || int(id) >= len(m.arts) {
		return nil
	}

	return m.arts[id]
}

// Len returns the number of artifacts in the arena.
func (m *Model) Len() int {
	return len(m.arts) - 1
}

// register assigns an ID to a and stores it in the arena.
func (m *Model) register(a *Artifact) ArtifactID {
	a.ID = ArtifactID(len(m.arts))
	m.arts = append(m.arts, a)

	return a.ID
}

// AddDefinition registers a top-level definition.
func (m *Model) AddDefinition(a *Artifact) (ArtifactID, error) {
	if _, exists := m.defs.Get(a.Name); exists {
		return NoArtifact, fmt.Errorf("duplicate definition %q", a.Name)
	}

	if a.Kind == KindEntity && a.Elements == nil {
		a.Elements = NewElements()
	}

	id := m.register(a)
	m.defs.Add(a.Name, id)

	return id, nil
}

// AddElement registers a as a member of parent.
func (m *Model) AddElement(parent ArtifactID, a *Artifact) (ArtifactID, error) {
	p := m.Art(parent)
	if p == nil {
		return NoArtifact, fmt.Errorf("unknown parent %d for element %q", parent, a.Name)
	}

	if p.Elements == nil {
		p.Elements = NewElements()
	}

	if _, exists := p.Elements.Get(a.Name); exists {
		return NoArtifact, fmt.Errorf("duplicate element %q in %s", a.Name, m.Locator(parent))
	}

	if a.Kind == KindUnknown {
		a.Kind = KindElement
	}

	a.Parent = parent
	id := m.register(a)
	p.Elements.Add(a.Name, id)

	return id, nil
}

// AddParam registers a as a parameter of the entity parent.
func (m *Model) AddParam(parent ArtifactID, a *Artifact) (ArtifactID, error) {
	p := m.Art(parent)
	if p == nil {
		return NoArtifact, fmt.Errorf("unknown parent %d for parameter %q", parent, a.Name)
	}

	if p.Params == nil {
		p.Params = NewElements()
	}

	a.Kind = KindParam
	a.Parent = parent
	id := m.register(a)

	if !p.Params.Add(a.Name, id) {
		return NoArtifact, fmt.Errorf("duplicate parameter %q in %s", a.Name, m.Locator(parent))
	}

	return id, nil
}

// SetItems registers a as the array payload of owner.
func (m *Model) SetItems(owner ArtifactID, a *Artifact) ArtifactID {
	a.Kind = KindItems
	a.Name = "items"
	a.Parent = owner
	id := m.register(a)
	m.Art(owner).Items = id

	return id
}

// Definition looks up a top-level definition.
func (m *Model) Definition(name string) (*Artifact, bool) {
	id, ok := m.defs.Get(name)
	if !ok {
		return nil, false
	}

	return m.Art(id), true
}

// Definitions iterates top-level definitions in declaration order.
func (m *Model) Definitions() iter.Seq2[string, *Artifact] {
	return func(yield func(string, *Artifact) bool) {
		for name, id := range m.defs.All() {
			if !yield(name, m.Art(id)) {
				return
			}
		}
	}
}

// Element looks up a member of owner.
func (m *Model) Element(owner ArtifactID, name string) (*Artifact, bool) {
	o := m.Art(owner)
	if o == nil {
		return nil, false
	}

	id, ok := o.Elements.Get(name)
	if !ok {
		return nil, false
	}

	return m.Art(id), true
}

// Target returns the definition an association targets.
func (m *Model) Target(a *Artifact) (*Artifact, bool) {
	if a == nil || a.Target == "" {
		return nil, false
	}

	return m.Definition(a.Target)
}

// Definer returns the top-level definition that owns id.
func (m *Model) Definer(id ArtifactID) *Artifact {
	a := m.Art(id)
	for a != nil && a.Parent != NoArtifact {
		a = m.Art(a.Parent)
	}

	return a
}

// Members iterates every element, parameter and array payload below the
// definitions, depth-first in declaration order.
func (m *Model) Members() iter.Seq[*Artifact] {
	return func(yield func(*Artifact) bool) {
		for _, def := range m.Definitions() {
			if !m.walkMembers(def, yield) {
				return
			}
		}
	}
}

func (m *Model) walkMembers(a *Artifact, yield func(*Artifact) bool) bool {
	for _, id := range a.Params.All() {
		if !yield(m.Art(id)) {
			return false
		}
	}

	for _, id := range a.Elements.All() {
		el := m.Art(id)
		if !yield(el) || !m.walkMembers(el, yield) {
			return false
		}
	}

	if items := m.Art(a.Items); items != nil {
		if !yield(items) || !m.walkMembers(items, yield) {
			return false
		}
	}

	return true
}

// Locator returns a readable structural path for id, e.g. "E:addr.city".
func (m *Model) Locator(id ArtifactID) string {
	a := m.Art(id)
	if a == nil {
		return "<none>"
	}

	var names []string

	for a != nil && a.Parent != NoArtifact {
		names = append([]string{a.Name}, names...)
		a = m.Art(a.Parent)
	}

	if a == nil {
		return strings.Join(names, ".")
	}

	if len(names) == 0 {
		return a.Name
	}

	return a.Name + ":" + strings.Join(names, ".")
}
