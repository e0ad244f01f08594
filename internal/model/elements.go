package model

import "iter"

// Elements is an ordered dictionary from member name to artifact.
// Iteration follows insertion order.
type Elements struct {
	names []string
	ids   map[string]ArtifactID
}

// NewElements creates an empty dictionary.
func NewElements() *Elements {
	return &Elements{ids: make(map[string]ArtifactID)}
}

// Add appends name. It returns false if the name is already taken.
func (e *Elements) Add(name string, id ArtifactID) bool {
	if _, exists := e.ids[name]; exists {
		return false
	}

	e.names = append(e.names, name)
	e.ids[name] = id

	return true
}

// Get returns the artifact registered under name.
func (e *Elements) Get(name string) (ArtifactID, bool) {
	if e == nil {
		return NoArtifact, false
	}

	id, ok := e.ids[name]

	return id, ok
}

// Len returns the number of members.
func (e *Elements) Len() int {
	if e == nil {
		return 0
	}

	return len(e.names)
}

// Names returns a copy of the member names in declaration order.
func (e *Elements) Names() []string {
	if e == nil {
		return nil
	}

	return append([]string(nil), e.names...)
}

// All iterates members in declaration order.
func (e *Elements) All() iter.Seq2[string, ArtifactID] {
	return func(yield func(string, ArtifactID) bool) {
		if e == nil {
			return
		}

		for _, name := range e.names {
			if !yield(name, e.ids[name]) {
				return
			}
		}
	}
}
