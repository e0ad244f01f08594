package diagnostic

import (
	"strconv"
	"strings"
)

// Location is a structural path into the model.
// Examples:
//   - "E" for a definition
//   - "E:toF" for an element
//   - "E:addr.city" for a nested element
//   - "E:toF/on" for a property of an element
//   - "V/query/columns[2]" for an entry of a list
type Location struct {
	def   string
	elems []string
	props []string
}

// NewLocation creates a location rooted at a definition.
func NewLocation(def string) Location {
	return Location{def: def}
}

// Element appends an element name.
func (l Location) Element(name string) Location {
	return Location{
		def:   l.def,
		elems: append(append([]string{}, l.elems...), name),
		props: l.props,
	}
}

// Property appends a property name such as "on" or "value".
func (l Location) Property(name string) Location {
	return Location{
		def:   l.def,
		elems: l.elems,
		props: append(append([]string{}, l.props...), name),
	}
}

// Index marks a position in the last property.
func (l Location) Index(i int) Location {
	if len(l.props) == 0 {
		return l.Property("[" + strconv.Itoa(i) + "]")
	}

	props := make([]string, len(l.props))
	copy(props, l.props)
	props[len(props)-1] += "[" + strconv.Itoa(i) + "]"

	return Location{def: l.def, elems: l.elems, props: props}
}

// Definition returns the name of the root definition.
func (l Location) Definition() string {
	return l.def
}

// IsZero reports whether the location is empty.
func (l Location) IsZero() bool {
	return l.def == "" && len(l.elems) == 0 && len(l.props) == 0
}

// String returns the full location string.
func (l Location) String() string {
	var b strings.Builder

	b.WriteString(l.def)

	if len(l.elems) > 0 {
		b.WriteByte(':')
		b.WriteString(strings.Join(l.elems, "."))
	}

	for _, p := range l.props {
		b.WriteByte('/')
		b.WriteString(p)
	}

	return b.String()
}
