package model

import (
	"errors"
	"fmt"
	"strings"

	"csn-resolver/internal/common"
)

// Scope tags how the root of a path is interpreted.
type Scope int

const (
	ScopeOrdinary Scope = iota // element of the enclosing definition or query source
	ScopeSelf                  // $self / $projection
	ScopeParam                 // $parameters / :param
	ScopeMagic                 // $user, $now, ...
)

// String returns a human-readable representation of the Scope.
func (s Scope) String() string {
	switch s {
	case ScopeOrdinary:
		return "ordinary"
	case ScopeSelf:
		return "self"
	case ScopeParam:
		return "param"
	case ScopeMagic:
		return "magic-variable"
	default:
		return common.UnknownStr
	}
}

// Well-known path roots.
const (
	RootSelf       = "$self"
	RootProjection = "$projection"
	RootParameters = "$parameters"
)

// Step is one segment of a path.
type Step struct {
	ID     string
	Filter *Expr
	Args   map[string]*Expr
}

// KeyRef denotes the generated foreign-key field of a managed association.
type KeyRef struct {
	Assoc ArtifactID
	Key   string
}

// Link is the resolution of one step: the artifact reached by the path prefix
// ending at that step, or the foreign-key field it stands for.
type Link struct {
	Art ArtifactID
	Key *KeyRef
}

// Path is a resolved reference. Links is either empty (not yet linked) or has
// one entry per step.
type Path struct {
	Steps []Step
	Links []Link
	Scope Scope
}

// NewPath builds an unlinked ordinary path from identifiers.
func NewPath(ids ...string) *Path {
	p := &Path{Steps: make([]Step, len(ids))}
	for i, id := range ids {
		p.Steps[i] = Step{ID: id}
	}

	return p
}

// Len returns the number of steps.
func (p *Path) Len() int {
	if p == nil {
		return 0
	}

	return len(p.Steps)
}

// IDs returns the step identifiers.
func (p *Path) IDs() []string {
	if p == nil {
		return nil
	}

	ids := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		ids[i] = s.ID
	}

	return ids
}

// IsLinked reports whether every step has a link.
func (p *Path) IsLinked() bool {
	return p != nil && len(p.Links) == len(p.Steps) && len(p.Steps) > 0
}

// Link returns the link of step i, or the zero Link if unavailable.
func (p *Path) Link(i int) Link {
	if p == nil || i < 0 || i >= len(p.Links) {
		return Link{}
	}

	return p.Links[i]
}

// Leaf returns the link of the last step.
func (p *Path) Leaf() Link {
	return p.Link(p.Len() - 1)
}

// IsBareSelf reports whether the path is exactly $self or $projection.
func (p *Path) IsBareSelf() bool {
	return p != nil && p.Scope == ScopeSelf && len(p.Steps) == 1
}

// Clone returns a deep copy of the path including filters and arguments.
func (p *Path) Clone() *Path {
	if p == nil {
		return nil
	}

	c := &Path{Scope: p.Scope, Steps: make([]Step, len(p.Steps))}
	for i, s := range p.Steps {
		c.Steps[i] = Step{ID: s.ID, Filter: s.Filter.Clone()}
		if s.Args != nil {
			c.Steps[i].Args = make(map[string]*Expr, len(s.Args))
			for k, v := range s.Args {
				c.Steps[i].Args[k] = v.Clone()
			}
		}
	}

	if p.Links != nil {
		c.Links = make([]Link, len(p.Links))
		for i, l := range p.Links {
			c.Links[i] = l
			if l.Key != nil {
				k := *l.Key
				c.Links[i].Key = &k
			}
		}
	}

	return c
}

// String renders the path in dotted form.
func (p *Path) String() string {
	if p == nil {
		return "<nil>"
	}

	var b strings.Builder

	for i, s := range p.Steps {
		if i > 0 {
			b.WriteByte('.')
		}

		b.WriteString(s.ID)

		if s.Args != nil {
			b.WriteString("(...)")
		}

		if s.Filter != nil {
			b.WriteString("[" + s.Filter.String() + "]")
		}
	}

	return b.String()
}

// ParsePath parses a dotted reference such as "toF.id", "$self",
// "$parameters.p" or ":p" and determines its scope.
func ParsePath(path string) (*Path, error) {
	if path == "" {
		return nil, errors.New("empty path")
	}

	if rest, ok := strings.CutPrefix(path, ":"); ok {
		path = RootParameters + "." + rest
	}

	var steps []Step

	for part := range strings.SplitSeq(path, ".") {
		if part == "" {
			return nil, fmt.Errorf("invalid path %q: empty segment", path)
		}

		root := len(steps) == 0
		if !isValidIdent(part, root) {
			return nil, fmt.Errorf("invalid path %q: invalid identifier %q", path, part)
		}

		steps = append(steps, Step{ID: part})
	}

	return &Path{Steps: steps, Scope: ScopeOf(steps[0].ID)}, nil
}

// ScopeOf returns the scope a path with the given root identifier has.
func ScopeOf(root string) Scope {
	switch {
	case root == RootSelf || root == RootProjection:
		return ScopeSelf
	case root == RootParameters:
		return ScopeParam
	case strings.HasPrefix(root, "$"):
		return ScopeMagic
	default:
		return ScopeOrdinary
	}
}

// isValidIdent checks an identifier. Only a root step may start with '$'.
func isValidIdent(s string, root bool) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 {
			if !isLetter(r) && r != '_' && (r != '$' || !root) {
				return false
			}
		} else if !isLetter(r) && !isDigit(r) && r != '_' {
			return false
		}
	}

	return true
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
