package redirect

import (
	"strings"

	"csn-resolver/internal/match"
	"csn-resolver/internal/model"
)

// Chain is the list of views leading from the original target of an
// association to its new target. Scopes are ordered from the view selecting
// from the original target to the new target; the chain is empty if the
// target did not change.
type Chain struct {
	Origin *model.Artifact
	Scopes []*model.Artifact
}

// NewChain follows the query sources of target back to origin. It returns
// false if origin is not reached.
func NewChain(m *model.Model, origin, target *model.Artifact) (Chain, bool) {
	var rev []*model.Artifact

	visited := make(map[model.ArtifactID]bool)

	for cur := target; cur.ID != origin.ID; {
		if visited[cur.ID] || !cur.IsView() {
			return Chain{}, false
		}

		visited[cur.ID] = true
		rev = append(rev, cur)

		src, ok := m.Definition(cur.Query.From.Steps[0].ID)
		if !ok {
			return Chain{}, false
		}

		cur = src
	}

	scopes := make([]*model.Artifact, len(rev))
	for i, s := range rev {
		scopes[len(rev)-1-i] = s
	}

	return Chain{Origin: origin, Scopes: scopes}, true
}

// Target returns the definition at the end of the chain.
func (c Chain) Target() *model.Artifact {
	if len(c.Scopes) == 0 {
		return c.Origin
	}

	return c.Scopes[len(c.Scopes)-1]
}

// Miss describes an element not exposed by a scope of the chain.
type Miss struct {
	Name  string
	Scope *model.Artifact
}

// Alternatives returns the names exposed by the scope that resemble the
// missing one.
func (m *Miss) Alternatives() string {
	return strings.Join(match.Suggest(m.Name, m.Scope.Elements.Names(), 3), ", ")
}

// Map returns the element of the chain's target that exposes the element id
// of the original target.
func (c Chain) Map(m *model.Model, id model.ArtifactID) (*model.Artifact, *Miss) {
	cur := m.Art(id)

	for _, scope := range c.Scopes {
		next := exposedBy(m, scope, cur.ID)
		if next == nil {
			return nil, &Miss{Name: cur.Name, Scope: scope}
		}

		cur = next
	}

	return cur, nil
}

// exposedBy returns the element of scope that originates from id, preferring
// one that kept its name.
func exposedBy(m *model.Model, scope *model.Artifact, id model.ArtifactID) *model.Artifact {
	name := m.Art(id).Name

	var found *model.Artifact

	for _, eid := range scope.Elements.All() {
		el := m.Art(eid)
		if el.Origin != id {
			continue
		}

		if el.Name == name {
			return el
		}

		if found == nil {
			found = el
		}
	}

	return found
}
