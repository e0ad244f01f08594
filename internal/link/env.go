package link

import (
	"fmt"

	"csn-resolver/internal/model"
)

// Env is the name environment a path is linked in.
type Env struct {
	// Self is the artifact $self and $projection denote.
	Self *model.Artifact
	// Base holds the elements ordinary first steps are looked up in.
	Base *model.Artifact
	// Params is the entity whose parameters $parameters refers to.
	Params *model.Artifact
	// Alias is the name of the query source, Source its definition.
	Alias  string
	Source *model.Artifact
}

// ElementEnv returns the environment of an on-condition or calculated value
// of el: sibling elements, $self bound to the enclosing definition.
func (l *Linker) ElementEnv(el *model.Artifact) Env {
	def := l.model.Definer(el.ID)

	return Env{
		Self:   def,
		Base:   l.model.Art(el.Parent),
		Params: def,
	}
}

// TargetEnv returns the environment foreign keys of assoc are linked in.
func (l *Linker) TargetEnv(assoc *model.Artifact) (Env, error) {
	target, ok := l.model.Target(assoc)
	if !ok {
		return Env{}, fmt.Errorf("%s: unknown target %q", l.model.Locator(assoc.ID), assoc.Target)
	}

	return Env{Self: target, Base: target}, nil
}

// QueryEnv returns the environment of the select list and clauses of view.
func (l *Linker) QueryEnv(view *model.Artifact) Env {
	src := l.model.Art(view.Query.From.Link(0).Art)

	return Env{
		Self:   view,
		Base:   src,
		Params: view,
		Alias:  view.Query.SourceAlias(),
		Source: src,
	}
}

// Container returns the artifact whose elements the step after id is looked
// up in: the structure itself, the target of an association, or the element
// structure of an array's items. It returns nil for scalars.
func (l *Linker) Container(id model.ArtifactID) (*model.Artifact, error) {
	desc, err := l.types.ResolveArtifact(id)
	if err != nil {
		return nil, err
	}

	switch {
	case desc == nil:
		return nil, nil
	case desc.Association():
		target, ok := l.model.Target(desc.Art)
		if !ok {
			return nil, fmt.Errorf("%s: unknown target %q", l.model.Locator(id), desc.Art.Target)
		}

		return target, nil
	case desc.Arrayed():
		return l.Container(desc.Art.Items)
	case desc.Structured():
		return desc.Art, nil
	default:
		return nil, nil
	}
}
