package link

import (
	"fmt"

	"csn-resolver/internal/model"
	"csn-resolver/internal/typeres"
)

// Linker resolves the names in the paths of a model.
type Linker struct {
	model *model.Model
	types *typeres.Resolver
}

// New creates a linker for m.
func New(m *model.Model, types *typeres.Resolver) *Linker {
	return &Linker{model: m, types: types}
}

// Model populates the views of m and links all of its paths.
func Model(m *model.Model) error {
	return New(m, typeres.New(m)).Run()
}

// Run populates views, derives implicit foreign keys and links every path
// of the model.
func (l *Linker) Run() error {
	if err := l.checkTargets(); err != nil {
		return err
	}

	if err := l.Populate(); err != nil {
		return err
	}

	if err := l.implicitKeys(); err != nil {
		return err
	}

	// Keys first: on-conditions may name generated foreign key fields.
	for a := range l.model.Members() {
		if err := l.linkKeys(a); err != nil {
			return err
		}
	}

	for a := range l.model.Members() {
		if err := l.linkMember(a); err != nil {
			return err
		}
	}

	for _, def := range l.model.Definitions() {
		if !def.IsView() {
			continue
		}

		if err := l.linkClauses(def); err != nil {
			return fmt.Errorf("%s: %w", def.Name, err)
		}
	}

	return nil
}

func (l *Linker) checkTargets() error {
	for a := range l.model.Members() {
		if a.IsAssociation() {
			if _, ok := l.model.Target(a); !ok {
				return fmt.Errorf("%s: unknown target %q", l.model.Locator(a.ID), a.Target)
			}
		}
	}

	for _, def := range l.model.Definitions() {
		if def.IsAssociation() {
			if _, ok := l.model.Target(def); !ok {
				return fmt.Errorf("%s: unknown target %q", def.Name, def.Target)
			}
		}
	}

	return nil
}

// implicitKeys gives every managed association that neither declares keys nor
// inherits them one key per primary key element of its target.
func (l *Linker) implicitKeys() error {
	for a := range l.model.Members() {
		if !a.IsManaged() || a.Keys != nil || a.Origin != model.NoArtifact {
			continue
		}

		keys, err := l.TargetKeys(a)
		if err != nil {
			return err
		}

		a.Keys = keys
	}

	return nil
}

// TargetKeys returns one foreign key per primary key element of the target
// of assoc, in target order. The result is never nil.
func (l *Linker) TargetKeys(assoc *model.Artifact) ([]*model.ForeignKey, error) {
	target, ok := l.model.Target(assoc)
	if !ok {
		return nil, fmt.Errorf("%s: unknown target %q", l.model.Locator(assoc.ID), assoc.Target)
	}

	keys := []*model.ForeignKey{}

	for name, id := range target.Elements.All() {
		if l.model.Art(id).IsKey {
			keys = append(keys, &model.ForeignKey{Name: name, Ref: model.NewPath(name)})
		}
	}

	return keys, nil
}

func (l *Linker) linkMember(a *model.Artifact) error {
	if a.On != nil {
		if err := l.LinkExpr(a.On, l.ElementEnv(a)); err != nil {
			return fmt.Errorf("%s/on: %w", l.model.Locator(a.ID), err)
		}
	}

	if a.Value != nil {
		if err := l.LinkExpr(a.Value, l.ElementEnv(a)); err != nil {
			return fmt.Errorf("%s/value: %w", l.model.Locator(a.ID), err)
		}
	}

	return nil
}

func (l *Linker) linkKeys(a *model.Artifact) error {
	if !a.IsAssociation() || len(a.Keys) == 0 {
		return nil
	}

	env, err := l.TargetEnv(a)
	if err != nil {
		return err
	}

	for _, k := range a.Keys {
		if err := l.LinkPath(k.Ref, env); err != nil {
			return fmt.Errorf("%s/keys: %w", l.model.Locator(a.ID), err)
		}
	}

	return nil
}

// LinkAssociation links the foreign keys and the on-condition of a.
func (l *Linker) LinkAssociation(a *model.Artifact) error {
	if err := l.linkKeys(a); err != nil {
		return err
	}

	if a.On != nil {
		if err := l.LinkExpr(a.On, l.ElementEnv(a)); err != nil {
			return fmt.Errorf("%s/on: %w", l.model.Locator(a.ID), err)
		}
	}

	return nil
}

func (l *Linker) linkClauses(view *model.Artifact) error {
	env := l.QueryEnv(view)

	for _, e := range view.Query.Exprs() {
		if err := l.LinkExpr(e, env); err != nil {
			return err
		}
	}

	for _, col := range view.Query.Columns {
		if col.Expr != nil {
			if err := l.LinkExpr(col.Expr, env); err != nil {
				return err
			}
		}
	}

	return nil
}

// LinkExpr links every reference in e.
func (l *Linker) LinkExpr(e *model.Expr, env Env) error {
	for _, p := range e.Refs() {
		if err := l.LinkPath(p, env); err != nil {
			return err
		}
	}

	return nil
}

// LinkPath resolves every step of p in env and replaces its Links.
func (l *Linker) LinkPath(p *model.Path, env Env) error {
	if p.Len() == 0 {
		return fmt.Errorf("empty path")
	}

	links := make([]model.Link, len(p.Steps))

	if p.Scope == model.ScopeMagic {
		p.Links = links
		return nil
	}

	first, container, start, err := l.linkRoot(p, env)
	if err != nil {
		return err
	}

	copy(links, first)

	for i := start; i < len(p.Steps); i++ {
		if container == nil {
			return fmt.Errorf("%s: %q can't be followed", p, p.Steps[i-1].ID)
		}

		lk, ok := l.lookup(container, p.Steps[i].ID)
		if !ok {
			return fmt.Errorf("%s: unknown element %q in %s", p, p.Steps[i].ID, container.Name)
		}

		links[i] = lk

		if i+1 < len(p.Steps) || p.Steps[i].Filter != nil {
			container, err = l.Container(lk.Art)
			if err != nil {
				return err
			}
		}
	}

	p.Links = links

	return l.linkStepExprs(p, env)
}

// linkRoot resolves the leading steps of p that are interpreted by scope.
// It returns their links, the container of the following step and the index
// of the first step still to be resolved.
func (l *Linker) linkRoot(p *model.Path, env Env) ([]model.Link, *model.Artifact, int, error) {
	root := p.Steps[0].ID

	switch p.Scope {
	case model.ScopeSelf:
		if env.Self == nil {
			return nil, nil, 0, fmt.Errorf("%s: no $self in this context", p)
		}

		return []model.Link{{Art: env.Self.ID}}, env.Self, 1, nil

	case model.ScopeParam:
		if p.Len() < 2 {
			return nil, nil, 0, fmt.Errorf("%s: missing parameter name", p)
		}

		var id model.ArtifactID

		ok := false
		if env.Params != nil {
			id, ok = env.Params.Params.Get(p.Steps[1].ID)
		}

		if !ok {
			return nil, nil, 0, fmt.Errorf("%s: unknown parameter %q", p, p.Steps[1].ID)
		}

		container, err := l.containerIfNeeded(p, 1, id)

		return []model.Link{{}, {Art: id}}, container, 2, err

	default:
		if env.Source != nil && root == env.Alias && p.Len() > 1 {
			return []model.Link{{Art: env.Source.ID}}, env.Source, 1, nil
		}

		if env.Base == nil {
			return nil, nil, 0, fmt.Errorf("%s: no elements visible in this context", p)
		}

		lk, ok := l.lookup(env.Base, root)
		if !ok {
			return nil, nil, 0, fmt.Errorf("%s: unknown element %q in %s", p, root, env.Base.Name)
		}

		container, err := l.containerIfNeeded(p, 0, lk.Art)

		return []model.Link{lk}, container, 1, err
	}
}

func (l *Linker) containerIfNeeded(p *model.Path, i int, id model.ArtifactID) (*model.Artifact, error) {
	if i+1 >= p.Len() && p.Steps[i].Filter == nil {
		return nil, nil
	}

	return l.Container(id)
}

// lookup finds name among the elements of container. A name of the form
// <assoc>_<key> denotes the foreign key field generated for a managed
// association of container.
func (l *Linker) lookup(container *model.Artifact, name string) (model.Link, bool) {
	if id, ok := container.Elements.Get(name); ok {
		return model.Link{Art: id}, true
	}

	for assocName, id := range container.Elements.All() {
		a := l.model.Art(id)
		if !a.IsManaged() {
			continue
		}

		for _, k := range a.Keys {
			if assocName+"_"+k.Name == name {
				return model.Link{
					Art: k.Ref.Leaf().Art,
					Key: &model.KeyRef{Assoc: id, Key: k.Name},
				}, true
			}
		}
	}

	return model.Link{}, false
}

// linkStepExprs links step filters relative to the step's container and
// step arguments in the outer environment.
func (l *Linker) linkStepExprs(p *model.Path, env Env) error {
	for i, s := range p.Steps {
		if s.Filter != nil {
			container, err := l.Container(p.Links[i].Art)
			if err != nil {
				return err
			}

			if container == nil {
				return fmt.Errorf("%s: filter on %q which has no elements", p, s.ID)
			}

			fenv := Env{Self: env.Self, Base: container, Params: env.Params}
			if err := l.LinkExpr(s.Filter, fenv); err != nil {
				return err
			}
		}

		for _, arg := range s.Args {
			if err := l.LinkExpr(arg, env); err != nil {
				return err
			}
		}
	}

	return nil
}
