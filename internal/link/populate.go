package link

import (
	"errors"
	"fmt"
	"strings"

	"csn-resolver/internal/common"
	"csn-resolver/internal/model"
)

// Populate creates the elements of every view from its query. Views are
// processed after the views they select from.
func (l *Linker) Populate() error {
	var views []*model.Artifact

	index := make(map[string]int)

	for _, def := range l.model.Definitions() {
		if def.IsView() {
			index[def.Name] = len(views)
			views = append(views, def)
		}
	}

	order, err := common.TopoSort(len(views), func(i int) []int {
		if j, ok := index[views[i].Query.From.Steps[0].ID]; ok {
			return []int{j}
		}

		return nil
	})
	var cycle *common.CycleError
	if errors.As(err, &cycle) {
		names := make([]string, len(cycle.Nodes))
		for i, n := range cycle.Nodes {
			names[i] = views[n].Name
		}

		return fmt.Errorf("views select from each other: %s", strings.Join(names, ", "))
	}

	if err != nil {
		return err
	}

	for _, i := range order {
		if err := l.populate(views[i]); err != nil {
			return fmt.Errorf("%s: %w", views[i].Name, err)
		}
	}

	return nil
}

func (l *Linker) populate(view *model.Artifact) error {
	q := view.Query

	src, ok := l.model.Definition(q.From.Steps[0].ID)
	if !ok || src.Kind != model.KindEntity {
		return fmt.Errorf("unknown source entity %q", q.From.Steps[0].ID)
	}

	q.From.Links = []model.Link{{Art: src.ID}}
	env := l.QueryEnv(view)

	explicit := make(map[string]bool)

	for _, col := range q.Columns {
		if !col.Star {
			explicit[col.Name()] = true
		}
	}

	for _, col := range q.Columns {
		switch {
		case col.Star:
			for name, id := range src.Elements.All() {
				if explicit[name] {
					continue
				}

				if _, err := l.project(view, name, id); err != nil {
					return err
				}
			}

		case col.Ref != nil:
			if err := l.LinkPath(col.Ref, env); err != nil {
				return err
			}

			if err := l.column(view, col); err != nil {
				return fmt.Errorf("column %s: %w", col.Name(), err)
			}

		default:
			id, err := l.model.AddElement(view.ID, &model.Artifact{Name: col.As})
			if err != nil {
				return err
			}

			col.Element = id
		}
	}

	return nil
}

func (l *Linker) column(view *model.Artifact, col *model.Column) error {
	leaf := col.Ref.Leaf()
	if leaf.Art == model.NoArtifact {
		return fmt.Errorf("%s does not denote an element", col.Ref)
	}

	id, err := l.project(view, col.Name(), leaf.Art)
	if err != nil {
		return err
	}

	col.Element = id
	el := l.model.Art(id)

	if filter := col.Ref.Steps[len(col.Ref.Steps)-1].Filter; filter != nil {
		if !el.IsAssociation() {
			return fmt.Errorf("filter on %s which is not an association", col.Ref)
		}

		el.Filter = filter
	}

	if col.Redirected != "" {
		if !el.IsAssociation() {
			return fmt.Errorf("%s is not an association and can't be redirected", col.Ref)
		}

		if _, ok := l.model.Definition(col.Redirected); !ok {
			return fmt.Errorf("unknown redirection target %q", col.Redirected)
		}

		el.Target = col.Redirected
	}

	if col.On != nil || col.Keys != nil {
		if !el.IsAssociation() {
			return fmt.Errorf("on and keys require an association")
		}

		el.On = col.On
		el.Keys = col.Keys
	}

	return nil
}

// project adds a copy of the element origin to parent under name.
func (l *Linker) project(parent *model.Artifact, name string, origin model.ArtifactID) (model.ArtifactID, error) {
	o := l.model.Art(origin)

	a := &model.Artifact{
		Name:        name,
		Type:        o.Type,
		Facets:      o.Facets,
		Target:      o.Target,
		Cardinality: o.Cardinality.Clone(),
		IsKey:       o.IsKey,
		Virtual:     o.Virtual,
		Origin:      origin,
	}

	if o.Elements != nil {
		a.Elements = model.NewElements()
	}

	id, err := l.model.AddElement(parent.ID, a)
	if err != nil {
		return model.NoArtifact, err
	}

	if err := l.copyMembers(id, o); err != nil {
		return model.NoArtifact, err
	}

	return id, nil
}

// copyMembers copies inline elements and items of o below owner.
func (l *Linker) copyMembers(owner model.ArtifactID, o *model.Artifact) error {
	for name, id := range o.Elements.All() {
		if _, err := l.project(l.model.Art(owner), name, id); err != nil {
			return err
		}
	}

	if o.Items != model.NoArtifact {
		items := l.model.Art(o.Items)
		id := l.model.SetItems(owner, &model.Artifact{
			Type:   items.Type,
			Facets: items.Facets,
			Origin: items.ID,
		})

		return l.copyMembers(id, items)
	}

	return nil
}
