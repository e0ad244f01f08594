package match

import (
	"csn-resolver/internal/model"
	"csn-resolver/internal/pass"
)

// Access is the outcome of RequireForeignKeyAccess.
type Access struct {
	// Key is the matched foreign key, nil on failure.
	Key *model.ForeignKey
	// Index is the index of the last step covered by Key on success, and
	// the index of the first step that could not be matched otherwise. It
	// equals the path length when the path ends before a key is complete.
	Index int
}

// OK reports whether a foreign key was matched.
func (a Access) OK() bool {
	return a.Key != nil
}

// segment is a step identifier together with the path step it stems from.
type segment struct {
	id   string
	step int
}

// RequireForeignKeyAccess checks that the steps following the managed
// association at step i of p address one of its declared foreign keys.
//
// Keys are matched on the identifiers of their reference. The candidates are
// narrowed step by step and the first candidate whose reference is fully
// consumed wins, so keys sharing a prefix resolve in declaration order. A
// stored calculated element right after the association is replaced by the
// path it is calculated from before matching.
func RequireForeignKeyAccess(ctx *pass.Context, p *model.Path, i int) Access {
	if i+1 >= p.Len() {
		return Access{Index: i + 1}
	}

	keys := associationKeys(ctx, p.Link(i).Art)
	segs := expandCalculated(ctx, p, i+1)

	candidates := keys

	for j, seg := range segs {
		var kept []*model.ForeignKey

		for _, k := range candidates {
			ids := k.Segments()
			if j < len(ids) && ids[j] == seg.id {
				kept = append(kept, k)
			}
		}

		if len(kept) == 0 {
			return Access{Index: seg.step}
		}

		for _, k := range kept {
			if len(k.Segments()) == j+1 {
				return Access{Key: k, Index: seg.step}
			}
		}

		candidates = kept
	}

	return Access{Index: p.Len()}
}

// associationKeys returns the declared keys of the association id, looking
// through its type if it does not declare a target itself.
func associationKeys(ctx *pass.Context, id model.ArtifactID) []*model.ForeignKey {
	art := ctx.Model.Art(id)
	if art == nil {
		return nil
	}

	if art.IsAssociation() {
		return art.Keys
	}

	desc, err := ctx.Types.ResolveArtifact(id)
	if err != nil || !desc.Association() {
		return nil
	}

	return desc.Art.Keys
}

// expandCalculated returns the identifiers of p from step start on. If that
// step is a stored calculated element defined by a plain reference, the
// reference takes its place, repeatedly.
func expandCalculated(ctx *pass.Context, p *model.Path, start int) []segment {
	visited := make(map[model.ArtifactID]bool)
	id := p.Link(start).Art
	head := []segment{{id: p.Steps[start].ID, step: start}}

	for {
		art := ctx.Model.Art(id)
		if art == nil || !art.IsStoredCalculated() || art.Value.Kind != model.ExprRef || visited[id] {
			break
		}

		visited[id] = true
		ref := art.Value.Ref

		if ref.Scope != model.ScopeOrdinary || ref.Len() == 0 {
			break
		}

		expanded := make([]segment, 0, ref.Len()+len(head)-1)
		for _, s := range ref.Steps {
			expanded = append(expanded, segment{id: s.ID, step: start})
		}

		head = append(expanded, head[1:]...)
		id = ref.Link(0).Art
	}

	for k := start + 1; k < p.Len(); k++ {
		head = append(head, segment{id: p.Steps[k].ID, step: k})
	}

	return head
}
