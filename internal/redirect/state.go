package redirect

import "csn-resolver/internal/common"

// State is the rewrite state of an association element.
type State int

const (
	Unvisited State = iota
	InProgress
	Rewritten // on or keys were regenerated for a new target or a filter
	Unchanged // on or keys are declared or copied as they are
	Failed    // the element must not be used downstream
)

// String returns a human-readable representation of the State.
func (s State) String() string {
	switch s {
	case Unvisited:
		return "unvisited"
	case InProgress:
		return "in-progress"
	case Rewritten:
		return "rewritten"
	case Unchanged:
		return "unchanged"
	case Failed:
		return "failed"
	default:
		return common.UnknownStr
	}
}

// Done reports whether the state is final.
func (s State) Done() bool {
	return s == Rewritten || s == Unchanged || s == Failed
}
