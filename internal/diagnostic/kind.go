package diagnostic

import "csn-resolver/internal/common"

// Kind identifies the type of a diagnostic.
type Kind int

const (
	KindUnknown Kind = iota

	// Navigability.
	NavigationThroughUnmanagedAssociation
	NonForeignKeyAccessThroughManagedAssociation
	UnexpectedFilterInPath
	UnexpectedArgumentsInPath
	VirtualElementInRestrictedContext
	ArrayedPathInRestrictedContext
	StructuralLeafNotScalar

	// Structural expansion.
	UnexpectedOperatorInStructuralComparison
	MissingSubPathInStructuralComparison

	// Redirection.
	MissingForeignKeyForPublishedFilter
	RedirectionTargetNotProjected
	RedirectionToUnrelatedTarget
	ConditionElementNotProjected
	ForeignKeyNotCoveredByRedirection
	ForeignKeyNotMatchedByRedirection
	MismatchedRedirectionKind
	PublishedFilterConvertedAssociation
)

// String returns the diagnostic code.
func (k Kind) String() string {
	switch k {
	case NavigationThroughUnmanagedAssociation:
		return "navigation_through_unmanaged_association"
	case NonForeignKeyAccessThroughManagedAssociation:
		return "non_foreign_key_access"
	case UnexpectedFilterInPath:
		return "unexpected_filter"
	case UnexpectedArgumentsInPath:
		return "unexpected_arguments"
	case VirtualElementInRestrictedContext:
		return "virtual_element_in_path"
	case ArrayedPathInRestrictedContext:
		return "arrayed_path"
	case StructuralLeafNotScalar:
		return "structural_leaf_not_scalar"
	case UnexpectedOperatorInStructuralComparison:
		return "unexpected_structural_operator"
	case MissingSubPathInStructuralComparison:
		return "missing_structural_sub_path"
	case MissingForeignKeyForPublishedFilter:
		return "missing_foreign_key_for_filter"
	case RedirectionTargetNotProjected:
		return "redirection_target_not_projected"
	case RedirectionToUnrelatedTarget:
		return "redirection_to_unrelated_target"
	case ConditionElementNotProjected:
		return "condition_element_not_projected"
	case ForeignKeyNotCoveredByRedirection:
		return "foreign_key_not_covered"
	case ForeignKeyNotMatchedByRedirection:
		return "foreign_key_not_matched"
	case MismatchedRedirectionKind:
		return "mismatched_redirection_kind"
	case PublishedFilterConvertedAssociation:
		return "published_filter_converted"
	default:
		return common.UnknownStr
	}
}

// template returns the message template of the kind. Placeholders are
// written as {name} and filled from Params.
func (k Kind) template() string {
	switch k {
	case NavigationThroughUnmanagedAssociation:
		return "unmanaged association {name} can't be followed in {context}"
	case NonForeignKeyAccessThroughManagedAssociation:
		return "only foreign keys of managed association {name} can be accessed in {context}, found {id}"
	case UnexpectedFilterInPath:
		return "unexpected filter on {id} in {context}"
	case UnexpectedArgumentsInPath:
		return "unexpected arguments on {id} in {context}"
	case VirtualElementInRestrictedContext:
		return "virtual element {id} can't be used in {context}"
	case ArrayedPathInRestrictedContext:
		return "arrayed element {id} can't be followed in {context}"
	case StructuralLeafNotScalar:
		return "{path} must end on a scalar element in {context}"
	case UnexpectedOperatorInStructuralComparison:
		return "operator {op} can't be used to compare structures {lhs} and {rhs}"
	case MissingSubPathInStructuralComparison:
		return "{name} of {present} has no counterpart in {missing}"
	case MissingForeignKeyForPublishedFilter:
		return "association {name} has no foreign keys to publish with a filter"
	case RedirectionTargetNotProjected:
		return "{id} is not projected by {target}, needed to redirect {name}"
	case RedirectionToUnrelatedTarget:
		return "{target} does not project {origin}, can't redirect {name}"
	case ConditionElementNotProjected:
		return "{id} is not projected by {art}, needed in the condition of {name}"
	case ForeignKeyNotCoveredByRedirection:
		return "foreign key {id} of {origin} is missing in redirected {name}"
	case ForeignKeyNotMatchedByRedirection:
		return "foreign key {id} of redirected {name} does not exist in {origin}"
	case MismatchedRedirectionKind:
		return "{name} is redirected with {given} but {origin} is {kind}"
	case PublishedFilterConvertedAssociation:
		return "managed association {name} published with a filter became unmanaged"
	default:
		return "{kind}"
	}
}
