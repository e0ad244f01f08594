package engine

// Options holds configuration for a resolution pass.
type Options struct {
	// ExpandTuples replaces validated on-conditions by their expanded form,
	// one comparison per leaf of a structure or managed association.
	ExpandTuples bool
	// ValidateQueries checks the paths of every view query.
	ValidateQueries bool
	// FailOnWarnings makes a pass with warnings fail like one with errors.
	FailOnWarnings bool
}

// DefaultOptions returns the default pass configuration.
func DefaultOptions() Options {
	return Options{
		ExpandTuples:    false,
		ValidateQueries: true,
		FailOnWarnings:  false,
	}
}
