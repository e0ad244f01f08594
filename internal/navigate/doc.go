// Package navigate enforces which path steps may be followed in
// on-conditions, stored calculated element values and queries.
//
// Every step but the last must not be an unmanaged association, virtual or
// arrayed, and may follow a managed association only to one of its foreign
// keys. Filters and arguments are rejected. Operands of comparisons must end
// on scalars unless both are tuples or one is a bare $self.
package navigate
