// Package typeres resolves type references to their final type.
//
// A chain of named types is followed until a builtin, structured, arrayed or
// association type is reached. Scalar facets (length, precision, scale, enum
// and default) that are unset closer to the start of the chain are copied
// forward. Results are cached per model; a chain that reaches a reference
// still being resolved is reported as an internal error.
package typeres
