// Package model provides the in-memory representation of a linked schema
// model: definitions, their elements, type references, expressions and the
// resolved paths that appear inside them.
//
// Artifacts live in an arena owned by Model and are addressed by ArtifactID.
// Cross references (origins, links, parents) are IDs rather than pointers so
// that side tables keyed by ID can carry per-pass state without mutating the
// shared tree.
//
// Key types:
//   - Artifact: entity, type, element, parameter or array payload
//   - Elements: ordered name -> ArtifactID dictionary
//   - TypeRef: builtin name, named definition, or "type of" element reference
//   - Expr / Path / Step / Link: expressions and their resolved references
//   - ForeignKey: declared key of a managed association
//   - Query / Column: the projection a view is defined by
package model
