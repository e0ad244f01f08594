// Package match decides whether the steps after a managed association
// address one of its declared foreign keys.
//
// Key functions:
//   - RequireForeignKeyAccess: matches path steps against foreign keys
//   - Suggest: ranks similar names for "did you mean" hints
//   - Levenshtein: computes edit distance between identifiers
package match
