// Package expand decides whether a comparison may compare whole structures
// or managed associations, and expands such tuple comparisons into
// comparisons of their scalar leaves.
package expand
