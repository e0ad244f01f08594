// Package link resolves the names used in a model.
//
// The linker creates the elements of views from their queries, gives managed
// associations without declared keys the primary keys of their target, and
// attaches a Link to every step of every path. The redirect rewriter uses it
// again to resolve the paths it synthesizes.
package link
