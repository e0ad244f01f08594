// Package redirect rewrites the on-conditions and foreign keys of
// associations that were projected into views, possibly with a new target.
//
// Every association element is processed after the element it originates
// from. An inherited on-condition is copied with each path remapped to the
// elements exposed along the redirection chain, the views leading from the
// original target to the new one. Inherited foreign keys are regenerated the
// same way. A managed association published with a filter is turned into an
// unmanaged one. Failures leave the element in state Failed and its on and
// keys untouched.
package redirect
