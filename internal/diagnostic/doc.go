// Package diagnostic provides the user-facing problem reports of the
// resolver and the internal error type for compiler defects.
//
// Key capabilities:
//   - A fixed taxonomy of diagnostic kinds with message templates
//   - Structural locations into the model
//   - A Sink interface with a collecting and a logging implementation
//   - InternalError for cycles and broken linker contracts
package diagnostic
