// Package engine drives one resolution pass over a linked model.
//
// Associations are rewritten first, each after the element it originates
// from. Then every on-condition the rewriter did not already check, every
// stored calculated element and, if enabled, every view query is validated
// for navigability. Problems in the model are reported to the diagnostic
// sink; Run only returns internal errors.
package engine
