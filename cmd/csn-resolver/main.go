// Package main provides the CLI entrypoint for csn-resolver.
//
// csn-resolver loads a CSN-like model, rewrites the associations projected
// into views and checks on-conditions, stored calculated elements and
// queries for paths that can't be turned into joins:
//   - check: run the pass and print diagnostics
//   - rewrite: run the pass and print the resulting associations
//   - type: resolve a type reference to its terminal definition
//   - config show: print the effective configuration
package main

func main() {
	Execute()
}
