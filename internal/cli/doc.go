// Package cli provides configuration loading, logger setup and exit-coded
// errors for the csn-resolver command.
package cli
