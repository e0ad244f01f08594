// Package pass holds the state shared by the components of one resolver pass.
package pass
