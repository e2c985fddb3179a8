// Package identity generates identity bundles: everything one party owns
// before any session exists.
//
// Generation is pure. Nothing is stored; the caller hands the bundle to a
// store collection and to the durable session file.
package identity
