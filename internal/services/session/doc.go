// Package session establishes sessions between the two local parties.
//
// Unlike a networked X3DH exchange there is no relay and no waiting: both
// pre-key bundles are processed up front, so either party may send the
// first message.
package session
