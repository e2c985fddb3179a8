// Package prekey builds the public pre-key bundle a peer processes to start
// a session.
package prekey
