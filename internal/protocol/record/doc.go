// Package record encodes the per-peer session record kept in a session store.
//
// A record holds the current session state, a bounded list of archived
// states, and the message keys of messages already read. Archived states
// exist because both parties may start a session at the same time: each
// side holds an initiator state of its own and later a responder state built
// from the peer's handshake, and messages sent on either must stay readable.
//
// The encoded form is JSON. Callers treat it as opaque bytes.
package record
