// Package ratchet implements the Double Ratchet algorithm following Signal's design.
//
// The algorithm maintains a root key and two message chains (send and receive).
// Each message advances a KDF chain so that keys are forward secure. When a party
// changes its DH ratchet public key, both sides derive new chain keys from a new
// root derived via DH.
//
// The initiator starts with a sending chain keyed against the responder's
// signed pre-key. The responder starts with no chains and the signed pre-key
// as its ratchet key pair; its first Decrypt performs the DH step.
//
// Encrypt and Decrypt work on a copy of the state and only write it back on
// success, so a message that fails to authenticate leaves the session as it
// was. Decrypt hands back the message key so callers can re-read a message
// with Open without advancing any chain.
//
// Concurrency: RatchetState is NOT safe for concurrent use. Callers must
// serialise access per conversation.
package ratchet
