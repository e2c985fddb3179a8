// Package message encrypts and decrypts messages between the two parties.
//
// Ciphertexts are JSON: a handshake message is a PreKeyMessage wrapping the
// first ratchet message(s) of a session, a ratchet message is a bare
// RatchetMessage. The associated data of every message is the sender's
// public identity followed by the receiver's.
package message
