package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrKeyNotFound is matched by every *KeyNotFoundError.
	ErrKeyNotFound = errors.New("key not found")

	// ErrHandshake indicates a malformed or unauthenticatable handshake.
	ErrHandshake = errors.New("handshake failed")

	// ErrDecryptAuthentication indicates a tampered or garbled ciphertext.
	ErrDecryptAuthentication = errors.New("message authentication failed")

	// ErrCorruptSession is returned by restore when every persisted message
	// failed to decrypt. The history has been cleared; keys are untouched.
	ErrCorruptSession = errors.New("session history is corrupt")

	// ErrPersistenceIO wraps durable read/write failures.
	ErrPersistenceIO = errors.New("session persistence failed")

	// ErrUnknownMessageType is returned for a type tag that is neither
	// handshake nor ratchet.
	ErrUnknownMessageType = errors.New("unknown message type")

	// ErrNoSession indicates there is no session with the peer.
	ErrNoSession = errors.New("no session with peer")

	// ErrNotReady is returned when an operation needs a Ready session.
	ErrNotReady = errors.New("session is not ready")
)

// KeyKind names the store a missing key was looked up in.
type KeyKind string

const (
	KeyKindPreKey       KeyKind = "pre-key"
	KeyKindSignedPreKey KeyKind = "signed pre-key"
	KeyKindKyberPreKey  KeyKind = "kyber pre-key"
)

// KeyNotFoundError reports a pre-key, signed pre-key or Kyber pre-key id that
// is absent from its store.
type KeyNotFoundError struct {
	Kind KeyKind
	ID   uint32
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

// Is makes errors.Is(err, ErrKeyNotFound) hold.
func (e *KeyNotFoundError) Is(target error) bool { return target == ErrKeyNotFound }
