package types

import (
	"encoding/base64"
	"fmt"
)

// X25519Public is a Curve25519 public key.
type X25519Public [32]byte

// Slice returns the key as a []byte.
func (p X25519Public) Slice() []byte { return p[:] }

// MarshalText encodes the key as standard base64.
func (p X25519Public) MarshalText() ([]byte, error) { return marshalB64(p[:]) }

// UnmarshalText decodes a base64 key.
func (p *X25519Public) UnmarshalText(b []byte) error { return unmarshalB64(p[:], b, "X25519 public") }

// X25519Private is a Curve25519 private key.
type X25519Private [32]byte

// Slice returns the key as a []byte.
func (k X25519Private) Slice() []byte { return k[:] }

// MarshalText encodes the key as standard base64.
func (k X25519Private) MarshalText() ([]byte, error) { return marshalB64(k[:]) }

// UnmarshalText decodes a base64 key.
func (k *X25519Private) UnmarshalText(b []byte) error {
	return unmarshalB64(k[:], b, "X25519 private")
}

// Ed25519Public is an Ed25519 signing public key.
type Ed25519Public [32]byte

// Slice returns the key as a []byte.
func (p Ed25519Public) Slice() []byte { return p[:] }

// MarshalText encodes the key as standard base64.
func (p Ed25519Public) MarshalText() ([]byte, error) { return marshalB64(p[:]) }

// UnmarshalText decodes a base64 key.
func (p *Ed25519Public) UnmarshalText(b []byte) error {
	return unmarshalB64(p[:], b, "Ed25519 public")
}

// Ed25519Private is an Ed25519 signing private key (ed25519.PrivateKey layout).
type Ed25519Private [64]byte

// Slice returns the key as a []byte.
func (k Ed25519Private) Slice() []byte { return k[:] }

// MarshalText encodes the key as standard base64.
func (k Ed25519Private) MarshalText() ([]byte, error) { return marshalB64(k[:]) }

// UnmarshalText decodes a base64 key.
func (k *Ed25519Private) UnmarshalText(b []byte) error {
	return unmarshalB64(k[:], b, "Ed25519 private")
}

func marshalB64(b []byte) ([]byte, error) {
	out := make([]byte, base64.StdEncoding.EncodedLen(len(b)))
	base64.StdEncoding.Encode(out, b)
	return out, nil
}

func unmarshalB64(dst, src []byte, what string) error {
	buf := make([]byte, base64.StdEncoding.DecodedLen(len(src)))
	n, err := base64.StdEncoding.Decode(buf, src)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if n != len(dst) {
		return fmt.Errorf("%s: want %d bytes, got %d", what, len(dst), n)
	}
	copy(dst, buf[:n])
	return nil
}
