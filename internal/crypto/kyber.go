package crypto

import (
	"errors"
	"fmt"

	"github.com/cloudflare/circl/kem"
	"github.com/cloudflare/circl/kem/kyber/kyber1024"
)

var kyberScheme kem.Scheme = kyber1024.Scheme()

// ErrKyberCiphertextSize is returned when a KEM ciphertext has the wrong length.
var ErrKyberCiphertextSize = errors.New("kyber ciphertext has wrong size")

// GenerateKyber returns a fresh Kyber1024 key pair in its binary encoding.
func GenerateKyber() (priv, pub []byte, err error) {
	pk, sk, err := kyberScheme.GenerateKeyPair()
	if err != nil {
		return nil, nil, err
	}
	if pub, err = pk.MarshalBinary(); err != nil {
		return nil, nil, err
	}
	if priv, err = sk.MarshalBinary(); err != nil {
		return nil, nil, err
	}
	return priv, pub, nil
}

// KyberEncapsulate derives a shared secret for the holder of pub and returns
// it with the ciphertext that carries it.
func KyberEncapsulate(pub []byte) (ciphertext, shared []byte, err error) {
	pk, err := kyberScheme.UnmarshalBinaryPublicKey(pub)
	if err != nil {
		return nil, nil, fmt.Errorf("kyber public key: %w", err)
	}
	return kyberScheme.Encapsulate(pk)
}

// KyberDecapsulate recovers the shared secret from ciphertext with priv.
func KyberDecapsulate(priv, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) != kyberScheme.CiphertextSize() {
		return nil, ErrKyberCiphertextSize
	}
	sk, err := kyberScheme.UnmarshalBinaryPrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("kyber private key: %w", err)
	}
	return kyberScheme.Decapsulate(sk, ciphertext)
}

// ValidKyberPublic reports whether pub decodes as a Kyber1024 public key.
func ValidKyberPublic(pub []byte) bool {
	_, err := kyberScheme.UnmarshalBinaryPublicKey(pub)
	return err == nil
}

// ValidKyberPrivate reports whether priv decodes as a Kyber1024 private key.
func ValidKyberPrivate(priv []byte) bool {
	_, err := kyberScheme.UnmarshalBinaryPrivateKey(priv)
	return err == nil
}
