package x3dh

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"cipherchat/internal/crypto"
	"cipherchat/internal/domain"
	"cipherchat/internal/util/memzero"
)

const rootKeySize = 32

var (
	// ErrBadSPK is returned when the signed pre-key signature does not verify.
	ErrBadSPK = errors.New("signed pre-key signature invalid")
	// ErrBadKyberPreKey is returned when the Kyber pre-key signature does not
	// verify or the key does not decode.
	ErrBadKyberPreKey = errors.New("kyber pre-key invalid")

	info = []byte("cipherchat-pqxdh")
)

// Agreement is the initiator's result: the root key plus everything the
// responder needs to derive the same key.
type Agreement struct {
	RootKey         []byte
	BaseKey         domain.X25519Public
	SignedPreKeyID  domain.SignedPreKeyID
	PreKeyID        *domain.PreKeyID
	KyberPreKeyID   domain.KyberPreKeyID
	KyberCiphertext []byte
}

// InitiatorRoot verifies the bundle and derives the root key for the
// initiator. The bundle's one-time pre-key is used when present.
func InitiatorRoot(id domain.Identity, bundle domain.PreKeyBundle) (Agreement, error) {
	if !VerifySPK(bundle.IdentityKey.Ed, bundle.SignedPreKey, bundle.SignedPreKeySignature) {
		return Agreement{}, ErrBadSPK
	}
	if !VerifyKyberPreKey(bundle.IdentityKey.Ed, bundle.KyberPreKey, bundle.KyberPreKeySignature) {
		return Agreement{}, ErrBadKyberPreKey
	}

	ephPriv, ephPub, err := crypto.GenerateX25519()
	if err != nil {
		return Agreement{}, err
	}
	defer memzero.Zero(ephPriv[:])

	dh1, err := crypto.DH(id.XPriv, bundle.SignedPreKey) // DH(IKA, SPKB)
	if err != nil {
		return Agreement{}, err
	}
	dh2, err := crypto.DH(ephPriv, bundle.IdentityKey.X) // DH(EKA, IKB)
	if err != nil {
		return Agreement{}, err
	}
	dh3, err := crypto.DH(ephPriv, bundle.SignedPreKey) // DH(EKA, SPKB)
	if err != nil {
		return Agreement{}, err
	}

	secrets := [][]byte{dh1[:], dh2[:], dh3[:]}
	var opkID *domain.PreKeyID
	if bundle.PreKey != nil {
		dh4, err := crypto.DH(ephPriv, bundle.PreKey.Public) // DH(EKA, OPKB)
		if err != nil {
			return Agreement{}, err
		}
		secrets = append(secrets, dh4[:])
		opk := bundle.PreKey.ID
		opkID = &opk
	}

	kyberCT, kyberSS, err := crypto.KyberEncapsulate(bundle.KyberPreKey)
	if err != nil {
		return Agreement{}, fmt.Errorf("%w: %v", ErrBadKyberPreKey, err)
	}
	secrets = append(secrets, kyberSS)

	root, err := deriveRoot(secrets...)
	if err != nil {
		return Agreement{}, err
	}
	return Agreement{
		RootKey:         root,
		BaseKey:         ephPub,
		SignedPreKeyID:  bundle.SignedPreKeyID,
		PreKeyID:        opkID,
		KyberPreKeyID:   bundle.KyberPreKeyID,
		KyberCiphertext: kyberCT,
	}, nil
}

// ResponderRoot derives the same root key from the responder's private
// pre-keys and the initiator's handshake parameters. opkPriv is nil when the
// message names no one-time pre-key.
func ResponderRoot(
	id domain.Identity,
	spkPriv domain.X25519Private,
	opkPriv *domain.X25519Private,
	kyberPriv []byte,
	msg domain.PreKeyMessage,
) ([]byte, error) {
	dh1, err := crypto.DH(spkPriv, msg.IdentityKey.X) // DH(SPKB, IKA)
	if err != nil {
		return nil, err
	}
	dh2, err := crypto.DH(id.XPriv, msg.BaseKey) // DH(IKB, EKA)
	if err != nil {
		return nil, err
	}
	dh3, err := crypto.DH(spkPriv, msg.BaseKey) // DH(SPKB, EKA)
	if err != nil {
		return nil, err
	}

	secrets := [][]byte{dh1[:], dh2[:], dh3[:]}
	if opkPriv != nil {
		dh4, err := crypto.DH(*opkPriv, msg.BaseKey) // DH(OPKB, EKA)
		if err != nil {
			return nil, err
		}
		secrets = append(secrets, dh4[:])
	}

	kyberSS, err := crypto.KyberDecapsulate(kyberPriv, msg.KyberCiphertext)
	if err != nil {
		return nil, fmt.Errorf("kyber decapsulate: %w", err)
	}
	secrets = append(secrets, kyberSS)

	return deriveRoot(secrets...)
}

// VerifySPK checks the signed pre-key signature.
func VerifySPK(edPub domain.Ed25519Public, spk domain.X25519Public, sig []byte) bool {
	return crypto.VerifyEd25519(edPub, spk.Slice(), sig)
}

// VerifyKyberPreKey checks the Kyber pre-key signature and encoding.
func VerifyKyberPreKey(edPub domain.Ed25519Public, pub, sig []byte) bool {
	return crypto.ValidKyberPublic(pub) && crypto.VerifyEd25519(edPub, pub, sig)
}

func deriveRoot(secrets ...[]byte) ([]byte, error) {
	// 32 0xFF bytes separate this KDF input from a Curve25519 public key.
	ikm := bytes.Repeat([]byte{0xff}, 32)
	for _, s := range secrets {
		ikm = append(ikm, s...)
	}
	memzero.All(secrets...)
	defer memzero.Zero(ikm)

	root := make([]byte, rootKeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, ikm, make([]byte, sha256.Size), info), root); err != nil {
		return nil, err
	}
	return root, nil
}
