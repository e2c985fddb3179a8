package prekey

import (
	"errors"

	"cipherchat/internal/domain"
)

// ErrNoSignedPreKey is returned when a bundle has no usable signed pre-key.
var ErrNoSignedPreKey = errors.New("no signed pre-key available")

// Bundle builds the public pre-key bundle for b: identity key, signed
// pre-key, Kyber pre-key and the lowest-numbered one-time pre-key. No private
// material is copied.
func Bundle(b domain.IdentityBundle) (domain.PreKeyBundle, error) {
	if len(b.SignedPreKey.Signature) == 0 {
		return domain.PreKeyBundle{}, ErrNoSignedPreKey
	}

	out := domain.PreKeyBundle{
		RegistrationID:        b.RegistrationID,
		DeviceID:              domain.DefaultDeviceID,
		SignedPreKeyID:        b.SignedPreKey.ID,
		SignedPreKey:          b.SignedPreKey.Public,
		SignedPreKeySignature: append([]byte(nil), b.SignedPreKey.Signature...),
		IdentityKey:           b.IdentityKeyPair.Public(),
		KyberPreKeyID:         b.KyberPreKey.ID,
		KyberPreKey:           append([]byte(nil), b.KyberPreKey.Public...),
		KyberPreKeySignature:  append([]byte(nil), b.KyberPreKey.Signature...),
	}

	// One-time pre-key: optional in X3DH, always offered when one exists.
	var first *domain.PreKeyRecord
	for i := range b.PreKeys {
		if first == nil || b.PreKeys[i].ID < first.ID {
			first = &b.PreKeys[i]
		}
	}
	if first != nil {
		out.PreKey = &domain.OneTimePreKeyPublic{ID: first.ID, Public: first.Public}
	}
	return out, nil
}
