package identity

import (
	"time"

	"cipherchat/internal/crypto"
	"cipherchat/internal/domain"
)

const (
	// DefaultPreKeyCount is how many one-time pre-keys a new bundle carries.
	DefaultPreKeyCount = 10

	signedPreKeyID domain.SignedPreKeyID = 1
	kyberPreKeyID  domain.KyberPreKeyID  = 1
)

// Service generates complete identity bundles.
//
// A bundle contains:
//   - X25519 key pair for Diffie-Hellman (X3DH and Double Ratchet).
//   - Ed25519 key pair for signing (the signed pre-key and the Kyber pre-key).
//   - A registration id drawn uniformly from [1, 16380].
//   - One signed pre-key, a batch of one-time pre-keys with ids 1..n, and one
//     Kyber1024 pre-key.
type Service struct {
	preKeyCount int
	now         func() time.Time
}

// New returns a Service generating n one-time pre-keys per bundle. n <= 0
// selects DefaultPreKeyCount.
func New(n int) *Service {
	if n <= 0 {
		n = DefaultPreKeyCount
	}
	return &Service{preKeyCount: n, now: time.Now}
}

// Create generates a fresh bundle. It has no side effects.
func (s *Service) Create() (domain.IdentityBundle, error) {
	id, err := crypto.GenerateIdentity()
	if err != nil {
		return domain.IdentityBundle{}, err
	}
	registrationID, err := crypto.RandomRegistrationID()
	if err != nil {
		return domain.IdentityBundle{}, err
	}
	createdAt := s.now().UnixMilli()

	// Signed pre-key, signed over its public bytes.
	signedPreKeyPrivateKey, signedPreKeyPublicKey, err := crypto.GenerateX25519()
	if err != nil {
		return domain.IdentityBundle{}, err
	}
	signedPreKey := domain.SignedPreKeyRecord{
		ID:        signedPreKeyID,
		CreatedAt: createdAt,
		Public:    signedPreKeyPublicKey,
		Private:   signedPreKeyPrivateKey,
		Signature: crypto.SignEd25519(id.EdPriv, signedPreKeyPublicKey[:]),
	}

	// One-time pre-keys.
	preKeys := make([]domain.PreKeyRecord, 0, s.preKeyCount)
	for i := 1; i <= s.preKeyCount; i++ {
		priv, pub, err := crypto.GenerateX25519()
		if err != nil {
			return domain.IdentityBundle{}, err
		}
		preKeys = append(preKeys, domain.PreKeyRecord{ID: domain.PreKeyID(i), Public: pub, Private: priv})
	}

	// Kyber pre-key, signed the same way as the signed pre-key.
	kyberPrivateKey, kyberPublicKey, err := crypto.GenerateKyber()
	if err != nil {
		return domain.IdentityBundle{}, err
	}
	kyberPreKey := domain.KyberPreKeyRecord{
		ID:        kyberPreKeyID,
		CreatedAt: createdAt,
		Public:    kyberPublicKey,
		Private:   kyberPrivateKey,
		Signature: crypto.SignEd25519(id.EdPriv, kyberPublicKey),
	}

	return domain.IdentityBundle{
		RegistrationID:  registrationID,
		IdentityKeyPair: id,
		SignedPreKey:    signedPreKey,
		PreKeys:         preKeys,
		KyberPreKey:     kyberPreKey,
	}, nil
}

// Fingerprint returns a short fingerprint of the bundle's public identity.
func Fingerprint(b domain.IdentityBundle) domain.Fingerprint {
	return domain.Fingerprint(crypto.Fingerprint(b.IdentityKeyPair.Public().Bytes()))
}

// Compile-time assertion that Service implements domain.IdentityBundleFactory.
var _ domain.IdentityBundleFactory = (*Service)(nil)
