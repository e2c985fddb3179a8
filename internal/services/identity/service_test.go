package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cipherchat/internal/crypto"
	"cipherchat/internal/domain"
	"cipherchat/internal/services/identity"
)

func TestCreate_BundleShape(t *testing.T) {
	b, err := identity.New(0).Create()
	require.NoError(t, err)

	assert.True(t, b.RegistrationID.Valid(), "registration id %d", b.RegistrationID)
	require.Len(t, b.PreKeys, identity.DefaultPreKeyCount)
	for i, pk := range b.PreKeys {
		assert.Equal(t, domain.PreKeyID(i+1), pk.ID)
		pub, err := crypto.X25519PublicFromPrivate(pk.Private)
		require.NoError(t, err)
		assert.Equal(t, pub, pk.Public)
	}

	id := b.IdentityKeyPair
	assert.True(t, crypto.VerifyEd25519(id.EdPub, b.SignedPreKey.Public[:], b.SignedPreKey.Signature))
	assert.True(t, crypto.VerifyEd25519(id.EdPub, b.KyberPreKey.Public, b.KyberPreKey.Signature))
	assert.True(t, crypto.ValidKyberPrivate(b.KyberPreKey.Private))
	assert.NotZero(t, b.SignedPreKey.CreatedAt)
}

func TestCreate_Independent(t *testing.T) {
	f := identity.New(3)
	a, err := f.Create()
	require.NoError(t, err)
	b, err := f.Create()
	require.NoError(t, err)

	assert.Len(t, a.PreKeys, 3)
	assert.NotEqual(t, a.IdentityKeyPair.XPub, b.IdentityKeyPair.XPub)
	assert.NotEqual(t, identity.Fingerprint(a), identity.Fingerprint(b))
}
