package crypto_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cipherchat/internal/crypto"
	"cipherchat/internal/domain"
)

func TestDH_Agrees(t *testing.T) {
	aPriv, aPub, err := crypto.GenerateX25519()
	require.NoError(t, err)
	bPriv, bPub, err := crypto.GenerateX25519()
	require.NoError(t, err)

	ab, err := crypto.DH(aPriv, bPub)
	require.NoError(t, err)
	ba, err := crypto.DH(bPriv, aPub)
	require.NoError(t, err)
	assert.Equal(t, ab, ba)
}

func TestX25519PublicFromPrivate_MatchesGenerated(t *testing.T) {
	priv, pub, err := crypto.GenerateX25519()
	require.NoError(t, err)
	derived, err := crypto.X25519PublicFromPrivate(priv)
	require.NoError(t, err)
	assert.Equal(t, pub, derived)
}

func TestSignVerify(t *testing.T) {
	id, err := crypto.GenerateIdentity()
	require.NoError(t, err)

	sig := crypto.SignEd25519(id.EdPriv, id.XPub[:])
	assert.True(t, crypto.VerifyEd25519(id.EdPub, id.XPub[:], sig))

	sig[0] ^= 0xff
	assert.False(t, crypto.VerifyEd25519(id.EdPub, id.XPub[:], sig))
}

func TestKyber_EncapsulateDecapsulate(t *testing.T) {
	priv, pub, err := crypto.GenerateKyber()
	require.NoError(t, err)
	assert.True(t, crypto.ValidKyberPublic(pub))
	assert.True(t, crypto.ValidKyberPrivate(priv))

	ct, ss, err := crypto.KyberEncapsulate(pub)
	require.NoError(t, err)

	got, err := crypto.KyberDecapsulate(priv, ct)
	require.NoError(t, err)
	assert.Equal(t, ss, got)
}

func TestKyberDecapsulate_RejectsShortCiphertext(t *testing.T) {
	priv, _, err := crypto.GenerateKyber()
	require.NoError(t, err)

	_, err = crypto.KyberDecapsulate(priv, []byte{1, 2, 3})
	assert.ErrorIs(t, err, crypto.ErrKyberCiphertextSize)
}

func TestRandomRegistrationID_InRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		id, err := crypto.RandomRegistrationID()
		require.NoError(t, err)
		require.True(t, id.Valid(), "id %d out of range", id)
		require.GreaterOrEqual(t, id, domain.MinRegistrationID)
		require.LessOrEqual(t, id, domain.MaxRegistrationID)
	}
}

func TestFingerprint_ShortAndStable(t *testing.T) {
	fp := crypto.Fingerprint([]byte("key"))
	assert.Len(t, fp, 24)
	assert.Len(t, strings.Fields(fp), 5)
	assert.Equal(t, fp, crypto.Fingerprint([]byte("key")))
	assert.NotEqual(t, fp, crypto.Fingerprint([]byte("other key")))
}
