package session_test

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cipherchat/internal/domain"
	"cipherchat/internal/protocol/record"
	"cipherchat/internal/services/identity"
	"cipherchat/internal/services/prekey"
	"cipherchat/internal/services/session"
	"cipherchat/internal/store"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestEstablish_BothSidesHoldPendingSessions(t *testing.T) {
	f := identity.New(0)
	idA, err := f.Create()
	require.NoError(t, err)
	idB, err := f.Create()
	require.NoError(t, err)
	a, b := store.NewKeyStoreCollection(idA), store.NewKeyStoreCollection(idB)

	require.NoError(t, session.New(quietLogger()).Establish(idA, idB, a, b))

	for _, tc := range []struct {
		stores *store.KeyStoreCollection
		peer   string
		remote domain.IdentityBundle
	}{
		{a, domain.PartyB, idB},
		{b, domain.PartyA, idA},
	} {
		addr := domain.NewAddress(tc.peer)
		raw, found := tc.stores.Sessions().LoadSession(addr)
		require.True(t, found, "session for %s", addr)

		rec, err := record.Decode(raw)
		require.NoError(t, err)
		require.NotNil(t, rec.Current.Pending)
		assert.Equal(t, tc.remote.IdentityKeyPair.Public(), rec.Current.RemoteIdentity)
		assert.Equal(t, tc.remote.RegistrationID, rec.Current.RemoteRegistrationID)
		require.NotNil(t, rec.Current.Pending.PreKeyID)
		assert.Equal(t, domain.PreKeyID(1), *rec.Current.Pending.PreKeyID)

		known, ok := tc.stores.Identity().RemoteIdentity(addr)
		require.True(t, ok)
		assert.True(t, known.Equal(tc.remote.IdentityKeyPair.Public()))
	}

	// Establishing consumes nothing locally.
	assert.Len(t, a.RemainingPreKeys(), identity.DefaultPreKeyCount)
	assert.Len(t, b.RemainingPreKeys(), identity.DefaultPreKeyCount)
}

func TestProcessBundle_RejectsBadSignature(t *testing.T) {
	idA, err := identity.New(0).Create()
	require.NoError(t, err)
	idB, err := identity.New(0).Create()
	require.NoError(t, err)
	a := store.NewKeyStoreCollection(idA)

	bundle, err := prekey.Bundle(idB)
	require.NoError(t, err)
	bundle.SignedPreKeySignature[0] ^= 0xff

	err = session.New(quietLogger()).ProcessBundle(a, domain.NewAddress(domain.PartyB), bundle)
	require.ErrorIs(t, err, domain.ErrHandshake)

	_, found := a.Sessions().LoadSession(domain.NewAddress(domain.PartyB))
	assert.False(t, found)
}

func TestProcessBundle_ArchivesPreviousSession(t *testing.T) {
	idA, err := identity.New(0).Create()
	require.NoError(t, err)
	idB, err := identity.New(0).Create()
	require.NoError(t, err)
	a := store.NewKeyStoreCollection(idA)
	bundle, err := prekey.Bundle(idB)
	require.NoError(t, err)

	svc := session.New(quietLogger())
	addr := domain.NewAddress(domain.PartyB)
	require.NoError(t, svc.ProcessBundle(a, addr, bundle))
	require.NoError(t, svc.ProcessBundle(a, addr, bundle))

	raw, _ := a.Sessions().LoadSession(addr)
	rec, err := record.Decode(raw)
	require.NoError(t, err)
	assert.Len(t, rec.Previous, 1)
	assert.NotEqual(t, rec.Current.BaseKey, rec.Previous[0].BaseKey)
}
