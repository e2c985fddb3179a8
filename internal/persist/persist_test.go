package persist_test

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cipherchat/internal/domain"
	"cipherchat/internal/persist"
	"cipherchat/internal/services/identity"
	"cipherchat/internal/store"
)

func sample(t *testing.T) persist.SessionData {
	t.Helper()
	f := identity.New(2)
	a, err := f.Create()
	require.NoError(t, err)
	b, err := f.Create()
	require.NoError(t, err)
	return persist.SessionData{
		Version:   persist.CurrentVersion,
		Created:   1700000000000,
		Model:     "llama3",
		IdentityA: a,
		IdentityB: b,
		StoresA:   store.NewKeyStoreCollection(a).Serialize(),
		StoresB:   store.NewKeyStoreCollection(b).Serialize(),
		Messages: []domain.EncryptedMessageRecord{{
			ID:          "m1",
			Sender:      domain.SenderA,
			Ciphertext:  []byte{0xde, 0xad},
			MessageType: domain.MessageTypeHandshake,
			Timestamp:   1700000000001,
		}},
	}
}

func quiet() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestEncode_Schema(t *testing.T) {
	raw, err := persist.Encode(sample(t))
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	for _, key := range []string{"version", "created", "model", "identityA", "identityB", "storesA", "storesB", "messages"} {
		assert.Contains(t, generic, key)
	}
	assert.EqualValues(t, 1, generic["version"])

	msgs := generic["messages"].([]any)
	m := msgs[0].(map[string]any)
	assert.Equal(t, "3q0=", m["ciphertext"])
	assert.EqualValues(t, 3, m["messageType"])
	assert.Equal(t, "A", m["sender"])

	idA := generic["identityA"].(map[string]any)
	kp := idA["identityKeyPair"].(map[string]any)
	assert.IsType(t, "", kp["xpriv"], "key material is base64 text")
}

func TestDecode_RoundTrip(t *testing.T) {
	in := sample(t)
	raw, err := persist.Encode(in)
	require.NoError(t, err)
	out, err := persist.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecode_Rejects(t *testing.T) {
	d := sample(t)
	d.Version = 2
	raw, err := json.Marshal(d)
	require.NoError(t, err)
	_, err = persist.Decode(raw)
	assert.ErrorIs(t, err, persist.ErrUnsupportedVersion)

	d = sample(t)
	d.Messages[0].Sender = "C"
	raw, err = json.Marshal(d)
	require.NoError(t, err)
	_, err = persist.Decode(raw)
	assert.ErrorIs(t, err, persist.ErrMalformed)

	_, err = persist.Decode([]byte("{"))
	assert.ErrorIs(t, err, persist.ErrMalformed)
}

func TestFileRepository_SaveLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "home")
	repo := persist.NewFileRepository(dir, quiet())

	_, found, err := repo.Load()
	require.NoError(t, err)
	assert.False(t, found)

	in := sample(t)
	require.NoError(t, repo.Save(in))

	info, err := os.Stat(repo.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	out, found, err := repo.Load()
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, in, out)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileRepository_CorruptFileIsPersistenceError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, persist.FileName), []byte("not json"), 0o600))

	_, _, err := persist.NewFileRepository(dir, quiet()).Load()
	assert.ErrorIs(t, err, domain.ErrPersistenceIO)
	assert.ErrorIs(t, err, persist.ErrMalformed)
}

func TestFileRepository_WriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	err := persist.NewFileRepository(filepath.Join(blocker, "sub"), quiet()).Save(sample(t))
	assert.ErrorIs(t, err, domain.ErrPersistenceIO)
}
