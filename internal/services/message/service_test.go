package message_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cipherchat/internal/domain"
	"cipherchat/internal/protocol/ratchet"
	"cipherchat/internal/services/identity"
	"cipherchat/internal/services/message"
	"cipherchat/internal/services/session"
	"cipherchat/internal/store"
)

type parties struct {
	codec  *message.Service
	a, b   *store.KeyStoreCollection
	bundle domain.IdentityBundle // B's
}

func newParties(t *testing.T) parties {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.DebugLevel)

	f := identity.New(0)
	idA, err := f.Create()
	require.NoError(t, err)
	idB, err := f.Create()
	require.NoError(t, err)

	a := store.NewKeyStoreCollection(idA)
	b := store.NewKeyStoreCollection(idB)
	require.NoError(t, session.New(log).Establish(idA, idB, a, b))
	return parties{codec: message.New(log), a: a, b: b, bundle: idB}
}

func (p parties) send(t *testing.T, from string, text string) domain.Ciphertext {
	t.Helper()
	stores, peer := p.a, domain.PartyB
	if from == domain.PartyB {
		stores, peer = p.b, domain.PartyA
	}
	ct, err := p.codec.Encrypt([]byte(text), peer, stores)
	require.NoError(t, err)
	return ct
}

func (p parties) recv(t *testing.T, to string, ct domain.Ciphertext) string {
	t.Helper()
	stores, peer := p.b, domain.PartyA
	if to == domain.PartyA {
		stores, peer = p.a, domain.PartyB
	}
	pt, err := p.codec.Decrypt(ct.Bytes, ct.Type, peer, stores)
	require.NoError(t, err)
	return string(pt)
}

func tamper(t *testing.T, ct domain.Ciphertext) domain.Ciphertext {
	t.Helper()
	out := ct
	if ct.Type == domain.MessageTypeHandshake {
		var m domain.PreKeyMessage
		require.NoError(t, json.Unmarshal(ct.Bytes, &m))
		m.Message.Ciphertext[0] ^= 0x01
		b, err := json.Marshal(m)
		require.NoError(t, err)
		out.Bytes = b
		return out
	}
	var m domain.RatchetMessage
	require.NoError(t, json.Unmarshal(ct.Bytes, &m))
	m.Ciphertext[0] ^= 0x01
	b, err := json.Marshal(m)
	require.NoError(t, err)
	out.Bytes = b
	return out
}

func TestEitherPartyMaySendFirst(t *testing.T) {
	p := newParties(t)
	ct := p.send(t, domain.PartyA, "from A")
	assert.Equal(t, domain.MessageTypeHandshake, ct.Type)
	assert.Equal(t, "from A", p.recv(t, domain.PartyB, ct))

	q := newParties(t)
	ct = q.send(t, domain.PartyB, "from B")
	assert.Equal(t, domain.MessageTypeHandshake, ct.Type)
	assert.Equal(t, "from B", q.recv(t, domain.PartyA, ct))
}

func TestHelloHiBack(t *testing.T) {
	p := newParties(t)

	rec1 := p.send(t, domain.PartyA, "hello")
	require.Equal(t, domain.MessageTypeHandshake, rec1.Type)
	assert.Equal(t, "hello", p.recv(t, domain.PartyB, rec1))

	rec2 := p.send(t, domain.PartyB, "hi back")
	assert.Equal(t, domain.MessageTypeRatchet, rec2.Type)
	assert.Equal(t, "hi back", p.recv(t, domain.PartyA, rec2))

	rec3 := p.send(t, domain.PartyA, "after receipt")
	assert.Equal(t, domain.MessageTypeRatchet, rec3.Type)
	assert.Equal(t, "after receipt", p.recv(t, domain.PartyB, rec3))
}

func TestHandshakeConsumesOneTimePreKey(t *testing.T) {
	p := newParties(t)

	var firstID domain.PreKeyID = 1
	_, err := p.b.PreKeys().LoadPreKey(firstID)
	require.NoError(t, err)

	ct := p.send(t, domain.PartyA, "hello")
	p.recv(t, domain.PartyB, ct)

	_, err = p.b.PreKeys().LoadPreKey(firstID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)
	var nf *domain.KeyNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, domain.KeyKindPreKey, nf.Kind)
	assert.Equal(t, uint32(firstID), nf.ID)

	assert.NotContains(t, p.b.RemainingPreKeys(), firstID)
	assert.Len(t, p.b.RemainingPreKeys(), identity.DefaultPreKeyCount-1)
}

func TestHandshakeRepeatsDoNotConsumeAgain(t *testing.T) {
	p := newParties(t)

	m1 := p.send(t, domain.PartyA, "one")
	m2 := p.send(t, domain.PartyA, "two")
	require.Equal(t, domain.MessageTypeHandshake, m2.Type)

	assert.Equal(t, "one", p.recv(t, domain.PartyB, m1))
	assert.Equal(t, "two", p.recv(t, domain.PartyB, m2))
}

func TestHandshakeWithRemovedPreKeyFails(t *testing.T) {
	p := newParties(t)
	p.b.PreKeys().RemovePreKey(1)
	before, _ := p.b.Sessions().LoadSession(domain.NewAddress(domain.PartyA))

	ct := p.send(t, domain.PartyA, "hello")
	_, err := p.codec.Decrypt(ct.Bytes, ct.Type, domain.PartyA, p.b)
	require.ErrorIs(t, err, domain.ErrKeyNotFound)

	after, _ := p.b.Sessions().LoadSession(domain.NewAddress(domain.PartyA))
	assert.Equal(t, before, after)
}

func TestSimultaneousFirstMessages(t *testing.T) {
	p := newParties(t)

	fromA := p.send(t, domain.PartyA, "a1")
	fromB := p.send(t, domain.PartyB, "b1")

	assert.Equal(t, "a1", p.recv(t, domain.PartyB, fromA))
	assert.Equal(t, "b1", p.recv(t, domain.PartyA, fromB))

	for i := 0; i < 3; i++ {
		assert.Equal(t, fmt.Sprintf("a%d", i+2), p.recv(t, domain.PartyB, p.send(t, domain.PartyA, fmt.Sprintf("a%d", i+2))))
		assert.Equal(t, fmt.Sprintf("b%d", i+2), p.recv(t, domain.PartyA, p.send(t, domain.PartyB, fmt.Sprintf("b%d", i+2))))
	}
}

func TestTamperedMessageLeavesStoresUntouched(t *testing.T) {
	p := newParties(t)

	for _, first := range []bool{true, false} {
		ct := p.send(t, domain.PartyA, "payload")
		if first {
			require.Equal(t, domain.MessageTypeHandshake, ct.Type)
		} else {
			require.Equal(t, domain.MessageTypeRatchet, ct.Type)
		}
		state := p.b.Serialize()

		bad := tamper(t, ct)
		_, err := p.codec.Decrypt(bad.Bytes, bad.Type, domain.PartyA, p.b)
		require.ErrorIs(t, err, domain.ErrDecryptAuthentication)
		assert.Equal(t, state, p.b.Serialize())

		assert.Equal(t, "payload", p.recv(t, domain.PartyB, ct))
		p.recv(t, domain.PartyA, p.send(t, domain.PartyB, "ack"))
	}
}

func TestReplayedRatchetMessageFailsAuthentication(t *testing.T) {
	p := newParties(t)
	p.recv(t, domain.PartyB, p.send(t, domain.PartyA, "hello"))
	p.recv(t, domain.PartyA, p.send(t, domain.PartyB, "hi back"))

	ct := p.send(t, domain.PartyA, "once only")
	require.Equal(t, domain.MessageTypeRatchet, ct.Type)
	assert.Equal(t, "once only", p.recv(t, domain.PartyB, ct))
	state := p.b.Serialize()

	_, err := p.codec.Decrypt(ct.Bytes, ct.Type, domain.PartyA, p.b)
	require.ErrorIs(t, err, domain.ErrDecryptAuthentication)
	assert.ErrorIs(t, err, ratchet.ErrSkippedKeyNotFound)
	assert.Equal(t, state, p.b.Serialize())
}

func TestReplayedHandshakeFailsAuthentication(t *testing.T) {
	p := newParties(t)
	ct := p.send(t, domain.PartyA, "hello")
	assert.Equal(t, "hello", p.recv(t, domain.PartyB, ct))

	_, err := p.codec.Decrypt(ct.Bytes, ct.Type, domain.PartyA, p.b)
	require.ErrorIs(t, err, domain.ErrDecryptAuthentication)
}

func TestTamperedKyberCiphertextIsHandshakeError(t *testing.T) {
	p := newParties(t)
	ct := p.send(t, domain.PartyA, "hello")
	require.Equal(t, domain.MessageTypeHandshake, ct.Type)
	state := p.b.Serialize()

	var m domain.PreKeyMessage
	require.NoError(t, json.Unmarshal(ct.Bytes, &m))
	m.KyberCiphertext[0] ^= 0x01
	bad, err := json.Marshal(m)
	require.NoError(t, err)

	_, err = p.codec.Decrypt(bad, ct.Type, domain.PartyA, p.b)
	require.ErrorIs(t, err, domain.ErrHandshake)
	assert.Equal(t, state, p.b.Serialize())

	assert.Equal(t, "hello", p.recv(t, domain.PartyB, ct))
}

func TestUnknownMessageType(t *testing.T) {
	p := newParties(t)
	ct := p.send(t, domain.PartyA, "x")
	_, err := p.codec.Decrypt(ct.Bytes, domain.MessageType(9), domain.PartyA, p.b)
	assert.ErrorIs(t, err, domain.ErrUnknownMessageType)
}

func TestNoSession(t *testing.T) {
	p := newParties(t)
	_, err := p.codec.Encrypt([]byte("x"), "C", p.a)
	assert.ErrorIs(t, err, domain.ErrNoSession)
}

func TestOutOfOrderRatchetMessages(t *testing.T) {
	p := newParties(t)
	p.recv(t, domain.PartyB, p.send(t, domain.PartyA, "hello"))
	p.recv(t, domain.PartyA, p.send(t, domain.PartyB, "hi"))

	m1 := p.send(t, domain.PartyA, "m1")
	m2 := p.send(t, domain.PartyA, "m2")
	m3 := p.send(t, domain.PartyA, "m3")

	assert.Equal(t, "m3", p.recv(t, domain.PartyB, m3))
	assert.Equal(t, "m1", p.recv(t, domain.PartyB, m1))
	assert.Equal(t, "m2", p.recv(t, domain.PartyB, m2))
}

func TestReopenRereadsWithoutAdvancing(t *testing.T) {
	p := newParties(t)

	type sent struct {
		to   string
		text string
		ct   domain.Ciphertext
	}
	var log []sent
	for i := 0; i < 6; i++ {
		from, to := domain.PartyA, domain.PartyB
		if i%2 == 1 {
			from, to = domain.PartyB, domain.PartyA
		}
		text := fmt.Sprintf("message %d", i)
		ct := p.send(t, from, text)
		require.Equal(t, text, p.recv(t, to, ct))
		log = append(log, sent{to, text, ct})
	}

	stateA, stateB := p.a.Serialize(), p.b.Serialize()
	for _, m := range log {
		stores, peer := p.b, domain.PartyA
		if m.to == domain.PartyA {
			stores, peer = p.a, domain.PartyB
		}
		pt, err := p.codec.Reopen(m.ct.Bytes, m.ct.Type, peer, stores)
		require.NoError(t, err)
		assert.Equal(t, m.text, string(pt))
	}
	assert.Equal(t, stateA, p.a.Serialize())
	assert.Equal(t, stateB, p.b.Serialize())
}

func TestReopenUnreadMessage(t *testing.T) {
	p := newParties(t)
	ct := p.send(t, domain.PartyA, "never read")
	_, err := p.codec.Reopen(ct.Bytes, ct.Type, domain.PartyA, p.b)
	assert.ErrorIs(t, err, message.ErrUnreadMessage)
}

func TestStateRoundTripReproducesBehaviour(t *testing.T) {
	p := newParties(t)
	p.recv(t, domain.PartyB, p.send(t, domain.PartyA, "hello"))
	p.recv(t, domain.PartyA, p.send(t, domain.PartyB, "hi back"))
	pending := p.send(t, domain.PartyA, "in flight")

	rawA, err := json.Marshal(p.a.Serialize())
	require.NoError(t, err)
	rawB, err := json.Marshal(p.b.Serialize())
	require.NoError(t, err)

	var stA, stB store.CollectionState
	require.NoError(t, json.Unmarshal(rawA, &stA))
	require.NoError(t, json.Unmarshal(rawB, &stB))
	a2, err := store.ReconstructCollection(stA)
	require.NoError(t, err)
	b2, err := store.ReconstructCollection(stB)
	require.NoError(t, err)

	q := parties{codec: p.codec, a: a2, b: b2}
	assert.Equal(t, "in flight", q.recv(t, domain.PartyB, pending))
	assert.Equal(t, "next", q.recv(t, domain.PartyA, q.send(t, domain.PartyB, "next")))
	assert.Equal(t, "and again", q.recv(t, domain.PartyB, q.send(t, domain.PartyA, "and again")))
}
