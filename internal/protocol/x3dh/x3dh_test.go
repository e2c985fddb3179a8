package x3dh_test

import (
	"bytes"
	"errors"
	"testing"

	"cipherchat/internal/crypto"
	"cipherchat/internal/domain"
	"cipherchat/internal/protocol/x3dh"
)

type responder struct {
	id        domain.Identity
	spkPriv   domain.X25519Private
	opkPriv   domain.X25519Private
	kyberPriv []byte
	bundle    domain.PreKeyBundle
}

// makeIdentity creates a domain.Identity with fresh X25519 and Ed25519 pairs.
func makeIdentity(t *testing.T) domain.Identity {
	t.Helper()
	id, err := crypto.GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	return id
}

// makeResponder builds Bob's keys and the bundle he would publish.
func makeResponder(t *testing.T, withOneTime bool) responder {
	t.Helper()
	bob := makeIdentity(t)

	spkPriv, spkPub, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}
	kyberPriv, kyberPub, err := crypto.GenerateKyber()
	if err != nil {
		t.Fatalf("GenerateKyber: %v", err)
	}

	r := responder{
		id:        bob,
		spkPriv:   spkPriv,
		kyberPriv: kyberPriv,
		bundle: domain.PreKeyBundle{
			RegistrationID:        7,
			DeviceID:              domain.DefaultDeviceID,
			SignedPreKeyID:        1,
			SignedPreKey:          spkPub,
			SignedPreKeySignature: crypto.SignEd25519(bob.EdPriv, spkPub[:]),
			IdentityKey:           bob.Public(),
			KyberPreKeyID:         1,
			KyberPreKey:           kyberPub,
			KyberPreKeySignature:  crypto.SignEd25519(bob.EdPriv, kyberPub),
		},
	}
	if withOneTime {
		opkPriv, opkPub, err := crypto.GenerateX25519()
		if err != nil {
			t.Fatalf("GenerateX25519 (opk): %v", err)
		}
		r.opkPriv = opkPriv
		r.bundle.PreKey = &domain.OneTimePreKeyPublic{ID: 5, Public: opkPub}
	}
	return r
}

func handshakeFor(alice domain.Identity, a x3dh.Agreement) domain.PreKeyMessage {
	return domain.PreKeyMessage{
		PreKeyID:        a.PreKeyID,
		SignedPreKeyID:  a.SignedPreKeyID,
		KyberPreKeyID:   a.KyberPreKeyID,
		KyberCiphertext: a.KyberCiphertext,
		BaseKey:         a.BaseKey,
		IdentityKey:     alice.Public(),
	}
}

func TestInitiatorAndResponderRoot_NoOneTimePreKey(t *testing.T) {
	alice := makeIdentity(t)
	bob := makeResponder(t, false)

	agreement, err := x3dh.InitiatorRoot(alice, bob.bundle)
	if err != nil {
		t.Fatalf("InitiatorRoot: %v", err)
	}
	if agreement.PreKeyID != nil {
		t.Fatalf("want no one-time pre-key id, got %d", *agreement.PreKeyID)
	}

	rootKeyResponder, err := x3dh.ResponderRoot(bob.id, bob.spkPriv, nil, bob.kyberPriv, handshakeFor(alice, agreement))
	if err != nil {
		t.Fatalf("ResponderRoot: %v", err)
	}
	if !bytes.Equal(agreement.RootKey, rootKeyResponder) {
		t.Fatal("root keys differ (no OPK)")
	}
}

func TestInitiatorAndResponderRoot_WithOneTimePreKey(t *testing.T) {
	alice := makeIdentity(t)
	bob := makeResponder(t, true)

	agreement, err := x3dh.InitiatorRoot(alice, bob.bundle)
	if err != nil {
		t.Fatalf("InitiatorRoot: %v", err)
	}
	if agreement.PreKeyID == nil || *agreement.PreKeyID != 5 {
		t.Fatalf("unexpected one-time pre-key id %v", agreement.PreKeyID)
	}
	if agreement.SignedPreKeyID != 1 || agreement.KyberPreKeyID != 1 {
		t.Fatalf("unexpected ids signed=%d kyber=%d", agreement.SignedPreKeyID, agreement.KyberPreKeyID)
	}

	rootKeyResponder, err := x3dh.ResponderRoot(bob.id, bob.spkPriv, &bob.opkPriv, bob.kyberPriv, handshakeFor(alice, agreement))
	if err != nil {
		t.Fatalf("ResponderRoot: %v", err)
	}
	if !bytes.Equal(agreement.RootKey, rootKeyResponder) {
		t.Fatal("root keys differ (with OPK)")
	}
}

func TestResponderRoot_MissingOneTimePreKeyDiverges(t *testing.T) {
	alice := makeIdentity(t)
	bob := makeResponder(t, true)

	agreement, err := x3dh.InitiatorRoot(alice, bob.bundle)
	if err != nil {
		t.Fatalf("InitiatorRoot: %v", err)
	}
	root, err := x3dh.ResponderRoot(bob.id, bob.spkPriv, nil, bob.kyberPriv, handshakeFor(alice, agreement))
	if err != nil {
		t.Fatalf("ResponderRoot: %v", err)
	}
	if bytes.Equal(agreement.RootKey, root) {
		t.Fatal("root keys must differ without the one-time pre-key")
	}
}

func TestInitiatorRoot_BadSignedPreKeySignature(t *testing.T) {
	alice := makeIdentity(t)
	bob := makeResponder(t, false)
	bob.bundle.SignedPreKeySignature[0] ^= 0xff

	_, err := x3dh.InitiatorRoot(alice, bob.bundle)
	if !errors.Is(err, x3dh.ErrBadSPK) {
		t.Fatalf("want ErrBadSPK, got %v", err)
	}
}

func TestInitiatorRoot_BadKyberSignature(t *testing.T) {
	alice := makeIdentity(t)
	bob := makeResponder(t, false)
	bob.bundle.KyberPreKeySignature[3] ^= 0x01

	_, err := x3dh.InitiatorRoot(alice, bob.bundle)
	if !errors.Is(err, x3dh.ErrBadKyberPreKey) {
		t.Fatalf("want ErrBadKyberPreKey, got %v", err)
	}
}
