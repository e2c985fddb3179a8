package session

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"cipherchat/internal/domain"
	"cipherchat/internal/protocol/ratchet"
	"cipherchat/internal/protocol/record"
	"cipherchat/internal/protocol/x3dh"
	"cipherchat/internal/services/prekey"
)

// Service runs the handshake between the two local parties.
//
// Each party processes the other's pre-key bundle as an initiator, so both
// hold a session that can send first. The sessions are independent: once a
// party reads the other's handshake message it also holds a responder
// session, and the message codec keeps both in the session record.
type Service struct {
	log logrus.FieldLogger
}

// New returns a Service logging to log. A nil log selects the standard logger.
func New(log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{log: log}
}

// Establish builds both public bundles and processes each from the other
// party's side. storesA ends up with a session for B and storesB with one
// for A.
func (s *Service) Establish(
	identityA, identityB domain.IdentityBundle,
	storesA, storesB domain.KeyStores,
) error {
	bundleA, err := prekey.Bundle(identityA)
	if err != nil {
		return fmt.Errorf("bundle for %s: %w", domain.PartyA, err)
	}
	bundleB, err := prekey.Bundle(identityB)
	if err != nil {
		return fmt.Errorf("bundle for %s: %w", domain.PartyB, err)
	}

	if err := s.ProcessBundle(storesA, domain.NewAddress(domain.PartyB), bundleB); err != nil {
		return fmt.Errorf("%s processing %s: %w", domain.PartyA, domain.PartyB, err)
	}
	if err := s.ProcessBundle(storesB, domain.NewAddress(domain.PartyA), bundleA); err != nil {
		return fmt.Errorf("%s processing %s: %w", domain.PartyB, domain.PartyA, err)
	}
	return nil
}

// ProcessBundle runs the initiator key agreement against bundle and stores
// the resulting session under remote. The session keeps the handshake
// parameters until it receives its first message.
//
// Steps:
//  1. Verify the signed and Kyber pre-key signatures.
//  2. Derive the root key (DH1..DH4 plus the KEM secret).
//  3. Seed the sending chain against the peer's signed pre-key.
//  4. Store the session and record the peer's identity key.
func (s *Service) ProcessBundle(stores domain.KeyStores, remote domain.Address, bundle domain.PreKeyBundle) error {
	stores.Lock()
	defer stores.Unlock()

	ids := stores.Identity()
	if !ids.IsTrusted(remote, bundle.IdentityKey, domain.DirectionSending) {
		return fmt.Errorf("%w: untrusted identity for %s", domain.ErrHandshake, remote)
	}
	own := ids.OwnIdentityKey()

	agreement, err := x3dh.InitiatorRoot(own, bundle)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrHandshake, err)
	}
	rs, err := ratchet.InitAsInitiator(agreement.RootKey, bundle.SignedPreKey)
	if err != nil {
		return err
	}

	state := domain.SessionState{
		LocalIdentity:        own.Public(),
		RemoteIdentity:       bundle.IdentityKey,
		LocalRegistrationID:  ids.OwnRegistrationID(),
		RemoteRegistrationID: bundle.RegistrationID,
		BaseKey:              agreement.BaseKey,
		Pending: &domain.PendingHandshake{
			PreKeyID:        agreement.PreKeyID,
			SignedPreKeyID:  agreement.SignedPreKeyID,
			KyberPreKeyID:   agreement.KyberPreKeyID,
			KyberCiphertext: agreement.KyberCiphertext,
			BaseKey:         agreement.BaseKey,
		},
		Ratchet: rs,
	}

	rec := record.New(state)
	if raw, found := stores.Sessions().LoadSession(remote); found {
		existing, err := record.Decode(raw)
		if err != nil {
			return err
		}
		record.Install(&existing, state)
		rec = existing
	}
	raw, err := record.Encode(rec)
	if err != nil {
		return err
	}
	stores.Sessions().SaveSession(remote, raw)
	change := ids.SaveRemoteIdentity(remote, bundle.IdentityKey)

	s.log.WithFields(logrus.Fields{
		"peer":     remote.String(),
		"identity": change.String(),
	}).Debug("session established")
	return nil
}

// Compile-time assertion that Service implements domain.SessionEstablisher.
var _ domain.SessionEstablisher = (*Service)(nil)
