package message

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"cipherchat/internal/domain"
	"cipherchat/internal/protocol/ratchet"
	"cipherchat/internal/protocol/record"
	"cipherchat/internal/protocol/x3dh"
)

// ErrUnreadMessage is returned by Reopen for a message whose key is not in
// the session history.
var ErrUnreadMessage = errors.New("message was never read on this session")

// Service encrypts and decrypts messages against a party's key stores.
//
// High-level flow:
//   - Encrypt: advance the current session's sending chain. While the session
//     has not received anything the key agreement parameters ride along and
//     the message is a handshake message.
//   - Decrypt: a handshake message either continues a session we already
//     built from the same base key or starts a new responder session,
//     consuming the named one-time pre-key. A ratchet message is tried on the
//     current session, then on archived ones.
//   - Reopen: re-read a message that was already decrypted, using the key
//     kept in the session history. No state moves.
//
// Every operation holds the stores' lock and commits only on success.
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

// Encrypt seals plaintext for peerName. It mutates the session and is not
// safely repeatable.
func (s *Service) Encrypt(plaintext []byte, peerName string, stores domain.KeyStores) (domain.Ciphertext, error) {
	stores.Lock()
	defer stores.Unlock()

	addr := domain.NewAddress(peerName)
	rec, err := loadRecord(stores, addr)
	if err != nil {
		return domain.Ciphertext{}, err
	}
	st := rec.Current.Clone()
	if !stores.Identity().IsTrusted(addr, st.RemoteIdentity, domain.DirectionSending) {
		return domain.Ciphertext{}, fmt.Errorf("%w: untrusted identity for %s", domain.ErrHandshake, addr)
	}

	header, ct, err := ratchet.Encrypt(&st.Ratchet, associatedData(st.LocalIdentity, st.RemoteIdentity), plaintext)
	if err != nil {
		return domain.Ciphertext{}, err
	}
	msg := domain.RatchetMessage{Header: header, Ciphertext: ct}

	out := domain.Ciphertext{Type: domain.MessageTypeRatchet}
	if p := st.Pending; p != nil {
		out.Type = domain.MessageTypeHandshake
		out.Bytes, err = json.Marshal(domain.PreKeyMessage{
			RegistrationID:  st.LocalRegistrationID,
			PreKeyID:        p.PreKeyID,
			SignedPreKeyID:  p.SignedPreKeyID,
			KyberPreKeyID:   p.KyberPreKeyID,
			KyberCiphertext: p.KyberCiphertext,
			BaseKey:         p.BaseKey,
			IdentityKey:     st.LocalIdentity,
			Message:         msg,
		})
	} else {
		out.Bytes, err = json.Marshal(msg)
	}
	if err != nil {
		return domain.Ciphertext{}, err
	}

	rec.Current = &st
	if err := saveRecord(stores, addr, rec); err != nil {
		return domain.Ciphertext{}, err
	}
	s.log.WithFields(logrus.Fields{
		"peer": addr.String(),
		"type": out.Type.String(),
		"n":    header.MessageIndex,
	}).Debug("message encrypted")
	return out, nil
}

// Decrypt opens a ciphertext from peerName. Nothing in stores changes when
// it fails.
func (s *Service) Decrypt(
	ciphertext []byte,
	messageType domain.MessageType,
	peerName string,
	stores domain.KeyStores,
) ([]byte, error) {
	stores.Lock()
	defer stores.Unlock()

	addr := domain.NewAddress(peerName)
	var (
		pt  []byte
		err error
	)
	switch messageType {
	case domain.MessageTypeHandshake:
		pt, err = s.decryptHandshake(ciphertext, addr, stores)
	case domain.MessageTypeRatchet:
		pt, err = s.decryptRatchet(ciphertext, addr, stores)
	default:
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownMessageType, messageType)
	}
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"peer": addr.String(),
		"type": messageType.String(),
	}).Debug("message decrypted")
	return pt, nil
}

// Reopen re-reads a message previously returned by Decrypt on stores.
func (s *Service) Reopen(
	ciphertext []byte,
	messageType domain.MessageType,
	peerName string,
	stores domain.KeyStores,
) ([]byte, error) {
	stores.Lock()
	defer stores.Unlock()

	addr := domain.NewAddress(peerName)
	rec, err := loadRecord(stores, addr)
	if err != nil {
		return nil, err
	}

	var (
		msg    domain.RatchetMessage
		sender = rec.Current.RemoteIdentity
	)
	switch messageType {
	case domain.MessageTypeHandshake:
		pm, err := parseHandshake(ciphertext)
		if err != nil {
			return nil, err
		}
		msg, sender = pm.Message, pm.IdentityKey
	case domain.MessageTypeRatchet:
		if msg, err = parseRatchet(ciphertext); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownMessageType, messageType)
	}

	mk, ok := record.Recall(rec, ratchet.HistoryKey(msg.Header))
	if !ok {
		return nil, ErrUnreadMessage
	}
	receiver := stores.Identity().OwnIdentityKey().Public()
	return ratchet.Open(mk, msg.Header, associatedData(sender, receiver), msg.Ciphertext)
}

func (s *Service) decryptHandshake(ciphertext []byte, addr domain.Address, stores domain.KeyStores) ([]byte, error) {
	msg, err := parseHandshake(ciphertext)
	if err != nil {
		return nil, err
	}
	ids := stores.Identity()
	if !ids.IsTrusted(addr, msg.IdentityKey, domain.DirectionReceiving) {
		return nil, fmt.Errorf("%w: untrusted identity for %s", domain.ErrHandshake, addr)
	}

	raw, found := stores.Sessions().LoadSession(addr)
	var rec domain.SessionRecord
	if found {
		if rec, err = record.Decode(raw); err != nil {
			return nil, err
		}
		// A repeat handshake for a session we already built: no pre-key is
		// consumed twice.
		if i, ok := record.FindBaseKey(rec, msg.BaseKey); ok {
			pt, err := s.decryptOn(&rec, i, msg.Message, addr, stores)
			if err != nil {
				return nil, undecryptable(addr, err)
			}
			return pt, nil
		}
	}

	own := ids.OwnIdentityKey()
	spk, err := stores.SignedPreKeys().LoadSignedPreKey(msg.SignedPreKeyID)
	if err != nil {
		return nil, fmt.Errorf("handshake from %s: %w", addr, err)
	}
	kyber, err := stores.KyberPreKeys().LoadKyberPreKey(msg.KyberPreKeyID)
	if err != nil {
		return nil, fmt.Errorf("handshake from %s: %w", addr, err)
	}
	var opkPriv *domain.X25519Private
	if msg.PreKeyID != nil {
		opk, err := stores.PreKeys().LoadPreKey(*msg.PreKeyID)
		if err != nil {
			return nil, fmt.Errorf("handshake from %s: %w", addr, err)
		}
		opkPriv = &opk.Private
	}

	root, err := x3dh.ResponderRoot(own, spk.Private, opkPriv, kyber.Private, msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrHandshake, err)
	}
	st := domain.SessionState{
		LocalIdentity:        own.Public(),
		RemoteIdentity:       msg.IdentityKey,
		LocalRegistrationID:  ids.OwnRegistrationID(),
		RemoteRegistrationID: msg.RegistrationID,
		BaseKey:              msg.BaseKey,
		Ratchet:              ratchet.InitAsResponder(root, spk.Private, spk.Public),
	}
	// A wrong KEM ciphertext decapsulates to a wrong secret rather than an
	// error, so a failure here is a failed key agreement.
	pt, mk, err := ratchet.Decrypt(&st.Ratchet, associatedData(st.RemoteIdentity, st.LocalIdentity), msg.Message.Header, msg.Message.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: handshake from %s: %w", domain.ErrHandshake, addr, err)
	}

	// Commit: the one-time pre-key is gone for good from here on.
	if msg.PreKeyID != nil {
		stores.PreKeys().RemovePreKey(*msg.PreKeyID)
	}
	if err := stores.KyberPreKeys().MarkKyberPreKeyUsed(msg.KyberPreKeyID); err != nil {
		return nil, err
	}
	if found {
		record.Install(&rec, st)
	} else {
		rec = record.New(st)
	}
	record.Remember(&rec, ratchet.HistoryKey(msg.Message.Header), mk)
	if err := saveRecord(stores, addr, rec); err != nil {
		return nil, err
	}
	change := ids.SaveRemoteIdentity(addr, msg.IdentityKey)

	entry := s.log.WithFields(logrus.Fields{"peer": addr.String(), "identity": change.String()})
	if msg.PreKeyID != nil {
		entry = entry.WithField("preKeyId", *msg.PreKeyID)
	}
	entry.Debug("responder session created")
	return pt, nil
}

func (s *Service) decryptRatchet(ciphertext []byte, addr domain.Address, stores domain.KeyStores) ([]byte, error) {
	msg, err := parseRatchet(ciphertext)
	if err != nil {
		return nil, err
	}
	rec, err := loadRecord(stores, addr)
	if err != nil {
		return nil, err
	}

	pt, firstErr := s.decryptOn(&rec, -1, msg, addr, stores)
	if firstErr == nil {
		return pt, nil
	}
	for i := range rec.Previous {
		if pt, err := s.decryptOn(&rec, i, msg, addr, stores); err == nil {
			return pt, nil
		}
	}
	return nil, undecryptable(addr, firstErr)
}

// undecryptable maps a ratchet failure to ErrDecryptAuthentication. Replays
// and messages too far ahead have no key and fail the same way as tampering.
func undecryptable(addr domain.Address, err error) error {
	if errors.Is(err, domain.ErrDecryptAuthentication) {
		return fmt.Errorf("decrypt from %s: %w", addr, err)
	}
	return fmt.Errorf("%w: decrypt from %s: %w", domain.ErrDecryptAuthentication, addr, err)
}

// decryptOn tries msg on the state at index i of rec (-1 for current). On
// success the state becomes current, its pending handshake is cleared, the
// message key joins the history, and the record is saved.
func (s *Service) decryptOn(rec *domain.SessionRecord, i int, msg domain.RatchetMessage, addr domain.Address, stores domain.KeyStores) ([]byte, error) {
	var st domain.SessionState
	if i < 0 {
		st = rec.Current.Clone()
	} else {
		st = rec.Previous[i].Clone()
	}
	pt, mk, err := ratchet.Decrypt(&st.Ratchet, associatedData(st.RemoteIdentity, st.LocalIdentity), msg.Header, msg.Ciphertext)
	if err != nil {
		return nil, err
	}
	st.Pending = nil

	next := rec.Clone()
	if i < 0 {
		next.Current = &st
	} else {
		next.Previous[i] = st
		record.Promote(&next, i)
		s.log.WithField("peer", addr.String()).Debug("archived session promoted")
	}
	record.Remember(&next, ratchet.HistoryKey(msg.Header), mk)
	if err := saveRecord(stores, addr, next); err != nil {
		return nil, err
	}
	*rec = next
	return pt, nil
}

func loadRecord(stores domain.KeyStores, addr domain.Address) (domain.SessionRecord, error) {
	raw, found := stores.Sessions().LoadSession(addr)
	if !found {
		return domain.SessionRecord{}, fmt.Errorf("%w: %s", domain.ErrNoSession, addr)
	}
	return record.Decode(raw)
}

func saveRecord(stores domain.KeyStores, addr domain.Address, rec domain.SessionRecord) error {
	raw, err := record.Encode(rec)
	if err != nil {
		return err
	}
	stores.Sessions().SaveSession(addr, raw)
	return nil
}

func parseHandshake(b []byte) (domain.PreKeyMessage, error) {
	var msg domain.PreKeyMessage
	if err := json.Unmarshal(b, &msg); err != nil {
		return domain.PreKeyMessage{}, fmt.Errorf("%w: %v", domain.ErrHandshake, err)
	}
	if len(msg.KyberCiphertext) == 0 || msg.BaseKey == (domain.X25519Public{}) {
		return domain.PreKeyMessage{}, fmt.Errorf("%w: missing key agreement parameters", domain.ErrHandshake)
	}
	return msg, nil
}

func parseRatchet(b []byte) (domain.RatchetMessage, error) {
	var msg domain.RatchetMessage
	if err := json.Unmarshal(b, &msg); err != nil {
		return domain.RatchetMessage{}, fmt.Errorf("%w: %v", domain.ErrDecryptAuthentication, err)
	}
	return msg, nil
}

// associatedData binds a message to sender || receiver identity keys.
func associatedData(sender, receiver domain.IdentityPublic) []byte {
	return append(sender.Bytes(), receiver.Bytes()...)
}

// Compile-time assertion that Service implements domain.MessageCodec.
var _ domain.MessageCodec = (*Service)(nil)
