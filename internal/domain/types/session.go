package types

import "maps"

// PendingHandshake records the key agreement parameters an initiator keeps
// sending until it receives a message on the session.
type PendingHandshake struct {
	PreKeyID        *PreKeyID      `json:"preKeyId,omitempty"`
	SignedPreKeyID  SignedPreKeyID `json:"signedPreKeyId"`
	KyberPreKeyID   KyberPreKeyID  `json:"kyberPreKeyId"`
	KyberCiphertext []byte         `json:"kyberCiphertext"`
	BaseKey         X25519Public   `json:"baseKey"`
}

// SessionState is one ratchet session with a peer.
type SessionState struct {
	LocalIdentity        IdentityPublic    `json:"localIdentity"`
	RemoteIdentity       IdentityPublic    `json:"remoteIdentity"`
	LocalRegistrationID  RegistrationID    `json:"localRegistrationId"`
	RemoteRegistrationID RegistrationID    `json:"remoteRegistrationId"`
	BaseKey              X25519Public      `json:"baseKey"`
	Pending              *PendingHandshake `json:"pending,omitempty"`
	Ratchet              RatchetState      `json:"ratchet"`
}

// Clone returns a deep copy of the state.
func (s SessionState) Clone() SessionState {
	out := s
	out.Ratchet = s.Ratchet.Clone()
	if s.Pending != nil {
		p := *s.Pending
		p.KyberCiphertext = cloneBytes(s.Pending.KyberCiphertext)
		if s.Pending.PreKeyID != nil {
			id := *s.Pending.PreKeyID
			p.PreKeyID = &id
		}
		out.Pending = &p
	}
	return out
}

// SessionRecord is the opaque per-peer value kept in the session store: the
// current state, archived states, and the keys of messages already read.
type SessionRecord struct {
	Current  *SessionState     `json:"current,omitempty"`
	Previous []SessionState    `json:"previous,omitempty"`
	History  map[string][]byte `json:"history,omitempty"`
}

// Clone returns a deep copy of the record.
func (r SessionRecord) Clone() SessionRecord {
	out := SessionRecord{History: maps.Clone(r.History)}
	if r.Current != nil {
		c := r.Current.Clone()
		out.Current = &c
	}
	for _, p := range r.Previous {
		out.Previous = append(out.Previous, p.Clone())
	}
	return out
}
