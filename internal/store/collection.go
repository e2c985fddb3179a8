package store

import (
	"fmt"
	"sync"

	"cipherchat/internal/domain"
)

// KeyStoreCollection is one party's five stores. Its mutex is held by the
// message codec for the whole of an encrypt or decrypt.
type KeyStoreCollection struct {
	sync.Mutex

	sessions      *SessionStore
	identity      *IdentityStore
	preKeys       *PreKeyStore
	signedPreKeys *SignedPreKeyStore
	kyberPreKeys  *KyberPreKeyStore
}

// CollectionState is the durable form of a KeyStoreCollection.
type CollectionState struct {
	Sessions      SessionStoreState      `json:"sessions"`
	Identity      IdentityStoreState     `json:"identity"`
	PreKeys       PreKeyStoreState       `json:"preKeys"`
	SignedPreKeys SignedPreKeyStoreState `json:"signedPreKeys"`
	KyberPreKeys  KyberPreKeyStoreState  `json:"kyberPreKeys"`
}

// NewKeyStoreCollection populates fresh stores from b. The session store
// starts empty.
func NewKeyStoreCollection(b domain.IdentityBundle) *KeyStoreCollection {
	return &KeyStoreCollection{
		sessions:      NewSessionStore(),
		identity:      NewIdentityStore(b.IdentityKeyPair, b.RegistrationID),
		preKeys:       NewPreKeyStore(b.PreKeys...),
		signedPreKeys: NewSignedPreKeyStore(b.SignedPreKey),
		kyberPreKeys:  NewKyberPreKeyStore(b.KyberPreKey),
	}
}

// ReconstructCollection builds every store from st. Nothing is returned
// unless all five load.
func ReconstructCollection(st CollectionState) (*KeyStoreCollection, error) {
	sessions, err := ReconstructSessionStore(st.Sessions)
	if err != nil {
		return nil, fmt.Errorf("session store: %w", err)
	}
	identity, err := ReconstructIdentityStore(st.Identity)
	if err != nil {
		return nil, fmt.Errorf("identity store: %w", err)
	}
	preKeys, err := ReconstructPreKeyStore(st.PreKeys)
	if err != nil {
		return nil, fmt.Errorf("pre-key store: %w", err)
	}
	signedPreKeys, err := ReconstructSignedPreKeyStore(st.SignedPreKeys)
	if err != nil {
		return nil, fmt.Errorf("signed pre-key store: %w", err)
	}
	kyberPreKeys, err := ReconstructKyberPreKeyStore(st.KyberPreKeys)
	if err != nil {
		return nil, fmt.Errorf("kyber pre-key store: %w", err)
	}
	return &KeyStoreCollection{
		sessions:      sessions,
		identity:      identity,
		preKeys:       preKeys,
		signedPreKeys: signedPreKeys,
		kyberPreKeys:  kyberPreKeys,
	}, nil
}

// Sessions returns the session store.
func (c *KeyStoreCollection) Sessions() domain.SessionStore { return c.sessions }

// Identity returns the identity store.
func (c *KeyStoreCollection) Identity() domain.IdentityKeyStore { return c.identity }

// PreKeys returns the one-time pre-key store.
func (c *KeyStoreCollection) PreKeys() domain.PreKeyStore { return c.preKeys }

// SignedPreKeys returns the signed pre-key store.
func (c *KeyStoreCollection) SignedPreKeys() domain.SignedPreKeyStore { return c.signedPreKeys }

// KyberPreKeys returns the Kyber pre-key store.
func (c *KeyStoreCollection) KyberPreKeys() domain.KyberPreKeyStore { return c.kyberPreKeys }

// RemainingPreKeys returns the ids of one-time pre-keys not yet consumed.
func (c *KeyStoreCollection) RemainingPreKeys() []domain.PreKeyID { return c.preKeys.IDs() }

// Serialize returns the durable form of all five stores. Callers hold the
// collection lock if an operation may be in flight.
func (c *KeyStoreCollection) Serialize() CollectionState {
	return CollectionState{
		Sessions:      c.sessions.Serialize(),
		Identity:      c.identity.Serialize(),
		PreKeys:       c.preKeys.Serialize(),
		SignedPreKeys: c.signedPreKeys.Serialize(),
		KyberPreKeys:  c.kyberPreKeys.Serialize(),
	}
}

// Load replaces every store's contents with st. On error no store has been
// changed.
func (c *KeyStoreCollection) Load(st CollectionState) error {
	next, err := ReconstructCollection(st)
	if err != nil {
		return err
	}
	c.sessions = next.sessions
	c.identity = next.identity
	c.preKeys = next.preKeys
	c.signedPreKeys = next.signedPreKeys
	c.kyberPreKeys = next.kyberPreKeys
	return nil
}

// Compile-time assertion that KeyStoreCollection implements domain.KeyStores.
var _ domain.KeyStores = (*KeyStoreCollection)(nil)
