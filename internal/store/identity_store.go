package store

import (
	"fmt"
	"sort"
	"sync"

	"cipherchat/internal/domain"
)

// IdentityStore holds our own identity and registration id, and the
// identity keys seen for each peer. Trust is on first use.
type IdentityStore struct {
	mu             sync.Mutex
	identity       domain.Identity
	registrationID domain.RegistrationID
	remotes        map[domain.Address]domain.IdentityPublic
}

// RemoteIdentityEntry is one known peer identity in the durable form.
type RemoteIdentityEntry struct {
	Address  domain.Address        `json:"address"`
	Identity domain.IdentityPublic `json:"identity"`
}

// IdentityStoreState is the durable form of an IdentityStore.
type IdentityStoreState struct {
	IdentityKeyPair domain.Identity       `json:"identityKeyPair"`
	RegistrationID  domain.RegistrationID `json:"registrationId"`
	Remotes         []RemoteIdentityEntry `json:"remotes"`
}

// NewIdentityStore returns a store owning id with no known peers.
func NewIdentityStore(id domain.Identity, registrationID domain.RegistrationID) *IdentityStore {
	return &IdentityStore{
		identity:       id,
		registrationID: registrationID,
		remotes:        map[domain.Address]domain.IdentityPublic{},
	}
}

// ReconstructIdentityStore builds an IdentityStore from its durable form.
// The own identity is part of that form, so there is no partially
// initialised store to restore into.
func ReconstructIdentityStore(st IdentityStoreState) (*IdentityStore, error) {
	s := &IdentityStore{}
	if err := s.Load(st); err != nil {
		return nil, err
	}
	return s, nil
}

// OwnIdentityKey returns our identity key pair.
func (s *IdentityStore) OwnIdentityKey() domain.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// OwnRegistrationID returns our registration id.
func (s *IdentityStore) OwnRegistrationID() domain.RegistrationID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registrationID
}

// IsTrusted always reports true.
func (s *IdentityStore) IsTrusted(domain.Address, domain.IdentityPublic, domain.Direction) bool {
	return true
}

// SaveRemoteIdentity records key for address and reports how it compares
// with what was stored before.
func (s *IdentityStore) SaveRemoteIdentity(address domain.Address, key domain.IdentityPublic) domain.IdentityChange {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.remotes[address]
	s.remotes[address] = key
	switch {
	case !ok:
		return domain.IdentityNew
	case prev.Equal(key):
		return domain.IdentityUnchanged
	default:
		return domain.IdentityReplaced
	}
}

// RemoteIdentity returns the stored identity for address.
func (s *IdentityStore) RemoteIdentity(address domain.Address) (domain.IdentityPublic, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.remotes[address]
	return key, ok
}

// Serialize returns the durable form, peers ordered by address.
func (s *IdentityStore) Serialize() IdentityStoreState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := IdentityStoreState{
		IdentityKeyPair: s.identity,
		RegistrationID:  s.registrationID,
		Remotes:         make([]RemoteIdentityEntry, 0, len(s.remotes)),
	}
	for addr, key := range s.remotes {
		out.Remotes = append(out.Remotes, RemoteIdentityEntry{Address: addr, Identity: key})
	}
	sort.Slice(out.Remotes, func(i, j int) bool {
		return out.Remotes[i].Address.String() < out.Remotes[j].Address.String()
	})
	return out
}

// Load replaces the store's contents, own identity included, with st.
func (s *IdentityStore) Load(st IdentityStoreState) error {
	if !st.RegistrationID.Valid() {
		return fmt.Errorf("%w: registration id %d out of range", ErrInvalidState, st.RegistrationID)
	}
	if st.IdentityKeyPair.XPub == (domain.X25519Public{}) || st.IdentityKeyPair.EdPub == (domain.Ed25519Public{}) {
		return fmt.Errorf("%w: missing identity key", ErrInvalidState)
	}
	remotes := make(map[domain.Address]domain.IdentityPublic, len(st.Remotes))
	for _, r := range st.Remotes {
		if r.Address.Name == "" {
			return fmt.Errorf("%w: remote identity with empty address", ErrInvalidState)
		}
		if _, dup := remotes[r.Address]; dup {
			return fmt.Errorf("%w: duplicate remote identity for %s", ErrInvalidState, r.Address)
		}
		remotes[r.Address] = r.Identity
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = st.IdentityKeyPair
	s.registrationID = st.RegistrationID
	s.remotes = remotes
	return nil
}

// Compile-time assertion that IdentityStore implements domain.IdentityKeyStore.
var _ domain.IdentityKeyStore = (*IdentityStore)(nil)
