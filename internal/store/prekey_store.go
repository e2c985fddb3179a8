package store

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"cipherchat/internal/domain"
)

// PreKeyStore holds one-time pre-keys. A consumed key is removed and never
// comes back.
type PreKeyStore struct {
	mu      sync.Mutex
	preKeys map[domain.PreKeyID]domain.PreKeyRecord
}

// PreKeyStoreState is the durable form of a PreKeyStore.
type PreKeyStoreState struct {
	PreKeys []domain.PreKeyRecord `json:"preKeys"`
}

// NewPreKeyStore returns a store holding records.
func NewPreKeyStore(records ...domain.PreKeyRecord) *PreKeyStore {
	s := &PreKeyStore{preKeys: make(map[domain.PreKeyID]domain.PreKeyRecord, len(records))}
	for _, r := range records {
		s.preKeys[r.ID] = r
	}
	return s
}

// ReconstructPreKeyStore builds a PreKeyStore from its durable form.
func ReconstructPreKeyStore(st PreKeyStoreState) (*PreKeyStore, error) {
	s := NewPreKeyStore()
	if err := s.Load(st); err != nil {
		return nil, err
	}
	return s, nil
}

// SavePreKey stores record under id.
func (s *PreKeyStore) SavePreKey(id domain.PreKeyID, record domain.PreKeyRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preKeys[id] = record
}

// LoadPreKey returns the record for id or a *domain.KeyNotFoundError.
func (s *PreKeyStore) LoadPreKey(id domain.PreKeyID) (domain.PreKeyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.preKeys[id]
	if !ok {
		return domain.PreKeyRecord{}, &domain.KeyNotFoundError{Kind: domain.KeyKindPreKey, ID: uint32(id)}
	}
	return r, nil
}

// RemovePreKey deletes id. Removing an absent id is a no-op.
func (s *PreKeyStore) RemovePreKey(id domain.PreKeyID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.preKeys, id)
}

// IDs returns the stored ids in ascending order.
func (s *PreKeyStore) IDs() []domain.PreKeyID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]domain.PreKeyID, 0, len(s.preKeys))
	for id := range s.preKeys {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Serialize returns the durable form ordered by id.
func (s *PreKeyStore) Serialize() PreKeyStoreState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := PreKeyStoreState{PreKeys: make([]domain.PreKeyRecord, 0, len(s.preKeys))}
	for _, r := range s.preKeys {
		out.PreKeys = append(out.PreKeys, r)
	}
	slices.SortFunc(out.PreKeys, func(a, b domain.PreKeyRecord) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Load replaces the store's contents with st.
func (s *PreKeyStore) Load(st PreKeyStoreState) error {
	next := make(map[domain.PreKeyID]domain.PreKeyRecord, len(st.PreKeys))
	for _, r := range st.PreKeys {
		if _, dup := next[r.ID]; dup {
			return fmt.Errorf("%w: duplicate pre-key %d", ErrInvalidState, r.ID)
		}
		if r.Public == (domain.X25519Public{}) {
			return fmt.Errorf("%w: pre-key %d has no public key", ErrInvalidState, r.ID)
		}
		next[r.ID] = r
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preKeys = next
	return nil
}

// SignedPreKeyStore holds signed pre-keys. Entries are kept after use.
type SignedPreKeyStore struct {
	mu   sync.Mutex
	keys map[domain.SignedPreKeyID]domain.SignedPreKeyRecord
}

// SignedPreKeyStoreState is the durable form of a SignedPreKeyStore.
type SignedPreKeyStoreState struct {
	SignedPreKeys []domain.SignedPreKeyRecord `json:"signedPreKeys"`
}

// NewSignedPreKeyStore returns a store holding records.
func NewSignedPreKeyStore(records ...domain.SignedPreKeyRecord) *SignedPreKeyStore {
	s := &SignedPreKeyStore{keys: make(map[domain.SignedPreKeyID]domain.SignedPreKeyRecord, len(records))}
	for _, r := range records {
		s.keys[r.ID] = r
	}
	return s
}

// ReconstructSignedPreKeyStore builds a SignedPreKeyStore from its durable form.
func ReconstructSignedPreKeyStore(st SignedPreKeyStoreState) (*SignedPreKeyStore, error) {
	s := NewSignedPreKeyStore()
	if err := s.Load(st); err != nil {
		return nil, err
	}
	return s, nil
}

// SaveSignedPreKey stores record under id.
func (s *SignedPreKeyStore) SaveSignedPreKey(id domain.SignedPreKeyID, record domain.SignedPreKeyRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[id] = record
}

// LoadSignedPreKey returns the record for id or a *domain.KeyNotFoundError.
func (s *SignedPreKeyStore) LoadSignedPreKey(id domain.SignedPreKeyID) (domain.SignedPreKeyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.keys[id]
	if !ok {
		return domain.SignedPreKeyRecord{}, &domain.KeyNotFoundError{Kind: domain.KeyKindSignedPreKey, ID: uint32(id)}
	}
	return r, nil
}

// Serialize returns the durable form ordered by id.
func (s *SignedPreKeyStore) Serialize() SignedPreKeyStoreState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := SignedPreKeyStoreState{SignedPreKeys: make([]domain.SignedPreKeyRecord, 0, len(s.keys))}
	for _, r := range s.keys {
		out.SignedPreKeys = append(out.SignedPreKeys, r)
	}
	slices.SortFunc(out.SignedPreKeys, func(a, b domain.SignedPreKeyRecord) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Load replaces the store's contents with st.
func (s *SignedPreKeyStore) Load(st SignedPreKeyStoreState) error {
	next := make(map[domain.SignedPreKeyID]domain.SignedPreKeyRecord, len(st.SignedPreKeys))
	for _, r := range st.SignedPreKeys {
		if _, dup := next[r.ID]; dup {
			return fmt.Errorf("%w: duplicate signed pre-key %d", ErrInvalidState, r.ID)
		}
		if len(r.Signature) == 0 {
			return fmt.Errorf("%w: signed pre-key %d has no signature", ErrInvalidState, r.ID)
		}
		next[r.ID] = r
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = next
	return nil
}

// Compile-time assertions.
var (
	_ domain.PreKeyStore       = (*PreKeyStore)(nil)
	_ domain.SignedPreKeyStore = (*SignedPreKeyStore)(nil)
)
