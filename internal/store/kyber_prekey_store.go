package store

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"cipherchat/internal/crypto"
	"cipherchat/internal/domain"
)

// KyberPreKeyStore holds Kyber pre-keys. Marking a key used is recorded but
// does not stop it being loaded again.
type KyberPreKeyStore struct {
	mu   sync.Mutex
	keys map[domain.KyberPreKeyID]domain.KyberPreKeyRecord
	used map[domain.KyberPreKeyID]bool
}

// KyberPreKeyStoreState is the durable form of a KyberPreKeyStore. Private
// keys are kept in their serialized form and restored as-is.
type KyberPreKeyStoreState struct {
	KyberPreKeys []domain.KyberPreKeyRecord `json:"kyberPreKeys"`
	Used         []domain.KyberPreKeyID     `json:"used,omitempty"`
}

// NewKyberPreKeyStore returns a store holding records.
func NewKyberPreKeyStore(records ...domain.KyberPreKeyRecord) *KyberPreKeyStore {
	s := &KyberPreKeyStore{
		keys: make(map[domain.KyberPreKeyID]domain.KyberPreKeyRecord, len(records)),
		used: map[domain.KyberPreKeyID]bool{},
	}
	for _, r := range records {
		s.keys[r.ID] = r
	}
	return s
}

// ReconstructKyberPreKeyStore builds a KyberPreKeyStore from its durable form.
func ReconstructKyberPreKeyStore(st KyberPreKeyStoreState) (*KyberPreKeyStore, error) {
	s := NewKyberPreKeyStore()
	if err := s.Load(st); err != nil {
		return nil, err
	}
	return s, nil
}

// SaveKyberPreKey stores record under id.
func (s *KyberPreKeyStore) SaveKyberPreKey(id domain.KyberPreKeyID, record domain.KyberPreKeyRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[id] = record
}

// LoadKyberPreKey returns the record for id or a *domain.KeyNotFoundError.
func (s *KyberPreKeyStore) LoadKyberPreKey(id domain.KyberPreKeyID) (domain.KyberPreKeyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.keys[id]
	if !ok {
		return domain.KyberPreKeyRecord{}, &domain.KeyNotFoundError{Kind: domain.KeyKindKyberPreKey, ID: uint32(id)}
	}
	return r, nil
}

// MarkKyberPreKeyUsed records that id took part in a handshake.
func (s *KyberPreKeyStore) MarkKyberPreKeyUsed(id domain.KyberPreKeyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[id]; !ok {
		return &domain.KeyNotFoundError{Kind: domain.KeyKindKyberPreKey, ID: uint32(id)}
	}
	s.used[id] = true
	return nil
}

// IsUsed reports whether id has been marked used.
func (s *KyberPreKeyStore) IsUsed(id domain.KyberPreKeyID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.used[id]
}

// Serialize returns the durable form ordered by id.
func (s *KyberPreKeyStore) Serialize() KyberPreKeyStoreState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := KyberPreKeyStoreState{KyberPreKeys: make([]domain.KyberPreKeyRecord, 0, len(s.keys))}
	for _, r := range s.keys {
		out.KyberPreKeys = append(out.KyberPreKeys, r)
	}
	slices.SortFunc(out.KyberPreKeys, func(a, b domain.KyberPreKeyRecord) int { return cmp.Compare(a.ID, b.ID) })
	for id := range s.used {
		out.Used = append(out.Used, id)
	}
	slices.Sort(out.Used)
	return out
}

// Load replaces the store's contents with st after checking every key
// decodes.
func (s *KyberPreKeyStore) Load(st KyberPreKeyStoreState) error {
	keys := make(map[domain.KyberPreKeyID]domain.KyberPreKeyRecord, len(st.KyberPreKeys))
	for _, r := range st.KyberPreKeys {
		if _, dup := keys[r.ID]; dup {
			return fmt.Errorf("%w: duplicate kyber pre-key %d", ErrInvalidState, r.ID)
		}
		if !crypto.ValidKyberPublic(r.Public) || !crypto.ValidKyberPrivate(r.Private) {
			return fmt.Errorf("%w: kyber pre-key %d does not decode", ErrInvalidState, r.ID)
		}
		keys[r.ID] = r
	}
	used := make(map[domain.KyberPreKeyID]bool, len(st.Used))
	for _, id := range st.Used {
		if _, ok := keys[id]; !ok {
			return fmt.Errorf("%w: used mark for unknown kyber pre-key %d", ErrInvalidState, id)
		}
		used[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = keys
	s.used = used
	return nil
}

// Compile-time assertion that KyberPreKeyStore implements domain.KyberPreKeyStore.
var _ domain.KyberPreKeyStore = (*KyberPreKeyStore)(nil)
