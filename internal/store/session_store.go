package store

import (
	"fmt"
	"sort"
	"sync"

	"cipherchat/internal/domain"
)

// SessionStore keeps one opaque session record per peer address.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[domain.Address][]byte
}

// SessionEntry is one address/record pair in the durable form.
type SessionEntry struct {
	Address domain.Address `json:"address"`
	Record  []byte         `json:"record"`
}

// SessionStoreState is the durable form of a SessionStore.
type SessionStoreState struct {
	Sessions []SessionEntry `json:"sessions"`
}

// NewSessionStore returns an empty SessionStore.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: map[domain.Address][]byte{}}
}

// ReconstructSessionStore builds a SessionStore from its durable form.
func ReconstructSessionStore(st SessionStoreState) (*SessionStore, error) {
	s := NewSessionStore()
	if err := s.Load(st); err != nil {
		return nil, err
	}
	return s, nil
}

// SaveSession stores record for address, replacing any previous one.
func (s *SessionStore) SaveSession(address domain.Address, record []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[address] = append([]byte(nil), record...)
}

// LoadSession returns the record for address.
func (s *SessionStore) LoadSession(address domain.Address) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[address]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), rec...), true
}

// Serialize returns the durable form, ordered by address.
func (s *SessionStore) Serialize() SessionStoreState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := SessionStoreState{Sessions: make([]SessionEntry, 0, len(s.sessions))}
	for addr, rec := range s.sessions {
		out.Sessions = append(out.Sessions, SessionEntry{Address: addr, Record: append([]byte(nil), rec...)})
	}
	sort.Slice(out.Sessions, func(i, j int) bool {
		return out.Sessions[i].Address.String() < out.Sessions[j].Address.String()
	})
	return out
}

// Load replaces the store's contents with st.
func (s *SessionStore) Load(st SessionStoreState) error {
	next := make(map[domain.Address][]byte, len(st.Sessions))
	for _, e := range st.Sessions {
		if e.Address.Name == "" {
			return fmt.Errorf("%w: session with empty address", ErrInvalidState)
		}
		if _, dup := next[e.Address]; dup {
			return fmt.Errorf("%w: duplicate session for %s", ErrInvalidState, e.Address)
		}
		if len(e.Record) == 0 {
			return fmt.Errorf("%w: empty session record for %s", ErrInvalidState, e.Address)
		}
		next[e.Address] = append([]byte(nil), e.Record...)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = next
	return nil
}

// Compile-time assertion that SessionStore implements domain.SessionStore.
var _ domain.SessionStore = (*SessionStore)(nil)
