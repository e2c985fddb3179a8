package record

import (
	"encoding/json"
	"errors"
	"fmt"

	"cipherchat/internal/domain"
)

// MaxArchivedStates bounds how many superseded states a record keeps.
const MaxArchivedStates = 40

// ErrEmptyRecord is returned when a record has no current state.
var ErrEmptyRecord = errors.New("session record has no current state")

// New returns a record whose current state is st.
func New(st domain.SessionState) domain.SessionRecord {
	return domain.SessionRecord{Current: &st, History: map[string][]byte{}}
}

// Encode serialises rec for a session store.
func Encode(rec domain.SessionRecord) ([]byte, error) {
	if rec.Current == nil {
		return nil, ErrEmptyRecord
	}
	return json.Marshal(rec)
}

// Decode parses bytes produced by Encode.
func Decode(b []byte) (domain.SessionRecord, error) {
	var rec domain.SessionRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return domain.SessionRecord{}, fmt.Errorf("decode session record: %w", err)
	}
	if rec.Current == nil {
		return domain.SessionRecord{}, ErrEmptyRecord
	}
	if rec.History == nil {
		rec.History = map[string][]byte{}
	}
	return rec, nil
}

// Install makes st the current state and archives the old one at the front
// of the previous list.
func Install(rec *domain.SessionRecord, st domain.SessionState) {
	if rec.Current != nil {
		rec.Previous = append([]domain.SessionState{*rec.Current}, rec.Previous...)
		if len(rec.Previous) > MaxArchivedStates {
			rec.Previous = rec.Previous[:MaxArchivedStates]
		}
	}
	rec.Current = &st
}

// Promote moves the archived state at index i to current.
func Promote(rec *domain.SessionRecord, i int) {
	st := rec.Previous[i]
	rec.Previous = append(rec.Previous[:i:i], rec.Previous[i+1:]...)
	Install(rec, st)
}

// FindBaseKey returns the index of the state with the given base key: -1 for
// the current state, >= 0 for an archived one. ok is false when none match.
func FindBaseKey(rec domain.SessionRecord, base domain.X25519Public) (int, bool) {
	if rec.Current != nil && rec.Current.BaseKey == base {
		return -1, true
	}
	for i := range rec.Previous {
		if rec.Previous[i].BaseKey == base {
			return i, true
		}
	}
	return 0, false
}

// Remember stores the key of a message that has been read. Keys are never
// evicted: they live as long as the record, so anyone holding the record can
// re-read every message it remembers.
func Remember(rec *domain.SessionRecord, id string, mk []byte) {
	if rec.History == nil {
		rec.History = map[string][]byte{}
	}
	rec.History[id] = append([]byte(nil), mk...)
}

// Recall returns the key stored under id.
func Recall(rec domain.SessionRecord, id string) ([]byte, bool) {
	mk, ok := rec.History[id]
	return mk, ok
}
