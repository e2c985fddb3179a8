package persist

import (
	"encoding/json"
	"errors"
	"fmt"

	"cipherchat/internal/domain"
	"cipherchat/internal/store"
)

// CurrentVersion is the only durable format version understood.
const CurrentVersion = 1

var (
	// ErrUnsupportedVersion is returned for a file written by another format
	// version.
	ErrUnsupportedVersion = errors.New("unsupported session file version")
	// ErrMalformed is returned when a session file decodes but breaks the
	// format's rules.
	ErrMalformed = errors.New("malformed session file")
)

// SessionData is everything needed to bring a session back after a restart.
type SessionData struct {
	Version   int                             `json:"version"`
	Created   int64                           `json:"created"`
	Model     string                          `json:"model"`
	IdentityA domain.IdentityBundle           `json:"identityA"`
	IdentityB domain.IdentityBundle           `json:"identityB"`
	StoresA   store.CollectionState           `json:"storesA"`
	StoresB   store.CollectionState           `json:"storesB"`
	Messages  []domain.EncryptedMessageRecord `json:"messages"`
}

// Encode returns the durable form of d.
func Encode(d SessionData) ([]byte, error) {
	if d.Version == 0 {
		d.Version = CurrentVersion
	}
	if d.Messages == nil {
		d.Messages = []domain.EncryptedMessageRecord{}
	}
	return json.MarshalIndent(d, "", "  ")
}

// Decode parses and checks a durable session.
func Decode(b []byte) (SessionData, error) {
	var d SessionData
	if err := json.Unmarshal(b, &d); err != nil {
		return SessionData{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if d.Version != CurrentVersion {
		return SessionData{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, d.Version)
	}
	if !d.IdentityA.RegistrationID.Valid() || !d.IdentityB.RegistrationID.Valid() {
		return SessionData{}, fmt.Errorf("%w: registration id out of range", ErrMalformed)
	}
	seen := make(map[string]bool, len(d.Messages))
	for i, m := range d.Messages {
		if m.Sender != domain.SenderA && m.Sender != domain.SenderB {
			return SessionData{}, fmt.Errorf("%w: message %d has sender %q", ErrMalformed, i, m.Sender)
		}
		if m.ID == "" || seen[m.ID] {
			return SessionData{}, fmt.Errorf("%w: message %d has a missing or duplicate id", ErrMalformed, i)
		}
		seen[m.ID] = true
	}
	return d, nil
}
