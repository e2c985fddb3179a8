package types

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultDeviceID is the only device index used. Multi-device sessions are
// not supported.
const DefaultDeviceID uint32 = 1

// Party names used to address the two participants internally.
const (
	PartyA = "A"
	PartyB = "B"
)

// Registration id bounds (inclusive).
const (
	MinRegistrationID RegistrationID = 1
	MaxRegistrationID RegistrationID = 16380
)

// RegistrationID identifies a party's device in key agreement and addressing.
type RegistrationID uint32

// Valid reports whether the id falls in the allowed range.
func (id RegistrationID) Valid() bool {
	return id >= MinRegistrationID && id <= MaxRegistrationID
}

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// PreKeyID identifies a one-time pre-key.
type PreKeyID uint32

// SignedPreKeyID identifies a signed pre-key.
type SignedPreKeyID uint32

// KyberPreKeyID identifies a Kyber (KEM) pre-key.
type KyberPreKeyID uint32

// Address names a peer as (name, device).
type Address struct {
	Name     string `json:"name"`
	DeviceID uint32 `json:"deviceId"`
}

// NewAddress returns the address of name on the default device.
func NewAddress(name string) Address {
	return Address{Name: name, DeviceID: DefaultDeviceID}
}

// String returns "name.device".
func (a Address) String() string {
	return a.Name + "." + strconv.FormatUint(uint64(a.DeviceID), 10)
}

// ParseAddress parses the String form of an Address.
func ParseAddress(s string) (Address, error) {
	i := strings.LastIndexByte(s, '.')
	if i <= 0 || i == len(s)-1 {
		return Address{}, fmt.Errorf("invalid address %q", s)
	}
	dev, err := strconv.ParseUint(s[i+1:], 10, 32)
	if err != nil {
		return Address{}, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return Address{Name: s[:i], DeviceID: uint32(dev)}, nil
}

// MessageType tags a ciphertext as handshake-carrying or steady-state.
type MessageType uint8

const (
	// MessageTypeRatchet is a steady-state Double Ratchet message.
	MessageTypeRatchet MessageType = 2
	// MessageTypeHandshake carries the key agreement parameters along with
	// the first ratchet message(s) of a session.
	MessageTypeHandshake MessageType = 3
)

func (t MessageType) String() string {
	switch t {
	case MessageTypeRatchet:
		return "ratchet"
	case MessageTypeHandshake:
		return "handshake"
	default:
		return "unknown(" + strconv.Itoa(int(t)) + ")"
	}
}

// Direction tells IsTrusted whether a key is being used to send or receive.
type Direction uint8

const (
	DirectionSending Direction = iota + 1
	DirectionReceiving
)

// IdentityChange is the outcome of saving a remote identity key.
type IdentityChange uint8

const (
	IdentityNew IdentityChange = iota + 1
	IdentityUnchanged
	IdentityReplaced
)

func (c IdentityChange) String() string {
	switch c {
	case IdentityNew:
		return "new"
	case IdentityUnchanged:
		return "unchanged"
	case IdentityReplaced:
		return "replaced"
	default:
		return "unknown"
	}
}
