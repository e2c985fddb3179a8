package domain

import (
	interfaces "cipherchat/internal/domain/interfaces"
	types "cipherchat/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	RegistrationID         = types.RegistrationID
	Fingerprint            = types.Fingerprint
	PreKeyID               = types.PreKeyID
	SignedPreKeyID         = types.SignedPreKeyID
	KyberPreKeyID          = types.KyberPreKeyID
	Address                = types.Address
	MessageType            = types.MessageType
	Direction              = types.Direction
	IdentityChange         = types.IdentityChange
	Identity               = types.Identity
	IdentityPublic         = types.IdentityPublic
	IdentityBundle         = types.IdentityBundle
	PreKeyRecord           = types.PreKeyRecord
	SignedPreKeyRecord     = types.SignedPreKeyRecord
	KyberPreKeyRecord      = types.KyberPreKeyRecord
	OneTimePreKeyPublic    = types.OneTimePreKeyPublic
	PreKeyBundle           = types.PreKeyBundle
	PreKeyMessage          = types.PreKeyMessage
	RatchetHeader          = types.RatchetHeader
	RatchetMessage         = types.RatchetMessage
	RatchetState           = types.RatchetState
	PendingHandshake       = types.PendingHandshake
	SessionState           = types.SessionState
	SessionRecord          = types.SessionRecord
	Sender                 = types.Sender
	Role                   = types.Role
	Ciphertext             = types.Ciphertext
	EncryptedMessageRecord = types.EncryptedMessageRecord
	ChatMessage            = types.ChatMessage
	ChatTurn               = types.ChatTurn
	X25519Public           = types.X25519Public
	X25519Private          = types.X25519Private
	Ed25519Public          = types.Ed25519Public
	Ed25519Private         = types.Ed25519Private
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	SessionStore          = interfaces.SessionStore
	IdentityKeyStore      = interfaces.IdentityKeyStore
	PreKeyStore           = interfaces.PreKeyStore
	SignedPreKeyStore     = interfaces.SignedPreKeyStore
	KyberPreKeyStore      = interfaces.KyberPreKeyStore
	KeyStores             = interfaces.KeyStores
	IdentityBundleFactory = interfaces.IdentityBundleFactory
	SessionEstablisher    = interfaces.SessionEstablisher
	MessageCodec          = interfaces.MessageCodec
	InferenceClient       = interfaces.InferenceClient
)

// Re-exported constants.
const (
	DefaultDeviceID = types.DefaultDeviceID
	PartyA          = types.PartyA
	PartyB          = types.PartyB

	MinRegistrationID = types.MinRegistrationID
	MaxRegistrationID = types.MaxRegistrationID

	MessageTypeRatchet   = types.MessageTypeRatchet
	MessageTypeHandshake = types.MessageTypeHandshake

	DirectionSending   = types.DirectionSending
	DirectionReceiving = types.DirectionReceiving

	IdentityNew       = types.IdentityNew
	IdentityUnchanged = types.IdentityUnchanged
	IdentityReplaced  = types.IdentityReplaced

	SenderA = types.SenderA
	SenderB = types.SenderB

	RoleUser      = types.RoleUser
	RoleAssistant = types.RoleAssistant
)

// NewAddress returns the address of name on the default device.
func NewAddress(name string) Address { return types.NewAddress(name) }

// ParseAddress parses the String form of an Address.
func ParseAddress(s string) (Address, error) { return types.ParseAddress(s) }
