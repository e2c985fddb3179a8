package interfaces

import (
	"context"

	domaintypes "cipherchat/internal/domain/types"
)

// IdentityBundleFactory creates a complete identity for one party.
type IdentityBundleFactory interface {
	Create() (domaintypes.IdentityBundle, error)
}

// SessionEstablisher runs the bidirectional handshake between two parties.
type SessionEstablisher interface {
	Establish(
		identityA, identityB domaintypes.IdentityBundle,
		storesA, storesB KeyStores,
	) error
}

// MessageCodec encrypts and decrypts messages against a party's stores.
type MessageCodec interface {
	Encrypt(
		plaintext []byte,
		peerName string,
		stores KeyStores,
	) (domaintypes.Ciphertext, error)
	Decrypt(
		ciphertext []byte,
		messageType domaintypes.MessageType,
		peerName string,
		stores KeyStores,
	) ([]byte, error)
	Reopen(
		ciphertext []byte,
		messageType domaintypes.MessageType,
		peerName string,
		stores KeyStores,
	) ([]byte, error)
}

// InferenceClient produces the assistant's reply to a conversation.
type InferenceClient interface {
	Complete(ctx context.Context, model string, history []domaintypes.ChatTurn) (string, error)
}
