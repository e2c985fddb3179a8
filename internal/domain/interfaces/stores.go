package interfaces

import (
	"sync"

	domaintypes "cipherchat/internal/domain/types"
)

// SessionStore maps a peer address to its opaque session record.
type SessionStore interface {
	SaveSession(address domaintypes.Address, record []byte)
	// LoadSession reports found == false before first contact; that is a
	// result, not an error.
	LoadSession(address domaintypes.Address) (record []byte, found bool)
}

// IdentityKeyStore holds our own identity and the identities of peers.
type IdentityKeyStore interface {
	OwnIdentityKey() domaintypes.Identity
	OwnRegistrationID() domaintypes.RegistrationID
	IsTrusted(
		address domaintypes.Address,
		key domaintypes.IdentityPublic,
		direction domaintypes.Direction,
	) bool
	SaveRemoteIdentity(
		address domaintypes.Address,
		key domaintypes.IdentityPublic,
	) domaintypes.IdentityChange
	RemoteIdentity(address domaintypes.Address) (domaintypes.IdentityPublic, bool)
}

// PreKeyStore holds one-time pre-keys. Entries are removed on consumption.
type PreKeyStore interface {
	SavePreKey(id domaintypes.PreKeyID, record domaintypes.PreKeyRecord)
	LoadPreKey(id domaintypes.PreKeyID) (domaintypes.PreKeyRecord, error)
	RemovePreKey(id domaintypes.PreKeyID)
}

// SignedPreKeyStore holds signed pre-keys. Entries are kept after use.
type SignedPreKeyStore interface {
	SaveSignedPreKey(id domaintypes.SignedPreKeyID, record domaintypes.SignedPreKeyRecord)
	LoadSignedPreKey(id domaintypes.SignedPreKeyID) (domaintypes.SignedPreKeyRecord, error)
}

// KyberPreKeyStore holds Kyber pre-keys. MarkKyberPreKeyUsed is advisory;
// entries are kept.
type KyberPreKeyStore interface {
	SaveKyberPreKey(id domaintypes.KyberPreKeyID, record domaintypes.KyberPreKeyRecord)
	LoadKyberPreKey(id domaintypes.KyberPreKeyID) (domaintypes.KyberPreKeyRecord, error)
	MarkKyberPreKeyUsed(id domaintypes.KyberPreKeyID) error
}

// KeyStores is one party's full set of stores. Callers hold the lock for
// the whole of an encrypt or decrypt.
type KeyStores interface {
	sync.Locker
	Sessions() SessionStore
	Identity() IdentityKeyStore
	PreKeys() PreKeyStore
	SignedPreKeys() SignedPreKeyStore
	KyberPreKeys() KyberPreKeyStore
}
