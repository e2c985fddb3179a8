package types

// PreKeyRecord is a one-time pre-key pair stored locally.
type PreKeyRecord struct {
	ID      PreKeyID      `json:"id"`
	Public  X25519Public  `json:"public"`
	Private X25519Private `json:"private"`
}

// SignedPreKeyRecord is a signed pre-key pair. Signature is the identity's
// Ed25519 signature over Public.
type SignedPreKeyRecord struct {
	ID        SignedPreKeyID `json:"id"`
	CreatedAt int64          `json:"createdAt"`
	Public    X25519Public   `json:"public"`
	Private   X25519Private  `json:"private"`
	Signature []byte         `json:"signature"`
}

// KyberPreKeyRecord is a Kyber1024 pre-key pair. Signature is the identity's
// Ed25519 signature over Public.
type KyberPreKeyRecord struct {
	ID        KyberPreKeyID `json:"id"`
	CreatedAt int64         `json:"createdAt"`
	Public    []byte        `json:"public"`
	Private   []byte        `json:"private"`
	Signature []byte        `json:"signature"`
}

// OneTimePreKeyPublic is only the public half of a one-time pre-key.
type OneTimePreKeyPublic struct {
	ID     PreKeyID     `json:"id"`
	Public X25519Public `json:"public"`
}

// PreKeyBundle is the public projection of an IdentityBundle that a peer
// processes to start a session.
type PreKeyBundle struct {
	RegistrationID        RegistrationID       `json:"registrationId"`
	DeviceID              uint32               `json:"deviceId"`
	PreKey                *OneTimePreKeyPublic `json:"preKey,omitempty"`
	SignedPreKeyID        SignedPreKeyID       `json:"signedPreKeyId"`
	SignedPreKey          X25519Public         `json:"signedPreKey"`
	SignedPreKeySignature []byte               `json:"signedPreKeySignature"`
	IdentityKey           IdentityPublic       `json:"identityKey"`
	KyberPreKeyID         KyberPreKeyID        `json:"kyberPreKeyId"`
	KyberPreKey           []byte               `json:"kyberPreKey"`
	KyberPreKeySignature  []byte               `json:"kyberPreKeySignature"`
}

// PreKeyMessage carries the key agreement parameters alongside a ratchet
// message. It is the wire form of a handshake message.
type PreKeyMessage struct {
	RegistrationID  RegistrationID `json:"registrationId"`
	PreKeyID        *PreKeyID      `json:"preKeyId,omitempty"`
	SignedPreKeyID  SignedPreKeyID `json:"signedPreKeyId"`
	KyberPreKeyID   KyberPreKeyID  `json:"kyberPreKeyId"`
	KyberCiphertext []byte         `json:"kyberCiphertext"`
	BaseKey         X25519Public   `json:"baseKey"`
	IdentityKey     IdentityPublic `json:"identityKey"`
	Message         RatchetMessage `json:"message"`
}
