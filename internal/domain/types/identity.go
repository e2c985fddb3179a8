package types

import "bytes"

// Identity holds a party's long-term X25519 and Ed25519 keys.
type Identity struct {
	XPub   X25519Public   `json:"xpub"`
	XPriv  X25519Private  `json:"xpriv"`
	EdPub  Ed25519Public  `json:"edpub"`
	EdPriv Ed25519Private `json:"edpriv"`
}

// Public returns the shareable half of the identity.
func (id Identity) Public() IdentityPublic {
	return IdentityPublic{X: id.XPub, Ed: id.EdPub}
}

// IdentityPublic is the public projection of an Identity, the value peers
// record and compare.
type IdentityPublic struct {
	X  X25519Public  `json:"x"`
	Ed Ed25519Public `json:"ed"`
}

// Bytes returns X || Ed.
func (p IdentityPublic) Bytes() []byte {
	out := make([]byte, 0, len(p.X)+len(p.Ed))
	out = append(out, p.X[:]...)
	return append(out, p.Ed[:]...)
}

// Equal byte-compares two public identities.
func (p IdentityPublic) Equal(o IdentityPublic) bool {
	return bytes.Equal(p.Bytes(), o.Bytes())
}

// IdentityBundle is everything one party owns: its long-term identity,
// registration id and the full pre-key material.
type IdentityBundle struct {
	RegistrationID  RegistrationID     `json:"registrationId"`
	IdentityKeyPair Identity           `json:"identityKeyPair"`
	SignedPreKey    SignedPreKeyRecord `json:"signedPreKey"`
	PreKeys         []PreKeyRecord     `json:"preKeys"`
	KyberPreKey     KyberPreKeyRecord  `json:"kyberPreKey"`
}
