// Package crypto exposes the primitives used by cipherchat.
//
// Contents
//
//   - X25519 key generation, clamping and Diffie–Hellman (GenerateX25519,
//     X25519PublicFromPrivate, DH)
//   - Ed25519 key generation, signing and verification (GenerateEd25519,
//     SignEd25519, VerifyEd25519) and long-term identities (GenerateIdentity)
//   - Kyber1024 key encapsulation (GenerateKyber, KyberEncapsulate,
//     KyberDecapsulate)
//   - Registration id selection (RandomRegistrationID)
//   - Short public-key fingerprints for display/logging (Fingerprint)
//
// # Notes
//
// All randomness comes from crypto/rand. X25519 and Ed25519 keys use the
// fixed-size array types defined in internal/domain; Kyber keys are kept in
// their binary encoding since the scheme owns their layout.
package crypto
