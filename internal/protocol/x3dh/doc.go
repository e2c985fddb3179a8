// Package x3dh implements the key agreement used to bootstrap a Double
// Ratchet session between two parties: X3DH with a Kyber1024 encapsulation
// mixed into the root key.
//
// # Overview
//
// The initiator derives a shared 32-byte root key with a responder who has
// published a pre-key bundle. The bundle contains:
//   - Identity key (X25519 for agreement, Ed25519 for signatures)
//   - Signed pre-key (X25519) and its Ed25519 signature
//   - Kyber1024 pre-key and its Ed25519 signature
//   - Optional one-time pre-key (X25519)
//
// # Flows
//
// Initiator:
//  1. Verify the signed pre-key and Kyber pre-key signatures.
//  2. Generate an ephemeral (base) X25519 key pair.
//  3. Compute DH values (IKa·SPKb, EKa·IKb, EKa·SPKb[, EKa·OPKb]).
//  4. Encapsulate to the Kyber pre-key.
//  5. HKDF over the DH transcript and KEM secret to produce the root key.
//  6. Return the root key, the pre-key identifiers used, the base public key
//     and the KEM ciphertext.
//
// Responder:
//  1. Receive the PreKeyMessage (initiator IK, base key, ids, KEM ciphertext).
//  2. Compute the symmetric DH set (SPKb·IKa, IKb·EKa, SPKb·EKa[, OPKb·EKa]).
//  3. Decapsulate the KEM ciphertext.
//  4. HKDF the same transcript to the identical root key.
//
// Looking up and consuming pre-keys is the caller's job.
//
// # Errors
//
// ErrBadSPK and ErrBadKyberPreKey are returned when a bundle signature fails
// verification. Other errors wrap lower-level crypto failures.
package x3dh
