// Package store provides the in-memory key stores a party needs to run
// sessions.
//
// A KeyStoreCollection owns five stores:
//   - Sessions (SessionStore): one opaque session record per peer address
//   - Identity (IdentityStore): our identity key pair and registration id,
//     plus the identity keys seen for each peer (trust on first use)
//   - One-time pre-keys (PreKeyStore): removed when consumed
//   - Signed pre-keys (SignedPreKeyStore): kept after use
//   - Kyber pre-keys (KyberPreKeyStore): kept after use; marking is advisory
//
// Every store serialises to a plain struct (its durable form) and is rebuilt
// from one with a Reconstruct function or Load. Load validates the whole
// durable form first and then replaces the store's contents; it never merges
// and never leaves a store half loaded.
//
// All methods are concurrency-safe via internal locking. The collection also
// embeds a mutex that callers hold across a full encrypt or decrypt, since
// those touch several stores at once.
package store
