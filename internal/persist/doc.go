// Package persist stores a whole session, both parties' identities and key
// stores plus the encrypted message log, as one versioned JSON file.
//
// Binary material is base64 inside the JSON. Decoding builds fresh values;
// callers reconstruct their stores from them rather than merging.
package persist
