// Package lifecycle owns one conversation between the user (party A) and the
// assistant (party B): it creates or restores both parties' keys, runs every
// exchange through the encrypted channel and keeps the session file current.
//
// A Controller moves through Uninitialized, Loading, Ready and Error, and
// through Resetting on Reset. Messages are only ever kept on disk in
// encrypted form; the plaintext history is rebuilt on Restore.
package lifecycle
