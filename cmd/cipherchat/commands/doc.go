// Package commands defines the cipherchat CLI and wires dependencies for subcommands.
//
// Commands
//
//   - new          Create a session with fresh keys
//   - send         Send a message to the assistant and print the reply
//   - history      Decrypt and print the saved conversation
//   - reset        Discard the conversation and its keys
//   - fingerprint  Print both parties' identity fingerprints
//
// # Implementation
//
// The root command resolves configuration (flags over environment over .env
// over defaults) and builds the dependency graph before any subcommand runs.
// Every command except new restores the saved session first, creating one
// if none exists.
package commands
