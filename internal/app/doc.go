// Package app wires application dependencies for the CLI.
//
// Config is assembled from defaults, optional .env files, CIPHERCHAT_*
// environment variables and finally command-line flags. NewWire turns it into
// a logger, the session file repository, the inference client and the
// lifecycle controller, exposed via the Wire struct for commands to use.
package app
