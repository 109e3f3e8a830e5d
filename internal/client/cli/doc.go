// Package cli provides the interactive admin console.
//
// It wires configuration, the local session database, the remote store and
// the player services behind a REPL. On start the console shows a loading
// state while it restores a previously saved session; it then offers
// either the login prompt or the dashboard commands.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See NewApp and runREPL for details.
package cli
