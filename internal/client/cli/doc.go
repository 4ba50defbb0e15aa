// Package cli provides the interactive cropdoc command-line client.
//
// It wires configuration, the platform adapter, the session manager, the
// translation resolver and the application services, then runs a REPL in
// place of the mobile app's screens. Typical flow: sign in or continue as
// guest, diagnose a leaf photo, browse history, ask the chatbot.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
