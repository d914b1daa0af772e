// Package cli provides the interactive SpeakFluent command-line client.
//
// It wires configuration, the local cache, the remote backend client, and an
// interactive REPL that supports online/offline operation. Typical flow:
// prompt for credentials, open a conversation, and record spoken turns.
//
// Key commands:
//   - register / login / logout (online with offline fallback)
//   - list / new <scenario> / open <n> / delete <n>
//   - say — record one spoken turn and hear the tutor's reply
//   - scenarios — show the practice catalog
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
