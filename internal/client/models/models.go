// Package models defines client-side data models used by the SpeakFluent CLI.
package models

import "time"

// Mode says which backend is authoritative for the active session.
// It is fixed for the lifetime of a Session.
type Mode string

const (
	ModeOnline  Mode = "online"
	ModeOffline Mode = "offline"
)

// User is an account record in the local credential store.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Session is the single active authenticated identity of the running client.
type Session struct {
	Username string
	Mode     Mode
	Token    string
}

// Online reports whether the remote backend is authoritative.
func (s Session) Online() bool { return s.Mode == ModeOnline }

// MessageKind distinguishes user turns from assistant turns.
type MessageKind string

const (
	MessageUser      MessageKind = "user"
	MessageAssistant MessageKind = "assistant"
)

// Message is one turn in a conversation. Messages are append-only and keep
// insertion order; they are never reordered or deduplicated.
type Message struct {
	ID            string
	Kind          MessageKind
	Text          string
	Pronunciation string
	Feedback      string
	Timestamp     time.Time
}

// Conversation groups an ordered message sequence under one owner.
// IDs are opaque unique strings; their format differs between remote-issued
// and locally-generated conversations and must not be interpreted.
type Conversation struct {
	ID        string
	Title     string
	Scenario  string
	Level     string
	Owner     string
	CreatedAt time.Time
	Messages  []Message
}

// ChatReply is the assistant's answer to one spoken turn.
type ChatReply struct {
	Reply         string
	Pronunciation string
	Feedback      string
}
