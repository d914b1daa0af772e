// Package models defines server-side data models.
package models

import "time"

// User is an account record.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Conversation groups a user's practice dialogue.
type Conversation struct {
	ID        string
	Title     string
	Scenario  string
	Level     string
	OwnerID   string
	CreatedAt time.Time
}

// MessageKind distinguishes user turns from tutor turns.
type MessageKind string

const (
	MessageUser      MessageKind = "user"
	MessageAssistant MessageKind = "assistant"
)

// Message is one stored turn.
type Message struct {
	ID             string
	ConversationID string
	Kind           MessageKind
	Text           string
	Pronunciation  string
	Feedback       string
	CreatedAt      time.Time
}

// ChatResult is the tutor's answer to one received audio clip.
type ChatResult struct {
	Reply         string
	Pronunciation string
	Feedback      string
}
