// Package domain contains core concepts of the chat and signaling system.
// This file defines Message events and related rules.
// Messages are immutable once persisted, except for the Read flag.
package domain

import (
	"time"

	"github.com/google/uuid"

	"chat-video/errors"
)

// MessageKind distinguishes chat content from room lifecycle notifications.
type MessageKind string

const (
	KindChat  MessageKind = "CHAT"
	KindJoin  MessageKind = "JOIN"
	KindLeave MessageKind = "LEAVE"
)

// ParseMessageKind maps a wire value to a MessageKind, defaulting to CHAT.
func ParseMessageKind(s string) MessageKind {
	switch MessageKind(s) {
	case KindJoin:
		return KindJoin
	case KindLeave:
		return KindLeave
	default:
		return KindChat
	}
}

// Message represents a chat event scoped to a room.
// SenderID is always the authenticated principal, never client input.
type Message struct {
	ID        uuid.UUID
	RoomID    string
	SenderID  string
	Content   string
	Kind      MessageKind
	CreatedAt time.Time
	Read      bool
}

// NewMessage builds an unpersisted message stamped with the server clock.
func NewMessage(senderID, roomID, content string, kind MessageKind) (Message, error) {
	if content == "" {
		return Message{}, errors.ErrEmptyContent
	}
	return Message{
		ID:        uuid.New(),
		RoomID:    roomID,
		SenderID:  senderID,
		Content:   content,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}, nil
}
