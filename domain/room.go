package domain

import (
	"strings"
	"time"
)

// RoomKind mirrors the room taxonomy of the persistence layer.
type RoomKind string

const (
	RoomPrivate RoomKind = "PRIVATE"
	RoomGroup   RoomKind = "GROUP"
)

// ParseRoomKind maps a stored kind back to the enum. Anything unrecognized
// is a private room, the kind lazy creation assigns.
func ParseRoomKind(s string) RoomKind {
	if s == string(RoomGroup) {
		return RoomGroup
	}
	return RoomPrivate
}

// ValidRoomID reports whether id can name a room. Room ids are embedded in
// composite storage keys, so the separator character is reserved: a ':'
// would let one room's key range bleed into another's.
func ValidRoomID(id string) bool {
	return id != "" && !strings.ContainsRune(id, ':')
}

// Room is a stable chat destination, created lazily on first message
// and never deleted by this system.
type Room struct {
	ID        string
	Name      string
	Kind      RoomKind
	CreatedAt time.Time
}

func NewRoom(id string) Room {
	return Room{
		ID:        id,
		Name:      id,
		Kind:      RoomPrivate,
		CreatedAt: time.Now().UTC(),
	}
}
