//go:generate go run go.uber.org/mock/mockgen -source=room.go -destination=../mocks/mock_room_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"chat-video/domain"
	appErrors "chat-video/errors"
)

type IRoomRepository interface {
	FindOrCreateRoom(roomID string) (domain.Room, error)
	GetRoom(roomID string) (domain.Room, error)
}

type RoomRepository struct {
	db *badger.DB
}

func NewRoomRepository(db *badger.DB) RoomRepository {
	return RoomRepository{db: db}
}

// DiskRoom is the stored representation of a chat room. Rooms are created
// lazily on first message and never deleted here; retention is external.
type DiskRoom struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

func toDiskRoom(room domain.Room) DiskRoom {
	return DiskRoom{
		ID:        room.ID,
		Name:      room.Name,
		Kind:      string(room.Kind),
		CreatedAt: room.CreatedAt,
	}
}

func (d DiskRoom) toDomain() domain.Room {
	return domain.Room{
		ID:        d.ID,
		Name:      d.Name,
		Kind:      domain.ParseRoomKind(d.Kind),
		CreatedAt: d.CreatedAt,
	}
}

func roomKey(roomID string) []byte {
	return []byte("room:" + roomID)
}

// FindOrCreateRoom returns the room, inserting it first if absent. The
// get-or-set runs inside one transaction and retries on write conflict, so
// two concurrent first-messages into the same room yield exactly one record.
func (r RoomRepository) FindOrCreateRoom(roomID string) (domain.Room, error) {
	for {
		room, err := r.findOrCreateOnce(roomID)
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		return room, err
	}
}

func (r RoomRepository) findOrCreateOnce(roomID string) (domain.Room, error) {
	var disk DiskRoom
	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(roomKey(roomID))
		switch {
		case err == nil:
			return item.Value(func(value []byte) error {
				return json.Unmarshal(value, &disk)
			})
		case errors.Is(err, badger.ErrKeyNotFound):
			disk = toDiskRoom(domain.NewRoom(roomID))
			bytes, err := json.Marshal(disk)
			if err != nil {
				return err
			}
			return txn.Set(roomKey(roomID), bytes)
		default:
			return err
		}
	})
	if err != nil {
		return domain.Room{}, fmt.Errorf("room upsert failed: %w", err)
	}
	return disk.toDomain(), nil
}

// GetRoom fetches a room without creating it.
func (r RoomRepository) GetRoom(roomID string) (domain.Room, error) {
	var disk DiskRoom
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(roomKey(roomID))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &disk)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Room{}, appErrors.ErrRoomNotFound
	}
	if err != nil {
		return domain.Room{}, err
	}
	return disk.toDomain(), nil
}
