package repositories

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"chat-video/domain"
	"chat-video/errors"
)

func Test_FindOrCreateRoom_Creates_Then_Finds(t *testing.T) {
	req := require.New(t)
	repo := NewRoomRepository(openTestDB(t))

	created, err := repo.FindOrCreateRoom("r1")
	req.NoError(err)
	req.Equal("r1", created.ID)
	req.Equal(domain.RoomPrivate, created.Kind)
	req.False(created.CreatedAt.IsZero())

	found, err := repo.FindOrCreateRoom("r1")
	req.NoError(err)
	req.Equal(created.CreatedAt, found.CreatedAt)
}

func Test_GetRoom_Unknown(t *testing.T) {
	req := require.New(t)
	repo := NewRoomRepository(openTestDB(t))

	_, err := repo.GetRoom("nope")
	req.ErrorIs(err, errors.ErrRoomNotFound)
}

func Test_DiskRoom_Kind_RoundTrip(t *testing.T) {
	req := require.New(t)

	group := toDiskRoom(domain.Room{ID: "team", Name: "team", Kind: domain.RoomGroup})
	req.Equal(domain.RoomGroup, group.toDomain().Kind)

	// Records with an unknown kind degrade to private.
	req.Equal(domain.RoomPrivate, DiskRoom{ID: "old", Kind: "CHANNEL"}.toDomain().Kind)
}

func Test_Concurrent_FirstMessages_Create_One_Room(t *testing.T) {
	req := require.New(t)
	repo := NewRoomRepository(openTestDB(t))

	const writers = 16
	rooms := make([]domain.Room, writers)
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func(n int) {
			defer wg.Done()
			room, err := repo.FindOrCreateRoom("contested")
			require.NoError(t, err)
			rooms[n] = room
		}(i)
	}
	wg.Wait()

	// Every caller observed the same single record.
	for _, room := range rooms {
		req.Equal(rooms[0].CreatedAt, room.CreatedAt)
	}
}
