// Seeds a Badger database with demo rooms and messages so the server, the
// inspector and the terminal client have something to show without typing a
// conversation by hand.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"

	"chat-video/domain"
	"chat-video/repositories"
)

var conversations = map[string][]struct {
	author  string
	content string
}{
	"general": {
		{"alice@demo.io", "Morning everyone"},
		{"bob@demo.io", "Morning! Standup in five"},
		{"carol@demo.io", "Joining late, coffee machine fight"},
		{"alice@demo.io", "Classic"},
	},
	"support": {
		{"bob@demo.io", "Customer reports the call button does nothing on Firefox"},
		{"carol@demo.io", "Repro'd, opening a ticket"},
	},
	"random": {
		{"carol@demo.io", "Lunch at the usual place?"},
		{"alice@demo.io", "In"},
		{"bob@demo.io", "In"},
	},
}

func main() {
	dbPath := flag.String("db", "/tmp/badger", "Path to badger DB")
	flag.Parse()

	log := logs.GetLoggerFromLevel(slog.LevelInfo)

	db, err := badger.Open(badger.DefaultOptions(*dbPath).WithLoggingLevel(badger.ERROR))
	if err != nil {
		panic(fmt.Sprintf("Opening badger at %s: %v", *dbPath, err))
	}
	defer db.Close()

	messages := repositories.NewMessageRepository(db, log)
	rooms := repositories.NewRoomRepository(db)

	total := 0
	for roomID, lines := range conversations {
		if _, err := rooms.FindOrCreateRoom(roomID); err != nil {
			panic(fmt.Sprintf("Creating room %s: %v", roomID, err))
		}

		for i, line := range lines {
			msg, err := domain.NewMessage(line.author, roomID, line.content, domain.KindChat)
			if err != nil {
				panic(err)
			}
			// Spread timestamps so history ordering is visible.
			msg.CreatedAt = time.Now().UTC().Add(time.Duration(i-len(lines)) * time.Minute)

			if err := messages.StoreMessage(repositories.DiskMessage{
				ID:      msg.ID,
				Room:    msg.RoomID,
				Author:  msg.SenderID,
				Content: msg.Content,
				Kind:    string(msg.Kind),
				At:      msg.CreatedAt,
			}); err != nil {
				panic(fmt.Sprintf("Storing message in %s: %v", roomID, err))
			}
			total++
		}
		log.Info("Seeded room", "room", roomID, "messages", len(lines))
	}

	log.Info("Done", "rooms", len(conversations), "messages", total)
}
