package repositories

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/database"
	"github.com/stretchr/testify/require"
)

func Test_Index_And_Search_Messages(t *testing.T) {
	req := require.New(t)
	_, _, badgerDB, blugeWriter, err := database.SetupBenchmark(t.TempDir())
	req.NoError(err)
	defer database.CleanupDB(badgerDB, blugeWriter)

	repo := NewSearchRepository(blugeWriter, slog.Default())
	at := time.Now().UTC()

	messages := []DiskMessage{
		{uuid.New(), "r1", "Alice", "the invoice for the rental car", "CHAT", at, false},
		{uuid.New(), "r1", "Bob", "see you at the airport", "CHAT", at.Add(time.Minute), false},
		{uuid.New(), "r2", "Clara", "another invoice question", "CHAT", at.Add(2 * time.Minute), false},
	}
	for _, message := range messages {
		req.NoError(repo.IndexMessage(message))
	}

	t.Run("should match terms across rooms", func(t *testing.T) {
		req := require.New(t)
		results, err := repo.Search(context.Background(), "invoice", "", 10)
		req.NoError(err)
		req.Len(results, 2)
	})

	t.Run("should narrow matches to one room", func(t *testing.T) {
		req := require.New(t)
		results, err := repo.Search(context.Background(), "invoice", "r2", 10)
		req.NoError(err)
		req.Len(results, 1)
		req.Equal("Clara", results[0].Author)
		req.Equal("another invoice question", results[0].Content)
	})

	t.Run("should honor the limit", func(t *testing.T) {
		req := require.New(t)
		results, err := repo.Search(context.Background(), "invoice", "", 1)
		req.NoError(err)
		req.Len(results, 1)
	})

	t.Run("should return nothing for unmatched terms", func(t *testing.T) {
		req := require.New(t)
		results, err := repo.Search(context.Background(), "submarine", "", 10)
		req.NoError(err)
		req.Empty(results)
	})
}
