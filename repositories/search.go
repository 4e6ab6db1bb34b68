//go:generate go run go.uber.org/mock/mockgen -source=search.go -destination=../mocks/mock_search_repository.go -package=mocks
package repositories

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
)

type ISearchRepository interface {
	IndexMessage(message DiskMessage) error
	Search(ctx context.Context, terms, room string, limit int) ([]DiskMessage, error)
}

// SearchRepository maintains a full-text index of persisted chat messages.
// Indexing is best-effort: a failed index write degrades search results,
// never the chat path itself.
type SearchRepository struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewSearchRepository(writer *bluge.Writer, log *slog.Logger) SearchRepository {
	return SearchRepository{writer: writer, log: log}
}

// IndexMessage upserts one message document, keyed by the message UUID.
func (s SearchRepository) IndexMessage(message DiskMessage) error {
	doc := bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewTextField("content", message.Content).StoreValue()).
		AddField(bluge.NewKeywordField("room", message.Room).StoreValue()).
		AddField(bluge.NewKeywordField("author", message.Author).StoreValue()).
		AddField(bluge.NewKeywordField("kind", message.Kind).StoreValue()).
		AddField(bluge.NewDateTimeField("at", message.At).StoreValue())

	return s.writer.Update(doc.ID(), doc)
}

// Search runs a match query over message content, optionally narrowed to one
// room, and rebuilds the stored messages from the index.
func (s SearchRepository) Search(ctx context.Context, terms, room string, limit int) ([]DiskMessage, error) {
	reader, err := s.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("index reader: %w", err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			s.log.Error("Closing index reader failed", "error", err)
		}
	}()

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(terms).SetField("content"))
	if room != "" {
		query.AddMust(bluge.NewTermQuery(room).SetField("room"))
	}

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, fmt.Errorf("index search: %w", err)
	}

	var results []DiskMessage
	match, err := iterator.Next()
	for err == nil && match != nil {
		var message DiskMessage
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				if id, parseErr := uuid.Parse(string(value)); parseErr == nil {
					message.ID = id
				}
			case "content":
				message.Content = string(value)
			case "room":
				message.Room = string(value)
			case "author":
				message.Author = string(value)
			case "kind":
				message.Kind = string(value)
			case "at":
				if at, parseErr := bluge.DecodeDateTime(value); parseErr == nil {
					message.At = at.UTC()
				}
			}
			return true
		})
		if visitErr != nil {
			return nil, visitErr
		}
		results = append(results, message)
		match, err = iterator.Next()
	}
	if err != nil {
		return nil, err
	}
	return results, nil
}
