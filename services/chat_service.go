package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/abadojack/whatlanggo"
	"github.com/samber/lo"

	"chat-video/domain"
	"chat-video/domain/search"
	"chat-video/errors"
	"chat-video/moderation"
	"chat-video/observability"
	"chat-video/repositories"
)

// ChatService handles the persistence side of the chat path: room creation,
// message storage, moderation and history reads. Delivery to live
// connections is the router's business, not ours.
type ChatService struct {
	messages  repositories.IMessageRepository
	rooms     repositories.IRoomRepository
	search    repositories.ISearchRepository
	moderator *moderation.Moderator
	monitor   *observability.Monitor
	log       *slog.Logger
}

func NewChatService(
	messages repositories.IMessageRepository,
	rooms repositories.IRoomRepository,
	searchRepo repositories.ISearchRepository,
	moderator *moderation.Moderator,
	monitor *observability.Monitor,
	log *slog.Logger,
) *ChatService {
	return &ChatService{
		messages:  messages,
		rooms:     rooms,
		search:    searchRepo,
		moderator: moderator,
		monitor:   monitor,
		log:       log,
	}
}

// SaveAndBroadcast stamps, moderates and persists a chat message on behalf of
// the authenticated sender. Persistence failure is logged and absorbed: the
// returned message is still delivered to live subscribers, only durability is
// lost. Rooms are created lazily on first message.
func (s *ChatService) SaveAndBroadcast(ctx context.Context, sender domain.Principal, roomID, content string, kind domain.MessageKind) (domain.Message, error) {
	if sender.Zero() {
		return domain.Message{}, errors.ErrUnknownSender
	}
	if !domain.ValidRoomID(roomID) {
		return domain.Message{}, fmt.Errorf("%w: %q", errors.ErrInvalidRoomID, roomID)
	}

	censored := content
	if s.moderator != nil {
		var flagged []string
		censored, flagged = s.moderator.Censor(content)
		if len(flagged) > 0 {
			info := whatlanggo.Detect(content)
			s.log.Warn("Censored message content",
				"sender", sender.Name(),
				"room", roomID,
				"words", strings.Join(flagged, ","),
				"lang", info.Lang.String())
		}
	}

	msg, err := domain.NewMessage(sender.Name(), roomID, censored, kind)
	if err != nil {
		return domain.Message{}, err
	}

	if err := s.persist(msg); err != nil {
		// A storage hiccup must not silence the room. Subscribers still get
		// the message, it just never reaches disk.
		s.monitor.IncrPersistFallback()
		s.log.Error("Message not persisted, broadcasting anyway",
			"room", roomID, "message_id", msg.ID, "error", err)
		return msg, nil
	}

	s.monitor.IncrMessagesSaved()
	return msg, nil
}

func (s *ChatService) persist(msg domain.Message) error {
	if _, err := s.rooms.FindOrCreateRoom(msg.RoomID); err != nil {
		return fmt.Errorf("upserting room %s: %w", msg.RoomID, err)
	}

	disk := toDiskMessage(msg)
	if err := s.messages.StoreMessage(disk); err != nil {
		return fmt.Errorf("storing message: %w", err)
	}

	// Indexing is best-effort: a stale index degrades search, not chat.
	if err := s.search.IndexMessage(disk); err != nil {
		s.log.Warn("Message stored but not indexed", "message_id", msg.ID, "error", err)
	}
	return nil
}

// History returns the most recent messages of a room, newest first.
// The room must exist: history of a never-used room is ErrRoomNotFound,
// not an empty page.
func (s *ChatService) History(ctx context.Context, roomID string, limit int) ([]domain.Message, error) {
	if !domain.ValidRoomID(roomID) {
		return nil, fmt.Errorf("%w: %q", errors.ErrInvalidRoomID, roomID)
	}
	if _, err := s.rooms.GetRoom(roomID); err != nil {
		return nil, err
	}

	disk, _, err := s.messages.GetMessages(roomID, limit, nil)
	if err != nil {
		return nil, fmt.Errorf("reading history of %s: %w", roomID, err)
	}

	return lo.Map(disk, func(m repositories.DiskMessage, _ int) domain.Message {
		return fromDiskMessage(m)
	}), nil
}

// Search runs a full-text query over persisted messages.
// The raw input supports --room and --limit flags.
func (s *ChatService) Search(ctx context.Context, rawQuery string) ([]domain.Message, error) {
	query := search.NewSearchQuery(rawQuery)
	if query.Terms == "" {
		return nil, nil
	}

	disk, err := s.search.Search(ctx, query.Terms, query.RoomID, query.Limit)
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", query.Terms, err)
	}

	return lo.Map(disk, func(m repositories.DiskMessage, _ int) domain.Message {
		return fromDiskMessage(m)
	}), nil
}

func toDiskMessage(msg domain.Message) repositories.DiskMessage {
	return repositories.DiskMessage{
		ID:      msg.ID,
		Room:    msg.RoomID,
		Author:  msg.SenderID,
		Content: msg.Content,
		Kind:    string(msg.Kind),
		At:      msg.CreatedAt,
		Read:    msg.Read,
	}
}

func fromDiskMessage(m repositories.DiskMessage) domain.Message {
	return domain.Message{
		ID:        m.ID,
		RoomID:    m.Room,
		SenderID:  m.Author,
		Content:   m.Content,
		Kind:      domain.ParseMessageKind(m.Kind),
		CreatedAt: m.At,
		Read:      m.Read,
	}
}
