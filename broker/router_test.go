package broker

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chat-video/domain"
	"chat-video/errors"
	"chat-video/observability"
)

// capturingPublisher records what the router asked to deliver.
type capturingPublisher struct {
	topics []Delivery
	users  []Delivery
}

func (p *capturingPublisher) PublishTopic(topic string, body any) {
	p.topics = append(p.topics, Delivery{Topic: topic, Frame: domain.Outbound{Destination: topic, Body: body}})
}

func (p *capturingPublisher) PublishUser(user, queue string, body any) {
	p.users = append(p.users, Delivery{User: user, Frame: domain.Outbound{Destination: queue, Body: body}})
}

// stubChatService echoes a stored-looking message without touching disk.
type stubChatService struct {
	lastSender domain.Principal
	err        error
}

func (s *stubChatService) SaveAndBroadcast(_ context.Context, sender domain.Principal, roomID, content string, kind domain.MessageKind) (domain.Message, error) {
	s.lastSender = sender
	if s.err != nil {
		return domain.Message{}, s.err
	}
	msg, _ := domain.NewMessage(sender.Name(), roomID, content, kind)
	return msg, nil
}

func (s *stubChatService) History(context.Context, string, int) ([]domain.Message, error) {
	return nil, nil
}

func (s *stubChatService) Search(context.Context, string) ([]domain.Message, error) {
	return nil, nil
}

func TestRouter_ChatSend(t *testing.T) {
	req := require.New(t)
	publisher := &capturingPublisher{}
	chat := &stubChatService{}
	router, err := NewRouter(slog.Default(), chat, publisher, observability.NewMonitor())
	req.NoError(err)

	sender := domain.Principal{UserID: "u-1", Email: "alice@example.com"}
	body, _ := json.Marshal(ChatBody{Sender: "mallory@example.com", Content: "hi", RoomID: "r1", Type: "CHAT"})

	err = router.Dispatch(context.Background(), sender, domain.Inbound{Destination: DestChatSend, Body: body})
	req.NoError(err)

	req.Len(publisher.topics, 1)
	req.Empty(publisher.users)
	req.Equal(TopicMessages, publisher.topics[0].Topic)

	out := publisher.topics[0].Frame.Body.(ChatBody)
	// The sender is always the authenticated principal, never client input.
	req.Equal("alice@example.com", out.Sender)
	req.Equal("r1", out.RoomID)
	req.Equal("CHAT", out.Type)
	req.NotEmpty(out.ID)
	req.NotNil(out.Timestamp)
	req.WithinDuration(time.Now().UTC(), *out.Timestamp, 5*time.Second)
}

func TestRouter_ChatSendValidation(t *testing.T) {
	req := require.New(t)
	publisher := &capturingPublisher{}
	router, err := NewRouter(slog.Default(), &stubChatService{}, publisher, observability.NewMonitor())
	req.NoError(err)

	sender := domain.Principal{Email: "alice@example.com"}
	body, _ := json.Marshal(ChatBody{Content: "", RoomID: "r1"})

	err = router.Dispatch(context.Background(), sender, domain.Inbound{Destination: DestChatSend, Body: body})
	req.Error(err)
	req.Empty(publisher.topics)
}

func TestRouter_ChatSendRejectsSeparatorInRoomID(t *testing.T) {
	req := require.New(t)
	publisher := &capturingPublisher{}
	chat := &stubChatService{}
	router, err := NewRouter(slog.Default(), chat, publisher, observability.NewMonitor())
	req.NoError(err)

	sender := domain.Principal{Email: "alice@example.com"}
	// A ':' in the room id would nest this room inside room "a"'s key range.
	body, _ := json.Marshal(ChatBody{Content: "hi", RoomID: "a:123", Type: "CHAT"})

	err = router.Dispatch(context.Background(), sender, domain.Inbound{Destination: DestChatSend, Body: body})
	req.Error(err)
	req.Empty(publisher.topics)
	req.Equal(domain.Principal{}, chat.lastSender)
}

func TestRouter_ChatJoinSkipsPersistence(t *testing.T) {
	req := require.New(t)
	publisher := &capturingPublisher{}
	chat := &stubChatService{err: errors.ErrUnknownSender} // would fail if touched
	router, err := NewRouter(slog.Default(), chat, publisher, observability.NewMonitor())
	req.NoError(err)

	sender := domain.Principal{Email: "alice@example.com"}
	body, _ := json.Marshal(ChatBody{RoomID: "r1"})

	err = router.Dispatch(context.Background(), sender, domain.Inbound{Destination: DestChatJoin, Body: body})
	req.NoError(err)

	req.Len(publisher.topics, 1)
	req.Equal(TopicNotifications, publisher.topics[0].Topic)

	out := publisher.topics[0].Frame.Body.(ChatBody)
	req.Equal("alice@example.com", out.Sender)
	req.Equal("JOIN", out.Type)
}

func TestRouter_SignalRelay(t *testing.T) {
	req := require.New(t)
	publisher := &capturingPublisher{}
	router, err := NewRouter(slog.Default(), &stubChatService{}, publisher, observability.NewMonitor())
	req.NoError(err)

	sender := domain.Principal{Email: "alice@example.com"}
	payload := json.RawMessage(`{"sdp":"v=0..."}`)
	body, _ := json.Marshal(SignalBody{Type: "OFFER", From: "mallory@example.com", To: "bob@example.com", RoomID: "r1", Payload: payload})

	err = router.Dispatch(context.Background(), sender, domain.Inbound{Destination: DestVideoOffer, Body: body})
	req.NoError(err)

	req.Empty(publisher.topics)
	req.Len(publisher.users, 1)
	req.Equal("bob@example.com", publisher.users[0].User)
	req.Equal(QueueVideoOffer, publisher.users[0].Frame.Destination)

	out := publisher.users[0].Frame.Body.(SignalBody)
	req.Equal(string(domain.SignalOffer), out.Type)
	req.Equal("alice@example.com", out.From)
	req.Equal("bob@example.com", out.To)
	req.JSONEq(string(payload), string(out.Payload))
}

func TestRouter_SignalRequiresTarget(t *testing.T) {
	req := require.New(t)
	publisher := &capturingPublisher{}
	router, err := NewRouter(slog.Default(), &stubChatService{}, publisher, observability.NewMonitor())
	req.NoError(err)

	body, _ := json.Marshal(SignalBody{Type: "ANSWER"})
	err = router.Dispatch(context.Background(), domain.Principal{Email: "a@b.c"}, domain.Inbound{Destination: DestVideoAnswer, Body: body})
	req.Error(err)
	req.Empty(publisher.users)
}

func TestRouter_UnknownDestination(t *testing.T) {
	req := require.New(t)
	publisher := &capturingPublisher{}
	router, err := NewRouter(slog.Default(), &stubChatService{}, publisher, observability.NewMonitor())
	req.NoError(err)

	err = router.Dispatch(context.Background(), domain.Principal{Email: "a@b.c"},
		domain.Inbound{Destination: "/app/unknown", Body: json.RawMessage(`{}`)})
	req.ErrorIs(err, errors.ErrUnknownDestination)
	req.Empty(publisher.topics)
	req.Empty(publisher.users)
}
