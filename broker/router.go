package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"chat-video/contract"
	"chat-video/domain"
	"chat-video/errors"
	"chat-video/observability"
)

// Publisher is the delivery half of the broker, implemented by Fanout.
type Publisher interface {
	PublishTopic(topic string, body any)
	PublishUser(user, queue string, body any)
}

// ChatBody is the chat frame wire shape. Client-supplied id, sender and
// timestamp are ignored on the write path and always server-assigned.
type ChatBody struct {
	ID        string     `json:"id,omitempty"`
	Sender    string     `json:"sender,omitempty"`
	Content   string     `json:"content" validate:"required,max=2000"`
	RoomID    string     `json:"roomId" validate:"required,excludesall=0x3A"`
	Type      string     `json:"type" validate:"omitempty,oneof=CHAT JOIN LEAVE"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Read      bool       `json:"isRead"`
}

// SignalBody is the signaling frame wire shape. From is ignored and
// overwritten with the authenticated principal.
type SignalBody struct {
	Type    string          `json:"type" validate:"required,oneof=OFFER ANSWER ICE_CANDIDATE CALL_REQUEST"`
	From    string          `json:"from,omitempty"`
	To      string          `json:"to" validate:"required"`
	RoomID  string          `json:"roomId,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type RouteKind string

const (
	RouteBroadcast    RouteKind = "broadcast"
	RouteUserDirected RouteKind = "user-directed"
)

// Route is one entry of the dispatch table. The handler is a pure
// transformation from (principal, body) to an outbound body, plus a target
// user for user-directed routes.
type Route struct {
	Kind  RouteKind
	Topic string // broadcast routes
	Queue string // user-directed routes

	handle func(ctx context.Context, sender domain.Principal, body json.RawMessage) (target string, out any, err error)
}

// Router maps inbound destinations to handlers. The table is explicit and
// checked once at startup; nothing is discovered at dispatch time.
type Router struct {
	log       *slog.Logger
	chat      contract.IChatService
	publisher Publisher
	monitor   *observability.Monitor
	validate  *validator.Validate
	routes    map[string]Route
}

func NewRouter(log *slog.Logger, chat contract.IChatService,
	publisher Publisher, monitor *observability.Monitor) (*Router, error) {
	r := &Router{
		log:       log,
		chat:      chat,
		publisher: publisher,
		monitor:   monitor,
		validate:  validator.New(),
		routes:    make(map[string]Route),
	}

	r.routes[DestChatSend] = Route{Kind: RouteBroadcast, Topic: TopicMessages, handle: r.handleChatSend}
	r.routes[DestChatJoin] = Route{Kind: RouteBroadcast, Topic: TopicNotifications, handle: r.handleChatJoin}
	r.routes[DestVideoOffer] = r.signalRoute(QueueVideoOffer)
	r.routes[DestVideoAnswer] = r.signalRoute(QueueVideoAnswer)
	r.routes[DestVideoICE] = r.signalRoute(QueueVideoICE)
	r.routes[DestVideoCall] = r.signalRoute(QueueVideoCall)

	if err := r.check(); err != nil {
		return nil, err
	}
	return r, nil
}

// check validates the table shape once, at startup.
func (r *Router) check() error {
	for dest, route := range r.routes {
		if route.handle == nil {
			return fmt.Errorf("route %s has no handler", dest)
		}
		switch route.Kind {
		case RouteBroadcast:
			if route.Topic == "" || route.Queue != "" {
				return fmt.Errorf("broadcast route %s must target exactly one topic", dest)
			}
		case RouteUserDirected:
			if route.Queue == "" || route.Topic != "" {
				return fmt.Errorf("user-directed route %s must target exactly one queue", dest)
			}
		default:
			return fmt.Errorf("route %s has unknown kind %q", dest, route.Kind)
		}
	}
	return nil
}

// Dispatch routes one inbound frame on behalf of an authenticated principal.
// The principal always comes from the registry binding, never from the frame.
// An unknown destination drops the frame without touching the connection.
func (r *Router) Dispatch(ctx context.Context, sender domain.Principal, frame domain.Inbound) error {
	route, ok := r.routes[frame.Destination]
	if !ok {
		r.monitor.IncrUnknownDestination()
		return fmt.Errorf("%w: %s", errors.ErrUnknownDestination, frame.Destination)
	}

	target, out, err := route.handle(ctx, sender, frame.Body)
	if err != nil {
		return fmt.Errorf("handling %s: %w", frame.Destination, err)
	}

	switch route.Kind {
	case RouteBroadcast:
		r.publisher.PublishTopic(route.Topic, out)
	case RouteUserDirected:
		r.publisher.PublishUser(target, route.Queue, out)
	}
	return nil
}

// Destinations lists the configured application destinations, for startup logs.
func (r *Router) Destinations() []string {
	var dests []string
	for dest := range r.routes {
		dests = append(dests, dest)
	}
	return dests
}

// handleChatSend persists the message, then broadcasts the stored record.
// The returned body is whatever the persistence service handed back, so the
// availability fallback (unstored message) broadcasts the same way.
func (r *Router) handleChatSend(ctx context.Context, sender domain.Principal, body json.RawMessage) (string, any, error) {
	var b ChatBody
	if err := json.Unmarshal(body, &b); err != nil {
		return "", nil, fmt.Errorf("chat frame: %w", err)
	}
	if err := r.validate.Struct(b); err != nil {
		return "", nil, fmt.Errorf("chat frame: %w", err)
	}

	msg, err := r.chat.SaveAndBroadcast(ctx, sender, b.RoomID, b.Content, domain.ParseMessageKind(b.Type))
	if err != nil {
		return "", nil, err
	}
	return "", toChatBody(msg), nil
}

// handleChatJoin stamps the sender and fans out a JOIN notification.
// Join frames are never persisted.
func (r *Router) handleChatJoin(_ context.Context, sender domain.Principal, body json.RawMessage) (string, any, error) {
	var b ChatBody
	if err := json.Unmarshal(body, &b); err != nil {
		return "", nil, fmt.Errorf("join frame: %w", err)
	}
	if err := r.validate.StructPartial(b, "RoomID"); err != nil {
		return "", nil, fmt.Errorf("join frame: %w", err)
	}

	now := time.Now().UTC()
	out := ChatBody{
		Sender:    sender.Name(),
		Content:   b.Content,
		RoomID:    b.RoomID,
		Type:      string(domain.KindJoin),
		Timestamp: &now,
	}
	return "", out, nil
}

// signalRoute builds the relay handler shared by every signaling queue:
// overwrite the sender, deliver to the addressee, persist nothing.
func (r *Router) signalRoute(queue string) Route {
	return Route{
		Kind:  RouteUserDirected,
		Queue: queue,
		handle: func(_ context.Context, sender domain.Principal, body json.RawMessage) (string, any, error) {
			var b SignalBody
			if err := json.Unmarshal(body, &b); err != nil {
				return "", nil, fmt.Errorf("signal frame: %w", err)
			}
			if err := r.validate.Struct(b); err != nil {
				return "", nil, fmt.Errorf("signal frame: %w", err)
			}

			sig := domain.Signal{
				Kind:    domain.SignalKind(b.Type),
				From:    sender.Name(),
				To:      b.To,
				RoomID:  b.RoomID,
				Payload: b.Payload,
			}
			return sig.To, toSignalBody(sig), nil
		},
	}
}

func toSignalBody(sig domain.Signal) SignalBody {
	return SignalBody{
		Type:    string(sig.Kind),
		From:    sig.From,
		To:      sig.To,
		RoomID:  sig.RoomID,
		Payload: sig.Payload,
	}
}

func toChatBody(m domain.Message) ChatBody {
	ts := m.CreatedAt
	return ChatBody{
		ID:        m.ID.String(),
		Sender:    m.SenderID,
		Content:   m.Content,
		RoomID:    m.RoomID,
		Type:      string(m.Kind),
		Timestamp: &ts,
		Read:      m.Read,
	}
}
