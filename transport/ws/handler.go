package ws

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"chat-video/auth"
	"chat-video/broker"
	"chat-video/contract"
	"chat-video/domain"
	appErrors "chat-video/errors"
	"chat-video/observability"
)

const (
	// handshakeWait bounds how long a fresh connection may stall before
	// presenting its CONNECT frame.
	handshakeWait = 10 * time.Second
	// maxFrameSize caps one inbound frame. Chat content is limited to 2000
	// characters; signaling payloads (SDP offers) are the big ones.
	maxFrameSize = 64 * 1024
)

// Handler upgrades HTTP requests to websocket sessions and runs their read
// loop. Authentication happens exactly once, on the first frame: no CONNECT,
// no session.
type Handler struct {
	log        *slog.Logger
	verifier   auth.Verifier
	registry   contract.IRegistry
	router     *broker.Router
	monitor    *observability.Monitor
	upgrader   websocket.Upgrader
	bufferSize int
}

func NewHandler(log *slog.Logger, verifier auth.Verifier, registry contract.IRegistry,
	router *broker.Router, monitor *observability.Monitor, bufferSize int) *Handler {
	return &Handler{
		log:      log,
		verifier: verifier,
		registry: registry,
		router:   router,
		monitor:  monitor,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The JWT is the trust boundary, not the Origin header.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		bufferSize: bufferSize,
	}
}

// ServeHTTP implements the /ws endpoint.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	principal, err := h.handshake(conn)
	if err != nil {
		h.monitor.IncrHandshakeRejected()
		h.log.Warn("Handshake rejected", "remote", r.RemoteAddr, "error", err)
		h.closeWithPolicyViolation(conn, err)
		return
	}

	session := NewSession(conn, principal, h.bufferSize, h.log)
	if err := h.registry.Bind(session.ID, principal, session); err != nil {
		h.log.Error("Binding session", "session", session.ID, "error", err)
		h.closeWithPolicyViolation(conn, err)
		return
	}
	h.monitor.ConnOpened()
	h.log.Info("Session opened", "session", session.ID, "user", principal.Name())

	go session.WritePump()
	session.Reply(ServerFrame{Type: FrameConnected, User: principal.Name()})

	h.readLoop(r, session)
}

// handshake reads the first frame and verifies the bearer token it carries.
// The auth gate runs exactly once per connection; every later frame rides on
// the principal bound here.
func (h *Handler) handshake(conn *websocket.Conn) (domain.Principal, error) {
	_ = conn.SetReadDeadline(time.Now().Add(handshakeWait))
	conn.SetReadLimit(maxFrameSize)

	var frame ClientFrame
	if err := conn.ReadJSON(&frame); err != nil {
		return domain.Principal{}, fmt.Errorf("reading connect frame: %w", err)
	}
	if frame.Type != FrameConnect {
		return domain.Principal{}, fmt.Errorf("expected %s frame, got %q", FrameConnect, frame.Type)
	}

	principal, err := h.verifier.VerifyBearer(frame.Headers["Authorization"])
	if err != nil {
		return domain.Principal{}, err
	}
	return principal, nil
}

// readLoop consumes frames until the peer disconnects. Routing failures are
// logged and dropped: a bad frame never tears down the connection.
func (h *Handler) readLoop(r *http.Request, session *Session) {
	conn := session.conn
	defer func() {
		h.registry.Unbind(session.ID)
		h.monitor.ConnClosed()
		session.Close()
		_ = conn.Close()
		h.log.Info("Session closed", "session", session.ID, "user", session.Principal.Name())
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame ClientFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug("Read failed", "session", session.ID, "error", err)
			}
			return
		}

		switch frame.Type {
		case FrameSubscribe:
			h.registry.Subscribe(session.ID, frame.Destination)
		case FrameUnsubscribe:
			h.registry.Unsubscribe(session.ID, frame.Destination)
		case FrameSend:
			h.dispatch(r, session, frame)
		case FrameConnect:
			// Already authenticated; a second CONNECT is a protocol slip,
			// not a reason to drop the user.
			h.log.Warn("Duplicate CONNECT ignored", "session", session.ID)
		default:
			h.log.Warn("Unknown frame type", "session", session.ID, "type", frame.Type)
		}
	}
}

func (h *Handler) dispatch(r *http.Request, session *Session, frame ClientFrame) {
	err := h.router.Dispatch(r.Context(), session.Principal,
		domain.Inbound{Destination: frame.Destination, Body: frame.Body})
	if err == nil {
		return
	}

	if errors.Is(err, appErrors.ErrUnknownDestination) {
		h.log.Warn("Frame for unknown destination dropped",
			"session", session.ID, "destination", frame.Destination)
		return
	}

	h.log.Warn("Frame rejected", "session", session.ID,
		"destination", frame.Destination, "error", err)
	session.Reply(ServerFrame{Type: FrameError, Destination: frame.Destination, Error: err.Error()})
}

func (h *Handler) closeWithPolicyViolation(conn *websocket.Conn, cause error) {
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, cause.Error())
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.CloseMessage, msg)
	_ = conn.Close()
}
