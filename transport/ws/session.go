package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chat-video/domain"
)

const (
	// writeWait bounds a single frame write to the peer.
	writeWait = 10 * time.Second
	// pongWait is how long a silent peer stays considered alive.
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait.
	pingPeriod = 54 * time.Second
)

// Session is one live websocket connection bound to a principal. It owns the
// connection's write side: everything going out funnels through the buffered
// send channel and a single write pump, so the fan-out never writes to the
// socket directly.
type Session struct {
	ID        string
	Principal domain.Principal

	conn *websocket.Conn
	send chan []byte
	log  *slog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

func NewSession(conn *websocket.Conn, principal domain.Principal, bufferSize int, log *slog.Logger) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Principal: principal,
		conn:      conn,
		send:      make(chan []byte, bufferSize),
		log:       log,
		done:      make(chan struct{}),
	}
}

// Consume implements contract.EventSink. It never blocks: a full send buffer
// fails this delivery only, and the fan-out counts the drop.
func (s *Session) Consume(ctx context.Context, frame domain.Outbound) error {
	data, err := json.Marshal(ServerFrame{Destination: frame.Destination, Body: frame.Body})
	if err != nil {
		return fmt.Errorf("encoding frame for %s: %w", frame.Destination, err)
	}

	select {
	case s.send <- data:
		return nil
	case <-s.done:
		return fmt.Errorf("session %s closed", s.ID)
	case <-ctx.Done():
		return fmt.Errorf("session %s: send buffer full: %w", s.ID, ctx.Err())
	}
}

// Reply pushes a protocol frame (CONNECTED, ERROR) to the peer through the
// same pump as routed messages.
func (s *Session) Reply(frame ServerFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		s.log.Error("Encoding protocol frame", "session", s.ID, "error", err)
		return
	}
	select {
	case s.send <- data:
	case <-s.done:
	default:
		s.log.Warn("Send buffer full, dropping protocol frame", "session", s.ID)
	}
}

// WritePump drains the send channel onto the socket and keeps the connection
// alive with periodic pings. It exits when the session closes or a write
// fails; the read loop notices through the broken connection.
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case data := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.log.Debug("Write failed, closing session", "session", s.ID, "error", err)
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close is idempotent and unblocks both pumps.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}
