// Package httpapi exposes the REST surface next to the websocket endpoint:
// room history, message search and health. All /api routes require the same
// bearer token as the websocket handshake.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"chat-video/auth"
	"chat-video/contract"
	"chat-video/domain"
	appErrors "chat-video/errors"
)

type Server struct {
	log          *slog.Logger
	chat         contract.IChatService
	verifier     auth.Verifier
	ws           http.Handler
	historyLimit int
}

func NewServer(log *slog.Logger, chat contract.IChatService, verifier auth.Verifier,
	ws http.Handler, historyLimit int) *Server {
	return &Server{
		log:          log,
		chat:         chat,
		verifier:     verifier,
		ws:           ws,
		historyLimit: historyLimit,
	}
}

func (s *Server) NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Handle("/ws", s.ws)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.bearerAuth)
		r.Get("/rooms/{roomID}/messages", s.history)
		r.Get("/search", s.search)
	})

	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// bearerAuth gates the REST routes with the same JWT as the websocket
// handshake. The principal is not threaded further: history and search are
// read-only and room-scoped, not user-scoped.
func (s *Server) bearerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.verifier.VerifyBearer(r.Header.Get("Authorization")); err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	limit := s.historyLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	messages, err := s.chat.History(r.Context(), roomID, limit)
	if err != nil {
		if errors.Is(err, appErrors.ErrRoomNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "room not found"})
			return
		}
		if errors.Is(err, appErrors.ErrInvalidRoomID) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid room id"})
			return
		}
		s.log.Error("History read failed", "room", roomID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "history unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, toResponses(messages))
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing q parameter"})
		return
	}

	messages, err := s.chat.Search(r.Context(), query)
	if err != nil {
		s.log.Error("Search failed", "query", query, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "search unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, toResponses(messages))
}

// messageResponse mirrors the websocket chat body so both surfaces speak the
// same shape.
type messageResponse struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	RoomID    string    `json:"roomId"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"isRead"`
}

func toResponses(messages []domain.Message) []messageResponse {
	res := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		res = append(res, messageResponse{
			ID:        m.ID.String(),
			Sender:    m.SenderID,
			Content:   m.Content,
			RoomID:    m.RoomID,
			Type:      string(m.Kind),
			Timestamp: m.CreatedAt,
			Read:      m.Read,
		})
	}
	return res
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
