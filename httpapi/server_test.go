package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"chat-video/auth"
	"chat-video/domain"
	"chat-video/errors"
)

type stubChat struct {
	history   []domain.Message
	lastLimit int
	lastQuery string
}

func (s *stubChat) SaveAndBroadcast(context.Context, domain.Principal, string, string, domain.MessageKind) (domain.Message, error) {
	return domain.Message{}, nil
}

func (s *stubChat) History(_ context.Context, roomID string, limit int) ([]domain.Message, error) {
	if roomID == "ghost" {
		return nil, errors.ErrRoomNotFound
	}
	if !domain.ValidRoomID(roomID) {
		return nil, errors.ErrInvalidRoomID
	}
	s.lastLimit = limit
	return s.history, nil
}

func (s *stubChat) Search(_ context.Context, rawQuery string) ([]domain.Message, error) {
	s.lastQuery = rawQuery
	return s.history, nil
}

func newTestAPI(t *testing.T, chat *stubChat) *httptest.Server {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelError)
	ws := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	srv := httptest.NewServer(NewServer(log, chat, auth.NewVerifier(), ws, 50).NewRouter())
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Body.Close() })
	return res
}

func TestServer_History(t *testing.T) {
	tok, err := auth.GenerateToken("u1", "alice@test.io", []string{"user"}, time.Hour)
	require.NoError(t, err)

	t.Run("requires a bearer token", func(t *testing.T) {
		req := require.New(t)
		srv := newTestAPI(t, &stubChat{})

		res := get(t, srv.URL+"/api/rooms/room-1/messages", "")
		req.Equal(http.StatusUnauthorized, res.StatusCode)
	})

	t.Run("returns room messages", func(t *testing.T) {
		req := require.New(t)
		chat := &stubChat{history: []domain.Message{
			{ID: uuid.New(), RoomID: "room-1", SenderID: "alice@test.io", Content: "hi", Kind: domain.KindChat, CreatedAt: time.Now().UTC()},
		}}
		srv := newTestAPI(t, chat)

		res := get(t, srv.URL+"/api/rooms/room-1/messages?limit=5", tok)
		req.Equal(http.StatusOK, res.StatusCode)
		req.Equal(5, chat.lastLimit)

		var body []map[string]any
		req.NoError(json.NewDecoder(res.Body).Decode(&body))
		req.Len(body, 1)
		req.Equal("hi", body[0]["content"])
		req.Equal("room-1", body[0]["roomId"])
	})

	t.Run("unknown room is 404", func(t *testing.T) {
		req := require.New(t)
		srv := newTestAPI(t, &stubChat{})

		res := get(t, srv.URL+"/api/rooms/ghost/messages", tok)
		req.Equal(http.StatusNotFound, res.StatusCode)
	})

	t.Run("room id with a key separator is 400", func(t *testing.T) {
		req := require.New(t)
		srv := newTestAPI(t, &stubChat{})

		res := get(t, srv.URL+"/api/rooms/a%3A123/messages", tok)
		req.Equal(http.StatusBadRequest, res.StatusCode)
	})

	t.Run("rejects a non-numeric limit", func(t *testing.T) {
		req := require.New(t)
		srv := newTestAPI(t, &stubChat{})

		res := get(t, srv.URL+"/api/rooms/room-1/messages?limit=abc", tok)
		req.Equal(http.StatusBadRequest, res.StatusCode)
	})
}

func TestServer_Search(t *testing.T) {
	tok, err := auth.GenerateToken("u1", "alice@test.io", []string{"user"}, time.Hour)
	require.NoError(t, err)

	t.Run("passes the raw query through", func(t *testing.T) {
		req := require.New(t)
		chat := &stubChat{}
		srv := newTestAPI(t, chat)

		res := get(t, srv.URL+"/api/search?q=invoice+--room+room-1", tok)
		req.Equal(http.StatusOK, res.StatusCode)
		req.Equal("invoice --room room-1", chat.lastQuery)
	})

	t.Run("missing query is 400", func(t *testing.T) {
		req := require.New(t)
		srv := newTestAPI(t, &stubChat{})

		res := get(t, srv.URL+"/api/search", tok)
		req.Equal(http.StatusBadRequest, res.StatusCode)
	})
}

func TestServer_Health(t *testing.T) {
	req := require.New(t)
	srv := newTestAPI(t, &stubChat{})

	res := get(t, srv.URL+"/healthz", "")
	req.Equal(http.StatusOK, res.StatusCode)
}
