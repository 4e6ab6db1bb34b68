package e2e

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"chat-video/auth"
	"chat-video/broker"
	"chat-video/transport/ws"
)

// ChatScenarioSuite runs against a live server (SERVER_ADDR). It exercises
// the full realtime path: handshake, subscriptions, chat fan-out and
// user-directed signaling between real connections.
type ChatScenarioSuite struct {
	BaseWsSuite
}

func TestChatScenarios(t *testing.T) {
	suite.Run(t, new(ChatScenarioSuite))
}

func (s *ChatScenarioSuite) TestChatBroadcast() {
	t := s.T()
	room := fmt.Sprintf("e2e-room-%d", time.Now().UnixNano())

	alice := s.Dial(t, "Alice connects", "alice@e2e.io")
	bob := s.Dial(t, "Bob connects", "bob@e2e.io")

	alice.Subscribe(broker.TopicMessages)
	bob.Subscribe(broker.TopicMessages)
	time.Sleep(200 * time.Millisecond)

	alice.Send(broker.DestChatSend, map[string]string{
		"content": "hello from e2e",
		"roomId":  room,
		"sender":  "spoofed@e2e.io",
	})

	for _, client := range []*WsClient{alice, bob} {
		frame := client.Expect(broker.TopicMessages)

		var body broker.ChatBody
		s.Require().NoError(json.Unmarshal(frame.Body, &body))
		s.Equal("hello from e2e", body.Content)
		s.Equal(room, body.RoomID)
		// Sender identity always comes from the token, never the frame.
		s.Equal("alice@e2e.io", body.Sender)
		s.NotEmpty(body.ID)
	}
}

func (s *ChatScenarioSuite) TestJoinNotification() {
	t := s.T()
	room := fmt.Sprintf("e2e-room-%d", time.Now().UnixNano())

	alice := s.Dial(t, "Alice connects", "alice@e2e.io")
	bob := s.Dial(t, "Bob connects", "bob@e2e.io")

	alice.Subscribe(broker.TopicNotifications)
	time.Sleep(200 * time.Millisecond)

	bob.Send(broker.DestChatJoin, map[string]string{"roomId": room})

	frame := alice.Expect(broker.TopicNotifications)
	var body broker.ChatBody
	s.Require().NoError(json.Unmarshal(frame.Body, &body))
	s.Equal("bob@e2e.io", body.Sender)
	s.Equal(room, body.RoomID)
	s.Equal("JOIN", body.Type)
}

func (s *ChatScenarioSuite) TestVideoOfferReachesCalleeOnly() {
	t := s.T()

	alice := s.Dial(t, "Alice connects", "alice@e2e.io")
	bob := s.Dial(t, "Bob connects", "bob@e2e.io")
	carol := s.Dial(t, "Carol connects", "carol@e2e.io")

	alice.Send(broker.DestVideoOffer, map[string]any{
		"type":    "OFFER",
		"from":    "spoofed@e2e.io",
		"to":      "bob@e2e.io",
		"payload": map[string]string{"sdp": "v=0", "type": "offer"},
	})

	frame := bob.Expect(broker.QueueVideoOffer)
	var body broker.SignalBody
	s.Require().NoError(json.Unmarshal(frame.Body, &body))
	s.Equal("alice@e2e.io", body.From)
	s.Equal("bob@e2e.io", body.To)

	carol.ExpectSilence(500 * time.Millisecond)
}

func (s *ChatScenarioSuite) TestOfflineCalleeIsSilent() {
	t := s.T()

	alice := s.Dial(t, "Alice connects", "alice@e2e.io")
	alice.Send(broker.DestVideoCall, map[string]string{
		"type": "CALL_REQUEST",
		"to":   "nobody-online@e2e.io",
	})

	// No error, no echo: fire and forget.
	alice.ExpectSilence(500 * time.Millisecond)
}

func (s *ChatScenarioSuite) TestExpiredTokenIsRejected() {
	t := s.T()

	url := fmt.Sprintf("ws://%s/ws", s.Config.ServerAddr)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Skipf("No server at %s: %v", s.Config.ServerAddr, err)
	}
	defer conn.Close()

	token, err := auth.GenerateToken("eve", "eve@e2e.io", []string{"user"}, -time.Hour)
	s.Require().NoError(err)

	s.Require().NoError(conn.WriteJSON(ws.ClientFrame{
		Type:    ws.FrameConnect,
		Headers: map[string]string{"Authorization": "Bearer " + token},
	}))

	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(3 * time.Second)))
	_, _, err = conn.ReadMessage()
	s.Error(err)
	s.True(websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
}
