package e2e

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"chat-video/auth"
	"chat-video/transport/ws"
)

type BaseWsSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseWsSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
}

// WsClient wraps one authenticated websocket connection for scenario steps.
type WsClient struct {
	Email string

	t     *testing.T
	conn  *websocket.Conn
	debug bool
}

// Dial opens a connection, performs the CONNECT handshake as the given
// identity and fails the test on any protocol slip. The whole suite is
// skipped when no server is listening.
func (s *BaseWsSuite) Dial(t *testing.T, name, email string) *WsClient {
	// 1. Print a colorized header for the connection step in logs
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)

	url := fmt.Sprintf("ws://%s/ws", s.Config.ServerAddr)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Skipf("No server at %s: %v", s.Config.ServerAddr, err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	token, err := auth.GenerateToken(email, email, []string{"user"}, time.Hour)
	s.Require().NoError(err)

	client := &WsClient{Email: email, t: t, conn: conn, debug: s.Config.DebugJSON}
	s.Require().NoError(conn.WriteJSON(ws.ClientFrame{
		Type:    ws.FrameConnect,
		Headers: map[string]string{"Authorization": "Bearer " + token},
	}))

	reply := client.Expect("")
	s.Require().Equal(ws.FrameConnected, reply.Type)
	s.Require().Equal(email, reply.User)
	return client
}

// Frame is the decoded server envelope scenario steps assert on.
type Frame struct {
	Type        string          `json:"type"`
	Destination string          `json:"destination"`
	User        string          `json:"user"`
	Error       string          `json:"error"`
	Body        json.RawMessage `json:"body"`
}

func (c *WsClient) Subscribe(topic string) {
	if err := c.conn.WriteJSON(ws.ClientFrame{Type: ws.FrameSubscribe, Destination: topic}); err != nil {
		c.t.Fatalf("Subscribe %s: %v", topic, err)
	}
}

func (c *WsClient) Send(destination string, body any) {
	raw, err := json.Marshal(body)
	if err != nil {
		c.t.Fatalf("Encoding body for %s: %v", destination, err)
	}
	if c.debug {
		c.t.Logf("SEND %s %s", destination, raw)
	}
	if err := c.conn.WriteJSON(ws.ClientFrame{Type: ws.FrameSend, Destination: destination, Body: raw}); err != nil {
		c.t.Fatalf("Send %s: %v", destination, err)
	}
}

// Expect reads the next frame and, when destination is non-empty, asserts it
// arrived on that destination.
func (c *WsClient) Expect(destination string) Frame {
	if err := c.conn.SetReadDeadline(time.Now().Add(3 * time.Second)); err != nil {
		c.t.Fatalf("Read deadline: %v", err)
	}

	var frame Frame
	if err := c.conn.ReadJSON(&frame); err != nil {
		c.t.Fatalf("Waiting for frame on %q: %v", destination, err)
	}
	if c.debug {
		c.t.Logf("RECV %s %s", frame.Destination, frame.Body)
	}
	if destination != "" && frame.Destination != destination {
		c.t.Fatalf("Expected frame on %s, got %s", destination, frame.Destination)
	}
	return frame
}

// ExpectSilence asserts nothing arrives within the window.
func (c *WsClient) ExpectSilence(window time.Duration) {
	_ = c.conn.SetReadDeadline(time.Now().Add(window))
	var frame Frame
	if err := c.conn.ReadJSON(&frame); err == nil {
		c.t.Fatalf("Expected silence, got frame on %s", frame.Destination)
	}
}
