// Package ws carries the realtime protocol over a single websocket per
// client. Frames are JSON envelopes; destinations follow the /app, /topic
// and /user/queue conventions.
package ws

import "encoding/json"

const (
	FrameConnect     = "CONNECT"
	FrameConnected   = "CONNECTED"
	FrameSubscribe   = "SUBSCRIBE"
	FrameUnsubscribe = "UNSUBSCRIBE"
	FrameSend        = "SEND"
	FrameError       = "ERROR"
)

// ClientFrame is the client→server envelope. The body is kept raw: only the
// router knows how to decode it, per destination.
type ClientFrame struct {
	Type        string            `json:"type"`
	Destination string            `json:"destination,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Body        json.RawMessage   `json:"body,omitempty"`
}

// ServerFrame is the server→client envelope. Routed messages carry only a
// destination and a body; Type is reserved for protocol replies (CONNECTED,
// ERROR).
type ServerFrame struct {
	Type        string `json:"type,omitempty"`
	Destination string `json:"destination,omitempty"`
	User        string `json:"user,omitempty"`
	Error       string `json:"error,omitempty"`
	Body        any    `json:"body,omitempty"`
}
