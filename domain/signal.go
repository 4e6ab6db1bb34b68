package domain

import "encoding/json"

// SignalKind enumerates the peer session negotiation messages.
type SignalKind string

const (
	SignalOffer       SignalKind = "OFFER"
	SignalAnswer      SignalKind = "ANSWER"
	SignalICE         SignalKind = "ICE_CANDIDATE"
	SignalCallRequest SignalKind = "CALL_REQUEST"
)

// Signal is a transient envelope relayed to exactly one user's live
// connections. It is never persisted: signaling only means something
// to a live peer. From is always overwritten with the authenticated
// principal before delivery.
type Signal struct {
	Kind    SignalKind
	From    string
	To      string
	RoomID  string
	Payload json.RawMessage
}
