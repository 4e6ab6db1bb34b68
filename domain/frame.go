package domain

import "encoding/json"

// Inbound is one application frame read off a connection, after the
// handshake gate. The body is left opaque until a route handler parses it.
type Inbound struct {
	Destination string
	Body        json.RawMessage
}

// Outbound is a server frame headed to one or more connections. The body is
// marshaled by the transport at write time.
type Outbound struct {
	Destination string
	Body        any
}
