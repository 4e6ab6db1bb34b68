// Package domain contains core concepts of the chat and signaling system.
// This file defines the authenticated identity bound to a connection.
// No runtime, network, or UI logic should be added here.
package domain

// Principal is the identity produced by the token verifier at handshake.
// It is immutable for the lifetime of the connection it is bound to.
type Principal struct {
	UserID string
	Email  string
	Roles  []string
}

// Zero reports whether the principal carries no identity.
func (p Principal) Zero() bool {
	return p.UserID == "" && p.Email == ""
}

// Name returns the routable identity of the principal. The original system
// addressed users by email, so email wins when both fields are set.
func (p Principal) Name() string {
	if p.Email != "" {
		return p.Email
	}
	return p.UserID
}
