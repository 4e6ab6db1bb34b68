package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"chat-video/domain"
)

// Handshake error taxonomy. All of these are fatal to the connection:
// the transport closes the socket without any application response.
var (
	ErrTokenMissing   = fmt.Errorf("authorization token is missing")
	ErrTokenMalformed = fmt.Errorf("authorization token is malformed")
	ErrTokenExpired   = fmt.Errorf("authorization token is expired")
	ErrTokenSignature = fmt.Errorf("authorization token signature is invalid")
)

// Verifier turns a bearer credential into a Principal. It is stateless,
// has no side effects, and is safe for concurrent use.
type Verifier struct{}

func NewVerifier() Verifier {
	return Verifier{}
}

// Verify validates a raw JWT and returns the principal it asserts.
func (Verifier) Verify(token string) (domain.Principal, error) {
	if strings.TrimSpace(token) == "" {
		return domain.Principal{}, ErrTokenMissing
	}

	claims, err := ValidateToken(token)
	if err != nil {
		return domain.Principal{}, classify(err)
	}

	return domain.Principal{
		UserID: claims.UserID,
		Email:  claims.Subject,
		Roles:  claims.Roles,
	}, nil
}

// VerifyBearer extracts the token from an "Authorization: Bearer <token>"
// header value and verifies it.
func (v Verifier) VerifyBearer(header string) (domain.Principal, error) {
	if header == "" {
		return domain.Principal{}, ErrTokenMissing
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return domain.Principal{}, ErrTokenMalformed
	}
	return v.Verify(strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")))
}

// classify maps jwt parser failures onto the handshake taxonomy.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrTokenExpired
	default:
		return ErrTokenSignature
	}
}
