package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionTokenPayload captures the data available when minting an admin session.
type SessionTokenPayload struct {
	OperatorID uuid.UUID
	Email      string
	// JTI overrides the generated session identifier; tests use it.
	JTI string
}

// SessionClaims is the typed JWT carried in the admin session cookie. There is
// no server-side session record; expiry bounds a compromised token.
type SessionClaims struct {
	OperatorID uuid.UUID `json:"operator_id"`
	Email      string    `json:"email"`
	jwt.RegisteredClaims
}
