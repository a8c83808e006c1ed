package types

import "github.com/golang-jwt/jwt/v5"

// TokenClaims represents the claims in a session token.
// UserID duplicates the subject for clients that read the user_id claim.
type TokenClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}
