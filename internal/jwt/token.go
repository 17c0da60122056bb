package jwt

import (
	"time"

	"github.com/golang-jwt/jwt"
)

// CreateToken mints an HS256 access token for the identity. The realtime
// service itself only verifies tokens; this helper exists for the auth
// service that owns issuance, and for tests.
func CreateToken(identity Identity, secret string, validUntil int64) (string, error) {
	if validUntil == 0 {
		validUntil = time.Now().Add(15 * time.Minute).Unix()
	}

	claims := jwt.MapClaims{
		"id":    identity.UserID,
		"email": identity.Email,
		"exp":   validUntil,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
