package jwt

import "errors"

// Identity is the authenticated principal resolved once per connection at
// handshake time. It never changes for the lifetime of the connection.
type Identity struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
}

var (
	ErrTokenRequired = errors.New("jwt: authentication token required")
	ErrInvalidToken  = errors.New("jwt: invalid authentication token")
	ErrUnknownUser   = errors.New("jwt: user not found")
)
