package jwt

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

// UserFinder confirms that the subject of a token still exists in the
// persistent store. Narrow on purpose so tests can fake it.
type UserFinder interface {
	FindUserByID(ctx context.Context, id string) (Identity, error)
}

// Verifier resolves a bearer token to an Identity or rejects it.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// HS256Verifier parses HS256 access tokens carrying {id, email, exp} claims
// and cross-checks the subject against the user store.
type HS256Verifier struct {
	secret []byte
	users  UserFinder
	now    func() time.Time
}

func NewHS256Verifier(secret string, users UserFinder) *HS256Verifier {
	return &HS256Verifier{
		secret: []byte(secret),
		users:  users,
		now:    time.Now,
	}
}

func (v *HS256Verifier) Verify(ctx context.Context, tokenString string) (Identity, error) {
	if tokenString == "" {
		return Identity{}, ErrTokenRequired
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, fmt.Errorf("%w: claims of unexpected type", ErrInvalidToken)
	}

	id, _ := claims["id"].(string)
	if id == "" {
		return Identity{}, fmt.Errorf("%w: missing id claim", ErrInvalidToken)
	}

	if exp, ok := claims["exp"].(float64); ok {
		if v.now().Unix() > int64(exp) {
			return Identity{}, fmt.Errorf("%w: token expired", ErrInvalidToken)
		}
	}

	if v.users != nil {
		identity, err := v.users.FindUserByID(ctx, id)
		if err != nil {
			return Identity{}, fmt.Errorf("%w: %v", ErrUnknownUser, err)
		}
		return identity, nil
	}

	email, _ := claims["email"].(string)
	return Identity{UserID: id, Email: email}, nil
}
