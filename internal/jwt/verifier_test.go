package jwt

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeUserFinder struct {
	users map[string]Identity
}

func (f *fakeUserFinder) FindUserByID(ctx context.Context, id string) (Identity, error) {
	identity, ok := f.users[id]
	if !ok {
		return Identity{}, errors.New("no such user")
	}
	return identity, nil
}

func TestVerifyRoundTrip(t *testing.T) {
	alice := Identity{UserID: "u1", Email: "alice@example.com"}
	token, err := CreateToken(alice, "secret", 0)
	if err != nil {
		t.Fatalf("create token: %v", err)
	}

	v := NewHS256Verifier("secret", &fakeUserFinder{users: map[string]Identity{"u1": alice}})
	got, err := v.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != alice {
		t.Fatalf("unexpected identity: %+v", got)
	}
}

func TestVerifyWithoutUserStoreTrustsClaims(t *testing.T) {
	alice := Identity{UserID: "u1", Email: "alice@example.com"}
	token, err := CreateToken(alice, "secret", 0)
	if err != nil {
		t.Fatalf("create token: %v", err)
	}

	v := NewHS256Verifier("secret", nil)
	got, err := v.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != alice {
		t.Fatalf("unexpected identity: %+v", got)
	}
}

func TestVerifyRejectsEmptyToken(t *testing.T) {
	v := NewHS256Verifier("secret", nil)
	if _, err := v.Verify(context.Background(), ""); !errors.Is(err, ErrTokenRequired) {
		t.Fatalf("expected ErrTokenRequired, got %v", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := CreateToken(Identity{UserID: "u1"}, "secret", 0)
	if err != nil {
		t.Fatalf("create token: %v", err)
	}

	v := NewHS256Verifier("other-secret", nil)
	if _, err := v.Verify(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	expired := time.Now().Add(-time.Hour).Unix()
	token, err := CreateToken(Identity{UserID: "u1"}, "secret", expired)
	if err != nil {
		t.Fatalf("create token: %v", err)
	}

	v := NewHS256Verifier("secret", nil)
	if _, err := v.Verify(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsUnknownUser(t *testing.T) {
	token, err := CreateToken(Identity{UserID: "ghost"}, "secret", 0)
	if err != nil {
		t.Fatalf("create token: %v", err)
	}

	v := NewHS256Verifier("secret", &fakeUserFinder{users: map[string]Identity{}})
	if _, err := v.Verify(context.Background(), token); !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("expected ErrUnknownUser, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	v := NewHS256Verifier("secret", nil)
	if _, err := v.Verify(context.Background(), "not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
