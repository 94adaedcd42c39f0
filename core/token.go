package core

import (
	"context"
	"time"
)

type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (t Token) Valid(now time.Time) bool {
	return t.AccessToken != "" && now.Before(t.ExpiresAt)
}

// TokenSource yields a bearer credential for the issuer API, refreshing it
// on expiry.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}
