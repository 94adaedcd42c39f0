package token

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/lumapay/onboard/core"
)

func testConfig(authURL string) Config {
	return Config{
		AuthURL:      authURL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Audience:     "https://issuer.example.com",
	}
}

func TestTokenCaching(t *testing.T) {
	var exchanges atomic.Int64

	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exchanges.Add(1)

		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode exchange body: %v", err)
		}

		if req["grant_type"] != "client_credentials" {
			t.Errorf("grant_type = %q", req["grant_type"])
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(exchangeResponse{
			AccessToken: "tok-1",
			ExpiresIn:   3600,
			TokenType:   "Bearer",
		})
	}))
	defer svr.Close()

	src := New(resty.New(), testConfig(svr.URL)).(*source)

	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	src.now = func() time.Time { return clock }

	ctx := context.Background()

	for i := 0; i < 3; i++ {
		tok, err := src.Token(ctx)
		if err != nil {
			t.Fatalf("Token() err = %v", err)
		}
		if tok != "tok-1" {
			t.Fatalf("Token() = %q", tok)
		}
	}

	if n := exchanges.Load(); n != 1 {
		t.Fatalf("exchanges = %d, want 1 while token is fresh", n)
	}

	// just inside the 60s safety margin: treated as expired
	clock = clock.Add(3541 * time.Second)
	if _, err := src.Token(ctx); err != nil {
		t.Fatalf("Token() after expiry err = %v", err)
	}

	if n := exchanges.Load(); n != 2 {
		t.Fatalf("exchanges = %d, want 2 after expiry", n)
	}
}

func TestTokenExchangeFailure(t *testing.T) {
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad client", http.StatusUnauthorized)
	}))
	defer svr.Close()

	src := New(resty.New(), testConfig(svr.URL))

	_, err := src.Token(context.Background())

	var authErr *core.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("err = %v, want *core.AuthError", err)
	}

	if authErr.Status != http.StatusUnauthorized {
		t.Errorf("status = %d", authErr.Status)
	}
}
