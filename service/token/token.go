package token

import (
	"context"
	"sync"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/go-resty/resty/v2"
	"github.com/lumapay/onboard/core"
)

type Config struct {
	AuthURL      string `valid:"url,required"`
	ClientID     string `valid:"required"`
	ClientSecret string `valid:"required"`
	Audience     string `valid:"url,required"`
}

func New(client *resty.Client, cfg Config) core.TokenSource {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	return &source{
		client: client,
		cfg:    cfg,
		now:    time.Now,
	}
}

type source struct {
	client *resty.Client
	cfg    Config
	now    func() time.Time

	mux    sync.RWMutex
	cached core.Token
}

type exchangeResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// Token returns the cached bearer while it is still fresh and performs a
// client-credentials exchange otherwise. Concurrent callers racing through
// an expired window each exchange on their own; last write wins, which is
// harmless since every response carries a usable token.
func (s *source) Token(ctx context.Context) (string, error) {
	s.mux.RLock()
	cached := s.cached
	s.mux.RUnlock()

	if cached.Valid(s.now()) {
		return cached.AccessToken, nil
	}

	var body exchangeResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"client_id":     s.cfg.ClientID,
			"client_secret": s.cfg.ClientSecret,
			"audience":      s.cfg.Audience,
			"grant_type":    "client_credentials",
		}).
		SetResult(&body).
		Post(s.cfg.AuthURL)

	if err != nil {
		return "", &core.AuthError{Body: err.Error()}
	}

	if resp.IsError() {
		return "", &core.AuthError{Status: resp.StatusCode(), Body: string(resp.Body())}
	}

	// keep a 60s safety margin before the advertised expiry
	token := core.Token{
		AccessToken: body.AccessToken,
		ExpiresAt:   s.now().Add(time.Duration(body.ExpiresIn-60) * time.Second),
	}

	s.mux.Lock()
	s.cached = token
	s.mux.Unlock()

	return token.AccessToken, nil
}
