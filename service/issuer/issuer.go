// Package issuer wraps the identity/card REST API. Every request carries
// the cached bearer token, the fixed chain id header and, where the API
// scopes by user, an email header. Failures are never retried; the raw
// response body travels up inside core.APIError.
package issuer

import (
	"context"
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/go-resty/resty/v2"
	"github.com/lumapay/onboard/core"
)

type Config struct {
	BaseURL string `valid:"url,required"`
	ChainID string `valid:"required"`
}

func New(client *resty.Client, tokens core.TokenSource, cfg Config) *Service {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	return &Service{
		client: client,
		tokens: tokens,
		cfg:    cfg,
	}
}

type Service struct {
	client *resty.Client
	tokens core.TokenSource
	cfg    Config
}

func (s *Service) url(path string) string {
	return strings.TrimSuffix(s.cfg.BaseURL, "/") + path
}

func (s *Service) request(ctx context.Context, email string) (*resty.Request, error) {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	r := s.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token).
		SetHeader("X-Chain-Id", s.cfg.ChainID)

	if email != "" {
		r.SetHeader("X-User-Email", email)
	}

	return r, nil
}

func apiError(resp *resty.Response) error {
	return &core.APIError{Status: resp.StatusCode(), Body: string(resp.Body())}
}
