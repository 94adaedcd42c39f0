package issuer

import (
	"context"
	"net/http"

	"github.com/lumapay/onboard/core"
)

func (s *Service) Find(ctx context.Context, email string) (*core.User, bool, error) {
	r, err := s.request(ctx, email)
	if err != nil {
		return nil, false, err
	}

	var user core.User
	resp, err := r.SetResult(&user).Get(s.url("/user"))
	if err != nil {
		return nil, false, &core.APIError{Body: err.Error()}
	}

	if resp.StatusCode() == http.StatusNotFound {
		return nil, false, nil
	}

	if resp.IsError() {
		return nil, false, apiError(resp)
	}

	return &user, true, nil
}

func (s *Service) Create(ctx context.Context, email, country, walletAddress string) (*core.User, error) {
	r, err := s.request(ctx, "")
	if err != nil {
		return nil, err
	}

	var user core.User
	resp, err := r.
		SetBody(map[string]string{
			"email":          email,
			"country":        country,
			"wallet_address": walletAddress,
		}).
		SetResult(&user).
		Post(s.url("/user"))

	if err != nil {
		return nil, &core.APIError{Body: err.Error()}
	}

	if resp.IsError() {
		return nil, apiError(resp)
	}

	return &user, nil
}

func (s *Service) VerificationLink(ctx context.Context, email string) (string, error) {
	r, err := s.request(ctx, email)
	if err != nil {
		return "", err
	}

	var body struct {
		RedirectURI string `json:"redirect_uri"`
	}

	resp, err := r.SetResult(&body).Post(s.url("/user/verification-link"))
	if err != nil {
		return "", &core.APIError{Body: err.Error()}
	}

	if resp.IsError() {
		return "", apiError(resp)
	}

	return body.RedirectURI, nil
}
