package issuer

import (
	"context"

	"github.com/lumapay/onboard/core"
)

func (s *Service) SendSMS(ctx context.Context, email string, action core.ActionType) (string, error) {
	r, err := s.request(ctx, email)
	if err != nil {
		return "", err
	}

	var body struct {
		SessionID string `json:"session_id"`
	}

	resp, err := r.
		SetBody(map[string]any{"action_type": action}).
		SetResult(&body).
		Post(s.url("/confirmation/sms"))

	if err != nil {
		return "", &core.APIError{Body: err.Error()}
	}

	if resp.IsError() {
		return "", apiError(resp)
	}

	return body.SessionID, nil
}

func (s *Service) VerifySMS(ctx context.Context, email, code, sessionID string) (string, error) {
	r, err := s.request(ctx, email)
	if err != nil {
		return "", err
	}

	var body struct {
		ActionToken string `json:"action_token"`
	}

	resp, err := r.
		SetBody(map[string]string{
			"code":       code,
			"session_id": sessionID,
		}).
		SetResult(&body).
		Post(s.url("/confirmation/sms/verify"))

	if err != nil {
		return "", &core.APIError{Body: err.Error()}
	}

	if resp.IsError() {
		return "", apiError(resp)
	}

	return body.ActionToken, nil
}

func (s *Service) ConfirmPhone(ctx context.Context, email, actionToken string) error {
	if actionToken == "" {
		return &core.APIError{Body: "confirm phone: missing action token"}
	}

	r, err := s.request(ctx, email)
	if err != nil {
		return err
	}

	resp, err := r.
		SetBody(map[string]string{"action_token": actionToken}).
		Put(s.url("/user/phone-number/confirm"))

	if err != nil {
		return &core.APIError{Body: err.Error()}
	}

	if resp.IsError() {
		return apiError(resp)
	}

	return nil
}

func (s *Service) VerifySignature(ctx context.Context, email string, proof core.SignatureProof) (string, error) {
	r, err := s.request(ctx, email)
	if err != nil {
		return "", err
	}

	var body struct {
		ActionToken string `json:"action_token"`
	}

	resp, err := r.
		SetBody(proof).
		SetResult(&body).
		Post(s.url("/confirmation/signature/verify"))

	if err != nil {
		return "", &core.APIError{Body: err.Error()}
	}

	if resp.IsError() {
		return "", apiError(resp)
	}

	return body.ActionToken, nil
}
