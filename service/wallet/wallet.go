// Package wallet is the gateway's client for the external wallet provider.
// The provider owns key material and transaction broadcasting; this side
// only asks for an email-signer wallet and submits contract invocations.
package wallet

import (
	"context"
	"fmt"
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/lumapay/onboard/core"
)

type Config struct {
	BaseURL string `valid:"url,required"`
	APIKey  string `valid:"required"`
	Chain   string `valid:"required"`
}

func New(client *resty.Client, cfg Config) core.WalletService {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	return &service{
		client: client,
		cfg:    cfg,
	}
}

type service struct {
	client *resty.Client
	cfg    Config
}

func (s *service) url(path string) string {
	return strings.TrimSuffix(s.cfg.BaseURL, "/") + path
}

func (s *service) request(ctx context.Context) *resty.Request {
	return s.client.R().
		SetContext(ctx).
		SetHeader("X-API-Key", s.cfg.APIKey).
		SetHeader("X-Request-Id", uuid.NewString())
}

func (s *service) GetOrCreate(ctx context.Context, spec core.WalletSpec) (*core.Wallet, error) {
	var wallet core.Wallet
	resp, err := s.request(ctx).
		SetBody(map[string]any{
			"chain": s.cfg.Chain,
			"signer": map[string]string{
				"type":  "email",
				"email": spec.Email,
			},
			"plugins":           spec.Plugins,
			"delegated_signers": spec.DelegatedSigners,
		}).
		SetResult(&wallet).
		Post(s.url("/wallets"))

	if err != nil {
		return nil, &core.WalletError{Op: "create", Err: err}
	}

	if resp.IsError() {
		return nil, &core.WalletError{
			Op:  "create",
			Err: fmt.Errorf("status %d: %s", resp.StatusCode(), resp.Body()),
		}
	}

	if wallet.Address == "" {
		return nil, &core.WalletError{Op: "create", Err: fmt.Errorf("provider returned no address")}
	}

	return &wallet, nil
}

func (s *service) SendTransaction(ctx context.Context, address string, call core.ContractCall) (string, error) {
	var body struct {
		Hash   string `json:"hash"`
		Status string `json:"status"`
	}

	resp, err := s.request(ctx).
		SetBody(call).
		SetResult(&body).
		Post(s.url("/wallets/" + address + "/transactions"))

	if err != nil {
		return "", &core.WalletError{Op: "send " + call.Method, Err: err}
	}

	if resp.IsError() {
		return "", &core.WalletError{
			Op:  "send " + call.Method,
			Err: fmt.Errorf("status %d: %s", resp.StatusCode(), resp.Body()),
		}
	}

	return body.Hash, nil
}
