package main

import (
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/wire"
	"github.com/spf13/viper"

	"github.com/lumapay/onboard/core"
	"github.com/lumapay/onboard/service/issuer"
	"github.com/lumapay/onboard/service/ledger"
	"github.com/lumapay/onboard/service/onboarding"
	"github.com/lumapay/onboard/service/token"
	"github.com/lumapay/onboard/service/wallet"
)

var serviceSet = wire.NewSet(
	provideHTTPClient,
	provideTokenConfig,
	token.New,
	provideIssuerConfig,
	issuer.New,
	wire.Bind(new(core.UserService), new(*issuer.Service)),
	wire.Bind(new(core.ConfirmationService), new(*issuer.Service)),
	wire.Bind(new(core.CardService), new(*issuer.Service)),
	provideLedgerConfig,
	ledger.New,
	provideWalletConfig,
	wallet.New,
	provideOnboardingConfig,
	provideManager,
	wire.Bind(new(core.OnboardingService), new(*onboarding.Manager)),
)

func provideHTTPClient() *resty.Client {
	return resty.New().SetTimeout(10 * time.Second)
}

func provideTokenConfig(v *viper.Viper) token.Config {
	return token.Config{
		AuthURL:      v.GetString("issuer.auth_url"),
		ClientID:     v.GetString("issuer.client_id"),
		ClientSecret: v.GetString("issuer.client_secret"),
		Audience:     v.GetString("issuer.audience"),
	}
}

func provideIssuerConfig(v *viper.Viper) issuer.Config {
	return issuer.Config{
		BaseURL: v.GetString("issuer.base_url"),
		ChainID: v.GetString("issuer.chain_id"),
	}
}

func provideLedgerConfig(v *viper.Viper) ledger.Config {
	return ledger.Config{
		RPCURL:        v.GetString("ledger.rpc_url"),
		ReaderAccount: v.GetString("ledger.reader_account"),
	}
}

func provideWalletConfig(v *viper.Viper) wallet.Config {
	return wallet.Config{
		BaseURL: v.GetString("wallet.base_url"),
		APIKey:  v.GetString("wallet.api_key"),
		Chain:   v.GetString("wallet.chain"),
	}
}

func provideOnboardingConfig(v *viper.Viper) onboarding.Config {
	v.SetDefault("onboarding.poll_interval", 5*time.Second)

	return onboarding.Config{
		Country:       v.GetString("onboarding.country"),
		Registry:      v.GetString("onboarding.registry"),
		ParentEntity:  v.GetString("onboarding.parent_entity"),
		PrimeContract: v.GetString("onboarding.prime_contract"),
		PollInterval:  v.GetDuration("onboarding.poll_interval"),
	}
}

func provideManager(
	users core.UserService,
	confirmations core.ConfirmationService,
	reader core.LedgerReader,
	walletz core.WalletService,
	wallets core.WalletStore,
	logger *slog.Logger,
	cfg onboarding.Config,
) (*onboarding.Manager, func()) {
	m := onboarding.New(users, confirmations, reader, walletz, wallets, logger, cfg)
	return m, m.Close
}
