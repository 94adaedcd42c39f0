package onboarding

import (
	"context"

	"github.com/lumapay/onboard/core"
)

const (
	contractPolicy   = "ExecutionDelayPolicy"
	contractAccounts = "Accounts"

	methodPrime    = "hello_requires_auth"
	methodRegister = "create_user_account_with_wallet"
)

// Start drives the user-initiated onboarding chain. From initial it runs
// the full on-chain sequence; from creating-wirex-user or kyc-verification
// it resumes at the failed sub-step so the user can retry. A step is only
// committed once its network operations succeeded; on-chain failures fall
// all the way back to initial.
func (m *Manager) Start(ctx context.Context, email string) (*core.Flow, error) {
	s := m.session(email)

	s.mux.Lock()
	ready := s.ready
	s.mux.Unlock()

	// a cold session cannot be trusted: derive the step from the remote
	// record first so an already-onboarded user never reruns the chain
	if !ready {
		flow, err := m.Resume(ctx, email)
		if err != nil {
			return nil, err
		}

		s.mux.Lock()
		ready = s.ready
		s.mux.Unlock()

		if !ready {
			// the issuer was unreachable; starting blind is worse
			return flow, nil
		}
	}

	s.mux.Lock()
	step := s.flow.Step
	address := s.flow.WalletAddress

	switch step {
	case core.StepInitial:
		s.flow.Step = core.StepOnchainOnboard
		s.flow.Error = ""
	case core.StepCreatingUser, core.StepKYCVerification:
		s.flow.Error = ""
	default:
		// mid-flight or already past the user-driven part
		defer s.mux.Unlock()
		return s.snapshotLocked(), nil
	}
	s.mux.Unlock()

	if step == core.StepInitial {
		created, err := m.onchainOnboard(ctx, s, email)
		if err != nil {
			s.mux.Lock()
			defer s.mux.Unlock()
			s.flow.Error = err.Error()
			s.flow.Step = core.StepInitial
			return s.snapshotLocked(), nil
		}
		address = created
	}

	if step != core.StepKYCVerification {
		if flow, ok := m.createUser(ctx, s, email, address); !ok {
			return flow, nil
		}
	}

	return m.requestVerification(ctx, s, email), nil
}

// onchainOnboard resolves the registry, asks the provider for a wallet and
// registers it on-chain. The priming call must land before the wallet's
// first real transaction can broadcast.
func (m *Manager) onchainOnboard(ctx context.Context, s *session, email string) (string, error) {
	contracts, err := m.ledger.Contracts(ctx, m.cfg.Registry)
	if err != nil {
		// degrade to empty addresses; the wallet provider rejects
		// them and the failure surfaces there
		m.logger.Warn("ledger.Contracts", "err", err)
		contracts = map[string]string{}
	}

	oracle, err := m.ledger.FundsOracle(ctx, m.cfg.Registry)
	if err != nil {
		m.logger.Warn("ledger.FundsOracle", "err", err)
	}

	spec := core.WalletSpec{
		Email:            email,
		DelegatedSigners: []string{"external-wallet:" + oracle},
	}
	if policy := contracts[contractPolicy]; policy != "" {
		spec.Plugins = []string{policy}
	}

	wallet, err := m.walletz.GetOrCreate(ctx, spec)
	if err != nil {
		return "", err
	}

	s.mux.Lock()
	s.flow.WalletAddress = wallet.Address
	s.mux.Unlock()

	if err := m.wallets.Save(ctx, email, wallet.Address); err != nil {
		m.logger.Error("wallets.Save", "email", email, "err", err)
	}

	if _, err := m.walletz.SendTransaction(ctx, wallet.Address, core.ContractCall{
		ContractID: m.cfg.PrimeContract,
		Method:     methodPrime,
		Args:       map[string]any{"caller": wallet.Address},
	}); err != nil {
		return "", err
	}

	if _, err := m.walletz.SendTransaction(ctx, wallet.Address, core.ContractCall{
		ContractID: contracts[contractAccounts],
		Method:     methodRegister,
		Args: map[string]any{
			"parent_entity": m.cfg.ParentEntity,
			"wallet":        wallet.Address,
			"owner":         wallet.Address,
		},
	}); err != nil {
		return "", err
	}

	m.logger.Info("on-chain onboarding done", "email", email, "wallet", wallet.Address)
	return wallet.Address, nil
}

// createUser finds or creates the issuer-side user bound to the wallet.
// On failure the flow holds at creating-wirex-user so Start can retry.
func (m *Manager) createUser(ctx context.Context, s *session, email, address string) (*core.Flow, bool) {
	s.mux.Lock()
	s.flow.Step = core.StepCreatingUser
	s.mux.Unlock()

	user, exists, err := m.users.Find(ctx, email)
	if err == nil && !exists {
		user, err = m.users.Create(ctx, email, m.cfg.Country, address)
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	if err != nil {
		s.flow.Error = err.Error()
		return s.snapshotLocked(), false
	}

	s.flow.User = user
	s.ready = true
	return nil, true
}

// requestVerification fetches the KYC link and parks the flow at
// kyc-pending, where the poller takes over. A link failure holds at
// kyc-verification for retry; polling runs either way.
func (m *Manager) requestVerification(ctx context.Context, s *session, email string) *core.Flow {
	s.mux.Lock()
	s.flow.Step = core.StepKYCVerification
	s.mux.Unlock()

	link, err := m.users.VerificationLink(ctx, email)

	s.mux.Lock()
	defer s.mux.Unlock()

	if err != nil {
		s.flow.Error = err.Error()
	} else {
		s.flow.VerificationLink = link
		s.flow.Step = core.StepKYCPending
	}

	m.startPollLocked(s)
	return s.snapshotLocked()
}
