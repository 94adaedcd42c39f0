// Package onboarding reconciles three independently progressing systems --
// on-chain wallet creation, issuer KYC status and SMS phone confirmation --
// into one linear flow per user. The current step is derived from remote
// state (core.DeriveStep); sessions only hold what cannot be re-derived.
package onboarding

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/lumapay/onboard/core"
)

type Config struct {
	Country       string `valid:"required"`
	Registry      string `valid:"required"`
	ParentEntity  string `valid:"required"`
	PrimeContract string `valid:"required"`
	PollInterval  time.Duration
}

func New(
	users core.UserService,
	confirmations core.ConfirmationService,
	ledger core.LedgerReader,
	walletz core.WalletService,
	wallets core.WalletStore,
	logger *slog.Logger,
	cfg Config,
) *Manager {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		users:         users,
		confirmations: confirmations,
		ledger:        ledger,
		walletz:       walletz,
		wallets:       wallets,
		logger:        logger.With("service", "onboarding"),
		cfg:           cfg,
		sessions:      map[string]*session{},
		baseCtx:       ctx,
		cancel:        cancel,
	}
}

type Manager struct {
	users         core.UserService
	confirmations core.ConfirmationService
	ledger        core.LedgerReader
	walletz       core.WalletService
	wallets       core.WalletStore
	logger        *slog.Logger
	cfg           Config

	mux      sync.Mutex
	sessions map[string]*session

	// baseCtx owns every session poller; Close tears them all down.
	baseCtx context.Context
	cancel  context.CancelFunc
}

type session struct {
	mux        sync.Mutex
	flow       core.Flow
	ready      bool
	lastSeen   time.Time
	cancelPoll context.CancelFunc
}

// stopPollLocked cancels the session poller. Callers hold s.mux.
func (s *session) stopPollLocked() {
	if s.cancelPoll != nil {
		s.cancelPoll()
		s.cancelPoll = nil
	}
}

func (s *session) snapshotLocked() *core.Flow {
	flow := s.flow
	return &flow
}

func (m *Manager) Close() {
	m.cancel()
}

func (m *Manager) session(email string) *session {
	m.mux.Lock()
	defer m.mux.Unlock()

	s, ok := m.sessions[email]
	if !ok {
		s = &session{flow: core.Flow{Email: email, Step: core.StepInitial}}
		m.sessions[email] = s
	}

	s.lastSeen = time.Now()
	return s
}

// Resume rebuilds the session for email from the issuer's record. A user
// coming back after a reload lands exactly where the remote state says
// they are, not where the client last thought.
func (m *Manager) Resume(ctx context.Context, email string) (*core.Flow, error) {
	s := m.session(email)

	s.mux.Lock()
	defer s.mux.Unlock()

	if s.ready {
		return s.snapshotLocked(), nil
	}

	if address, err := m.wallets.Find(ctx, email); err != nil {
		m.logger.Warn("wallets.Find", "email", email, "err", err)
	} else if address != "" {
		s.flow.WalletAddress = address
	}

	user, exists, err := m.users.Find(ctx, email)
	if err != nil {
		// transient: report, keep the session cold so the next
		// resume retries the fetch
		m.logger.Error("users.Find", "email", email, "err", err)
		flow := s.snapshotLocked()
		flow.Error = err.Error()
		return flow, nil
	}

	s.ready = true

	if !exists {
		s.flow.Step = core.StepInitial
		return s.snapshotLocked(), nil
	}

	s.flow.User = user
	s.flow.Step = core.DeriveStep(user)

	if s.flow.WalletAddress == "" {
		s.flow.WalletAddress = user.WalletAddress
	}

	if s.flow.Step.Polling() {
		// best effort; a missing link never blocks the step
		if link, err := m.users.VerificationLink(ctx, email); err == nil {
			s.flow.VerificationLink = link
		} else {
			m.logger.Warn("users.VerificationLink", "email", email, "err", err)
		}

		m.startPollLocked(s)
	}

	return s.snapshotLocked(), nil
}

// Sweep discards sessions idle for longer than maxIdle, cancelling their
// pollers, and reports how many were dropped.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	now := time.Now()

	m.mux.Lock()
	defer m.mux.Unlock()

	var dropped int
	for email, s := range m.sessions {
		s.mux.Lock()
		idle := now.Sub(s.lastSeen)
		if idle > maxIdle {
			s.stopPollLocked()
			delete(m.sessions, email)
			dropped++
		}
		s.mux.Unlock()
	}

	return dropped
}
