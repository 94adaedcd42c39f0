package onboarding

import (
	"context"
	"time"

	"github.com/lumapay/onboard/core"
)

// startPollLocked spins up the status poller for a session sitting in a
// KYC step. Callers hold s.mux. The poller is owned by the step: it
// cancels itself the moment the step leaves the KYC set, and the manager
// context or a sweep can cancel it from outside.
func (m *Manager) startPollLocked(s *session) {
	if s.cancelPoll != nil {
		return
	}

	if !s.flow.Step.Polling() {
		return
	}

	ctx, cancel := context.WithCancel(m.baseCtx)
	s.cancelPoll = cancel

	go m.poll(ctx, s)
}

func (m *Manager) poll(ctx context.Context, s *session) {
	s.mux.Lock()
	email := s.flow.Email
	s.mux.Unlock()

	logger := m.logger.With("worker", "poller", "email", email)
	logger.Info("kyc status poll start", "interval", m.cfg.PollInterval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(m.cfg.PollInterval):
		}

		user, exists, err := m.users.Find(ctx, email)
		if err != nil {
			// transient; keep polling
			logger.Error("users.Find", "err", err)
			continue
		}

		if !exists {
			logger.Warn("remote user vanished while polling")
			continue
		}

		s.mux.Lock()

		if !s.flow.Step.Polling() {
			// something else moved the flow; this poller is stale
			s.stopPollLocked()
			s.mux.Unlock()
			return
		}

		s.flow.User = user

		if user.HasAction(core.ActionVerify) {
			s.mux.Unlock()
			continue
		}

		if user.HasAction(core.ActionConfirmPhone) {
			s.flow.Step = core.StepSMSConfirmation
		} else {
			s.flow.Step = core.StepCompleted
		}

		step := s.flow.Step
		s.stopPollLocked()
		s.mux.Unlock()

		logger.Info("verification settled", "step", step)
		return
	}
}
