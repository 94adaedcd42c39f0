package onboarding

import (
	"context"

	"github.com/lumapay/onboard/core"
)

// SendSMS kicks off phone confirmation: the issuer texts a code and hands
// back a session id consumed by VerifySMS. Repeated sends replace the
// pending session.
func (m *Manager) SendSMS(ctx context.Context, email string) (*core.Flow, error) {
	s := m.session(email)

	s.mux.Lock()
	if s.flow.Step != core.StepSMSConfirmation {
		defer s.mux.Unlock()
		s.flow.Error = "sms confirmation is not pending"
		return s.snapshotLocked(), nil
	}
	s.flow.Error = ""
	s.mux.Unlock()

	sessionID, err := m.confirmations.SendSMS(ctx, email, core.ActionConfirmPhone)

	s.mux.Lock()
	defer s.mux.Unlock()

	if err != nil {
		s.flow.Error = err.Error()
		return s.snapshotLocked(), nil
	}

	s.flow.SMSSessionID = sessionID
	return s.snapshotLocked(), nil
}

// VerifySMS runs the two sub-steps strictly in order: the code exchange
// must yield an action token before the phone confirmation is attempted.
// The flow only advances to completed once both succeeded.
func (m *Manager) VerifySMS(ctx context.Context, email, code string) (*core.Flow, error) {
	s := m.session(email)

	s.mux.Lock()
	if s.flow.Step != core.StepSMSConfirmation || s.flow.SMSSessionID == "" {
		defer s.mux.Unlock()
		s.flow.Error = "no sms confirmation in progress"
		return s.snapshotLocked(), nil
	}
	sessionID := s.flow.SMSSessionID
	s.flow.Error = ""
	s.mux.Unlock()

	token, err := m.confirmations.VerifySMS(ctx, email, code, sessionID)
	if err == nil {
		// fails on a missing token as well; an empty exchange result
		// must not complete the flow
		err = m.confirmations.ConfirmPhone(ctx, email, token)
	}

	s.mux.Lock()

	if err != nil {
		defer s.mux.Unlock()
		s.flow.Error = err.Error()
		return s.snapshotLocked(), nil
	}

	s.flow.Step = core.StepCompleted
	s.flow.SMSSessionID = ""
	s.mux.Unlock()

	// refresh the remote record so the snapshot reflects the confirmed
	// phone; the step stays completed regardless
	if user, exists, err := m.users.Find(ctx, email); err == nil && exists {
		s.mux.Lock()
		s.flow.User = user
		s.mux.Unlock()
	}

	s.mux.Lock()
	defer s.mux.Unlock()
	return s.snapshotLocked(), nil
}
