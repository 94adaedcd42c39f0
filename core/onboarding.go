package core

import "context"

// OnboardingStep is the single user-facing position in the onboarding flow.
// It is derived from remote state, never set freely; only user-initiated
// transitions move it optimistically before the next derivation.
type OnboardingStep string

const (
	StepInitial         OnboardingStep = "initial"
	StepOnchainOnboard  OnboardingStep = "onchain-onboarding"
	StepCreatingUser    OnboardingStep = "creating-wirex-user"
	StepKYCVerification OnboardingStep = "kyc-verification"
	StepKYCPending      OnboardingStep = "kyc-pending"
	StepSMSConfirmation OnboardingStep = "sms-confirmation"
	StepCompleted       OnboardingStep = "completed"
)

// Polling reports whether the step is one of the KYC waiting steps that
// keeps a background status poll alive.
func (s OnboardingStep) Polling() bool {
	return s == StepKYCVerification || s == StepKYCPending
}

// DeriveStep maps the issuer's view of a user onto an onboarding step.
// A nil user means the remote record does not exist yet.
func DeriveStep(user *User) OnboardingStep {
	if user == nil {
		return StepInitial
	}

	if user.VerificationStatus == VerificationApproved && !user.HasAction(ActionConfirmPhone) {
		return StepCompleted
	}

	if len(user.UserActions) == 0 {
		return StepCompleted
	}

	if user.HasAction(ActionVerify) {
		switch user.VerificationStatus {
		case VerificationPending, VerificationInReview:
			return StepKYCPending
		default:
			return StepKYCVerification
		}
	}

	if user.HasAction(ActionConfirmPhone) {
		return StepSMSConfirmation
	}

	return StepCompleted
}

// Flow is a snapshot of one user's onboarding session.
type Flow struct {
	Email            string         `json:"email"`
	Step             OnboardingStep `json:"step"`
	WalletAddress    string         `json:"wallet_address,omitempty"`
	VerificationLink string         `json:"verification_link,omitempty"`
	SMSSessionID     string         `json:"sms_session_id,omitempty"`
	Error            string         `json:"error,omitempty"`
	User             *User          `json:"user,omitempty"`
}

type OnboardingService interface {
	// Resume loads or rebuilds the session for email from remote state.
	Resume(ctx context.Context, email string) (*Flow, error)
	// Start drives the on-chain onboarding chain through user creation
	// and the KYC verification link.
	Start(ctx context.Context, email string) (*Flow, error)
	SendSMS(ctx context.Context, email string) (*Flow, error)
	VerifySMS(ctx context.Context, email, code string) (*Flow, error)
}
