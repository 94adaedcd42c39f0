package core

import "context"

type VerificationStatus string

const (
	VerificationNone      VerificationStatus = "None"
	VerificationApplied   VerificationStatus = "Applied"
	VerificationInReview  VerificationStatus = "InReview"
	VerificationApproved  VerificationStatus = "Approved"
	VerificationCancelled VerificationStatus = "Cancelled"
	VerificationRejected  VerificationStatus = "Rejected"
	VerificationPending   VerificationStatus = "Pending"
)

type UserStatus string

const (
	UserStatusPending UserStatus = "Pending"
	UserStatusActive  UserStatus = "Active"
	UserStatusBlocked UserStatus = "Blocked"
	UserStatusDeleted UserStatus = "Deleted"
)

type ActionType string

const (
	ActionVerify         ActionType = "Verify"
	ActionConfirmPhone   ActionType = "ConfirmPhone"
	ActionGetCardDetails ActionType = "GetCardDetails"
)

type UserAction struct {
	Type         ActionType `json:"type"`
	RelativePath string     `json:"relative_path"`
}

type ResidenceAddress struct {
	Line1   string `json:"line1"`
	Line2   string `json:"line2"`
	Country string `json:"country"`
	City    string `json:"city"`
	ZipCode string `json:"zip_code"`
	State   string `json:"state"`
}

type PersonalInfo struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Nationality string `json:"nationality"`
}

type PhoneNumberData struct {
	PhoneNumber string `json:"phone_number"`
	IsConfirmed bool   `json:"is_confirmed"`
}

type Capability struct {
	Type          string   `json:"type"`
	Prerequisites []string `json:"prerequisites"`
	Status        string   `json:"status"`
	StatusReason  string   `json:"status_reason"`
}

// User is the issuer's view of an onboarded user.
type User struct {
	ID                 string             `json:"id"`
	Email              string             `json:"email"`
	WalletAddress      string             `json:"wallet_address"`
	ResidenceAddress   ResidenceAddress   `json:"residence_address"`
	PersonalInfo       PersonalInfo       `json:"personal_info"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	UserStatus         UserStatus         `json:"user_status"`
	PhoneNumberData    PhoneNumberData    `json:"phone_number_data"`
	UserActions        []UserAction       `json:"user_actions"`
	Capabilities       []Capability       `json:"capabilities"`
}

// HasAction reports whether an action of the given type is still pending.
func (u *User) HasAction(typ ActionType) bool {
	for _, action := range u.UserActions {
		if action.Type == typ {
			return true
		}
	}

	return false
}

func (u *User) FullName() string {
	return u.PersonalInfo.FirstName + " " + u.PersonalInfo.LastName
}

type UserService interface {
	// Find reports existence via the bool instead of an error so callers
	// can tell "no such user" apart from a failed request.
	Find(ctx context.Context, email string) (*User, bool, error)
	Create(ctx context.Context, email, country, walletAddress string) (*User, error)
	VerificationLink(ctx context.Context, email string) (string, error)
}

type SignatureProof struct {
	ActionType       ActionType `json:"action_type"`
	Nonce            int64      `json:"nonce"`
	MessageSignature string     `json:"message_signature"`
}

type ConfirmationService interface {
	SendSMS(ctx context.Context, email string, action ActionType) (sessionID string, err error)
	VerifySMS(ctx context.Context, email, code, sessionID string) (actionToken string, err error)
	ConfirmPhone(ctx context.Context, email, actionToken string) error
	VerifySignature(ctx context.Context, email string, proof SignatureProof) (actionToken string, err error)
}
