package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type CardStatus string

const (
	CardStatusActive   CardStatus = "Active"
	CardStatusInactive CardStatus = "Inactive"
	CardStatusBlocked  CardStatus = "Blocked"
	CardStatusClosed   CardStatus = "Closed"
)

type CardLimit struct {
	DailyLimit decimal.Decimal `json:"daily_limit"`
	DailyUsage decimal.Decimal `json:"daily_usage"`
	Currency   string          `json:"currency"`
}

type CardData struct {
	NameOnCard      string `json:"name_on_card"`
	PaymentSystem   string `json:"payment_system"`
	CardNumberLast4 string `json:"card_number_last_4"`
	ExpiryDate      string `json:"expiry_date"`
	Format          string `json:"format"`
	CardName        string `json:"card_name"`
}

type Card struct {
	ID                string       `json:"id"`
	CardWalletAddress string       `json:"card_wallet_address"`
	Status            CardStatus   `json:"status"`
	Limit             CardLimit    `json:"limit"`
	AllowedActions    []UserAction `json:"allowed_actions"`
	CreatedAt         time.Time    `json:"created_at"`
	CardData          CardData     `json:"card_data"`
}

// CardDetails carries the unmasked number and cvv. Never persisted.
type CardDetails struct {
	CardNumber string `json:"card_number"`
	CVV        string `json:"cvv"`
}

type CardService interface {
	Issue(ctx context.Context, email, cardName, nameOnCard string) (*Card, error)
	List(ctx context.Context, email string) ([]*Card, error)
	// Details reveals number and cvv; requires an action token obtained
	// from a signature confirmation.
	Details(ctx context.Context, email, cardID, actionToken string) (*CardDetails, error)
}
