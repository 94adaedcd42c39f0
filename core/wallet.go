package core

import (
	"context"
	"time"
)

type Wallet struct {
	Address   string    `json:"address"`
	Chain     string    `json:"chain"`
	CreatedAt time.Time `json:"created_at"`
}

type WalletSpec struct {
	Email            string   `json:"email"`
	Plugins          []string `json:"plugins,omitempty"`
	DelegatedSigners []string `json:"delegated_signers,omitempty"`
}

type ContractCall struct {
	ContractID string         `json:"contract_id"`
	Method     string         `json:"method"`
	Args       map[string]any `json:"args,omitempty"`
}

// WalletService talks to the external wallet provider. Provider internals
// are out of scope; this is the surface the reconciler relies on.
type WalletService interface {
	GetOrCreate(ctx context.Context, spec WalletSpec) (*Wallet, error)
	SendTransaction(ctx context.Context, address string, call ContractCall) (hash string, err error)
}

// WalletStore remembers the wallet address bound to an email so a session
// can resume without asking the provider again.
type WalletStore interface {
	Save(ctx context.Context, email, address string) error
	Find(ctx context.Context, email string) (string, error)
}
