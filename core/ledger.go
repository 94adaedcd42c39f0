package core

import "context"

// LedgerReader performs read-only simulated calls against the on-chain
// contract registry. It never signs or broadcasts.
type LedgerReader interface {
	Contracts(ctx context.Context, registryID string) (map[string]string, error)
	FundsOracle(ctx context.Context, registryID string) (string, error)
}
