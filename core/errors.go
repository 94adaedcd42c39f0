package core

import "fmt"

// AuthError is a failed token exchange with the auth endpoint.
type AuthError struct {
	Status int
	Body   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth: token exchange failed (%d): %s", e.Status, e.Body)
}

// APIError is any non-success response from the issuer API, carrying the
// raw response body.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("issuer: request failed (%d): %s", e.Status, e.Body)
}

// ContractReadError is a failed ledger simulation.
type ContractReadError struct {
	Method string
	Err    error
}

func (e *ContractReadError) Error() string {
	return fmt.Sprintf("ledger: read %s: %v", e.Method, e.Err)
}

func (e *ContractReadError) Unwrap() error { return e.Err }

// WalletError is a wallet provider failure during creation or transaction
// submission.
type WalletError struct {
	Op  string
	Err error
}

func (e *WalletError) Error() string {
	return fmt.Sprintf("wallet: %s: %v", e.Op, e.Err)
}

func (e *WalletError) Unwrap() error { return e.Err }
