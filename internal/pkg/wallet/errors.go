package wallet

import "errors"

// Money-domain sentinel errors shared by the transfer, payments and checkout
// services. Controllers map them onto structured JSON error payloads.
var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrCurrencyMismatch  = errors.New("currency mismatch")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrWalletNotFound    = errors.New("wallet not found")
)
