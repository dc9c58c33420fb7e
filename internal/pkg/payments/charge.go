package payments

import "errors"

// ErrChargeDeclined is returned when the PSP refuses the card charge.
var ErrChargeDeclined = errors.New("charge declined by payment provider")

// ChargeProcessor is the boundary to the real PSP. The service only records
// intents and confirmations around it; token validation and the actual money
// movement belong to the provider.
type ChargeProcessor interface {
	Charge(token string, amountCents int64) error
}

// SimulatedProcessor approves every charge. Used in development and as the
// default until a real PSP client is configured.
type SimulatedProcessor struct{}

func (SimulatedProcessor) Charge(token string, amountCents int64) error {
	return nil
}

// ChargeProcessorFunc adapts a function to the ChargeProcessor interface.
type ChargeProcessorFunc func(token string, amountCents int64) error

func (f ChargeProcessorFunc) Charge(token string, amountCents int64) error {
	return f(token, amountCents)
}
