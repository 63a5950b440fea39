// Package gateway defines the port to the external payment processor.
// The settlement engine only ever talks to this interface; the concrete
// HTTP adapter lives in the paystack subpackage.
package gateway

import (
	"context"

	"github.com/shopspring/decimal"
)

// SettlementStatusSuccess is the processor's status value for a settled payment
const SettlementStatusSuccess = "success"

// PaymentInit is the result of initializing a payment with the processor
type PaymentInit struct {
	Reference   string // Processor-issued correlation string
	PaymentLink string // Redirect URL for the payer to complete payment
}

// PaymentVerification is the processor's view of a payment's settlement state.
// Amount is converted from the processor's minor units to major units.
type PaymentVerification struct {
	Reference string
	Status    string // Processor status value; "success" means settled
	Amount    decimal.Decimal
	Currency  string
	Raw       map[string]any // Untyped processor payload for audit metadata
}

// Client is the payment processor port consumed by the settlement engine
type Client interface {
	// Initialize asks the processor for a payment link and reference.
	// Fails with *Error on transport failure or a processor rejection.
	Initialize(ctx context.Context, email string, amount decimal.Decimal, metadata map[string]any) (*PaymentInit, error)

	// Verify fetches the settlement state for a reference. A payment the
	// processor reports as unsuccessful is returned with its status, not as
	// an error; only transport/processor failures return *Error.
	Verify(ctx context.Context, reference string) (*PaymentVerification, error)

	// VerifySignature checks the webhook HMAC signature over the exact raw
	// request body bytes.
	VerifySignature(payload []byte, signature string) bool
}

// Error wraps a failed interaction with the payment processor
type Error struct {
	Operation string // "initialize" or "verify"
	Message   string
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return "payment gateway " + e.Operation + " failed: " + e.Message + ": " + e.Err.Error()
	}
	return "payment gateway " + e.Operation + " failed: " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}
