package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrForbidden occurs when a caller acts on a transaction whose wallet
// belongs to another user
var ErrForbidden = errors.New("transaction does not belong to this user")

// ErrAmountBelowMinimum occurs when a deposit is opened below the configured
// floor
type ErrAmountBelowMinimum struct {
	Minimum decimal.Decimal
}

func (e *ErrAmountBelowMinimum) Error() string {
	return fmt.Sprintf("deposit amount is below the minimum of %s", e.Minimum.StringFixed(2))
}

// Is implements error matching for errors.Is
func (e *ErrAmountBelowMinimum) Is(target error) bool {
	t, ok := target.(*ErrAmountBelowMinimum)
	if !ok {
		return false
	}
	return t.Minimum.IsZero() || t.Minimum.Equal(e.Minimum)
}

// ErrAmountMismatch occurs when the externally reported amount diverges from
// the recorded transaction amount beyond the configured tolerance. The
// transaction is marked failed and the wallet is never credited.
type ErrAmountMismatch struct {
	Reference string
	Expected  decimal.Decimal
	Received  decimal.Decimal
}

func (e *ErrAmountMismatch) Error() string {
	return fmt.Sprintf("amount mismatch for reference %s: expected %s, received %s",
		e.Reference, e.Expected.StringFixed(2), e.Received.StringFixed(2))
}

// Is implements error matching for errors.Is
func (e *ErrAmountMismatch) Is(target error) bool {
	t, ok := target.(*ErrAmountMismatch)
	if !ok {
		return false
	}
	return t.Reference == "" || t.Reference == e.Reference
}

// ErrPaymentNotSuccessful occurs when manual verification finds the external
// payment in a non-success state. The deposit stays pending.
type ErrPaymentNotSuccessful struct {
	Reference string
	Status    string
}

func (e *ErrPaymentNotSuccessful) Error() string {
	return fmt.Sprintf("payment %s is not successful: status is %q", e.Reference, e.Status)
}

// Is implements error matching for errors.Is
func (e *ErrPaymentNotSuccessful) Is(target error) bool {
	t, ok := target.(*ErrPaymentNotSuccessful)
	if !ok {
		return false
	}
	return t.Reference == "" || t.Reference == e.Reference
}
