package wallet

import (
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInsufficientFunds = errors.New("insufficient funds for transfer")
	ErrSelfTransfer      = errors.New("cannot transfer to own wallet")
	ErrMissingOwner      = errors.New("wallet owner cannot be empty")
)

// WalletNumberLength is the length of the externally shared wallet identifier
const WalletNumberLength = 13

// Wallet represents a user's custodial wallet
type Wallet struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	WalletNumber string          `json:"wallet_number"`
	Balance      decimal.Decimal `json:"balance"` // Exact decimal, 2 dp
	Version      int             `json:"version"` // For optimistic locking
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewWallet creates a zero-balance wallet for the given owner with a freshly
// generated wallet number. The number is not guaranteed unique; callers must
// resample on a uniqueness conflict.
func NewWallet(userID uuid.UUID) (*Wallet, error) {
	if userID == uuid.Nil {
		return nil, ErrMissingOwner
	}

	return &Wallet{
		ID:           uuid.New(),
		UserID:       userID,
		WalletNumber: GenerateWalletNumber(),
		Balance:      decimal.Zero,
		Version:      1,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}, nil
}

// GenerateWalletNumber returns a random 13-digit numeric string
func GenerateWalletNumber() string {
	digits := make([]byte, WalletNumberLength)
	for i := range digits {
		digits[i] = byte('0' + rand.Intn(10))
	}
	return string(digits)
}

// Credit adds the specified amount to the wallet balance
func (w *Wallet) Credit(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	w.Balance = w.Balance.Add(amount)
	w.UpdatedAt = time.Now()
	w.Version++
	return nil
}

// Debit subtracts the specified amount from the wallet balance.
// The balance is never allowed to go below zero.
func (w *Wallet) Debit(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if w.Balance.LessThan(amount) {
		return ErrInsufficientFunds
	}

	w.Balance = w.Balance.Sub(amount)
	w.UpdatedAt = time.Now()
	w.Version++
	return nil
}

// CanDebit checks if the wallet has sufficient funds for a debit
func (w *Wallet) CanDebit(amount decimal.Decimal) bool {
	return w.Balance.GreaterThanOrEqual(amount)
}
