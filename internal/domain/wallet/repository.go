package wallet

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines wallet persistence operations.
// Balance mutations are only valid inside the atomic sections of the
// settlement and transfer services; there is no standalone balance setter.
type Repository interface {
	Create(ctx context.Context, w *Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*Wallet, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Wallet, error)
	GetByWalletNumber(ctx context.Context, walletNumber string) (*Wallet, error)
	Update(ctx context.Context, w *Wallet) error

	// LockForUpdate acquires a row-level pessimistic lock on the wallet.
	// Must be called within a transaction.
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Wallet, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrConcurrentModification indicates optimistic lock failure
type ErrConcurrentModification struct {
	WalletID uuid.UUID
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for wallet: " + e.WalletID.String()
}

// ErrWalletNotFound indicates a missing wallet. Exactly one of the lookup
// fields is set, depending on which key the lookup used.
type ErrWalletNotFound struct {
	WalletID     uuid.UUID
	UserID       uuid.UUID
	WalletNumber string
}

func (e ErrWalletNotFound) Error() string {
	switch {
	case e.WalletNumber != "":
		return "wallet not found for wallet number: " + e.WalletNumber
	case e.UserID != uuid.Nil:
		return "wallet not found for user: " + e.UserID.String()
	default:
		return "wallet not found: " + e.WalletID.String()
	}
}

// Is implements the errors.Is interface for ErrWalletNotFound
func (e ErrWalletNotFound) Is(target error) bool {
	t, ok := target.(ErrWalletNotFound)
	if !ok {
		return false
	}
	// A zero-value target matches any ErrWalletNotFound
	if t.WalletID == uuid.Nil && t.UserID == uuid.Nil && t.WalletNumber == "" {
		return true
	}
	return e == t
}

// ErrDuplicateWalletNumber indicates a wallet number uniqueness violation.
// Callers should regenerate the number and retry.
type ErrDuplicateWalletNumber struct {
	WalletNumber string
}

func (e ErrDuplicateWalletNumber) Error() string {
	return "wallet number already in use: " + e.WalletNumber
}
