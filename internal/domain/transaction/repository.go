package transaction

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository manages ledger entry persistence
type Repository interface {
	Create(ctx context.Context, t *Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	GetByReference(ctx context.Context, reference string) (*Transaction, error)

	// LockByReference acquires a row-level pessimistic lock on the entry with
	// the given reference. Must be called within a transaction; it serializes
	// racing settlement attempts for the same reference.
	LockByReference(ctx context.Context, reference string) (*Transaction, error)

	// BindReference attaches the external payment reference to a pending
	// entry. References are unique system-wide.
	BindReference(ctx context.Context, id uuid.UUID, reference string) error

	// UpdateStatus moves the entry to the given status and merges the extra
	// metadata keys into its metadata bag.
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, metadata map[string]any) error

	// ListByWalletID returns entries for a wallet, newest first
	ListByWalletID(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*Transaction, error)
	CountByWalletID(ctx context.Context, walletID uuid.UUID) (int64, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrTransactionNotFound indicates a missing ledger entry. One of the lookup
// fields is set, depending on which key the lookup used.
type ErrTransactionNotFound struct {
	TransactionID uuid.UUID
	Reference     string
}

func (e ErrTransactionNotFound) Error() string {
	if e.Reference != "" {
		return "transaction not found for reference: " + e.Reference
	}
	return "transaction not found: " + e.TransactionID.String()
}

// Is implements the errors.Is interface for ErrTransactionNotFound
func (e ErrTransactionNotFound) Is(target error) bool {
	t, ok := target.(ErrTransactionNotFound)
	if !ok {
		return false
	}
	// A zero-value target matches any ErrTransactionNotFound
	if t.TransactionID == uuid.Nil && t.Reference == "" {
		return true
	}
	return e == t
}

// ErrDuplicateReference indicates a reference uniqueness violation
type ErrDuplicateReference struct {
	Reference string
}

func (e ErrDuplicateReference) Error() string {
	return "transaction reference already bound: " + e.Reference
}
