package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/custodia-wallet-engine/internal/domain/transaction"
	"github.com/custodia-wallet-engine/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const transactionColumns = "id, wallet_id, type, amount, status, reference, recipient_wallet_id, metadata, created_at, updated_at"

// TransactionRepository implements the transaction.Repository interface for PostgreSQL
type TransactionRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewTransactionRepository creates a new PostgreSQL ledger entry repository
func NewTransactionRepository(logger *slog.Logger, db *persistence.PostgresDB) transaction.Repository {
	return &TransactionRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so ledger writes can share
// an atomic section with wallet balance updates
func (r *TransactionRepository) WithTx(tx pgx.Tx) transaction.Repository {
	return &TransactionRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new ledger entry
func (r *TransactionRepository) Create(ctx context.Context, t *transaction.Transaction) error {
	query := `
		INSERT INTO transactions (id, wallet_id, type, amount, status, reference, recipient_wallet_id, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	metadata, err := marshalMetadata(t.Metadata)
	if err != nil {
		return err
	}

	_, err = r.querier.Exec(ctx, query,
		t.ID,
		t.WalletID,
		t.Type,
		t.Amount,
		t.Status,
		t.Reference,
		t.RecipientWalletID,
		metadata,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "transactions_reference_key") {
			ref := ""
			if t.Reference != nil {
				ref = *t.Reference
			}
			return transaction.ErrDuplicateReference{Reference: ref}
		}
		r.logger.Error("Failed to create transaction", "id", t.ID.String(), "error", err)
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a ledger entry by its ID
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE id = $1
	`

	t, err := r.scanTransaction(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrTransactionNotFound{TransactionID: id}
		}
		r.logger.Error("Failed to get transaction", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return t, nil
}

// GetByReference retrieves a ledger entry by its external payment reference
func (r *TransactionRepository) GetByReference(ctx context.Context, reference string) (*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE reference = $1
	`

	t, err := r.scanTransaction(r.querier.QueryRow(ctx, query, reference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrTransactionNotFound{Reference: reference}
		}
		r.logger.Error("Failed to get transaction by reference", "reference", reference, "error", err)
		return nil, fmt.Errorf("failed to get transaction by reference: %w", err)
	}

	return t, nil
}

// LockByReference obtains a pessimistic lock on the ledger entry with the
// given reference. Must be used within a transaction; racing settlements of
// the same reference serialize here so the second racer observes the
// completed status written by the first.
func (r *TransactionRepository) LockByReference(ctx context.Context, reference string) (*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE reference = $1
		FOR UPDATE
	`

	t, err := r.scanTransaction(r.querier.QueryRow(ctx, query, reference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrTransactionNotFound{Reference: reference}
		}
		r.logger.Error("Failed to lock transaction by reference", "reference", reference, "error", err)
		return nil, fmt.Errorf("failed to lock transaction by reference: %w", err)
	}

	return t, nil
}

// BindReference attaches the gateway-issued reference to a pending entry.
// The unique constraint on reference makes it the settlement idempotency key.
func (r *TransactionRepository) BindReference(ctx context.Context, id uuid.UUID, reference string) error {
	query := `
		UPDATE transactions
		SET reference = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.querier.Exec(ctx, query, reference, id)
	if err != nil {
		if isUniqueViolation(err, "transactions_reference_key") {
			return transaction.ErrDuplicateReference{Reference: reference}
		}
		r.logger.Error("Failed to bind transaction reference", "id", id.String(), "reference", reference, "error", err)
		return fmt.Errorf("failed to bind transaction reference: %w", err)
	}

	if result.RowsAffected() == 0 {
		return transaction.ErrTransactionNotFound{TransactionID: id}
	}

	return nil
}

// UpdateStatus moves the entry to the given status and merges the extra
// metadata keys into its existing metadata bag
func (r *TransactionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status transaction.Status, metadata map[string]any) error {
	query := `
		UPDATE transactions
		SET status = $1, metadata = COALESCE(metadata, '{}'::jsonb) || $2::jsonb, updated_at = NOW()
		WHERE id = $3
	`

	extra, err := marshalMetadata(metadata)
	if err != nil {
		return err
	}

	result, err := r.querier.Exec(ctx, query, status, extra, id)
	if err != nil {
		r.logger.Error("Failed to update transaction status", "id", id.String(), "status", string(status), "error", err)
		return fmt.Errorf("failed to update transaction status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return transaction.ErrTransactionNotFound{TransactionID: id}
	}

	return nil
}

// ListByWalletID retrieves paginated ledger entries for a wallet,
// newest first
func (r *TransactionRepository) ListByWalletID(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, walletID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list transactions", "wallet_id", walletID.String(), "error", err)
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var entries []*transaction.Transaction
	for rows.Next() {
		t, err := r.scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		entries = append(entries, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}

	return entries, nil
}

// CountByWalletID counts the total number of ledger entries for a wallet
func (r *TransactionRepository) CountByWalletID(ctx context.Context, walletID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM transactions WHERE wallet_id = $1`

	var count int64
	if err := r.querier.QueryRow(ctx, query, walletID).Scan(&count); err != nil {
		r.logger.Error("Failed to count transactions", "wallet_id", walletID.String(), "error", err)
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	return count, nil
}

func (r *TransactionRepository) scanTransaction(row pgx.Row) (*transaction.Transaction, error) {
	var (
		t        transaction.Transaction
		metadata []byte
	)
	err := row.Scan(
		&t.ID,
		&t.WalletID,
		&t.Type,
		&t.Amount,
		&t.Status,
		&t.Reference,
		&t.RecipientWalletID,
		&metadata,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &t.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode transaction metadata: %w", err)
		}
	}

	return &t, nil
}

// marshalMetadata renders the metadata bag as JSONB bytes, defaulting to an
// empty document so jsonb concatenation stays well-defined
func marshalMetadata(metadata map[string]any) ([]byte, error) {
	if metadata == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction metadata: %w", err)
	}
	return data, nil
}
