// Package postgres provides PostgreSQL implementations of the domain repositories.
// Wallets and ledger entries live here because balance mutations and their
// ledger entries must share one transactional boundary.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/custodia-wallet-engine/internal/domain/wallet"
	"github.com/custodia-wallet-engine/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

// isUniqueViolation reports whether err is a violation of the given unique constraint
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolationCode && (constraint == "" || pgErr.ConstraintName == constraint)
}

// WalletRepository implements the wallet.Repository interface for PostgreSQL
type WalletRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewWalletRepository creates a new PostgreSQL wallet repository.
// It expects db.Pool() to satisfy persistence.Querier.
func NewWalletRepository(logger *slog.Logger, db *persistence.PostgresDB) wallet.Repository {
	return &WalletRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic operations
// across multiple repository calls. The returned repository will use the provided
// transaction for all database operations.
func (r *WalletRepository) WithTx(tx pgx.Tx) wallet.Repository {
	return &WalletRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new wallet. A wallet number collision surfaces as
// ErrDuplicateWalletNumber so the caller can resample and retry.
func (r *WalletRepository) Create(ctx context.Context, w *wallet.Wallet) error {
	query := `
		INSERT INTO wallets (id, user_id, wallet_number, balance, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.querier.Exec(ctx, query,
		w.ID,
		w.UserID,
		w.WalletNumber,
		w.Balance,
		w.Version,
		w.CreatedAt,
		w.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "wallets_wallet_number_key") {
			return wallet.ErrDuplicateWalletNumber{WalletNumber: w.WalletNumber}
		}
		r.logger.Error("Failed to create wallet", "error", err)
		return fmt.Errorf("failed to create wallet: %w", err)
	}

	return nil
}

// GetByID retrieves a wallet by its ID
func (r *WalletRepository) GetByID(ctx context.Context, id uuid.UUID) (*wallet.Wallet, error) {
	query := `
		SELECT id, user_id, wallet_number, balance, version, created_at, updated_at
		FROM wallets
		WHERE id = $1
	`

	w, err := r.scanWallet(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, wallet.ErrWalletNotFound{WalletID: id}
		}
		r.logger.Error("Failed to get wallet", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	return w, nil
}

// GetByUserID retrieves the wallet owned by the given user
func (r *WalletRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*wallet.Wallet, error) {
	query := `
		SELECT id, user_id, wallet_number, balance, version, created_at, updated_at
		FROM wallets
		WHERE user_id = $1
	`

	w, err := r.scanWallet(r.querier.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, wallet.ErrWalletNotFound{UserID: userID}
		}
		r.logger.Error("Failed to get wallet by user", "user_id", userID.String(), "error", err)
		return nil, fmt.Errorf("failed to get wallet by user: %w", err)
	}

	return w, nil
}

// GetByWalletNumber retrieves a wallet by its externally shared wallet number
func (r *WalletRepository) GetByWalletNumber(ctx context.Context, walletNumber string) (*wallet.Wallet, error) {
	query := `
		SELECT id, user_id, wallet_number, balance, version, created_at, updated_at
		FROM wallets
		WHERE wallet_number = $1
	`

	w, err := r.scanWallet(r.querier.QueryRow(ctx, query, walletNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, wallet.ErrWalletNotFound{WalletNumber: walletNumber}
		}
		r.logger.Error("Failed to get wallet by number", "wallet_number", walletNumber, "error", err)
		return nil, fmt.Errorf("failed to get wallet by number: %w", err)
	}

	return w, nil
}

// Update persists wallet state using the version column for optimistic locking
func (r *WalletRepository) Update(ctx context.Context, w *wallet.Wallet) error {
	query := `
		UPDATE wallets
		SET balance = $1, version = $2, updated_at = $3
		WHERE id = $4 AND version = $5
	`

	result, err := r.querier.Exec(ctx, query,
		w.Balance,
		w.Version,
		w.UpdatedAt,
		w.ID,
		w.Version-1, // Check previous version for optimistic locking
	)
	if err != nil {
		r.logger.Error("Failed to update wallet", "id", w.ID.String(), "error", err)
		return fmt.Errorf("failed to update wallet: %w", err)
	}

	if result.RowsAffected() == 0 {
		return wallet.ErrConcurrentModification{WalletID: w.ID}
	}

	return nil
}

// LockForUpdate obtains a pessimistic lock on the wallet row and returns its
// current state. Must be used within a transaction; concurrent writers to the
// same wallet serialize here.
func (r *WalletRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*wallet.Wallet, error) {
	query := `
		SELECT id, user_id, wallet_number, balance, version, created_at, updated_at
		FROM wallets
		WHERE id = $1
		FOR UPDATE
	`

	w, err := r.scanWallet(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, wallet.ErrWalletNotFound{WalletID: id}
		}
		r.logger.Error("Failed to lock wallet for update", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock wallet for update: %w", err)
	}

	return w, nil
}

func (r *WalletRepository) scanWallet(row pgx.Row) (*wallet.Wallet, error) {
	var w wallet.Wallet
	err := row.Scan(
		&w.ID,
		&w.UserID,
		&w.WalletNumber,
		&w.Balance,
		&w.Version,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}
