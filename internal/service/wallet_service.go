package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/custodia-wallet-engine/internal/domain/audit"
	"github.com/custodia-wallet-engine/internal/domain/transaction"
	"github.com/custodia-wallet-engine/internal/domain/user"
	"github.com/custodia-wallet-engine/internal/domain/wallet"
	"github.com/custodia-wallet-engine/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// maxWalletNumberAttempts bounds resampling on wallet number collisions
const maxWalletNumberAttempts = 5

// defaultPageSize applies when the caller does not request a page size
const defaultPageSize = 20

// maxPageSize caps a single transaction history page
const maxPageSize = 100

type walletService struct {
	db              persistence.TxManager
	userRepo        user.Repository
	walletRepo      wallet.Repository
	transactionRepo transaction.Repository
	auditRepo       audit.Repository
	logger          *slog.Logger
}

// NewWalletService creates a wallet service. auditRepo may be nil when the
// audit store is not configured; the audit read path then returns empty.
func NewWalletService(
	db persistence.TxManager,
	userRepo user.Repository,
	walletRepo wallet.Repository,
	transactionRepo transaction.Repository,
	auditRepo audit.Repository,
	logger *slog.Logger,
) WalletService {
	return &walletService{
		db:              db,
		userRepo:        userRepo,
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
		auditRepo:       auditRepo,
		logger:          logger,
	}
}

func (s *walletService) CreateUserWithWallet(ctx context.Context, email string) (*user.User, *wallet.Wallet, error) {
	usr, err := user.NewUser(email)
	if err != nil {
		return nil, nil, err
	}

	existing, err := s.userRepo.GetByEmail(ctx, usr.Email)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, user.ErrDuplicateEmail{Email: usr.Email}
	}

	var w *wallet.Wallet
	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := s.userRepo.WithTx(tx).Create(ctx, usr); err != nil {
			return err
		}

		wRepo := s.walletRepo.WithTx(tx)
		for attempt := 0; attempt < maxWalletNumberAttempts; attempt++ {
			candidate, err := wallet.NewWallet(usr.ID)
			if err != nil {
				return err
			}
			err = wRepo.Create(ctx, candidate)
			if err == nil {
				w = candidate
				return nil
			}
			if !errors.As(err, &wallet.ErrDuplicateWalletNumber{}) {
				return err
			}
		}
		return fmt.Errorf("could not allocate a unique wallet number after %d attempts", maxWalletNumberAttempts)
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("User created with wallet",
		"user_id", usr.ID, "wallet_id", w.ID, "wallet_number", w.WalletNumber)

	return usr, w, nil
}

func (s *walletService) GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	w, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return w.Balance, nil
}

func (s *walletService) GetWallet(ctx context.Context, userID uuid.UUID) (*wallet.Wallet, error) {
	return s.walletRepo.GetByUserID(ctx, userID)
}

func (s *walletService) ListTransactions(ctx context.Context, userID uuid.UUID, page, perPage int) ([]*transaction.Transaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPageSize
	}
	if perPage > maxPageSize {
		perPage = maxPageSize
	}

	w, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	entries, err := s.transactionRepo.ListByWalletID(ctx, w.ID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.transactionRepo.CountByWalletID(ctx, w.ID)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (s *walletService) ListAuditEvents(ctx context.Context, userID uuid.UUID, page, perPage int) ([]*audit.Event, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPageSize
	}
	if perPage > maxPageSize {
		perPage = maxPageSize
	}

	w, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.auditRepo == nil {
		return []*audit.Event{}, nil
	}
	return s.auditRepo.GetByWalletID(ctx, w.ID, perPage, (page-1)*perPage)
}
