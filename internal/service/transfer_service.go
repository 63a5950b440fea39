package service

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/custodia-wallet-engine/internal/domain/audit"
	"github.com/custodia-wallet-engine/internal/domain/transaction"
	"github.com/custodia-wallet-engine/internal/domain/wallet"
	"github.com/custodia-wallet-engine/internal/platform/messaging/producers"
	"github.com/custodia-wallet-engine/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type transferService struct {
	db              persistence.TxManager
	walletRepo      wallet.Repository
	transactionRepo transaction.Repository
	auditRepo       audit.Repository
	events          producers.MessagePublisher
	logger          *slog.Logger
}

// NewTransferService creates a transfer service. auditRepo and events may be
// nil; both are best-effort sinks written after the ledger commit.
func NewTransferService(
	db persistence.TxManager,
	walletRepo wallet.Repository,
	transactionRepo transaction.Repository,
	auditRepo audit.Repository,
	events producers.MessagePublisher,
	logger *slog.Logger,
) TransferService {
	return &transferService{
		db:              db,
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
		auditRepo:       auditRepo,
		events:          events,
		logger:          logger,
	}
}

func (s *transferService) Transfer(ctx context.Context, senderUserID uuid.UUID, recipientWalletNumber string, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return wallet.ErrInvalidAmount
	}

	sender, err := s.walletRepo.GetByUserID(ctx, senderUserID)
	if err != nil {
		return err
	}
	recipient, err := s.walletRepo.GetByWalletNumber(ctx, recipientWalletNumber)
	if err != nil {
		return err
	}
	if sender.ID == recipient.ID {
		return wallet.ErrSelfTransfer
	}
	// Cheap pre-check; the authoritative check runs on the locked row
	if !sender.CanDebit(amount) {
		return wallet.ErrInsufficientFunds
	}

	var outEntry, inEntry *transaction.Transaction

	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		wRepo := s.walletRepo.WithTx(tx)

		// Lock both wallets in a fixed order so two opposite transfers
		// cannot deadlock each other
		first, second := sender.ID, recipient.ID
		if bytes.Compare(second[:], first[:]) < 0 {
			first, second = second, first
		}
		lockedFirst, err := wRepo.LockForUpdate(ctx, first)
		if err != nil {
			return err
		}
		lockedSecond, err := wRepo.LockForUpdate(ctx, second)
		if err != nil {
			return err
		}

		lockedSender, lockedRecipient := lockedFirst, lockedSecond
		if lockedSender.ID != sender.ID {
			lockedSender, lockedRecipient = lockedSecond, lockedFirst
		}

		if err := lockedSender.Debit(amount); err != nil {
			return err
		}
		if err := lockedRecipient.Credit(amount); err != nil {
			return err
		}
		if err := wRepo.Update(ctx, lockedSender); err != nil {
			return err
		}
		if err := wRepo.Update(ctx, lockedRecipient); err != nil {
			return err
		}

		outEntry, err = transaction.NewTransferEntry(
			transaction.TypeTransferOut, lockedSender.ID, lockedRecipient.ID, amount,
			map[string]any{"recipient_wallet_number": lockedRecipient.WalletNumber},
		)
		if err != nil {
			return err
		}
		inEntry, err = transaction.NewTransferEntry(
			transaction.TypeTransferIn, lockedRecipient.ID, lockedSender.ID, amount,
			map[string]any{"sender_wallet_number": lockedSender.WalletNumber},
		)
		if err != nil {
			return err
		}

		txRepo := s.transactionRepo.WithTx(tx)
		if err := txRepo.Create(ctx, outEntry); err != nil {
			return err
		}
		return txRepo.Create(ctx, inEntry)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Transfer completed",
		"sender_wallet_id", sender.ID, "recipient_wallet_id", recipient.ID, "amount", amount.StringFixed(2))

	ev := audit.NewEvent(audit.ActionTransferCompleted, outEntry.ID, sender.ID, "", amount, map[string]any{
		"recipient_wallet_id": recipient.ID.String(),
		"transfer_in_id":      inEntry.ID.String(),
	})
	if s.auditRepo != nil {
		if err := s.auditRepo.Record(ctx, ev); err != nil {
			s.logger.Error("Failed to record audit event", "action", ev.Action, "error", err)
		}
	}
	if s.events != nil {
		if err := s.events.Publish(ctx, sender.ID.String(), ev); err != nil {
			s.logger.Error("Failed to publish wallet event", "action", ev.Action, "error", err)
		}
	}

	return nil
}
