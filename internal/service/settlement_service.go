package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/custodia-wallet-engine/internal/config"
	"github.com/custodia-wallet-engine/internal/domain/audit"
	"github.com/custodia-wallet-engine/internal/domain/transaction"
	"github.com/custodia-wallet-engine/internal/domain/user"
	"github.com/custodia-wallet-engine/internal/domain/wallet"
	"github.com/custodia-wallet-engine/internal/gateway"
	"github.com/custodia-wallet-engine/internal/platform/messaging/producers"
	"github.com/custodia-wallet-engine/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// minorUnitFactor converts the processor's integer minor units to major units
var minorUnitFactor = decimal.NewFromInt(100)

type settlementService struct {
	db              persistence.TxManager
	userRepo        user.Repository
	walletRepo      wallet.Repository
	transactionRepo transaction.Repository
	auditRepo       audit.Repository
	events          producers.MessagePublisher
	gateway         gateway.Client
	minDeposit      decimal.Decimal
	tolerance       decimal.Decimal
	logger          *slog.Logger
}

// NewSettlementService creates a settlement service. auditRepo and events may
// be nil; both are best-effort sinks written after the ledger commit.
func NewSettlementService(
	db persistence.TxManager,
	userRepo user.Repository,
	walletRepo wallet.Repository,
	transactionRepo transaction.Repository,
	auditRepo audit.Repository,
	events producers.MessagePublisher,
	gatewayClient gateway.Client,
	cfg *config.SettlementConfig,
	logger *slog.Logger,
) SettlementService {
	return &settlementService{
		db:              db,
		userRepo:        userRepo,
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
		auditRepo:       auditRepo,
		events:          events,
		gateway:         gatewayClient,
		minDeposit:      cfg.MinDepositAmount,
		tolerance:       cfg.AmountTolerance,
		logger:          logger,
	}
}

func (s *settlementService) OpenDeposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*DepositIntent, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, transaction.ErrInvalidAmount
	}
	if amount.LessThan(s.minDeposit) {
		return nil, &ErrAmountBelowMinimum{Minimum: s.minDeposit}
	}

	usr, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	w, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	entry, err := transaction.NewDeposit(w.ID, amount, map[string]any{
		"user_id": userID.String(),
		"email":   usr.Email,
	})
	if err != nil {
		return nil, err
	}
	if err := s.transactionRepo.Create(ctx, entry); err != nil {
		return nil, err
	}

	// The pending entry stays behind on gateway failure so the deposit
	// remains visible and can be retried or reconciled later
	init, err := s.gateway.Initialize(ctx, usr.Email, amount, map[string]any{
		"transaction_id": entry.ID.String(),
		"wallet_id":      w.ID.String(),
		"user_id":        userID.String(),
	})
	if err != nil {
		s.logger.Error("Payment initialization failed",
			"transaction_id", entry.ID, "error", err)
		return nil, err
	}

	if err := s.transactionRepo.BindReference(ctx, entry.ID, init.Reference); err != nil {
		return nil, err
	}

	s.record(ctx, audit.NewEvent(audit.ActionDepositOpened, entry.ID, w.ID, init.Reference, amount, map[string]any{
		"user_id": userID.String(),
	}))

	s.logger.Info("Deposit opened",
		"transaction_id", entry.ID, "reference", init.Reference, "amount", amount.StringFixed(2))

	return &DepositIntent{Reference: init.Reference, PaymentLink: init.PaymentLink}, nil
}

func (s *settlementService) SettleByEvent(ctx context.Context, event *WebhookEvent) error {
	if event.Event != ChargeSuccessEvent {
		s.logger.Info("Ignoring webhook event", "event", event.Event)
		return nil
	}

	reported := decimal.NewFromInt(event.Data.Amount).Div(minorUnitFactor)
	_, err := s.settle(ctx, event.Data.Reference, reported, "webhook", map[string]any{
		"currency": event.Data.Currency,
		"status":   event.Data.Status,
	})
	return err
}

func (s *settlementService) SettleByVerification(ctx context.Context, userID uuid.UUID, reference string) (*SettlementResult, error) {
	entry, err := s.transactionRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	w, err := s.walletRepo.GetByID(ctx, entry.WalletID)
	if err != nil {
		return nil, err
	}
	if w.UserID != userID {
		return nil, ErrForbidden
	}
	if entry.Status == transaction.StatusCompleted {
		return &SettlementResult{Reference: reference, Amount: entry.Amount, AlreadyProcessed: true}, nil
	}

	verification, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		return nil, err
	}
	if verification.Status != gateway.SettlementStatusSuccess {
		return nil, &ErrPaymentNotSuccessful{Reference: reference, Status: verification.Status}
	}

	return s.settle(ctx, reference, verification.Amount, "manual_verification", map[string]any{
		"currency": verification.Currency,
	})
}

func (s *settlementService) GetStatus(ctx context.Context, reference string) (*DepositStatus, error) {
	entry, err := s.transactionRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	return &DepositStatus{Reference: reference, Status: entry.Status, Amount: entry.Amount}, nil
}

// GetAuditTrail traces one deposit end to end through its audit events. The
// reference must belong to the caller's wallet.
func (s *settlementService) GetAuditTrail(ctx context.Context, userID uuid.UUID, reference string) ([]*audit.Event, error) {
	entry, err := s.transactionRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	w, err := s.walletRepo.GetByID(ctx, entry.WalletID)
	if err != nil {
		return nil, err
	}
	if w.UserID != userID {
		return nil, ErrForbidden
	}

	if s.auditRepo == nil {
		return []*audit.Event{}, nil
	}
	return s.auditRepo.GetByReference(ctx, reference)
}

// settle applies one settlement attempt atomically. The reference row is
// locked for the duration, so racing attempts for the same reference
// serialize: the first credits the wallet, later ones observe the terminal
// status. A reconciliation failure must still commit the failed status, so it
// is carried out of the transaction closure in settleErr rather than returned
// from it.
func (s *settlementService) settle(ctx context.Context, reference string, reported decimal.Decimal, via string, extra map[string]any) (*SettlementResult, error) {
	var (
		result    *SettlementResult
		settleErr error
		walletID  uuid.UUID
		entryID   uuid.UUID
	)

	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		txRepo := s.transactionRepo.WithTx(tx)

		entry, err := txRepo.LockByReference(ctx, reference)
		if err != nil {
			return err
		}
		entryID = entry.ID
		walletID = entry.WalletID

		switch entry.Status {
		case transaction.StatusCompleted:
			result = &SettlementResult{Reference: reference, Amount: entry.Amount, AlreadyProcessed: true}
			return nil
		case transaction.StatusFailed:
			// Failed is terminal; a replay never revives the deposit
			settleErr = &ErrAmountMismatch{Reference: reference, Expected: entry.Amount, Received: reported}
			return nil
		}

		if entry.Amount.Sub(reported).Abs().GreaterThan(s.tolerance) {
			failure := map[string]any{
				"error":       "amount mismatch",
				"expected":    entry.Amount.StringFixed(2),
				"received":    reported.StringFixed(2),
				"settled_via": via,
			}
			if err := txRepo.UpdateStatus(ctx, entry.ID, transaction.StatusFailed, failure); err != nil {
				return err
			}
			settleErr = &ErrAmountMismatch{Reference: reference, Expected: entry.Amount, Received: reported}
			return nil
		}

		metadata := map[string]any{
			"settled_via":  via,
			"processed_at": time.Now().Format(time.RFC3339),
		}
		for k, v := range extra {
			metadata[k] = v
		}
		if err := txRepo.UpdateStatus(ctx, entry.ID, transaction.StatusCompleted, metadata); err != nil {
			return err
		}

		wRepo := s.walletRepo.WithTx(tx)
		w, err := wRepo.LockForUpdate(ctx, entry.WalletID)
		if err != nil {
			return err
		}
		// Credit the recorded amount, not the reported one
		if err := w.Credit(entry.Amount); err != nil {
			return err
		}
		if err := wRepo.Update(ctx, w); err != nil {
			return err
		}

		result = &SettlementResult{Reference: reference, Amount: entry.Amount}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if settleErr != nil {
		s.logger.Error("Settlement failed", "reference", reference, "error", settleErr)
		s.record(ctx, audit.NewEvent(audit.ActionSettlementFailed, entryID, walletID, reference, reported, map[string]any{
			"settled_via": via,
			"error":       settleErr.Error(),
		}))
		return nil, settleErr
	}

	if result.AlreadyProcessed {
		s.logger.Info("Settlement replay ignored", "reference", reference)
		return result, nil
	}

	s.logger.Info("Deposit settled",
		"reference", reference, "wallet_id", walletID, "amount", result.Amount.StringFixed(2), "via", via)
	s.record(ctx, audit.NewEvent(audit.ActionDepositSettled, entryID, walletID, reference, result.Amount, map[string]any{
		"settled_via": via,
	}))

	return result, nil
}

// record writes the audit trail entry and fans it out to the event stream.
// Both sinks are best-effort; failures are logged and never surfaced.
func (s *settlementService) record(ctx context.Context, ev *audit.Event) {
	if s.auditRepo != nil {
		if err := s.auditRepo.Record(ctx, ev); err != nil {
			s.logger.Error("Failed to record audit event", "action", ev.Action, "error", err)
		}
	}
	if s.events != nil {
		if err := s.events.Publish(ctx, ev.WalletID.String(), ev); err != nil {
			s.logger.Error("Failed to publish wallet event", "action", ev.Action, "error", err)
		}
	}
}
