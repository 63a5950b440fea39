package service

import (
	"context"
	"log/slog"

	"github.com/custodia-wallet-engine/internal/domain/audit"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/shopspring/decimal"
)

// PooledSettlementService bounds the number of webhook settlements running at
// once. Webhook deliveries arrive in bursts and each settlement holds row
// locks; the pool keeps the burst from saturating the connection pool.
// All other operations pass through to the base service unchanged.
type PooledSettlementService struct {
	base   SettlementService
	pool   *ants.Pool
	logger *slog.Logger
}

func NewPooledSettlementService(base SettlementService, size int, logger *slog.Logger) (*PooledSettlementService, error) {
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}

	return &PooledSettlementService{
		base:   base,
		pool:   pool,
		logger: logger,
	}, nil
}

// SettleByEvent submits the settlement to the worker pool and waits for its
// result, so the caller still observes the real outcome. A cancelled caller
// stops waiting; the submitted task still owns the settlement and the
// buffered channel lets it finish without leaking.
func (s *PooledSettlementService) SettleByEvent(ctx context.Context, event *WebhookEvent) error {
	resultChan := make(chan error, 1)

	err := s.pool.Submit(func() {
		resultChan <- s.base.SettleByEvent(ctx, event)
	})
	if err != nil {
		s.logger.Error("Failed to submit settlement to worker pool",
			"reference", event.Data.Reference, "error", err)
		return err
	}

	select {
	case err := <-resultChan:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *PooledSettlementService) OpenDeposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*DepositIntent, error) {
	return s.base.OpenDeposit(ctx, userID, amount)
}

func (s *PooledSettlementService) SettleByVerification(ctx context.Context, userID uuid.UUID, reference string) (*SettlementResult, error) {
	return s.base.SettleByVerification(ctx, userID, reference)
}

func (s *PooledSettlementService) GetStatus(ctx context.Context, reference string) (*DepositStatus, error) {
	return s.base.GetStatus(ctx, reference)
}

func (s *PooledSettlementService) GetAuditTrail(ctx context.Context, userID uuid.UUID, reference string) ([]*audit.Event, error) {
	return s.base.GetAuditTrail(ctx, userID, reference)
}

// Shutdown gracefully releases the worker pool
func (s *PooledSettlementService) Shutdown() {
	s.logger.Info("Shutting down settlement worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of in-flight settlements
func (s *PooledSettlementService) Running() int {
	return s.pool.Running()
}
