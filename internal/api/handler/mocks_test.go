package handler

import (
	"context"
	"log/slog"
	"os"

	"github.com/custodia-wallet-engine/internal/domain/audit"
	"github.com/custodia-wallet-engine/internal/domain/transaction"
	"github.com/custodia-wallet-engine/internal/domain/user"
	"github.com/custodia-wallet-engine/internal/domain/wallet"
	"github.com/custodia-wallet-engine/internal/gateway"
	"github.com/custodia-wallet-engine/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

func testHandlerLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

type MockWalletService struct {
	mock.Mock
}

func (m *MockWalletService) CreateUserWithWallet(ctx context.Context, email string) (*user.User, *wallet.Wallet, error) {
	args := m.Called(ctx, email)
	var u *user.User
	var w *wallet.Wallet
	if args.Get(0) != nil {
		u = args.Get(0).(*user.User)
	}
	if args.Get(1) != nil {
		w = args.Get(1).(*wallet.Wallet)
	}
	return u, w, args.Error(2)
}

func (m *MockWalletService) GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockWalletService) GetWallet(ctx context.Context, userID uuid.UUID) (*wallet.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Wallet), args.Error(1)
}

func (m *MockWalletService) ListTransactions(ctx context.Context, userID uuid.UUID, page, perPage int) ([]*transaction.Transaction, int64, error) {
	args := m.Called(ctx, userID, page, perPage)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*transaction.Transaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockWalletService) ListAuditEvents(ctx context.Context, userID uuid.UUID, page, perPage int) ([]*audit.Event, error) {
	args := m.Called(ctx, userID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*audit.Event), args.Error(1)
}

type MockTransferService struct {
	mock.Mock
}

func (m *MockTransferService) Transfer(ctx context.Context, senderUserID uuid.UUID, recipientWalletNumber string, amount decimal.Decimal) error {
	args := m.Called(ctx, senderUserID, recipientWalletNumber, amount)
	return args.Error(0)
}

type MockSettlementService struct {
	mock.Mock
}

func (m *MockSettlementService) OpenDeposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*service.DepositIntent, error) {
	args := m.Called(ctx, userID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DepositIntent), args.Error(1)
}

func (m *MockSettlementService) SettleByEvent(ctx context.Context, event *service.WebhookEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockSettlementService) SettleByVerification(ctx context.Context, userID uuid.UUID, reference string) (*service.SettlementResult, error) {
	args := m.Called(ctx, userID, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SettlementResult), args.Error(1)
}

func (m *MockSettlementService) GetStatus(ctx context.Context, reference string) (*service.DepositStatus, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DepositStatus), args.Error(1)
}

func (m *MockSettlementService) GetAuditTrail(ctx context.Context, userID uuid.UUID, reference string) ([]*audit.Event, error) {
	args := m.Called(ctx, userID, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*audit.Event), args.Error(1)
}

type MockGatewayClient struct {
	mock.Mock
}

func (m *MockGatewayClient) Initialize(ctx context.Context, email string, amount decimal.Decimal, metadata map[string]any) (*gateway.PaymentInit, error) {
	args := m.Called(ctx, email, amount, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.PaymentInit), args.Error(1)
}

func (m *MockGatewayClient) Verify(ctx context.Context, reference string) (*gateway.PaymentVerification, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.PaymentVerification), args.Error(1)
}

func (m *MockGatewayClient) VerifySignature(payload []byte, signature string) bool {
	args := m.Called(payload, signature)
	return args.Bool(0)
}
