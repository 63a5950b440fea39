package service

import (
	"context"

	"github.com/custodia-wallet-engine/internal/domain/audit"
	"github.com/custodia-wallet-engine/internal/domain/transaction"
	"github.com/custodia-wallet-engine/internal/domain/user"
	"github.com/custodia-wallet-engine/internal/domain/wallet"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChargeSuccessEvent is the only webhook event kind that triggers settlement
const ChargeSuccessEvent = "charge.success"

// DepositIntent is the result of opening a deposit: the processor reference
// and the link the payer follows to complete payment
type DepositIntent struct {
	Reference   string `json:"reference"`
	PaymentLink string `json:"payment_link"`
}

// DepositStatus is a read-only projection of a deposit transaction
type DepositStatus struct {
	Reference string             `json:"reference"`
	Status    transaction.Status `json:"status"`
	Amount    decimal.Decimal    `json:"amount"`
}

// SettlementResult reports the outcome of a successful settlement.
// AlreadyProcessed marks an idempotent replay: the wallet was credited by an
// earlier call and this one changed nothing.
type SettlementResult struct {
	Reference        string          `json:"reference"`
	Amount           decimal.Decimal `json:"amount"`
	AlreadyProcessed bool            `json:"already_processed"`
}

// WebhookEvent is the processor's webhook payload shape
type WebhookEvent struct {
	Event string           `json:"event"`
	Data  WebhookEventData `json:"data"`
}

// WebhookEventData carries the settlement detail of a webhook event.
// Amount is in integer minor units, as the processor sends it.
type WebhookEventData struct {
	Reference string         `json:"reference"`
	Amount    int64          `json:"amount"`
	Currency  string         `json:"currency"`
	Status    string         `json:"status"`
	Metadata  map[string]any `json:"metadata"`
}

// SettlementService drives a deposit from intent creation through external
// confirmation to ledger credit. Settlement is idempotent per reference:
// replays return success without a second credit.
type SettlementService interface {
	// OpenDeposit creates a pending deposit intent and returns the payment
	// link. The pending entry survives a gateway failure so it stays
	// queryable and terminable.
	OpenDeposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*DepositIntent, error)

	// SettleByEvent applies a webhook-delivered settlement. Event kinds other
	// than charge.success are accepted and ignored.
	SettleByEvent(ctx context.Context, event *WebhookEvent) error

	// SettleByVerification is the manual/poll-based settlement path, gated on
	// wallet ownership
	SettleByVerification(ctx context.Context, userID uuid.UUID, reference string) (*SettlementResult, error)

	// GetStatus projects a deposit's current state without ever crediting
	GetStatus(ctx context.Context, reference string) (*DepositStatus, error)

	// GetAuditTrail returns the audit events recorded for one deposit
	// reference, newest first, gated on wallet ownership
	GetAuditTrail(ctx context.Context, userID uuid.UUID, reference string) ([]*audit.Event, error)
}

// TransferService executes atomic peer-to-peer transfers
type TransferService interface {
	// Transfer debits the sender and credits the recipient as one unit,
	// writing both ledger legs. Either all four effects apply or none do.
	Transfer(ctx context.Context, senderUserID uuid.UUID, recipientWalletNumber string, amount decimal.Decimal) error
}

// WalletService covers wallet lifecycle and read paths
type WalletService interface {
	// CreateUserWithWallet creates the user row and its wallet in one
	// transaction; a new user always implies a new wallet
	CreateUserWithWallet(ctx context.Context, email string) (*user.User, *wallet.Wallet, error)

	// GetBalance returns the caller's current wallet balance
	GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)

	// GetWallet returns the caller's wallet
	GetWallet(ctx context.Context, userID uuid.UUID) (*wallet.Wallet, error)

	// ListTransactions returns the caller's ledger entries newest first,
	// with the total count for pagination
	ListTransactions(ctx context.Context, userID uuid.UUID, page, perPage int) ([]*transaction.Transaction, int64, error)

	// ListAuditEvents returns the caller's audit trail newest first
	ListAuditEvents(ctx context.Context, userID uuid.UUID, page, perPage int) ([]*audit.Event, error)
}
