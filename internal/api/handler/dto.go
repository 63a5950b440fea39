package handler

import (
	"time"

	"github.com/custodia-wallet-engine/internal/domain/audit"
	"github.com/custodia-wallet-engine/internal/domain/transaction"
	"github.com/custodia-wallet-engine/internal/domain/user"
	"github.com/custodia-wallet-engine/internal/domain/wallet"
	"github.com/shopspring/decimal"
)

// CreateUserRequest represents a request to register a user with a wallet
type CreateUserRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// UserWalletResponse represents a newly created user and their wallet
type UserWalletResponse struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	WalletID     string `json:"wallet_id"`
	WalletNumber string `json:"wallet_number"`
	Balance      string `json:"balance"`
	CreatedAt    string `json:"created_at"`
}

// WalletResponse represents a wallet in API responses
type WalletResponse struct {
	WalletID     string `json:"wallet_id"`
	WalletNumber string `json:"wallet_number"`
	Balance      string `json:"balance"`
	UpdatedAt    string `json:"updated_at"`
}

// OpenDepositRequest represents a request to open a deposit.
// Amount is in major units and accepts a JSON number or string.
type OpenDepositRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// DepositIntentResponse represents an opened deposit awaiting payment
type DepositIntentResponse struct {
	Reference   string `json:"reference"`
	PaymentLink string `json:"payment_link"`
}

// DepositStatusResponse represents a deposit's settlement state
type DepositStatusResponse struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    string `json:"amount"`
}

// SettlementResultResponse represents the outcome of a settled deposit
type SettlementResultResponse struct {
	Reference        string `json:"reference"`
	Amount           string `json:"amount"`
	AlreadyProcessed bool   `json:"already_processed"`
}

// TransferRequest represents a request to transfer funds to another wallet
type TransferRequest struct {
	RecipientWalletNumber string          `json:"recipient_wallet_number" binding:"required,len=13,numeric"`
	Amount                decimal.Decimal `json:"amount" binding:"required"`
}

// TransactionResponse represents a ledger entry in API responses
type TransactionResponse struct {
	ID                string `json:"id"`
	Type              string `json:"type"`
	Amount            string `json:"amount"`
	Status            string `json:"status"`
	Reference         string `json:"reference,omitempty"`
	RecipientWalletID string `json:"recipient_wallet_id,omitempty"`
	CreatedAt         string `json:"created_at"`
}

// AuditEventResponse represents an audit trail record in API responses
type AuditEventResponse struct {
	ID            string         `json:"id"`
	Action        string         `json:"action"`
	TransactionID string         `json:"transaction_id"`
	Reference     string         `json:"reference,omitempty"`
	Amount        string         `json:"amount"`
	Detail        map[string]any `json:"detail,omitempty"`
	RecordedAt    string         `json:"recorded_at"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=20" binding:"min=1,max=100"`
}

func mapUserWalletToResponse(u *user.User, w *wallet.Wallet) *UserWalletResponse {
	return &UserWalletResponse{
		UserID:       u.ID.String(),
		Email:        u.Email,
		WalletID:     w.ID.String(),
		WalletNumber: w.WalletNumber,
		Balance:      w.Balance.StringFixed(2),
		CreatedAt:    u.CreatedAt.Format(time.RFC3339),
	}
}

func mapWalletToResponse(w *wallet.Wallet) *WalletResponse {
	return &WalletResponse{
		WalletID:     w.ID.String(),
		WalletNumber: w.WalletNumber,
		Balance:      w.Balance.StringFixed(2),
		UpdatedAt:    w.UpdatedAt.Format(time.RFC3339),
	}
}

func mapAuditEventToResponse(ev *audit.Event) AuditEventResponse {
	return AuditEventResponse{
		ID:            ev.ID.String(),
		Action:        string(ev.Action),
		TransactionID: ev.TransactionID.String(),
		Reference:     ev.Reference,
		Amount:        ev.AmountText,
		Detail:        ev.Detail,
		RecordedAt:    ev.RecordedAt.Format(time.RFC3339),
	}
}

func mapTransactionToResponse(t *transaction.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:        t.ID.String(),
		Type:      string(t.Type),
		Amount:    t.Amount.StringFixed(2),
		Status:    string(t.Status),
		CreatedAt: t.CreatedAt.Format(time.RFC3339),
	}
	if t.Reference != nil {
		resp.Reference = *t.Reference
	}
	if t.RecipientWalletID != nil {
		resp.RecipientWalletID = t.RecipientWalletID.String()
	}
	return resp
}
