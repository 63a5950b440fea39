// Package audit holds the append-only trail of money-movement outcomes.
// Events are written best-effort after a ledger commit; they are for
// debugging and reconciliation tooling, never for balance decisions.
package audit

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Action identifies what kind of money movement an event records
type Action string

const (
	ActionDepositOpened     Action = "DEPOSIT_OPENED"
	ActionDepositSettled    Action = "DEPOSIT_SETTLED"
	ActionSettlementFailed  Action = "SETTLEMENT_FAILED"
	ActionTransferCompleted Action = "TRANSFER_COMPLETED"
)

// Event is one audit trail record
type Event struct {
	ID            uuid.UUID       `json:"id" bson:"_id"`
	Action        Action          `json:"action" bson:"action"`
	TransactionID uuid.UUID       `json:"transaction_id" bson:"transaction_id"`
	WalletID      uuid.UUID       `json:"wallet_id" bson:"wallet_id"`
	Reference     string          `json:"reference,omitempty" bson:"reference,omitempty"`
	Amount        decimal.Decimal `json:"amount" bson:"-"`
	AmountText    string          `json:"-" bson:"amount"`
	Detail        map[string]any  `json:"detail,omitempty" bson:"detail,omitempty"`
	RecordedAt    time.Time       `json:"recorded_at" bson:"recorded_at"`
}

// NewEvent builds an event with the amount rendered as an exact decimal string
func NewEvent(action Action, transactionID, walletID uuid.UUID, reference string, amount decimal.Decimal, detail map[string]any) *Event {
	return &Event{
		ID:            uuid.New(),
		Action:        action,
		TransactionID: transactionID,
		WalletID:      walletID,
		Reference:     reference,
		Amount:        amount,
		AmountText:    amount.StringFixed(2),
		Detail:        detail,
		RecordedAt:    time.Now(),
	}
}
