// Package transaction holds the ledger entry model for all money movement.
// Entries are append-mostly: once a transaction reaches a terminal status it
// never changes again and must never touch a wallet balance again.
package transaction

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type defines the kind of money movement a ledger entry records
type Type string

const (
	TypeDeposit     Type = "deposit"
	TypeTransferIn  Type = "transfer_in"
	TypeTransferOut Type = "transfer_out"
)

// Status defines ledger entry processing states. Transitions only move
// forward: pending -> completed or pending -> failed.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var (
	ErrInvalidAmount   = errors.New("transaction amount must be positive")
	ErrTerminalStatus  = errors.New("transaction is already in a terminal status")
	ErrMissingWalletID = errors.New("transaction wallet id cannot be empty")
)

// Transaction represents one ledger entry tied to a wallet. Transfers record
// the counterpart wallet in RecipientWalletID; deposits carry the external
// payment reference used as the settlement idempotency key.
type Transaction struct {
	ID                uuid.UUID       `json:"id"`
	WalletID          uuid.UUID       `json:"wallet_id"`
	Type              Type            `json:"type"`
	Amount            decimal.Decimal `json:"amount"`
	Status            Status          `json:"status"`
	Reference         *string         `json:"reference,omitempty"`
	RecipientWalletID *uuid.UUID      `json:"recipient_wallet_id,omitempty"`
	Metadata          map[string]any  `json:"metadata,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// NewDeposit creates a pending deposit entry. The external reference is bound
// later, once the payment gateway has issued one.
func NewDeposit(walletID uuid.UUID, amount decimal.Decimal, metadata map[string]any) (*Transaction, error) {
	if walletID == uuid.Nil {
		return nil, ErrMissingWalletID
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	return &Transaction{
		ID:        uuid.New(),
		WalletID:  walletID,
		Type:      TypeDeposit,
		Amount:    amount,
		Status:    StatusPending,
		Metadata:  metadata,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}, nil
}

// NewTransferEntry creates an already-completed transfer leg. Transfers are
// synchronous; there is no pending window.
func NewTransferEntry(entryType Type, walletID, counterpartWalletID uuid.UUID, amount decimal.Decimal, metadata map[string]any) (*Transaction, error) {
	if entryType != TypeTransferIn && entryType != TypeTransferOut {
		return nil, errors.New("transfer entry type must be transfer_in or transfer_out")
	}
	if walletID == uuid.Nil || counterpartWalletID == uuid.Nil {
		return nil, ErrMissingWalletID
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	counterpart := counterpartWalletID
	return &Transaction{
		ID:                uuid.New(),
		WalletID:          walletID,
		Type:              entryType,
		Amount:            amount,
		Status:            StatusCompleted,
		RecipientWalletID: &counterpart,
		Metadata:          metadata,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}, nil
}

// IsTerminal reports whether the transaction has reached a final status
func (t *Transaction) IsTerminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusFailed
}

// MarkCompleted transitions the transaction to completed.
// Returns ErrTerminalStatus if it is already terminal.
func (t *Transaction) MarkCompleted() error {
	if t.IsTerminal() {
		return ErrTerminalStatus
	}
	t.Status = StatusCompleted
	t.UpdatedAt = time.Now()
	return nil
}

// MarkFailed transitions the transaction to failed.
// Returns ErrTerminalStatus if it is already terminal.
func (t *Transaction) MarkFailed() error {
	if t.IsTerminal() {
		return ErrTerminalStatus
	}
	t.Status = StatusFailed
	t.UpdatedAt = time.Now()
	return nil
}

// MergeMetadata overlays the given keys onto the metadata bag,
// allocating it if needed
func (t *Transaction) MergeMetadata(extra map[string]any) {
	if len(extra) == 0 {
		return
	}
	if t.Metadata == nil {
		t.Metadata = make(map[string]any, len(extra))
	}
	for k, v := range extra {
		t.Metadata[k] = v
	}
}
