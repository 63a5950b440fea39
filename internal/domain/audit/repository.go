package audit

import (
	"context"

	"github.com/google/uuid"
)

// Repository manages audit event persistence and the read paths the API
// exposes: a wallet's trail and the trail of one payment reference
type Repository interface {
	Record(ctx context.Context, event *Event) error
	GetByWalletID(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*Event, error)
	GetByReference(ctx context.Context, reference string) ([]*Event, error)
}
