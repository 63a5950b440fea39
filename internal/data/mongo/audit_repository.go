// Package mongo provides the MongoDB implementation of the audit trail
// repository. The trail is schema-on-read: settlement payloads and transfer
// detail land here for debug tooling, never for balance decisions.
package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/custodia-wallet-engine/internal/domain/audit"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// AuditCollectionName is the name of the audit trail collection in MongoDB
	AuditCollectionName = "audit_events"
)

// AuditRepository implements the audit.Repository interface for MongoDB
type AuditRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewAuditRepository creates a new MongoDB audit repository
func NewAuditRepository(logger *slog.Logger, db *mongo.Database) audit.Repository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Record appends a new audit event
func (r *AuditRepository) Record(ctx context.Context, event *audit.Event) error {
	collection := r.db.Collection(AuditCollectionName)

	if _, err := collection.InsertOne(ctx, event); err != nil {
		r.logger.Error("Failed to record audit event",
			"transaction_id", event.TransactionID.String(),
			"action", string(event.Action),
			"error", err)
		return fmt.Errorf("failed to record audit event: %w", err)
	}

	return nil
}

// GetByWalletID retrieves paginated audit events for a wallet,
// newest first
func (r *AuditRepository) GetByWalletID(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*audit.Event, error) {
	collection := r.db.Collection(AuditCollectionName)

	filter := bson.M{"wallet_id": walletID}
	opts := options.Find().
		SetSort(bson.M{"recorded_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	return r.find(ctx, collection, filter, opts)
}

// GetByReference retrieves all audit events bound to an external payment
// reference, newest first. Useful when tracing one deposit end to end.
func (r *AuditRepository) GetByReference(ctx context.Context, reference string) ([]*audit.Event, error) {
	collection := r.db.Collection(AuditCollectionName)

	filter := bson.M{"reference": reference}
	opts := options.Find().SetSort(bson.M{"recorded_at": -1})

	return r.find(ctx, collection, filter, opts)
}

func (r *AuditRepository) find(ctx context.Context, collection *mongo.Collection, filter bson.M, opts *options.FindOptions) ([]*audit.Event, error) {
	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to query audit events", "error", err)
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*audit.Event
	if err := cursor.All(ctx, &events); err != nil {
		r.logger.Error("Failed to decode audit events", "error", err)
		return nil, fmt.Errorf("failed to decode audit events: %w", err)
	}

	return events, nil
}
