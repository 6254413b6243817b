package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/visionline/api-middleware/internal/models"
)

// PositionCollection defines the interface for position record operations.
type PositionCollection interface {
	InsertPositions(ctx context.Context, records []models.PositionRecord) error
	// FindUnsent returns records not yet delivered to target. A zero since
	// means no time window.
	FindUnsent(ctx context.Context, target models.Target, since time.Time) ([]models.PositionRecord, error)
	// MarkSent flips the target's delivery flag for all ids in one batched
	// update. Re-marking already delivered ids is a no-op.
	MarkSent(ctx context.Context, target models.Target, ids []primitive.ObjectID) error
	FindRecent(ctx context.Context, vehicleID string, limit int64) ([]models.PositionRecord, error)
}

// AlarmCollection defines the interface for raw alarm record operations.
type AlarmCollection interface {
	InsertAlarms(ctx context.Context, records []models.AlarmRecord) error
	FindByVehicle(ctx context.Context, vehicleID string, limit int64) ([]models.AlarmRecord, error)
}

// AuditCollection defines the interface for the delivery audit sink.
type AuditCollection interface {
	InsertEntry(ctx context.Context, entry models.DeliveryAuditEntry) error
	FindByTimeRange(ctx context.Context, from, to time.Time) ([]models.DeliveryAuditEntry, error)
}
