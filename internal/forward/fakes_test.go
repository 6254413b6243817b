package forward

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/visionline/api-middleware/internal/models"
)

// fakeAudit is an in-memory AuditCollection.
type fakeAudit struct {
	mu      sync.Mutex
	entries []models.DeliveryAuditEntry
}

func (f *fakeAudit) InsertEntry(_ context.Context, entry models.DeliveryAuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAudit) FindByTimeRange(_ context.Context, from, to time.Time) ([]models.DeliveryAuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.DeliveryAuditEntry
	for _, e := range f.entries {
		if !e.SentAt.Before(from) && !e.SentAt.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeAudit) all() []models.DeliveryAuditEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.DeliveryAuditEntry, len(f.entries))
	copy(out, f.entries)
	return out
}

// fakeStore is an in-memory PositionCollection.
type fakeStore struct {
	mu      sync.Mutex
	records []models.PositionRecord
	markErr error
}

func (f *fakeStore) InsertPositions(_ context.Context, records []models.PositionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range records {
		if r.ID.IsZero() {
			r.ID = primitive.NewObjectID()
		}
		f.records = append(f.records, r)
	}
	return nil
}

func (f *fakeStore) FindUnsent(_ context.Context, target models.Target, since time.Time) ([]models.PositionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.PositionRecord
	for _, r := range f.records {
		if sent(r, target) {
			continue
		}
		if !since.IsZero() && r.Timestamp.Before(since) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) MarkSent(_ context.Context, target models.Target, ids []primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	wanted := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	for i := range f.records {
		if wanted[f.records[i].ID] {
			switch target {
			case models.TargetMigtra:
				f.records[i].SentToMigtra = true
			case models.TargetGauss:
				f.records[i].SentToGauss = true
			}
		}
	}
	return nil
}

func (f *fakeStore) FindRecent(_ context.Context, vehicleID string, limit int64) ([]models.PositionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.PositionRecord
	for _, r := range f.records {
		if vehicleID == "" || r.VehicleID == vehicleID {
			out = append(out, r)
		}
	}
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sent(r models.PositionRecord, target models.Target) bool {
	if target == models.TargetMigtra {
		return r.SentToMigtra
	}
	return r.SentToGauss
}
