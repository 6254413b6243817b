package ingest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/visionline/api-middleware/internal/alarm"
	"github.com/visionline/api-middleware/internal/forward"
	"github.com/visionline/api-middleware/internal/models"
)

type capturePositions struct {
	mu      sync.Mutex
	records []models.PositionRecord
}

func (c *capturePositions) InsertPositions(_ context.Context, records []models.PositionRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, records...)
	return nil
}

func (c *capturePositions) FindUnsent(context.Context, models.Target, time.Time) ([]models.PositionRecord, error) {
	return nil, nil
}

func (c *capturePositions) MarkSent(context.Context, models.Target, []primitive.ObjectID) error {
	return nil
}

func (c *capturePositions) FindRecent(context.Context, string, int64) ([]models.PositionRecord, error) {
	return nil, nil
}

type captureAlarms struct {
	mu      sync.Mutex
	records []models.AlarmRecord
}

func (c *captureAlarms) InsertAlarms(_ context.Context, records []models.AlarmRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, records...)
	return nil
}

func (c *captureAlarms) FindByVehicle(context.Context, string, int64) ([]models.AlarmRecord, error) {
	return nil, nil
}

type discardAudit struct{}

func (discardAudit) InsertEntry(context.Context, models.DeliveryAuditEntry) error {
	return nil
}

func (discardAudit) FindByTimeRange(context.Context, time.Time, time.Time) ([]models.DeliveryAuditEntry, error) {
	return nil, nil
}

func newTestService() (*Service, *capturePositions, *captureAlarms) {
	positions := &capturePositions{}
	alarms := &captureAlarms{}
	// Disabled client: alarm forwarding short-circuits to a not_activated
	// audit entry without touching the network.
	gauss := forward.NewGaussClient("", "", false, nil, discardAudit{}, discardAudit{}, time.Second)
	svc := &Service{
		Positions:  positions,
		Alarms:     alarms,
		Correlator: alarm.NewCorrelator(5 * time.Minute),
		Gauss:      gauss,
	}
	return svc, positions, alarms
}

func TestIngestGPS(t *testing.T) {
	svc, positions, _ := newTestService()

	payload := models.GPSPayload{
		TenantID: 7,
		Type:     "GPS",
		Time:     "2025-01-10T10:00:00Z",
		Data: []models.GPSData{
			{VehicleID: "V1", Lat: 1, Lng: 2, Time: "2025-01-10T10:00:00Z", ACC: 1},
			{VehicleID: "V2", Lat: 3, Lng: 4, Time: "not-a-time"}, // skipped
		},
	}

	n, err := svc.IngestGPS(context.Background(), payload)
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, positions.records, 1)
	assert.Equal(t, "V1", positions.records[0].VehicleID)
	assert.True(t, positions.records[0].Ignition)
	assert.False(t, positions.records[0].SentToMigtra)
	assert.False(t, positions.records[0].SentToGauss)
}

func TestIngestGPS_WrongType(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.IngestGPS(context.Background(), models.GPSPayload{Type: "ALARM"})
	assert.Error(t, err)
}

func TestIngestAlarm_StoresAndCorrelates(t *testing.T) {
	svc, _, alarms := newTestService()

	alarmType := 56000
	start := models.AlarmPayload{
		Type: "ALARM",
		Data: []models.AlarmData{{
			AlarmID: "A1", VehicleID: "V1", AlarmType: &alarmType,
			Kind: "START", Time: "2025-01-10T09:00:00Z",
		}},
	}
	end := models.AlarmPayload{
		Type: "ALARM",
		Data: []models.AlarmData{{
			AlarmID: "A1", VehicleID: "V1",
			Kind: "END", Time: "2025-01-10T09:05:00Z",
		}},
	}

	n, err := svc.IngestAlarm(context.Background(), start)
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, svc.Correlator.PendingCount())

	n, err = svc.IngestAlarm(context.Background(), end)
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, svc.Correlator.PendingCount(), "session completed and evicted")

	assert.Len(t, alarms.records, 2, "both raw halves persisted")
}

func TestIngestAlarm_WrongType(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.IngestAlarm(context.Background(), models.AlarmPayload{Type: "GPS"})
	assert.Error(t, err)
}

func TestIngestAlarm_MalformedKindSkipped(t *testing.T) {
	svc, _, alarms := newTestService()

	payload := models.AlarmPayload{
		Type: "ALARM",
		Data: []models.AlarmData{{
			AlarmID: "A1", VehicleID: "V1", Kind: "MIDDLE", Time: "2025-01-10T09:00:00Z",
		}},
	}
	n, err := svc.IngestAlarm(context.Background(), payload)
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, alarms.records)
}
