package forward

import (
	"context"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/visionline/api-middleware/internal/db"
	"github.com/visionline/api-middleware/internal/metrics"
	"github.com/visionline/api-middleware/internal/models"
)

// migtraPosition is Migtra's wire schema for one position report.
type migtraPosition struct {
	Asset     string  `json:"asset"`
	Plate     string  `json:"plate,omitempty"`
	Timestamp string  `json:"timestamp"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  int     `json:"altitude"`
	Speed     float64 `json:"speed"`
	Heading   int     `json:"heading"`
	Ignition  bool    `json:"ignition"`
	Odometer  float64 `json:"odometer,omitempty"`
}

// MigtraClient delivers position batches to Migtra. The endpoint takes a
// static unauthenticated POST.
type MigtraClient struct {
	URL     string
	Enabled bool
	Audit   db.AuditCollection

	client *http.Client
}

// NewMigtraClient creates a Migtra delivery client with a bounded timeout.
func NewMigtraClient(url string, enabled bool, audit db.AuditCollection, timeout time.Duration) *MigtraClient {
	return &MigtraClient{
		URL:     url,
		Enabled: enabled,
		Audit:   audit,
		client:  &http.Client{Timeout: timeout},
	}
}

// SendPositions delivers one batch. Exactly one audit entry is written per
// terminal attempt, success or not.
func (c *MigtraClient) SendPositions(ctx context.Context, records []models.PositionRecord) (Outcome, error) {
	deliveryID := newDeliveryID()
	payload := make([]migtraPosition, 0, len(records))
	for _, r := range records {
		p, err := toMigtraPosition(r)
		if err != nil {
			// A single bad record never aborts the batch.
			log.WithError(err).WithFields(log.Fields{
				"target":    models.TargetMigtra,
				"record_id": r.ID.Hex(),
			}).Warn("skipping malformed position record")
			continue
		}
		payload = append(payload, p)
	}

	if !c.Enabled {
		writeAudit(ctx, c.Audit, models.TargetMigtra, deliveryID, payload, "", models.DeliveryNotActivated, "")
		metrics.DeliveriesTotal.WithLabelValues(string(models.TargetMigtra), string(models.DeliveryNotActivated)).Inc()
		log.WithField("target", models.TargetMigtra).Info("integration not activated, skipping delivery")
		return OutcomeNotActivated, nil
	}

	timer := time.Now()
	status, respBody, err := postJSON(ctx, c.client, c.URL, "", payload)
	metrics.DeliveryDuration.WithLabelValues(string(models.TargetMigtra)).Observe(time.Since(timer).Seconds())
	if err != nil {
		writeAudit(ctx, c.Audit, models.TargetMigtra, deliveryID, payload, "", models.DeliveryFailed, err.Error())
		metrics.DeliveriesTotal.WithLabelValues(string(models.TargetMigtra), string(models.DeliveryFailed)).Inc()
		return OutcomeFailed, fmt.Errorf("migtra delivery: %w", err)
	}
	if status < 200 || status >= 300 {
		errMsg := fmt.Sprintf("unexpected status %d", status)
		writeAudit(ctx, c.Audit, models.TargetMigtra, deliveryID, payload, respBody, models.DeliveryFailed, errMsg)
		metrics.DeliveriesTotal.WithLabelValues(string(models.TargetMigtra), string(models.DeliveryFailed)).Inc()
		return OutcomeFailed, fmt.Errorf("migtra delivery: %s", errMsg)
	}

	writeAudit(ctx, c.Audit, models.TargetMigtra, deliveryID, payload, respBody, models.DeliverySuccess, "")
	metrics.DeliveriesTotal.WithLabelValues(string(models.TargetMigtra), string(models.DeliverySuccess)).Inc()
	log.WithFields(log.Fields{
		"target":      models.TargetMigtra,
		"delivery_id": deliveryID,
		"records":     len(payload),
	}).Info("delivered position batch")
	return OutcomeDelivered, nil
}

func toMigtraPosition(r models.PositionRecord) (migtraPosition, error) {
	if r.VehicleID == "" {
		return migtraPosition{}, fmt.Errorf("record %s has no vehicle id", r.ID.Hex())
	}
	if r.Timestamp.IsZero() {
		return migtraPosition{}, fmt.Errorf("record %s has no timestamp", r.ID.Hex())
	}
	return migtraPosition{
		Asset:     r.VehicleID,
		Plate:     r.VehicleNumber,
		Timestamp: r.Timestamp.UTC().Format(time.RFC3339),
		Latitude:  r.Location.Lat,
		Longitude: r.Location.Lon,
		Altitude:  r.Altitude,
		Speed:     r.Speed,
		Heading:   r.Angle,
		Ignition:  r.Ignition,
		Odometer:  r.Mileage,
	}, nil
}
