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

// gaussPosition is Gauss Control's wire schema for one position snapshot.
type gaussPosition struct {
	VehicleCode string  `json:"vehicleCode"`
	DriverCode  string  `json:"driverCode,omitempty"`
	Timestamp   string  `json:"timestamp"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Altitude    int     `json:"altitude"`
	Speed       float64 `json:"speed"`
	Satellites  int     `json:"satellites"`
	Ignition    bool    `json:"ignitionOn"`
}

// gaussAlarm is Gauss Control's wire schema for one completed alarm session.
type gaussAlarm struct {
	AlarmCode   string  `json:"alarmCode"`
	VehicleCode string  `json:"vehicleCode"`
	DriverCode  string  `json:"driverCode,omitempty"`
	Category    string  `json:"category"`
	Subtype     string  `json:"subtype"`
	Severity    int     `json:"severity,omitempty"`
	StartTime   string  `json:"startTime"`
	EndTime     string  `json:"endTime"`
	StartLat    float64 `json:"startLatitude"`
	StartLon    float64 `json:"startLongitude"`
	EndLat      float64 `json:"endLatitude"`
	EndLon      float64 `json:"endLongitude"`
	Speed       float64 `json:"speed,omitempty"`
	EvidenceURL string  `json:"evidenceUrl,omitempty"`
}

// GaussClient delivers position snapshots and completed alarm sessions to
// Gauss Control, bearer-authenticated via the shared TokenSource.
type GaussClient struct {
	URL        string
	AlarmURL   string
	Enabled    bool
	Tokens     *TokenSource
	Audit      db.AuditCollection
	AlarmAudit db.AuditCollection

	client *http.Client
}

// NewGaussClient creates a Gauss delivery client with a bounded timeout.
func NewGaussClient(url, alarmURL string, enabled bool, tokens *TokenSource, audit, alarmAudit db.AuditCollection, timeout time.Duration) *GaussClient {
	return &GaussClient{
		URL:        url,
		AlarmURL:   alarmURL,
		Enabled:    enabled,
		Tokens:     tokens,
		Audit:      audit,
		AlarmAudit: alarmAudit,
		client:     &http.Client{Timeout: timeout},
	}
}

// SendPositions delivers one position-snapshot batch.
func (c *GaussClient) SendPositions(ctx context.Context, records []models.PositionRecord) (Outcome, error) {
	payload := make([]gaussPosition, 0, len(records))
	for _, r := range records {
		p, err := toGaussPosition(r)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"target":    models.TargetGauss,
				"record_id": r.ID.Hex(),
			}).Warn("skipping malformed position record")
			continue
		}
		payload = append(payload, p)
	}
	return c.send(ctx, c.URL, c.Audit, payload, len(payload))
}

// SendAlarm delivers one completed alarm session. Sessions are forwarded the
// moment correlation completes them, not batched.
func (c *GaussClient) SendAlarm(ctx context.Context, session *models.AlarmSession) (Outcome, error) {
	payload := gaussAlarm{
		AlarmCode:   session.AlarmID,
		VehicleCode: session.VehicleID,
		DriverCode:  session.DriverID,
		Category:    session.Category,
		Subtype:     session.Subtype,
		Severity:    session.Severity,
		StartTime:   session.StartTime.UTC().Format(time.RFC3339),
		EndTime:     session.EndTime.UTC().Format(time.RFC3339),
		StartLat:    session.StartLoc.Lat,
		StartLon:    session.StartLoc.Lon,
		EndLat:      session.EndLoc.Lat,
		EndLon:      session.EndLoc.Lon,
		Speed:       session.Speed,
		EvidenceURL: session.MediaURL,
	}
	return c.send(ctx, c.AlarmURL, c.AlarmAudit, payload, 1)
}

// send runs one authenticated delivery: acquire token, POST, and on a 401
// invalidate the token and retry the same payload exactly once. A second 401
// is terminal for this attempt.
func (c *GaussClient) send(ctx context.Context, url string, audit db.AuditCollection, payload interface{}, count int) (Outcome, error) {
	deliveryID := newDeliveryID()

	if !c.Enabled {
		writeAudit(ctx, audit, models.TargetGauss, deliveryID, payload, "", models.DeliveryNotActivated, "")
		metrics.DeliveriesTotal.WithLabelValues(string(models.TargetGauss), string(models.DeliveryNotActivated)).Inc()
		log.WithField("target", models.TargetGauss).Info("integration not activated, skipping delivery")
		return OutcomeNotActivated, nil
	}

	token, err := c.Tokens.Token(ctx)
	if err != nil {
		writeAudit(ctx, audit, models.TargetGauss, deliveryID, payload, "", models.DeliveryFailed, err.Error())
		metrics.DeliveriesTotal.WithLabelValues(string(models.TargetGauss), string(models.DeliveryFailed)).Inc()
		return OutcomeFailed, fmt.Errorf("gauss token: %w", err)
	}

	timer := time.Now()
	status, respBody, err := postJSON(ctx, c.client, url, token, payload)
	if err == nil && status == http.StatusUnauthorized {
		log.WithField("target", models.TargetGauss).Warn("token rejected, refreshing and retrying once")
		c.Tokens.Invalidate(token)
		token, err = c.Tokens.Token(ctx)
		if err != nil {
			writeAudit(ctx, audit, models.TargetGauss, deliveryID, payload, "", models.DeliveryFailed, err.Error())
			metrics.DeliveriesTotal.WithLabelValues(string(models.TargetGauss), string(models.DeliveryFailed)).Inc()
			return OutcomeFailed, fmt.Errorf("gauss token refresh: %w", err)
		}
		status, respBody, err = postJSON(ctx, c.client, url, token, payload)
	}
	metrics.DeliveryDuration.WithLabelValues(string(models.TargetGauss)).Observe(time.Since(timer).Seconds())

	if err != nil {
		writeAudit(ctx, audit, models.TargetGauss, deliveryID, payload, "", models.DeliveryFailed, err.Error())
		metrics.DeliveriesTotal.WithLabelValues(string(models.TargetGauss), string(models.DeliveryFailed)).Inc()
		return OutcomeFailed, fmt.Errorf("gauss delivery: %w", err)
	}
	if status < 200 || status >= 300 {
		errMsg := fmt.Sprintf("unexpected status %d", status)
		writeAudit(ctx, audit, models.TargetGauss, deliveryID, payload, respBody, models.DeliveryFailed, errMsg)
		metrics.DeliveriesTotal.WithLabelValues(string(models.TargetGauss), string(models.DeliveryFailed)).Inc()
		return OutcomeFailed, fmt.Errorf("gauss delivery: %s", errMsg)
	}

	writeAudit(ctx, audit, models.TargetGauss, deliveryID, payload, respBody, models.DeliverySuccess, "")
	metrics.DeliveriesTotal.WithLabelValues(string(models.TargetGauss), string(models.DeliverySuccess)).Inc()
	log.WithFields(log.Fields{
		"target":      models.TargetGauss,
		"delivery_id": deliveryID,
		"records":     count,
	}).Info("delivered batch")
	return OutcomeDelivered, nil
}

func toGaussPosition(r models.PositionRecord) (gaussPosition, error) {
	if r.VehicleID == "" {
		return gaussPosition{}, fmt.Errorf("record %s has no vehicle id", r.ID.Hex())
	}
	if r.Timestamp.IsZero() {
		return gaussPosition{}, fmt.Errorf("record %s has no timestamp", r.ID.Hex())
	}
	// Altitude and satellite fix are optional on the wire; missing values go
	// out as zero rather than being dropped.
	return gaussPosition{
		VehicleCode: r.VehicleID,
		Timestamp:   r.Timestamp.UTC().Format(time.RFC3339),
		Latitude:    r.Location.Lat,
		Longitude:   r.Location.Lon,
		Altitude:    r.Altitude,
		Speed:       r.Speed,
		Satellites:  r.Satellites,
		Ignition:    r.Ignition,
	}, nil
}
