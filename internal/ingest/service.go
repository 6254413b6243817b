// Package ingest turns device payloads into stored records and alarm
// correlation, regardless of whether they arrived over the webhook API or the
// MQTT bridge.
package ingest

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/visionline/api-middleware/internal/alarm"
	"github.com/visionline/api-middleware/internal/db"
	"github.com/visionline/api-middleware/internal/forward"
	"github.com/visionline/api-middleware/internal/metrics"
	"github.com/visionline/api-middleware/internal/models"
)

// Service is the ingestion entry point for both transports.
type Service struct {
	Positions  db.PositionCollection
	Alarms     db.AlarmCollection
	Correlator *alarm.Correlator
	Gauss      *forward.GaussClient
}

// IngestGPS validates and stores one GPS payload. Individual malformed
// reports are skipped, not batch-fatal. Returns the number of stored records.
func (s *Service) IngestGPS(ctx context.Context, payload models.GPSPayload) (int, error) {
	if payload.Type != "GPS" {
		return 0, fmt.Errorf("invalid payload type %q", payload.Type)
	}

	records := make([]models.PositionRecord, 0, len(payload.Data))
	for _, d := range payload.Data {
		rec, err := d.ToRecord()
		if err != nil {
			log.WithError(err).WithField("vehicle_id", d.VehicleID).Warn("skipping malformed gps report")
			continue
		}
		records = append(records, rec)
	}
	if err := s.Positions.InsertPositions(ctx, records); err != nil {
		return 0, fmt.Errorf("storing gps batch: %w", err)
	}
	metrics.PositionsIngestedTotal.Add(float64(len(records)))
	log.WithFields(log.Fields{
		"tenant_id": payload.TenantID,
		"received":  len(payload.Data),
		"stored":    len(records),
	}).Info("ingested gps batch")
	return len(records), nil
}

// IngestAlarm validates and stores one alarm payload, resolves each half
// against the correlation cache, and forwards completed sessions to Gauss
// immediately. Correlation or forwarding problems never fail ingestion.
func (s *Service) IngestAlarm(ctx context.Context, payload models.AlarmPayload) (int, error) {
	if payload.Type != "ALARM" {
		return 0, fmt.Errorf("invalid payload type %q", payload.Type)
	}

	var raw []models.AlarmRecord
	var halves []models.AlarmHalf
	for _, d := range payload.Data {
		half, err := d.ToHalf()
		if err != nil {
			log.WithError(err).WithField("alarm_id", d.AlarmID).Warn("skipping malformed alarm report")
			continue
		}
		halves = append(halves, half)
		raw = append(raw, models.AlarmRecord{
			AlarmID:   half.AlarmID,
			Kind:      half.Kind,
			VehicleID: half.VehicleID,
			AlarmType: half.AlarmType,
			Severity:  half.Severity,
			Timestamp: half.Timestamp,
			Location:  half.Location,
		})
	}
	if err := s.Alarms.InsertAlarms(ctx, raw); err != nil {
		return 0, fmt.Errorf("storing alarm batch: %w", err)
	}
	metrics.AlarmsIngestedTotal.Add(float64(len(halves)))

	for _, half := range halves {
		session, done := s.Correlator.Observe(half)
		if !done {
			continue
		}
		// Forward off the ingestion path; the delivery client owns its own
		// timeout and audit trail.
		go s.forwardSession(session)
	}
	return len(halves), nil
}

func (s *Service) forwardSession(session *models.AlarmSession) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := s.Gauss.SendAlarm(ctx, session); err != nil {
		log.WithError(err).WithField("alarm_id", session.AlarmID).Error("failed to forward alarm session")
	}
}
