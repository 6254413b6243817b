// Package alarm pairs asynchronous START/END alarm terminals into completed
// sessions. Devices emit the two halves independently and in either order, so
// the correlator keeps unmatched halves in a keyed in-memory cache until the
// counterpart arrives or an idle TTL expires.
package alarm

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/visionline/api-middleware/internal/alarmcat"
	"github.com/visionline/api-middleware/internal/metrics"
	"github.com/visionline/api-middleware/internal/models"
)

type entry struct {
	start   *models.AlarmHalf
	end     *models.AlarmHalf
	touched time.Time
}

// Correlator is the shared half-event cache, keyed by alarm ID. The cache is
// memory-only: unmatched halves are lost on restart.
type Correlator struct {
	mu      sync.Mutex
	pending map[string]*entry
	ttl     time.Duration
	now     func() time.Time
}

// NewCorrelator creates a correlator evicting unmatched halves after ttl.
func NewCorrelator(ttl time.Duration) *Correlator {
	return &Correlator{
		pending: make(map[string]*entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Observe resolves one alarm half against the cache. It returns a completed
// session when the half matches a cached counterpart; the session is produced
// exactly once and the cache entry is evicted in the same step. A half of the
// same kind as one already cached overwrites it (last write wins); that is
// device-side duplication, logged but never an error.
func (c *Correlator) Observe(half models.AlarmHalf) (*models.AlarmSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.pending[half.AlarmID]
	if !ok {
		e = &entry{}
		c.pending[half.AlarmID] = e
	}

	switch half.Kind {
	case models.AlarmStart:
		if e.start != nil {
			log.WithFields(log.Fields{
				"alarm_id": half.AlarmID,
				"kind":     half.Kind,
			}).Warn("duplicate alarm half, overwriting cached one")
			metrics.AlarmDuplicateHalvesTotal.Inc()
		}
		h := half
		e.start = &h
	case models.AlarmEnd:
		if e.end != nil {
			log.WithFields(log.Fields{
				"alarm_id": half.AlarmID,
				"kind":     half.Kind,
			}).Warn("duplicate alarm half, overwriting cached one")
			metrics.AlarmDuplicateHalvesTotal.Inc()
		}
		h := half
		e.end = &h
	default:
		log.WithField("kind", half.Kind).Warn("ignoring alarm half with unknown kind")
		if e.start == nil && e.end == nil {
			delete(c.pending, half.AlarmID)
		}
		return nil, false
	}

	if e.start == nil || e.end == nil {
		e.touched = c.now()
		return nil, false
	}

	delete(c.pending, half.AlarmID)
	session := merge(e.start, e.end)
	metrics.AlarmSessionsCompletedTotal.Inc()
	return session, true
}

// PendingCount reports the number of unmatched halves currently cached.
func (c *Correlator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// StartSweeper runs TTL eviction until ctx is cancelled, checking at half the
// TTL interval. Evicted halves never produce a session.
func (c *Correlator) StartSweeper(ctx context.Context) {
	interval := c.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.sweep()
			}
		}
	}()
}

func (c *Correlator) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	cutoff := c.now().Add(-c.ttl)
	for id, e := range c.pending {
		if e.touched.Before(cutoff) {
			delete(c.pending, id)
			log.WithFields(log.Fields{
				"alarm_id": id,
				"age":      c.now().Sub(e.touched).String(),
			}).Warn("evicting orphaned alarm half")
			metrics.AlarmOrphanedHalvesTotal.Inc()
		}
	}
}

// merge layers the two halves into one session. The classification comes from
// whichever half carried the raw alarm type code, preferring START since that
// is the half devices normally attach it to.
func merge(start, end *models.AlarmHalf) *models.AlarmSession {
	s := &models.AlarmSession{
		AlarmID:   start.AlarmID,
		VehicleID: start.VehicleID,
		DriverID:  start.DriverID,
		AlarmType: start.AlarmType,
		Severity:  start.Severity,
		StartTime: start.Timestamp,
		EndTime:   end.Timestamp,
		StartLoc:  start.Location,
		EndLoc:    end.Location,
		Speed:     start.Speed,
		MediaURL:  start.MediaURL,
	}
	if s.VehicleID == "" {
		s.VehicleID = end.VehicleID
	}
	if s.DriverID == "" {
		s.DriverID = end.DriverID
	}
	// Code 0 is a real alarm type, so presence is tracked explicitly rather
	// than inferred from the zero value.
	if !start.HasType {
		s.AlarmType = end.AlarmType
	}
	if s.Severity == 0 {
		s.Severity = end.Severity
	}
	if s.Speed == 0 {
		s.Speed = end.Speed
	}
	if s.MediaURL == "" {
		s.MediaURL = end.MediaURL
	}
	if cls, ok := alarmcat.Classify(s.AlarmType); ok {
		s.Category = cls.Category
		s.Subtype = cls.Subtype
	} else {
		s.Category = "Unclassified"
		s.Subtype = alarmcat.Describe(s.AlarmType)
	}
	return s
}
