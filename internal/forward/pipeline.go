package forward

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/visionline/api-middleware/internal/db"
	"github.com/visionline/api-middleware/internal/metrics"
	"github.com/visionline/api-middleware/internal/models"
)

// SendFunc delivers one selected batch to a downstream target.
type SendFunc func(ctx context.Context, records []models.PositionRecord) (Outcome, error)

// SelectFunc reduces an unsent snapshot to the batch actually delivered.
type SelectFunc func(records []models.PositionRecord, now time.Time) []models.PositionRecord

// Pipeline is one target's select -> deliver -> mark cycle. Runs are guarded
// by a non-reentrant lock: a trigger firing while the previous run is still
// in flight is skipped, not queued.
type Pipeline struct {
	Target models.Target
	Store  db.PositionCollection
	Select SelectFunc
	Send   SendFunc
	// Window limits the store query to recent records; zero means all
	// undelivered records regardless of age.
	Window time.Duration
	// MarkWhenDisabled controls whether a not_activated outcome still marks
	// the snapshot delivered. Defaults to the original behavior (true) to
	// avoid a redelivery storm when the integration is enabled later.
	MarkWhenDisabled bool

	mu  sync.Mutex
	now func() time.Time
}

// NewPipeline builds a pipeline for one target.
func NewPipeline(target models.Target, store db.PositionCollection, sel SelectFunc, send SendFunc, window time.Duration, markWhenDisabled bool) *Pipeline {
	return &Pipeline{
		Target:           target,
		Store:            store,
		Select:           sel,
		Send:             send,
		Window:           window,
		MarkWhenDisabled: markWhenDisabled,
		now:              time.Now,
	}
}

// TryRun executes one cycle unless the previous one is still running, in
// which case it is dropped with a warning. Returns whether a run happened.
func (p *Pipeline) TryRun(ctx context.Context) bool {
	if !p.mu.TryLock() {
		log.WithField("target", p.Target).Warn("previous run still in flight, skipping this trigger")
		metrics.RunsSkippedTotal.WithLabelValues(string(p.Target)).Inc()
		return false
	}
	defer p.mu.Unlock()
	if err := p.run(ctx); err != nil {
		log.WithError(err).WithField("target", p.Target).Error("forwarding run failed")
	}
	return true
}

// run is one select -> deliver -> mark cycle. Every failure is terminal for
// this run only; unmarked records are naturally re-selected next cycle.
func (p *Pipeline) run(ctx context.Context) error {
	now := p.now()
	var since time.Time
	if p.Window > 0 {
		since = now.Add(-p.Window)
	}

	snapshot, err := p.Store.FindUnsent(ctx, p.Target, since)
	if err != nil {
		return fmt.Errorf("selecting unsent records: %w", err)
	}
	log.WithFields(log.Fields{
		"target":  p.Target,
		"records": len(snapshot),
	}).Info("forwarding run selected records")
	if len(snapshot) == 0 {
		return nil
	}

	batch := snapshot
	if p.Select != nil {
		batch = p.Select(snapshot, now)
	}

	outcome, err := p.Send(ctx, batch)
	if err != nil {
		return err
	}
	if outcome == OutcomeNotActivated && !p.MarkWhenDisabled {
		log.WithField("target", p.Target).Info("integration disabled, leaving records unmarked")
		return nil
	}

	// Mark the full snapshot, not just the reduced batch: records the
	// selector dropped (superseded positions) are consumed by this run too.
	ids := make([]primitive.ObjectID, len(snapshot))
	for i, r := range snapshot {
		ids[i] = r.ID
	}
	if err := p.Store.MarkSent(ctx, p.Target, ids); err != nil {
		// Delivery already happened; the next run re-delivers (at-least-once).
		return fmt.Errorf("marking %d records sent: %w", len(ids), err)
	}
	log.WithFields(log.Fields{
		"target":    p.Target,
		"delivered": len(batch),
		"marked":    len(ids),
	}).Info("forwarding run completed")
	return nil
}
