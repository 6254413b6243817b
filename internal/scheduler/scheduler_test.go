package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/visionline/api-middleware/internal/forward"
	"github.com/visionline/api-middleware/internal/models"
)

func at(sec, nsec int) time.Time {
	return time.Date(2025, 1, 10, 10, 0, sec, nsec, time.UTC)
}

func TestNextFire(t *testing.T) {
	// Before the first offset.
	assert.Equal(t, 10*time.Second, nextFire(at(0, 0), []int{10}))

	// Between offsets.
	assert.Equal(t, 15*time.Second, nextFire(at(15, 0), []int{0, 30}))

	// Exactly on an offset fires at the next one, not immediately.
	assert.Equal(t, 30*time.Second, nextFire(at(30, 0), []int{0, 30}))

	// Past the last offset wraps to the next minute.
	assert.Equal(t, 25*time.Second, nextFire(at(45, 0), []int{10}))

	// Unsorted offsets are handled.
	assert.Equal(t, 5*time.Second, nextFire(at(25, 0), []int{30, 0}))
}

func TestNextFire_SubsecondAlignment(t *testing.T) {
	d := nextFire(at(9, 500_000_000), []int{10})
	assert.Equal(t, 500*time.Millisecond, d)
}

type stubStore struct {
	records []models.PositionRecord
}

func (s *stubStore) InsertPositions(context.Context, []models.PositionRecord) error { return nil }

func (s *stubStore) FindUnsent(context.Context, models.Target, time.Time) ([]models.PositionRecord, error) {
	return s.records, nil
}

func (s *stubStore) MarkSent(context.Context, models.Target, []primitive.ObjectID) error {
	return nil
}

func (s *stubStore) FindRecent(context.Context, string, int64) ([]models.PositionRecord, error) {
	return nil, nil
}

func TestNew_DropsJobWithoutOffsets(t *testing.T) {
	p := forward.NewPipeline(models.TargetMigtra, &stubStore{}, forward.SelectForMigtra,
		func(context.Context, []models.PositionRecord) (forward.Outcome, error) {
			return forward.OutcomeDelivered, nil
		}, 0, true)

	s := New(Job{Pipeline: p, OffsetSeconds: nil})
	assert.Empty(t, s.jobs)

	// Start/Wait must not panic with nothing to run.
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()
	s.Wait()
}

func TestWait_CoversInFlightRun(t *testing.T) {
	var startOnce sync.Once
	started := make(chan struct{})
	release := make(chan struct{})

	store := &stubStore{records: []models.PositionRecord{{
		ID: primitive.NewObjectID(), VehicleID: "V1", Timestamp: time.Now(),
	}}}
	p := forward.NewPipeline(models.TargetMigtra, store, forward.SelectForMigtra,
		func(context.Context, []models.PositionRecord) (forward.Outcome, error) {
			startOnce.Do(func() { close(started) })
			<-release
			return forward.OutcomeDelivered, nil
		}, 0, true)

	// Every second is an offset so the first trigger lands within a second.
	offsets := make([]int, 60)
	for i := range offsets {
		offsets[i] = i
	}
	s := New(Job{Pipeline: p, OffsetSeconds: offsets})
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	<-started
	cancel()

	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("Wait returned while a run was still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after the run finished")
	}
}
