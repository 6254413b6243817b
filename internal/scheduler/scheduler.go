// Package scheduler fires the per-target forwarding pipelines on wall-clock
// offsets within each minute, mirroring the cron-style triggers of the source
// system (by default Migtra at :00 and :30, Gauss at :10). Offsets are spread
// so the two pipelines do not contend for the store at the same instant.
package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/visionline/api-middleware/internal/forward"
)

// Job is one scheduled pipeline with its trigger offsets.
type Job struct {
	Pipeline *forward.Pipeline
	// OffsetSeconds are the seconds within each minute at which the pipeline
	// fires. Must be in [0, 60).
	OffsetSeconds []int
}

// Scheduler runs a set of jobs until stopped. Each job gets its own loop;
// the pipelines' own run locks keep overlapping triggers from double-running.
type Scheduler struct {
	jobs []Job
	wg   sync.WaitGroup
	now  func() time.Time
}

// New creates a scheduler for the given jobs. A job with no offsets has no
// wall-clock instant to fire at and is dropped with an error log.
func New(jobs ...Job) *Scheduler {
	s := &Scheduler{now: time.Now}
	for _, job := range jobs {
		if len(job.OffsetSeconds) == 0 {
			log.WithField("target", job.Pipeline.Target).Error("job has no trigger offsets, dropping it")
			continue
		}
		s.jobs = append(s.jobs, job)
	}
	return s
}

// Start launches one loop per job. It returns immediately; cancel ctx and
// call Wait for a graceful stop.
func (s *Scheduler) Start(ctx context.Context) {
	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, job)
	}
}

// Wait blocks until all job loops have exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	defer s.wg.Done()
	log.WithFields(log.Fields{
		"target":  job.Pipeline.Target,
		"offsets": job.OffsetSeconds,
	}).Info("scheduler loop started")
	for {
		wait := nextFire(s.now(), job.OffsetSeconds)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.WithField("target", job.Pipeline.Target).Info("scheduler loop stopped")
			return
		case <-timer.C:
			// Fire asynchronously so a slow run delays nothing; the
			// pipeline's run lock drops the trigger if one is in flight.
			// Fired runs join the WaitGroup so Wait covers them too.
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				job.Pipeline.TryRun(ctx)
			}()
		}
	}
}

// nextFire returns the delay from now until the next wall-clock offset.
func nextFire(now time.Time, offsets []int) time.Duration {
	sorted := make([]int, len(offsets))
	copy(sorted, offsets)
	sort.Ints(sorted)

	sec := now.Second()
	for _, off := range sorted {
		if off > sec {
			return time.Duration(off-sec)*time.Second - time.Duration(now.Nanosecond())
		}
	}
	// Wrap to the first offset of the next minute.
	return time.Duration(60-sec+sorted[0])*time.Second - time.Duration(now.Nanosecond())
}
