// Package forward implements the batch-forwarding pipelines: selecting
// buffered position records, delivering them to a downstream target, and
// marking them delivered. Delivery is at-least-once; marking is idempotent.
package forward

import (
	"sort"
	"time"

	"github.com/visionline/api-middleware/internal/models"
)

// SelectForMigtra selects every undelivered record, unchanged. Migtra is a
// plain relay with no windowing or dedup. Output is sorted by vehicle then
// timestamp for stable batches.
func SelectForMigtra(records []models.PositionRecord, _ time.Time) []models.PositionRecord {
	out := make([]models.PositionRecord, len(records))
	copy(out, records)
	sort.Slice(out, func(i, j int) bool {
		if out[i].VehicleID != out[j].VehicleID {
			return out[i].VehicleID < out[j].VehicleID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// NewGaussSelector returns the position-snapshot selector for Gauss Control:
// only records within the window ending at now, reduced to the single latest
// record per vehicle. Equal timestamps tie-break on the higher record id so
// repeated runs over the same snapshot pick the same record. Output is sorted
// by vehicle.
func NewGaussSelector(window time.Duration) func([]models.PositionRecord, time.Time) []models.PositionRecord {
	return func(records []models.PositionRecord, now time.Time) []models.PositionRecord {
		cutoff := now.Add(-window)
		latest := make(map[string]models.PositionRecord)
		for _, r := range records {
			if r.Timestamp.Before(cutoff) {
				continue
			}
			best, ok := latest[r.VehicleID]
			if !ok || newerThan(r, best) {
				latest[r.VehicleID] = r
			}
		}
		out := make([]models.PositionRecord, 0, len(latest))
		for _, r := range latest {
			out = append(out, r)
		}
		sort.Slice(out, func(i, j int) bool {
			return out[i].VehicleID < out[j].VehicleID
		})
		return out
	}
}

func newerThan(a, b models.PositionRecord) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.After(b.Timestamp)
	}
	return a.ID.Hex() > b.ID.Hex()
}
