// Package monitoring provides a metrics snapshot over the scan store and a
// watchdog that surfaces scans stuck in processing.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/probelabs/probe-api/internal/model"
	"github.com/probelabs/probe-api/internal/store"
)

// Snapshot holds a point-in-time view of scan activity.
type Snapshot struct {
	Total      int `json:"total_scans"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`

	FreeScans int `json:"free_scans"`
	DeepScans int `json:"deep_scans"`

	FailRate float64 `json:"fail_rate"`

	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// Collector gathers metrics from the store.
type Collector struct {
	store store.Store
}

// NewCollector creates a metrics collector.
func NewCollector(st store.Store) *Collector {
	return &Collector{store: st}
}

// Collect gathers a snapshot of scans created within the lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*Snapshot, error) {
	snap := &Snapshot{
		LookbackHours: lookbackHours,
		CollectedAt:   time.Now().UTC(),
	}

	cutoff := time.Now().UTC().Add(-time.Duration(lookbackHours) * time.Hour)
	scans, err := c.store.ListScans(ctx, store.ScanFilter{
		CreatedAfter: cutoff,
		Limit:        10000,
	})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list scans")
	}

	for _, sc := range scans {
		snap.Total++
		switch sc.Status {
		case model.StatusPending:
			snap.Pending++
		case model.StatusProcessing:
			snap.Processing++
		case model.StatusCompleted:
			snap.Completed++
		case model.StatusFailed:
			snap.Failed++
		}
		switch sc.Tier {
		case model.TierFree:
			snap.FreeScans++
		case model.TierDeep:
			snap.DeepScans++
		}
	}

	if terminal := snap.Completed + snap.Failed; terminal > 0 {
		snap.FailRate = float64(snap.Failed) / float64(terminal)
	}
	return snap, nil
}
