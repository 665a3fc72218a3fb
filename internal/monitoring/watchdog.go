package monitoring

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/probelabs/probe-api/internal/model"
	"github.com/probelabs/probe-api/internal/store"
)

// Watchdog periodically logs scans stuck in processing. A processing record
// older than the stale threshold usually means the process died mid-analysis;
// there is no automatic resume, so stuck records are surfaced for operator
// inspection (`probe-api scans list --status processing`).
type Watchdog struct {
	store         store.Store
	checkInterval time.Duration
	staleAfter    time.Duration
}

// NewWatchdog creates a stale-scan watchdog.
func NewWatchdog(st store.Store, checkInterval, staleAfter time.Duration) *Watchdog {
	if checkInterval <= 0 {
		checkInterval = 5 * time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	return &Watchdog{store: st, checkInterval: checkInterval, staleAfter: staleAfter}
}

// Run starts the periodic check loop. It blocks until ctx is cancelled.
func (wd *Watchdog) Run(ctx context.Context) {
	log := zap.L().With(zap.String("component", "monitoring.watchdog"))
	log.Info("starting stale-scan watchdog",
		zap.Duration("interval", wd.checkInterval),
		zap.Duration("stale_after", wd.staleAfter),
	)

	ticker := time.NewTicker(wd.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("watchdog stopped")
			return
		case <-ticker.C:
			wd.check(ctx, log)
		}
	}
}

func (wd *Watchdog) check(ctx context.Context, log *zap.Logger) {
	cutoff := time.Now().UTC().Add(-wd.staleAfter)
	stale, err := wd.store.ListScans(ctx, store.ScanFilter{
		Status:        model.StatusProcessing,
		CreatedBefore: cutoff,
	})
	if err != nil {
		log.Error("stale scan check failed", zap.Error(err))
		return
	}

	for _, sc := range stale {
		log.Warn("scan stuck in processing",
			zap.Int64("scan_id", sc.ID),
			zap.String("website", sc.Website),
			zap.String("scan_type", string(sc.Tier)),
			zap.Time("created_at", sc.CreatedAt),
		)
	}
}
