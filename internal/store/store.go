package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/probelabs/probe-api/internal/model"
)

// ErrNotFound is returned when a scan ID does not resolve to a record.
var ErrNotFound = eris.New("scan not found")

// ScanFilter specifies criteria for listing scans.
type ScanFilter struct {
	Status        model.ScanStatus `json:"status,omitempty"`
	Tier          model.ScanTier   `json:"scan_type,omitempty"`
	CreatedAfter  time.Time        `json:"created_after,omitempty"`
	CreatedBefore time.Time        `json:"created_before,omitempty"`
	Limit         int              `json:"limit,omitempty"`
	Offset        int              `json:"offset,omitempty"`
}

// Store defines the persistence interface for scan records.
//
// CompleteScan and FailScan are the only terminal transitions: CompleteScan
// writes results, status and completed_at in a single statement so results
// exist iff the scan is completed; FailScan clears results and stamps the
// terminal time. Records are never deleted.
type Store interface {
	CreateScan(ctx context.Context, scan model.Scan) (*model.Scan, error)
	GetScan(ctx context.Context, id int64) (*model.Scan, error)
	UpdateScanStatus(ctx context.Context, id int64, status model.ScanStatus) error
	UpdateScanTier(ctx context.Context, id int64, tier model.ScanTier) error
	CompleteScan(ctx context.Context, id int64, results json.RawMessage, completedAt time.Time) error
	FailScan(ctx context.Context, id int64, completedAt time.Time) error
	ListScans(ctx context.Context, filter ScanFilter) ([]model.Scan, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
