package monitoring

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probelabs/probe-api/internal/model"
	"github.com/probelabs/probe-api/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func createScan(t *testing.T, st store.Store, tier model.ScanTier, status model.ScanStatus) *model.Scan {
	t.Helper()
	sc, err := st.CreateScan(context.Background(), model.Scan{
		BusinessName: "Acme",
		Website:      "https://acme.com",
		Email:        "a@acme.com",
		Tier:         tier,
		Status:       model.StatusProcessing,
	})
	require.NoError(t, err)

	switch status {
	case model.StatusCompleted:
		require.NoError(t, st.CompleteScan(context.Background(), sc.ID, json.RawMessage(`{}`), time.Now()))
	case model.StatusFailed:
		require.NoError(t, st.FailScan(context.Background(), sc.ID, time.Now()))
	case model.StatusProcessing:
	default:
		require.NoError(t, st.UpdateScanStatus(context.Background(), sc.ID, status))
	}
	return sc
}

func TestCollector_Collect(t *testing.T) {
	st := newTestStore(t)
	c := NewCollector(st)

	createScan(t, st, model.TierFree, model.StatusCompleted)
	createScan(t, st, model.TierFree, model.StatusCompleted)
	createScan(t, st, model.TierDeep, model.StatusCompleted)
	createScan(t, st, model.TierFree, model.StatusFailed)
	createScan(t, st, model.TierDeep, model.StatusProcessing)

	snap, err := c.Collect(context.Background(), 24)
	require.NoError(t, err)

	assert.Equal(t, 5, snap.Total)
	assert.Equal(t, 3, snap.Completed)
	assert.Equal(t, 1, snap.Failed)
	assert.Equal(t, 1, snap.Processing)
	assert.Equal(t, 0, snap.Pending)
	assert.Equal(t, 3, snap.FreeScans)
	assert.Equal(t, 2, snap.DeepScans)
	assert.InDelta(t, 0.25, snap.FailRate, 1e-9)
	assert.Equal(t, 24, snap.LookbackHours)
	assert.False(t, snap.CollectedAt.IsZero())
}

func TestCollector_Collect_Empty(t *testing.T) {
	st := newTestStore(t)
	c := NewCollector(st)

	snap, err := c.Collect(context.Background(), 24)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Total)
	assert.Zero(t, snap.FailRate)
}

func TestNewWatchdog_Defaults(t *testing.T) {
	st := newTestStore(t)

	wd := NewWatchdog(st, 0, 0)
	assert.Equal(t, 5*time.Minute, wd.checkInterval)
	assert.Equal(t, 10*time.Minute, wd.staleAfter)

	wd = NewWatchdog(st, time.Second, 2*time.Second)
	assert.Equal(t, time.Second, wd.checkInterval)
	assert.Equal(t, 2*time.Second, wd.staleAfter)
}

func TestWatchdog_RunStopsOnCancel(t *testing.T) {
	st := newTestStore(t)
	wd := NewWatchdog(st, 10*time.Millisecond, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		wd.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watchdog did not stop after cancel")
	}
}
