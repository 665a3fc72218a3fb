//go:build !integration

package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/probelabs/probe-api/internal/model"
)

func TestFormatScansList_Empty(t *testing.T) {
	var buf bytes.Buffer
	formatScansList(&buf, nil)

	output := buf.String()
	// Should still have the header even if scans is nil.
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "STATUS")
	assert.Contains(t, output, "CREATED")
}

func TestFormatScansList_SingleScan(t *testing.T) {
	created := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
	completed := created.Add(5 * time.Second)

	scans := []model.Scan{
		{
			ID:           1,
			BusinessName: "Acme",
			Website:      "https://acme.com",
			Tier:         model.TierDeep,
			Status:       model.StatusCompleted,
			Results:      json.RawMessage(`{}`),
			CreatedAt:    created,
			CompletedAt:  &completed,
		},
	}

	var buf bytes.Buffer
	formatScansList(&buf, scans)

	output := buf.String()
	assert.Contains(t, output, "Acme")
	assert.Contains(t, output, "https://acme.com")
	assert.Contains(t, output, "deep")
	assert.Contains(t, output, "completed")
	assert.Contains(t, output, "2025-06-01T10:30:00Z")
}

func TestFormatScansList_ProcessingShowsDash(t *testing.T) {
	scans := []model.Scan{
		{
			ID:           2,
			BusinessName: "Beta LLC",
			Website:      "https://beta.example",
			Tier:         model.TierFree,
			Status:       model.StatusProcessing,
			CreatedAt:    time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	formatScansList(&buf, scans)

	assert.Contains(t, buf.String(), "-")
	assert.Contains(t, buf.String(), "processing")
}
