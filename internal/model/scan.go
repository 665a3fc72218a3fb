package model

import (
	"encoding/json"
	"strings"
	"time"
)

// ScanTier identifies the product tier of a scan.
type ScanTier string

const (
	TierFree ScanTier = "free"
	TierDeep ScanTier = "deep"
)

// ScanStatus represents the lifecycle state of a scan record.
type ScanStatus string

const (
	StatusPending    ScanStatus = "pending"
	StatusProcessing ScanStatus = "processing"
	StatusCompleted  ScanStatus = "completed"
	StatusFailed     ScanStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s ScanStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Scan is a single scan request and its lifecycle state. Results are held as
// raw JSON: the analysis document is opaque to the lifecycle layer.
type Scan struct {
	ID           int64           `json:"id"`
	BusinessName string          `json:"business_name"`
	Website      string          `json:"website"`
	Email        string          `json:"email"`
	Tier         ScanTier        `json:"scan_type"`
	Status       ScanStatus      `json:"status"`
	Results      json.RawMessage `json:"results,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

// NormalizeWebsite prefixes https:// when the input carries no scheme.
// Stored websites are always absolute URLs.
func NormalizeWebsite(website string) string {
	if website == "" {
		return website
	}
	if strings.HasPrefix(website, "http://") || strings.HasPrefix(website, "https://") {
		return website
	}
	return "https://" + website
}
