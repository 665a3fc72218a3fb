// Package analysis defines the analysis provider port and its mock
// implementation. The lifecycle layer treats the result document as opaque
// JSON; only consumers of the HTTP API depend on its shape.
package analysis

import (
	"context"
	"encoding/json"

	"github.com/probelabs/probe-api/internal/model"
)

// Provider produces the analysis document for a website at a given tier.
type Provider interface {
	Analyze(ctx context.Context, website string, tier model.ScanTier) (json.RawMessage, error)
}
