package payment

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// MockProvider simulates a payment gateway. Every intent is created in the
// requires_payment_method state and every authorization succeeds.
type MockProvider struct {
	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewMock creates a simulated payment provider.
func NewMock() *MockProvider {
	return &MockProvider{nowFunc: time.Now}
}

// NewMockWithNow creates a simulated payment provider with a fixed clock.
func NewMockWithNow(now func() time.Time) *MockProvider {
	return &MockProvider{nowFunc: now}
}

// CreateIntent fabricates a Stripe-shaped intent. The intent ID and client
// secret formats are part of the public API surface and must stay stable.
func (p *MockProvider) CreateIntent(ctx context.Context, scanID int64, amountCents int64) (*Intent, error) {
	intent := &Intent{
		ID:           fmt.Sprintf("pi_mock_%s", p.nowFunc().UTC().Format("20060102150405")),
		ClientSecret: fmt.Sprintf("pi_mock_%d_secret", scanID),
		Amount:       amountCents,
		Currency:     Currency,
		Status:       "requires_payment_method",
	}
	zap.L().Info("payment intent created",
		zap.String("intent_id", intent.ID),
		zap.Int64("scan_id", scanID),
		zap.Int64("amount_cents", amountCents),
	)
	return intent, nil
}

// Authorize accepts any token. A real gateway would charge it here.
func (p *MockProvider) Authorize(ctx context.Context, token string) error {
	zap.L().Info("payment authorized (simulated)", zap.Int("token_len", len(token)))
	return nil
}
