// Package payment defines the payment provider port. The only implementation
// is a simulated Stripe-shaped provider; a real gateway integration would
// replace it behind the same interface.
package payment

import "context"

// DeepProbePriceCents is the fixed Deep Probe price: $499.00.
const DeepProbePriceCents int64 = 49900

// Currency is the settlement currency for all charges.
const Currency = "usd"

// Intent is a Stripe-shaped payment intent. No intent state is persisted.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
}

// Provider authorizes charges and creates payment intents.
type Provider interface {
	// CreateIntent returns an opaque intent reference for the given scan
	// and charge amount in cents.
	CreateIntent(ctx context.Context, scanID int64, amountCents int64) (*Intent, error)

	// Authorize charges the given opaque payment token. The token's presence
	// is validated by the caller; Authorize decides whether it clears.
	Authorize(ctx context.Context, token string) error
}
