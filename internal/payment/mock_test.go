package payment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProvider_CreateIntent(t *testing.T) {
	now := func() time.Time {
		return time.Date(2025, 6, 1, 12, 30, 45, 0, time.UTC)
	}
	p := NewMockWithNow(now)

	intent, err := p.CreateIntent(context.Background(), 7, DeepProbePriceCents)
	require.NoError(t, err)

	assert.Equal(t, "pi_mock_20250601123045", intent.ID)
	assert.Equal(t, "pi_mock_7_secret", intent.ClientSecret)
	assert.Equal(t, int64(49900), intent.Amount)
	assert.Equal(t, "usd", intent.Currency)
	assert.Equal(t, "requires_payment_method", intent.Status)
}

func TestMockProvider_Authorize(t *testing.T) {
	p := NewMock()

	assert.NoError(t, p.Authorize(context.Background(), "tok_visa"))
	assert.NoError(t, p.Authorize(context.Background(), "anything"))
}
