package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probelabs/probe-api/internal/analysis"
	"github.com/probelabs/probe-api/internal/config"
	"github.com/probelabs/probe-api/internal/model"
	"github.com/probelabs/probe-api/internal/monitoring"
	"github.com/probelabs/probe-api/internal/payment"
	"github.com/probelabs/probe-api/internal/scan"
	"github.com/probelabs/probe-api/internal/store"
)

// newTestRouter wires a full stack on sqlite with a zero-delay analyzer.
func newTestRouter(t *testing.T) (http.Handler, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	analyzer := analysis.NewMock(analysis.WithDelays(0, 0))
	svc := scan.New(st, analyzer, payment.NewMock())
	collector := monitoring.NewCollector(st)

	cfg := config.ServerConfig{AllowedOrigins: []string{"*"}}
	return NewRouter(svc, collector, cfg, 24), st
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func getJSON(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func newProcessingRecord() model.Scan {
	return model.Scan{
		BusinessName: "Acme",
		Website:      "https://acme.com",
		Email:        "a@acme.com",
		Tier:         model.TierFree,
		Status:       model.StatusProcessing,
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := getJSON(t, h, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequestID_Propagated(t *testing.T) {
	h, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}

func TestFreeScan(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := postJSON(t, h, "/free-scan", map[string]any{
		"businessName": "Acme",
		"website":      "acme.com",
		"email":        "a@acme.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["scan_id"])
	assert.Equal(t, "Free scan completed! Check your email for the report.", body["message"])

	results, ok := body["results"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Scout Agent - Free Scan", results["analysis_type"])
	assert.Equal(t, "https://acme.com", results["website_url"])
}

func TestFreeScan_Validation(t *testing.T) {
	h, _ := newTestRouter(t)

	tests := []struct {
		name string
		body map[string]any
		msg  string
	}{
		{"missing business name", map[string]any{"website": "acme.com", "email": "a@acme.com"}, "businessName is required"},
		{"missing website", map[string]any{"businessName": "Acme", "email": "a@acme.com"}, "website is required"},
		{"missing email", map[string]any{"businessName": "Acme", "website": "acme.com"}, "email is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h, "/free-scan", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.msg, decodeBody(t, rec)["error"])
		})
	}
}

func TestDeepProbe_RequiresToken(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := postJSON(t, h, "/deep-probe", map[string]any{
		"businessName": "Acme",
		"website":      "acme.com",
		"email":        "a@acme.com",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Payment token required", decodeBody(t, rec)["error"])
}

func TestDeepProbe_NewScan(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := postJSON(t, h, "/deep-probe", map[string]any{
		"paymentToken": "tok_visa",
		"businessName": "Acme",
		"website":      "acme.com",
		"email":        "a@acme.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Deep Probe analysis completed! Detailed report will be delivered within 24 hours.", body["message"])

	results, ok := body["results"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Deep Probe - Comprehensive Analysis", results["analysis_type"])
}

func TestDeepProbe_UnknownScan(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := postJSON(t, h, "/deep-probe", map[string]any{
		"paymentToken": "tok_visa",
		"scanId":       9999,
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Scan not found", decodeBody(t, rec)["error"])
}

func TestScanStatus(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := postJSON(t, h, "/free-scan", map[string]any{
		"businessName": "Acme",
		"website":      "acme.com",
		"email":        "a@acme.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = getJSON(t, h, "/scan-status/1")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["id"])
	assert.Equal(t, "Acme", body["business_name"])
	assert.Equal(t, "https://acme.com", body["website"])
	assert.Equal(t, "free", body["scan_type"])
	assert.Equal(t, "completed", body["status"])
	assert.NotEmpty(t, body["created_at"])
	assert.NotEmpty(t, body["completed_at"])
	assert.Contains(t, body, "results")
}

func TestScanStatus_ProcessingHidesResults(t *testing.T) {
	h, st := newTestRouter(t)

	sc, err := st.CreateScan(context.Background(), newProcessingRecord())
	require.NoError(t, err)

	rec := getJSON(t, h, "/scan-status/1")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(sc.ID), body["id"])
	assert.Equal(t, "processing", body["status"])
	assert.NotContains(t, body, "results")
	assert.NotContains(t, body, "completed_at")
}

func TestScanStatus_NotFound(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := getJSON(t, h, "/scan-status/9999")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Scan not found", decodeBody(t, rec)["error"])

	rec = getJSON(t, h, "/scan-status/not-a-number")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Scan not found", decodeBody(t, rec)["error"])
}

func TestCreatePaymentIntent(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := postJSON(t, h, "/create-payment-intent", map[string]any{"scanId": 42})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])

	intent, ok := body["payment_intent"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(49900), intent["amount"])
	assert.Equal(t, "usd", intent["currency"])
	assert.Equal(t, "requires_payment_method", intent["status"])
	assert.Equal(t, "pi_mock_42_secret", intent["client_secret"])
	assert.Contains(t, intent["id"], "pi_mock_")
}

func TestConfirmPayment(t *testing.T) {
	h, st := newTestRouter(t)

	sc, err := st.CreateScan(context.Background(), newProcessingRecord())
	require.NoError(t, err)

	rec := postJSON(t, h, "/confirm-payment", map[string]any{
		"paymentIntentId": "pi_mock_20250601120000",
		"scanId":          sc.ID,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Payment confirmed! Deep Probe analysis completed.", body["message"])
	assert.Equal(t, float64(sc.ID), body["scan_id"])

	results, ok := body["results"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Deep Probe - Comprehensive Analysis", results["analysis_type"])

	// The existing record was upgraded in place.
	status := getJSON(t, h, "/scan-status/1")
	statusBody := decodeBody(t, status)
	assert.Equal(t, "deep", statusBody["scan_type"])
	assert.Equal(t, "completed", statusBody["status"])
}

func TestConfirmPayment_MissingFields(t *testing.T) {
	h, _ := newTestRouter(t)

	for _, body := range []map[string]any{
		{"scanId": 1},
		{"paymentIntentId": "pi_mock_x"},
		{},
	} {
		rec := postJSON(t, h, "/confirm-payment", body)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Payment intent ID and scan ID required", decodeBody(t, rec)["error"])
	}
}

func TestConfirmPayment_UnknownScan(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := postJSON(t, h, "/confirm-payment", map[string]any{
		"paymentIntentId": "pi_mock_x",
		"scanId":          12345,
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Scan not found", decodeBody(t, rec)["error"])
}

func TestMetrics(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := postJSON(t, h, "/free-scan", map[string]any{
		"businessName": "Acme",
		"website":      "acme.com",
		"email":        "a@acme.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = getJSON(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["total_scans"])
	assert.Equal(t, float64(1), body["completed"])
	assert.Equal(t, float64(1), body["free_scans"])
}

func TestMalformedBody(t *testing.T) {
	h, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/free-scan", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request body", decodeBody(t, rec)["error"])
}
