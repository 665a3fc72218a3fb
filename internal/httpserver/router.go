// Package httpserver exposes the scan lifecycle over the public JSON API.
// Request and response field names are fixed; external consumers depend on
// them.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/probelabs/probe-api/internal/config"
	"github.com/probelabs/probe-api/internal/monitoring"
	"github.com/probelabs/probe-api/internal/payment"
	"github.com/probelabs/probe-api/internal/scan"
	"github.com/probelabs/probe-api/internal/store"
)

// Router holds the handler dependencies.
type Router struct {
	svc       *scan.Service
	collector *monitoring.Collector
	lookback  int
}

// NewRouter builds the chi router with the full middleware chain. The
// collector is optional; without it the /metrics route is not mounted.
func NewRouter(svc *scan.Service, collector *monitoring.Collector, cfg config.ServerConfig, lookbackHours int) http.Handler {
	rt := &Router{svc: svc, collector: collector, lookback: lookbackHours}

	mux := chi.NewRouter()
	mux.Use(RequestID)
	mux.Use(RequestLogger)
	if cfg.RateLimitPerSec > 0 {
		mux.Use(RateLimit(cfg.RateLimitPerSec, cfg.RateLimitBurst))
	}
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
	}))

	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.Post("/free-scan", rt.wrap(rt.handleFreeScan))
	mux.Post("/deep-probe", rt.wrap(rt.handleDeepProbe))
	mux.Get("/scan-status/{scanID}", rt.wrap(rt.handleScanStatus))
	mux.Post("/create-payment-intent", rt.wrap(rt.handleCreatePaymentIntent))
	mux.Post("/confirm-payment", rt.wrap(rt.handleConfirmPayment))

	if collector != nil {
		mux.Get("/metrics", rt.wrap(rt.handleMetrics))
	}

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// errBadRequest marks a malformed request body.
type errBadRequest struct{ msg string }

func (e *errBadRequest) Error() string { return e.msg }

// wrap maps the error taxonomy onto HTTP statuses: validation and payment
// errors are 400, unknown scan IDs are 404, provider failures and anything
// unexpected are 500 with a generic message.
func (rt *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		var vErr *scan.ValidationError
		var pErr *scan.PaymentError
		var provErr *scan.ProviderError
		var badReq *errBadRequest
		switch {
		case errors.As(err, &badReq):
			writeError(w, http.StatusBadRequest, badReq.msg)
		case errors.As(err, &vErr):
			writeError(w, http.StatusBadRequest, vErr.Error())
		case errors.As(err, &pErr):
			writeError(w, http.StatusBadRequest, pErr.Error())
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "Scan not found")
		case errors.As(err, &provErr):
			zap.L().Error("analysis failed",
				zap.String("request_id", requestID(req.Context())),
				zap.Error(err),
			)
			writeError(w, http.StatusInternalServerError, "Analysis failed")
		default:
			zap.L().Error("request failed",
				zap.String("request_id", requestID(req.Context())),
				zap.String("path", req.URL.Path),
				zap.Error(err),
			)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
	}
}

// POST /free-scan
func (rt *Router) handleFreeScan(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		BusinessName string `json:"businessName"`
		Website      string `json:"website"`
		Email        string `json:"email"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return &errBadRequest{msg: "invalid request body"}
	}

	result, err := rt.svc.SubmitFreeScan(req.Context(), scan.SubmitRequest{
		BusinessName: body.BusinessName,
		Website:      body.Website,
		Email:        body.Email,
	})
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, submitResponse{
		Success: true,
		ScanID:  result.ScanID,
		Message: "Free scan completed! Check your email for the report.",
		Results: result.Results,
	})
}

// POST /deep-probe
func (rt *Router) handleDeepProbe(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		PaymentToken string `json:"paymentToken"`
		ScanID       int64  `json:"scanId"`
		BusinessName string `json:"businessName"`
		Website      string `json:"website"`
		Email        string `json:"email"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return &errBadRequest{msg: "invalid request body"}
	}

	result, err := rt.svc.SubmitDeepProbe(req.Context(), scan.DeepProbeRequest{
		PaymentToken: body.PaymentToken,
		ScanID:       body.ScanID,
		BusinessName: body.BusinessName,
		Website:      body.Website,
		Email:        body.Email,
	})
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, submitResponse{
		Success: true,
		ScanID:  result.ScanID,
		Message: "Deep Probe analysis completed! Detailed report will be delivered within 24 hours.",
		Results: result.Results,
	})
}

// GET /scan-status/{scanID}
func (rt *Router) handleScanStatus(w http.ResponseWriter, req *http.Request) error {
	id, err := strconv.ParseInt(chi.URLParam(req, "scanID"), 10, 64)
	if err != nil {
		return store.ErrNotFound
	}

	sc, err := rt.svc.Status(req.Context(), id)
	if err != nil {
		return err
	}

	resp := statusResponse{
		ID:           sc.ID,
		BusinessName: sc.BusinessName,
		Website:      sc.Website,
		ScanType:     string(sc.Tier),
		Status:       string(sc.Status),
		CreatedAt:    sc.CreatedAt.UTC().Format(time.RFC3339),
		Results:      sc.Results,
	}
	if sc.CompletedAt != nil {
		s := sc.CompletedAt.UTC().Format(time.RFC3339)
		resp.CompletedAt = &s
	}
	return writeJSON(w, http.StatusOK, resp)
}

// POST /create-payment-intent
func (rt *Router) handleCreatePaymentIntent(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		ScanID int64 `json:"scanId"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return &errBadRequest{msg: "invalid request body"}
	}

	intent, err := rt.svc.CreatePaymentIntent(req.Context(), body.ScanID)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, struct {
		Success       bool            `json:"success"`
		PaymentIntent *payment.Intent `json:"payment_intent"`
	}{Success: true, PaymentIntent: intent})
}

// POST /confirm-payment
func (rt *Router) handleConfirmPayment(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		PaymentIntentID string `json:"paymentIntentId"`
		ScanID          int64  `json:"scanId"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return &errBadRequest{msg: "invalid request body"}
	}
	if body.PaymentIntentID == "" || body.ScanID == 0 {
		return &errBadRequest{msg: "Payment intent ID and scan ID required"}
	}

	result, err := rt.svc.ConfirmPayment(req.Context(), body.PaymentIntentID, body.ScanID)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		ScanID  int64           `json:"scan_id"`
		Results json.RawMessage `json:"results"`
	}{
		Success: true,
		Message: "Payment confirmed! Deep Probe analysis completed.",
		ScanID:  result.ScanID,
		Results: result.Results,
	})
}

// GET /metrics
func (rt *Router) handleMetrics(w http.ResponseWriter, req *http.Request) error {
	snap, err := rt.collector.Collect(req.Context(), rt.lookback)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, snap)
}

// response shapes

type submitResponse struct {
	Success bool            `json:"success"`
	ScanID  int64           `json:"scan_id"`
	Message string          `json:"message"`
	Results json.RawMessage `json:"results"`
}

type statusResponse struct {
	ID           int64           `json:"id"`
	BusinessName string          `json:"business_name"`
	Website      string          `json:"website"`
	ScanType     string          `json:"scan_type"`
	Status       string          `json:"status"`
	CreatedAt    string          `json:"created_at"`
	CompletedAt  *string         `json:"completed_at,omitempty"`
	Results      json.RawMessage `json:"results,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg}) //nolint:errcheck
}
