// Package scan implements the scan lifecycle controller: it drives a scan
// record through pending/processing to a terminal state and mediates calls to
// the analysis and payment providers.
package scan

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/probelabs/probe-api/internal/analysis"
	"github.com/probelabs/probe-api/internal/model"
	"github.com/probelabs/probe-api/internal/payment"
	"github.com/probelabs/probe-api/internal/store"
)

// Service orchestrates scan state transitions. All dependencies are injected;
// there is no package-level state.
type Service struct {
	store    store.Store
	analyzer analysis.Provider
	payments payment.Provider
	timeout  time.Duration

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithAnalysisTimeout bounds each analysis provider call. Zero disables the
// timeout.
func WithAnalysisTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithNowFunc overrides the clock used for completion timestamps.
func WithNowFunc(now func() time.Time) Option {
	return func(s *Service) { s.nowFunc = now }
}

// New creates a Service with the given store and providers.
func New(st store.Store, analyzer analysis.Provider, payments payment.Provider, opts ...Option) *Service {
	s := &Service{
		store:    st,
		analyzer: analyzer,
		payments: payments,
		nowFunc:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitRequest is a free scan submission.
type SubmitRequest struct {
	BusinessName string
	Website      string
	Email        string
}

// DeepProbeRequest is a Deep Probe purchase. ScanID upgrades an existing
// record; when zero, a new deep-tier record is created from the business
// fields.
type DeepProbeRequest struct {
	PaymentToken string
	ScanID       int64
	BusinessName string
	Website      string
	Email        string
}

// SubmitResult is the outcome of a submission: the record ID and the
// analysis document.
type SubmitResult struct {
	ScanID  int64
	Results json.RawMessage
}

// SubmitFreeScan validates the submission, records it and runs the free-tier
// analysis. The record is durable (status processing) before the provider is
// invoked, so a crash mid-analysis leaves an inspectable processing record.
func (s *Service) SubmitFreeScan(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if req.BusinessName == "" {
		return nil, &ValidationError{Field: "businessName"}
	}
	if req.Website == "" {
		return nil, &ValidationError{Field: "website"}
	}
	if req.Email == "" {
		return nil, &ValidationError{Field: "email"}
	}

	website := model.NormalizeWebsite(req.Website)
	sc, err := s.store.CreateScan(ctx, model.Scan{
		BusinessName: req.BusinessName,
		Website:      website,
		Email:        req.Email,
		Tier:         model.TierFree,
		Status:       model.StatusProcessing,
	})
	if err != nil {
		return nil, eris.Wrap(err, "scan: create free scan")
	}

	zap.L().Info("free scan submitted",
		zap.Int64("scan_id", sc.ID),
		zap.String("website", website),
	)

	results, err := s.runAnalysis(ctx, sc.ID, website, model.TierFree)
	if err != nil {
		return nil, err
	}
	return &SubmitResult{ScanID: sc.ID, Results: results}, nil
}

// SubmitDeepProbe handles a direct Deep Probe purchase. An existing scan ID
// upgrades that record's tier; otherwise a new deep-tier record is created.
func (s *Service) SubmitDeepProbe(ctx context.Context, req DeepProbeRequest) (*SubmitResult, error) {
	if req.PaymentToken == "" {
		return nil, &PaymentError{Reason: "Payment token required"}
	}
	if err := s.payments.Authorize(ctx, req.PaymentToken); err != nil {
		return nil, &PaymentError{Reason: "Payment authorization failed"}
	}

	var sc *model.Scan
	var err error
	if req.ScanID != 0 {
		sc, err = s.upgradeToDeep(ctx, req.ScanID)
		if err != nil {
			return nil, err
		}
	} else {
		sc, err = s.store.CreateScan(ctx, model.Scan{
			BusinessName: req.BusinessName,
			Website:      model.NormalizeWebsite(req.Website),
			Email:        req.Email,
			Tier:         model.TierDeep,
			Status:       model.StatusProcessing,
		})
		if err != nil {
			return nil, eris.Wrap(err, "scan: create deep scan")
		}
	}

	zap.L().Info("deep probe submitted",
		zap.Int64("scan_id", sc.ID),
		zap.String("website", sc.Website),
	)

	results, err := s.runAnalysis(ctx, sc.ID, sc.Website, model.TierDeep)
	if err != nil {
		return nil, err
	}
	return &SubmitResult{ScanID: sc.ID, Results: results}, nil
}

// ConfirmPayment confirms a paid upgrade of an existing scan and runs the
// deep-tier analysis. A record that already completed at deep tier returns
// its stored document without re-running the provider, so client retries of
// the confirmation are idempotent.
func (s *Service) ConfirmPayment(ctx context.Context, paymentIntentID string, scanID int64) (*SubmitResult, error) {
	sc, err := s.store.GetScan(ctx, scanID)
	if err != nil {
		return nil, eris.Wrapf(err, "scan: confirm payment %d", scanID)
	}

	if sc.Tier == model.TierDeep && sc.Status == model.StatusCompleted && sc.Results != nil {
		zap.L().Info("payment confirmation replayed, returning stored results",
			zap.Int64("scan_id", sc.ID),
			zap.String("payment_intent", paymentIntentID),
		)
		return &SubmitResult{ScanID: sc.ID, Results: sc.Results}, nil
	}

	sc, err = s.upgradeToDeep(ctx, scanID)
	if err != nil {
		return nil, err
	}

	zap.L().Info("payment confirmed, running deep probe",
		zap.Int64("scan_id", sc.ID),
		zap.String("payment_intent", paymentIntentID),
	)

	results, err := s.runAnalysis(ctx, sc.ID, sc.Website, model.TierDeep)
	if err != nil {
		return nil, err
	}
	return &SubmitResult{ScanID: sc.ID, Results: results}, nil
}

// Status returns the record's public fields. Results are present only for
// completed scans; the store upholds that invariant, and it is re-checked
// here so a manually edited row cannot leak a partial document.
func (s *Service) Status(ctx context.Context, scanID int64) (*model.Scan, error) {
	sc, err := s.store.GetScan(ctx, scanID)
	if err != nil {
		return nil, eris.Wrapf(err, "scan: status %d", scanID)
	}
	if sc.Status != model.StatusCompleted {
		sc.Results = nil
	}
	return sc, nil
}

// CreatePaymentIntent returns a payment intent for the fixed Deep Probe
// price. Pure stub: nothing is persisted and the scan ID is not resolved.
func (s *Service) CreatePaymentIntent(ctx context.Context, scanID int64) (*payment.Intent, error) {
	intent, err := s.payments.CreateIntent(ctx, scanID, payment.DeepProbePriceCents)
	if err != nil {
		return nil, eris.Wrapf(err, "scan: create payment intent %d", scanID)
	}
	return intent, nil
}

// upgradeToDeep resolves an existing record and moves it to deep tier,
// processing status. Tier movement is one-directional; a record that is
// already deep stays deep.
func (s *Service) upgradeToDeep(ctx context.Context, scanID int64) (*model.Scan, error) {
	sc, err := s.store.GetScan(ctx, scanID)
	if err != nil {
		return nil, eris.Wrapf(err, "scan: upgrade %d", scanID)
	}
	if sc.Tier != model.TierDeep {
		if err := s.store.UpdateScanTier(ctx, sc.ID, model.TierDeep); err != nil {
			return nil, eris.Wrapf(err, "scan: upgrade tier %d", scanID)
		}
		sc.Tier = model.TierDeep
	}
	if err := s.store.UpdateScanStatus(ctx, sc.ID, model.StatusProcessing); err != nil {
		return nil, eris.Wrapf(err, "scan: mark processing %d", scanID)
	}
	sc.Status = model.StatusProcessing
	return sc, nil
}

// runAnalysis invokes the provider and applies the terminal transition:
// completed with results on success, failed otherwise. Both terminal states
// get a completion timestamp. The terminal write uses a context detached
// from the request so a cancelled analysis still leaves a consistent record.
func (s *Service) runAnalysis(ctx context.Context, scanID int64, website string, tier model.ScanTier) (json.RawMessage, error) {
	actx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	results, err := s.analyzer.Analyze(actx, website, tier)
	if err != nil {
		if failErr := s.store.FailScan(context.WithoutCancel(ctx), scanID, s.nowFunc().UTC()); failErr != nil {
			zap.L().Error("failed to mark scan failed",
				zap.Int64("scan_id", scanID),
				zap.Error(failErr),
			)
		}
		zap.L().Error("analysis provider failed",
			zap.Int64("scan_id", scanID),
			zap.String("tier", string(tier)),
			zap.Error(err),
		)
		return nil, &ProviderError{Err: err}
	}

	if err := s.store.CompleteScan(ctx, scanID, results, s.nowFunc().UTC()); err != nil {
		return nil, eris.Wrapf(err, "scan: complete %d", scanID)
	}

	zap.L().Info("scan completed",
		zap.Int64("scan_id", scanID),
		zap.String("tier", string(tier)),
	)
	return results, nil
}
