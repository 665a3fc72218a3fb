package analysis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/probelabs/probe-api/internal/model"
)

// MockProvider returns canned analysis documents after a simulated delay.
// It is the only provider implementation today; real analysis integrations
// would live behind the same Provider interface.
type MockProvider struct {
	freeDelay time.Duration
	deepDelay time.Duration
	fixtures  map[model.ScanTier]map[string]any

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// MockOption configures a MockProvider.
type MockOption func(*MockProvider)

// WithDelays sets the simulated latency per tier. Zero disables the delay.
func WithDelays(free, deep time.Duration) MockOption {
	return func(p *MockProvider) {
		p.freeDelay = free
		p.deepDelay = deep
	}
}

// WithFixtures replaces the canned documents with fixture overrides,
// keyed by tier. Missing tiers fall back to the built-in documents.
func WithFixtures(fixtures map[model.ScanTier]map[string]any) MockOption {
	return func(p *MockProvider) {
		p.fixtures = fixtures
	}
}

// WithNowFunc overrides the clock used to stamp documents.
func WithNowFunc(now func() time.Time) MockOption {
	return func(p *MockProvider) {
		p.nowFunc = now
	}
}

// NewMock creates a MockProvider with the default canned documents and
// production-like delays (2s free, 5s deep).
func NewMock(opts ...MockOption) *MockProvider {
	p := &MockProvider{
		freeDelay: 2 * time.Second,
		deepDelay: 5 * time.Second,
		nowFunc:   time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Analyze produces the document for the given tier. The simulated latency
// honors context cancellation, so a request timeout aborts the wait.
func (p *MockProvider) Analyze(ctx context.Context, website string, tier model.ScanTier) (json.RawMessage, error) {
	delay := p.freeDelay
	if tier == model.TierDeep {
		delay = p.deepDelay
	}
	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, eris.Wrap(ctx.Err(), "analysis: cancelled")
		case <-timer.C:
		}
	}

	timestamp := p.nowFunc().UTC().Format(time.RFC3339)

	if fixture, ok := p.fixtures[tier]; ok {
		return marshalFixture(fixture, website, timestamp)
	}

	var doc any
	switch tier {
	case model.TierDeep:
		doc = deepDocument(website, timestamp)
	default:
		doc = scoutDocument(website, timestamp)
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, eris.Wrap(err, "analysis: marshal document")
	}
	zap.L().Debug("analysis document produced",
		zap.String("website", website),
		zap.String("tier", string(tier)),
	)
	return out, nil
}

// marshalFixture stamps the per-scan fields into a fixture document so
// overridden documents still carry the submitted website and a fresh timestamp.
func marshalFixture(fixture map[string]any, website, timestamp string) (json.RawMessage, error) {
	doc := make(map[string]any, len(fixture)+2)
	for k, v := range fixture {
		doc[k] = v
	}
	doc["website_url"] = website
	doc["timestamp"] = timestamp

	out, err := json.Marshal(doc)
	return out, eris.Wrap(err, "analysis: marshal fixture document")
}

func scoutDocument(website, timestamp string) ScoutDocument {
	return ScoutDocument{
		WebsiteURL:   website,
		AnalysisType: "Scout Agent - Free Scan",
		Timestamp:    timestamp,
		MajorIssue: MajorIssue{
			Type:        "Performance",
			Title:       "Your website is 60% slower than your competitors",
			Description: "Page load time is 4.2 seconds. Visitors expect pages to load in under 3 seconds.",
			Impact:      "This could be scaring away 40% of your potential customers before they even see your content.",
			Severity:    "High",
		},
		QuickStats: QuickStats{
			PageLoadTime:   "4.2s",
			MobileFriendly: true,
			SSLCertificate: true,
			BasicSEOScore:  72,
		},
		Recommendations: []string{
			"Optimize images and compress files",
			"Enable browser caching",
			"Minimize HTTP requests",
			"Consider upgrading your hosting plan",
		},
		NextSteps: NextSteps{
			Message: "This free scan only looked at your website surface. Imagine what we could find if we probed your entire business operations, finances, and workflows.",
			CTA:     "Unlock the Deep Probe for just $499 to get the complete picture.",
		},
	}
}

func deepDocument(website, timestamp string) DeepDocument {
	return DeepDocument{
		WebsiteURL:   website,
		AnalysisType: "Deep Probe - Comprehensive Analysis",
		Timestamp:    timestamp,
		ExecutiveSummary: ExecutiveSummary{
			OverallScore:     68,
			CriticalIssues:   3,
			Opportunities:    7,
			PotentialSavings: "$2,400/month",
			EfficiencyGain:   "25%",
		},
		ProbeAgents: ProbeAgents{
			Chronovore: AgentFindings{
				Name: "Time Worm Hunter",
				Findings: []string{
					"Manual invoice processing: 8 hours/week",
					"Repetitive customer follow-ups: 6 hours/week",
					"Manual social media posting: 4 hours/week",
				},
				TimeWaste:           "18 hours/week",
				AutomationPotential: "85%",
			},
			ProfitVampire: AgentFindings{
				Name: "Money Ghost Detector",
				Findings: []string{
					"Unused software subscriptions: $340/month",
					"Inefficient ad spend: $800/month waste",
					"Overpaying for hosting: $120/month",
				},
				MoneyWaste:       "$1,260/month",
				SavingsPotential: "$15,120/year",
			},
			GhostCustomer: AgentFindings{
				Name: "Customer Leak Finder",
				Findings: []string{
					"Landing page conversion: 1.2% (industry avg: 3.5%)",
					"Email open rate: 18% (industry avg: 28%)",
					"Cart abandonment: 73% (industry avg: 45%)",
				},
				RevenueLeak:     "$3,200/month",
				GrowthPotential: "180%",
			},
		},
		PrioritizedRecommendations: []Recommendation{
			{Priority: 1, Title: "Implement Marketing Automation", Impact: "High", Effort: "Medium", ROI: "400%", Timeline: "2-4 weeks"},
			{Priority: 2, Title: "Optimize Landing Page Conversion", Impact: "High", Effort: "Low", ROI: "250%", Timeline: "1-2 weeks"},
			{Priority: 3, Title: "Audit and Cancel Unused Subscriptions", Impact: "Medium", Effort: "Low", ROI: "Immediate", Timeline: "1 week"},
		},
		AgentSubscriptions: AgentSubscriptions{
			Recommended: []Subscription{
				{
					Name:             "Automation Agent",
					Price:            "$99/month",
					Description:      "Eliminates Time Worms by building automated workflows",
					EstimatedSavings: "$1,800/month",
				},
				{
					Name:             "Ad Optimization Agent",
					Price:            "$199/month",
					Description:      "Banishes Money Ghosts by optimizing ad campaigns",
					EstimatedSavings: "$800/month",
				},
			},
		},
	}
}
