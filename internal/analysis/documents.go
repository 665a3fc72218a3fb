package analysis

// Document shapes are load-bearing: external consumers of the HTTP API depend
// on these field names and nesting, so they are spelled out as structs rather
// than assembled ad hoc.

// ScoutDocument is the free-tier result.
type ScoutDocument struct {
	WebsiteURL      string     `json:"website_url"`
	AnalysisType    string     `json:"analysis_type"`
	Timestamp       string     `json:"timestamp"`
	MajorIssue      MajorIssue `json:"major_issue"`
	QuickStats      QuickStats `json:"quick_stats"`
	Recommendations []string   `json:"recommendations"`
	NextSteps       NextSteps  `json:"next_steps"`
}

type MajorIssue struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
	Severity    string `json:"severity"`
}

type QuickStats struct {
	PageLoadTime   string `json:"page_load_time"`
	MobileFriendly bool   `json:"mobile_friendly"`
	SSLCertificate bool   `json:"ssl_certificate"`
	BasicSEOScore  int    `json:"basic_seo_score"`
}

type NextSteps struct {
	Message string `json:"message"`
	CTA     string `json:"cta"`
}

// DeepDocument is the paid-tier result.
type DeepDocument struct {
	WebsiteURL                 string             `json:"website_url"`
	AnalysisType               string             `json:"analysis_type"`
	Timestamp                  string             `json:"timestamp"`
	ExecutiveSummary           ExecutiveSummary   `json:"executive_summary"`
	ProbeAgents                ProbeAgents        `json:"probe_agents"`
	PrioritizedRecommendations []Recommendation   `json:"prioritized_recommendations"`
	AgentSubscriptions         AgentSubscriptions `json:"agent_subscriptions"`
}

type ExecutiveSummary struct {
	OverallScore     int    `json:"overall_score"`
	CriticalIssues   int    `json:"critical_issues"`
	Opportunities    int    `json:"opportunities"`
	PotentialSavings string `json:"potential_savings"`
	EfficiencyGain   string `json:"efficiency_gain"`
}

type ProbeAgents struct {
	Chronovore    AgentFindings `json:"chronovore_agent"`
	ProfitVampire AgentFindings `json:"profit_vampire_agent"`
	GhostCustomer AgentFindings `json:"ghost_customer_agent"`
}

// AgentFindings carries one named sub-analysis. The waste/potential fields
// differ per agent, so the unused ones are omitted from the output.
type AgentFindings struct {
	Name                string   `json:"name"`
	Findings            []string `json:"findings"`
	TimeWaste           string   `json:"time_waste,omitempty"`
	AutomationPotential string   `json:"automation_potential,omitempty"`
	MoneyWaste          string   `json:"money_waste,omitempty"`
	SavingsPotential    string   `json:"savings_potential,omitempty"`
	RevenueLeak         string   `json:"revenue_leak,omitempty"`
	GrowthPotential     string   `json:"growth_potential,omitempty"`
}

type Recommendation struct {
	Priority int    `json:"priority"`
	Title    string `json:"title"`
	Impact   string `json:"impact"`
	Effort   string `json:"effort"`
	ROI      string `json:"roi"`
	Timeline string `json:"timeline"`
}

type AgentSubscriptions struct {
	Recommended []Subscription `json:"recommended"`
}

type Subscription struct {
	Name             string `json:"name"`
	Price            string `json:"price"`
	Description      string `json:"description"`
	EstimatedSavings string `json:"estimated_savings"`
}
