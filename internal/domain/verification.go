package domain

// VerificationResults carries every third-party signal fetched for a
// candidate before scoring. All fields are optional: an absent signal is
// a valid, non-error state and must degrade to a neutral default.
type VerificationResults struct {
	APISignals     APISignals      `json:"api_signals"`
	EmailTrust     *EmailTrust     `json:"email_trust,omitempty"`
	LanguageReview *LanguageReview `json:"language_review,omitempty"`
}

// APISignals groups signals from profile providers.
type APISignals struct {
	GitHub        *GitHubSignal        `json:"github,omitempty"`
	StackOverflow *StackOverflowSignal `json:"stackoverflow,omitempty"`
}

// GitHubSignal is the GitHub verification result. Exists=false with zero
// metrics means the handle was missing or the profile was not found.
type GitHubSignal struct {
	Exists  bool             `json:"exists"`
	Metrics DigitalFootprint `json:"metrics"`
}

// DigitalFootprint holds activity metrics for a GitHub profile.
type DigitalFootprint struct {
	RepoCount          int            `json:"repo_count"`
	AccountCreatedYear int            `json:"account_created_year"`
	LastCommitDaysAgo  int            `json:"last_commit_days_ago"`
	TopLanguage        string         `json:"top_language"`
	Languages          map[string]int `json:"languages,omitempty"`
	ActivityScore      float64        `json:"activity_score"`
}

// StackOverflowSignal is a supplementary presence signal.
type StackOverflowSignal struct {
	Exists bool `json:"exists"`
}

// Email domain type classifications.
const (
	EmailDomainCorporate  = "corporate"
	EmailDomainPersonal   = "personal"
	EmailDomainDisposable = "disposable"
	EmailDomainAcademic   = "academic"
)

// EmailTrust holds email reputation signals from third-party fraud APIs.
type EmailTrust struct {
	DomainType string        `json:"domain_type,omitempty"`
	IPQS       *IPQSResult   `json:"ipqs,omitempty"`
	Hunter     *HunterResult `json:"hunter,omitempty"`
}

// IPQSResult is the IPQS email fraud check. FraudScore is 0-100 where
// higher means riskier.
type IPQSResult struct {
	Status     string  `json:"status"`
	FraudScore float64 `json:"fraud_score"`
}

// HunterResult is the Hunter.io deliverability check.
type HunterResult struct {
	Status string  `json:"status"`
	Score  float64 `json:"score"`
}

// LanguageReview is an optional upstream AI critique of the resume
// narrative. The scoring core treats it as just another signal with a
// documented schema; it never calls the model itself.
type LanguageReview struct {
	Narrative       string  `json:"narrative,omitempty"`
	ConfidenceScore float64 `json:"confidence_score,omitempty"`
	Templated       bool    `json:"templated"`
}
