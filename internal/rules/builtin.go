package rules

import "github.com/opensource-hiring/peregrine/internal/domain"

func f(v float64) *float64 { return &v }

// BuiltinPolicies returns the default policy set seeded for new tenants.
// The screening policy flags a scan when the weighted rule scores cross
// the alert threshold.
func BuiltinPolicies() []*domain.Policy {
	return []*domain.Policy{
		{
			ID:          "default-screening",
			Name:        "Default screening policy",
			Description: "Aggregates the builtin screening rules into a single flag decision",
			Version:     "1.0",
			Rules: []domain.PolicyRuleWeight{
				{RuleID: "high-fraud-probability", Weight: 0.01},
				{RuleID: "experience-gap", Weight: 0.25},
				{RuleID: "resubmission-velocity", Weight: 0.15},
				{RuleID: "inflated-thin-evidence", Weight: 0.30},
			},
			AlertThreshold: 0.7,
			Enabled:        true,
		},
	}
}

// BuiltinRules returns the default screening rule set seeded for new
// tenants. Tenants override or extend these via the rules API.
func BuiltinRules() []*domain.RuleConfig {
	return []*domain.RuleConfig{
		{
			ID:          "high-fraud-probability",
			Name:        "High fraud probability",
			Description: "Flags candidates the model scores as likely fraudulent",
			Version:     "1.0",
			Expression:  "fraud_probability",
			Bands: []domain.RuleBand{
				{UpperLimit: f(45), SubRuleRef: domain.RuleOutcomePass, Reason: "fraud probability within tolerance"},
				{LowerLimit: f(45), UpperLimit: f(70), SubRuleRef: domain.RuleOutcomeReview, Reason: "elevated fraud probability"},
				{LowerLimit: f(70), SubRuleRef: domain.RuleOutcomeFail, Reason: "high fraud probability"},
			},
			Weight:  1.0,
			Enabled: true,
		},
		{
			ID:          "experience-gap",
			Name:        "Claimed experience versus footprint age",
			Description: "Flags large gaps between claimed years and GitHub account age",
			Version:     "1.0",
			Expression:  "github_exists && experience_gap > 5",
			Bands: []domain.RuleBand{
				{UpperLimit: f(1), SubRuleRef: domain.RuleOutcomePass, Reason: "claimed experience matches footprint"},
				{LowerLimit: f(1), SubRuleRef: domain.RuleOutcomeReview, Reason: "claimed experience exceeds footprint age by over 5 years"},
			},
			Weight:  0.8,
			Enabled: true,
		},
		{
			ID:          "resubmission-velocity",
			Name:        "Re-submission velocity",
			Description: "Flags candidates scanned repeatedly in a short window",
			Version:     "1.0",
			Expression:  "scan_count > 3",
			Bands: []domain.RuleBand{
				{UpperLimit: f(1), SubRuleRef: domain.RuleOutcomePass, Reason: "normal submission rate"},
				{LowerLimit: f(1), SubRuleRef: domain.RuleOutcomeReview, Reason: "repeated submissions in window"},
			},
			Weight:  0.5,
			Enabled: true,
		},
		{
			ID:          "inflated-thin-evidence",
			Name:        "Inflated claims on thin evidence",
			Description: "Flags strongly inflated language with weak supporting evidence",
			Version:     "1.0",
			Expression:  "inflation_index >= 60.0 && evidence_score < 40.0",
			Bands: []domain.RuleBand{
				{UpperLimit: f(1), SubRuleRef: domain.RuleOutcomePass, Reason: "claims proportionate to evidence"},
				{LowerLimit: f(1), SubRuleRef: domain.RuleOutcomeFail, Reason: "inflated claims with little evidence"},
			},
			Weight:  0.9,
			Enabled: true,
		},
	}
}
