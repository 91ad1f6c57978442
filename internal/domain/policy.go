package domain

import "time"

// Policy groups multiple screening rules with weights to calculate a
// composite alert score. Example: a "Fabricated Seniority" policy
// combines ExperienceGap (0.5) + StaleFootprint (0.3) + Inflation (0.2).
type Policy struct {
	ID          string `json:"id"`
	TenantID    string `json:"tenantId,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`

	// Rules contains the list of rules with their weights
	Rules []PolicyRuleWeight `json:"rules"`

	// AlertThreshold is the minimum score to trigger an alert (0.0-1.0)
	AlertThreshold float64 `json:"alertThreshold"`

	// Whether policy is active
	Enabled bool `json:"enabled"`

	// Audit timestamps
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// PolicyRuleWeight defines a rule and its weight within a policy.
type PolicyRuleWeight struct {
	RuleID string  `json:"ruleId"`
	Weight float64 `json:"weight"` // 0.0 to 1.0
}

// RuleContribution shows how a single rule contributed to a policy score.
type RuleContribution struct {
	RuleID       string  `json:"ruleId"`
	RuleScore    float64 `json:"ruleScore"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"` // ruleScore * weight
}

// PolicyResult is the aggregated result of rules for a policy.
type PolicyResult struct {
	PolicyID      string             `json:"policyId"`
	PolicyName    string             `json:"policyName"`
	Score         float64            `json:"score"`
	Threshold     float64            `json:"threshold"`
	Triggered     bool               `json:"triggered"`
	Contributions []RuleContribution `json:"contributions,omitempty"`
	ProcessMs     int64              `json:"processMs,omitempty"`
}
