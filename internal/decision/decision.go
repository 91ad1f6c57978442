// Package decision aggregates rule and policy results into the final
// flag decision for a scan.
package decision

import (
	"time"

	"github.com/opensource-hiring/peregrine/internal/domain"
)

// Processor aggregates rule results and produces a flag decision.
type Processor struct {
	// Threshold above which a scan is flagged for review
	AlertThreshold float64

	// Weight configuration for rule aggregation
	UseWeightedScoring bool
}

// NewProcessor creates a new decision processor with default settings.
func NewProcessor() *Processor {
	return &Processor{
		AlertThreshold:     0.7,  // Default threshold
		UseWeightedScoring: true, // Use rule weights in scoring
	}
}

// Decision is the aggregated outcome for a scan.
type Decision struct {
	Flagged           bool     `json:"flagged"`
	Score             float64  `json:"score"`
	Reasons           []string `json:"reasons,omitempty"`
	RulesEvaluated    int      `json:"rulesEvaluated"`
	PoliciesEvaluated int      `json:"policiesEvaluated"`
	DecisionMs        int64    `json:"decisionMs"`
}

// Decide evaluates rule and policy results and produces a flag decision.
// When policy results are present they drive the decision; otherwise the
// weighted rule aggregate is compared against the alert threshold. A
// rule failing outright flags the scan in either mode.
func (p *Processor) Decide(ruleResults []domain.RuleResult, policyResults []domain.PolicyResult) *Decision {
	start := time.Now()

	agg := p.aggregate(ruleResults)

	d := &Decision{
		RulesEvaluated:    len(ruleResults),
		PoliciesEvaluated: len(policyResults),
		Reasons:           reasons(ruleResults),
	}

	if len(policyResults) > 0 {
		anyTriggered := false
		maxScore := 0.0
		for _, pr := range policyResults {
			if pr.Triggered {
				anyTriggered = true
				d.Reasons = append(d.Reasons, pr.PolicyName)
			}
			if pr.Score > maxScore {
				maxScore = pr.Score
			}
		}

		d.Flagged = anyTriggered || agg.HasCriticalFailure
		d.Score = maxScore
	} else {
		d.Flagged = agg.HasCriticalFailure || agg.AggregateScore >= p.AlertThreshold
		d.Score = agg.AggregateScore
	}

	d.DecisionMs = time.Since(start).Milliseconds()
	return d
}

// AggregateResult holds the aggregated scoring results.
type AggregateResult struct {
	AggregateScore     float64
	TotalWeight        float64
	RulesTriggered     int
	HasCriticalFailure bool
}

// aggregate computes the weighted aggregate score from rule results.
func (p *Processor) aggregate(results []domain.RuleResult) *AggregateResult {
	if len(results) == 0 {
		return &AggregateResult{}
	}

	agg := &AggregateResult{}

	for _, r := range results {
		weight := r.Weight
		if weight <= 0 {
			weight = 1.0
		}

		// Score the band outcome, not the raw expression value. A passing
		// rule contributes nothing regardless of what its expression
		// evaluated to.
		outcome := 0.0
		switch r.SubRuleRef {
		case domain.RuleOutcomeFail:
			agg.HasCriticalFailure = true
			agg.RulesTriggered++
			outcome = 1.0
		case domain.RuleOutcomeReview:
			agg.RulesTriggered++
			outcome = 0.5
		}

		if p.UseWeightedScoring {
			agg.AggregateScore += outcome * weight
			agg.TotalWeight += weight
		} else {
			agg.AggregateScore += outcome
			agg.TotalWeight += 1.0
		}
	}

	// Normalize score
	if agg.TotalWeight > 0 {
		agg.AggregateScore = agg.AggregateScore / agg.TotalWeight
	}

	return agg
}

// reasons extracts human-readable reasons from failing or review-level
// rule results.
func reasons(results []domain.RuleResult) []string {
	var out []string
	for _, r := range results {
		if r.SubRuleRef == domain.RuleOutcomeFail || r.SubRuleRef == domain.RuleOutcomeReview {
			if r.Reason != "" {
				out = append(out, r.Reason)
			}
		}
	}
	return out
}
