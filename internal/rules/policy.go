package rules

import (
	"sync"
	"time"

	"github.com/opensource-hiring/peregrine/internal/domain"
)

// PolicyEngine evaluates screening policies based on rule results.
// It calculates weighted scores from individual rule results.
type PolicyEngine struct {
	mu       sync.RWMutex
	policies map[string]*domain.Policy // key: policyID
}

// NewPolicyEngine creates a new policy evaluation engine.
func NewPolicyEngine() *PolicyEngine {
	return &PolicyEngine{
		policies: make(map[string]*domain.Policy),
	}
}

// LoadPolicies loads policy configurations into the engine.
func (e *PolicyEngine) LoadPolicies(policies []*domain.Policy) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.policies = make(map[string]*domain.Policy)
	for _, p := range policies {
		if p.Enabled {
			e.policies[p.ID] = p
		}
	}
}

// ReloadPolicies clears and reloads policies (hot reload).
func (e *PolicyEngine) ReloadPolicies(policies []*domain.Policy) {
	e.LoadPolicies(policies)
}

// GetLoadedPolicies returns currently loaded policies.
func (e *PolicyEngine) GetLoadedPolicies() []*domain.Policy {
	e.mu.RLock()
	defer e.mu.RUnlock()

	result := make([]*domain.Policy, 0, len(e.policies))
	for _, p := range e.policies {
		result = append(result, p)
	}
	return result
}

// PolicyCount returns the number of loaded policies.
func (e *PolicyEngine) PolicyCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.policies)
}

// EvaluatePolicies calculates policy scores from rule results.
// For each policy, it calculates a weighted sum of the rule scores
// and determines if the threshold is exceeded.
//
// Algorithm:
// 1. Build a map of ruleID -> score from rule results
// 2. For each policy, sum (rule_score * weight) for matching rules
// 3. Compare against alert threshold
// 4. Return evaluated policies
func (e *PolicyEngine) EvaluatePolicies(ruleResults []domain.RuleResult) []domain.PolicyResult {
	start := time.Now()

	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.policies) == 0 {
		return nil
	}

	// Build rule score map for O(1) lookups
	ruleScores := make(map[string]float64, len(ruleResults))
	for _, r := range ruleResults {
		ruleScores[r.RuleID] = r.Score
	}

	results := make([]domain.PolicyResult, 0, len(e.policies))

	for _, policy := range e.policies {
		result := e.evaluatePolicy(policy, ruleScores)
		result.ProcessMs = time.Since(start).Milliseconds()
		results = append(results, result)
	}

	return results
}

// evaluatePolicy calculates the score for a single policy.
func (e *PolicyEngine) evaluatePolicy(policy *domain.Policy, ruleScores map[string]float64) domain.PolicyResult {
	result := domain.PolicyResult{
		PolicyID:      policy.ID,
		PolicyName:    policy.Name,
		Threshold:     policy.AlertThreshold,
		Contributions: make([]domain.RuleContribution, 0, len(policy.Rules)),
	}

	var totalScore float64

	for _, ruleWeight := range policy.Rules {
		ruleScore, exists := ruleScores[ruleWeight.RuleID]
		if !exists {
			// Rule not evaluated - skip
			continue
		}

		contribution := ruleScore * ruleWeight.Weight
		totalScore += contribution

		result.Contributions = append(result.Contributions, domain.RuleContribution{
			RuleID:       ruleWeight.RuleID,
			RuleScore:    ruleScore,
			Weight:       ruleWeight.Weight,
			Contribution: contribution,
		})
	}

	result.Score = totalScore
	result.Triggered = totalScore >= policy.AlertThreshold

	return result
}

// EvaluatePolicy evaluates a single policy by ID.
func (e *PolicyEngine) EvaluatePolicy(policyID string, ruleResults []domain.RuleResult) (*domain.PolicyResult, bool) {
	e.mu.RLock()
	policy, exists := e.policies[policyID]
	if !exists {
		e.mu.RUnlock()
		return nil, false
	}

	// Build rule score map while holding lock
	ruleScores := make(map[string]float64, len(ruleResults))
	for _, r := range ruleResults {
		ruleScores[r.RuleID] = r.Score
	}

	// Evaluate while holding lock to prevent data race on policy pointer
	result := e.evaluatePolicy(policy, ruleScores)
	e.mu.RUnlock()

	return &result, true
}

// GetTriggeredPolicies returns only policies that exceeded their threshold.
func (e *PolicyEngine) GetTriggeredPolicies(ruleResults []domain.RuleResult) []domain.PolicyResult {
	all := e.EvaluatePolicies(ruleResults)
	triggered := make([]domain.PolicyResult, 0)
	for _, p := range all {
		if p.Triggered {
			triggered = append(triggered, p)
		}
	}
	return triggered
}

// Close cleans up the engine.
func (e *PolicyEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.policies = make(map[string]*domain.Policy)
	return nil
}
