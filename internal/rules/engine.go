// Package rules provides the CEL-Go based rule evaluation engine.
package rules

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/opensource-hiring/peregrine/internal/domain"
)

// Engine is the CEL-based rule evaluation engine. Tenants express
// screening policy over scored report features, e.g.
// "fraud_probability >= 70.0 && experience_gap > 5".
type Engine struct {
	mu              sync.RWMutex
	env             *cel.Env
	compiledRules   map[string]*CompiledRule
	scanCountGetter ScanCountGetter
	maxWorkers      int
}

// CompiledRule holds a pre-compiled CEL program.
type CompiledRule struct {
	Config  *domain.RuleConfig
	Program cel.Program
}

// ScanCountGetter returns the number of scans seen for a candidate email
// in a time window. Feeds the re-submission velocity variable.
type ScanCountGetter func(ctx context.Context, tenantID, email string, windowSecs int) (int64, error)

// NewEngine creates a new rule evaluation engine.
func NewEngine(scanCountGetter ScanCountGetter, maxWorkers int) (*Engine, error) {
	if maxWorkers <= 0 {
		maxWorkers = 10
	}

	// Create CEL environment with scan report variables
	env, err := cel.NewEnv(
		cel.Variable("report", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("scan_count", cel.IntType),
		cel.Variable("hiring_index", cel.DoubleType),
		cel.Variable("system_confidence", cel.IntType),
		cel.Variable("fraud_probability", cel.DoubleType),
		cel.Variable("inflation_index", cel.DoubleType),
		cel.Variable("coherence_score", cel.DoubleType),
		cel.Variable("evidence_score", cel.DoubleType),
		cel.Variable("trust_score", cel.DoubleType),
		cel.Variable("experience_gap", cel.IntType),
		cel.Variable("claimed_years", cel.IntType),
		cel.Variable("anomaly_count", cel.IntType),
		cel.Variable("stage", cel.StringType),
		cel.Variable("risk_label", cel.StringType),
		cel.Variable("domain", cel.StringType),
		cel.Variable("github_exists", cel.BoolType),
		cel.Variable("email_fraud_score", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Engine{
		env:             env,
		compiledRules:   make(map[string]*CompiledRule),
		scanCountGetter: scanCountGetter,
		maxWorkers:      maxWorkers,
	}, nil
}

// ValidateRule compiles and validates a rule without mutating loaded engine rules.
func (e *Engine) ValidateRule(cfg *domain.RuleConfig) error {
	if cfg == nil {
		return fmt.Errorf("rule config is required")
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	_, err := e.compileRule(cfg)
	return err
}

// LoadRule compiles and loads a rule into the engine.
func (e *Engine) LoadRule(cfg *domain.RuleConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	compiled, err := e.compileRule(cfg)
	if err != nil {
		return err
	}

	e.compiledRules[cfg.ID] = compiled

	return nil
}

// LoadRules compiles and loads multiple rules.
func (e *Engine) LoadRules(configs []*domain.RuleConfig) error {
	for _, cfg := range configs {
		if cfg.Enabled {
			if err := e.LoadRule(cfg); err != nil {
				return err
			}
		}
	}
	return nil
}

// EvaluateInput holds the scored report data for rule evaluation.
type EvaluateInput struct {
	TenantID       string
	ScanID         string
	CandidateEmail string
	Domain         string
	Report         *domain.ScanReport
	ScanWindow     int // seconds, for the re-submission velocity variable
	AdditionalData map[string]any
}

// EvaluateAll evaluates all loaded rules in parallel.
func (e *Engine) EvaluateAll(ctx context.Context, input *EvaluateInput) ([]domain.RuleResult, error) {
	e.mu.RLock()
	rules := make([]*CompiledRule, 0, len(e.compiledRules))
	for _, rule := range e.compiledRules {
		rules = append(rules, rule)
	}
	e.mu.RUnlock()

	if len(rules) == 0 {
		return nil, nil
	}

	// Get scan count if getter is available
	var scanCount int64
	if e.scanCountGetter != nil && input.ScanWindow > 0 && input.CandidateEmail != "" {
		count, err := e.scanCountGetter(ctx, input.TenantID, input.CandidateEmail, input.ScanWindow)
		if err == nil {
			scanCount = count
		}
	}

	activation := e.buildActivation(input, scanCount)

	// Parallel evaluation using worker pool pattern
	results := make([]domain.RuleResult, len(rules))
	var wg sync.WaitGroup

	// Limit concurrency with semaphore
	sem := make(chan struct{}, e.maxWorkers)

	for i, rule := range rules {
		wg.Add(1)
		go func(idx int, r *CompiledRule) {
			defer wg.Done()

			sem <- struct{}{}        // Acquire
			defer func() { <-sem }() // Release

			result := e.evaluateRule(ctx, r, activation, input)
			results[idx] = result
		}(i, rule)
	}

	wg.Wait()

	return results, nil
}

// buildActivation flattens the hot report features into CEL variables.
func (e *Engine) buildActivation(input *EvaluateInput, scanCount int64) map[string]any {
	activation := map[string]any{
		"scan_count":        scanCount,
		"hiring_index":      0.0,
		"system_confidence": 0,
		"fraud_probability": 0.0,
		"inflation_index":   0.0,
		"coherence_score":   0.0,
		"evidence_score":    0.0,
		"trust_score":       0.0,
		"experience_gap":    0,
		"claimed_years":     0,
		"anomaly_count":     0,
		"stage":             "",
		"risk_label":        "",
		"domain":            input.Domain,
		"github_exists":     false,
		"email_fraud_score": 0.0,
		"report":            map[string]any{},
	}

	if r := input.Report; r != nil {
		activation["hiring_index"] = r.Score.HiringIndex
		activation["system_confidence"] = r.Score.SystemConfidence
		activation["fraud_probability"] = r.Composite.FraudProbability
		activation["inflation_index"] = r.Proportionality.InflationIndex
		activation["coherence_score"] = r.Consistency.CoherenceScore
		activation["evidence_score"] = r.EvidenceStrength.Score
		activation["trust_score"] = r.CoreMetrics.TrustScore
		activation["experience_gap"] = r.Composite.Snapshot.ExpGap
		activation["claimed_years"] = r.Composite.Snapshot.ClaimedExp
		activation["anomaly_count"] = r.Anomalies.FlagCount
		activation["stage"] = string(r.CareerStage.Stage)
		activation["risk_label"] = r.Composite.RiskLabel
		activation["github_exists"] = r.ExternalSignals.Signals.GitHubPresent
		activation["email_fraud_score"] = r.ExternalSignals.Signals.EmailFraudScore

		activation["report"] = map[string]any{
			"id":           r.ID,
			"scan_id":      r.ScanID,
			"stage":        string(r.CareerStage.Stage),
			"hiring_index": r.Score.HiringIndex,
			"risk_label":   r.Composite.RiskLabel,
			"match_score":  r.RoleMatch.MatchScore,
		}
	}

	// Merge additional data
	for k, v := range input.AdditionalData {
		activation[k] = v
	}

	return activation
}

// evaluateRule evaluates a single rule and returns the result.
func (e *Engine) evaluateRule(ctx context.Context, rule *CompiledRule, activation map[string]any, input *EvaluateInput) domain.RuleResult {
	start := time.Now()

	result := domain.RuleResult{
		RuleID:   rule.Config.ID,
		TenantID: input.TenantID,
		ScanID:   input.ScanID,
		Weight:   rule.Config.Weight,
	}

	// Evaluate CEL expression
	out, _, err := rule.Program.Eval(activation)
	if err != nil {
		result.SubRuleRef = domain.RuleOutcomeError
		result.Reason = fmt.Sprintf("evaluation error: %v", err)
		result.ProcessMs = time.Since(start).Milliseconds()
		return result
	}

	// Convert result to score
	score := toScore(out)
	result.Score = score

	// Determine outcome based on bands
	result.SubRuleRef, result.Reason = matchBand(score, rule.Config.Bands)
	result.ProcessMs = time.Since(start).Milliseconds()

	return result
}

// toScore converts a CEL value to a numeric score.
func toScore(val ref.Val) float64 {
	switch v := val.(type) {
	case types.Bool:
		if v {
			return 1.0
		}
		return 0.0
	case types.Double:
		return float64(v)
	case types.Int:
		return float64(v)
	default:
		return 0.0
	}
}

// matchBand finds the matching band for a score.
// Bands are evaluated in order. Use lower inclusive, upper exclusive,
// except when upper is nil (meaning infinity).
func matchBand(score float64, bands []domain.RuleBand) (string, string) {
	for _, band := range bands {
		lower := 0.0
		hasUpper := band.UpperLimit != nil
		upper := float64(1e9) // effectively infinity

		if band.LowerLimit != nil {
			lower = *band.LowerLimit
		}
		if hasUpper {
			upper = *band.UpperLimit
		}

		// Match: lower <= score < upper (or lower <= score if no upper bound)
		if score >= lower {
			if !hasUpper || score < upper {
				return band.SubRuleRef, band.Reason
			}
			// Special case: if score equals upper and this is the last band, match it
			if score == upper && band.UpperLimit != nil {
				// Continue to next band which should have this as its lower
				continue
			}
		}
	}

	// Default to pass if no band matches
	return domain.RuleOutcomePass, "no matching band"
}

// RulesCount returns the number of loaded rules.
func (e *Engine) RulesCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.compiledRules)
}

// ReloadRules clears all existing rules and loads new ones.
// This enables hot-reloading of rules from the database.
func (e *Engine) ReloadRules(configs []*domain.RuleConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	newRules := make(map[string]*CompiledRule)

	// Load new rules
	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}

		compiled, err := e.compileRule(cfg)
		if err != nil {
			return err
		}
		newRules[cfg.ID] = compiled
	}

	e.compiledRules = newRules

	return nil
}

// GetLoadedRules returns the currently loaded rule configurations.
func (e *Engine) GetLoadedRules() []*domain.RuleConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rules := make([]*domain.RuleConfig, 0, len(e.compiledRules))
	for _, compiled := range e.compiledRules {
		rules = append(rules, compiled.Config)
	}
	return rules
}

// Close cleans up the engine.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.compiledRules = make(map[string]*CompiledRule)
	return nil
}

func (e *Engine) compileRule(cfg *domain.RuleConfig) (*CompiledRule, error) {
	ast, issues := e.env.Compile(cfg.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile rule %s: %w", cfg.ID, issues.Err())
	}

	outputType := ast.OutputType()
	if outputType != cel.BoolType && outputType != cel.DoubleType && outputType != cel.IntType {
		return nil, fmt.Errorf("rule %s: expression must return bool, int, or double, got %s", cfg.ID, outputType)
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for rule %s: %w", cfg.ID, err)
	}

	return &CompiledRule{
		Config:  cfg,
		Program: program,
	}, nil
}
