package rules

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/opensource-hiring/peregrine/internal/domain"
)

// scoredReport builds a report with the hot features rules evaluate over.
func scoredReport() *domain.ScanReport {
	return &domain.ScanReport{
		ID:     "report-001",
		ScanID: "scan-001",
		CareerStage: domain.CareerStageProfile{
			Stage: domain.StageSenior,
		},
		Score: domain.AdaptiveScore{
			HiringIndex:      72.5,
			SystemConfidence: 80,
		},
		Composite: domain.CompositeScore{
			FraudProbability: 35.0,
			RiskLabel:        "Medium Risk",
			Snapshot: domain.FeatureSnapshot{
				ClaimedExp: 8,
				ExpGap:     2,
			},
		},
		Proportionality: domain.ProportionalityRecord{InflationIndex: 25.0},
		Consistency:     domain.ConsistencyRecord{CoherenceScore: 85.0},
		EvidenceStrength: domain.EvidenceStrengthRecord{Score: 60.0},
		CoreMetrics:      domain.CoreMetrics{TrustScore: 70.0},
		ExternalSignals: domain.ExternalSignalRecord{
			Signals: domain.SignalSummary{GitHubPresent: true, EmailFraudScore: 10.0},
		},
		Anomalies: domain.AnomalyRecord{FlagCount: 1},
	}
}

func TestEngineCreation(t *testing.T) {
	engine, err := NewEngine(nil, 5)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	defer engine.Close()

	if engine.RulesCount() != 0 {
		t.Errorf("expected 0 rules, got %d", engine.RulesCount())
	}
}

func TestLoadRule(t *testing.T) {
	engine, _ := NewEngine(nil, 5)
	defer engine.Close()

	rule := &domain.RuleConfig{
		ID:         "test-rule-001",
		Name:       "Test Rule",
		Expression: "fraud_probability > 70.0",
		Bands:      []domain.RuleBand{},
		Weight:     1.0,
		Enabled:    true,
	}

	err := engine.LoadRule(rule)
	if err != nil {
		t.Fatalf("failed to load rule: %v", err)
	}

	if engine.RulesCount() != 1 {
		t.Errorf("expected 1 rule, got %d", engine.RulesCount())
	}
}

func TestLoadInvalidRule(t *testing.T) {
	engine, _ := NewEngine(nil, 5)
	defer engine.Close()

	rule := &domain.RuleConfig{
		ID:         "invalid-rule",
		Name:       "Invalid Rule",
		Expression: "this is not valid CEL !!!",
		Enabled:    true,
	}

	err := engine.LoadRule(rule)
	if err == nil {
		t.Error("expected error for invalid CEL expression")
	}
}

func TestEvaluateSimpleRule(t *testing.T) {
	engine, _ := NewEngine(nil, 5)
	defer engine.Close()

	zero := 0.0
	one := 1.0

	rule := &domain.RuleConfig{
		ID:         "fraud-check",
		Name:       "Fraud Check",
		Expression: "fraud_probability > 70.0 ? 1.0 : 0.0",
		Bands: []domain.RuleBand{
			{LowerLimit: &zero, UpperLimit: &one, SubRuleRef: domain.RuleOutcomePass, Reason: "Low fraud probability"},
			{LowerLimit: &one, UpperLimit: nil, SubRuleRef: domain.RuleOutcomeFail, Reason: "High fraud probability"},
		},
		Weight:  1.0,
		Enabled: true,
	}

	engine.LoadRule(rule)

	ctx := context.Background()

	// Report below the threshold
	report := scoredReport()
	input := &EvaluateInput{
		TenantID: "tenant-001",
		ScanID:   "scan-001",
		Report:   report,
	}

	results, err := engine.EvaluateAll(ctx, input)
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	if results[0].Score != 0.0 {
		t.Errorf("expected score 0.0 for low fraud, got %.2f", results[0].Score)
	}
	if results[0].SubRuleRef != domain.RuleOutcomePass {
		t.Errorf("expected PASS, got %s", results[0].SubRuleRef)
	}

	// High fraud probability
	report.Composite.FraudProbability = 85.0
	results, _ = engine.EvaluateAll(ctx, input)

	if results[0].Score != 1.0 {
		t.Errorf("expected score 1.0 for high fraud, got %.2f", results[0].Score)
	}
	if results[0].SubRuleRef != domain.RuleOutcomeFail {
		t.Errorf("expected FAIL, got %s", results[0].SubRuleRef)
	}
}

func TestEvaluateBooleanRule(t *testing.T) {
	engine, _ := NewEngine(nil, 5)
	defer engine.Close()

	rule := &domain.RuleConfig{
		ID:         "senior-no-footprint",
		Name:       "Senior Without Footprint",
		Expression: "stage == 'Senior' && !github_exists",
		Bands:      []domain.RuleBand{},
		Weight:     1.0,
		Enabled:    true,
	}

	engine.LoadRule(rule)

	ctx := context.Background()

	report := scoredReport()
	input := &EvaluateInput{
		TenantID: "tenant-001",
		ScanID:   "scan-001",
		Report:   report,
	}

	// Senior with a GitHub profile
	results, _ := engine.EvaluateAll(ctx, input)
	if results[0].Score != 0.0 {
		t.Errorf("expected score 0.0 when footprint present, got %.2f", results[0].Score)
	}

	// Senior with no footprint
	report.ExternalSignals.Signals.GitHubPresent = false
	results, _ = engine.EvaluateAll(ctx, input)
	if results[0].Score != 1.0 {
		t.Errorf("expected score 1.0 for senior without footprint, got %.2f", results[0].Score)
	}
}

func TestScanCountRule(t *testing.T) {
	// Mock scan count getter that returns a fixed count
	scanCountGetter := func(ctx context.Context, tenantID, email string, windowSecs int) (int64, error) {
		return 15, nil // Simulates 15 scans in window
	}

	engine, _ := NewEngine(scanCountGetter, 5)
	defer engine.Close()

	zero := 0.0
	half := 0.5
	one := 1.0

	rule := &domain.RuleConfig{
		ID:          "scan-velocity-001",
		Name:        "Scan Velocity Check",
		Description: "Flags candidates re-submitted at unusually high frequency",
		Version:     "1.0.0",
		Expression:  "scan_count > 10 ? 1.0 : (scan_count > 5 ? 0.5 : 0.0)",
		Bands: []domain.RuleBand{
			{LowerLimit: &zero, UpperLimit: &half, SubRuleRef: domain.RuleOutcomePass, Reason: "Normal submission rate"},
			{LowerLimit: &half, UpperLimit: &one, SubRuleRef: domain.RuleOutcomeReview, Reason: "Elevated submission rate"},
			{LowerLimit: &one, UpperLimit: nil, SubRuleRef: domain.RuleOutcomeFail, Reason: "High submission rate"},
		},
		Weight:  1.0,
		Enabled: true,
	}
	engine.LoadRule(rule)

	ctx := context.Background()
	input := &EvaluateInput{
		TenantID:       "tenant-001",
		ScanID:         "scan-001",
		CandidateEmail: "dev@example.com",
		Report:         scoredReport(),
		ScanWindow:     3600, // 1 hour
	}

	results, _ := engine.EvaluateAll(ctx, input)

	// With 15 scans (> 10), should return 1.0 (fail)
	if results[0].Score != 1.0 {
		t.Errorf("expected score 1.0 for high scan velocity, got %.2f", results[0].Score)
	}
	if results[0].SubRuleRef != domain.RuleOutcomeFail {
		t.Errorf("expected FAIL for high scan velocity, got %s", results[0].SubRuleRef)
	}
}

func TestParallelExecution(t *testing.T) {
	engine, _ := NewEngine(nil, 3)
	defer engine.Close()

	// Load multiple rules
	for i := 0; i < 10; i++ {
		rule := &domain.RuleConfig{
			ID:         fmt.Sprintf("rule-%d", i),
			Name:       fmt.Sprintf("Rule %d", i),
			Expression: "hiring_index > 0.0",
			Weight:     1.0,
			Enabled:    true,
		}
		engine.LoadRule(rule)
	}

	if engine.RulesCount() != 10 {
		t.Fatalf("expected 10 rules, got %d", engine.RulesCount())
	}

	ctx := context.Background()
	input := &EvaluateInput{
		TenantID: "tenant-001",
		ScanID:   "scan-001",
		Report:   scoredReport(),
	}

	results, err := engine.EvaluateAll(ctx, input)
	if err != nil {
		t.Fatalf("parallel evaluation failed: %v", err)
	}

	if len(results) != 10 {
		t.Errorf("expected 10 results, got %d", len(results))
	}

	// All should have passed
	for i, r := range results {
		if r.Score != 1.0 {
			t.Errorf("rule %d: expected score 1.0, got %.2f", i, r.Score)
		}
	}
}

func TestConcurrencyLimit(t *testing.T) {
	var concurrentCount int32
	var maxConcurrent int32

	// Scan count getter that tracks concurrent executions
	scanCountGetter := func(ctx context.Context, tenantID, email string, windowSecs int) (int64, error) {
		current := atomic.AddInt32(&concurrentCount, 1)
		defer atomic.AddInt32(&concurrentCount, -1)

		// Track max concurrent
		for {
			old := atomic.LoadInt32(&maxConcurrent)
			if current <= old || atomic.CompareAndSwapInt32(&maxConcurrent, old, current) {
				break
			}
		}

		time.Sleep(10 * time.Millisecond) // Simulate work
		return 5, nil
	}

	engine, _ := NewEngine(scanCountGetter, 2) // Max 2 workers
	defer engine.Close()

	// Load 10 rules that use the scan count
	for i := 0; i < 10; i++ {
		rule := &domain.RuleConfig{
			ID:         fmt.Sprintf("rule-%d", i),
			Expression: "scan_count > 10 ? 1.0 : 0.0",
			Enabled:    true,
		}
		engine.LoadRule(rule)
	}

	ctx := context.Background()
	input := &EvaluateInput{
		TenantID:       "tenant-001",
		ScanID:         "scan-001",
		CandidateEmail: "dev@example.com",
		Report:         scoredReport(),
		ScanWindow:     3600,
	}

	engine.EvaluateAll(ctx, input)

	// Note: the scan count is fetched once before parallel execution, so
	// the semaphore governs rule evaluation only. This test mainly
	// verifies the worker pool doesn't crash.
}

func TestExperienceGapRule(t *testing.T) {
	engine, _ := NewEngine(nil, 5)
	defer engine.Close()

	zero := 0.0
	one := 1.0

	rule := &domain.RuleConfig{
		ID:          "experience-gap-001",
		Name:        "Experience Gap Check",
		Description: "Flags claimed experience far exceeding the footprint age",
		Version:     "1.0.0",
		Expression:  "github_exists && experience_gap > 5 ? 1.0 : 0.0",
		Bands: []domain.RuleBand{
			{LowerLimit: &zero, UpperLimit: &one, SubRuleRef: domain.RuleOutcomePass, Reason: "Claims match footprint"},
			{LowerLimit: &one, UpperLimit: nil, SubRuleRef: domain.RuleOutcomeReview, Reason: "Claims exceed footprint age"},
		},
		Weight:  0.8,
		Enabled: true,
	}
	engine.LoadRule(rule)

	ctx := context.Background()

	// Small gap
	report := scoredReport()
	input := &EvaluateInput{TenantID: "t1", ScanID: "s1", Report: report}
	results, _ := engine.EvaluateAll(ctx, input)
	if results[0].SubRuleRef != domain.RuleOutcomePass {
		t.Errorf("expected PASS for small gap, got %s", results[0].SubRuleRef)
	}

	// Large gap
	report.Composite.Snapshot.ExpGap = 11
	results, _ = engine.EvaluateAll(ctx, input)
	if results[0].SubRuleRef != domain.RuleOutcomeReview {
		t.Errorf("expected REVIEW for large gap, got %s", results[0].SubRuleRef)
	}
}

func TestNilReportDefaults(t *testing.T) {
	engine, _ := NewEngine(nil, 5)
	defer engine.Close()

	rule := &domain.RuleConfig{
		ID:         "nil-report",
		Expression: "hiring_index == 0.0 && stage == ''",
		Enabled:    true,
	}
	engine.LoadRule(rule)

	ctx := context.Background()
	input := &EvaluateInput{TenantID: "t1", ScanID: "s1"}

	results, err := engine.EvaluateAll(ctx, input)
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}
	if results[0].Score != 1.0 {
		t.Errorf("expected zero-value defaults with nil report, got score %.2f", results[0].Score)
	}
}

func TestRuleResultMetadata(t *testing.T) {
	engine, _ := NewEngine(nil, 5)
	defer engine.Close()

	rule := &domain.RuleConfig{
		ID:         "meta-test",
		Expression: "hiring_index > 0.0",
		Weight:     0.75,
		Enabled:    true,
	}
	engine.LoadRule(rule)

	ctx := context.Background()
	input := &EvaluateInput{
		TenantID: "tenant-123",
		ScanID:   "scan-456",
		Report:   scoredReport(),
	}

	results, _ := engine.EvaluateAll(ctx, input)

	if results[0].RuleID != "meta-test" {
		t.Errorf("expected RuleID 'meta-test', got '%s'", results[0].RuleID)
	}
	if results[0].TenantID != "tenant-123" {
		t.Errorf("expected TenantID 'tenant-123', got '%s'", results[0].TenantID)
	}
	if results[0].ScanID != "scan-456" {
		t.Errorf("expected ScanID 'scan-456', got '%s'", results[0].ScanID)
	}
	if results[0].Weight != 0.75 {
		t.Errorf("expected Weight 0.75, got %.2f", results[0].Weight)
	}
	if results[0].ProcessMs < 0 {
		t.Error("ProcessMs should be non-negative")
	}
}

func TestBuiltinRulesCompile(t *testing.T) {
	engine, _ := NewEngine(nil, 5)
	defer engine.Close()

	if err := engine.LoadRules(BuiltinRules()); err != nil {
		t.Fatalf("builtin rules failed to compile: %v", err)
	}
	if engine.RulesCount() != len(BuiltinRules()) {
		t.Errorf("expected %d rules, got %d", len(BuiltinRules()), engine.RulesCount())
	}
}

func TestBuiltinPoliciesLoad(t *testing.T) {
	engine := NewPolicyEngine()
	defer engine.Close()

	engine.LoadPolicies(BuiltinPolicies())
	if engine.PolicyCount() != len(BuiltinPolicies()) {
		t.Errorf("expected %d policies, got %d", len(BuiltinPolicies()), engine.PolicyCount())
	}

	// All builtin policy rule IDs must reference builtin rules.
	ruleIDs := make(map[string]bool)
	for _, r := range BuiltinRules() {
		ruleIDs[r.ID] = true
	}
	for _, p := range BuiltinPolicies() {
		for _, rw := range p.Rules {
			if !ruleIDs[rw.RuleID] {
				t.Errorf("policy %s references unknown rule %s", p.ID, rw.RuleID)
			}
		}
	}
}
