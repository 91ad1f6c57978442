package scoring

import (
	"strings"
	"testing"

	"github.com/opensource-hiring/peregrine/internal/domain"
)

func hasSignal(indicators []domain.Indicator, fragment string) bool {
	for _, ind := range indicators {
		if strings.Contains(ind.Signal, fragment) {
			return true
		}
	}
	return false
}

func TestStructuredAnalysisStrongProfile(t *testing.T) {
	external := domain.ExternalSignalRecord{
		Signals: domain.SignalSummary{
			GitHubPresent: true,
			GitHubMetrics: domain.DigitalFootprint{
				RepoCount:          15,
				AccountCreatedYear: 2019,
				LastCommitDaysAgo:  10,
				TopLanguage:        "Go",
			},
			EmailChecked:    true,
			EmailFraudScore: 10,
		},
	}
	consistency := domain.ConsistencyRecord{SkillMentionRatio: 0.7}
	evidence := domain.EvidenceStrengthRecord{Score: 80, Level: domain.EvidenceStrong}
	coreMetrics := domain.CoreMetrics{TrustScore: 85}

	a := BuildStructuredAnalysis(external, consistency, evidence, coreMetrics, 15, testYear)

	for _, fragment := range []string{
		"GitHub Account Age 7 years",
		"15 public repositories found",
		"Recent activity (10d ago)",
		"Primary language: Go",
		"Email risk score 10/100 - safe",
		"Skill Alignment Score 70%",
		"Low Fraud Risk (15%)",
		"Strong Evidence Index (score: 80)",
	} {
		if !hasSignal(a.PositiveIndicators, fragment) {
			t.Errorf("missing positive indicator %q", fragment)
		}
	}
	if len(a.NegativeIndicators) != 0 {
		t.Errorf("unexpected negatives: %+v", a.NegativeIndicators)
	}

	s := a.Summary
	if s.OverallRiskLevel != "Low" || s.CapabilityCertainty != "High" || s.DigitalDepthRating != "Strong" {
		t.Errorf("snapshot = %+v", s)
	}
	if s.RecommendedAction != "Auto-clear / Proceed to interview" {
		t.Errorf("action = %q", s.RecommendedAction)
	}
}

func TestStructuredAnalysisThinProfile(t *testing.T) {
	external := domain.ExternalSignalRecord{}
	consistency := domain.ConsistencyRecord{SkillMentionRatio: 0.1}
	evidence := domain.EvidenceStrengthRecord{Score: 20, Level: domain.EvidenceWeak}
	coreMetrics := domain.CoreMetrics{TrustScore: 25}

	a := BuildStructuredAnalysis(external, consistency, evidence, coreMetrics, 70, testYear)

	for _, fragment := range []string{
		"No GitHub profile linked or found",
		"Low skill evidence",
		"High Fraud Probability (70%)",
		"Low Evidence Strength Index",
	} {
		if !hasSignal(a.NegativeIndicators, fragment) {
			t.Errorf("missing negative indicator %q", fragment)
		}
	}

	s := a.Summary
	if s.OverallRiskLevel != "High" || s.CapabilityCertainty != "Low" || s.DigitalDepthRating != "Weak" {
		t.Errorf("snapshot = %+v", s)
	}
	if s.RecommendedAction != "Manual Review / Reject if unverified" {
		t.Errorf("action = %q", s.RecommendedAction)
	}
}

func TestStructuredAnalysisModerateRiskAction(t *testing.T) {
	external := domain.ExternalSignalRecord{
		Signals: domain.SignalSummary{
			GitHubPresent: true,
			GitHubMetrics: domain.DigitalFootprint{RepoCount: 5, AccountCreatedYear: 2023, LastCommitDaysAgo: 90},
		},
	}
	consistency := domain.ConsistencyRecord{SkillMentionRatio: 0.5}
	evidence := domain.EvidenceStrengthRecord{Score: 55, Level: domain.EvidenceModerate}
	coreMetrics := domain.CoreMetrics{TrustScore: 55}

	a := BuildStructuredAnalysis(external, consistency, evidence, coreMetrics, 40, testYear)

	if a.Summary.OverallRiskLevel != "Moderate" {
		t.Errorf("risk = %q, want Moderate", a.Summary.OverallRiskLevel)
	}
	if a.Summary.RecommendedAction != "Technical Interview Required" {
		t.Errorf("action = %q", a.Summary.RecommendedAction)
	}
}

func TestStructuredAnalysisZeroCommitReadsStale(t *testing.T) {
	external := domain.ExternalSignalRecord{
		Signals: domain.SignalSummary{
			GitHubPresent: true,
			GitHubMetrics: domain.DigitalFootprint{RepoCount: 5, AccountCreatedYear: 2020},
		},
	}

	a := BuildStructuredAnalysis(external, domain.ConsistencyRecord{SkillMentionRatio: 0.7},
		domain.EvidenceStrengthRecord{Level: domain.EvidenceModerate}, domain.CoreMetrics{TrustScore: 60}, 25, testYear)

	if !hasSignal(a.NegativeIndicators, "No Recent Activity") {
		t.Errorf("zero last-commit must read as stale: %+v", a.NegativeIndicators)
	}
}

func TestStructuredAnalysisConsistencyFlagsTruncated(t *testing.T) {
	long := strings.Repeat("overlap detected between roles ", 5)
	consistency := domain.ConsistencyRecord{
		SkillMentionRatio: 0.7,
		Flags:             []string{long, "second flag", "third flag never shown"},
	}

	a := BuildStructuredAnalysis(domain.ExternalSignalRecord{}, consistency,
		domain.EvidenceStrengthRecord{Level: domain.EvidenceModerate}, domain.CoreMetrics{TrustScore: 60}, 25, testYear)

	var flagged []domain.Indicator
	for _, ind := range a.NegativeIndicators {
		if ind.EvidenceSource == "consistency engine" {
			flagged = append(flagged, ind)
		}
	}
	if len(flagged) != 2 {
		t.Fatalf("want 2 consistency indicators, got %d", len(flagged))
	}
	if len(flagged[0].Signal) != 80 {
		t.Errorf("long flag not truncated to 80, got %d", len(flagged[0].Signal))
	}
	if flagged[1].Signal != "second flag" {
		t.Errorf("second flag = %q", flagged[1].Signal)
	}
}
