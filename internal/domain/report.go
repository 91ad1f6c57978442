package domain

import (
	"time"
)

// Proportionality verdicts, ordered from best to worst.
const (
	ProportionalityProportionate = "Proportionate"
	ProportionalityMild          = "Mildly Inflated"
	ProportionalitySignificant   = "Significantly Inflated"
	ProportionalityHigh          = "Highly Inflated"
)

// ProportionalityRecord measures claim-to-evidence disproportion in the
// resume text. InflationIndex is 0-100, monotonic in "claims exceeding
// evidence".
type ProportionalityRecord struct {
	HighIntensityClaims  []string `json:"high_intensity_claims"`
	EvidenceMarkersFound int      `json:"evidence_markers_found"`
	ProjectEvidenceHits  int      `json:"project_evidence_hits"`
	AILanguageDetected   bool     `json:"ai_language_detected"`
	AILanguagePatterns   []string `json:"ai_language_patterns"`
	InflationFlags       []string `json:"inflation_flags"`
	InflationIndex       float64  `json:"inflation_index"`
	Verdict              string   `json:"proportionality_verdict"`
}

// Coherence verdicts.
const (
	CoherenceHigh     = "High Coherence"
	CoherenceModerate = "Moderate Coherence"
	CoherenceLow      = "Low Coherence"
)

// ConsistencyRecord measures internal timeline and skill consistency.
// CoherenceScore starts at 100 and is debited by detected issues, never
// going below 0.
type ConsistencyRecord struct {
	Flags               []string `json:"flags"`
	DateOverlapDetected bool     `json:"date_overlap_detected"`
	RapidEscalation     bool     `json:"rapid_escalation_flag"`
	SkillMentionRatio   float64  `json:"skill_mention_ratio"`
	CoherenceScore      float64  `json:"coherence_score"`
	Verdict             string   `json:"verdict"`
}

// Coverage levels for external signals.
const (
	CoverageStrong   = "Strong"
	CoverageAdequate = "Adequate"
	CoverageMinimal  = "Minimal"
)

// SignalSummary echoes the raw presence state of each external signal.
type SignalSummary struct {
	GitHubPresent        bool             `json:"github_present"`
	GitHubMetrics        DigitalFootprint `json:"github_metrics"`
	EmailChecked         bool             `json:"email_checked"`
	EmailFraudScore      float64          `json:"email_fraud_score"`
	StackOverflowPresent bool             `json:"stackoverflow_present"`
}

// ExternalSignalRecord classifies third-party signals as positive,
// contradictory, or neutral-absent, conditioned on stage expectations.
// Absence is only ever a contradiction when the stage expects presence.
type ExternalSignalRecord struct {
	PositiveSignals []string      `json:"positive_signals"`
	Contradictions  []string      `json:"contradictions"`
	NeutralAbsences []string      `json:"neutral_absences"`
	CoverageLevel   string        `json:"coverage_level"`
	Signals         SignalSummary `json:"signals"`
}

// Evidence strength levels.
const (
	EvidenceStrong   = "Strong"
	EvidenceModerate = "Moderate"
	EvidenceWeak     = "Weak"
)

// EvidenceStrengthRecord measures how solid the profile is based on
// concrete evidence markers. 0 (vacuum) to 100 (rock solid).
type EvidenceStrengthRecord struct {
	Score       float64 `json:"score"`
	Level       string  `json:"level"`
	SkillRatio  float64 `json:"skill_ratio"`
	DetailDepth int     `json:"detail_depth"`
}

// CoreMetrics are the trust-side summary numbers.
type CoreMetrics struct {
	TrustScore         float64 `json:"trust_score"`
	EvidenceStrength   string  `json:"evidence_strength"`
	ValidationRequired string  `json:"validation_required_level"`
}

// NarrativeRecord is the reconstructed candidate story with progression
// notes and gap detection.
type NarrativeRecord struct {
	HasEducation       bool     `json:"has_education"`
	HasWorkHistory     bool     `json:"has_work_history"`
	HasSkills          bool     `json:"has_skills"`
	SkillCount         int      `json:"skill_count"`
	RoleCount          int      `json:"role_count"`
	CertificationCount int      `json:"certification_count"`
	TimelineGaps       []string `json:"timeline_gaps"`
	ProgressionNatural bool     `json:"progression_natural"`
	Notes              []string `json:"notes"`
}

// RoleMatch measures alignment between candidate skills and the skills
// expected for the target role.
type RoleMatch struct {
	MatchScore    int      `json:"match_score"`
	Evaluated     bool     `json:"is_evaluated"`
	Verdict       string   `json:"verdict"`
	MatchedSkills []string `json:"matched_skills"`
	MissingSkills []string `json:"missing_skills"`
}

// AdaptiveScore is the final fused recommendation score.
type AdaptiveScore struct {
	HiringIndex      float64     `json:"hiring_index"`
	SystemConfidence int         `json:"system_confidence"`
	BaselineUsed     float64     `json:"baseline_used"`
	Stage            CareerStage `json:"stage"`
}

// Verdict is the recruiter-readable conclusion. Lines are emitted in a
// fixed order; downstream consumers parse line position.
type Verdict struct {
	FullVerdict        string   `json:"full_verdict"`
	Lines              []string `json:"verdict_lines"`
	ValidationRequired string   `json:"validation_required"`
	HiringIndex        float64  `json:"hiring_index"`
	SystemConfidence   int      `json:"system_confidence"`
}

// Indicator is one row of the structured analysis table.
type Indicator struct {
	Signal         string `json:"signal"`
	EvidenceSource string `json:"evidence_source"`
	Impact         string `json:"impact"`
	Severity       string `json:"severity"`
}

// SummarySnapshot is the at-a-glance decision block.
type SummarySnapshot struct {
	OverallRiskLevel    string `json:"overall_risk_level"`
	CapabilityCertainty string `json:"capability_certainty"`
	DigitalDepthRating  string `json:"digital_depth_rating"`
	RecommendedAction   string `json:"recommended_action"`
}

// StructuredAnalysis is the deterministic verification-signals card.
type StructuredAnalysis struct {
	PositiveIndicators []Indicator     `json:"positive_indicators"`
	NegativeIndicators []Indicator     `json:"negative_indicators"`
	Summary            SummarySnapshot `json:"summary_snapshot"`
}

// AnomalyRecord holds the deterministic anomaly flags.
// Probability = min(flag_count*15, 100).
type AnomalyRecord struct {
	Probability float64  `json:"anomaly_probability"`
	Flags       []string `json:"flags"`
	FlagCount   int      `json:"flag_count"`
}

// ForensicSummary carries the deterministic trust-layer scores.
type ForensicSummary struct {
	GitHubTrust     float64 `json:"github_trust"`
	GitHubLevel     string  `json:"github_level"`
	EmailTrust      float64 `json:"email_trust"`
	EmailReputation string  `json:"email_reputation"`
	IdentityMatch   float64 `json:"identity_match"`
	Correspondence  string  `json:"correspondence_level"`
	ShadowScore     float64 `json:"shadow_score"`
	Narrative       string  `json:"honest_narrative"`
	ReportHash      string  `json:"report_hash,omitempty"`
}

// ReportMetadata contains processing information.
type ReportMetadata struct {
	TraceID        string   `json:"traceId"`
	TotalMs        int64    `json:"totalMs"`
	DegradedStages []string `json:"degradedStages,omitempty"`
	EngineVersion  string   `json:"engineVersion"`
}

// ScanReport is the complete scoring output for one candidate scan.
type ScanReport struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	ScanID    string    `json:"scanId"`
	Timestamp time.Time `json:"timestamp"`

	CareerStage        CareerStageProfile     `json:"career_stage"`
	Narrative          NarrativeRecord        `json:"narrative"`
	Proportionality    ProportionalityRecord  `json:"proportionality"`
	Consistency        ConsistencyRecord      `json:"consistency"`
	ExternalSignals    ExternalSignalRecord   `json:"external_signals"`
	CoreMetrics        CoreMetrics            `json:"core_metrics"`
	EvidenceStrength   EvidenceStrengthRecord `json:"evidence_strength"`
	RoleMatch          RoleMatch              `json:"role_match"`
	Score              AdaptiveScore          `json:"score"`
	Verdict            Verdict                `json:"verdict"`
	StructuredAnalysis StructuredAnalysis     `json:"structured_analysis"`
	Composite          CompositeScore         `json:"composite"`
	Anomalies          AnomalyRecord          `json:"anomalies"`
	Forensic           ForensicSummary        `json:"forensic"`

	// Results of tenant-configured screening rules, if any
	RuleResults   []RuleResult   `json:"ruleResults,omitempty"`
	PolicyResults []PolicyResult `json:"policyResults,omitempty"`

	Metadata ReportMetadata `json:"metadata"`
}

// ScanResponse is the condensed API response for POST /scans.
type ScanResponse struct {
	ReportID         string         `json:"reportId"`
	ScanID           string         `json:"scanId"`
	TenantID         string         `json:"tenantId"`
	Stage            CareerStage    `json:"stage"`
	HiringIndex      float64        `json:"hiringIndex"`
	SystemConfidence int            `json:"systemConfidence"`
	FraudProbability float64        `json:"fraudProbability"`
	RiskLabel        string         `json:"riskLabel"`
	VerdictLines     []string       `json:"verdictLines"`
	Metadata         ReportMetadata `json:"metadata"`
}

// ToResponse condenses a report into the API response shape.
func (r *ScanReport) ToResponse() *ScanResponse {
	return &ScanResponse{
		ReportID:         r.ID,
		ScanID:           r.ScanID,
		TenantID:         r.TenantID,
		Stage:            r.CareerStage.Stage,
		HiringIndex:      r.Score.HiringIndex,
		SystemConfidence: r.Score.SystemConfidence,
		FraudProbability: r.Composite.FraudProbability,
		RiskLabel:        r.Composite.RiskLabel,
		VerdictLines:     r.Verdict.Lines,
		Metadata:         r.Metadata,
	}
}
