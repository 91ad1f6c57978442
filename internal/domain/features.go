package domain

// ModelFeatureCount is the exact input width of the trained fraud model.
// Feature order is part of the model contract; a mismatch is a hard
// error, never silently padded.
const ModelFeatureCount = 7

// ModelFeatureNames lists the trained model's features in input order.
var ModelFeatureNames = [ModelFeatureCount]string{
	"claimed_experience",
	"repo_count",
	"account_age",
	"last_commit_days",
	"experience_gap",
	"skill_match",
	"email_score",
}

// MLFeatureVector is the full feature set built once per scan and
// shared between the fraud model, the heuristic fallback, and the
// composite scorer. The first seven fields are the trained model's
// inputs; the extended fields feed heuristics and flags only.
type MLFeatureVector struct {
	// Trained model features (fixed order)
	ClaimedExperience float64 `json:"claimed_experience"`
	RepoCount         float64 `json:"repo_count"`
	AccountAge        float64 `json:"account_age"`
	LastCommitDays    float64 `json:"last_commit_days"`
	ExperienceGap     float64 `json:"experience_gap"`
	SkillMatch        float64 `json:"skill_match"`
	EmailScore        float64 `json:"email_score"`

	// Extended features (heuristics and composite scoring only)
	RoleCount      int     `json:"role_count"`
	SkillCount     int     `json:"skill_count"`
	TopLanguage    string  `json:"top_language"`
	CoherenceScore float64 `json:"coherence_score"`
	OverlapPenalty float64 `json:"overlap_penalty"`
	InflationIndex float64 `json:"inflation_index"`
	ActivitySignal float64 `json:"activity_signal"`
	EmailIPQS      float64 `json:"email_ipqs"`
}

// ModelInput returns the fixed-order vector fed to the trained model.
func (v *MLFeatureVector) ModelInput() [ModelFeatureCount]float64 {
	return [ModelFeatureCount]float64{
		v.ClaimedExperience,
		v.RepoCount,
		v.AccountAge,
		v.LastCommitDays,
		v.ExperienceGap,
		v.SkillMatch,
		v.EmailScore,
	}
}

// Risk labels, ordered by severity.
const (
	RiskLow      = "Low"
	RiskModerate = "Moderate"
	RiskElevated = "Elevated"
	RiskHigh     = "High"
)

// FeatureSnapshot is the condensed feature view embedded in the
// composite score for audit.
type FeatureSnapshot struct {
	ClaimedExp int     `json:"claimed_exp"`
	RepoCount  int     `json:"repo_count"`
	AccountAge int     `json:"account_age"`
	LastCommit int     `json:"last_commit"`
	ExpGap     int     `json:"exp_gap"`
	SkillCount int     `json:"skill_count"`
	Coherence  float64 `json:"coherence"`
	Inflation  float64 `json:"inflation"`
}

// CompositeScore fuses the fraud probability with evidence quality.
// ReliabilityIndex is always <= (100 - FraudProbability); equality only
// when EvidenceQuality is 100. That decoupling of "looks safe" from
// "well-evidenced" is the composite's anti-gaming property.
type CompositeScore struct {
	FraudProbability float64         `json:"fraud_probability"`
	ReliabilityIndex float64         `json:"reliability_index"`
	EvidenceQuality  float64         `json:"evidence_quality"`
	RiskLabel        string          `json:"risk_label"`
	MLFlags          []string        `json:"ml_flags"`
	Snapshot         FeatureSnapshot `json:"feature_snapshot"`
}
