package domain

// CareerStage is a discrete seniority bucket. All downstream evaluation
// calibrates its expectations to the stage.
type CareerStage string

const (
	StageAcademic          CareerStage = "Academic"
	StageFresher           CareerStage = "Fresher"
	StageEarlyProfessional CareerStage = "Early Professional"
	StageMidLevel          CareerStage = "Mid-Level"
	StageSenior            CareerStage = "Senior"
	StageExecutive         CareerStage = "Executive"
)

// Stages lists all valid career stages in ascending seniority order.
var Stages = []CareerStage{
	StageAcademic,
	StageFresher,
	StageEarlyProfessional,
	StageMidLevel,
	StageSenior,
	StageExecutive,
}

// EarlyCareer reports whether the stage is one where a thin external
// footprint is the norm rather than a warning sign.
func (s CareerStage) EarlyCareer() bool {
	return s == StageAcademic || s == StageFresher
}

// ExpectationSet tells the scorer what is NORMAL to expect at a stage.
// The expectation flags gate every absence-based penalty: a candidate is
// never penalized for lacking a signal their stage does not expect.
type ExpectationSet struct {
	ExpectsGitHub         bool   `json:"expects_github"`
	ExpectsCertifications bool   `json:"expects_certifications"`
	ExpectsWorkHistory    bool   `json:"expects_work_history"`
	ExpectsMetrics        bool   `json:"expects_metrics"`
	PenaltyForNoGitHub    bool   `json:"penalty_for_no_github"`
	Focus                 string `json:"focus"`
	Description           string `json:"description"`
}

// StageSignals are the measurable inputs the stage classifier reasons
// over. YearsSinceGraduation is nil when no plausible year was found.
type StageSignals struct {
	YearsSinceGraduation *int    `json:"years_since_graduation"`
	TotalExpYears        int     `json:"total_exp_years"`
	NumRoles             int     `json:"num_roles"`
	ExecHits             int     `json:"exec_hits"`
	SeniorHits           int     `json:"senior_hits"`
	MidHits              int     `json:"mid_hits"`
	StudentHits          int     `json:"student_hits"`
	AvgWordLen           float64 `json:"avg_word_len"`
	ClaimDensity         int     `json:"claim_density"`
}

// CareerStageProfile is the classifier output: stage, confidence in the
// classification, the stage baseline score, and the expectation rules.
type CareerStageProfile struct {
	Stage         CareerStage    `json:"stage"`
	Confidence    int            `json:"confidence"`
	BaselineScore float64        `json:"baseline_score"`
	Expectations  ExpectationSet `json:"expectations"`
	Signals       StageSignals   `json:"signals_used"`
}
