package mlmodel

import (
	"fmt"

	"github.com/opensource-hiring/peregrine/internal/domain"
)

// Compose fuses the fraud probability with an evidence-quality weight
// into the composite score. Reliability is the inverse of fraud but
// discounted when evidence is thin: a clean-looking profile with no
// hard data cannot earn full trust.
func Compose(f domain.MLFeatureVector, fraudProbability float64) domain.CompositeScore {
	eq := 0.0
	if f.RepoCount > 0 {
		eq += 20
	}
	if f.RepoCount > 10 {
		eq += 15
	}
	if f.AccountAge > 2 {
		eq += 15
	}
	if f.LastCommitDays < 60 {
		eq += 15
	}
	if f.SkillMatch > 40 {
		eq += 15
	}
	if f.EmailScore > 60 {
		eq += 10
	}
	if f.CoherenceScore > 70 {
		eq += 10
	}
	if eq > 100 {
		eq = 100
	}

	rawReliability := 100 - fraudProbability
	if rawReliability < 0 {
		rawReliability = 0
	}
	reliability := round1(rawReliability * (0.4 + 0.6*eq/100))

	var flags []string
	if f.ExperienceGap > 3 {
		flags = append(flags, fmt.Sprintf(
			"Timeline gap: claims %.0fyr exp but GitHub only %.0fyr old.",
			f.ClaimedExperience, f.AccountAge))
	}
	if f.RepoCount == 0 && f.ClaimedExperience > 2 {
		flags = append(flags, "No GitHub repos found despite claimed technical experience.")
	}
	if f.LastCommitDays > 180 {
		flags = append(flags, fmt.Sprintf(
			"No GitHub activity in %.0f days - stale digital footprint.", f.LastCommitDays))
	}
	if f.InflationIndex > 40 {
		flags = append(flags, fmt.Sprintf(
			"Resume inflation index: %.0f/100 - claims exceed evidence.", f.InflationIndex))
	}
	if f.OverlapPenalty > 0 {
		flags = append(flags, "Overlapping work roles detected - timeline inconsistency.")
	}
	if f.EmailIPQS > 60 {
		flags = append(flags, fmt.Sprintf(
			"Email address IPQS fraud score: %.0f/100 - high-risk domain.", f.EmailIPQS))
	}
	if f.SkillCount > 25 {
		flags = append(flags, fmt.Sprintf(
			"Skill list length (%d) is unusually high - keyword stuffing risk.", f.SkillCount))
	}

	return domain.CompositeScore{
		FraudProbability: round1(fraudProbability),
		ReliabilityIndex: reliability,
		EvidenceQuality:  round1(eq),
		RiskLabel:        RiskLabel(fraudProbability),
		MLFlags:          flags,
		Snapshot: domain.FeatureSnapshot{
			ClaimedExp: int(f.ClaimedExperience),
			RepoCount:  int(f.RepoCount),
			AccountAge: int(f.AccountAge),
			LastCommit: int(f.LastCommitDays),
			ExpGap:     int(f.ExperienceGap),
			SkillCount: f.SkillCount,
			Coherence:  f.CoherenceScore,
			Inflation:  f.InflationIndex,
		},
	}
}

// RiskLabel buckets a fraud probability.
func RiskLabel(fraudProbability float64) string {
	switch {
	case fraudProbability < 20:
		return domain.RiskLow
	case fraudProbability < 45:
		return domain.RiskModerate
	case fraudProbability < 70:
		return domain.RiskElevated
	default:
		return domain.RiskHigh
	}
}
