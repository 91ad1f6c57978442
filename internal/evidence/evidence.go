// Package evidence measures how solid a profile is on concrete markers:
// demonstrated skills, digital footprint, and work-detail depth.
package evidence

import (
	"github.com/opensource-hiring/peregrine/internal/domain"
)

// Strength computes the 0-100 evidence strength for one candidate.
// Early-career profiles get a 1.5x calibration because a thin footprint
// is expected at that stage, capped at 100.
func Strength(consistency domain.ConsistencyRecord, external domain.ExternalSignalRecord, entities *domain.CandidateEntities, stg domain.CareerStage) domain.EvidenceStrengthRecord {
	strength := 0.0

	// Skill demonstration, max 40.
	ratio := consistency.SkillMentionRatio
	strength += ratio * 40

	// Digital footprint, max 30.
	if external.Signals.GitHubPresent {
		strength += 15
		repos := external.Signals.GitHubMetrics.RepoCount
		if repos > 10 {
			strength += 15
		} else if repos > 0 {
			strength += 5
		}
	}

	// Work detail depth, max 30.
	detailLen := 0
	if entities != nil {
		for _, exp := range entities.Experience {
			detailLen += len(exp.Details)
		}
	}
	switch {
	case detailLen > 1000:
		strength += 30
	case detailLen > 500:
		strength += 15
	case detailLen > 100:
		strength += 5
	}

	if stg.EarlyCareer() {
		strength *= 1.5
		if strength > 100 {
			strength = 100
		}
	}

	return domain.EvidenceStrengthRecord{
		Score:       round1(strength),
		Level:       levelFor(strength),
		SkillRatio:  ratio,
		DetailDepth: detailLen,
	}
}

// CoreMetrics derives the trust-side summary from fraud probability and
// evidence strength.
func CoreMetrics(fraudProbability float64, ev domain.EvidenceStrengthRecord) domain.CoreMetrics {
	trust := 100 - fraudProbability
	if trust < 0 {
		trust = 0
	}

	var validation string
	switch {
	case fraudProbability > 60:
		validation = "High"
	case fraudProbability > 30 || ev.Score < 50:
		validation = "Medium"
	default:
		validation = "Low"
	}

	return domain.CoreMetrics{
		TrustScore:         round1(trust),
		EvidenceStrength:   ev.Level,
		ValidationRequired: validation,
	}
}

func levelFor(strength float64) string {
	switch {
	case strength >= 75:
		return domain.EvidenceStrong
	case strength >= 45:
		return domain.EvidenceModerate
	default:
		return domain.EvidenceWeak
	}
}

func round1(f float64) float64 {
	if f < 0 {
		return float64(int(f*10-0.5)) / 10
	}
	return float64(int(f*10+0.5)) / 10
}
