package scoring

import (
	"github.com/opensource-hiring/peregrine/internal/domain"
)

// ComputeAdaptiveScore fuses everything into the hiring index. The
// stage baseline prevents index collapse for early-career candidates;
// every adjustment after it is tiered and additive.
func ComputeAdaptiveScore(
	profile domain.CareerStageProfile,
	proportionality domain.ProportionalityRecord,
	consistency domain.ConsistencyRecord,
	external domain.ExternalSignalRecord,
	fraudProbability float64,
) domain.AdaptiveScore {
	score := profile.BaselineScore

	switch {
	case proportionality.InflationIndex < 20:
		score += 12
	case proportionality.InflationIndex < 45:
		score -= 5
	case proportionality.InflationIndex < 70:
		score -= 15
	default:
		score -= 25
	}

	switch {
	case consistency.CoherenceScore >= 80:
		score += 10
	case consistency.CoherenceScore >= 55:
		score += 3
	default:
		score -= 12
	}

	// External signals carry less weight for early-career candidates:
	// their absence is the norm, so their presence is only a small
	// bonus.
	extWeight := 0.15
	if profile.Stage.EarlyCareer() {
		extWeight = 0.05
	}
	positives := len(external.PositiveSignals)
	contradictions := len(external.Contradictions)
	score += float64(positives) * 5 * extWeight * 10
	score -= float64(contradictions) * 15

	score -= fraudProbability * 0.2

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	// Epistemic confidence: how complete is the evidence relative to
	// what the stage makes knowable?
	externalFactor := 0.9
	if !profile.Stage.EarlyCareer() && profile.Stage != domain.StageEarlyProfessional {
		externalFactor = float64(positives+1) / 3
		if externalFactor > 1 {
			externalFactor = 1
		}
	}
	confidence := int(float64(profile.Confidence)*0.4 +
		consistency.CoherenceScore*0.35 +
		externalFactor*100*0.25 + 0.5)

	return domain.AdaptiveScore{
		HiringIndex:      round1(score),
		SystemConfidence: confidence,
		BaselineUsed:     profile.BaselineScore,
		Stage:            profile.Stage,
	}
}

func round1(f float64) float64 {
	return float64(int(f*10+0.5)) / 10
}
