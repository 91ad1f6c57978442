package scoring

import (
	"testing"

	"github.com/opensource-hiring/peregrine/internal/domain"
)

func seniorProfile() domain.CareerStageProfile {
	return domain.CareerStageProfile{
		Stage:         domain.StageSenior,
		Confidence:    85,
		BaselineScore: 68,
	}
}

func fresherProfile() domain.CareerStageProfile {
	return domain.CareerStageProfile{
		Stage:         domain.StageFresher,
		Confidence:    85,
		BaselineScore: 60,
	}
}

func TestAdaptiveScoreCleanSenior(t *testing.T) {
	score := ComputeAdaptiveScore(
		seniorProfile(),
		domain.ProportionalityRecord{InflationIndex: 10},
		domain.ConsistencyRecord{CoherenceScore: 100},
		domain.ExternalSignalRecord{PositiveSignals: []string{"a", "b"}},
		10,
	)

	// 68 +12 +10 +15 -2 = 103, clamped.
	if score.HiringIndex != 100 {
		t.Errorf("hiring index = %v, want 100", score.HiringIndex)
	}
	// 85*0.4 + 100*0.35 + 1.0*100*0.25 = 94.
	if score.SystemConfidence != 94 {
		t.Errorf("confidence = %d, want 94", score.SystemConfidence)
	}
	if score.BaselineUsed != 68 || score.Stage != domain.StageSenior {
		t.Errorf("baseline/stage echo wrong: %+v", score)
	}
}

func TestAdaptiveScoreFloorsAtZero(t *testing.T) {
	score := ComputeAdaptiveScore(
		fresherProfile(),
		domain.ProportionalityRecord{InflationIndex: 80},
		domain.ConsistencyRecord{CoherenceScore: 40},
		domain.ExternalSignalRecord{Contradictions: []string{"x"}},
		50,
	)

	// 60 -25 -12 -15 -10 = -2, floored.
	if score.HiringIndex != 0 {
		t.Errorf("hiring index = %v, want 0", score.HiringIndex)
	}
	// 85*0.4 + 40*0.35 + 0.9*100*0.25 = 70.5, rounded.
	if score.SystemConfidence != 71 {
		t.Errorf("confidence = %d, want 71", score.SystemConfidence)
	}
}

func TestAdaptiveScoreEarlyCareerSignalWeight(t *testing.T) {
	score := ComputeAdaptiveScore(
		fresherProfile(),
		domain.ProportionalityRecord{InflationIndex: 10},
		domain.ConsistencyRecord{CoherenceScore: 100},
		domain.ExternalSignalRecord{PositiveSignals: []string{"a", "b"}},
		0,
	)

	// 60 +12 +10 + 2*5*0.05*10 = 87. The same positives are worth 15
	// at senior weight; early career only 5.
	if score.HiringIndex != 87 {
		t.Errorf("hiring index = %v, want 87", score.HiringIndex)
	}
}

func TestAdaptiveScoreInflationTiers(t *testing.T) {
	base := seniorProfile()
	cases := []struct {
		inflation float64
		want      float64
	}{
		{10, 68 + 12 + 10}, // bonus tier
		{30, 68 - 5 + 10},  // mild debit
		{50, 68 - 15 + 10}, // significant debit
		{90, 68 - 25 + 10}, // heavy debit
	}
	for _, tc := range cases {
		score := ComputeAdaptiveScore(base,
			domain.ProportionalityRecord{InflationIndex: tc.inflation},
			domain.ConsistencyRecord{CoherenceScore: 100},
			domain.ExternalSignalRecord{}, 0)
		if score.HiringIndex != tc.want {
			t.Errorf("inflation %v: index = %v, want %v", tc.inflation, score.HiringIndex, tc.want)
		}
	}
}

func TestAdaptiveScoreCoherenceTiers(t *testing.T) {
	base := seniorProfile()
	cases := []struct {
		coherence float64
		want      float64
	}{
		{90, 68 + 12 + 10},
		{60, 68 + 12 + 3},
		{40, 68 + 12 - 12},
	}
	for _, tc := range cases {
		score := ComputeAdaptiveScore(base,
			domain.ProportionalityRecord{InflationIndex: 5},
			domain.ConsistencyRecord{CoherenceScore: tc.coherence},
			domain.ExternalSignalRecord{}, 0)
		if score.HiringIndex != tc.want {
			t.Errorf("coherence %v: index = %v, want %v", tc.coherence, score.HiringIndex, tc.want)
		}
	}
}

func TestAdaptiveConfidenceExternalFactor(t *testing.T) {
	// A senior with no external positives has limited knowable
	// evidence; the confidence reflects that.
	profile := domain.CareerStageProfile{Stage: domain.StageSenior, Confidence: 70, BaselineScore: 68}
	score := ComputeAdaptiveScore(profile,
		domain.ProportionalityRecord{InflationIndex: 5},
		domain.ConsistencyRecord{CoherenceScore: 70},
		domain.ExternalSignalRecord{}, 0)

	// 70*0.4 + 70*0.35 + (1/3)*100*0.25 = 60.83, rounded.
	if score.SystemConfidence != 61 {
		t.Errorf("confidence = %d, want 61", score.SystemConfidence)
	}

	// An early professional with the same inputs keeps the 0.9 factor.
	profile.Stage = domain.StageEarlyProfessional
	score = ComputeAdaptiveScore(profile,
		domain.ProportionalityRecord{InflationIndex: 5},
		domain.ConsistencyRecord{CoherenceScore: 70},
		domain.ExternalSignalRecord{}, 0)

	// 28 + 24.5 + 22.5 = 75.
	if score.SystemConfidence != 75 {
		t.Errorf("early professional confidence = %d, want 75", score.SystemConfidence)
	}
}
