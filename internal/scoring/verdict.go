package scoring

import (
	"fmt"
	"strings"

	"github.com/opensource-hiring/peregrine/internal/domain"
)

// ComposeVerdict builds the recruiter-readable verdict. Line order is a
// contract: stage summary, narrative coherence, proportionality,
// consistency, external signals, role match, core metrics, hiring
// index, recommendation. Downstream consumers parse line position.
func ComposeVerdict(
	profile domain.CareerStageProfile,
	narrative domain.NarrativeRecord,
	proportionality domain.ProportionalityRecord,
	consistency domain.ConsistencyRecord,
	external domain.ExternalSignalRecord,
	coreMetrics domain.CoreMetrics,
	evidence domain.EvidenceStrengthRecord,
	roleMatch domain.RoleMatch,
	score domain.AdaptiveScore,
	fraudProbability float64,
	review *domain.LanguageReview,
) domain.Verdict {
	var lines []string

	lines = append(lines, fmt.Sprintf(
		"Profile classified as %s (confidence: %d%%). Evaluation expectations are calibrated accordingly.",
		profile.Stage, profile.Confidence))

	if narrative.ProgressionNatural {
		lines = append(lines, "Career progression appears coherent and consistent with the declared stage.")
	} else {
		lines = append(lines, "Career progression shows gaps or inconsistencies that warrant closer review.")
	}
	if len(narrative.TimelineGaps) > 0 {
		lines = append(lines, fmt.Sprintf(
			"Unaccounted periods identified: %s.", strings.Join(narrative.TimelineGaps, ", ")))
	}
	for i, note := range narrative.Notes {
		if i >= 2 {
			break
		}
		lines = append(lines, note)
	}

	if proportionality.Verdict == domain.ProportionalityProportionate {
		lines = append(lines, "Claims are proportionate to the level of supporting evidence provided.")
	} else {
		line := fmt.Sprintf("Claim proportionality assessment: %s. ", proportionality.Verdict)
		if len(proportionality.InflationFlags) > 0 {
			line += proportionality.InflationFlags[0]
		}
		lines = append(lines, line)
	}

	lines = append(lines, fmt.Sprintf(
		"Internal consistency: %s (score: %.0f/100).", consistency.Verdict, consistency.CoherenceScore))
	if len(consistency.Flags) > 0 {
		lines = append(lines, consistency.Flags[0])
	}

	if len(external.PositiveSignals) > 0 {
		n := len(external.PositiveSignals)
		if n > 2 {
			n = 2
		}
		lines = append(lines, "External signals: "+strings.Join(external.PositiveSignals[:n], " "))
	} else if len(external.NeutralAbsences) > 0 {
		lines = append(lines, fmt.Sprintf(
			"External footprint: limited, consistent with %s stage.", profile.Stage))
	}

	if roleMatch.Evaluated {
		lines = append(lines, fmt.Sprintf(
			"Role Fit Score: %d%%. %s.", roleMatch.MatchScore, roleMatch.Verdict))
		if len(roleMatch.MissingSkills) > 0 {
			n := len(roleMatch.MissingSkills)
			if n > 2 {
				n = 2
			}
			lines = append(lines, fmt.Sprintf(
				"Candidate lacks some expected core competencies mapped to this role (e.g., %s).",
				strings.Join(roleMatch.MissingSkills[:n], ", ")))
		}
	}

	lines = append(lines, fmt.Sprintf(
		"Trust Score: %.1f/100. Evidence Strength: %s. Validation Required: %s.",
		coreMetrics.TrustScore, coreMetrics.EvidenceStrength, coreMetrics.ValidationRequired))

	// Optional upstream language review. Prepended so a recruiter sees
	// the critique first when one exists.
	consensusScore := 70.0
	if review != nil {
		if review.Narrative != "" {
			lines = append([]string{"LANGUAGE REVIEW: " + review.Narrative}, lines...)
		}
		if review.ConfidenceScore > 0 {
			consensusScore = review.ConfidenceScore
		}
	}

	systemConfidence := int(float64(profile.Confidence)*0.3 + consensusScore*0.7 + 0.5)
	lines = append(lines, fmt.Sprintf(
		"Hiring Index: %.1f/100. Dynamic System Confidence: %d%%.",
		score.HiringIndex, systemConfidence))

	rec := "Moderate profile requiring standard verification."
	switch {
	case fraudProbability < 30 && evidence.Score > 60:
		rec = "Strong candidate with supporting evidence."
	case fraudProbability < 40 && evidence.Score < 50:
		rec = "Low fraud risk but limited supporting evidence. Technical claims must be validated."
	case fraudProbability > 60:
		rec = "High risk profile requiring strict validation."
	}
	if roleMatch.Evaluated {
		if roleMatch.MatchScore < 40 && fraudProbability < 40 {
			rec = fmt.Sprintf("Technically genuine candidate, but low match (%d%%) for selected role.", roleMatch.MatchScore)
		} else if roleMatch.MatchScore > 70 && fraudProbability < 30 {
			rec = fmt.Sprintf("Excellent fit (%d%%) for selected role with strong verification signals.", roleMatch.MatchScore)
		}
	}
	lines = append(lines, "Recommendation: "+rec)

	return domain.Verdict{
		FullVerdict:        strings.Join(lines, " "),
		Lines:              lines,
		ValidationRequired: coreMetrics.ValidationRequired,
		HiringIndex:        score.HiringIndex,
		SystemConfidence:   systemConfidence,
	}
}
