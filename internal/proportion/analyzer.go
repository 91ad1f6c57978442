// Package proportion measures whether a resume's claims are backed by a
// proportional amount of supporting evidence. The output is an inflation
// index, not a fraud score: inflation says the language outruns the
// evidence, nothing more.
package proportion

import (
	"fmt"
	"strings"

	"github.com/opensource-hiring/peregrine/internal/domain"
)

// inflationPattern pairs high-intensity claim phrases with the evidence
// markers that would substantiate them.
type inflationPattern struct {
	highClaims      []string
	evidenceMarkers []string
}

// Per-domain signal dictionaries. The generic bucket is always merged in
// on top of the domain-specific one.
var inflationPatterns = map[string]inflationPattern{
	"ai_ml": {
		highClaims:      []string{"deep learning specialist", "ai expert", "ml architect", "nlp expert", "llm specialist"},
		evidenceMarkers: []string{"model", "dataset", "trained", "accuracy", "f1", "benchmark", "paper", "published", "kaggle", "research"},
	},
	"backend": {
		highClaims:      []string{"backend architect", "systems engineer", "distributed systems expert"},
		evidenceMarkers: []string{"api", "microservice", "database", "latency", "throughput", "scale", "deployed", "production"},
	},
	"fullstack": {
		highClaims:      []string{"full stack expert", "senior full stack"},
		evidenceMarkers: []string{"react", "node", "django", "flask", "deployed", "production", "repository", "users"},
	},
	"generic": {
		highClaims:      []string{"expert", "specialist", "master", "guru", "ninja", "rockstar", "10x developer", "visionary", "strategic leader"},
		evidenceMarkers: []string{"project", "implemented", "built", "delivered", "led", "achieved", "result", "impact"},
	},
}

// aiLanguagePatterns are template-style phrasing fingerprints. Three or
// more in one resume marks the narrative as likely templated.
var aiLanguagePatterns = []string{
	"demonstrated ability to", "proven track record of", "passionate about leveraging",
	"adept at utilizing", "committed to delivering", "possessing strong",
	"with a focus on synergy", "cutting-edge solutions", "dynamic team player",
	"results-driven professional", "seeking to leverage", "strong communicator",
}

// deliveryVerbs are concrete project and delivery markers. Senior claims
// without at least two of these raise the inflation index.
var deliveryVerbs = []string{"built", "developed", "implemented", "deployed", "designed", "created", "led", "architected"}

// Analyze measures claim proportionality for one resume. The stage
// gates the delivery-evidence penalty: only Mid-Level and above are
// expected to show concrete delivery language.
func Analyze(entities *domain.CandidateEntities, rawText string, stg domain.CareerStage, domainName string) domain.ProportionalityRecord {
	textLower := strings.ToLower(rawText)

	patterns := inflationPatterns[domainKey(domainName)]
	generic := inflationPatterns["generic"]

	var activeClaims []string
	claimCount := 0
	for _, claim := range append(append([]string{}, patterns.highClaims...), generic.highClaims...) {
		if strings.Contains(textLower, claim) {
			claimCount++
			activeClaims = append(activeClaims, claim)
		}
	}

	evidenceCount := 0
	for _, marker := range append(append([]string{}, patterns.evidenceMarkers...), generic.evidenceMarkers...) {
		if strings.Contains(textLower, marker) {
			evidenceCount++
		}
	}

	var flags []string

	// Expect three evidence points per high-intensity claim.
	if claimCount > 0 {
		ratio := float64(evidenceCount) / float64(claimCount*3)
		if ratio < 0.4 {
			flags = append(flags, fmt.Sprintf(
				"High-intensity claims (%s) with insufficient supporting evidence.",
				strings.Join(firstN(activeClaims, 3), ", ")))
		}
	}

	projectHits := 0
	for _, v := range deliveryVerbs {
		if strings.Contains(textLower, v) {
			projectHits++
		}
	}

	seniorish := stg == domain.StageMidLevel || stg == domain.StageSenior || stg == domain.StageExecutive
	if seniorish && claimCount > 0 && projectHits < 2 {
		flags = append(flags, "Senior-level claim density without concrete project or delivery evidence.")
	}

	var aiHits []string
	for _, p := range aiLanguagePatterns {
		if strings.Contains(textLower, p) {
			aiHits = append(aiHits, p)
		}
	}
	aiDetected := len(aiHits) >= 3
	if aiDetected {
		flags = append(flags, fmt.Sprintf(
			"High density of template-style phrasing detected (%d patterns). Candidate narrative may be AI-assisted or heavily templated.",
			len(aiHits)))
	}

	index := 0.0
	if claimCount > 0 && evidenceCount < claimCount {
		gap := float64(claimCount-evidenceCount) * 10
		if gap > 40 {
			gap = 40
		}
		index += gap
	}
	if aiDetected {
		index += 25
	}
	if (stg == domain.StageMidLevel || stg == domain.StageSenior) && projectHits < 2 {
		index += 15
	}
	if index > 100 {
		index = 100
	}

	return domain.ProportionalityRecord{
		HighIntensityClaims:  firstN(activeClaims, 5),
		EvidenceMarkersFound: evidenceCount,
		ProjectEvidenceHits:  projectHits,
		AILanguageDetected:   aiDetected,
		AILanguagePatterns:   firstN(aiHits, 3),
		InflationFlags:       flags,
		InflationIndex:       index,
		Verdict:              verdictFor(index),
	}
}

func verdictFor(index float64) string {
	switch {
	case index < 20:
		return domain.ProportionalityProportionate
	case index < 45:
		return domain.ProportionalityMild
	case index < 70:
		return domain.ProportionalitySignificant
	default:
		return domain.ProportionalityHigh
	}
}

func firstN(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
