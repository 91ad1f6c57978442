package forensic

import (
	"fmt"

	"github.com/opensource-hiring/peregrine/internal/domain"
)

// DetectAnomalies runs the deterministic anomaly checks. Each flag is
// worth 15 probability points, capped at 100.
func DetectAnomalies(
	ghMeta GitHubMeta,
	emailMeta EmailMeta,
	identityMeta IdentityMeta,
	profile domain.CareerStageProfile,
	proportionality domain.ProportionalityRecord,
	currentYear int,
) domain.AnomalyRecord {
	var flags []string

	// Experience age versus GitHub account age.
	totalExp := profile.Signals.TotalExpYears
	if ghMeta.Exists && ghMeta.AccountCreatedYear > 0 && totalExp > 5 {
		acctAge := currentYear - ghMeta.AccountCreatedYear
		if float64(acctAge) < float64(totalExp)/2 {
			flags = append(flags, fmt.Sprintf(
				"Experience-Age Mismatch: Resume implies ~%dyr tenure but GitHub account is only %dyr old.",
				totalExp, acctAge))
		}
	}

	if emailMeta.IsDisposable {
		flags = append(flags, "Disposable Email: Address linked to a known throwaway domain.")
	}

	if (profile.Stage == domain.StageSenior || profile.Stage == domain.StageExecutive) && !ghMeta.Exists {
		flags = append(flags, fmt.Sprintf(
			"%s-level candidate with no detectable GitHub presence - notable absence at this stage.",
			profile.Stage))
	}

	if (identityMeta.Correspondence == "Weak" || identityMeta.Correspondence == "No Match") &&
		identityMeta.ResumeName != "" && identityMeta.ReferenceHandle != "(none)" {
		flags = append(flags, fmt.Sprintf(
			"Identity Correspondence Weak: Resume name vs handle match score %.0f%%.",
			identityMeta.FuzzyMatchScore))
	}

	if proportionality.InflationIndex >= 45 {
		flags = append(flags, fmt.Sprintf(
			"Claim Inflation Detected (index: %.0f/100): %s claim-to-evidence ratio.",
			proportionality.InflationIndex, proportionality.Verdict))
	}

	if proportionality.AILanguageDetected {
		flags = append(flags,
			"Template/AI-Generated Language: Resume narrative shows high density of standardized phrasing patterns.")
	}

	if emailMeta.IPQSFraudScore > 70 {
		flags = append(flags, fmt.Sprintf(
			"Email Fraud Signal: IPQS risk score %.0f/100 for this address.",
			emailMeta.IPQSFraudScore))
	}

	probability := float64(len(flags) * 15)
	if probability > 100 {
		probability = 100
	}

	return domain.AnomalyRecord{
		Probability: probability,
		Flags:       flags,
		FlagCount:   len(flags),
	}
}
