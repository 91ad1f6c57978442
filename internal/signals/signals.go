// Package signals integrates third-party verification results into the
// scoring pipeline. The central rule: external absence is neutral unless
// the career stage expects presence, and only contradiction is a risk
// signal. Lack of digital footprint is never treated as fraud on its
// own.
package signals

import (
	"fmt"
	"strings"

	"github.com/opensource-hiring/peregrine/internal/domain"
)

// techDomains are the domains where a missing GitHub counts against a
// senior candidate. Anywhere else the absence stays neutral.
var techDomains = map[string]bool{
	"technology":   true,
	"software":     true,
	"ai/ml":        true,
	"data science": true,
}

// Integrate classifies verification results as positive signals,
// contradictions, or neutral absences, conditioned on what the stage
// expects.
func Integrate(vr *domain.VerificationResults, expectations domain.ExpectationSet, stg domain.CareerStage, domainName string) domain.ExternalSignalRecord {
	rec := domain.ExternalSignalRecord{}

	var github *domain.GitHubSignal
	var so *domain.StackOverflowSignal
	var email *domain.EmailTrust
	if vr != nil {
		github = vr.APISignals.GitHub
		so = vr.APISignals.StackOverflow
		email = vr.EmailTrust
	}

	// GitHub
	ghPresent := github != nil && github.Exists
	if ghPresent {
		rec.PositiveSignals = append(rec.PositiveSignals, "GitHub profile verified.")
		if github.Metrics.ActivityScore > 50 {
			rec.PositiveSignals = append(rec.PositiveSignals,
				fmt.Sprintf("Active GitHub: activity score %.0f.", github.Metrics.ActivityScore))
		}
		rec.Signals.GitHubMetrics = github.Metrics
	} else if expectations.PenaltyForNoGitHub && techDomains[strings.ToLower(domainName)] {
		rec.Contradictions = append(rec.Contradictions,
			"No GitHub presence for a senior tech candidate - notable absence at this stage.")
	} else {
		rec.NeutralAbsences = append(rec.NeutralAbsences,
			"No GitHub - not expected at this career stage or domain, non-penalizable.")
	}
	rec.Signals.GitHubPresent = ghPresent

	// Email
	if email != nil && email.IPQS != nil && email.IPQS.Status == "success" {
		rec.Signals.EmailChecked = true
		rec.Signals.EmailFraudScore = email.IPQS.FraudScore
		if email.IPQS.FraudScore > 70 {
			rec.Contradictions = append(rec.Contradictions,
				fmt.Sprintf("Email fraud risk score: %.0f/100 - high-risk address pattern.", email.IPQS.FraudScore))
		} else if email.IPQS.FraudScore < 30 {
			rec.PositiveSignals = append(rec.PositiveSignals, "Email address validated as low-risk.")
		}
	}

	// Stack Overflow
	soPresent := so != nil && so.Exists
	if soPresent && (stg == domain.StageSenior || stg == domain.StageExecutive) {
		rec.PositiveSignals = append(rec.PositiveSignals,
			"Stack Overflow presence corroborates technical depth.")
	} else if !soPresent {
		rec.NeutralAbsences = append(rec.NeutralAbsences,
			"No Stack Overflow - supplementary signal, absence is neutral.")
	}
	rec.Signals.StackOverflowPresent = soPresent

	switch {
	case len(rec.PositiveSignals) >= 3:
		rec.CoverageLevel = domain.CoverageStrong
	case len(rec.PositiveSignals) >= 1:
		rec.CoverageLevel = domain.CoverageAdequate
	default:
		rec.CoverageLevel = domain.CoverageMinimal
	}

	return rec
}
