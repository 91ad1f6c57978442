package scoring

import (
	"fmt"

	"github.com/opensource-hiring/peregrine/internal/domain"
)

// BuildStructuredAnalysis assembles the deterministic verification
// signals card. Every indicator is computed from in-process pipeline
// results; no model calls.
func BuildStructuredAnalysis(
	external domain.ExternalSignalRecord,
	consistency domain.ConsistencyRecord,
	evidence domain.EvidenceStrengthRecord,
	coreMetrics domain.CoreMetrics,
	fraudProbability float64,
	currentYear int,
) domain.StructuredAnalysis {
	var pos, neg []domain.Indicator

	// GitHub
	ghPresent := external.Signals.GitHubPresent
	gh := external.Signals.GitHubMetrics
	if ghPresent {
		accountAge := 0
		if gh.AccountCreatedYear > 0 {
			accountAge = currentYear - gh.AccountCreatedYear
		}
		lastCommit := gh.LastCommitDaysAgo
		if lastCommit == 0 {
			lastCommit = 9999
		}

		if accountAge >= 2 {
			severity := "Low"
			if accountAge >= 5 {
				severity = "Moderate"
			}
			pos = append(pos, domain.Indicator{
				Signal:         fmt.Sprintf("GitHub Account Age %d years", accountAge),
				EvidenceSource: "GitHub", Impact: "Positive", Severity: severity,
			})
		}
		switch {
		case gh.RepoCount > 10:
			pos = append(pos, domain.Indicator{
				Signal:         fmt.Sprintf("%d public repositories found", gh.RepoCount),
				EvidenceSource: "GitHub", Impact: "Positive", Severity: "Moderate",
			})
		case gh.RepoCount > 3:
			pos = append(pos, domain.Indicator{
				Signal:         fmt.Sprintf("%d repositories - adequate footprint", gh.RepoCount),
				EvidenceSource: "GitHub", Impact: "Positive", Severity: "Low",
			})
		case gh.RepoCount == 0:
			neg = append(neg, domain.Indicator{
				Signal:         "No Repositories Found",
				EvidenceSource: "GitHub", Impact: "Negative", Severity: "High",
			})
		default:
			neg = append(neg, domain.Indicator{
				Signal:         fmt.Sprintf("Only %d repo(s) - minimal footprint", gh.RepoCount),
				EvidenceSource: "GitHub", Impact: "Negative", Severity: "Moderate",
			})
		}

		switch {
		case lastCommit < 30:
			pos = append(pos, domain.Indicator{
				Signal:         fmt.Sprintf("Recent activity (%dd ago) - active contributor", lastCommit),
				EvidenceSource: "GitHub", Impact: "Positive", Severity: "Low",
			})
		case lastCommit < 180:
			pos = append(pos, domain.Indicator{
				Signal:         fmt.Sprintf("Moderate activity (%dd since last commit)", lastCommit),
				EvidenceSource: "GitHub", Impact: "Positive", Severity: "Low",
			})
		case lastCommit < 9000:
			neg = append(neg, domain.Indicator{
				Signal:         fmt.Sprintf("No Recent Activity (%dd since last commit)", lastCommit),
				EvidenceSource: "GitHub", Impact: "Negative", Severity: "High",
			})
		default:
			neg = append(neg, domain.Indicator{
				Signal:         "No Recent Activity",
				EvidenceSource: "GitHub", Impact: "Negative", Severity: "High",
			})
		}

		if gh.TopLanguage != "" && gh.TopLanguage != "Unknown" {
			pos = append(pos, domain.Indicator{
				Signal:         "Primary language: " + gh.TopLanguage,
				EvidenceSource: "GitHub", Impact: "Positive", Severity: "Low",
			})
		}
	} else {
		neg = append(neg, domain.Indicator{
			Signal:         "No GitHub profile linked or found",
			EvidenceSource: "GitHub", Impact: "Negative", Severity: "Moderate",
		})
	}

	// Email
	if external.Signals.EmailChecked {
		fs := external.Signals.EmailFraudScore
		if fs < 30 {
			pos = append(pos, domain.Indicator{
				Signal:         fmt.Sprintf("Email risk score %.0f/100 - safe", fs),
				EvidenceSource: "IPQS", Impact: "Positive", Severity: "Low",
			})
		} else if fs > 70 {
			neg = append(neg, domain.Indicator{
				Signal:         fmt.Sprintf("Email fraud risk elevated (%.0f/100)", fs),
				EvidenceSource: "IPQS", Impact: "Negative", Severity: "High",
			})
		}
	}

	// Skill alignment
	alignment := int(consistency.SkillMentionRatio*100 + 0.5)
	switch {
	case alignment >= 60:
		pos = append(pos, domain.Indicator{
			Signal:         fmt.Sprintf("Skill Alignment Score %d%%", alignment),
			EvidenceSource: "model inference", Impact: "Positive", Severity: "Moderate",
		})
	case alignment >= 30:
		neg = append(neg, domain.Indicator{
			Signal:         fmt.Sprintf("Partial skill alignment (%d%%) - some skills not evidenced", alignment),
			EvidenceSource: "model inference", Impact: "Negative", Severity: "Moderate",
		})
	default:
		neg = append(neg, domain.Indicator{
			Signal:         "Low skill evidence - skills listed but not demonstrated in work history",
			EvidenceSource: "model inference", Impact: "Negative", Severity: "High",
		})
	}

	// Fraud probability
	switch {
	case fraudProbability < 30:
		pos = append(pos, domain.Indicator{
			Signal:         fmt.Sprintf("Low Fraud Risk (%.0f%%)", fraudProbability),
			EvidenceSource: "ML fraud model", Impact: "Positive", Severity: "Low",
		})
	case fraudProbability > 60:
		neg = append(neg, domain.Indicator{
			Signal:         fmt.Sprintf("High Fraud Probability (%.0f%%)", fraudProbability),
			EvidenceSource: "model inference", Impact: "Negative", Severity: "High",
		})
	default:
		neg = append(neg, domain.Indicator{
			Signal:         fmt.Sprintf("Moderate Fraud Probability (%.0f%%)", fraudProbability),
			EvidenceSource: "model inference", Impact: "Negative", Severity: "Moderate",
		})
	}

	// Evidence strength
	switch evidence.Level {
	case domain.EvidenceStrong:
		pos = append(pos, domain.Indicator{
			Signal:         fmt.Sprintf("Strong Evidence Index (score: %.0f)", evidence.Score),
			EvidenceSource: "metadata", Impact: "Positive", Severity: "Moderate",
		})
	case domain.EvidenceModerate:
		neg = append(neg, domain.Indicator{
			Signal:         fmt.Sprintf("Moderate Evidence Strength (score: %.0f)", evidence.Score),
			EvidenceSource: "metadata", Impact: "Neutral", Severity: "Moderate",
		})
	default:
		neg = append(neg, domain.Indicator{
			Signal:         "Low Evidence Strength Index",
			EvidenceSource: "metadata", Impact: "Negative", Severity: "Moderate",
		})
	}

	// Consistency flags (up to 2, truncated for the card)
	for i, flag := range consistency.Flags {
		if i >= 2 {
			break
		}
		if len(flag) > 80 {
			flag = flag[:80]
		}
		neg = append(neg, domain.Indicator{
			Signal:         flag,
			EvidenceSource: "consistency engine", Impact: "Negative", Severity: "Moderate",
		})
	}

	// Summary snapshot
	var riskLevel string
	switch {
	case coreMetrics.TrustScore >= 70 && fraudProbability < 30:
		riskLevel = "Low"
	case coreMetrics.TrustScore >= 50 || fraudProbability < 50:
		riskLevel = "Moderate"
	case coreMetrics.TrustScore >= 30:
		riskLevel = "Elevated"
	default:
		riskLevel = "High"
	}

	capability := "Low"
	switch evidence.Level {
	case domain.EvidenceStrong:
		capability = "High"
	case domain.EvidenceModerate:
		capability = "Medium"
	}

	repos := 0
	if ghPresent {
		repos = gh.RepoCount
	}
	depth := "Weak"
	if repos > 10 {
		depth = "Strong"
	} else if repos > 3 {
		depth = "Moderate"
	}

	var action string
	switch {
	case riskLevel == "Low" && capability != "Low":
		action = "Auto-clear / Proceed to interview"
	case riskLevel == "Moderate" || riskLevel == "Elevated":
		action = "Technical Interview Required"
	default:
		action = "Manual Review / Reject if unverified"
	}

	return domain.StructuredAnalysis{
		PositiveIndicators: pos,
		NegativeIndicators: neg,
		Summary: domain.SummarySnapshot{
			OverallRiskLevel:    riskLevel,
			CapabilityCertainty: capability,
			DigitalDepthRating:  depth,
			RecommendedAction:   action,
		},
	}
}
