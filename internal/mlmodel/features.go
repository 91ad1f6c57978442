// Package mlmodel builds the structured feature vector for fraud
// scoring and runs it through either a trained model or a calibrated
// heuristic fallback. Features are built once per scan and shared with
// every downstream consumer so all layers reason from the same
// structured evidence.
package mlmodel

import (
	"github.com/opensource-hiring/peregrine/internal/domain"
)

// Defaults applied when a signal is missing. A missing commit history
// reads as very stale; an unchecked email sits mid-range.
const (
	defaultLastCommitDays = 999
	defaultEmailIPQS      = 50
	defaultCoherence      = 70
)

// Extractor builds feature vectors anchored at a fixed year.
type Extractor struct {
	currentYear int
}

// NewExtractor returns an Extractor anchored at the given year.
func NewExtractor(currentYear int) *Extractor {
	return &Extractor{currentYear: currentYear}
}

// Input collects the per-scan data the extractor consumes. Pointer
// fields distinguish "absent" from zero.
type Input struct {
	ClaimedExperience int
	Skills            []string
	RoleCount         int

	Footprint *domain.DigitalFootprint
	Email     *domain.EmailTrust

	Consistency     domain.ConsistencyRecord
	Proportionality domain.ProportionalityRecord
}

// Extract builds the full feature vector. Missing signals fall back to
// the documented defaults instead of zeroes so absence never reads as
// "brand new and perfect".
func (e *Extractor) Extract(in Input) domain.MLFeatureVector {
	repoCount := 0
	acctYear := e.currentYear
	lastCommit := defaultLastCommitDays
	topLang := "Unknown"
	if in.Footprint != nil {
		repoCount = in.Footprint.RepoCount
		if in.Footprint.AccountCreatedYear > 0 {
			acctYear = in.Footprint.AccountCreatedYear
		}
		if in.Footprint.LastCommitDaysAgo > 0 {
			lastCommit = in.Footprint.LastCommitDaysAgo
		}
		if in.Footprint.TopLanguage != "" {
			topLang = in.Footprint.TopLanguage
		}
	}

	accountAge := e.currentYear - acctYear
	if accountAge < 0 {
		accountAge = 0
	}

	experienceGap := in.ClaimedExperience - accountAge
	if experienceGap < 0 {
		experienceGap = 0
	}

	skillCount := len(in.Skills)
	skillMatch := float64(skillCount * 8)
	if skillMatch > 100 {
		skillMatch = 100
	}

	// Email trust: domain type sets the base, IPQS debits half its
	// fraud score when a check ran.
	emailType := domain.EmailDomainPersonal
	emailIPQS := float64(defaultEmailIPQS)
	ipqsChecked := false
	if in.Email != nil {
		if in.Email.DomainType != "" {
			emailType = in.Email.DomainType
		}
		if in.Email.IPQS != nil {
			emailIPQS = in.Email.IPQS.FraudScore
			ipqsChecked = true
		}
	}
	var emailScore float64
	switch emailType {
	case domain.EmailDomainCorporate:
		emailScore = 100
	case domain.EmailDomainPersonal:
		emailScore = 70
	default:
		emailScore = 10
	}
	if ipqsChecked {
		emailScore -= emailIPQS * 0.5
		if emailScore < 0 {
			emailScore = 0
		}
	}

	coherence := in.Consistency.CoherenceScore
	if coherence == 0 && len(in.Consistency.Flags) == 0 && in.Consistency.Verdict == "" {
		coherence = defaultCoherence
	}
	overlapPenalty := 0.0
	if in.Consistency.DateOverlapDetected {
		overlapPenalty = 20
	}

	activity := 1.0 - float64(lastCommit)/365.0
	if activity < 0 {
		activity = 0
	}

	return domain.MLFeatureVector{
		ClaimedExperience: float64(in.ClaimedExperience),
		RepoCount:         float64(repoCount),
		AccountAge:        float64(accountAge),
		LastCommitDays:    float64(lastCommit),
		ExperienceGap:     float64(experienceGap),
		SkillMatch:        skillMatch,
		EmailScore:        emailScore,

		RoleCount:      in.RoleCount,
		SkillCount:     skillCount,
		TopLanguage:    topLang,
		CoherenceScore: coherence,
		OverlapPenalty: overlapPenalty,
		InflationIndex: in.Proportionality.InflationIndex,
		ActivitySignal: round2(activity),
		EmailIPQS:      emailIPQS,
	}
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func round1(f float64) float64 {
	return float64(int(f*10+0.5)) / 10
}
