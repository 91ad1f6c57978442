package forensic

import (
	"github.com/opensource-hiring/peregrine/internal/domain"
)

// Result bundles everything the trust layer computed for one scan.
type Result struct {
	Summary      domain.ForensicSummary
	Anomalies    domain.AnomalyRecord
	GitHubMeta   GitHubMeta
	EmailMeta    EmailMeta
	IdentityMeta IdentityMeta
}

// Analyze runs the full trust layer for one candidate: the three trust
// scores, the weighted shadow score, anomaly detection, and the honest
// narrative. The report hash is filled in later, once the complete
// report exists.
func Analyze(
	entities *domain.CandidateEntities,
	vr *domain.VerificationResults,
	profile domain.CareerStageProfile,
	proportionality domain.ProportionalityRecord,
	consistencyVerdict string,
	riskLabel string,
	currentYear int,
) Result {
	var gh *domain.GitHubSignal
	var et *domain.EmailTrust
	if vr != nil {
		gh = vr.APISignals.GitHub
		et = vr.EmailTrust
	}
	var identity domain.Identity
	if entities != nil {
		identity = entities.Identity
	}

	ghScore, ghLevel, ghMeta := GitHubTrust(gh, currentYear)
	emScore, emReputation, emMeta := EmailTrust(identity.Email, et)
	idScore, idCorrespondence, idMeta := IdentityMatch(identity)
	shadow := ShadowScore(ghScore, emScore, idScore)

	anomalies := DetectAnomalies(ghMeta, emMeta, idMeta, profile, proportionality, currentYear)
	narrative := HonestNarrative(shadow, profile.Stage, ghMeta, emMeta, anomalies, riskLabel, consistencyVerdict)

	return Result{
		Summary: domain.ForensicSummary{
			GitHubTrust:     ghScore,
			GitHubLevel:     ghLevel,
			EmailTrust:      emScore,
			EmailReputation: emReputation,
			IdentityMatch:   idScore,
			Correspondence:  idCorrespondence,
			ShadowScore:     shadow,
			Narrative:       narrative,
		},
		Anomalies:    anomalies,
		GitHubMeta:   ghMeta,
		EmailMeta:    emMeta,
		IdentityMeta: idMeta,
	}
}
