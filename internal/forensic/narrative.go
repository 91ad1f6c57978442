package forensic

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/opensource-hiring/peregrine/internal/domain"
)

// HonestNarrative produces the 1-2 sentence recruiter summary. Never
// blank, never cosmetic: every clause is backed by a computed signal.
func HonestNarrative(
	shadowScore float64,
	stage domain.CareerStage,
	ghMeta GitHubMeta,
	emailMeta EmailMeta,
	anomalies domain.AnomalyRecord,
	riskLabel string,
	coherenceVerdict string,
) string {
	var opening string
	switch {
	case shadowScore >= 80:
		opening = "Candidate demonstrates strong reliability signals across identity, email, and digital activity layers."
	case shadowScore >= 60:
		opening = "Candidate presents a moderately reliable profile with some gaps in external verification."
	case shadowScore >= 40:
		opening = "Candidate profile shows limited verifiable signals; several trust dimensions require manual review."
	default:
		opening = "Candidate reliability signals are weak; significant verification gaps detected across all layers."
	}

	var details []string
	if ghMeta.Exists && ghMeta.RepoCount > 0 {
		details = append(details, fmt.Sprintf(
			"GitHub activity (%d repos) corroborates technical engagement.", ghMeta.RepoCount))
	} else if !ghMeta.Exists && stage.EarlyCareer() {
		details = append(details, "Absence of digital presence is consistent with early career stage.")
	} else if !ghMeta.Exists && (stage == domain.StageSenior || stage == domain.StageExecutive) {
		details = append(details, "Expected digital footprint for this career stage is absent.")
	}

	if emailMeta.DomainReputation == ReputationAcademic || emailMeta.DomainReputation == ReputationCorporate {
		details = append(details, fmt.Sprintf(
			"Email domain (%s) adds institutional credibility.",
			strings.ToLower(emailMeta.DomainReputation)))
	}

	switch {
	case anomalies.FlagCount == 0:
		details = append(details, "No structural anomalies detected.")
	case anomalies.FlagCount <= 2:
		details = append(details, fmt.Sprintf(
			"%d anomaly flag(s) identified; supplemental verification recommended.", anomalies.FlagCount))
	default:
		details = append(details, fmt.Sprintf(
			"%d anomaly flags raised; thorough verification required before proceeding.", anomalies.FlagCount))
	}

	details = append(details, fmt.Sprintf(
		"Hiring risk assessed as %s. Internal narrative coherence: %s.", riskLabel, coherenceVerdict))

	return opening + " " + strings.Join(details, " ")
}

// ReportHash computes the SHA-256 fingerprint of a report over its
// deterministic content. Mutable fields (IDs, timestamp, processing
// metadata, the hash itself) are zeroed first so the same analysis
// always produces the same hash.
func ReportHash(report *domain.ScanReport) (string, error) {
	hashable := *report
	hashable.ID = ""
	hashable.ScanID = ""
	hashable.Timestamp = time.Time{}
	hashable.Metadata = domain.ReportMetadata{}
	hashable.Forensic.ReportHash = ""

	serialized, err := json.Marshal(&hashable)
	if err != nil {
		return "", fmt.Errorf("serialize report for hashing: %w", err)
	}
	sum := sha256.Sum256(serialized)
	return hex.EncodeToString(sum[:]), nil
}
