package domain

import (
	"time"
)

// CandidateEntities holds the structured facts extracted from a resume.
// Produced by the upstream extraction service; immutable once passed
// into the scoring core.
type CandidateEntities struct {
	Identity       Identity          `json:"identity"`
	Skills         []string          `json:"skills"`
	Experience     []ExperienceRole  `json:"experience"`
	Education      []EducationRecord `json:"education"`
	Certifications []string          `json:"certifications"`
}

// Identity holds the candidate's contact and profile identifiers.
type Identity struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	GitHub   string `json:"github,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// ExperienceRole is a single entry in the candidate's work history.
// Dates are free-form strings as extracted; year parsing happens in the
// consistency analyzer.
type ExperienceRole struct {
	Role      string `json:"role"`
	Company   string `json:"company"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Details   string `json:"details"`
}

// EducationRecord is a single education entry.
type EducationRecord struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        string `json:"year,omitempty"`
}

// ScanRequest is the API request payload for a candidate scan.
type ScanRequest struct {
	Entities       CandidateEntities    `json:"entities" validate:"required"`
	RawText        string               `json:"rawText" validate:"required"`
	Domain         string               `json:"domain,omitempty"`
	TargetRole     string               `json:"targetRole,omitempty"`
	ExpectedSkills []string             `json:"expectedSkills,omitempty"`
	Verification   *VerificationResults `json:"verification,omitempty"`
}

// Scan is the persisted record of a scan request.
type Scan struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenantId"`
	CandidateName  string    `json:"candidateName"`
	CandidateEmail string    `json:"candidateEmail"`
	Domain         string    `json:"domain"`
	TargetRole     string    `json:"targetRole,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`

	// Request payload kept for audit/replay
	Request *ScanRequest `json:"request,omitempty"`
}

// ToScan converts a request to a Scan domain object.
func (r *ScanRequest) ToScan() *Scan {
	return &Scan{
		CandidateName:  r.Entities.Identity.Name,
		CandidateEmail: r.Entities.Identity.Email,
		Domain:         r.Domain,
		TargetRole:     r.TargetRole,
		CreatedAt:      time.Now().UTC(),
		Request:        r,
	}
}
