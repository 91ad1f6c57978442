package scoring

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/opensource-hiring/peregrine/internal/domain"
)

var yearMentionRe = regexp.MustCompile(`20[0-2][0-9]`)

// ReconstructNarrative rebuilds the candidate's story and checks that
// the progression reads naturally for the classified stage. Gaps larger
// than two years between consecutive mentioned years are surfaced for
// the recruiter to probe.
func ReconstructNarrative(entities *domain.CandidateEntities, rawText string, stg domain.CareerStage, currentYear int) domain.NarrativeRecord {
	var education []domain.EducationRecord
	var experience []domain.ExperienceRole
	var skills, certifications []string
	if entities != nil {
		education = entities.Education
		experience = entities.Experience
		skills = entities.Skills
		certifications = entities.Certifications
	}

	rec := domain.NarrativeRecord{
		HasEducation:       len(education) > 0,
		HasWorkHistory:     len(experience) > 0,
		HasSkills:          len(skills) > 0,
		SkillCount:         len(skills),
		RoleCount:          len(experience),
		CertificationCount: len(certifications),
		ProgressionNatural: true,
	}

	switch stg {
	case domain.StageAcademic, domain.StageFresher:
		if !rec.HasEducation {
			rec.Notes = append(rec.Notes, "Education section missing for an early-stage candidate - unusual.")
		}
		if rec.HasWorkHistory && len(experience) > 3 {
			rec.Notes = append(rec.Notes, "Extensive work history claimed for early-stage; warrants closer review.")
		} else {
			rec.Notes = append(rec.Notes, "Limited or absent work history is appropriate for this career stage.")
		}

	case domain.StageEarlyProfessional, domain.StageMidLevel:
		if !rec.HasWorkHistory {
			rec.Notes = append(rec.Notes, "No structured work history despite expected professional experience.")
			rec.ProgressionNatural = false
		} else {
			rec.Notes = append(rec.Notes, fmt.Sprintf("%d role(s) documented; progression visible.", len(experience)))
		}

	case domain.StageSenior, domain.StageExecutive:
		if len(experience) < 3 {
			rec.Notes = append(rec.Notes, "Senior-level claim with very few documented roles - depth unexplained.")
			rec.ProgressionNatural = false
		} else {
			rec.Notes = append(rec.Notes, fmt.Sprintf("%d progressive roles documented; career timeline visible.", len(experience)))
		}
	}

	// Gap detection over the sorted distinct years mentioned anywhere
	// in the text.
	seen := map[int]bool{}
	var years []int
	for _, m := range yearMentionRe.FindAllString(rawText, -1) {
		y := atoi(m)
		if y <= currentYear && !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}
	sort.Ints(years)

	for i := 1; i < len(years); i++ {
		diff := years[i] - years[i-1]
		if diff > 2 {
			rec.TimelineGaps = append(rec.TimelineGaps,
				fmt.Sprintf("%d-%d (%dyr gap)", years[i-1], years[i], diff))
		}
	}
	if len(rec.TimelineGaps) > 0 {
		rec.Notes = append(rec.Notes, fmt.Sprintf(
			"Potential timeline gaps detected: %s.", strings.Join(rec.TimelineGaps, ", ")))
	}

	return rec
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
