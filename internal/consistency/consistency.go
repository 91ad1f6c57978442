// Package consistency detects internal contradictions inside a single
// resume: overlapping role timelines, implausibly fast title escalation,
// and declared skills that never appear in the work history.
package consistency

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/opensource-hiring/peregrine/internal/domain"
)

var (
	roleYearRe = regexp.MustCompile(`20[0-2][0-9]|19[8-9][0-9]`)
	textYearRe = regexp.MustCompile(`20[0-2][0-9]`)
)

// Analyzer computes coherence records. Anchored at a fixed year so the
// same resume always produces the same record.
type Analyzer struct {
	currentYear int
}

// New returns an Analyzer anchored at the given year.
func New(currentYear int) *Analyzer {
	return &Analyzer{currentYear: currentYear}
}

type roleSpan struct {
	start int
	end   int
	role  string
}

// Analyze scores internal coherence. The score starts at 100 and each
// detected issue debits a fixed amount; the floor is 0.
func (a *Analyzer) Analyze(entities *domain.CandidateEntities, rawText string) domain.ConsistencyRecord {
	var experience []domain.ExperienceRole
	var skills []string
	if entities != nil {
		experience = entities.Experience
		skills = entities.Skills
	}

	var flags []string

	// Timeline overlap detection. A one year grace window allows the
	// common consulting pattern of adjacent overlapping roles.
	spans := make([]roleSpan, 0, len(experience))
	for _, exp := range experience {
		sy := roleYearRe.FindString(exp.StartDate)
		if sy == "" {
			continue
		}
		span := roleSpan{start: atoi(sy), end: a.currentYear, role: exp.Role}
		if span.role == "" {
			span.role = "Unknown"
		}
		if ey := roleYearRe.FindString(exp.EndDate); ey != "" {
			span.end = atoi(ey)
		}
		spans = append(spans, span)
	}

	overlap := false
	for i := 0; i < len(spans); i++ {
		for j := i + 1; j < len(spans); j++ {
			if spans[j].start < spans[i].end-1 {
				flags = append(flags, fmt.Sprintf(
					"Timeline overlap: '%s' (%d-%d) overlaps with '%s' (%d-%d).",
					spans[i].role, spans[i].start, spans[i].end,
					spans[j].role, spans[j].start, spans[j].end))
				overlap = true
			}
		}
	}

	// Escalation speed: leadership titles within 3 years of the earliest
	// documented year are worth a second look.
	textLower := strings.ToLower(rawText)
	rapidEscalation := false
	if strings.Contains(textLower, "manager") || strings.Contains(textLower, "lead") {
		earliest := 0
		for _, m := range textYearRe.FindAllString(rawText, -1) {
			y := atoi(m)
			if y > a.currentYear {
				continue
			}
			if earliest == 0 || y < earliest {
				earliest = y
			}
		}
		if earliest > 0 && a.currentYear-earliest < 3 {
			flags = append(flags, "Leadership title claimed within 3 years of earliest documented year - verify escalation.")
			rapidEscalation = true
		}
	}

	// Declared skills versus described experience.
	declared := make(map[string]bool, len(skills))
	for _, s := range skills {
		declared[strings.ToLower(s)] = true
	}
	var details []string
	for _, exp := range experience {
		details = append(details, exp.Details)
	}
	expText := strings.ToLower(strings.Join(details, " "))

	mentioned := 0
	if expText != "" {
		for s := range declared {
			if strings.Contains(expText, s) {
				mentioned++
			}
		}
	}
	ratio := 0.0
	if len(declared) > 0 {
		ratio = float64(mentioned) / float64(len(declared))
	}

	skillsPaddedOn := ratio < 0.2 && len(declared) > 5
	if len(declared) > 0 && skillsPaddedOn {
		flags = append(flags, fmt.Sprintf(
			"Only %d/%d declared skills appear in experience descriptions. Skills may be bolted on rather than demonstrated.",
			mentioned, len(declared)))
	}

	score := 100.0
	if overlap {
		score -= 25
	}
	if rapidEscalation {
		score -= 15
	}
	if skillsPaddedOn {
		score -= 15
	}
	if score < 0 {
		score = 0
	}

	return domain.ConsistencyRecord{
		Flags:               flags,
		DateOverlapDetected: overlap,
		RapidEscalation:     rapidEscalation,
		SkillMentionRatio:   round2(ratio),
		CoherenceScore:      score,
		Verdict:             verdictFor(score),
	}
}

func verdictFor(score float64) string {
	switch {
	case score >= 80:
		return domain.CoherenceHigh
	case score >= 55:
		return domain.CoherenceModerate
	default:
		return domain.CoherenceLow
	}
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
