package scoring

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/opensource-hiring/peregrine/internal/domain"
)

// Skills whose punctuation breaks ordinary word boundaries; they get a
// whitespace-delimited pattern instead.
var punctuatedSkills = map[string]bool{
	"c++":     true,
	"c#":      true,
	"next.js": true,
	"node.js": true,
}

// MatchRole measures how well the candidate's skills cover the expected
// skill list for the target role. Structured skills are checked first;
// raw text is the fallback, with boundary-aware matching so "java"
// never matches inside "javascript" while "c++" still matches.
func MatchRole(entities *domain.CandidateEntities, rawText string, expectedSkills []string) domain.RoleMatch {
	if len(expectedSkills) == 0 {
		return domain.RoleMatch{
			Verdict: "No specific skills or role requirements provided.",
		}
	}

	var resumeSkills []string
	if entities != nil {
		for _, s := range entities.Skills {
			resumeSkills = append(resumeSkills, strings.ToLower(s))
		}
	}
	textLower := strings.ToLower(rawText)

	var matched, missing []string
	for _, skill := range expectedSkills {
		skillLower := strings.TrimSpace(strings.ToLower(skill))
		if skillLower == "" {
			continue
		}
		if inStructuredList(skillLower, resumeSkills) || inRawText(skillLower, textLower) {
			matched = append(matched, skillLower)
		} else {
			missing = append(missing, skillLower)
		}
	}

	score := int(float64(len(matched))/float64(len(expectedSkills))*100 + 0.5)

	verdict := "High Match"
	if score < 40 {
		verdict = "Low Match"
	} else if score < 70 {
		verdict = "Moderate Fit"
	}

	return domain.RoleMatch{
		MatchScore:    score,
		Evaluated:     true,
		Verdict:       verdict,
		MatchedSkills: matched,
		MissingSkills: missing,
	}
}

func inStructuredList(skill string, resumeSkills []string) bool {
	for _, s := range resumeSkills {
		if skill == s || strings.Contains(s, skill) || strings.Contains(skill, s) {
			return true
		}
	}
	return false
}

func inRawText(skill, textLower string) bool {
	var pattern string
	if punctuatedSkills[skill] {
		pattern = fmt.Sprintf(`(?:\b|\s)%s(?:\s|$|\.|,)`, regexp.QuoteMeta(skill))
	} else {
		pattern = fmt.Sprintf(`\b%s(?:\b|$)`, regexp.QuoteMeta(skill))
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return strings.Contains(textLower, skill)
	}
	return re.MatchString(textLower)
}
