// Package stage classifies a candidate into a career stage before any
// scoring happens. Every downstream evaluation adapts to the stage, so
// the classifier runs first and its output travels with the scan.
package stage

import (
	"regexp"
	"strings"
	"time"

	"github.com/opensource-hiring/peregrine/internal/domain"
)

// Baselines holds the per-stage starting score. Early-career candidates
// get a real baseline instead of collapsing to zero for thin resumes.
var Baselines = map[domain.CareerStage]float64{
	domain.StageAcademic:          58,
	domain.StageFresher:           60,
	domain.StageEarlyProfessional: 62,
	domain.StageMidLevel:          65,
	domain.StageSenior:            68,
	domain.StageExecutive:         70,
}

// Expectations defines what is normal to expect at each stage. A missing
// GitHub profile is only penalized where the table says so.
var Expectations = map[domain.CareerStage]domain.ExpectationSet{
	domain.StageAcademic: {
		Focus:       "internal_coherence",
		Description: "student or pre-graduation candidate",
	},
	domain.StageFresher: {
		Focus:       "project_coherence",
		Description: "recent graduate with < 1 year experience",
	},
	domain.StageEarlyProfessional: {
		ExpectsWorkHistory: true,
		Focus:              "progression_coherence",
		Description:        "1-3 years professional experience",
	},
	domain.StageMidLevel: {
		ExpectsGitHub:         true,
		ExpectsCertifications: true,
		ExpectsWorkHistory:    true,
		ExpectsMetrics:        true,
		PenaltyForNoGitHub:    true,
		Focus:                 "depth_and_impact",
		Description:           "3-7 years with specialization",
	},
	domain.StageSenior: {
		ExpectsGitHub:      true,
		ExpectsWorkHistory: true,
		ExpectsMetrics:     true,
		PenaltyForNoGitHub: true,
		Focus:              "evidence_depth",
		Description:        "7-12 years with leadership",
	},
	domain.StageExecutive: {
		ExpectsWorkHistory: true,
		ExpectsMetrics:     true,
		Focus:              "strategic_impact",
		Description:        "12+ years in leadership/management",
	},
}

var (
	gradYearRe = regexp.MustCompile(`20[0-2][0-9]`)
	roleYearRe = regexp.MustCompile(`20[0-2][0-9]|19[8-9][0-9]`)
)

var execTitles = []string{"ceo", "cto", "coo", "chief", "vp ", "vice president", "president", "founder", "director"}

var seniorTitles = []string{"senior", "lead", "principal", "staff engineer", "architect", "head of", "engineering manager"}

var midTitles = []string{"engineer", "developer", "analyst", "specialist", "consultant", "associate"}

var studentSignals = []string{"student", "fresher", "graduate", "intern", "b.tech", "b.e.", "b.sc", "pursuing", "final year", "cgpa", "gpa", "sgpa"}

var powerClaims = []string{"expert", "specialist", "deep", "advanced", "extensive", "10+ years", "15+ years", "proven track record"}

// Classifier assigns career stages. The zero value is not usable; use New.
type Classifier struct {
	currentYear int
}

// New returns a Classifier anchored at the current year.
func New() *Classifier {
	return &Classifier{currentYear: time.Now().Year()}
}

// NewAt returns a Classifier anchored at a fixed year, for reproducible
// evaluation over historical corpora.
func NewAt(year int) *Classifier {
	return &Classifier{currentYear: year}
}

// Classify determines the candidate's career stage from graduation
// recency, accumulated work duration, title seniority signals, and
// language intensity. The returned profile carries the stage baseline
// and expectation set that downstream analyzers adapt to.
func (c *Classifier) Classify(entities *domain.CandidateEntities, rawText string) domain.CareerStageProfile {
	signals := c.extractSignals(entities, rawText)
	stage, confidence := reasonStage(signals)

	return domain.CareerStageProfile{
		Stage:         stage,
		Confidence:    confidence,
		BaselineScore: Baselines[stage],
		Expectations:  Expectations[stage],
		Signals:       signals,
	}
}

// TotalExperienceYears sums role durations from parsed date ranges.
// Open-ended roles count up to the classifier's current year.
func (c *Classifier) TotalExperienceYears(experience []domain.ExperienceRole) int {
	total := 0
	for _, role := range experience {
		sy := roleYearRe.FindString(role.StartDate)
		if sy == "" {
			continue
		}
		s := atoiYear(sy)
		e := c.currentYear
		if ey := roleYearRe.FindString(role.EndDate); ey != "" {
			e = atoiYear(ey)
		}
		if e > s {
			total += e - s
		}
	}
	return total
}

func (c *Classifier) extractSignals(entities *domain.CandidateEntities, rawText string) domain.StageSignals {
	textLower := strings.ToLower(rawText)

	// Graduation recency from any plausible year in the text.
	var latestYear int
	for _, m := range gradYearRe.FindAllString(rawText, -1) {
		y := atoiYear(m)
		if y <= c.currentYear && y > latestYear {
			latestYear = y
		}
	}
	var ysg *int
	if latestYear > 0 {
		v := c.currentYear - latestYear
		ysg = &v
	}

	var experience []domain.ExperienceRole
	if entities != nil {
		experience = entities.Experience
	}

	words := strings.Fields(rawText)
	totalLen := 0
	for _, w := range words {
		totalLen += len(w)
	}
	avgWordLen := 0.0
	if len(words) > 0 {
		avgWordLen = float64(totalLen) / float64(len(words))
	}

	return domain.StageSignals{
		YearsSinceGraduation: ysg,
		TotalExpYears:        c.TotalExperienceYears(experience),
		NumRoles:             len(experience),
		ExecHits:             countHits(textLower, execTitles),
		SeniorHits:           countHits(textLower, seniorTitles),
		MidHits:              countHits(textLower, midTitles),
		StudentHits:          countHits(textLower, studentSignals),
		AvgWordLen:           avgWordLen,
		ClaimDensity:         countHits(textLower, powerClaims),
	}
}

// reasonStage resolves signals to a stage top-down. Order matters: the
// first matching rule wins, so executive signals always take precedence
// over student signals for mixed resumes.
func reasonStage(s domain.StageSignals) (domain.CareerStage, int) {
	ysg := s.YearsSinceGraduation
	exp := s.TotalExpYears

	if s.ExecHits >= 2 || exp >= 15 {
		return domain.StageExecutive, 90
	}

	if s.SeniorHits >= 2 || exp >= 7 {
		if exp >= 7 {
			return domain.StageSenior, 85
		}
		return domain.StageSenior, 70
	}

	if exp >= 3 || (s.NumRoles >= 2 && s.MidHits >= 1) {
		if exp >= 3 {
			return domain.StageMidLevel, 80
		}
		return domain.StageMidLevel, 65
	}

	if s.StudentHits >= 2 || (ysg != nil && *ysg <= 1) {
		return domain.StageFresher, 85
	}

	if ysg != nil && *ysg <= 3 {
		return domain.StageEarlyProfessional, 80
	}

	if s.StudentHits >= 1 || (ysg != nil && *ysg == 0) {
		return domain.StageAcademic, 88
	}

	return domain.StageEarlyProfessional, 55
}

func countHits(textLower string, terms []string) int {
	n := 0
	for _, t := range terms {
		if strings.Contains(textLower, t) {
			n++
		}
	}
	return n
}

func atoiYear(s string) int {
	y := 0
	for _, r := range s {
		y = y*10 + int(r-'0')
	}
	return y
}
