package consistency

import (
	"strings"
	"testing"

	"github.com/opensource-hiring/peregrine/internal/domain"
)

const testYear = 2026

func entitiesWithRoles(roles ...domain.ExperienceRole) *domain.CandidateEntities {
	return &domain.CandidateEntities{Experience: roles}
}

func TestCleanResumeIsFullyCoherent(t *testing.T) {
	a := New(testYear)
	entities := &domain.CandidateEntities{
		Skills: []string{"go", "postgres"},
		Experience: []domain.ExperienceRole{
			{Role: "Engineer", StartDate: "2018", EndDate: "2021", Details: "Built services in go with postgres storage."},
			{Role: "Senior Engineer", StartDate: "2021", EndDate: "2024", Details: "Scaled the go platform."},
		},
	}
	rec := a.Analyze(entities, "Engineer 2018-2021, Senior Engineer 2021-2024.")

	if rec.CoherenceScore != 100 {
		t.Errorf("coherence = %.0f, want 100 (flags %v)", rec.CoherenceScore, rec.Flags)
	}
	if rec.Verdict != domain.CoherenceHigh {
		t.Errorf("verdict = %q, want High Coherence", rec.Verdict)
	}
	if len(rec.Flags) != 0 {
		t.Errorf("flags = %v, want none", rec.Flags)
	}
}

func TestOverlapDetection(t *testing.T) {
	a := New(testYear)

	tests := []struct {
		name    string
		roles   []domain.ExperienceRole
		overlap bool
	}{
		{
			name: "deep overlap flagged",
			roles: []domain.ExperienceRole{
				{Role: "Dev A", StartDate: "2015", EndDate: "2020"},
				{Role: "Dev B", StartDate: "2016", EndDate: "2019"},
			},
			overlap: true,
		},
		{
			name: "one year grace tolerated",
			roles: []domain.ExperienceRole{
				{Role: "Dev A", StartDate: "2015", EndDate: "2018"},
				{Role: "Dev B", StartDate: "2017", EndDate: "2020"},
			},
			overlap: false,
		},
		{
			name: "adjacent roles fine",
			roles: []domain.ExperienceRole{
				{Role: "Dev A", StartDate: "2015", EndDate: "2018"},
				{Role: "Dev B", StartDate: "2018", EndDate: "2021"},
			},
			overlap: false,
		},
		{
			name: "open ended role overlaps later start",
			roles: []domain.ExperienceRole{
				{Role: "Dev A", StartDate: "2015", EndDate: "present"},
				{Role: "Dev B", StartDate: "2018", EndDate: "2020"},
			},
			overlap: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.Analyze(entitiesWithRoles(tt.roles...), "")
			if rec.DateOverlapDetected != tt.overlap {
				t.Errorf("overlap = %v, want %v (flags %v)", rec.DateOverlapDetected, tt.overlap, rec.Flags)
			}
			wantScore := 100.0
			if tt.overlap {
				wantScore = 75
			}
			if rec.CoherenceScore != wantScore {
				t.Errorf("coherence = %.0f, want %.0f", rec.CoherenceScore, wantScore)
			}
		})
	}
}

func TestRapidEscalation(t *testing.T) {
	a := New(testYear)

	rec := a.Analyze(&domain.CandidateEntities{}, "Engineering manager since 2025. Started coding in 2024.")
	if !rec.RapidEscalation {
		t.Fatal("expected rapid escalation flag")
	}
	if rec.CoherenceScore != 85 {
		t.Errorf("coherence = %.0f, want 85", rec.CoherenceScore)
	}

	// Leadership claimed but with a long documented history: no flag.
	rec = a.Analyze(&domain.CandidateEntities{}, "Engineering manager. First role in 2015.")
	if rec.RapidEscalation {
		t.Error("escalation flagged despite 11 year history")
	}

	// No leadership keyword at all: no flag even for a short history.
	rec = a.Analyze(&domain.CandidateEntities{}, "Junior developer since 2025.")
	if rec.RapidEscalation {
		t.Error("escalation flagged without leadership keyword")
	}
}

func TestSkillPadding(t *testing.T) {
	a := New(testYear)
	entities := &domain.CandidateEntities{
		Skills: []string{"go", "rust", "kafka", "redis", "terraform", "kubernetes", "spark"},
		Experience: []domain.ExperienceRole{
			{Role: "Dev", StartDate: "2020", EndDate: "2023", Details: "Worked on internal tooling."},
		},
	}
	rec := a.Analyze(entities, "")

	if rec.SkillMentionRatio != 0 {
		t.Errorf("skill mention ratio = %.2f, want 0", rec.SkillMentionRatio)
	}
	if rec.CoherenceScore != 85 {
		t.Errorf("coherence = %.0f, want 85 (skill padding debit)", rec.CoherenceScore)
	}
	found := false
	for _, f := range rec.Flags {
		if strings.Contains(f, "bolted on") {
			found = true
		}
	}
	if !found {
		t.Errorf("missing skill padding flag, got %v", rec.Flags)
	}
}

func TestFewSkillsNotPenalized(t *testing.T) {
	a := New(testYear)
	// Five or fewer declared skills never trigger the padding debit,
	// even with zero mentions.
	entities := &domain.CandidateEntities{
		Skills: []string{"go", "rust", "kafka"},
		Experience: []domain.ExperienceRole{
			{Role: "Dev", StartDate: "2020", EndDate: "2023", Details: "Internal tooling."},
		},
	}
	rec := a.Analyze(entities, "")
	if rec.CoherenceScore != 100 {
		t.Errorf("coherence = %.0f, want 100", rec.CoherenceScore)
	}
}

func TestAllDebitsStack(t *testing.T) {
	a := New(testYear)
	entities := &domain.CandidateEntities{
		Skills: []string{"go", "rust", "kafka", "redis", "terraform", "kubernetes"},
		Experience: []domain.ExperienceRole{
			{Role: "Lead", StartDate: "2024", EndDate: "present", Details: "Team things."},
			{Role: "Dev", StartDate: "2024", EndDate: "2026", Details: "Other things."},
		},
	}
	rec := a.Analyze(entities, "Team lead since 2024, developer 2024.")

	if !rec.DateOverlapDetected || !rec.RapidEscalation {
		t.Fatalf("expected overlap and escalation, got %+v", rec)
	}
	// 100 - 25 - 15 - 15
	if rec.CoherenceScore != 45 {
		t.Errorf("coherence = %.0f, want 45", rec.CoherenceScore)
	}
	if rec.Verdict != domain.CoherenceLow {
		t.Errorf("verdict = %q, want Low Coherence", rec.Verdict)
	}
}

func TestVerdictThresholds(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{100, domain.CoherenceHigh},
		{80, domain.CoherenceHigh},
		{79, domain.CoherenceModerate},
		{55, domain.CoherenceModerate},
		{54, domain.CoherenceLow},
		{0, domain.CoherenceLow},
	}
	for _, tt := range tests {
		if got := verdictFor(tt.score); got != tt.want {
			t.Errorf("verdictFor(%.0f) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestNilEntities(t *testing.T) {
	a := New(testYear)
	rec := a.Analyze(nil, "plain resume text")
	if rec.CoherenceScore != 100 {
		t.Errorf("coherence = %.0f, want 100 for empty input", rec.CoherenceScore)
	}
}
