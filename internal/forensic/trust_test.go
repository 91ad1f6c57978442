package forensic

import (
	"strings"
	"testing"

	"github.com/opensource-hiring/peregrine/internal/domain"
)

const testYear = 2026

func TestGitHubTrustTiers(t *testing.T) {
	tests := []struct {
		name      string
		signal    *domain.GitHubSignal
		wantScore float64
		wantLevel string
	}{
		{"absent profile", nil, 20, "No Activity"},
		{"not found", &domain.GitHubSignal{Exists: false}, 20, "No Activity"},
		{
			"highly active",
			&domain.GitHubSignal{Exists: true, Metrics: domain.DigitalFootprint{RepoCount: 15, LastCommitDaysAgo: 10}},
			90, "Highly Active",
		},
		{
			"moderately active",
			&domain.GitHubSignal{Exists: true, Metrics: domain.DigitalFootprint{RepoCount: 6, LastCommitDaysAgo: 100}},
			70, "Moderately Active",
		},
		{
			"many repos but stale",
			&domain.GitHubSignal{Exists: true, Metrics: domain.DigitalFootprint{RepoCount: 15, LastCommitDaysAgo: 400}},
			50, "Limited Activity",
		},
		{
			"empty profile",
			&domain.GitHubSignal{Exists: true, Metrics: domain.DigitalFootprint{RepoCount: 0}},
			25, "Empty Profile",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, level, meta := GitHubTrust(tt.signal, testYear)
			if score != tt.wantScore {
				t.Errorf("score = %.0f, want %.0f", score, tt.wantScore)
			}
			if level != tt.wantLevel {
				t.Errorf("level = %q, want %q", level, tt.wantLevel)
			}
			wantExists := tt.signal != nil && tt.signal.Exists
			if meta.Exists != wantExists {
				t.Errorf("meta.Exists = %v, want %v", meta.Exists, wantExists)
			}
		})
	}
}

func TestGitHubTrustZeroCommitReadsStale(t *testing.T) {
	// A present profile with no commit data must not read as committed
	// today.
	sig := &domain.GitHubSignal{Exists: true, Metrics: domain.DigitalFootprint{RepoCount: 15}}
	score, level, _ := GitHubTrust(sig, testYear)
	if level == "Highly Active" {
		t.Errorf("score = %.0f level = %q; missing commit data must not count as recent", score, level)
	}
}

func TestEmailTrustTiers(t *testing.T) {
	tests := []struct {
		name           string
		email          string
		wantScore      float64
		wantReputation string
	}{
		{"missing email", "", 40, "No Email"},
		{"disposable", "x@mailinator.com", 10, "Disposable"},
		{"academic", "a@iit.ac.in", 85, ReputationAcademic},
		{"edu", "a@stanford.edu", 85, ReputationAcademic},
		{"corporate keyword", "a@corp.io", 90, ReputationCorporate},
		{"custom long domain", "a@peregrine.dev", 90, ReputationCorporate},
		{"generic consumer", "a@gmail.com", 70, ReputationConsumer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, reputation, _ := EmailTrust(tt.email, nil)
			if score != tt.wantScore {
				t.Errorf("score = %.0f, want %.0f", score, tt.wantScore)
			}
			if reputation != tt.wantReputation {
				t.Errorf("reputation = %q, want %q", reputation, tt.wantReputation)
			}
		})
	}
}

func TestEmailTrustIPQSAdjustment(t *testing.T) {
	et := &domain.EmailTrust{IPQS: &domain.IPQSResult{Status: "success", FraudScore: 50}}
	score, _, meta := EmailTrust("a@gmail.com", et)
	// 70 - 50*0.3 = 55
	if score != 55 {
		t.Errorf("score = %.0f, want 55", score)
	}
	if meta.IPQSFraudScore != 50 {
		t.Errorf("meta ipqs = %.0f, want 50", meta.IPQSFraudScore)
	}

	// Failed lookups never adjust the score.
	et.IPQS.Status = "error"
	score, _, _ = EmailTrust("a@gmail.com", et)
	if score != 70 {
		t.Errorf("score = %.0f, want 70 with failed IPQS", score)
	}
}

func TestEmailTrustHunterBlend(t *testing.T) {
	et := &domain.EmailTrust{Hunter: &domain.HunterResult{Status: "success", Score: 90}}
	score, _, _ := EmailTrust("a@gmail.com", et)
	// 70*0.7 + 90*0.3 = 76
	if score != 76 {
		t.Errorf("score = %.0f, want 76", score)
	}
}

func TestEmailTrustDisposableIgnoresAPIs(t *testing.T) {
	et := &domain.EmailTrust{
		IPQS:   &domain.IPQSResult{Status: "success", FraudScore: 0},
		Hunter: &domain.HunterResult{Status: "success", Score: 100},
	}
	score, reputation, meta := EmailTrust("x@yopmail.com", et)
	if score != 10 || reputation != "Disposable" || !meta.IsDisposable {
		t.Errorf("disposable not floored: score=%.0f reputation=%q", score, reputation)
	}
}

func TestIdentityMatch(t *testing.T) {
	t.Run("matching handle", func(t *testing.T) {
		score, correspondence, meta := IdentityMatch(domain.Identity{
			Name:   "Priya Sharma",
			GitHub: "https://github.com/priya-sharma",
		})
		if score < 90 {
			t.Errorf("score = %.0f, want >= 90 for an exact name handle", score)
		}
		if correspondence != "Strong" {
			t.Errorf("correspondence = %q, want Strong", correspondence)
		}
		if meta.ReferenceHandle != "priya sharma" {
			t.Errorf("reference handle = %q", meta.ReferenceHandle)
		}
	})

	t.Run("unrelated handle", func(t *testing.T) {
		score, correspondence, _ := IdentityMatch(domain.Identity{
			Name:   "Priya Sharma",
			GitHub: "xXdoomlordXx",
		})
		if score >= 70 {
			t.Errorf("score = %.0f, want < 70 for unrelated handle (%s)", score, correspondence)
		}
	})

	t.Run("no handle is neutral", func(t *testing.T) {
		score, correspondence, meta := IdentityMatch(domain.Identity{Name: "Priya Sharma"})
		if score != 60 {
			t.Errorf("score = %.0f, want neutral 60", score)
		}
		if correspondence != "Weak" {
			t.Errorf("correspondence = %q, want Weak band at 60", correspondence)
		}
		if meta.MatchingEngine != "neutral_default" || meta.ReferenceHandle != "(none)" {
			t.Errorf("meta = %+v", meta)
		}
	})
}

func TestShadowScoreWeights(t *testing.T) {
	if got := ShadowScore(100, 100, 100); got != 100 {
		t.Errorf("ShadowScore(100,100,100) = %.1f, want 100", got)
	}
	if got := ShadowScore(90, 70, 60); got != 74 {
		t.Errorf("ShadowScore(90,70,60) = %.1f, want 74.0", got)
	}
	if got := ShadowScore(20, 40, 60); got != 40 {
		t.Errorf("ShadowScore(20,40,60) = %.1f, want 40.0", got)
	}
}

func TestHonestNarrativeNeverBlank(t *testing.T) {
	n := HonestNarrative(10, domain.StageSenior, GitHubMeta{}, EmailMeta{}, domain.AnomalyRecord{}, "High", "Low Coherence")
	if n == "" {
		t.Fatal("narrative must never be blank")
	}
	if !strings.Contains(n, "No structural anomalies detected.") {
		t.Errorf("expected anomaly clause, got %q", n)
	}
	if !strings.Contains(n, "Expected digital footprint for this career stage is absent.") {
		t.Errorf("expected senior absence clause, got %q", n)
	}
}

func TestHonestNarrativeEarlyCareerAbsence(t *testing.T) {
	n := HonestNarrative(65, domain.StageFresher, GitHubMeta{}, EmailMeta{}, domain.AnomalyRecord{FlagCount: 1}, "Low", "High Coherence")
	if !strings.Contains(n, "consistent with early career stage") {
		t.Errorf("expected early-career framing, got %q", n)
	}
	if !strings.Contains(n, "1 anomaly flag(s) identified") {
		t.Errorf("expected flag clause, got %q", n)
	}
}
