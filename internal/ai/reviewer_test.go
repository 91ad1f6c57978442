package ai

import (
	"context"
	"strings"
	"testing"

	"github.com/opensource-hiring/peregrine/internal/domain"
)

func TestNewReviewerDisabled(t *testing.T) {
	r, err := NewReviewer(context.Background(), domain.AIConfig{Enabled: false})
	if err != nil {
		t.Fatalf("disabled reviewer must not error: %v", err)
	}
	if r != nil {
		t.Error("disabled reviewer must be nil")
	}
}

func TestNewReviewerRequiresKey(t *testing.T) {
	_, err := NewReviewer(context.Background(), domain.AIConfig{Enabled: true})
	if err == nil {
		t.Fatal("enabled reviewer without a key must error")
	}
}

func TestParseReview(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		wantErr bool
		check   func(t *testing.T, r *domain.LanguageReview)
	}{
		{
			name: "plain json",
			raw:  `{"narrative": "Reads genuine.", "confidence_score": 82, "templated": false}`,
			check: func(t *testing.T, r *domain.LanguageReview) {
				if r.Narrative != "Reads genuine." || r.ConfidenceScore != 82 || r.Templated {
					t.Errorf("parsed = %+v", r)
				}
			},
		},
		{
			name: "fenced json",
			raw:  "```json\n{\"narrative\": \"Templated.\", \"confidence_score\": 40, \"templated\": true}\n```",
			check: func(t *testing.T, r *domain.LanguageReview) {
				if !r.Templated || r.ConfidenceScore != 40 {
					t.Errorf("parsed = %+v", r)
				}
			},
		},
		{
			name: "confidence clamped",
			raw:  `{"narrative": "x", "confidence_score": 140}`,
			check: func(t *testing.T, r *domain.LanguageReview) {
				if r.ConfidenceScore != 100 {
					t.Errorf("confidence = %v, want 100", r.ConfidenceScore)
				}
			},
		},
		{name: "empty", raw: "", wantErr: true},
		{name: "not json", raw: "I think this resume is fine.", wantErr: true},
		{name: "missing narrative", raw: `{"confidence_score": 50}`, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := ParseReview(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tc.check(t, r)
		})
	}
}

func TestDeterministicReview(t *testing.T) {
	templated := "Results-driven professional with a proven track record of success, " +
		"passionate about leveraging cutting-edge solutions."
	r := DeterministicReview(templated)
	if !r.Templated {
		t.Errorf("three phrase hits should mark templated: %+v", r)
	}
	if r.ConfidenceScore != 35 {
		t.Errorf("confidence = %v, want 35", r.ConfidenceScore)
	}
	if !strings.Contains(r.Narrative, "template-style phrases") {
		t.Errorf("narrative = %q", r.Narrative)
	}

	r = DeterministicReview("Built a payments API in Go. Cut p99 latency from 900ms to 120ms.")
	if r.Templated || r.ConfidenceScore != 75 {
		t.Errorf("clean text misgraded: %+v", r)
	}

	r = DeterministicReview("A dynamic team player who built three services.")
	if r.Templated || r.ConfidenceScore != 60 {
		t.Errorf("single phrase misgraded: %+v", r)
	}
}
