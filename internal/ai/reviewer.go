// Package ai provides the optional Gemini-backed resume language
// reviewer. The reviewer is an upstream signal, not part of the scoring
// core: its output feeds the verdict's consensus confidence and nothing
// else. Every call path resolves to a usable review, falling back to a
// deterministic phrase-list heuristic when the model is unreachable.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/opensource-hiring/peregrine/internal/domain"
	"github.com/opensource-hiring/peregrine/internal/resilience"
)

const (
	defaultModel = "gemini-2.5-flash"

	// Only a trimmed excerpt of the resume is ever sent out.
	maxResumeChars = 3500
)

const systemPrompt = `You are a hiring-intelligence reviewer. Assess whether the resume
narrative below reads as genuine human writing or templated/AI-assisted
boilerplate. Respond with ONLY valid JSON, no markdown, with exactly
these keys:
{"narrative": "<2-3 sentence assessment>", "confidence_score": <0-100>, "templated": <true|false>}`

var fenceRe = regexp.MustCompile("^```(?:json)?\\s*|```\\s*$")

// templatePhrases fingerprint boilerplate narratives. Used by the
// deterministic fallback when the model path fails.
var templatePhrases = []string{
	"demonstrated ability to", "proven track record of", "passionate about leveraging",
	"adept at utilizing", "committed to delivering", "possessing strong",
	"cutting-edge solutions", "dynamic team player",
	"results-driven professional", "seeking to leverage", "strong communicator",
}

// Reviewer calls Gemini to critique resume language.
type Reviewer struct {
	client *genai.Client
	model  string
	cfg    resilience.Config
}

// NewReviewer builds a reviewer from config. Returns nil without error
// when the reviewer is disabled; callers treat a nil reviewer as
// "no review available".
func NewReviewer(ctx context.Context, cfg domain.AIConfig) (*Reviewer, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("ai reviewer enabled but no api key configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	return &Reviewer{
		client: client,
		model:  model,
		cfg: resilience.Config{
			Timeout:    time.Duration(cfg.TimeoutSec) * time.Second,
			MaxRetries: cfg.MaxRetries,
		},
	}, nil
}

// Review critiques the resume narrative. The model path is wrapped in
// the resilience combinator; when it is exhausted the deterministic
// phrase-list review stands in, so Review only errors on empty input.
func (r *Reviewer) Review(ctx context.Context, rawText string, entities *domain.CandidateEntities) (*domain.LanguageReview, error) {
	rawText = strings.TrimSpace(rawText)
	if rawText == "" {
		return nil, errors.New("no resume text to review")
	}

	prompt := r.buildPrompt(rawText, entities)

	review, _, err := resilience.Call(ctx, r.cfg,
		func(ctx context.Context) (*domain.LanguageReview, error) {
			return r.callModel(ctx, prompt)
		},
		func() *domain.LanguageReview {
			return DeterministicReview(rawText)
		},
	)
	if err != nil {
		return nil, err
	}
	return review, nil
}

// buildPrompt assembles a compact structured prompt. Skills and role
// titles travel as structured lists; the raw resume is excerpted.
func (r *Reviewer) buildPrompt(rawText string, entities *domain.CandidateEntities) string {
	excerpt := rawText
	if len(excerpt) > maxResumeChars {
		excerpt = excerpt[:maxResumeChars]
	}

	payload := map[string]any{"resume_excerpt": excerpt}
	if entities != nil {
		payload["skills"] = capList(entities.Skills, 20)
		var roles []string
		for _, exp := range entities.Experience {
			roles = append(roles, exp.Role)
		}
		payload["roles"] = capList(roles, 20)
	}
	compact, _ := json.Marshal(payload)

	return systemPrompt + "\n\n" + string(compact)
}

func (r *Reviewer) callModel(ctx context.Context, prompt string) (*domain.LanguageReview, error) {
	resp, err := r.client.Models.GenerateContent(ctx, r.model, genai.Text(prompt), nil)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part != nil {
				builder.WriteString(part.Text)
			}
		}
	}

	return ParseReview(builder.String())
}

// ParseReview validates a model response into a LanguageReview. Strips
// markdown fences when the model wraps its output.
func ParseReview(raw string) (*domain.LanguageReview, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("empty model response")
	}
	raw = strings.TrimSpace(fenceRe.ReplaceAllString(raw, ""))

	var parsed struct {
		Narrative       string  `json:"narrative"`
		ConfidenceScore float64 `json:"confidence_score"`
		Templated       bool    `json:"templated"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("parse review response: %w", err)
	}
	if parsed.Narrative == "" {
		return nil, errors.New("review response missing narrative")
	}
	if parsed.ConfidenceScore < 0 {
		parsed.ConfidenceScore = 0
	}
	if parsed.ConfidenceScore > 100 {
		parsed.ConfidenceScore = 100
	}

	return &domain.LanguageReview{
		Narrative:       parsed.Narrative,
		ConfidenceScore: parsed.ConfidenceScore,
		Templated:       parsed.Templated,
	}, nil
}

// DeterministicReview is the model-free fallback: counts boilerplate
// phrase fingerprints and grades the narrative from the density alone.
func DeterministicReview(rawText string) *domain.LanguageReview {
	textLower := strings.ToLower(rawText)

	hits := 0
	for _, phrase := range templatePhrases {
		if strings.Contains(textLower, phrase) {
			hits++
		}
	}

	switch {
	case hits >= 3:
		return &domain.LanguageReview{
			Narrative:       fmt.Sprintf("Narrative contains %d template-style phrases; reads as heavily templated or AI-assisted writing.", hits),
			ConfidenceScore: 35,
			Templated:       true,
		}
	case hits > 0:
		return &domain.LanguageReview{
			Narrative:       "Narrative contains some boilerplate phrasing but retains individual voice.",
			ConfidenceScore: 60,
		}
	default:
		return &domain.LanguageReview{
			Narrative:       "Narrative reads as individually written with no template fingerprints.",
			ConfidenceScore: 75,
		}
	}
}

func capList(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
