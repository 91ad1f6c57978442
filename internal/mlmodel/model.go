package mlmodel

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/opensource-hiring/peregrine/internal/domain"
)

var (
	// ErrModelUnavailable means no trained model could be loaded.
	ErrModelUnavailable = errors.New("fraud model unavailable")

	// ErrShapeMismatch means the weights file does not match the
	// engine's feature contract. Never silently padded or truncated.
	ErrShapeMismatch = errors.New("model feature shape mismatch")
)

// Model scores a feature vector to a fraud probability in [1, 99].
type Model interface {
	Predict(features domain.MLFeatureVector) float64
	Name() string
}

// weightsFile is the on-disk trained model format: one logistic
// regression coefficient per feature, in contract order, plus an
// intercept.
type weightsFile struct {
	Features     []string  `json:"features"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
}

// LogisticModel is a trained logistic-regression fraud model loaded
// from a JSON weights file.
type LogisticModel struct {
	coefficients [domain.ModelFeatureCount]float64
	intercept    float64
}

// LoadLogistic reads a weights file and validates it against the
// feature contract. Both the names and the order must match exactly.
func LoadLogistic(path string) (*LogisticModel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	var wf weightsFile
	if err := json.Unmarshal(raw, &wf); err != nil {
		return nil, fmt.Errorf("parse weights file: %w", err)
	}

	if len(wf.Coefficients) != domain.ModelFeatureCount {
		return nil, fmt.Errorf("%w: got %d coefficients, want %d",
			ErrShapeMismatch, len(wf.Coefficients), domain.ModelFeatureCount)
	}
	if len(wf.Features) != domain.ModelFeatureCount {
		return nil, fmt.Errorf("%w: got %d feature names, want %d",
			ErrShapeMismatch, len(wf.Features), domain.ModelFeatureCount)
	}
	for i, name := range wf.Features {
		if name != domain.ModelFeatureNames[i] {
			return nil, fmt.Errorf("%w: feature %d is %q, want %q",
				ErrShapeMismatch, i, name, domain.ModelFeatureNames[i])
		}
	}

	m := &LogisticModel{intercept: wf.Intercept}
	copy(m.coefficients[:], wf.Coefficients)
	return m, nil
}

// Predict runs the logistic regression and returns a probability
// clamped to [1, 99].
func (m *LogisticModel) Predict(features domain.MLFeatureVector) float64 {
	input := features.ModelInput()
	z := m.intercept
	for i, x := range input {
		z += m.coefficients[i] * x
	}
	prob := 100.0 / (1.0 + math.Exp(-z))
	return round1(clampProb(prob))
}

func (m *LogisticModel) Name() string { return "logistic" }

// HeuristicModel is the calibrated fallback used when no trained model
// is available. Produces meaningful, non-constant scores in [1, 99].
type HeuristicModel struct{}

// Predict applies the calibrated heuristic formula. The experience gap
// is the strongest fabrication signal; coherence and verified skills
// pull the score back down.
func (HeuristicModel) Predict(f domain.MLFeatureVector) float64 {
	score := 20.0

	switch {
	case f.ExperienceGap > 5:
		score += 35
	case f.ExperienceGap > 3:
		score += 20
	case f.ExperienceGap > 1:
		score += 10
	}

	if f.RepoCount == 0 && f.ClaimedExperience > 2 {
		score += 20
	} else if f.RepoCount < 3 && f.ClaimedExperience > 4 {
		score += 10
	}

	if f.LastCommitDays > 365 {
		score += 15
	} else if f.LastCommitDays > 90 {
		score += 5
	}

	if f.EmailScore < 30 {
		score += 12
	} else if f.EmailScore < 60 {
		score += 4
	}

	score += f.InflationIndex * 0.2
	score -= (f.CoherenceScore - 70) * 0.15
	score -= f.SkillMatch * 0.1

	return round1(clampProb(score))
}

func (HeuristicModel) Name() string { return "heuristic" }

// Load returns the trained model at path, or the heuristic fallback
// when the path is empty or the file cannot be loaded. A shape mismatch
// is a hard error: a model trained on a different contract must never
// score candidates.
func Load(path string, logger *slog.Logger) (Model, error) {
	if path == "" {
		logger.Warn("no fraud model configured, using heuristic fallback")
		return HeuristicModel{}, nil
	}
	m, err := LoadLogistic(path)
	if err != nil {
		if errors.Is(err, ErrShapeMismatch) {
			return nil, err
		}
		logger.Warn("fraud model could not be loaded, using heuristic fallback",
			"path", path, "error", err)
		return HeuristicModel{}, nil
	}
	logger.Info("fraud model loaded", "path", path, "model", m.Name())
	return m, nil
}

func clampProb(p float64) float64 {
	if p < 1 {
		return 1
	}
	if p > 99 {
		return 99
	}
	return p
}
