// Package scoring orchestrates the full candidate evaluation pipeline:
// career stage classification, narrative reconstruction, proportionality
// and consistency analysis, external signal integration, fraud scoring,
// and verdict composition. Every stage runs behind a recovery boundary
// so one stage's failure degrades the report instead of losing it.
package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/opensource-hiring/peregrine/internal/consistency"
	"github.com/opensource-hiring/peregrine/internal/domain"
	"github.com/opensource-hiring/peregrine/internal/evidence"
	"github.com/opensource-hiring/peregrine/internal/forensic"
	"github.com/opensource-hiring/peregrine/internal/mlmodel"
	"github.com/opensource-hiring/peregrine/internal/proportion"
	"github.com/opensource-hiring/peregrine/internal/signals"
	"github.com/opensource-hiring/peregrine/internal/stage"
)

// EngineVersion is stamped into report metadata.
const EngineVersion = "peregrine-1.0"

var tracer = otel.Tracer("peregrine-scoring")

// LanguageReviewer produces an optional AI critique of the resume
// narrative. Implementations own their own timeouts and fallbacks; the
// engine only ever sees a resolved review or an error it can ignore.
type LanguageReviewer interface {
	Review(ctx context.Context, rawText string, entities *domain.CandidateEntities) (*domain.LanguageReview, error)
}

// Engine runs the scoring pipeline. It holds everything a scan needs
// up front so stage functions never reach for globals: the loaded
// fraud model, the optional language reviewer, and the year all
// timeline math is anchored to.
type Engine struct {
	model       mlmodel.Model
	classifier  *stage.Classifier
	consistency *consistency.Analyzer
	extractor   *mlmodel.Extractor
	reviewer    LanguageReviewer
	currentYear int
}

// NewEngine creates an engine anchored at the current year. The
// reviewer may be nil; scoring then proceeds without a language review.
func NewEngine(model mlmodel.Model, reviewer LanguageReviewer) *Engine {
	return NewEngineAt(model, reviewer, time.Now().UTC().Year())
}

// NewEngineAt creates an engine anchored at a fixed year, for
// deterministic evaluation in tests and replays.
func NewEngineAt(model mlmodel.Model, reviewer LanguageReviewer, year int) *Engine {
	return &Engine{
		model:       model,
		classifier:  stage.NewAt(year),
		consistency: consistency.New(year),
		extractor:   mlmodel.NewExtractor(year),
		reviewer:    reviewer,
		currentYear: year,
	}
}

// Evaluate runs the full pipeline for one scan and always returns a
// report. Stage failures are recorded in Metadata.DegradedStages and
// replaced with safe defaults rather than propagated.
func (e *Engine) Evaluate(ctx context.Context, tenantID, scanID string, req *domain.ScanRequest) *domain.ScanReport {
	start := time.Now()

	ctx, span := tracer.Start(ctx, "scoring.Evaluate",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.String("scan.id", scanID),
		),
	)
	defer span.End()

	report := &domain.ScanReport{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		ScanID:    scanID,
		Timestamp: time.Now().UTC(),
	}

	entities := &req.Entities
	rawText := req.RawText
	var degraded []string

	// Stage 1: career stage classification. All later stages calibrate
	// to the profile, so its fallback is the mid-ambiguity default.
	report.CareerStage = safeProfile()
	e.runStage("stage_classification", &degraded, func() {
		report.CareerStage = e.classifier.Classify(entities, rawText)
	})
	profile := report.CareerStage

	// Stage 2: domain resolution. The request domain wins; otherwise
	// classify from the raw text.
	domainName := req.Domain
	e.runStage("domain_classification", &degraded, func() {
		if domainName == "" {
			domainName = proportion.ClassifyDomain(rawText).Domain
		}
	})

	// Stage 3: narrative reconstruction.
	e.runStage("narrative", &degraded, func() {
		report.Narrative = ReconstructNarrative(entities, rawText, profile.Stage, e.currentYear)
	})

	// Stage 4: claim proportionality.
	report.Proportionality = safeProportionality()
	e.runStage("proportionality", &degraded, func() {
		report.Proportionality = proportion.Analyze(entities, rawText, profile.Stage, domainName)
	})

	// Stage 5: internal consistency.
	report.Consistency = safeConsistency()
	e.runStage("consistency", &degraded, func() {
		report.Consistency = e.consistency.Analyze(entities, rawText)
	})

	// Stage 6: external signal integration.
	report.ExternalSignals = safeExternal()
	e.runStage("external_signals", &degraded, func() {
		report.ExternalSignals = signals.Integrate(req.Verification, profile.Expectations, profile.Stage, domainName)
	})

	// Stage 7: evidence strength.
	e.runStage("evidence", &degraded, func() {
		report.EvidenceStrength = evidence.Strength(report.Consistency, report.ExternalSignals, entities, profile.Stage)
	})

	// Stage 8: feature extraction and fraud probability. Features are
	// extracted once up front, then refined in a single re-entrant
	// pass now that consistency and proportionality exist. Not a loop.
	fraudProbability := 50.0
	var features domain.MLFeatureVector
	e.runStage("fraud_model", &degraded, func() {
		in := e.featureInput(req, profile)
		features = e.extractor.Extract(in)
		fraudProbability = e.model.Predict(features)

		in.Consistency = report.Consistency
		in.Proportionality = report.Proportionality
		features = e.extractor.Extract(in)
		fraudProbability = e.model.Predict(features)
	})

	// Stage 9: composite fusion, core metrics, and role match.
	report.Composite = safeComposite(fraudProbability)
	e.runStage("composite", &degraded, func() {
		report.Composite = mlmodel.Compose(features, fraudProbability)
		report.CoreMetrics = evidence.CoreMetrics(fraudProbability, report.EvidenceStrength)
		report.RoleMatch = MatchRole(entities, rawText, req.ExpectedSkills)
	})

	// Stage 10: adaptive score and verdict. The language review, when
	// available, feeds the verdict's consensus confidence.
	review := e.resolveReview(ctx, req)
	e.runStage("verdict", &degraded, func() {
		report.Score = ComputeAdaptiveScore(profile, report.Proportionality, report.Consistency, report.ExternalSignals, fraudProbability)
		report.Verdict = ComposeVerdict(profile, report.Narrative, report.Proportionality, report.Consistency,
			report.ExternalSignals, report.CoreMetrics, report.EvidenceStrength, report.RoleMatch,
			report.Score, fraudProbability, review)
	})

	// Stage 11: structured analysis and the forensic trust layer.
	e.runStage("structured_analysis", &degraded, func() {
		report.StructuredAnalysis = BuildStructuredAnalysis(report.ExternalSignals, report.Consistency,
			report.EvidenceStrength, report.CoreMetrics, fraudProbability, e.currentYear)
	})
	e.runStage("forensic", &degraded, func() {
		result := forensic.Analyze(entities, req.Verification, profile, report.Proportionality,
			report.Consistency.Verdict, report.Composite.RiskLabel, e.currentYear)
		report.Forensic = result.Summary
		report.Anomalies = result.Anomalies
	})

	report.Metadata = domain.ReportMetadata{
		TraceID:        traceID(span),
		TotalMs:        time.Since(start).Milliseconds(),
		DegradedStages: degraded,
		EngineVersion:  EngineVersion,
	}

	// Hash last so it covers the finished report. The hash excludes
	// identifiers and metadata, so degraded stages still hash stably.
	e.runStage("report_hash", &degraded, func() {
		hash, err := forensic.ReportHash(report)
		if err != nil {
			panic(fmt.Sprintf("report hash: %v", err))
		}
		report.Forensic.ReportHash = hash
	})
	report.Metadata.DegradedStages = degraded

	if len(degraded) > 0 {
		slog.Warn("scan scored with degraded stages",
			"scan_id", scanID,
			"tenant_id", tenantID,
			"degraded", degraded,
		)
	}

	return report
}

// runStage executes one pipeline stage behind a recovery boundary.
// The caller pre-seeds the report field with a safe default, so a
// panicking stage leaves the default in place and is only recorded.
func (e *Engine) runStage(name string, degraded *[]string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("scoring stage failed",
				"stage", name,
				"panic", r,
			)
			*degraded = append(*degraded, name)
		}
	}()
	fn()
}

// featureInput assembles the extractor input from the request and the
// classified profile.
func (e *Engine) featureInput(req *domain.ScanRequest, profile domain.CareerStageProfile) mlmodel.Input {
	in := mlmodel.Input{
		ClaimedExperience: profile.Signals.TotalExpYears,
		Skills:            req.Entities.Skills,
		RoleCount:         len(req.Entities.Experience),
	}
	if req.Verification != nil {
		if gh := req.Verification.APISignals.GitHub; gh != nil && gh.Exists {
			metrics := gh.Metrics
			in.Footprint = &metrics
		}
		in.Email = req.Verification.EmailTrust
	}
	return in
}

// resolveReview returns the language review to feed the verdict: the
// one the request already carries, or a fresh one from the reviewer.
// Review failures are logged and ignored; the review is optional.
func (e *Engine) resolveReview(ctx context.Context, req *domain.ScanRequest) *domain.LanguageReview {
	if req.Verification != nil && req.Verification.LanguageReview != nil {
		return req.Verification.LanguageReview
	}
	if e.reviewer == nil {
		return nil
	}
	review, err := e.reviewer.Review(ctx, req.RawText, &req.Entities)
	if err != nil {
		slog.Warn("language review unavailable", "error", err)
		return nil
	}
	return review
}

func traceID(span trace.Span) string {
	sc := span.SpanContext()
	if sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return uuid.New().String()
}

// Safe defaults substituted when a stage fails. Each sits at the
// neutral midpoint of its scale so a degraded report reads as
// "uncertain", never as "clean" or "fraudulent".

func safeProfile() domain.CareerStageProfile {
	return domain.CareerStageProfile{
		Stage:         domain.StageEarlyProfessional,
		Confidence:    40,
		BaselineScore: 55,
		Expectations:  stage.Expectations[domain.StageEarlyProfessional],
	}
}

func safeProportionality() domain.ProportionalityRecord {
	return domain.ProportionalityRecord{
		InflationIndex: 30,
		Verdict:        domain.ProportionalityMild,
	}
}

func safeConsistency() domain.ConsistencyRecord {
	return domain.ConsistencyRecord{
		CoherenceScore: 70,
		Verdict:        domain.CoherenceModerate,
	}
}

func safeExternal() domain.ExternalSignalRecord {
	return domain.ExternalSignalRecord{
		CoverageLevel: domain.CoverageMinimal,
	}
}

func safeComposite(fraudProbability float64) domain.CompositeScore {
	return domain.CompositeScore{
		FraudProbability: fraudProbability,
		ReliabilityIndex: (100 - fraudProbability) * 0.4,
		RiskLabel:        mlmodel.RiskLabel(fraudProbability),
	}
}
