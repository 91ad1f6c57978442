// Package worker provides async scan processing for the Pro tier.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/opensource-hiring/peregrine/internal/decision"
	"github.com/opensource-hiring/peregrine/internal/domain"
	"github.com/opensource-hiring/peregrine/internal/history"
	"github.com/opensource-hiring/peregrine/internal/rules"
	"github.com/opensource-hiring/peregrine/internal/scoring"
)

// Worker processes scan requests asynchronously from the EventBus.
type Worker struct {
	bus          domain.EventBus
	repo         domain.Repository
	scorer       *scoring.Engine
	engine       *rules.Engine
	policyEngine *rules.PolicyEngine
	processor    *decision.Processor
	history      *history.Service

	subscriptions []domain.Subscription
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// Config holds worker configuration.
type Config struct {
	// TenantIDs is the list of tenants to process (empty = all via wildcard if supported)
	TenantIDs []string

	// WorkerCount is the number of concurrent workers per tenant
	WorkerCount int
}

// NewWorker creates a new async worker.
func NewWorker(bus domain.EventBus, repo domain.Repository, scorer *scoring.Engine, engine *rules.Engine, policyEngine *rules.PolicyEngine, processor *decision.Processor) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:          bus,
		repo:         repo,
		scorer:       scorer,
		engine:       engine,
		policyEngine: policyEngine,
		processor:    processor,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// WithHistory attaches the re-submission tracking service.
func (w *Worker) WithHistory(svc *history.Service) *Worker {
	w.history = svc
	return w
}

// Start begins processing messages for the given tenants.
func (w *Worker) Start(cfg Config) error {
	if len(cfg.TenantIDs) == 0 {
		return w.startGlobalWorker()
	}

	for _, tenantID := range cfg.TenantIDs {
		if err := w.startTenantWorker(tenantID); err != nil {
			slog.Error("failed to start worker for tenant",
				"tenant_id", tenantID,
				"error", err,
			)
			continue
		}
	}

	slog.Info("workers started",
		"tenant_count", len(cfg.TenantIDs),
	)

	return nil
}

// startGlobalWorker starts a worker that processes all tenants (for testing/dev).
func (w *Worker) startGlobalWorker() error {
	// Subscribe using a special "global" tenant ID
	// In production, you'd want to subscribe with wildcards or JetStream
	sub, err := w.bus.Subscribe(w.ctx, "_global", domain.TopicScanRequested, w.handleMessage)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("global worker started")
	return nil
}

// startTenantWorker starts workers for a specific tenant.
func (w *Worker) startTenantWorker(tenantID string) error {
	// Subscribe to scan requested topic
	sub, err := w.bus.Subscribe(w.ctx, tenantID, domain.TopicScanRequested, func(ctx context.Context, msg *domain.Message) error {
		return w.processScan(ctx, tenantID, msg)
	})
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("tenant worker started",
		"tenant_id", tenantID,
		"topic", domain.TopicScanRequested,
	)

	return nil
}

// handleMessage handles messages from global subscription.
func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	return w.processScan(ctx, msg.TenantID, msg)
}

// ScanMessage is the message payload for async scan processing.
type ScanMessage struct {
	ScanID     string              `json:"scanId"`
	TenantID   string              `json:"tenantId"`
	TraceID    string              `json:"traceId"`
	ScanWindow int                 `json:"scanWindow,omitempty"` // seconds
	Request    *domain.ScanRequest `json:"request"`
}

// ScanEvent is published to the completed and flagged topics.
type ScanEvent struct {
	Response *domain.ScanResponse `json:"response"`
	Decision *decision.Decision   `json:"decision,omitempty"`
}

// processScan evaluates a scan request through the full pipeline.
func (w *Worker) processScan(ctx context.Context, tenantID string, msg *domain.Message) error {
	start := time.Now()

	// Parse message
	var scanMsg ScanMessage
	if err := json.Unmarshal(msg.Payload, &scanMsg); err != nil {
		slog.Error("failed to parse scan message",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	// Use message tenant if provided
	if scanMsg.TenantID != "" {
		tenantID = scanMsg.TenantID
	}

	if scanMsg.Request == nil {
		slog.Error("scan message missing request payload",
			"message_id", msg.ID,
			"scan_id", scanMsg.ScanID,
		)
		return nil
	}

	window := scanMsg.ScanWindow
	if window == 0 {
		window = 3600 // Default 1 hour
	}

	email := scanMsg.Request.Entities.Identity.Email

	slog.Debug("processing scan",
		"scan_id", scanMsg.ScanID,
		"tenant_id", tenantID,
		"trace_id", scanMsg.TraceID,
	)

	// 1. Record the submission for velocity tracking
	if w.history != nil {
		w.history.RecordScan(ctx, tenantID, email, time.Duration(window)*time.Second)
	}

	// 2. Score the candidate
	report := w.scorer.Evaluate(ctx, tenantID, scanMsg.ScanID, scanMsg.Request)

	// 3. Evaluate tenant screening rules over the scored report
	var ruleResults []domain.RuleResult
	if w.engine != nil && w.engine.RulesCount() > 0 {
		var err error
		ruleResults, err = w.engine.EvaluateAll(ctx, &rules.EvaluateInput{
			TenantID:       tenantID,
			ScanID:         scanMsg.ScanID,
			CandidateEmail: email,
			Domain:         scanMsg.Request.Domain,
			Report:         report,
			ScanWindow:     window,
		})
		if err != nil {
			slog.Error("rule evaluation failed",
				"scan_id", scanMsg.ScanID,
				"error", err,
			)
		}
	}
	report.RuleResults = ruleResults

	// 4. Evaluate policies based on rule results
	var policyResults []domain.PolicyResult
	if w.policyEngine != nil && w.policyEngine.PolicyCount() > 0 {
		policyResults = w.policyEngine.EvaluatePolicies(ruleResults)
	}
	report.PolicyResults = policyResults

	// 5. Aggregate the flag decision
	d := w.processor.Decide(ruleResults, policyResults)

	// 6. Save report
	if w.repo != nil {
		if err := w.repo.SaveReport(ctx, tenantID, report); err != nil {
			slog.Error("failed to save report",
				"scan_id", scanMsg.ScanID,
				"error", err,
			)
		}
	}

	// 7. Publish result to completed topic
	event := &ScanEvent{Response: report.ToResponse(), Decision: d}
	payload, _ := json.Marshal(event)
	if err := w.bus.Publish(ctx, tenantID, domain.TopicScanCompleted, payload); err != nil {
		slog.Error("failed to publish scan result",
			"scan_id", scanMsg.ScanID,
			"error", err,
		)
	}

	// 8. If flagged, publish to flagged topic
	if d.Flagged {
		if err := w.bus.Publish(ctx, tenantID, domain.TopicScanFlagged, payload); err != nil {
			slog.Error("failed to publish flag",
				"scan_id", scanMsg.ScanID,
				"error", err,
			)
		}
	}

	slog.Info("scan processed",
		"scan_id", scanMsg.ScanID,
		"tenant_id", tenantID,
		"stage", report.CareerStage.Stage,
		"hiring_index", report.Score.HiringIndex,
		"flagged", d.Flagged,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// Stop gracefully stops all workers.
func (w *Worker) Stop() error {
	w.cancel()

	// Unsubscribe all
	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	w.wg.Wait()

	slog.Info("workers stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}
