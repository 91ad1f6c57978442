package worker

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/opensource-hiring/peregrine/internal/bus"
	"github.com/opensource-hiring/peregrine/internal/decision"
	"github.com/opensource-hiring/peregrine/internal/domain"
	"github.com/opensource-hiring/peregrine/internal/mlmodel"
	"github.com/opensource-hiring/peregrine/internal/rules"
	"github.com/opensource-hiring/peregrine/internal/scoring"
)

func f(v float64) *float64 { return &v }

func testScanRequest() *domain.ScanRequest {
	return &domain.ScanRequest{
		Entities: domain.CandidateEntities{
			Identity: domain.Identity{Name: "Priya Nair", Email: "priya.nair@gmail.com", GitHub: "priyan"},
			Skills:   []string{"go", "postgresql", "kubernetes"},
			Experience: []domain.ExperienceRole{
				{Role: "Backend Engineer", Company: "Finlytics", StartDate: "2020-03", EndDate: "2023-06", Details: "Built payment reconciliation services in Go."},
				{Role: "Senior Backend Engineer", Company: "Cloudlane", StartDate: "2023-07", EndDate: "Present", Details: "Owns the ingestion pipeline, mentors two engineers."},
			},
			Education: []domain.EducationRecord{{Degree: "B.E.", Institution: "Anna University", Year: "2019"}},
		},
		RawText:    "Backend engineer with six years building Go services for fintech platforms. Led the migration of the reconciliation pipeline to Kubernetes.",
		Domain:     "backend",
		TargetRole: "Senior Backend Engineer",
	}
}

func testRuleEngine(t *testing.T, cfgs ...*domain.RuleConfig) *rules.Engine {
	t.Helper()
	engine, err := rules.NewEngine(nil, 4)
	if err != nil {
		t.Fatalf("failed to create rule engine: %v", err)
	}
	for _, cfg := range cfgs {
		if err := engine.LoadRule(cfg); err != nil {
			t.Fatalf("failed to load rule %s: %v", cfg.ID, err)
		}
	}
	return engine
}

func passingRule() *domain.RuleConfig {
	return &domain.RuleConfig{
		ID:         "sanity-check",
		Name:       "Sanity Check",
		Version:    "1.0",
		Expression: "hiring_index >= 0.0",
		Bands: []domain.RuleBand{
			{UpperLimit: f(0.5), SubRuleRef: ".fail", Reason: "scoring produced no index"},
			{LowerLimit: f(0.5), SubRuleRef: ".pass", Reason: "index present"},
		},
		Weight:  1.0,
		Enabled: true,
	}
}

func alwaysFailRule() *domain.RuleConfig {
	return &domain.RuleConfig{
		ID:         "tripwire",
		Name:       "Tripwire",
		Version:    "1.0",
		Expression: "hiring_index >= 0.0",
		Bands: []domain.RuleBand{
			{LowerLimit: f(0.0), SubRuleRef: ".fail", Reason: "tripwire fired"},
		},
		Weight:  1.0,
		Enabled: true,
	}
}

func newTestWorker(b domain.EventBus, engine *rules.Engine) *Worker {
	scorer := scoring.NewEngineAt(mlmodel.HeuristicModel{}, nil, 2026)
	return NewWorker(b, nil, scorer, engine, rules.NewPolicyEngine(), decision.NewProcessor())
}

func TestWorker(t *testing.T) {
	t.Run("StartAndStop", func(t *testing.T) {
		b := bus.NewChannelBus(100)
		defer b.Close()

		w := newTestWorker(b, testRuleEngine(t))

		err := w.Start(Config{TenantIDs: []string{"tenant-a", "tenant-b"}})
		if err != nil {
			t.Fatalf("failed to start worker: %v", err)
		}

		stats := w.GetStats()
		if stats.SubscriptionCount != 2 {
			t.Errorf("expected 2 subscriptions, got %d", stats.SubscriptionCount)
		}

		if err := w.Stop(); err != nil {
			t.Fatalf("failed to stop worker: %v", err)
		}

		stats = w.GetStats()
		if stats.SubscriptionCount != 0 {
			t.Errorf("expected 0 subscriptions after stop, got %d", stats.SubscriptionCount)
		}
	})

	t.Run("ProcessScan", func(t *testing.T) {
		b := bus.NewChannelBus(100)
		defer b.Close()

		w := newTestWorker(b, testRuleEngine(t, passingRule()))

		if err := w.Start(Config{TenantIDs: []string{"tenant-a"}}); err != nil {
			t.Fatalf("failed to start worker: %v", err)
		}
		defer w.Stop()

		// Capture the completed event
		var received atomic.Bool
		var event ScanEvent
		_, err := b.Subscribe(context.Background(), "tenant-a", domain.TopicScanCompleted, func(ctx context.Context, msg *domain.Message) error {
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				return err
			}
			received.Store(true)
			return nil
		})
		if err != nil {
			t.Fatalf("failed to subscribe: %v", err)
		}

		msg := ScanMessage{
			ScanID:   "scan-123",
			TenantID: "tenant-a",
			Request:  testScanRequest(),
		}
		payload, _ := json.Marshal(msg)

		if err := b.Publish(context.Background(), "tenant-a", domain.TopicScanRequested, payload); err != nil {
			t.Fatalf("failed to publish scan: %v", err)
		}

		deadline := time.Now().Add(2 * time.Second)
		for !received.Load() && time.Now().Before(deadline) {
			time.Sleep(20 * time.Millisecond)
		}

		if !received.Load() {
			t.Fatal("did not receive completed event")
		}
		if event.Response == nil {
			t.Fatal("completed event missing response")
		}
		if event.Response.ScanID != "scan-123" {
			t.Errorf("expected scan ID scan-123, got %s", event.Response.ScanID)
		}
		if event.Response.HiringIndex <= 0 {
			t.Errorf("expected positive hiring index, got %.1f", event.Response.HiringIndex)
		}
		if event.Decision == nil {
			t.Fatal("completed event missing decision")
		}
		if event.Decision.Flagged {
			t.Error("clean scan should not be flagged")
		}
		if event.Decision.RulesEvaluated != 1 {
			t.Errorf("expected 1 rule evaluated, got %d", event.Decision.RulesEvaluated)
		}
	})

	t.Run("FlaggedPublished", func(t *testing.T) {
		b := bus.NewChannelBus(100)
		defer b.Close()

		w := newTestWorker(b, testRuleEngine(t, alwaysFailRule()))

		if err := w.Start(Config{TenantIDs: []string{"tenant-a"}}); err != nil {
			t.Fatalf("failed to start worker: %v", err)
		}
		defer w.Stop()

		var flagged atomic.Bool
		_, err := b.Subscribe(context.Background(), "tenant-a", domain.TopicScanFlagged, func(ctx context.Context, msg *domain.Message) error {
			flagged.Store(true)
			return nil
		})
		if err != nil {
			t.Fatalf("failed to subscribe: %v", err)
		}

		msg := ScanMessage{
			ScanID:   "scan-456",
			TenantID: "tenant-a",
			Request:  testScanRequest(),
		}
		payload, _ := json.Marshal(msg)

		if err := b.Publish(context.Background(), "tenant-a", domain.TopicScanRequested, payload); err != nil {
			t.Fatalf("failed to publish scan: %v", err)
		}

		deadline := time.Now().Add(2 * time.Second)
		for !flagged.Load() && time.Now().Before(deadline) {
			time.Sleep(20 * time.Millisecond)
		}

		if !flagged.Load() {
			t.Error("expected scan to be published to flagged topic")
		}
	})

	t.Run("MultiTenant", func(t *testing.T) {
		b := bus.NewChannelBus(100)
		defer b.Close()

		w := newTestWorker(b, testRuleEngine(t, passingRule()))

		if err := w.Start(Config{TenantIDs: []string{"tenant-a", "tenant-b"}}); err != nil {
			t.Fatalf("failed to start worker: %v", err)
		}
		defer w.Stop()

		var countA, countB atomic.Int32
		_, _ = b.Subscribe(context.Background(), "tenant-a", domain.TopicScanCompleted, func(ctx context.Context, msg *domain.Message) error {
			countA.Add(1)
			return nil
		})
		_, _ = b.Subscribe(context.Background(), "tenant-b", domain.TopicScanCompleted, func(ctx context.Context, msg *domain.Message) error {
			countB.Add(1)
			return nil
		})

		for i, tenant := range []string{"tenant-a", "tenant-b", "tenant-a"} {
			msg := ScanMessage{
				ScanID:   "scan-" + string(rune('0'+i)),
				TenantID: tenant,
				Request:  testScanRequest(),
			}
			payload, _ := json.Marshal(msg)
			if err := b.Publish(context.Background(), tenant, domain.TopicScanRequested, payload); err != nil {
				t.Fatalf("failed to publish: %v", err)
			}
		}

		deadline := time.Now().Add(2 * time.Second)
		for (countA.Load() < 2 || countB.Load() < 1) && time.Now().Before(deadline) {
			time.Sleep(20 * time.Millisecond)
		}

		if countA.Load() != 2 {
			t.Errorf("expected 2 completed events for tenant-a, got %d", countA.Load())
		}
		if countB.Load() != 1 {
			t.Errorf("expected 1 completed event for tenant-b, got %d", countB.Load())
		}
	})
}

func TestScanMessageParsing(t *testing.T) {
	original := ScanMessage{
		ScanID:     "scan-789",
		TenantID:   "tenant-z",
		TraceID:    "trace-001",
		ScanWindow: 7200,
		Request:    testScanRequest(),
	}

	payload, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var parsed ScanMessage
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	if parsed.ScanID != original.ScanID {
		t.Errorf("scan ID mismatch: %s", parsed.ScanID)
	}
	if parsed.ScanWindow != 7200 {
		t.Errorf("scan window mismatch: %d", parsed.ScanWindow)
	}
	if parsed.Request == nil {
		t.Fatal("request missing after round trip")
	}
	if parsed.Request.Entities.Identity.Email != "priya.nair@gmail.com" {
		t.Errorf("candidate email mismatch: %s", parsed.Request.Entities.Identity.Email)
	}
}
