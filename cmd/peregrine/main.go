// Peregrine - Resume screening that deploys in 60 seconds.
// Copyright (c) 2026 opensource.hiring
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/opensource-hiring/peregrine/internal/ai"
	"github.com/opensource-hiring/peregrine/internal/api"
	"github.com/opensource-hiring/peregrine/internal/bus"
	"github.com/opensource-hiring/peregrine/internal/cache"
	"github.com/opensource-hiring/peregrine/internal/decision"
	"github.com/opensource-hiring/peregrine/internal/domain"
	"github.com/opensource-hiring/peregrine/internal/history"
	"github.com/opensource-hiring/peregrine/internal/mlmodel"
	"github.com/opensource-hiring/peregrine/internal/repository"
	"github.com/opensource-hiring/peregrine/internal/rules"
	"github.com/opensource-hiring/peregrine/internal/scoring"
	"github.com/opensource-hiring/peregrine/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("PEREGRINE_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Log startup
	slog.Info("starting peregrine",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	// Load configuration
	cfg := domain.DefaultConfig()

	// Check for Pro tier via environment
	if os.Getenv("PEREGRINE_TIER") == "pro" {
		cfg = domain.ProConfig()
		slog.Info("running in Pro tier mode")
	}

	// Gemini reviewer is opt-in via environment
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.AI.Enabled = true
		cfg.AI.APIKey = key
	}

	slog.Info("configuration loaded",
		"tier", cfg.Tier,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
		"ai_reviewer", cfg.AI.Enabled,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Initialize fraud model (heuristic fallback when no weights file)
	model, err := mlmodel.Load(cfg.Model.WeightsPath, logger)
	if err != nil {
		slog.Error("failed to load fraud model", "error", err)
		os.Exit(1)
	}
	slog.Info("fraud model loaded", "model", model.Name())

	// Initialize optional Gemini language reviewer
	var reviewer scoring.LanguageReviewer
	if r, err := ai.NewReviewer(ctx, cfg.AI); err != nil {
		slog.Error("failed to initialize ai reviewer", "error", err)
		os.Exit(1)
	} else if r != nil {
		reviewer = r
		slog.Info("ai reviewer initialized", "model", cfg.AI.Model)
	}

	// Initialize Scoring Engine
	scorer := scoring.NewEngine(model, reviewer)
	slog.Info("scoring engine initialized")

	// Initialize History Service (re-submission velocity)
	historySvc := history.NewService(repo, cacheImpl)
	slog.Info("history service initialized")

	// Initialize Rule Engine with scan-count getter
	engine, err := rules.NewEngine(historySvc.ScanCountGetter(), 100)
	if err != nil {
		slog.Error("failed to initialize rule engine", "error", err)
		os.Exit(1)
	}

	// Load rules from database, falling back to the builtin screening set
	if err := loadRulesFromDatabase(ctx, repo, engine); err != nil {
		slog.Error("failed to load rules", "error", err)
		os.Exit(1)
	}
	slog.Info("rule engine initialized", "rules_count", engine.RulesCount())

	// Initialize Policy Engine
	policyEngine := rules.NewPolicyEngine()

	// Load policies from database, falling back to the builtin default policy
	loadPoliciesFromDatabase(ctx, repo, policyEngine)
	slog.Info("policy engine initialized", "policies_count", policyEngine.PolicyCount())

	// Initialize Decision Processor
	processor := decision.NewProcessor()
	slog.Info("decision processor initialized", "threshold", processor.AlertThreshold)

	// Initialize async Worker (Pro tier)
	async := cfg.Tier == domain.TierPro || os.Getenv("PEREGRINE_ASYNC_WORKER") == "true"
	var asyncWorker *worker.Worker
	if async {
		asyncWorker = worker.NewWorker(busImpl, repo, scorer, engine, policyEngine, processor).
			WithHistory(historySvc)

		// Get tenant IDs to process (from environment or default)
		tenantIDs := []string{}
		if envTenants := os.Getenv("PEREGRINE_TENANTS"); envTenants != "" {
			for _, t := range strings.Split(envTenants, ",") {
				if t = strings.TrimSpace(t); t != "" {
					tenantIDs = append(tenantIDs, t)
				}
			}
		}

		workerCfg := worker.Config{
			TenantIDs:   tenantIDs,
			WorkerCount: 5,
		}

		if err := asyncWorker.Start(workerCfg); err != nil {
			slog.Error("failed to start async worker", "error", err)
		} else {
			slog.Info("async worker started", "tenant_count", len(tenantIDs))
		}
	}

	// Initialize Server
	srv := api.NewServer(cfg.Server, repo, cacheImpl, busImpl, scorer, engine, policyEngine, processor, historySvc, Version, async)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("peregrine is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	// Stop async worker first
	if asyncWorker != nil {
		if err := asyncWorker.Stop(); err != nil {
			slog.Error("failed to stop async worker", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("peregrine shutdown complete")
}

// GlobalTenantID is used for rules that apply to all tenants.
const GlobalTenantID = "*"

// loadRulesFromDatabase loads rules from the database into the engine.
// An empty database falls back to the builtin screening rules so a fresh
// install flags something out of the box.
func loadRulesFromDatabase(ctx context.Context, repo domain.Repository, engine *rules.Engine) error {
	dbRules, err := repo.ListRuleConfigs(ctx, GlobalTenantID)
	if err != nil {
		slog.Warn("failed to list rules from database", "error", err)
		dbRules = nil
	}

	if len(dbRules) > 0 {
		slog.Info("loading rules from database", "count", len(dbRules))
		return engine.LoadRules(dbRules)
	}

	builtin := rules.BuiltinRules()
	slog.Info("no rules in database - loading builtin screening rules", "count", len(builtin))
	return engine.LoadRules(builtin)
}

// loadPoliciesFromDatabase loads policies from the database into the engine.
// Falls back to the builtin default screening policy on an empty database.
func loadPoliciesFromDatabase(ctx context.Context, repo domain.Repository, engine *rules.PolicyEngine) {
	dbPolicies, err := repo.ListPolicies(ctx, GlobalTenantID)
	if err != nil {
		slog.Warn("failed to list policies from database", "error", err)
		dbPolicies = nil
	}

	if len(dbPolicies) > 0 {
		slog.Info("loading policies from database", "count", len(dbPolicies))
		engine.LoadPolicies(dbPolicies)
		return
	}

	builtin := rules.BuiltinPolicies()
	slog.Info("no policies in database - loading builtin default policy", "count", len(builtin))
	engine.LoadPolicies(builtin)
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  +-------------------------------------------+")
	fmt.Println("  |               PEREGRINE                   |")
	fmt.Println("  |     Hiring Intelligence Engine            |")
	fmt.Println("  |     Eyes on every resume.                 |")
	fmt.Println("  +-------------------------------------------+")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Tier:     %s\n", cfg.Tier)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /scans             - Scan a candidate resume")
	fmt.Println("    GET  /scans/{id}        - Get scan by ID")
	fmt.Println("    GET  /reports/{id}      - Get report by ID")
	fmt.Println("    GET  /rules             - List all rules")
	fmt.Println("    POST /rules             - Create a new rule")
	fmt.Println("    POST /rules/reload      - Hot-reload rules from database")
	fmt.Println("    GET  /policies          - List all policies")
	fmt.Println("    POST /policies          - Create a new policy")
	fmt.Println("    PUT  /policies/{id}     - Update a policy")
	fmt.Println("    DELETE /policies/{id}   - Delete a policy")
	fmt.Println("    POST /policies/reload   - Hot-reload policies")
	fmt.Println("    GET  /health            - Health check")
	fmt.Println()
}
