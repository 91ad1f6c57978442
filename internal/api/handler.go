package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/opensource-hiring/peregrine/internal/decision"
	"github.com/opensource-hiring/peregrine/internal/domain"
	"github.com/opensource-hiring/peregrine/internal/history"
	"github.com/opensource-hiring/peregrine/internal/rules"
	"github.com/opensource-hiring/peregrine/internal/scoring"
	"github.com/opensource-hiring/peregrine/internal/worker"
)

// signalTTL is how long cached verification signals stay fresh.
const signalTTL = 6 * time.Hour

// Handler holds dependencies for API handlers.
type Handler struct {
	repo         domain.Repository
	cache        domain.Cache
	bus          domain.EventBus
	scorer       *scoring.Engine
	engine       *rules.Engine
	policyEngine *rules.PolicyEngine
	processor    *decision.Processor
	history      *history.Service
	validate     *validator.Validate
	version      string
	async        bool
}

// NewHandler creates a new API handler.
func NewHandler(repo domain.Repository, cache domain.Cache, bus domain.EventBus, scorer *scoring.Engine, engine *rules.Engine, policyEngine *rules.PolicyEngine, processor *decision.Processor, hist *history.Service, version string, async bool) *Handler {
	return &Handler{
		repo:         repo,
		cache:        cache,
		bus:          bus,
		scorer:       scorer,
		engine:       engine,
		policyEngine: policyEngine,
		processor:    processor,
		history:      hist,
		validate:     validator.New(),
		version:      version,
		async:        async,
	}
}

// ScanResult is the response for a synchronous POST /scans.
type ScanResult struct {
	Report   *domain.ScanResponse `json:"report"`
	Decision *decision.Decision   `json:"decision"`
	Metadata struct {
		TraceID  string `json:"traceId"`
		IngestMs int64  `json:"ingestMs"`
		TotalMs  int64  `json:"totalMs"`
		Version  string `json:"version"`
	} `json:"metadata"`
}

// CreateScan handles POST /scans requests.
func (h *Handler) CreateScan(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	traceID := GetTraceID(ctx)

	// Parse request
	var req domain.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	// Validate required fields
	if err := h.validate.Struct(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid request: " + err.Error(),
		})
		return
	}
	if req.Entities.Identity.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "entities.identity.name is required",
		})
		return
	}
	email := req.Entities.Identity.Email
	if email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "entities.identity.email is required",
		})
		return
	}

	// Generate IDs
	scanID := uuid.New().String()

	ingestMs := time.Since(start).Milliseconds()

	// Create scan record
	scan := req.ToScan()
	scan.ID = scanID
	scan.TenantID = tenantID

	// Save scan if repository is available
	if h.repo != nil {
		if err := h.repo.SaveScan(ctx, tenantID, scan); err != nil {
			slog.Error("failed to save scan", "error", err)
			// Continue even if save fails, scoring takes priority
		}
	}

	// Async mode (Pro tier): queue the scan and return immediately
	if h.async && h.bus != nil {
		h.enqueueScan(w, ctx, tenantID, traceID, scanID, &req, ingestMs)
		return
	}

	// Synchronous scoring (Community tier / direct mode)

	// 1. Track re-submission velocity
	if h.history != nil {
		h.history.RecordScan(ctx, tenantID, email, time.Hour)
	}

	// 2. Reuse cached verification signals when the request carries none
	if req.Verification == nil && h.cache != nil {
		if cached, err := h.cache.GetSignals(ctx, tenantID, email); err == nil && cached != nil {
			v := cached.Verification
			req.Verification = &v
		}
	}

	// 3. Score the candidate
	report := h.scorer.Evaluate(ctx, tenantID, scanID, &req)

	// 4. Cache verification signals for repeat scans
	if req.Verification != nil && h.cache != nil {
		entry := &domain.SignalCache{
			Email:        email,
			GitHubHandle: req.Entities.Identity.GitHub,
			Verification: *req.Verification,
			FetchedAt:    time.Now().UTC().Format(time.RFC3339),
		}
		if err := h.cache.SetSignals(ctx, tenantID, email, entry, signalTTL); err != nil {
			slog.Warn("failed to cache signals", "error", err)
		}
	}

	// 5. Evaluate screening rules over the scored report
	ruleResults, err := h.engine.EvaluateAll(ctx, &rules.EvaluateInput{
		TenantID:       tenantID,
		ScanID:         scanID,
		CandidateEmail: email,
		Domain:         req.Domain,
		Report:         report,
		ScanWindow:     3600, // Default 1 hour window
	})
	if err != nil {
		slog.Error("rule evaluation failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "rule evaluation failed",
		})
		return
	}
	report.RuleResults = ruleResults

	// 6. Evaluate policies based on rule results
	var policyResults []domain.PolicyResult
	if h.policyEngine != nil && h.policyEngine.PolicyCount() > 0 {
		policyResults = h.policyEngine.EvaluatePolicies(ruleResults)
	}
	report.PolicyResults = policyResults

	// 7. Aggregate the flag decision
	d := h.processor.Decide(ruleResults, policyResults)

	// 8. Save report
	if h.repo != nil {
		if err := h.repo.SaveReport(ctx, tenantID, report); err != nil {
			slog.Error("failed to save report", "error", err)
		}
	}

	// 9. Publish flagged scans for downstream review queues
	if d.Flagged && h.bus != nil {
		if payload, err := json.Marshal(report.ToResponse()); err == nil {
			if err := h.bus.Publish(ctx, tenantID, domain.TopicScanFlagged, payload); err != nil {
				slog.Warn("failed to publish flag", "scan_id", scanID, "error", err)
			}
		}
	}

	totalMs := time.Since(start).Milliseconds()

	// 10. Respond
	resp := ScanResult{
		Report:   report.ToResponse(),
		Decision: d,
	}
	resp.Metadata.TraceID = traceID
	resp.Metadata.IngestMs = ingestMs
	resp.Metadata.TotalMs = totalMs
	resp.Metadata.Version = h.version

	writeJSON(w, http.StatusOK, resp)
}

// enqueueScan publishes the scan to the event bus for async processing.
func (h *Handler) enqueueScan(w http.ResponseWriter, ctx context.Context, tenantID, traceID, scanID string, req *domain.ScanRequest, ingestMs int64) {
	msg := worker.ScanMessage{
		ScanID:   scanID,
		TenantID: tenantID,
		TraceID:  traceID,
		Request:  req,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to encode scan message",
		})
		return
	}

	if err := h.bus.Publish(ctx, tenantID, domain.TopicScanRequested, payload); err != nil {
		slog.Error("failed to enqueue scan", "scan_id", scanID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to enqueue scan",
		})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"scanId":   scanID,
		"status":   "queued",
		"traceId":  traceID,
		"ingestMs": ingestMs,
	})
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	// Check repository health
	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	// Check cache health
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

// GetScan retrieves a scan record by ID.
func (h *Handler) GetScan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	scanID := chi.URLParam(r, "id")

	if scanID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "scan id is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	scan, err := h.repo.GetScan(ctx, tenantID, scanID)
	if err != nil {
		slog.Error("failed to get scan", "id", scanID, "error", err)
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "scan not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, scan)
}

// GetReport retrieves a scan report by ID.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	reportID := chi.URLParam(r, "id")

	if reportID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "report id is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	report, err := h.repo.GetReport(ctx, tenantID, reportID)
	if err != nil {
		slog.Error("failed to get report", "id", reportID, "error", err)
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "report not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// ListRules returns all loaded rules from the engine.
// Rules are loaded from the database at startup and can be reloaded via POST /rules/reload.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	// Return rules currently loaded in the engine (sourced from database)
	loadedRules := h.engine.GetLoadedRules()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rules":  loadedRules,
		"count":  len(loadedRules),
		"source": "database",
	})
}

// GetRule retrieves a rule by ID from the loaded engine rules.
func (h *Handler) GetRule(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "id")

	if ruleID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "rule id is required",
		})
		return
	}

	// Check rules loaded in the engine (from database)
	for _, rule := range h.engine.GetLoadedRules() {
		if rule.ID == ruleID {
			writeJSON(w, http.StatusOK, rule)
			return
		}
	}

	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "rule not found",
	})
}

// CreateRuleRequest is the request body for creating a rule.
type CreateRuleRequest struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Expression  string            `json:"expression"`
	Bands       []domain.RuleBand `json:"bands"`
	Weight      float64           `json:"weight"`
	Enabled     bool              `json:"enabled"`
}

// CreateRule creates a new rule and saves it to the database.
// Rules are saved globally (tenant_id = "*") so they apply to all tenants.
// After saving, call POST /rules/reload to hot-reload into the engine.
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	// Validate
	if req.ID == "" || req.Name == "" || req.Expression == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "id, name, and expression are required",
		})
		return
	}

	// Create rule config (global tenant)
	ruleConfig := &domain.RuleConfig{
		ID:          req.ID,
		TenantID:    GlobalTenantID,
		Name:        req.Name,
		Description: req.Description,
		Version:     "1.0.0",
		Expression:  req.Expression,
		Bands:       req.Bands,
		Weight:      req.Weight,
		Enabled:     req.Enabled,
	}

	// Validate CEL expression by attempting to load
	if err := h.engine.LoadRule(ruleConfig); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid CEL expression: " + err.Error(),
		})
		return
	}

	// Persist to repository (global tenant ID)
	if h.repo != nil {
		if err := h.repo.SaveRuleConfig(ctx, GlobalTenantID, ruleConfig); err != nil {
			slog.Error("failed to save rule config", "id", ruleConfig.ID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "failed to save rule",
			})
			return
		}
	}

	slog.Info("rule created", "id", ruleConfig.ID, "name", ruleConfig.Name)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"rule":    ruleConfig,
		"message": "Rule created. Call POST /rules/reload to apply changes.",
	})
}

// GlobalTenantID is used for rules that apply to all tenants.
const GlobalTenantID = "*"

// ReloadRules reloads all rules from the database into the engine.
// This enables hot-reloading without server restart.
func (h *Handler) ReloadRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	// Load rules from database (global rules)
	dbRules, err := h.repo.ListRuleConfigs(ctx, GlobalTenantID)
	if err != nil {
		slog.Error("failed to list rules from database", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to load rules from database",
		})
		return
	}

	// Reload into engine
	if err := h.engine.ReloadRules(dbRules); err != nil {
		slog.Error("failed to reload rules into engine", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to reload rules: " + err.Error(),
		})
		return
	}

	slog.Info("rules reloaded from database", "count", len(dbRules))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "rules reloaded successfully",
		"count":   len(dbRules),
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// ============================================================================
// POLICY HANDLERS
// ============================================================================

// CreatePolicyRequest is the request body for creating a policy.
type CreatePolicyRequest struct {
	ID             string                    `json:"id"`
	Name           string                    `json:"name"`
	Description    string                    `json:"description,omitempty"`
	Rules          []domain.PolicyRuleWeight `json:"rules"`
	AlertThreshold float64                   `json:"alertThreshold"`
	Enabled        bool                      `json:"enabled"`
}

// ListPolicies returns all loaded policies.
func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	if h.policyEngine == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "policy engine not available",
		})
		return
	}

	policies := h.policyEngine.GetLoadedPolicies()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"policies": policies,
		"count":    len(policies),
		"source":   "database",
	})
}

// GetPolicy retrieves a policy by ID.
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	policyID := chi.URLParam(r, "id")

	if policyID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "policy id is required",
		})
		return
	}

	if h.policyEngine == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "policy engine not available",
		})
		return
	}

	// Check policies loaded in the engine
	for _, p := range h.policyEngine.GetLoadedPolicies() {
		if p.ID == policyID {
			writeJSON(w, http.StatusOK, p)
			return
		}
	}

	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "policy not found",
	})
}

// CreatePolicy creates a new policy and saves it to the database.
func (h *Handler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreatePolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	// Validate required fields
	if req.ID == "" || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "id and name are required",
		})
		return
	}

	if len(req.Rules) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "at least one rule is required",
		})
		return
	}

	// Validate rules exist in engine and weights are valid
	loadedRules := h.engine.GetLoadedRules()
	ruleIDSet := make(map[string]bool, len(loadedRules))
	for _, r := range loadedRules {
		ruleIDSet[r.ID] = true
	}

	var totalWeight float64
	for _, rule := range req.Rules {
		if rule.RuleID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "rule_id cannot be empty",
			})
			return
		}
		if !ruleIDSet[rule.RuleID] {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": fmt.Sprintf("rule_id '%s' does not exist in rule engine", rule.RuleID),
			})
			return
		}
		if rule.Weight < 0 || rule.Weight > 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "rule weight must be between 0 and 1",
			})
			return
		}
		totalWeight += rule.Weight
	}

	// Warn if weights don't sum to approximately 1.0 (allow 0.01 tolerance)
	if totalWeight < 0.99 || totalWeight > 1.01 {
		slog.Warn("policy weights do not sum to 1.0",
			"policy_id", req.ID,
			"total_weight", totalWeight,
		)
	}

	// Validate threshold - must be > 0 to avoid triggering on every scan
	if req.AlertThreshold <= 0 || req.AlertThreshold > 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "alertThreshold must be between 0 (exclusive) and 1",
		})
		return
	}

	// Create policy config (global tenant)
	policy := &domain.Policy{
		ID:             req.ID,
		TenantID:       GlobalTenantID,
		Name:           req.Name,
		Description:    req.Description,
		Version:        "1.0.0",
		Rules:          req.Rules,
		AlertThreshold: req.AlertThreshold,
		Enabled:        req.Enabled,
	}

	// Persist to repository
	if h.repo != nil {
		if err := h.repo.SavePolicy(ctx, GlobalTenantID, policy); err != nil {
			slog.Error("failed to save policy", "id", policy.ID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "failed to save policy",
			})
			return
		}
	}

	slog.Info("policy created", "id", policy.ID, "name", policy.Name)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"policy":  policy,
		"message": "Policy created. Call POST /policies/reload to apply changes.",
	})
}

// UpdatePolicy updates an existing policy.
func (h *Handler) UpdatePolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	policyID := chi.URLParam(r, "id")

	if policyID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "policy id is required",
		})
		return
	}

	var req CreatePolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	// Validate rules
	for _, rule := range req.Rules {
		if rule.RuleID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "rule_id cannot be empty",
			})
			return
		}
		if rule.Weight < 0 || rule.Weight > 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "rule weight must be between 0 and 1",
			})
			return
		}
	}

	// Update policy
	policy := &domain.Policy{
		ID:             policyID,
		TenantID:       GlobalTenantID,
		Name:           req.Name,
		Description:    req.Description,
		Version:        "1.0.0",
		Rules:          req.Rules,
		AlertThreshold: req.AlertThreshold,
		Enabled:        req.Enabled,
	}

	if h.repo != nil {
		if err := h.repo.SavePolicy(ctx, GlobalTenantID, policy); err != nil {
			slog.Error("failed to update policy", "id", policyID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "failed to update policy",
			})
			return
		}
	}

	slog.Info("policy updated", "id", policyID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"policy":  policy,
		"message": "Policy updated. Call POST /policies/reload to apply changes.",
	})
}

// DeletePolicy deletes a policy and auto-reloads the engine.
func (h *Handler) DeletePolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	policyID := chi.URLParam(r, "id")

	if policyID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "policy id is required",
		})
		return
	}

	if h.repo != nil {
		if err := h.repo.DeletePolicy(ctx, GlobalTenantID, policyID); err != nil {
			slog.Error("failed to delete policy", "id", policyID, "error", err)
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "policy not found",
			})
			return
		}

		// Auto-reload policy engine after delete
		if h.policyEngine != nil {
			dbPolicies, err := h.repo.ListPolicies(ctx, GlobalTenantID)
			if err != nil {
				slog.Error("failed to reload policies after delete", "error", err)
			} else {
				h.policyEngine.ReloadPolicies(dbPolicies)
				slog.Info("policies auto-reloaded after delete", "count", len(dbPolicies))
			}
		}
	}

	slog.Info("policy deleted", "id", policyID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Policy deleted and engine reloaded.",
	})
}

// ReloadPolicies reloads all policies from the database into the engine.
func (h *Handler) ReloadPolicies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	if h.policyEngine == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "policy engine not available",
		})
		return
	}

	// Load policies from database (global)
	dbPolicies, err := h.repo.ListPolicies(ctx, GlobalTenantID)
	if err != nil {
		slog.Error("failed to list policies from database", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to load policies from database",
		})
		return
	}

	// Reload into engine
	h.policyEngine.ReloadPolicies(dbPolicies)

	slog.Info("policies reloaded from database", "count", len(dbPolicies))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "policies reloaded successfully",
		"count":   len(dbPolicies),
	})
}
