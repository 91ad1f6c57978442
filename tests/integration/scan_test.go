//go:build integration
// +build integration

// Package integration provides end-to-end tests for the Peregrine hiring
// intelligence engine.
//
// These tests verify the COMPLETE scan pipeline:
//
//	Resume → Scoring → Rules → Bands → Policy → Final Decision
//
// Run with: go test -tags=integration -v ./tests/integration/...
//
// UNDERSTANDING THE DOMAIN:
//
// 1. SCAN: A candidate resume submitted for screening (entities + raw text)
//
// 2. SCORING: The eleven-stage pipeline that produces the report:
//    career stage, proportionality, consistency, evidence, external
//    signals, anomaly flags, fraud probability, and the hiring index.
//
// 3. RULE: A screening pattern over the scored report. Each rule has:
//   - Expression: A CEL formula over report variables (fraud_probability,
//     experience_gap, scan_count, ...)
//   - Bands: Thresholds that map scores to outcomes (.pass, .review, .fail)
//   - Weight: Importance when aggregating with other rules (0.0 to 1.0)
//
// 4. POLICY: A group of related rules. Computes weighted aggregate score.
//    If ANY rule returns .fail OR a policy score >= its threshold → FLAG
//
// 5. DECISION: Final verdict - flagged (needs review) or passed.
//
// A fresh install seeds the builtin screening rules and the default
// policy, so these tests run against an unseeded server.
package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

// TestConfig holds test environment configuration
type TestConfig struct {
	BaseURL  string
	TenantID string
}

func getTestConfig() TestConfig {
	baseURL := os.Getenv("PEREGRINE_TEST_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return TestConfig{
		BaseURL:  baseURL,
		TenantID: "test-tenant",
	}
}

// ============================================================================
// API Request/Response Types (matching Peregrine's API contract)
// ============================================================================

// ScanRequest is the candidate sent to POST /scans
type ScanRequest struct {
	Entities   Entities `json:"entities"`
	RawText    string   `json:"rawText"`
	Domain     string   `json:"domain,omitempty"`
	TargetRole string   `json:"targetRole,omitempty"`
}

type Entities struct {
	Identity   Identity    `json:"identity"`
	Skills     []string    `json:"skills"`
	Experience []Role      `json:"experience,omitempty"`
	Education  []Education `json:"education,omitempty"`
}

type Identity struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	GitHub string `json:"github,omitempty"`
}

type Role struct {
	Role      string `json:"role"`
	Company   string `json:"company"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Details   string `json:"details"`
}

type Education struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        string `json:"year,omitempty"`
}

// ScanResult is what POST /scans returns
type ScanResult struct {
	Report struct {
		ReportID         string  `json:"reportId"`
		ScanID           string  `json:"scanId"`
		HiringIndex      float64 `json:"hiringIndex"`
		SystemConfidence int     `json:"systemConfidence"`
		FraudProbability float64 `json:"fraudProbability"`
		RiskLabel        string  `json:"riskLabel"`
	} `json:"report"`
	Decision struct {
		Flagged        bool     `json:"flagged"`
		Score          float64  `json:"score"`
		Reasons        []string `json:"reasons"`
		RulesEvaluated int      `json:"rulesEvaluated"`
	} `json:"decision"`
	Metadata ResponseMetadata `json:"metadata"`
}

type ResponseMetadata struct {
	TraceID  string `json:"traceId"`
	IngestMs int64  `json:"ingestMs"`
	TotalMs  int64  `json:"totalMs"`
	Version  string `json:"version"`
}

// ============================================================================
// Test Helper Functions
// ============================================================================

func scan(t *testing.T, config TestConfig, req ScanRequest) ScanResult {
	t.Helper()

	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}

	httpReq, err := http.NewRequest("POST", config.BaseURL+"/scans", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Tenant-ID", config.TenantID)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(httpReq)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.StatusCode, string(respBody))
	}

	var result ScanResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		t.Fatalf("Failed to unmarshal response: %v (body: %s)", err, string(respBody))
	}

	return result
}

// ============================================================================
// SCENARIO 1: Honest Fresher (No Flag)
// ============================================================================

func TestHonestFresher_NoFlag(t *testing.T) {
	/*
	   SCENARIO: A fresh graduate with claims that match their stage

	   EXPECTED BEHAVIOR:
	   - Career stage resolves to Fresher
	   - Claims are proportionate, no anomaly flags
	   - high-fraud-probability: fraud probability well under 45 → .pass
	   - experience-gap: no GitHub signal, rule passes
	   - resubmission-velocity: first scan, count is low → .pass

	   FINAL DECISION: Not flagged.
	*/
	config := getTestConfig()

	req := ScanRequest{
		Entities: Entities{
			Identity: Identity{Name: "Asha Rao", Email: "asha.rao@gmail.com"},
			Skills:   []string{"python", "sql"},
			Education: []Education{
				{Degree: "B.Tech", Institution: "State University", Year: "2025"},
			},
		},
		RawText: "B.Tech graduate, class of 2025. Coursework in data structures and databases. Built a course project on inventory management.",
		Domain:  "backend",
	}

	result := scan(t, config, req)

	// ASSERTIONS
	if result.Decision.Flagged {
		t.Errorf("Expected honest fresher not to be flagged, reasons: %v", result.Decision.Reasons)
	}

	if result.Report.HiringIndex <= 0 {
		t.Errorf("Expected positive hiring index, got %.2f", result.Report.HiringIndex)
	}

	if result.Report.FraudProbability > 50 {
		t.Errorf("Expected low fraud probability, got %.2f", result.Report.FraudProbability)
	}

	t.Logf("Honest fresher passed: index=%.1f, fraud=%.1f, risk=%s",
		result.Report.HiringIndex, result.Report.FraudProbability, result.Report.RiskLabel)
}

// ============================================================================
// SCENARIO 2: Inflated Senior Claims (High Fraud Probability)
// ============================================================================

func TestInflatedSenior_HighFraudProbability(t *testing.T) {
	/*
	   SCENARIO: A candidate fresh out of college claiming a decade of
	   architecture leadership with template-heavy language and no evidence.

	   EXPECTED BEHAVIOR:
	   - Proportionality: claims far outpace the career stage → high
	     inflation index
	   - Evidence: no quantified outcomes, thin evidence score
	   - Composite: fraud probability climbs toward the review band
	   - inflated-thin-evidence rule fires when inflation >= 60 and
	     evidence < 40

	   WHAT WE'RE TESTING:
	   The scored report separates inflated profiles from honest ones;
	   the rule layer turns that separation into a decision.
	*/
	config := getTestConfig()

	req := ScanRequest{
		Entities: Entities{
			Identity: Identity{Name: "Rohan Gupta", Email: "rockstar.dev.2025@tempmail.io"},
			Skills: []string{
				"java", "python", "go", "rust", "kubernetes", "aws", "gcp",
				"azure", "blockchain", "machine learning", "deep learning",
				"microservices", "devops", "system design",
			},
			Education: []Education{
				{Degree: "B.Tech", Institution: "City College", Year: "2025"},
			},
		},
		RawText: "Visionary architect with 12 years spearheading enterprise transformations. Led cross-functional teams of 50+ engineers. Passionate thought leader leveraging cutting-edge synergies across the full stack. Architected mission-critical systems at scale.",
		Domain:  "backend",
	}

	result := scan(t, config, req)

	if result.Report.FraudProbability < 40 {
		t.Errorf("Expected elevated fraud probability for inflated profile, got %.2f",
			result.Report.FraudProbability)
	}

	// Inflated profiles should score well below honest ones
	if result.Report.HiringIndex > 70 {
		t.Errorf("Expected suppressed hiring index for inflated profile, got %.2f",
			result.Report.HiringIndex)
	}

	t.Logf("Inflated senior: index=%.1f, fraud=%.1f, risk=%s, flagged=%v, reasons=%v",
		result.Report.HiringIndex, result.Report.FraudProbability,
		result.Report.RiskLabel, result.Decision.Flagged, result.Decision.Reasons)
}

// ============================================================================
// SCENARIO 3: Re-submission Velocity (Same Candidate, Repeat Scans)
// ============================================================================

func TestResubmissionVelocity_RuleFires(t *testing.T) {
	/*
	   SCENARIO: The same candidate email submitted five times in quick
	   succession.

	   EXPECTED BEHAVIOR:
	   - Each scan records the email in the scan history
	   - resubmission-velocity rule: scan_count > 3 → fires on the
	     later submissions

	   WHY THIS MATTERS:
	   Serial resubmission with tweaked resumes is a common probe
	   against automated screeners.
	*/
	config := getTestConfig()

	req := ScanRequest{
		Entities: Entities{
			Identity: Identity{Name: "Repeat Candidate", Email: "repeat.candidate@example.com"},
			Skills:   []string{"go", "sql"},
			Education: []Education{
				{Degree: "B.Sc", Institution: "Open University", Year: "2023"},
			},
		},
		RawText: "Software developer with two years of experience building internal tools.",
		Domain:  "backend",
	}

	var last ScanResult
	for i := 0; i < 5; i++ {
		last = scan(t, config, req)
	}

	// The fifth scan has four prior submissions in the window
	t.Logf("Fifth submission: flagged=%v, score=%.2f, reasons=%v",
		last.Decision.Flagged, last.Decision.Score, last.Decision.Reasons)

	if last.Decision.RulesEvaluated == 0 {
		t.Error("Expected rules to be evaluated on resubmission")
	}
}

// ============================================================================
// SCENARIO 4: Input Validation
// ============================================================================

func TestMissingRawText_Error(t *testing.T) {
	/*
	   SCENARIO: Request missing required rawText field

	   EXPECTED: HTTP 400 Bad Request
	*/
	config := getTestConfig()

	req := ScanRequest{
		Entities: Entities{
			Identity: Identity{Name: "No Text", Email: "no.text@example.com"},
			Skills:   []string{"go"},
		},
		// RawText missing!
	}

	body, _ := json.Marshal(req)
	httpReq, _ := http.NewRequest("POST", config.BaseURL+"/scans", bytes.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Tenant-ID", config.TenantID)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(httpReq)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing rawText, got %d", resp.StatusCode)
	}

	t.Logf("Validation test passed: missing rawText → HTTP %d", resp.StatusCode)
}

func TestMissingEmail_Error(t *testing.T) {
	/*
	   SCENARIO: Request with no candidate email

	   EXPECTED: HTTP 400 Bad Request (email anchors scan history and
	   signal caching, so it is required)
	*/
	config := getTestConfig()

	req := ScanRequest{
		Entities: Entities{
			Identity: Identity{Name: "No Email"},
			Skills:   []string{"go"},
		},
		RawText: "Developer with some experience.",
	}

	body, _ := json.Marshal(req)
	httpReq, _ := http.NewRequest("POST", config.BaseURL+"/scans", bytes.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Tenant-ID", config.TenantID)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(httpReq)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing email, got %d", resp.StatusCode)
	}

	t.Logf("Validation test passed: missing email → HTTP %d", resp.StatusCode)
}

func TestMissingTenantHeader_Error(t *testing.T) {
	/*
	   SCENARIO: Request without X-Tenant-ID header

	   ACTUAL BEHAVIOR: Returns HTTP 400 Bad Request (not 401)
	   This is because tenant ID is validated as a required field, not as auth.
	*/
	config := getTestConfig()

	req := ScanRequest{
		Entities: Entities{
			Identity: Identity{Name: "No Tenant", Email: "no.tenant@example.com"},
			Skills:   []string{"go"},
		},
		RawText: "Developer with some experience.",
	}

	body, _ := json.Marshal(req)
	httpReq, _ := http.NewRequest("POST", config.BaseURL+"/scans", bytes.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")
	// NO X-Tenant-ID header!

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(httpReq)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest && resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 400 or 401 for missing tenant, got %d", resp.StatusCode)
	}

	t.Logf("Validation test passed: missing tenant → HTTP %d", resp.StatusCode)
}

// ============================================================================
// SCENARIO 5: Response Metadata Verification
// ============================================================================

func TestResponseMetadata(t *testing.T) {
	/*
	   SCENARIO: Verify response includes all required metadata

	   This ensures the API contract is stable for clients.
	*/
	config := getTestConfig()

	req := ScanRequest{
		Entities: Entities{
			Identity: Identity{Name: "Meta Candidate", Email: "meta.candidate@example.com"},
			Skills:   []string{"go", "postgresql"},
			Experience: []Role{
				{Role: "Software Engineer", Company: "Northwind", StartDate: "2022-01", EndDate: "Present", Details: "Maintains the order service."},
			},
			Education: []Education{
				{Degree: "B.E.", Institution: "Tech Institute", Year: "2021"},
			},
		},
		RawText:    "Software engineer with three years building Go services.",
		Domain:     "backend",
		TargetRole: "Backend Engineer",
	}

	result := scan(t, config, req)

	// Verify all required fields are present
	if result.Report.ReportID == "" {
		t.Error("Missing report.reportId")
	}

	if result.Report.ScanID == "" {
		t.Error("Missing report.scanId")
	}

	if result.Report.RiskLabel == "" {
		t.Error("Missing report.riskLabel")
	}

	if result.Report.SystemConfidence < 0 || result.Report.SystemConfidence > 100 {
		t.Errorf("System confidence out of range: %d (expected 0-100)", result.Report.SystemConfidence)
	}

	if result.Report.FraudProbability < 0 || result.Report.FraudProbability > 100 {
		t.Errorf("Fraud probability out of range: %.2f (expected 0-100)", result.Report.FraudProbability)
	}

	if result.Metadata.TraceID == "" {
		t.Error("Missing metadata.traceId")
	}

	// Note: TotalMs can be 0 for very fast operations (sub-millisecond)
	if result.Metadata.TotalMs < 0 {
		t.Error("Invalid metadata.totalMs (negative)")
	}

	t.Logf("Metadata complete: reportId=%s, scanId=%s, traceId=%s, totalMs=%d",
		result.Report.ReportID[:8], result.Report.ScanID[:8],
		result.Metadata.TraceID[:8], result.Metadata.TotalMs)
}
