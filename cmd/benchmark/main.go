// Benchmark tool for testing Peregrine against labeled resume data.
//
// Usage:
//   go run cmd/benchmark/main.go -csv /path/to/candidates.csv -url http://localhost:8080
//
// This tool:
//   1. Reads labeled candidate data (with fraud labels)
//   2. Sends each candidate to Peregrine for scanning
//   3. Compares Peregrine's verdict (flagged / not flagged) with actual labels
//   4. Calculates precision, recall, F1-score, and confusion matrix
//
// Expected CSV columns (header row required, order free):
//   name,email,github,domain,target_role,skills,raw_text,is_fraud
// skills is a semicolon-separated list; is_fraud is 0 or 1.
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// LabeledCandidate represents a row from the benchmark dataset
type LabeledCandidate struct {
	Name       string
	Email      string
	GitHub     string
	Domain     string
	TargetRole string
	Skills     []string
	RawText    string
	IsFraud    bool
}

// ScanRequest is the Peregrine API request format
type ScanRequest struct {
	Entities   Entities `json:"entities"`
	RawText    string   `json:"rawText"`
	Domain     string   `json:"domain,omitempty"`
	TargetRole string   `json:"targetRole,omitempty"`
}

type Entities struct {
	Identity Identity `json:"identity"`
	Skills   []string `json:"skills"`
}

type Identity struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	GitHub string `json:"github,omitempty"`
}

// ScanResponse is the Peregrine API response format
type ScanResponse struct {
	Report struct {
		ScanID           string  `json:"scanId"`
		HiringIndex      float64 `json:"hiringIndex"`
		FraudProbability float64 `json:"fraudProbability"`
		RiskLabel        string  `json:"riskLabel"`
	} `json:"report"`
	Decision struct {
		Flagged bool     `json:"flagged"`
		Score   float64  `json:"score"`
		Reasons []string `json:"reasons"`
	} `json:"decision"`
}

// Metrics tracks benchmark results
type Metrics struct {
	TruePositives  int64 // Fraud flagged
	FalsePositives int64 // Non-fraud flagged
	TrueNegatives  int64 // Non-fraud passed
	FalseNegatives int64 // Fraud passed (missed!)

	TotalProcessed int64
	TotalFraud     int64
	TotalNonFraud  int64
	TotalErrors    int64

	ProcessingTimeMs int64
}

func main() {
	// Parse flags
	csvPath := flag.String("csv", "", "Path to labeled candidate CSV file")
	baseURL := flag.String("url", "http://localhost:8080", "Peregrine base URL")
	tenantID := flag.String("tenant", "benchmark-test", "Tenant ID for requests")
	limit := flag.Int("limit", 10000, "Maximum candidates to process (0 = all)")
	workers := flag.Int("workers", 10, "Number of concurrent workers")
	fraudOnly := flag.Bool("fraud-only", false, "Only test fraudulent candidates")
	sampleRate := flag.Float64("sample", 1.0, "Sample rate for non-fraud (0.0-1.0)")
	verbose := flag.Bool("verbose", false, "Print each candidate result")
	flag.Parse()

	if *csvPath == "" {
		fmt.Println("Usage: benchmark -csv /path/to/candidates.csv [-url http://localhost:8080]")
		fmt.Println("\nFlags:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("+---------------------------------------------------------------+")
	fmt.Println("|        PEREGRINE BENCHMARK - Resume Fraud Detection           |")
	fmt.Println("+---------------------------------------------------------------+")
	fmt.Printf("\nCSV File:      %s\n", *csvPath)
	fmt.Printf("Peregrine URL: %s\n", *baseURL)
	fmt.Printf("Tenant ID:     %s\n", *tenantID)
	fmt.Printf("Workers:       %d\n", *workers)
	fmt.Printf("Limit:         %d\n", *limit)
	fmt.Printf("Fraud Only:    %v\n", *fraudOnly)
	fmt.Printf("Sample Rate:   %.2f\n", *sampleRate)
	fmt.Println()

	// Check Peregrine is running
	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: Peregrine not reachable at %s: %v\n", *baseURL, err)
		fmt.Println("\nMake sure Peregrine is running:")
		fmt.Println("  go run cmd/peregrine/main.go")
		os.Exit(1)
	}
	fmt.Println("Peregrine is healthy")

	// Read labeled data
	fmt.Printf("\nReading candidate data from %s...\n", *csvPath)
	candidates, err := readCandidateCSV(*csvPath, *limit, *fraudOnly, *sampleRate)
	if err != nil {
		fmt.Printf("ERROR: Failed to read CSV: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d candidates\n", len(candidates))

	// Count fraud vs non-fraud
	fraudCount := 0
	for _, c := range candidates {
		if c.IsFraud {
			fraudCount++
		}
	}
	fmt.Printf("  - Fraud:     %d (%.2f%%)\n", fraudCount, 100*float64(fraudCount)/float64(len(candidates)))
	fmt.Printf("  - Non-fraud: %d (%.2f%%)\n", len(candidates)-fraudCount, 100*float64(len(candidates)-fraudCount)/float64(len(candidates)))

	// Run benchmark
	fmt.Printf("\nRunning benchmark with %d workers...\n", *workers)
	startTime := time.Now()
	metrics := runBenchmark(candidates, *baseURL, *tenantID, *workers, *verbose)
	duration := time.Since(startTime)

	// Print results
	printResults(metrics, duration)
}

func checkHealth(baseURL string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func readCandidateCSV(path string, limit int, fraudOnly bool, sampleRate float64) ([]LabeledCandidate, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// Read header
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	// Map column indices
	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}

	col := func(record []string, name string) string {
		i, ok := colIndex[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var candidates []LabeledCandidate
	sampleCounter := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // Skip malformed rows
		}

		isFraud := col(record, "is_fraud") == "1"

		// Apply filters
		if fraudOnly && !isFraud {
			continue
		}

		// Sample non-fraud candidates
		if !isFraud && sampleRate < 1.0 {
			sampleCounter++
			if float64(sampleCounter%100)/100.0 >= sampleRate {
				continue
			}
		}

		var skills []string
		for _, s := range strings.Split(col(record, "skills"), ";") {
			if s = strings.TrimSpace(s); s != "" {
				skills = append(skills, s)
			}
		}

		c := LabeledCandidate{
			Name:       col(record, "name"),
			Email:      col(record, "email"),
			GitHub:     col(record, "github"),
			Domain:     col(record, "domain"),
			TargetRole: col(record, "target_role"),
			Skills:     skills,
			RawText:    col(record, "raw_text"),
			IsFraud:    isFraud,
		}

		candidates = append(candidates, c)

		if limit > 0 && len(candidates) >= limit {
			break
		}
	}

	return candidates, nil
}

func runBenchmark(candidates []LabeledCandidate, baseURL, tenantID string, numWorkers int, verbose bool) *Metrics {
	metrics := &Metrics{}

	// Create work channel
	work := make(chan LabeledCandidate, 100)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 30 * time.Second}

			for c := range work {
				start := time.Now()
				result, err := scanCandidate(client, baseURL, tenantID, c)
				elapsed := time.Since(start).Milliseconds()

				atomic.AddInt64(&metrics.ProcessingTimeMs, elapsed)
				atomic.AddInt64(&metrics.TotalProcessed, 1)

				if err != nil {
					atomic.AddInt64(&metrics.TotalErrors, 1)
					if verbose {
						fmt.Printf("ERROR: %s -> %v\n", c.Email, err)
					}
					continue
				}

				// Track actual labels
				if c.IsFraud {
					atomic.AddInt64(&metrics.TotalFraud, 1)
				} else {
					atomic.AddInt64(&metrics.TotalNonFraud, 1)
				}

				// Calculate confusion matrix
				predicted := result.Decision.Flagged
				actual := c.IsFraud

				if predicted && actual {
					atomic.AddInt64(&metrics.TruePositives, 1)
				} else if predicted && !actual {
					atomic.AddInt64(&metrics.FalsePositives, 1)
				} else if !predicted && !actual {
					atomic.AddInt64(&metrics.TrueNegatives, 1)
				} else { // !predicted && actual
					atomic.AddInt64(&metrics.FalseNegatives, 1)
				}

				if verbose {
					status := "ok "
					if (predicted && !actual) || (!predicted && actual) {
						status = "MISS"
					}
					name := c.Name
					if len(name) > 16 {
						name = name[:16]
					}
					fmt.Printf("%s %-16s | Fraud: %-5v | Flagged: %-5v | FraudProb: %5.1f | Risk: %s\n",
						status,
						name,
						c.IsFraud,
						predicted,
						result.Report.FraudProbability,
						result.Report.RiskLabel,
					)
				}
			}
		}()
	}

	// Send work
	for _, c := range candidates {
		work <- c
	}
	close(work)

	// Wait for completion
	wg.Wait()

	return metrics
}

func scanCandidate(client *http.Client, baseURL, tenantID string, c LabeledCandidate) (*ScanResponse, error) {
	req := ScanRequest{
		Entities: Entities{
			Identity: Identity{
				Name:   c.Name,
				Email:  c.Email,
				GitHub: c.GitHub,
			},
			Skills: c.Skills,
		},
		RawText:    c.RawText,
		Domain:     c.Domain,
		TargetRole: c.TargetRole,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequest(http.MethodPost, baseURL+"/scans", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Tenant-ID", tenantID)

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var result ScanResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return &result, nil
}

func printResults(m *Metrics, duration time.Duration) {
	fmt.Println("\n+---------------------------------------------------------------+")
	fmt.Println("|                      BENCHMARK RESULTS                        |")
	fmt.Println("+---------------------------------------------------------------+")

	fmt.Printf("\nDATASET STATISTICS\n")
	fmt.Printf("   Total Processed:  %d\n", m.TotalProcessed)
	fmt.Printf("   Total Fraud:      %d\n", m.TotalFraud)
	fmt.Printf("   Total Non-Fraud:  %d\n", m.TotalNonFraud)
	fmt.Printf("   Errors:           %d\n", m.TotalErrors)

	fmt.Printf("\nCONFUSION MATRIX\n")
	fmt.Println("                        Predicted")
	fmt.Println("                  Flagged      Passed")
	fmt.Println("              +----------+----------+")
	fmt.Printf("   Actual  F  | %8d | %8d |  (TP, FN)\n", m.TruePositives, m.FalseNegatives)
	fmt.Println("              +----------+----------+")
	fmt.Printf("          NF  | %8d | %8d |  (FP, TN)\n", m.FalsePositives, m.TrueNegatives)
	fmt.Println("              +----------+----------+")

	// Calculate metrics
	precision := float64(0)
	if m.TruePositives+m.FalsePositives > 0 {
		precision = float64(m.TruePositives) / float64(m.TruePositives+m.FalsePositives)
	}

	recall := float64(0)
	if m.TruePositives+m.FalseNegatives > 0 {
		recall = float64(m.TruePositives) / float64(m.TruePositives+m.FalseNegatives)
	}

	f1 := float64(0)
	if precision+recall > 0 {
		f1 = 2 * (precision * recall) / (precision + recall)
	}

	accuracy := float64(0)
	total := m.TruePositives + m.TrueNegatives + m.FalsePositives + m.FalseNegatives
	if total > 0 {
		accuracy = float64(m.TruePositives+m.TrueNegatives) / float64(total)
	}

	fmt.Printf("\nDETECTION METRICS\n")
	fmt.Printf("   Precision:  %.4f  (of flags, how many were actual fraud)\n", precision)
	fmt.Printf("   Recall:     %.4f  (of fraud, how many did we catch)\n", recall)
	fmt.Printf("   F1-Score:   %.4f  (harmonic mean of precision & recall)\n", f1)
	fmt.Printf("   Accuracy:   %.4f  (overall correct predictions)\n", accuracy)

	// Detection rate analysis
	fmt.Printf("\nDETECTION ANALYSIS\n")
	if m.TotalFraud > 0 {
		detectionRate := float64(m.TruePositives) / float64(m.TotalFraud) * 100
		missRate := float64(m.FalseNegatives) / float64(m.TotalFraud) * 100
		fmt.Printf("   Fraud Detected:    %d / %d (%.2f%%)\n", m.TruePositives, m.TotalFraud, detectionRate)
		fmt.Printf("   Fraud Missed:      %d / %d (%.2f%%)\n", m.FalseNegatives, m.TotalFraud, missRate)
	}
	if m.TotalNonFraud > 0 {
		falseAlarmRate := float64(m.FalsePositives) / float64(m.TotalNonFraud) * 100
		fmt.Printf("   False Alarms:      %d / %d (%.2f%%)\n", m.FalsePositives, m.TotalNonFraud, falseAlarmRate)
	}

	fmt.Printf("\nPERFORMANCE\n")
	fmt.Printf("   Total Duration:   %v\n", duration.Round(time.Millisecond))
	if m.TotalProcessed > 0 {
		avgMs := float64(m.ProcessingTimeMs) / float64(m.TotalProcessed)
		sps := float64(m.TotalProcessed) / duration.Seconds()
		fmt.Printf("   Avg Latency:      %.2f ms\n", avgMs)
		fmt.Printf("   Throughput:       %.2f scans/sec\n", sps)
	}

	// Interpretation
	fmt.Printf("\nINTERPRETATION\n")
	if recall >= 0.9 {
		fmt.Println("   Excellent recall - catching most fraud")
	} else if recall >= 0.7 {
		fmt.Println("   Good recall - but missing some fraud")
	} else if recall >= 0.5 {
		fmt.Println("   Moderate recall - significant fraud being missed")
	} else {
		fmt.Println("   Poor recall - most fraud is being missed!")
	}

	if precision >= 0.5 {
		fmt.Println("   Good precision - flags are meaningful")
	} else if precision >= 0.2 {
		fmt.Println("   Low precision - many false alarms")
	} else {
		fmt.Println("   Very low precision - mostly false alarms")
	}

	fmt.Println()
}
