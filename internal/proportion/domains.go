package proportion

import (
	"fmt"
	"strings"
)

// DomainKeywords maps each industry domain to its deterministic keyword
// set. Keyword scoring is high precision, low recall; ties break on map
// order so comparisons use the hit count, not iteration order.
var DomainKeywords = map[string][]string{
	"Software Engineering": {"python", "java", "software engineer", "developer", "aws", "git", "coding", "linux", "backend", "frontend", "fullstack", "react", "node", "typescript"},
	"Data / AI":            {"machine learning", "data scientist", "pytorch", "tensorflow", "nlp", "pandas", "sql", "ai model", "deep learning", "data engineer", "analytics"},
	"Healthcare / Fitness": {"doctor", "nurse", "physiotherapist", "clinical", "fitness coach", "nutrition", "patient care", "hospital", "gym", "medical", "pharmacy"},
	"Business / Sales":     {"accounting", "financial analyst", "marketing", "sales", "revenue", "manager", "business development", "startup", "equity", "lead generation", "operations", "hr"},
	"Marketing":            {"seo", "content strategy", "brand", "social media", "growth", "advertising", "campaign", "digital marketing"},
	"Finance":              {"investment", "banking", "treasury", "audit", "compliance", "portfolio", "trading", "fintech", "tax"},
}

// DomainClassification is the deterministic keyword-layer result.
type DomainClassification struct {
	Domain     string  `json:"domain"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
	TotalHits  int     `json:"total_hits"`
}

// ClassifyDomain scores the resume text against each domain's keyword
// set and returns the best deterministic match. With zero hits the
// result is "General" at zero confidence; callers may override with an
// explicit domain from the scan request.
func ClassifyDomain(text string) DomainClassification {
	textLower := strings.ToLower(text)

	best := "General"
	bestScore := 0
	totalHits := 0
	for domain, keywords := range DomainKeywords {
		score := 0
		for _, kw := range keywords {
			if strings.Contains(textLower, kw) {
				score++
			}
		}
		totalHits += score
		if score > bestScore || (score == bestScore && score > 0 && domain < best) {
			best = domain
			bestScore = score
		}
	}

	if totalHits == 0 {
		return DomainClassification{Domain: "General", Reasoning: "No domain keywords matched."}
	}

	confidence := float64(totalHits) / 10
	if confidence > 0.9 {
		confidence = 0.9
	}
	return DomainClassification{
		Domain:     best,
		Confidence: confidence,
		Reasoning:  fmt.Sprintf("Keyword density: %s (%d hits).", best, totalHits),
		TotalHits:  totalHits,
	}
}

// domainKey maps a human-readable domain name onto an inflation pattern
// bucket.
func domainKey(domainName string) string {
	d := strings.ToLower(domainName)
	switch {
	case strings.Contains(d, "ai") || strings.Contains(d, "ml") || strings.Contains(d, "machine"):
		return "ai_ml"
	case strings.Contains(d, "backend") || strings.Contains(d, "software") || strings.Contains(d, "tech"):
		return "backend"
	case strings.Contains(d, "full"):
		return "fullstack"
	default:
		return "generic"
	}
}
