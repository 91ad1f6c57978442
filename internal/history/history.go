// Package history tracks candidate re-submission velocity.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/opensource-hiring/peregrine/internal/domain"
)

// Service counts scans per candidate email over a time window. The
// count feeds the scan_count variable in the rule engine so tenants can
// flag serial resubmitters.
type Service struct {
	repo  domain.Repository
	cache domain.Cache
	db    *sql.DB // Direct DB access for custom queries
}

// NewService creates a new history service.
func NewService(repo domain.Repository, cache domain.Cache) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
	}
}

// RecordScan bumps the fast-path counter for a candidate. Best effort;
// the authoritative count comes from the scans table.
func (s *Service) RecordScan(ctx context.Context, tenantID, email string, window time.Duration) {
	if s.cache == nil || tenantID == "" || email == "" {
		return
	}
	_, _ = s.cache.IncrementCounter(ctx, tenantID, "scans:"+email, window)
}

// GetScanCount returns the number of scans for a candidate email within a
// time window. This is the ScanCountGetter signature expected by the
// rule engine.
func (s *Service) GetScanCount(ctx context.Context, tenantID, email string, windowSecs int) (int64, error) {
	if tenantID == "" || email == "" {
		return 0, fmt.Errorf("tenantID and email are required")
	}

	since := time.Now().Add(-time.Duration(windowSecs) * time.Second)

	if s.db != nil {
		return s.countFromDB(ctx, tenantID, email, since)
	}

	if s.repo != nil {
		return s.repo.CountScansByEmail(ctx, tenantID, email, since)
	}

	return 0, fmt.Errorf("no data source available")
}

// countFromDB queries the database directly for the scan count.
func (s *Service) countFromDB(ctx context.Context, tenantID, email string, since time.Time) (int64, error) {
	query := `
		SELECT COUNT(*) FROM scans
		WHERE tenant_id = ?
		AND candidate_email = ?
		AND created_at >= ?
	`

	var count int64
	err := s.db.QueryRowContext(ctx, query, tenantID, email, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count scans: %w", err)
	}

	return count, nil
}

// ScanCountGetter returns a getter function for the rule engine.
func (s *Service) ScanCountGetter() func(ctx context.Context, tenantID, email string, windowSecs int) (int64, error) {
	return s.GetScanCount
}
