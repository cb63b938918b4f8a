package store

import (
	"context"
	"time"

	"github.com/lib/pq"
)

// ReportStore serves the read-only rollups consumed by the reporting layer.
type ReportStore struct {
	db DB
}

func NewReportStore(db DB) *ReportStore {
	return &ReportStore{db: db}
}

// UsageFilter narrows a rollup. The window is [After, Before); empty sets
// mean no restriction.
type UsageFilter struct {
	After     *time.Time
	Before    *time.Time
	Projects  []string
	Resources []string
	Users     []string
}

// ChargeSummary is the effective consumption rolled up per
// (project, resource, user).
type ChargeSummary struct {
	ProjectID     string  `db:"project_id"`
	ResourceID    string  `db:"resource_id"`
	UserID        *string `db:"user_id"`
	ChargeCount   int64   `db:"charge_count"`
	AmountCharged int64   `db:"amount_charged"`
}

// AvailableSummary is the remaining allocation per (project, resource),
// summed over allocations active at the query time.
type AvailableSummary struct {
	ProjectID       string `db:"project_id"`
	ResourceID      string `db:"resource_id"`
	AmountAvailable int64  `db:"amount_available"`
}

func (s *ReportStore) SummarizeCharges(ctx context.Context, filter UsageFilter) ([]ChargeSummary, error) {
	query := `
		SELECT a.project_id, a.resource_id, c.user_id,
		       COUNT(*) AS charge_count,
		       SUM(c.amount) - COALESCE(SUM(r.refunded), 0) AS amount_charged
		FROM charges c
		JOIN allocations a ON a.id = c.allocation_id
		LEFT JOIN (
			SELECT charge_id, SUM(amount) AS refunded
			FROM refunds GROUP BY charge_id
		) r ON r.charge_id = c.id
		WHERE 1=1
	`
	args := []any{}
	if filter.After != nil {
		args = append(args, *filter.After)
		query += " AND c.created_at >= $" + itoa(len(args))
	}
	if filter.Before != nil {
		args = append(args, *filter.Before)
		query += " AND c.created_at < $" + itoa(len(args))
	}
	if len(filter.Projects) > 0 {
		args = append(args, pq.Array(filter.Projects))
		query += " AND a.project_id = ANY($" + itoa(len(args)) + ")"
	}
	if len(filter.Resources) > 0 {
		args = append(args, pq.Array(filter.Resources))
		query += " AND a.resource_id = ANY($" + itoa(len(args)) + ")"
	}
	if len(filter.Users) > 0 {
		args = append(args, pq.Array(filter.Users))
		query += " AND c.user_id = ANY($" + itoa(len(args)) + ")"
	}
	query += `
		GROUP BY a.project_id, a.resource_id, c.user_id
		ORDER BY a.project_id, a.resource_id, c.user_id
	`
	var rows []ChargeSummary
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *ReportStore) SummarizeAvailable(ctx context.Context, filter UsageFilter, now time.Time) ([]AvailableSummary, error) {
	query := `
		SELECT a.project_id, a.resource_id,
		       SUM(a.amount - COALESCE(h.held, 0) - COALESCE(c.charged, 0) + COALESCE(r.refunded, 0)) AS amount_available
		FROM allocations a
		LEFT JOIN (
			SELECT allocation_id, SUM(amount) AS held
			FROM holds WHERE active GROUP BY allocation_id
		) h ON h.allocation_id = a.id
		LEFT JOIN (
			SELECT allocation_id, SUM(amount) AS charged
			FROM charges GROUP BY allocation_id
		) c ON c.allocation_id = a.id
		LEFT JOIN (
			SELECT c.allocation_id, SUM(r.amount) AS refunded
			FROM refunds r JOIN charges c ON c.id = r.charge_id GROUP BY c.allocation_id
		) r ON r.allocation_id = a.id
		WHERE a.start_at <= $1 AND a.expires_at > $1
	`
	args := []any{now}
	if len(filter.Projects) > 0 {
		args = append(args, pq.Array(filter.Projects))
		query += " AND a.project_id = ANY($" + itoa(len(args)) + ")"
	}
	if len(filter.Resources) > 0 {
		args = append(args, pq.Array(filter.Resources))
		query += " AND a.resource_id = ANY($" + itoa(len(args)) + ")"
	}
	query += `
		GROUP BY a.project_id, a.resource_id
		ORDER BY a.project_id, a.resource_id
	`
	var rows []AvailableSummary
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
