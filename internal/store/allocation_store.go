package store

import (
	"context"
	"time"

	"timebank/internal/models"
)

type AllocationStore struct {
	db DB
}

func NewAllocationStore(db DB) *AllocationStore {
	return &AllocationStore{db: db}
}

// AllocationSummary is an allocation row plus its derived balances, all
// recomputed from child records at query time.
type AllocationSummary struct {
	ID              string    `db:"id"`
	ProjectID       string    `db:"project_id"`
	ResourceID      string    `db:"resource_id"`
	Amount          int64     `db:"amount"`
	AmountHeld      int64     `db:"amount_held"`
	AmountCharged   int64     `db:"amount_charged"`
	AmountAvailable int64     `db:"amount_available"`
	StartAt         time.Time `db:"start_at"`
	ExpiresAt       time.Time `db:"expires_at"`
	Comment         string    `db:"comment"`
	CreatedAt       time.Time `db:"created_at"`
}

func (s *AllocationStore) Create(ctx context.Context, tx Execer, a models.Allocation) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO allocations (id, project_id, resource_id, amount, start_at, expires_at, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, a.ID, a.ProjectID, a.ResourceID, a.Amount, a.StartAt, a.ExpiresAt, a.Comment)
	return err
}

func (s *AllocationStore) GetByID(ctx context.Context, allocationID string) (models.Allocation, error) {
	var row models.Allocation
	err := s.db.GetContext(ctx, &row, `
		SELECT id, project_id, resource_id, amount, start_at, expires_at, comment, created_at
		FROM allocations
		WHERE id = $1
	`, allocationID)
	if err != nil {
		return models.Allocation{}, err
	}
	return row, nil
}

func (s *AllocationStore) GetForUpdate(ctx context.Context, tx Getter, allocationID string) (models.Allocation, error) {
	var row models.Allocation
	err := tx.GetContext(ctx, &row, `
		SELECT id, project_id, resource_id, amount, start_at, expires_at, comment, created_at
		FROM allocations
		WHERE id = $1
		FOR UPDATE
	`, allocationID)
	if err != nil {
		return models.Allocation{}, err
	}
	return row, nil
}

// Available recomputes amount - active holds - effective charges from the
// child records. No caching; the distribution engine re-reads this between
// every step of a multi-allocation write.
func (s *AllocationStore) Available(ctx context.Context, q Getter, allocationID string) (int64, error) {
	var avail int64
	err := q.GetContext(ctx, &avail, `
		SELECT a.amount
		  - COALESCE((SELECT SUM(h.amount) FROM holds h WHERE h.allocation_id = a.id AND h.active), 0)
		  - COALESCE((SELECT SUM(c.amount) FROM charges c WHERE c.allocation_id = a.id), 0)
		  + COALESCE((SELECT SUM(r.amount) FROM refunds r JOIN charges c ON c.id = r.charge_id WHERE c.allocation_id = a.id), 0)
		FROM allocations a
		WHERE a.id = $1
	`, allocationID)
	return avail, err
}

// ListActiveForUpdate returns the distribution candidates for a
// (project, resource) pair: active at `now`, earliest-expiring first, ties
// broken by creation order. Rows are locked so that two concurrent
// distributions against overlapping allocations serialize.
func (s *AllocationStore) ListActiveForUpdate(ctx context.Context, tx Selecter, projectID, resourceID string, now time.Time) ([]models.Allocation, error) {
	var rows []models.Allocation
	err := tx.SelectContext(ctx, &rows, `
		SELECT id, project_id, resource_id, amount, start_at, expires_at, comment, created_at
		FROM allocations
		WHERE project_id = $1 AND resource_id = $2 AND start_at <= $3 AND expires_at > $3
		ORDER BY expires_at ASC, created_at ASC
		FOR UPDATE
	`, projectID, resourceID, now)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ProjectBalance sums amount_available over the project's active allocations
// on one resource. May be negative after overdraft.
func (s *AllocationStore) ProjectBalance(ctx context.Context, q Getter, projectID, resourceID string, now time.Time) (int64, error) {
	var balance int64
	err := q.GetContext(ctx, &balance, `
		SELECT COALESCE(SUM(a.amount - COALESCE(h.held, 0) - COALESCE(c.charged, 0) + COALESCE(r.refunded, 0)), 0)
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
		WHERE a.project_id = $1 AND a.resource_id = $2 AND a.start_at <= $3 AND a.expires_at > $3
	`, projectID, resourceID, now)
	return balance, err
}

// ListSummaries returns allocations with derived balances, optionally
// filtered by project and resource.
func (s *AllocationStore) ListSummaries(ctx context.Context, projectID, resourceID string) ([]AllocationSummary, error) {
	query := `
		SELECT a.id, a.project_id, a.resource_id, a.amount,
		       COALESCE(h.held, 0) AS amount_held,
		       COALESCE(c.charged, 0) - COALESCE(r.refunded, 0) AS amount_charged,
		       a.amount - COALESCE(h.held, 0) - COALESCE(c.charged, 0) + COALESCE(r.refunded, 0) AS amount_available,
		       a.start_at, a.expires_at, a.comment, a.created_at
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
		WHERE 1=1
	`
	args := []any{}
	if projectID != "" {
		args = append(args, projectID)
		query += " AND a.project_id = $" + itoa(len(args))
	}
	if resourceID != "" {
		args = append(args, resourceID)
		query += " AND a.resource_id = $" + itoa(len(args))
	}
	query += " ORDER BY a.expires_at ASC, a.created_at ASC"
	var rows []AllocationSummary
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
