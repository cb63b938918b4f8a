package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"timebank/internal/models"
)

type CreditLimitStore struct {
	db DB
}

func NewCreditLimitStore(db DB) *CreditLimitStore {
	return &CreditLimitStore{db: db}
}

// Set records a limit taking effect at startAt. The (project, resource,
// start_at) uniqueness constraint keeps "effective at T" unambiguous, so a
// repeated start date overwrites rather than duplicating.
func (s *CreditLimitStore) Set(ctx context.Context, tx Execer, l models.CreditLimit) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO credit_limits (id, project_id, resource_id, start_at, amount)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (project_id, resource_id, start_at) DO UPDATE SET amount = EXCLUDED.amount
	`, l.ID, l.ProjectID, l.ResourceID, l.StartAt, l.Amount)
	return err
}

// EffectiveAt returns the limit applicable at `at`: the record with the
// greatest start_at not exceeding it. Absence means a limit of zero.
func (s *CreditLimitStore) EffectiveAt(ctx context.Context, q Getter, projectID, resourceID string, at time.Time) (int64, error) {
	var amount int64
	err := q.GetContext(ctx, &amount, `
		SELECT amount
		FROM credit_limits
		WHERE project_id = $1 AND resource_id = $2 AND start_at <= $3
		ORDER BY start_at DESC
		LIMIT 1
	`, projectID, resourceID, at)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return amount, err
}

func (s *CreditLimitStore) ListByProject(ctx context.Context, projectID string) ([]models.CreditLimit, error) {
	var rows []models.CreditLimit
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, project_id, resource_id, start_at, amount, created_at
		FROM credit_limits
		WHERE project_id = $1
		ORDER BY resource_id, start_at
	`, projectID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
