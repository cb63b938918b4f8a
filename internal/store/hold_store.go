package store

import (
	"context"

	"timebank/internal/models"
)

type HoldStore struct {
	db DB
}

func NewHoldStore(db DB) *HoldStore {
	return &HoldStore{db: db}
}

func (s *HoldStore) Create(ctx context.Context, tx Execer, h models.Hold) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO holds (id, allocation_id, amount, active, comment)
		VALUES ($1, $2, $3, $4, $5)
	`, h.ID, h.AllocationID, h.Amount, h.Active, h.Comment)
	return err
}

func (s *HoldStore) GetByID(ctx context.Context, q Getter, holdID string) (models.Hold, error) {
	var row models.Hold
	err := q.GetContext(ctx, &row, `
		SELECT id, allocation_id, amount, active, comment, created_at
		FROM holds
		WHERE id = $1
	`, holdID)
	if err != nil {
		return models.Hold{}, err
	}
	return row, nil
}

// Deactivate releases a hold. Holds are never deleted on release; the row
// stays for history but stops counting toward balance.
func (s *HoldStore) Deactivate(ctx context.Context, tx Execer, holdID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE holds SET active = FALSE WHERE id = $1 AND active
	`, holdID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes a hold entirely. Only the post-commit validation path uses
// this, to roll back the single record that violated a credit limit.
func (s *HoldStore) Delete(ctx context.Context, tx Execer, holdID string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM holds WHERE id = $1`, holdID)
	return err
}

func (s *HoldStore) ListByAllocation(ctx context.Context, allocationID string, activeOnly bool) ([]models.Hold, error) {
	query := `
		SELECT id, allocation_id, amount, active, comment, created_at
		FROM holds
		WHERE allocation_id = $1
	`
	if activeOnly {
		query += " AND active"
	}
	query += " ORDER BY created_at ASC"
	var rows []models.Hold
	if err := s.db.SelectContext(ctx, &rows, query, allocationID); err != nil {
		return nil, err
	}
	return rows, nil
}
