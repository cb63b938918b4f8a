package store

import (
	"context"

	"timebank/internal/models"
)

type ChargeStore struct {
	db DB
}

func NewChargeStore(db DB) *ChargeStore {
	return &ChargeStore{db: db}
}

func (s *ChargeStore) Create(ctx context.Context, tx Execer, c models.Charge) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO charges (id, allocation_id, user_id, job_id, amount, comment)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID, c.AllocationID, c.UserID, c.JobID, c.Amount, c.Comment)
	return err
}

func (s *ChargeStore) GetByID(ctx context.Context, q Getter, chargeID string) (models.Charge, error) {
	var row models.Charge
	err := q.GetContext(ctx, &row, `
		SELECT id, allocation_id, user_id, job_id, amount, comment, created_at
		FROM charges
		WHERE id = $1
	`, chargeID)
	if err != nil {
		return models.Charge{}, err
	}
	return row, nil
}

func (s *ChargeStore) GetForUpdate(ctx context.Context, tx Getter, chargeID string) (models.Charge, error) {
	var row models.Charge
	err := tx.GetContext(ctx, &row, `
		SELECT id, allocation_id, user_id, job_id, amount, comment, created_at
		FROM charges
		WHERE id = $1
		FOR UPDATE
	`, chargeID)
	if err != nil {
		return models.Charge{}, err
	}
	return row, nil
}

// EffectiveAmount is the charge amount minus the sum of its refunds.
func (s *ChargeStore) EffectiveAmount(ctx context.Context, q Getter, chargeID string) (int64, error) {
	var amount int64
	err := q.GetContext(ctx, &amount, `
		SELECT c.amount - COALESCE((SELECT SUM(r.amount) FROM refunds r WHERE r.charge_id = c.id), 0)
		FROM charges c
		WHERE c.id = $1
	`, chargeID)
	return amount, err
}

// Delete removes a charge. Reserved for the post-commit credit-limit check
// rolling back the record it just created.
func (s *ChargeStore) Delete(ctx context.Context, tx Execer, chargeID string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM charges WHERE id = $1`, chargeID)
	return err
}

func (s *ChargeStore) ListByAllocation(ctx context.Context, allocationID string) ([]models.Charge, error) {
	var rows []models.Charge
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, allocation_id, user_id, job_id, amount, comment, created_at
		FROM charges
		WHERE allocation_id = $1
		ORDER BY created_at ASC
	`, allocationID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
