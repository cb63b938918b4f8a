package store

import (
	"context"

	"timebank/internal/models"
)

type RefundStore struct {
	db DB
}

func NewRefundStore(db DB) *RefundStore {
	return &RefundStore{db: db}
}

func (s *RefundStore) Create(ctx context.Context, tx Execer, r models.Refund) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO refunds (id, charge_id, amount, comment)
		VALUES ($1, $2, $3, $4)
	`, r.ID, r.ChargeID, r.Amount, r.Comment)
	return err
}

func (s *RefundStore) ListByCharge(ctx context.Context, chargeID string) ([]models.Refund, error) {
	var rows []models.Refund
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, charge_id, amount, comment, created_at
		FROM refunds
		WHERE charge_id = $1
		ORDER BY created_at ASC
	`, chargeID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
