package store

import (
	"context"

	"timebank/internal/models"
)

type UserStore struct {
	db DB
}

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, tx Execer, u models.User) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO users (id, name, password_hash, can_request, can_allocate, can_hold, can_charge, can_refund)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, u.ID, u.Name, u.PasswordHash, u.CanRequest, u.CanAllocate, u.CanHold, u.CanCharge, u.CanRefund)
	return err
}

func (s *UserStore) GetByName(ctx context.Context, name string) (models.User, error) {
	var row models.User
	err := s.db.GetContext(ctx, &row, `
		SELECT id, name, password_hash, can_request, can_allocate, can_hold, can_charge, can_refund, created_at
		FROM users
		WHERE name = $1
	`, name)
	if err != nil {
		return models.User{}, err
	}
	return row, nil
}

func (s *UserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	var row models.User
	err := s.db.GetContext(ctx, &row, `
		SELECT id, name, password_hash, can_request, can_allocate, can_hold, can_charge, can_refund, created_at
		FROM users
		WHERE id = $1
	`, userID)
	if err != nil {
		return models.User{}, err
	}
	return row, nil
}

func (s *UserStore) HasAny(ctx context.Context) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users)`)
	return exists, err
}

// SetCapabilities replaces a user's capability flags.
func (s *UserStore) SetCapabilities(ctx context.Context, tx Execer, userID string, canRequest, canAllocate, canHold, canCharge, canRefund bool) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE users
		SET can_request = $1, can_allocate = $2, can_hold = $3, can_charge = $4, can_refund = $5
		WHERE id = $6
	`, canRequest, canAllocate, canHold, canCharge, canRefund, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
