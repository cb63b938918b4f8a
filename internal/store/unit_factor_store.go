package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"timebank/internal/models"
)

type UnitFactorStore struct {
	db DB
}

func NewUnitFactorStore(db DB) *UnitFactorStore {
	return &UnitFactorStore{db: db}
}

func (s *UnitFactorStore) Set(ctx context.Context, tx Execer, f models.UnitFactor) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO unit_factors (id, resource_id, start_at, factor)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (resource_id, start_at) DO UPDATE SET factor = EXCLUDED.factor
	`, f.ID, f.ResourceID, f.StartAt, f.Factor)
	return err
}

// EffectiveAt returns the factor applicable at `at` as its stored decimal
// string. Absence implies "1".
func (s *UnitFactorStore) EffectiveAt(ctx context.Context, q Getter, resourceID string, at time.Time) (string, error) {
	var factor string
	err := q.GetContext(ctx, &factor, `
		SELECT factor
		FROM unit_factors
		WHERE resource_id = $1 AND start_at <= $2
		ORDER BY start_at DESC
		LIMIT 1
	`, resourceID, at)
	if errors.Is(err, sql.ErrNoRows) {
		return "1", nil
	}
	return factor, err
}

func (s *UnitFactorStore) ListByResource(ctx context.Context, resourceID string) ([]models.UnitFactor, error) {
	var rows []models.UnitFactor
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, resource_id, start_at, factor, created_at
		FROM unit_factors
		WHERE resource_id = $1
		ORDER BY start_at
	`, resourceID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
