package store

import (
	"context"

	"timebank/internal/models"
)

type JobStore struct {
	db DB
}

func NewJobStore(db DB) *JobStore {
	return &JobStore{db: db}
}

func (s *JobStore) Create(ctx context.Context, tx Execer, j models.Job) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO jobs (id, job_id, user_id, project_id, resource_id, amount_used, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, j.ID, j.JobID, j.UserID, j.ProjectID, j.ResourceID, j.AmountUsed, j.StartedAt, j.EndedAt)
	return err
}

func (s *JobStore) GetByJobID(ctx context.Context, jobID string) (models.Job, error) {
	var row models.Job
	err := s.db.GetContext(ctx, &row, `
		SELECT id, job_id, user_id, project_id, resource_id, amount_used, started_at, ended_at, created_at
		FROM jobs
		WHERE job_id = $1
	`, jobID)
	if err != nil {
		return models.Job{}, err
	}
	return row, nil
}

func (s *JobStore) ListByProject(ctx context.Context, projectID string, limit, offset int) ([]models.Job, error) {
	var rows []models.Job
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, job_id, user_id, project_id, resource_id, amount_used, started_at, ended_at, created_at
		FROM jobs
		WHERE project_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, projectID, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
