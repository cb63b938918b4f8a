package directory

import (
	"context"
	"database/sql"
	"errors"

	"timebank/internal/store"
)

// SQLDirectory serves directory lookups from locally cached key tables.
// Rows land here when an upstream sync (or an administrative call) registers
// a project, resource, or membership; the ledger itself only reads them.
type SQLDirectory struct {
	db store.DB
}

func NewSQLDirectory(db store.DB) *SQLDirectory {
	return &SQLDirectory{db: db}
}

func (d *SQLDirectory) ResolveUser(ctx context.Context, name string) (string, error) {
	return d.resolve(ctx, `SELECT id FROM users WHERE name = $1`, name)
}

func (d *SQLDirectory) ResolveProject(ctx context.Context, name string) (string, error) {
	return d.resolve(ctx, `SELECT id FROM projects WHERE name = $1`, name)
}

func (d *SQLDirectory) ResolveResource(ctx context.Context, name string) (string, error) {
	return d.resolve(ctx, `SELECT id FROM resources WHERE name = $1`, name)
}

func (d *SQLDirectory) resolve(ctx context.Context, query, name string) (string, error) {
	var id string
	err := d.db.GetContext(ctx, &id, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

func (d *SQLDirectory) IsMember(ctx context.Context, projectID, userID string) (bool, error) {
	var exists bool
	err := d.db.GetContext(ctx, &exists, `
		SELECT EXISTS(SELECT 1 FROM project_members WHERE project_id = $1 AND user_id = $2)
	`, projectID, userID)
	return exists, err
}

func (d *SQLDirectory) IsManager(ctx context.Context, projectID, userID string) (bool, error) {
	var exists bool
	err := d.db.GetContext(ctx, &exists, `
		SELECT EXISTS(SELECT 1 FROM project_members WHERE project_id = $1 AND user_id = $2 AND is_manager)
	`, projectID, userID)
	return exists, err
}

// RegisterProject caches an upstream project key locally.
func (d *SQLDirectory) RegisterProject(ctx context.Context, tx store.Execer, id, name string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO projects (id, name) VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING
	`, id, name)
	return err
}

// RegisterResource caches an upstream resource key locally.
func (d *SQLDirectory) RegisterResource(ctx context.Context, tx store.Execer, id, name string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO resources (id, name) VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING
	`, id, name)
	return err
}

// AddMember records a membership fact from upstream.
func (d *SQLDirectory) AddMember(ctx context.Context, tx store.Execer, projectID, userID string, isManager bool) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO project_members (project_id, user_id, is_manager)
		VALUES ($1, $2, $3)
		ON CONFLICT (project_id, user_id) DO UPDATE SET is_manager = EXCLUDED.is_manager
	`, projectID, userID, isManager)
	return err
}
