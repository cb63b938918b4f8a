package store

import "context"

// AuditStore records every ledger mutation. Rows are append-only; nothing
// updates or deletes them.
type AuditStore struct {
	db DB
}

type auditRow struct {
	ID          string  `db:"id"`
	ActorUserID *string `db:"actor_user_id"`
	Action      string  `db:"action"`
	EntityType  string  `db:"entity_type"`
	EntityID    string  `db:"entity_id"`
	Data        string  `db:"data"`
	CreatedAt   any     `db:"created_at"`
}

func NewAuditStore(db DB) *AuditStore {
	return &AuditStore{db: db}
}

func (s *AuditStore) Log(ctx context.Context, tx Execer, actorID, action, entityType, entityID, data string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_user_id, action, entity_type, entity_id, data)
		VALUES (gen_random_uuid()::text, $1, $2, $3, $4, $5)
	`, actorID, action, entityType, entityID, data)
	return err
}

// List returns the newest entries first. entityType narrows the trail to one
// record kind (hold, charge, refund, allocation, credit_limit, unit_factor);
// empty means everything.
func (s *AuditStore) List(ctx context.Context, entityType string, limit, offset int) ([]map[string]any, error) {
	query := `
		SELECT id, actor_user_id, action, entity_type, entity_id, data, created_at
		FROM audit_logs
	`
	args := []any{limit, offset}
	if entityType != "" {
		query += ` WHERE entity_type = $3`
		args = append(args, entityType)
	}
	query += `
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	var rows []auditRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	logs := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		logs = append(logs, map[string]any{
			"id":            row.ID,
			"actor_user_id": derefStringPtr(row.ActorUserID),
			"action":        row.Action,
			"entity_type":   row.EntityType,
			"entity_id":     row.EntityID,
			"data":          row.Data,
			"created_at":    row.CreatedAt,
		})
	}
	return logs, nil
}
