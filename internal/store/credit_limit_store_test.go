package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"timebank/internal/models"
)

func TestCreditLimitStoreSetUpserts(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO credit_limits") {
				t.Fatalf("unexpected query: %s", query)
			}
			if !strings.Contains(query, "ON CONFLICT (project_id, resource_id, start_at)") {
				t.Fatalf("repeated start date must overwrite: %s", query)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewCreditLimitStore(stubDB{})
	err := store.Set(ctx, execer, models.CreditLimit{
		ID:         "l1",
		ProjectID:  "p1",
		ResourceID: "r1",
		StartAt:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Amount:     500,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreditLimitStoreEffectiveAtLatestStartWins(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	getter := stubGetter{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "ORDER BY start_at DESC") || !strings.Contains(query, "LIMIT 1") {
				t.Fatalf("effective record must be the latest start: %s", query)
			}
			if !strings.Contains(query, "start_at <= $3") {
				t.Fatalf("future records must not apply: %s", query)
			}
			if len(args) != 3 || args[2] != at {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*int64) = 250
			return nil
		},
	}
	store := NewCreditLimitStore(stubDB{})
	limit, err := store.EffectiveAt(ctx, getter, "p1", "r1", at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if limit != 250 {
		t.Fatalf("unexpected limit: %d", limit)
	}
}

func TestCreditLimitStoreEffectiveAtDefaultsToZero(t *testing.T) {
	ctx := context.Background()
	getter := stubGetter{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			return sql.ErrNoRows
		},
	}
	store := NewCreditLimitStore(stubDB{})
	limit, err := store.EffectiveAt(ctx, getter, "p1", "r1", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if limit != 0 {
		t.Fatalf("absent limit must read as zero, got %d", limit)
	}
}
