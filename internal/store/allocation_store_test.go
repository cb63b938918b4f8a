package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"timebank/internal/models"
)

func TestAllocationStoreCreate(t *testing.T) {
	ctx := context.Background()
	var gotArgs []any
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO allocations") {
				t.Fatalf("unexpected query: %s", query)
			}
			gotArgs = args
			return stubResult{rows: 1}, nil
		},
	}
	store := NewAllocationStore(stubDB{})
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	err := store.Create(ctx, execer, models.Allocation{
		ID:         "a1",
		ProjectID:  "p1",
		ResourceID: "r1",
		Amount:     600,
		StartAt:    start,
		ExpiresAt:  start.AddDate(1, 0, 0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gotArgs) != 7 || gotArgs[0] != "a1" || gotArgs[3] != int64(600) {
		t.Fatalf("unexpected args: %#v", gotArgs)
	}
}

func TestAllocationStoreAvailable(t *testing.T) {
	ctx := context.Background()
	getter := stubGetter{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "FROM allocations a") {
				t.Fatalf("unexpected query: %s", query)
			}
			for _, table := range []string{"holds", "charges", "refunds"} {
				if !strings.Contains(query, table) {
					t.Fatalf("availability must derive from %s: %s", table, query)
				}
			}
			if len(args) != 1 || args[0] != "a1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*int64) = 450
			return nil
		},
	}
	store := NewAllocationStore(stubDB{})
	avail, err := store.Available(ctx, getter, "a1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if avail != 450 {
		t.Fatalf("unexpected availability: %d", avail)
	}
}

func TestAllocationStoreListActiveForUpdateOrdering(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	selecter := stubSelecter{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "ORDER BY expires_at ASC, created_at ASC") {
				t.Fatalf("candidates must come back earliest-expiring first: %s", query)
			}
			if !strings.Contains(query, "FOR UPDATE") {
				t.Fatalf("candidate rows must be locked: %s", query)
			}
			if !strings.Contains(query, "start_at <= $3 AND expires_at > $3") {
				t.Fatalf("activity window wrong: %s", query)
			}
			if len(args) != 3 || args[0] != "p1" || args[1] != "r1" || args[2] != now {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*[]models.Allocation) = []models.Allocation{{ID: "a1"}}
			return nil
		},
	}
	store := NewAllocationStore(stubDB{})
	rows, err := store.ListActiveForUpdate(ctx, selecter, "p1", "r1", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "a1" {
		t.Fatalf("unexpected rows: %#v", rows)
	}
}

func TestAllocationStoreProjectBalance(t *testing.T) {
	ctx := context.Background()
	getter := stubGetter{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "COALESCE(SUM") {
				t.Fatalf("balance must be a SQL aggregate: %s", query)
			}
			*dest.(*int64) = -25
			return nil
		},
	}
	store := NewAllocationStore(stubDB{})
	balance, err := store.ProjectBalance(ctx, getter, "p1", "r1", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance != -25 {
		t.Fatalf("unexpected balance: %d", balance)
	}
}

func TestAllocationStoreListSummariesFilters(t *testing.T) {
	ctx := context.Background()
	store := NewAllocationStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "AND a.project_id = $1") || !strings.Contains(query, "AND a.resource_id = $2") {
				t.Fatalf("filters not applied: %s", query)
			}
			if len(args) != 2 || args[0] != "p1" || args[1] != "r1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return nil
		},
	})
	if _, err := store.ListSummaries(ctx, "p1", "r1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
