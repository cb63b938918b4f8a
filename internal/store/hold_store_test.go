package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"timebank/internal/models"
)

func TestHoldStoreCreate(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO holds") {
				t.Fatalf("unexpected query: %s", query)
			}
			if args[3] != true {
				t.Fatalf("hold must be created active: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewHoldStore(stubDB{})
	err := store.Create(ctx, execer, models.Hold{ID: "h1", AllocationID: "a1", Amount: 10, Active: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHoldStoreDeactivate(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "UPDATE holds SET active = FALSE") {
				t.Fatalf("release must update, not delete: %s", query)
			}
			if !strings.Contains(query, "AND active") {
				t.Fatalf("release must only match active holds: %s", query)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewHoldStore(stubDB{})
	released, err := store.Deactivate(ctx, execer, "h1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if released != 1 {
		t.Fatalf("expected 1 row released, got %d", released)
	}
}

func TestHoldStoreDeactivateMiss(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			return stubResult{rows: 0}, nil
		},
	}
	store := NewHoldStore(stubDB{})
	released, err := store.Deactivate(ctx, execer, "gone")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if released != 0 {
		t.Fatalf("expected 0 rows released, got %d", released)
	}
}

func TestHoldStoreDelete(t *testing.T) {
	ctx := context.Background()
	called := false
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "DELETE FROM holds") {
				t.Fatalf("unexpected query: %s", query)
			}
			called = true
			return stubResult{rows: 1}, nil
		},
	}
	store := NewHoldStore(stubDB{})
	if err := store.Delete(ctx, execer, "h1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("delete not executed")
	}
}

func TestHoldStoreListByAllocationActiveOnly(t *testing.T) {
	ctx := context.Background()
	store := NewHoldStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "AND active") {
				t.Fatalf("active filter missing: %s", query)
			}
			return nil
		},
	})
	if _, err := store.ListByAllocation(ctx, "a1", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
