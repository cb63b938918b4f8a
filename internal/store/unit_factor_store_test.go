package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"timebank/internal/models"
)

func TestUnitFactorStoreSetUpserts(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "ON CONFLICT (resource_id, start_at)") {
				t.Fatalf("repeated start date must overwrite: %s", query)
			}
			if args[3] != "0.5" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewUnitFactorStore(stubDB{})
	err := store.Set(ctx, execer, models.UnitFactor{
		ID:         "f1",
		ResourceID: "r1",
		StartAt:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Factor:     "0.5",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUnitFactorStoreEffectiveAt(t *testing.T) {
	ctx := context.Background()
	getter := stubGetter{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "ORDER BY start_at DESC") {
				t.Fatalf("effective record must be the latest start: %s", query)
			}
			*dest.(*string) = "0.25"
			return nil
		},
	}
	store := NewUnitFactorStore(stubDB{})
	factor, err := store.EffectiveAt(ctx, getter, "r1", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if factor != "0.25" {
		t.Fatalf("unexpected factor: %s", factor)
	}
}

func TestUnitFactorStoreEffectiveAtDefaultsToOne(t *testing.T) {
	ctx := context.Background()
	getter := stubGetter{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			return sql.ErrNoRows
		},
	}
	store := NewUnitFactorStore(stubDB{})
	factor, err := store.EffectiveAt(ctx, getter, "r1", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if factor != "1" {
		t.Fatalf("absent factor must read as 1, got %s", factor)
	}
}
