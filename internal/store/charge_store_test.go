package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"timebank/internal/models"
)

func TestChargeStoreCreate(t *testing.T) {
	ctx := context.Background()
	userID := "u1"
	var gotArgs []any
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO charges") {
				t.Fatalf("unexpected query: %s", query)
			}
			gotArgs = args
			return stubResult{rows: 1}, nil
		},
	}
	store := NewChargeStore(stubDB{})
	err := store.Create(ctx, execer, models.Charge{
		ID:           "c1",
		AllocationID: "a1",
		UserID:       &userID,
		Amount:       75,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gotArgs) != 6 || gotArgs[0] != "c1" || gotArgs[1] != "a1" {
		t.Fatalf("unexpected args: %#v", gotArgs)
	}
}

func TestChargeStoreEffectiveAmount(t *testing.T) {
	ctx := context.Background()
	getter := stubGetter{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "refunds") {
				t.Fatalf("effective amount must subtract refunds: %s", query)
			}
			if len(args) != 1 || args[0] != "c1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*int64) = 40
			return nil
		},
	}
	store := NewChargeStore(stubDB{})
	amount, err := store.EffectiveAmount(ctx, getter, "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount != 40 {
		t.Fatalf("unexpected amount: %d", amount)
	}
}

func TestChargeStoreGetForUpdateLocks(t *testing.T) {
	ctx := context.Background()
	getter := stubGetter{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "FOR UPDATE") {
				t.Fatalf("charge row must be locked: %s", query)
			}
			*dest.(*models.Charge) = models.Charge{ID: "c1", AllocationID: "a1", Amount: 100}
			return nil
		},
	}
	store := NewChargeStore(stubDB{})
	charge, err := store.GetForUpdate(ctx, getter, "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if charge.ID != "c1" || charge.Amount != 100 {
		t.Fatalf("unexpected charge: %#v", charge)
	}
}
