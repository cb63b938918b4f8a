package services

import (
	"context"
	"time"

	"timebank/internal/models"
	"timebank/internal/store"
	"timebank/internal/websocket"
)

// Store dependencies are declared here, consumer-side, so the service can
// be exercised against stubs without a live database.

type AllocationStore interface {
	Create(ctx context.Context, tx store.Execer, a models.Allocation) error
	GetByID(ctx context.Context, allocationID string) (models.Allocation, error)
	GetForUpdate(ctx context.Context, tx store.Getter, allocationID string) (models.Allocation, error)
	Available(ctx context.Context, q store.Getter, allocationID string) (int64, error)
	ListActiveForUpdate(ctx context.Context, tx store.Selecter, projectID, resourceID string, now time.Time) ([]models.Allocation, error)
	ProjectBalance(ctx context.Context, q store.Getter, projectID, resourceID string, now time.Time) (int64, error)
}

type HoldStore interface {
	Create(ctx context.Context, tx store.Execer, h models.Hold) error
	GetByID(ctx context.Context, q store.Getter, holdID string) (models.Hold, error)
	Deactivate(ctx context.Context, tx store.Execer, holdID string) (int64, error)
	Delete(ctx context.Context, tx store.Execer, holdID string) error
}

type ChargeStore interface {
	Create(ctx context.Context, tx store.Execer, c models.Charge) error
	GetForUpdate(ctx context.Context, tx store.Getter, chargeID string) (models.Charge, error)
	EffectiveAmount(ctx context.Context, q store.Getter, chargeID string) (int64, error)
	Delete(ctx context.Context, tx store.Execer, chargeID string) error
}

type RefundStore interface {
	Create(ctx context.Context, tx store.Execer, r models.Refund) error
}

type CreditLimitStore interface {
	Set(ctx context.Context, tx store.Execer, l models.CreditLimit) error
	EffectiveAt(ctx context.Context, q store.Getter, projectID, resourceID string, at time.Time) (int64, error)
}

type UnitFactorStore interface {
	Set(ctx context.Context, tx store.Execer, f models.UnitFactor) error
	EffectiveAt(ctx context.Context, q store.Getter, resourceID string, at time.Time) (string, error)
}

type UserStore interface {
	GetByID(ctx context.Context, userID string) (models.User, error)
}

type JobStore interface {
	Create(ctx context.Context, tx store.Execer, j models.Job) error
	GetByJobID(ctx context.Context, jobID string) (models.Job, error)
}

type ReportStore interface {
	SummarizeCharges(ctx context.Context, filter store.UsageFilter) ([]store.ChargeSummary, error)
	SummarizeAvailable(ctx context.Context, filter store.UsageFilter, now time.Time) ([]store.AvailableSummary, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

type BalanceHub interface {
	BroadcastBalance(projectID string, update websocket.BalanceUpdate)
}
