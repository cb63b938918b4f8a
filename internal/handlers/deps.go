package handlers

import (
	"context"
	"time"

	"timebank/internal/models"
	"timebank/internal/services"
	"timebank/internal/store"

	"github.com/shopspring/decimal"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, u models.User) error
	GetByName(ctx context.Context, name string) (models.User, error)
	GetByID(ctx context.Context, userID string) (models.User, error)
	HasAny(ctx context.Context) (bool, error)
	SetCapabilities(ctx context.Context, tx store.Execer, userID string, canRequest, canAllocate, canHold, canCharge, canRefund bool) (int64, error)
}

type AllocationReader interface {
	ListSummaries(ctx context.Context, projectID, resourceID string) ([]store.AllocationSummary, error)
	GetByID(ctx context.Context, allocationID string) (models.Allocation, error)
}

type HoldReader interface {
	ListByAllocation(ctx context.Context, allocationID string, activeOnly bool) ([]models.Hold, error)
}

type ChargeReader interface {
	ListByAllocation(ctx context.Context, allocationID string) ([]models.Charge, error)
}

type RefundReader interface {
	ListByCharge(ctx context.Context, chargeID string) ([]models.Refund, error)
}

type CreditLimitReader interface {
	ListByProject(ctx context.Context, projectID string) ([]models.CreditLimit, error)
}

type UnitFactorReader interface {
	ListByResource(ctx context.Context, resourceID string) ([]models.UnitFactor, error)
}

type JobReader interface {
	ListByProject(ctx context.Context, projectID string, limit, offset int) ([]models.Job, error)
}

type AuditReader interface {
	List(ctx context.Context, entityType string, limit, offset int) ([]map[string]any, error)
}

// DirectoryAdmin is the handler's view of the directory cache: name
// resolution plus registration of upstream keys.
type DirectoryAdmin interface {
	ResolveUser(ctx context.Context, name string) (string, error)
	ResolveProject(ctx context.Context, name string) (string, error)
	ResolveResource(ctx context.Context, name string) (string, error)
	RegisterProject(ctx context.Context, tx store.Execer, id, name string) error
	RegisterResource(ctx context.Context, tx store.Execer, id, name string) error
	AddMember(ctx context.Context, tx store.Execer, projectID, userID string, isManager bool) error
}

type LedgerService interface {
	CreateAllocation(ctx context.Context, req services.CreateAllocationRequest) (string, error)
	CreateHold(ctx context.Context, req services.HoldRequest) ([]services.HoldResult, error)
	ReleaseHold(ctx context.Context, actingUserID, holdID string) error
	CreateCharge(ctx context.Context, req services.ChargeRequest) ([]services.ChargeResult, error)
	Refund(ctx context.Context, req services.RefundRequest) (string, error)
	SetCreditLimit(ctx context.Context, req services.SetCreditLimitRequest) (string, error)
	SetUnitFactor(ctx context.Context, req services.SetUnitFactorRequest) (string, error)
	ProjectBalance(ctx context.Context, projectID, resourceID string) (services.Balance, error)
	ResourceFactor(ctx context.Context, resourceID string) (decimal.Decimal, error)
	IngestJob(ctx context.Context, req services.IngestJobRequest) (services.IngestJobResult, error)
	UsageReport(ctx context.Context, actingUserID string, filter store.UsageFilter) (services.UsageReport, error)
}

// timeWindow parses the optional [after, before) query bounds shared by the
// report endpoints.
func timeWindow(after, before string) (*time.Time, *time.Time, error) {
	var afterAt, beforeAt *time.Time
	if after != "" {
		parsed, err := time.Parse(time.RFC3339, after)
		if err != nil {
			return nil, nil, err
		}
		afterAt = &parsed
	}
	if before != "" {
		parsed, err := time.Parse(time.RFC3339, before)
		if err != nil {
			return nil, nil, err
		}
		beforeAt = &parsed
	}
	return afterAt, beforeAt, nil
}
