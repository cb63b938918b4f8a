package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"timebank/internal/db"
	"timebank/internal/directory"
	"timebank/internal/models"
	"timebank/internal/store"
	"timebank/internal/units"
	"timebank/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// LedgerService owns every write path into the ledger. Each operation runs
// as one serializable transaction; the validation guard (guard.go) gates
// each record before and after its write.
type LedgerService struct {
	txRunner    db.TxRunner
	db          store.DB
	allocations AllocationStore
	holds       HoldStore
	charges     ChargeStore
	refunds     RefundStore
	limits      CreditLimitStore
	factors     UnitFactorStore
	users       UserStore
	jobs        JobStore
	reports     ReportStore
	audit       AuditStore
	dir         directory.Directory
	hub         BalanceHub
	now         func() time.Time
}

func NewLedgerService(txRunner db.TxRunner, database store.DB, allocations AllocationStore, holds HoldStore, charges ChargeStore, refunds RefundStore, limits CreditLimitStore, factors UnitFactorStore, users UserStore, jobs JobStore, reports ReportStore, audit AuditStore, dir directory.Directory, hub BalanceHub) *LedgerService {
	return &LedgerService{
		txRunner:    txRunner,
		db:          database,
		allocations: allocations,
		holds:       holds,
		charges:     charges,
		refunds:     refunds,
		limits:      limits,
		factors:     factors,
		users:       users,
		jobs:        jobs,
		reports:     reports,
		audit:       audit,
		dir:         dir,
		hub:         hub,
		now:         time.Now,
	}
}

type CreateAllocationRequest struct {
	ActingUserID string
	ProjectID    string
	ResourceID   string
	Amount       int64
	StartAt      time.Time
	ExpiresAt    time.Time
	Comment      string
}

func (s *LedgerService) CreateAllocation(ctx context.Context, req CreateAllocationRequest) (string, error) {
	user, err := s.getUser(ctx, req.ActingUserID)
	if err != nil {
		return "", err
	}
	if err := s.validateBefore(ctx, proposal{kind: kindAllocation, user: user, projectID: req.ProjectID, amount: req.Amount}); err != nil {
		return "", err
	}
	if !req.ExpiresAt.After(req.StartAt) {
		return "", fmt.Errorf("%w: allocation expires at or before its start", ErrInvalidValue)
	}
	allocationID := uuid.NewString()
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.allocations.Create(ctx, tx, models.Allocation{
			ID:         allocationID,
			ProjectID:  req.ProjectID,
			ResourceID: req.ResourceID,
			Amount:     req.Amount,
			StartAt:    req.StartAt,
			ExpiresAt:  req.ExpiresAt,
			Comment:    req.Comment,
		}); err != nil {
			return err
		}
		return s.logAudit(ctx, tx, req.ActingUserID, "allocation.create", "allocation", allocationID, map[string]any{
			"project_id":  req.ProjectID,
			"resource_id": req.ResourceID,
			"amount":      req.Amount,
		})
	})
	if err != nil {
		return "", err
	}
	return allocationID, nil
}

type HoldRequest struct {
	ActingUserID  string
	AllocationID  string // when set, the distribution engine is bypassed
	ProjectID     string
	ResourceID    string
	Amount        int64
	AllowNegative bool
	Comment       string
}

type HoldResult struct {
	HoldID       string `json:"hold_id"`
	AllocationID string `json:"allocation_id"`
	Amount       int64  `json:"amount"`
}

// CreateHold reserves capacity, either against one explicit allocation or
// spread across a (project, resource) pair's active allocations. In a
// distribution, a credit-limit failure on record k removes only record k;
// earlier records in the same call stay committed and are returned along
// with the error.
func (s *LedgerService) CreateHold(ctx context.Context, req HoldRequest) ([]HoldResult, error) {
	user, err := s.getUser(ctx, req.ActingUserID)
	if err != nil {
		return nil, err
	}
	projectID, resourceID := req.ProjectID, req.ResourceID
	if req.AllocationID != "" {
		alloc, err := s.getAllocation(ctx, req.AllocationID)
		if err != nil {
			return nil, err
		}
		projectID, resourceID = alloc.ProjectID, alloc.ResourceID
	}
	if err := s.validateBefore(ctx, proposal{kind: kindHold, user: user, projectID: projectID, amount: req.Amount}); err != nil {
		return nil, err
	}

	var results []HoldResult
	var failure error
	writeHold := func(tx *sqlx.Tx, asg Assignment) (string, func() error, error) {
		hold := models.Hold{
			ID:           uuid.NewString(),
			AllocationID: asg.AllocationID,
			Amount:       asg.Amount,
			Active:       true,
			Comment:      req.Comment,
		}
		if err := s.holds.Create(ctx, tx, hold); err != nil {
			return "", nil, err
		}
		return hold.ID, func() error { return s.holds.Delete(ctx, tx, hold.ID) }, nil
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var records []committedRecord
		var err error
		if req.AllocationID != "" {
			records, failure, err = s.writeExplicit(ctx, tx, req.AllocationID, req.Amount, req.AllowNegative, func(asg Assignment) (string, func() error, error) {
				return writeHold(tx, asg)
			})
		} else {
			records, failure, err = s.writeDistributed(ctx, tx, projectID, resourceID, req.Amount, func(asg Assignment) (string, func() error, error) {
				return writeHold(tx, asg)
			})
		}
		if err != nil {
			return err
		}
		for _, rec := range records {
			if err := s.logAudit(ctx, tx, req.ActingUserID, "hold.create", "hold", rec.ID, map[string]any{
				"allocation_id": rec.AllocationID,
				"amount":        rec.Amount,
			}); err != nil {
				return err
			}
			results = append(results, HoldResult{HoldID: rec.ID, AllocationID: rec.AllocationID, Amount: rec.Amount})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.broadcastBalance(ctx, projectID, resourceID)
	if failure != nil {
		return results, failure
	}
	return results, nil
}

// ReleaseHold deactivates a hold. The row stays for history.
func (s *LedgerService) ReleaseHold(ctx context.Context, actingUserID, holdID string) error {
	user, err := s.getUser(ctx, actingUserID)
	if err != nil {
		return err
	}
	hold, err := s.holds.GetByID(ctx, s.db, holdID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: hold %s", ErrNotFound, holdID)
	}
	if err != nil {
		return err
	}
	alloc, err := s.getAllocation(ctx, hold.AllocationID)
	if err != nil {
		return err
	}
	if err := s.validateBefore(ctx, proposal{kind: kindHold, user: user, projectID: alloc.ProjectID}); err != nil {
		return err
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		released, err := s.holds.Deactivate(ctx, tx, holdID)
		if err != nil {
			return err
		}
		if released == 0 {
			return fmt.Errorf("%w: hold %s is not active", ErrInvalidValue, holdID)
		}
		return s.logAudit(ctx, tx, actingUserID, "hold.release", "hold", holdID, map[string]any{
			"allocation_id": hold.AllocationID,
		})
	})
	if err != nil {
		return err
	}
	s.broadcastBalance(ctx, alloc.ProjectID, alloc.ResourceID)
	return nil
}

type ChargeRequest struct {
	ActingUserID  string
	AllocationID  string // when set, the distribution engine is bypassed
	HoldID        string // when set, the hold is superseded by this charge
	ProjectID     string
	ResourceID    string
	UserID        *string // user the consumption is attributed to
	JobRecordID   *string
	Amount        int64
	AllowNegative bool
	Comment       string
}

type ChargeResult struct {
	ChargeID     string `json:"charge_id"`
	AllocationID string `json:"allocation_id"`
	Amount       int64  `json:"amount"`
}

// CreateCharge finalizes consumption. A charge created against a hold
// deactivates the hold first, so the reserved capacity is what the charge
// draws on.
func (s *LedgerService) CreateCharge(ctx context.Context, req ChargeRequest) ([]ChargeResult, error) {
	user, err := s.getUser(ctx, req.ActingUserID)
	if err != nil {
		return nil, err
	}
	allocationID := req.AllocationID
	if req.HoldID != "" {
		hold, err := s.holds.GetByID(ctx, s.db, req.HoldID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: hold %s", ErrNotFound, req.HoldID)
		}
		if err != nil {
			return nil, err
		}
		if allocationID == "" {
			allocationID = hold.AllocationID
		} else if allocationID != hold.AllocationID {
			return nil, fmt.Errorf("%w: hold %s does not belong to allocation %s", ErrInvalidValue, req.HoldID, allocationID)
		}
	}
	projectID, resourceID := req.ProjectID, req.ResourceID
	if allocationID != "" {
		alloc, err := s.getAllocation(ctx, allocationID)
		if err != nil {
			return nil, err
		}
		projectID, resourceID = alloc.ProjectID, alloc.ResourceID
	}
	if err := s.validateBefore(ctx, proposal{kind: kindCharge, user: user, projectID: projectID, amount: req.Amount}); err != nil {
		return nil, err
	}
	chargedUser := req.UserID
	if chargedUser == nil {
		chargedUser = &user.ID
	}

	var results []ChargeResult
	var failure error
	writeCharge := func(tx *sqlx.Tx, asg Assignment) (string, func() error, error) {
		charge := models.Charge{
			ID:           uuid.NewString(),
			AllocationID: asg.AllocationID,
			UserID:       chargedUser,
			JobID:        req.JobRecordID,
			Amount:       asg.Amount,
			Comment:      req.Comment,
		}
		if err := s.charges.Create(ctx, tx, charge); err != nil {
			return "", nil, err
		}
		return charge.ID, func() error { return s.charges.Delete(ctx, tx, charge.ID) }, nil
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if req.HoldID != "" {
			superseded, err := s.holds.Deactivate(ctx, tx, req.HoldID)
			if err != nil {
				return err
			}
			if superseded == 0 {
				return fmt.Errorf("%w: hold %s is not active", ErrInvalidValue, req.HoldID)
			}
		}
		var records []committedRecord
		var err error
		if allocationID != "" {
			records, failure, err = s.writeExplicit(ctx, tx, allocationID, req.Amount, req.AllowNegative, func(asg Assignment) (string, func() error, error) {
				return writeCharge(tx, asg)
			})
		} else {
			records, failure, err = s.writeDistributed(ctx, tx, projectID, resourceID, req.Amount, func(asg Assignment) (string, func() error, error) {
				return writeCharge(tx, asg)
			})
		}
		if err != nil {
			return err
		}
		for _, rec := range records {
			if err := s.logAudit(ctx, tx, req.ActingUserID, "charge.create", "charge", rec.ID, map[string]any{
				"allocation_id": rec.AllocationID,
				"amount":        rec.Amount,
			}); err != nil {
				return err
			}
			results = append(results, ChargeResult{ChargeID: rec.ID, AllocationID: rec.AllocationID, Amount: rec.Amount})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.broadcastBalance(ctx, projectID, resourceID)
	if failure != nil {
		return results, failure
	}
	return results, nil
}

type RefundRequest struct {
	ActingUserID string
	ChargeID     string
	Amount       int64
	Comment      string
}

// Refund reverses part of a charge. The refund may never push the charge's
// effective amount below zero; that bound is checked against the charge row
// locked in the same transaction, so concurrent refunds cannot jointly
// exceed it.
func (s *LedgerService) Refund(ctx context.Context, req RefundRequest) (string, error) {
	user, err := s.getUser(ctx, req.ActingUserID)
	if err != nil {
		return "", err
	}
	refundID := uuid.NewString()
	var projectID, resourceID string
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		charge, err := s.charges.GetForUpdate(ctx, tx, req.ChargeID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: charge %s", ErrNotFound, req.ChargeID)
		}
		if err != nil {
			return err
		}
		alloc, err := s.getAllocation(ctx, charge.AllocationID)
		if err != nil {
			return err
		}
		projectID, resourceID = alloc.ProjectID, alloc.ResourceID
		if err := s.validateBefore(ctx, proposal{kind: kindRefund, user: user, projectID: alloc.ProjectID, amount: req.Amount}); err != nil {
			return err
		}
		effective, err := s.charges.EffectiveAmount(ctx, tx, req.ChargeID)
		if err != nil {
			return err
		}
		if req.Amount > effective {
			return fmt.Errorf("%w: refund of %d exceeds charge %s effective amount %d", ErrInvalidValue, req.Amount, req.ChargeID, effective)
		}
		if err := s.refunds.Create(ctx, tx, models.Refund{
			ID:       refundID,
			ChargeID: req.ChargeID,
			Amount:   req.Amount,
			Comment:  req.Comment,
		}); err != nil {
			return err
		}
		return s.logAudit(ctx, tx, req.ActingUserID, "refund.create", "refund", refundID, map[string]any{
			"charge_id": req.ChargeID,
			"amount":    req.Amount,
		})
	})
	if err != nil {
		return "", err
	}
	s.broadcastBalance(ctx, projectID, resourceID)
	return refundID, nil
}

type SetCreditLimitRequest struct {
	ActingUserID string
	ProjectID    string
	ResourceID   string
	StartAt      time.Time
	Amount       int64
}

func (s *LedgerService) SetCreditLimit(ctx context.Context, req SetCreditLimitRequest) (string, error) {
	user, err := s.getUser(ctx, req.ActingUserID)
	if err != nil {
		return "", err
	}
	if err := s.validateBefore(ctx, proposal{kind: kindCreditLimit, user: user, projectID: req.ProjectID, amount: req.Amount}); err != nil {
		return "", err
	}
	limitID := uuid.NewString()
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.limits.Set(ctx, tx, models.CreditLimit{
			ID:         limitID,
			ProjectID:  req.ProjectID,
			ResourceID: req.ResourceID,
			StartAt:    req.StartAt,
			Amount:     req.Amount,
		}); err != nil {
			return err
		}
		return s.logAudit(ctx, tx, req.ActingUserID, "credit_limit.set", "credit_limit", limitID, map[string]any{
			"project_id":  req.ProjectID,
			"resource_id": req.ResourceID,
			"amount":      req.Amount,
		})
	})
	if err != nil {
		return "", err
	}
	return limitID, nil
}

type SetUnitFactorRequest struct {
	ActingUserID string
	ResourceID   string
	StartAt      time.Time
	Factor       string
}

func (s *LedgerService) SetUnitFactor(ctx context.Context, req SetUnitFactorRequest) (string, error) {
	user, err := s.getUser(ctx, req.ActingUserID)
	if err != nil {
		return "", err
	}
	if err := s.validateBefore(ctx, proposal{kind: kindUnitFactor, user: user}); err != nil {
		return "", err
	}
	factor, err := units.ParseFactor(req.Factor)
	if err != nil {
		return "", fmt.Errorf("%w: unit factor %q", ErrInvalidValue, req.Factor)
	}
	factorID := uuid.NewString()
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.factors.Set(ctx, tx, models.UnitFactor{
			ID:         factorID,
			ResourceID: req.ResourceID,
			StartAt:    req.StartAt,
			Factor:     factor.String(),
		}); err != nil {
			return err
		}
		return s.logAudit(ctx, tx, req.ActingUserID, "unit_factor.set", "unit_factor", factorID, map[string]any{
			"resource_id": req.ResourceID,
			"factor":      factor.String(),
		})
	})
	if err != nil {
		return "", err
	}
	return factorID, nil
}

// Balance is a project's standing on one resource. Balance sums
// amount_available over active allocations and may be negative; credit
// fields derive from the effective limit.
type Balance struct {
	ProjectID       string `json:"project_id"`
	ResourceID      string `json:"resource_id"`
	Balance         int64  `json:"balance"`
	CreditLimit     int64  `json:"credit_limit"`
	CreditUsed      int64  `json:"credit_used"`
	CreditAvailable int64  `json:"credit_available"`
}

// ProjectBalance never fails for an empty ledger; a project with no records
// reports zeros.
func (s *LedgerService) ProjectBalance(ctx context.Context, projectID, resourceID string) (Balance, error) {
	now := s.now()
	balance, err := s.allocations.ProjectBalance(ctx, s.db, projectID, resourceID, now)
	if err != nil {
		return Balance{}, err
	}
	limit, err := s.limits.EffectiveAt(ctx, s.db, projectID, resourceID, now)
	if err != nil {
		return Balance{}, err
	}
	creditUsed := int64(0)
	if balance < 0 {
		creditUsed = -balance
	}
	return Balance{
		ProjectID:       projectID,
		ResourceID:      resourceID,
		Balance:         balance,
		CreditLimit:     limit,
		CreditUsed:      creditUsed,
		CreditAvailable: limit - creditUsed,
	}, nil
}

// ResourceFactor returns the resource's effective unit factor at the
// current time, for display conversion.
func (s *LedgerService) ResourceFactor(ctx context.Context, resourceID string) (decimal.Decimal, error) {
	raw, err := s.factors.EffectiveAt(ctx, s.db, resourceID, s.now())
	if err != nil {
		return decimal.Decimal{}, err
	}
	return units.ParseFactor(raw)
}

type IngestJobRequest struct {
	ActingUserID string
	JobID        string
	UserID       *string
	ProjectID    string
	ResourceID   string
	AllocationID string // optional pre-selected allocation
	AmountUsed   int64
	StartedAt    *time.Time
	EndedAt      *time.Time
}

type IngestJobResult struct {
	JobRecordID string         `json:"job_record_id"`
	Charges     []ChargeResult `json:"charges"`
}

// IngestJob records one batch accounting entry and charges its usage,
// through the distribution engine unless the feed pre-selected an
// allocation. The job row and its charges commit together.
func (s *LedgerService) IngestJob(ctx context.Context, req IngestJobRequest) (IngestJobResult, error) {
	user, err := s.getUser(ctx, req.ActingUserID)
	if err != nil {
		return IngestJobResult{}, err
	}
	if err := s.validateBefore(ctx, proposal{kind: kindCharge, user: user, projectID: req.ProjectID, amount: req.AmountUsed}); err != nil {
		return IngestJobResult{}, err
	}
	// The feed retries; the same scheduler record must not charge twice.
	if _, err := s.jobs.GetByJobID(ctx, req.JobID); err == nil {
		return IngestJobResult{}, fmt.Errorf("%w: job %s already ingested", ErrInvalidValue, req.JobID)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return IngestJobResult{}, err
	}
	chargedUser := req.UserID
	if chargedUser == nil {
		chargedUser = &user.ID
	}
	jobRecordID := uuid.NewString()
	var results []ChargeResult
	var failure error
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.jobs.Create(ctx, tx, models.Job{
			ID:         jobRecordID,
			JobID:      req.JobID,
			UserID:     req.UserID,
			ProjectID:  req.ProjectID,
			ResourceID: req.ResourceID,
			AmountUsed: req.AmountUsed,
			StartedAt:  req.StartedAt,
			EndedAt:    req.EndedAt,
		}); err != nil {
			return err
		}
		writeCharge := func(asg Assignment) (string, func() error, error) {
			charge := models.Charge{
				ID:           uuid.NewString(),
				AllocationID: asg.AllocationID,
				UserID:       chargedUser,
				JobID:        &jobRecordID,
				Amount:       asg.Amount,
				Comment:      "job " + req.JobID,
			}
			if err := s.charges.Create(ctx, tx, charge); err != nil {
				return "", nil, err
			}
			return charge.ID, func() error { return s.charges.Delete(ctx, tx, charge.ID) }, nil
		}
		var records []committedRecord
		var err error
		if req.AllocationID != "" {
			records, failure, err = s.writeExplicit(ctx, tx, req.AllocationID, req.AmountUsed, true, writeCharge)
		} else {
			records, failure, err = s.writeDistributed(ctx, tx, req.ProjectID, req.ResourceID, req.AmountUsed, writeCharge)
		}
		if err != nil {
			return err
		}
		for _, rec := range records {
			if err := s.logAudit(ctx, tx, req.ActingUserID, "job.charge", "charge", rec.ID, map[string]any{
				"job_id":        req.JobID,
				"allocation_id": rec.AllocationID,
				"amount":        rec.Amount,
			}); err != nil {
				return err
			}
			results = append(results, ChargeResult{ChargeID: rec.ID, AllocationID: rec.AllocationID, Amount: rec.Amount})
		}
		return nil
	})
	if err != nil {
		return IngestJobResult{}, err
	}
	s.broadcastBalance(ctx, req.ProjectID, req.ResourceID)
	if failure != nil {
		return IngestJobResult{JobRecordID: jobRecordID, Charges: results}, failure
	}
	return IngestJobResult{JobRecordID: jobRecordID, Charges: results}, nil
}

// UsageReport rolls up charge counts, effective consumption, and remaining
// allocation for the reporting layer.
type UsageReport struct {
	Charges   []store.ChargeSummary    `json:"charges"`
	Available []store.AvailableSummary `json:"available"`
}

func (s *LedgerService) UsageReport(ctx context.Context, actingUserID string, filter store.UsageFilter) (UsageReport, error) {
	user, err := s.getUser(ctx, actingUserID)
	if err != nil {
		return UsageReport{}, err
	}
	if !user.CanRequest {
		return UsageReport{}, fmt.Errorf("%w: user %s may not query usage", ErrNotPermitted, user.ID)
	}
	charges, err := s.reports.SummarizeCharges(ctx, filter)
	if err != nil {
		return UsageReport{}, err
	}
	available, err := s.reports.SummarizeAvailable(ctx, filter, s.now())
	if err != nil {
		return UsageReport{}, err
	}
	return UsageReport{Charges: charges, Available: available}, nil
}

type committedRecord struct {
	Assignment
	ID string
}

type recordWriter func(asg Assignment) (string, func() error, error)

// writeDistributed runs the distribution walk inside tx: lock candidates in
// deterministic order, read availability per candidate, assign, and write
// one record per assignment through the post-check. A credit-limit failure
// on one record is returned as the middle value after its undo; records
// already written stay.
func (s *LedgerService) writeDistributed(ctx context.Context, tx store.Tx, projectID, resourceID string, amount int64, write recordWriter) ([]committedRecord, error, error) {
	allocs, err := s.allocations.ListActiveForUpdate(ctx, tx, projectID, resourceID, s.now())
	if err != nil {
		return nil, nil, err
	}
	candidates := make([]Candidate, 0, len(allocs))
	for _, alloc := range allocs {
		avail, err := s.allocations.Available(ctx, tx, alloc.ID)
		if err != nil {
			return nil, nil, err
		}
		candidates = append(candidates, Candidate{AllocationID: alloc.ID, Available: avail})
	}
	assignments, err := Distribute(amount, candidates)
	if err != nil {
		return nil, nil, err
	}
	return s.applyAssignments(ctx, tx, projectID, resourceID, assignments, write)
}

// writeExplicit targets one allocation directly, bypassing distribution.
// Unless allowNegative is set, the amount may not exceed the allocation's
// availability as read under the row lock.
func (s *LedgerService) writeExplicit(ctx context.Context, tx store.Tx, allocationID string, amount int64, allowNegative bool, write recordWriter) ([]committedRecord, error, error) {
	alloc, err := s.allocations.GetForUpdate(ctx, tx, allocationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: allocation %s", ErrNotFound, allocationID)
	}
	if err != nil {
		return nil, nil, err
	}
	avail, err := s.allocations.Available(ctx, tx, allocationID)
	if err != nil {
		return nil, nil, err
	}
	if !allowNegative && amount > avail {
		return nil, nil, fmt.Errorf("%w: amount %d exceeds allocation %s available %d", ErrInvalidValue, amount, allocationID, avail)
	}
	assignments := []Assignment{{AllocationID: allocationID, Amount: amount, Overdraft: amount > avail}}
	return s.applyAssignments(ctx, tx, alloc.ProjectID, alloc.ResourceID, assignments, write)
}

func (s *LedgerService) applyAssignments(ctx context.Context, tx store.Tx, projectID, resourceID string, assignments []Assignment, write recordWriter) ([]committedRecord, error, error) {
	var records []committedRecord
	for _, asg := range assignments {
		id, undo, err := write(asg)
		if err != nil {
			return nil, nil, err
		}
		if err := s.validateAfter(ctx, tx, projectID, resourceID, undo); err != nil {
			if errors.Is(err, ErrInsufficientFunds) {
				return records, err, nil
			}
			return nil, nil, err
		}
		records = append(records, committedRecord{Assignment: asg, ID: id})
	}
	return records, nil, nil
}

func (s *LedgerService) getUser(ctx context.Context, userID string) (models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *LedgerService) getAllocation(ctx context.Context, allocationID string) (models.Allocation, error) {
	alloc, err := s.allocations.GetByID(ctx, allocationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Allocation{}, fmt.Errorf("%w: allocation %s", ErrNotFound, allocationID)
	}
	if err != nil {
		return models.Allocation{}, err
	}
	return alloc, nil
}

func (s *LedgerService) logAudit(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID string, data map[string]any) error {
	payload, _ := json.Marshal(data)
	return s.audit.Log(ctx, tx, actorID, action, entityType, entityID, string(payload))
}

func (s *LedgerService) broadcastBalance(ctx context.Context, projectID, resourceID string) {
	if projectID == "" || resourceID == "" {
		return
	}
	balance, err := s.allocations.ProjectBalance(ctx, s.db, projectID, resourceID, s.now())
	if err != nil {
		return
	}
	s.hub.BroadcastBalance(projectID, websocket.BalanceUpdate{
		ProjectID:  projectID,
		ResourceID: resourceID,
		Balance:    balance,
	})
}
