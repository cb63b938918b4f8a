package services

import (
	"context"
	"fmt"

	"timebank/internal/models"
	"timebank/internal/store"
)

// The validation guard gates every ledger mutation in two phases. Pre-checks
// run before any write is issued: capability flag, project membership, and
// value bounds. The post-check runs after the write lands, still inside the
// transaction: it recomputes the project's credit use on the affected
// resource, and if the limit is now exceeded it undoes the single write
// that caused it. The credit constraint is a property of the whole
// project/resource balance, so it cannot be validated from the new record's
// own fields.

type recordKind int

const (
	kindAllocation recordKind = iota
	kindHold
	kindCharge
	kindRefund
	kindCreditLimit
	kindUnitFactor
)

func (k recordKind) String() string {
	switch k {
	case kindAllocation:
		return "allocation"
	case kindHold:
		return "hold"
	case kindCharge:
		return "charge"
	case kindRefund:
		return "refund"
	case kindCreditLimit:
		return "credit limit"
	case kindUnitFactor:
		return "unit factor"
	}
	return "record"
}

type proposal struct {
	kind      recordKind
	user      models.User
	projectID string
	amount    int64
}

// validateBefore must pass before the write path issues any statement.
func (s *LedgerService) validateBefore(ctx context.Context, p proposal) error {
	if !hasCapability(p.user, p.kind) {
		return fmt.Errorf("%w: user %s may not create a %s", ErrNotPermitted, p.user.ID, p.kind)
	}
	if p.amount < 0 {
		return fmt.Errorf("%w: negative amount %d", ErrInvalidValue, p.amount)
	}
	if needsMembership(p.kind) && !p.user.CanAllocate {
		member, err := s.dir.IsMember(ctx, p.projectID, p.user.ID)
		if err != nil {
			return err
		}
		if member {
			return nil
		}
		manager, err := s.dir.IsManager(ctx, p.projectID, p.user.ID)
		if err != nil {
			return err
		}
		if !manager {
			return fmt.Errorf("%w: user %s is not a member of project %s", ErrNotPermitted, p.user.ID, p.projectID)
		}
	}
	return nil
}

// validateAfter is the post-commit credit check. undo removes the record
// that was just written; siblings committed earlier in the same call are
// left alone.
func (s *LedgerService) validateAfter(ctx context.Context, tx store.Tx, projectID, resourceID string, undo func() error) error {
	balance, err := s.allocations.ProjectBalance(ctx, tx, projectID, resourceID, s.now())
	if err != nil {
		return err
	}
	if balance >= 0 {
		return nil
	}
	creditUsed := -balance
	limit, err := s.limits.EffectiveAt(ctx, tx, projectID, resourceID, s.now())
	if err != nil {
		return err
	}
	if creditUsed <= limit {
		return nil
	}
	if err := undo(); err != nil {
		return err
	}
	return fmt.Errorf("%w: project %s would use %d of a %d credit limit on resource %s",
		ErrInsufficientFunds, projectID, creditUsed, limit, resourceID)
}

func hasCapability(user models.User, kind recordKind) bool {
	switch kind {
	case kindHold:
		return user.CanHold
	case kindCharge:
		return user.CanCharge
	case kindRefund:
		return user.CanRefund
	case kindAllocation, kindCreditLimit, kindUnitFactor:
		return user.CanAllocate
	}
	return false
}

// Holds, charges, and refunds act on a project's balance, so the acting
// user must belong to the project unless they hold the allocator override.
func needsMembership(kind recordKind) bool {
	switch kind {
	case kindHold, kindCharge, kindRefund:
		return true
	}
	return false
}
