package models

import "time"

// User carries the locally-owned capability flags. Identity itself belongs
// to the directory; the row here caches the resolved key.
type User struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CanRequest   bool      `db:"can_request" json:"can_request"`
	CanAllocate  bool      `db:"can_allocate" json:"can_allocate"`
	CanHold      bool      `db:"can_hold" json:"can_hold"`
	CanCharge    bool      `db:"can_charge" json:"can_charge"`
	CanRefund    bool      `db:"can_refund" json:"can_refund"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type Project struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Resource struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Allocation is a grant of time to a project on a resource. Amount is
// immutable after creation; the allocation is active while
// start_at <= now < expires_at.
type Allocation struct {
	ID         string    `db:"id" json:"id"`
	ProjectID  string    `db:"project_id" json:"project_id"`
	ResourceID string    `db:"resource_id" json:"resource_id"`
	Amount     int64     `db:"amount" json:"amount"`
	StartAt    time.Time `db:"start_at" json:"start_at"`
	ExpiresAt  time.Time `db:"expires_at" json:"expires_at"`
	Comment    string    `db:"comment" json:"comment"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Hold is a provisional reservation against an allocation. Holds are
// deactivated, never deleted, once released or superseded by a charge;
// only active holds count toward balance.
type Hold struct {
	ID           string    `db:"id" json:"id"`
	AllocationID string    `db:"allocation_id" json:"allocation_id"`
	Amount       int64     `db:"amount" json:"amount"`
	Active       bool      `db:"active" json:"active"`
	Comment      string    `db:"comment" json:"comment"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Charge is finalized consumption. Immutable once created except through
// its refunds.
type Charge struct {
	ID           string    `db:"id" json:"id"`
	AllocationID string    `db:"allocation_id" json:"allocation_id"`
	UserID       *string   `db:"user_id" json:"user_id,omitempty"`
	JobID        *string   `db:"job_id" json:"job_id,omitempty"`
	Amount       int64     `db:"amount" json:"amount"`
	Comment      string    `db:"comment" json:"comment"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type Refund struct {
	ID        string    `db:"id" json:"id"`
	ChargeID  string    `db:"charge_id" json:"charge_id"`
	Amount    int64     `db:"amount" json:"amount"`
	Comment   string    `db:"comment" json:"comment"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CreditLimit bounds how far a project's balance on a resource may go
// negative. The effective record at time T is the one with the greatest
// start_at not after T; absence means zero.
type CreditLimit struct {
	ID         string    `db:"id" json:"id"`
	ProjectID  string    `db:"project_id" json:"project_id"`
	ResourceID string    `db:"resource_id" json:"resource_id"`
	StartAt    time.Time `db:"start_at" json:"start_at"`
	Amount     int64     `db:"amount" json:"amount"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// UnitFactor converts the abstract accounting unit to a resource's native
// unit for display. Same latest-start-wins rule as CreditLimit; absence
// implies a factor of 1.
type UnitFactor struct {
	ID         string    `db:"id" json:"id"`
	ResourceID string    `db:"resource_id" json:"resource_id"`
	StartAt    time.Time `db:"start_at" json:"start_at"`
	Factor     string    `db:"factor" json:"factor"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Job links a batch-scheduler accounting record to the charges it produced.
type Job struct {
	ID         string     `db:"id" json:"id"`
	JobID      string     `db:"job_id" json:"job_id"`
	UserID     *string    `db:"user_id" json:"user_id,omitempty"`
	ProjectID  string     `db:"project_id" json:"project_id"`
	ResourceID string     `db:"resource_id" json:"resource_id"`
	AmountUsed int64      `db:"amount_used" json:"amount_used"`
	StartedAt  *time.Time `db:"started_at" json:"started_at,omitempty"`
	EndedAt    *time.Time `db:"ended_at" json:"ended_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}
