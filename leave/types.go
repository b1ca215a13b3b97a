/*
Package leave implements the leave-management half of the HR calculation core:
policy resolution, per-year balance ledgering, and the request approval
state machine.

KEY CONCEPTS IN THIS FILE (types.go):
  - Type: One of the six leave types the organization recognizes
  - Policy: The computed ruleset for a leave type (cap, gender, pay effects)
  - Balance: Remaining entitlement per (employee, year), one map entry per type
  - Transaction: An immutable record of days consumed, used for reconciliation
  - Request: A leave request moving through Pending -> Approved/Rejected

DESIGN PRINCIPLES:
 1. Policies are computed, never persisted: Policy is a pure function of
    (Type, ResolveContext), so a rule change applies retroactively on read.
 2. Precision: day amounts use decimal.Decimal so half-days stay exact.
 3. Balances never go negative, and transactions are append-only so used
    totals can always be recomputed without trusting the balance snapshot.

SEE ALSO:
  - policy.go: ResolvePolicy and eligibility rules
  - ledger.go: Balance materialization and validated debits
  - request.go: Request lifecycle and attendance-override generation
*/
package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS AND ENUMS
// =============================================================================

type EmployeeID string

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Type identifies a leave type.
type Type string

const (
	TypeCasual    Type = "casual"
	TypeAnnual    Type = "annual"
	TypeSick      Type = "sick"
	TypeChildCare Type = "childcare"
	TypeMaternity Type = "maternity"
	TypeUnpaid    Type = "unpaid"
)

// AllTypes lists every leave type, in balance-display order.
func AllTypes() []Type {
	return []Type{TypeCasual, TypeAnnual, TypeSick, TypeChildCare, TypeMaternity, TypeUnpaid}
}

// PaidBy identifies who carries the cost of a paid-by-third-party leave.
type PaidBy string

const (
	PaidByNone     PaidBy = ""
	PaidByEmployee PaidBy = "employee"
	PaidBySchool   PaidBy = "school"
)

// Source identifies what triggered a ledger debit.
type Source string

const (
	SourceRequestApproval Source = "request_approval"
	SourceManualUsage     Source = "manual_usage"
	SourceAdjustment      Source = "adjustment"
)

// =============================================================================
// POLICY - Computed ruleset for one leave type
// =============================================================================

// Policy is the fully-specified ruleset for one leave type, resolved for a
// particular employee context. It is never stored; see ResolvePolicy.
type Policy struct {
	Type             Type
	AllowedGenders   []Gender
	YearlyCap        decimal.Decimal
	IsPaid           bool
	AffectsSalary    bool
	AffectsInsurance bool
	PaidBy           PaidBy

	// Per-request duration cap. Zero HasMaxDuration means unlimited
	// single-request length up to the yearly cap.
	HasMaxDuration    bool
	MaxDaysPerRequest decimal.Decimal
}

// EligibleFor reports whether the policy admits the given gender.
func (p Policy) EligibleFor(g Gender) bool {
	for _, allowed := range p.AllowedGenders {
		if allowed == g {
			return true
		}
	}
	return false
}

// ResolveContext carries the employee facts a policy resolution depends on.
type ResolveContext struct {
	Gender         Gender
	YearsOfService int

	// AnnualOverride, when non-nil, replaces the tenure-based annual cap.
	AnnualOverride *decimal.Decimal
}

// =============================================================================
// BALANCE - Remaining entitlement per (employee, year)
// =============================================================================

// Balance holds the remaining entitled days for one employee and year.
// INVARIANT: every Remaining value is >= 0. Locked balances reject mutation.
type Balance struct {
	EmployeeID    EmployeeID
	Year          int
	Remaining     map[Type]decimal.Decimal
	LastUpdatedAt time.Time
	Locked        bool
}

// Clone returns a deep copy so stores can hand out snapshots safely.
func (b Balance) Clone() Balance {
	remaining := make(map[Type]decimal.Decimal, len(b.Remaining))
	for t, d := range b.Remaining {
		remaining[t] = d
	}
	out := b
	out.Remaining = remaining
	return out
}

// =============================================================================
// TRANSACTION - Append-only usage record
// =============================================================================

// Transaction records one debit of leave days. Transactions are never
// updated or deleted; used totals are recomputed by summing them.
type Transaction struct {
	ID         string
	EmployeeID EmployeeID
	Year       int
	Type       Type
	Days       decimal.Decimal
	CreatedAt  time.Time
	Source     Source

	// RequestID links the debit back to the approved request, when any.
	RequestID string
}

// =============================================================================
// REQUEST - Leave request lifecycle
// =============================================================================

type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

// Request is a leave request. Approved and Rejected are terminal: an
// approved request's ledger debit is never reversed by a status change.
type Request struct {
	ID         string
	EmployeeID EmployeeID
	Type       Type
	StartDate  time.Time
	EndDate    time.Time
	TotalDays  decimal.Decimal
	Status     RequestStatus

	// Pay/insurance effects frozen from the policy at submission time.
	AffectsSalary    bool
	AffectsInsurance bool
	PaidBy           PaidBy

	// InsuranceDecision applies to sick leave only: the per-request flag
	// that decides insurance coverage instead of the policy default.
	InsuranceDecision *bool

	Notes     string
	CreatedAt time.Time
	DecidedAt *time.Time
	DecidedBy string
}

// Days returns each calendar day in [StartDate, EndDate].
func (r Request) Days() []time.Time {
	var days []time.Time
	for d := dateOnly(r.StartDate); !d.After(dateOnly(r.EndDate)); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// ATTENDANCE OVERRIDE - Generated on approval, consumed by the attendance side
// =============================================================================

// Override is one per-day attendance entry materialized when a request is
// approved. The attendance engine treats these as authoritative for the day.
type Override struct {
	EmployeeID       EmployeeID
	Date             time.Time
	LeaveType        Type
	RequestID        string
	PaidDays         decimal.Decimal
	InsuranceCovered bool
	CountsAsAbsent   bool
}
