/*
store.go - Persistence interfaces for the leave side

PURPOSE:

	The core never touches storage directly: every component receives these
	repository interfaces. Implementations live in store/memory (tests, dev)
	and store/sqlite (production).

CONTRACTS:

	TransactionStore is APPEND-ONLY: no update, no delete. Used-day totals
	are recomputed by summing transactions, never trusted from the balance
	snapshot alone.

	The caller of BalanceStore.Save is the Ledger, which serializes all
	mutations for a given (employee, year); stores only need to be safe for
	concurrent access, not to arbitrate lost updates.
*/
package leave

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// BALANCE STORE
// =============================================================================

// BalanceStore persists balance snapshots. Get returns (nil, nil) when no
// balance has been materialized yet for the key.
type BalanceStore interface {
	Get(ctx context.Context, employeeID EmployeeID, year int) (*Balance, error)
	Save(ctx context.Context, b Balance) error
}

// =============================================================================
// TRANSACTION STORE - Append-only
// =============================================================================

// TransactionStore is the append-only usage log.
type TransactionStore interface {
	// Append records a debit. This is the only write operation.
	Append(ctx context.Context, tx Transaction) error

	// List returns all transactions for (employee, year), oldest first.
	List(ctx context.Context, employeeID EmployeeID, year int) ([]Transaction, error)

	// UsedDays sums transaction days for (employee, year, type).
	UsedDays(ctx context.Context, employeeID EmployeeID, year int, t Type) (decimal.Decimal, error)
}

// =============================================================================
// REQUEST STORE
// =============================================================================

// RequestStore persists leave requests.
type RequestStore interface {
	Save(ctx context.Context, r Request) error
	Get(ctx context.Context, id string) (*Request, error)

	// ListByYearType returns the employee's requests whose start date falls
	// in the given year, filtered by type.
	ListByYearType(ctx context.Context, employeeID EmployeeID, year int, t Type) ([]Request, error)
}

// =============================================================================
// OVERRIDE SINK - Attendance entries generated on approval
// =============================================================================

// OverrideSink receives the per-day attendance overrides materialized when
// a request is approved. RecordBatch is all-or-nothing.
type OverrideSink interface {
	RecordBatch(ctx context.Context, overrides []Override) error
}

// =============================================================================
// EMPLOYEE DIRECTORY - Read-only collaborator
// =============================================================================

// Employee is the slice of the employee record the leave core needs.
type Employee struct {
	ID       EmployeeID
	Name     string
	Gender   Gender
	HireDate time.Time

	// AnnualOverride, when non-nil, replaces the tenure-based annual cap.
	AnnualOverride *decimal.Decimal
}

// EmployeeDirectory looks up employee facts for policy resolution.
type EmployeeDirectory interface {
	Get(ctx context.Context, id EmployeeID) (*Employee, error)
}

// ResolveContextFor derives the policy resolution context for an employee
// in a given ledger year. Tenure counts full years of service completed by
// January 1 of that year.
func ResolveContextFor(e Employee, year int) ResolveContext {
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	years := 0
	if e.HireDate.Before(jan1) {
		years = year - e.HireDate.Year()
		anniversary := time.Date(year, e.HireDate.Month(), e.HireDate.Day(), 0, 0, 0, 0, time.UTC)
		if anniversary.After(jan1) {
			years--
		}
	}
	if years < 0 {
		years = 0
	}
	return ResolveContext{
		Gender:         e.Gender,
		YearsOfService: years,
		AnnualOverride: e.AnnualOverride,
	}
}
