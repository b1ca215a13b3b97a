/*
errors.go - Centralized error types for the leave package

PURPOSE:

	All leave-side domain errors in one place. Every error is raised
	synchronously at the point of violation and propagated unchanged; the
	core performs no retries and no partial application.

USAGE:

	Callers branch with errors.Is / errors.As:

	  if errors.Is(err, leave.ErrInsufficientBalance) { ... }

	  var capErr *leave.CapExceededError
	  if errors.As(err, &capErr) { ... capErr.Cap ... }
*/
package leave

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrGenderIneligible is returned when a leave type does not admit the
	// employee's gender.
	ErrGenderIneligible = errors.New("gender not eligible for leave type")

	// ErrPolicyCapExceeded is returned when cumulative usage would exceed
	// the policy's yearly cap.
	ErrPolicyCapExceeded = errors.New("policy yearly cap exceeded")

	// ErrRequestDurationExceeded is returned when a single request is longer
	// than the policy's per-request maximum.
	ErrRequestDurationExceeded = errors.New("request duration exceeds per-request maximum")

	// ErrInsufficientBalance is returned when a debit would drive the
	// remaining balance negative.
	ErrInsufficientBalance = errors.New("insufficient leave balance")

	// ErrBalanceLocked is returned when mutating a locked balance.
	ErrBalanceLocked = errors.New("leave balance is locked")

	// ErrApprovalRequired is returned for annual-leave usage applied without
	// prior approval.
	ErrApprovalRequired = errors.New("annual leave requires prior approval")

	// ErrRequestNotFound is returned when a request id resolves to nothing.
	ErrRequestNotFound = errors.New("leave request not found")

	// ErrNotPending is returned when approving or rejecting a request that
	// already reached a terminal state. Approval is terminal for ledger
	// purposes: a second approval must not double-debit.
	ErrNotPending = errors.New("leave request is not pending")

	// ErrEmployeeNotFound is returned when the employee directory has no
	// record for the id.
	ErrEmployeeNotFound = errors.New("employee not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientBalanceError reports a balance shortfall.
type InsufficientBalanceError struct {
	EmployeeID EmployeeID
	Year       int
	Type       Type
	Available  decimal.Decimal
	Requested  decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient %s balance for %s/%d: available %s, requested %s",
		e.Type, e.EmployeeID, e.Year, e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// CapExceededError reports a yearly-cap violation.
type CapExceededError struct {
	EmployeeID EmployeeID
	Year       int
	Type       Type
	Cap        decimal.Decimal
	Used       decimal.Decimal
	Requested  decimal.Decimal
}

func (e *CapExceededError) Error() string {
	return fmt.Sprintf("%s cap exceeded for %s/%d: cap %s, used %s, requested %s",
		e.Type, e.EmployeeID, e.Year, e.Cap, e.Used, e.Requested)
}

func (e *CapExceededError) Unwrap() error { return ErrPolicyCapExceeded }

// DurationExceededError reports a per-request duration violation.
type DurationExceededError struct {
	Type      Type
	Max       decimal.Decimal
	Requested decimal.Decimal
}

func (e *DurationExceededError) Error() string {
	return fmt.Sprintf("%s request of %s days exceeds per-request maximum of %s",
		e.Type, e.Requested, e.Max)
}

func (e *DurationExceededError) Unwrap() error { return ErrRequestDurationExceeded }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is a business-rule violation the
// caller can present to the user, as opposed to a storage failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrGenderIneligible) ||
		errors.Is(err, ErrPolicyCapExceeded) ||
		errors.Is(err, ErrRequestDurationExceeded) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrBalanceLocked) ||
		errors.Is(err, ErrApprovalRequired) ||
		errors.Is(err, ErrNotPending)
}

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRequestNotFound) || errors.Is(err, ErrEmployeeNotFound)
}
