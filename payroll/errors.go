package payroll

import (
	"errors"
	"fmt"
	"time"

	"github.com/edustaff/hr-core/leave"
	"github.com/shopspring/decimal"
)

// Sentinel errors for the payroll engine and the posting side. Callers
// match with errors.Is; the structured types below carry the detail.
var (
	ErrGenderSalaryInconsistency = errors.New("leave usage inconsistent with employee gender")
	ErrAccountNotFound           = errors.New("chart of accounts entry not found")
	ErrUnbalancedEntry           = errors.New("journal entry debits and credits do not balance")
	ErrAlreadyPosted             = errors.New("payroll already posted for month")
	ErrNoApprovedRows            = errors.New("no approved payroll rows to post")
	ErrPostingNotFound           = errors.New("payroll posting not found")
	ErrNotPosted                 = errors.New("payroll posting is not in posted status")
)

// GenderSalaryError reports female-only leave usage on a male employee's
// payroll input.
type GenderSalaryError struct {
	EmployeeID leave.EmployeeID
	LeaveType  leave.Type
}

func (e *GenderSalaryError) Error() string {
	return fmt.Sprintf("employee %s: %s leave present in payroll input but not allowed for gender",
		e.EmployeeID, e.LeaveType)
}

func (e *GenderSalaryError) Unwrap() error { return ErrGenderSalaryInconsistency }

// AccountNotFoundError reports a missing chart-of-accounts entry during
// posting. Nothing is written when this fires.
type AccountNotFoundError struct {
	Pattern string
}

func (e *AccountNotFoundError) Error() string {
	return fmt.Sprintf("no account matches %q", e.Pattern)
}

func (e *AccountNotFoundError) Unwrap() error { return ErrAccountNotFound }

// UnbalancedEntryError carries both totals so the caller can log the gap.
type UnbalancedEntryError struct {
	Debits  decimal.Decimal
	Credits decimal.Decimal
}

func (e *UnbalancedEntryError) Error() string {
	return fmt.Sprintf("journal entry unbalanced: debits %s, credits %s",
		e.Debits.StringFixed(2), e.Credits.StringFixed(2))
}

func (e *UnbalancedEntryError) Unwrap() error { return ErrUnbalancedEntry }

// AlreadyPostedError reports the month/year guard firing.
type AlreadyPostedError struct {
	Month time.Month
	Year  int
}

func (e *AlreadyPostedError) Error() string {
	return fmt.Sprintf("payroll for %s %d already posted", e.Month, e.Year)
}

func (e *AlreadyPostedError) Unwrap() error { return ErrAlreadyPosted }

// IsClientError reports whether err stems from bad input rather than an
// infrastructure failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrGenderSalaryInconsistency) ||
		errors.Is(err, ErrAlreadyPosted) ||
		errors.Is(err, ErrNoApprovedRows) ||
		errors.Is(err, ErrNotPosted)
}

// IsNotFound reports whether err is a lookup miss.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) || errors.Is(err, ErrPostingNotFound)
}
