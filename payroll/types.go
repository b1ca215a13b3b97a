/*
Package payroll computes monthly pay from attendance and leave usage,
applies organization-wide settings (insurance, bracketed tax, emergency
fund), and posts approved rows as one balanced double-entry journal
transaction.

KEY CONCEPTS IN THIS FILE (types.go):
  - Settings: the organization-wide deduction configuration, an immutable
    value replaced wholesale on save (never patched field-by-field)
  - CalcInput/CalcResult: the monthly calculation engine's contract
  - ImpactResult: the settings-adjusted figures with an itemized breakdown
  - Row/Posting/JournalEntry: the posting side's contract

All monetary figures are decimal.Decimal. Negative money never escapes:
every computation clamps at zero.
*/
package payroll

import (
	"context"
	"time"

	"github.com/edustaff/hr-core/attendance"
	"github.com/edustaff/hr-core/leave"
	"github.com/shopspring/decimal"
)

// =============================================================================
// SETTINGS - Organization-wide, replaced wholesale
// =============================================================================

// Settings is the organization's payroll deduction configuration. Treat as
// an immutable value: SettingsStore.Replace swaps the whole object.
type Settings struct {
	Insurance     InsuranceSettings
	Taxes         TaxSettings
	EmergencyFund EmergencyFundSettings
}

type InsuranceSettings struct {
	Enabled         bool
	EmployeePercent decimal.Decimal
	EmployerPercent decimal.Decimal
}

type TaxSettings struct {
	Enabled             bool
	MonthlyExemption    decimal.Decimal
	Brackets            []Bracket
	ApplyAfterInsurance bool
}

// Bracket is one income-tax bracket. To == 0 means unbounded. The matching
// bracket's rate applies to the ENTIRE taxable base, not marginally - a
// deliberate characteristic of this system, preserved as observed.
type Bracket struct {
	From    decimal.Decimal
	To      decimal.Decimal
	Percent decimal.Decimal
}

type EmergencyFundSettings struct {
	Enabled bool
	Percent decimal.Decimal
}

// SettingsStore persists the settings value. Replace swaps the whole
// object; there is no partial update.
type SettingsStore interface {
	Load(ctx context.Context) (Settings, error)
	Replace(ctx context.Context, s Settings) error
}

// =============================================================================
// MONTHLY CALCULATION - Engine contract
// =============================================================================

// EmployeePay is the salary slice of the employee record.
type EmployeePay struct {
	ID                 leave.EmployeeID
	Gender             leave.Gender
	MonthlyGrossSalary decimal.Decimal

	// DailyWage, when non-nil, overrides the derived daily rate.
	DailyWage *decimal.Decimal
}

// LeaveUsage is the month's leave consumption per type, read from the
// ledger. The payroll engine never mutates balances; the two balance
// fields are snapshots used to cap paid annual/casual usage.
type LeaveUsage struct {
	Days map[leave.Type]decimal.Decimal

	AnnualBalance decimal.Decimal
	CasualBalance decimal.Decimal
}

// CalcInput feeds CalculateMonthly.
type CalcInput struct {
	Employee   EmployeePay
	Attendance attendance.MonthSummary
	Leave      LeaveUsage
	Month      time.Month
	Year       int

	// TotalWorkingDays in the month; 0 falls back to a divisor of 30.
	TotalWorkingDays int

	// LatenessDeductionOverride, when non-nil, replaces the computed
	// lateness deduction.
	LatenessDeductionOverride *decimal.Decimal
}

// CalcResult is the engine's per-employee output.
type CalcResult struct {
	EmployeeID        leave.EmployeeID
	GrossSalary       decimal.Decimal
	DailyWage         decimal.Decimal
	UnpaidLeaveDays   decimal.Decimal
	AbsenceDeduction  decimal.Decimal
	LatenessDeduction decimal.Decimal
	NetBeforeTax      decimal.Decimal

	// AppliesInsurance is false whenever child-care days are nonzero.
	AppliesInsurance bool
}

// =============================================================================
// SETTINGS IMPACT - Calculator contract
// =============================================================================

// ImpactInput feeds CalculateSettingsImpact.
type ImpactInput struct {
	BaseSalary decimal.Decimal
	Incentives decimal.Decimal
	Allowances decimal.Decimal

	// AttendanceDeductions are the prior attendance/leave deductions from
	// the monthly calculation.
	AttendanceDeductions decimal.Decimal

	// InsurableEarnings / TaxableEarnings override the gross-derived
	// figures when non-nil.
	InsurableEarnings *decimal.Decimal
	TaxableEarnings   *decimal.Decimal

	Settings Settings
}

// ImpactResult is the settings-adjusted outcome.
type ImpactResult struct {
	GrossSalary            decimal.Decimal
	InsuranceEmployee      decimal.Decimal
	InsuranceEmployer      decimal.Decimal
	TaxableBase            decimal.Decimal
	TaxDeduction           decimal.Decimal
	EmergencyFundDeduction decimal.Decimal
	NetSalary              decimal.Decimal
	Breakdown              []BreakdownLine
}

// BreakdownLine is one itemized component of the impact result.
type BreakdownLine struct {
	Label  string
	Amount decimal.Decimal

	// Deduction marks amounts subtracted from gross.
	Deduction bool
}

// =============================================================================
// POSTING - Double-entry journal contract
// =============================================================================

// Row is one employee's settings-adjusted payroll line. Only approved rows
// participate in a posting.
type Row struct {
	EmployeeID leave.EmployeeID
	Approved   bool

	BaseSalary decimal.Decimal
	Incentives decimal.Decimal
	Allowances decimal.Decimal

	AttendanceDeductions decimal.Decimal
	InsuranceEmployee    decimal.Decimal
	InsuranceEmployer    decimal.Decimal
	TaxDeduction         decimal.Decimal
	EmergencyFund        decimal.Decimal
	NetSalary            decimal.Decimal
}

type PostingStatus string

const (
	PostingPosted   PostingStatus = "posted"
	PostingReversed PostingStatus = "reversed"
)

// Posting records one month's payroll journal posting.
// INVARIANT: at most one Posted posting per (month, year).
type Posting struct {
	ID             string
	Month          time.Month
	Year           int
	JournalEntryID string
	PostedAt       time.Time
	PostedBy       string
	Status         PostingStatus
}

// Side marks a journal entry as debit or credit.
type Side string

const (
	Debit  Side = "debit"
	Credit Side = "credit"
)

// JournalEntry is one line of the double-entry transaction.
// INVARIANT per posting: sum(debits) == sum(credits) to 2 decimal places.
type JournalEntry struct {
	AccountID   string
	AccountName string
	Side        Side
	Amount      decimal.Decimal
	Memo        string
}
