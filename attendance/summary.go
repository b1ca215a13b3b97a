/*
summary.go - Monthly attendance aggregation

Sums daily records into the per-employee month totals the payroll engine
consumes. Only records matching the (year, month) filter participate;
callers typically pass a whole month of regenerated records.
*/
package attendance

import (
	"time"

	"github.com/edustaff/hr-core/leave"
	"github.com/shopspring/decimal"
)

// MonthSummary aggregates one employee's records over a month.
type MonthSummary struct {
	EmployeeID leave.EmployeeID
	Year       int
	Month      time.Month

	PresentDays int
	AbsentDays  int
	HolidayDays int
	LeaveDays   map[leave.Type]decimal.Decimal

	LateMinutes       int
	EarlyLeaveMinutes int
}

// TotalLeaveDays sums leave days across all types.
func (s MonthSummary) TotalLeaveDays() decimal.Decimal {
	total := decimal.Zero
	for _, d := range s.LeaveDays {
		total = total.Add(d)
	}
	return total
}

// Summarize aggregates records for (employee, year, month). Records outside
// the month filter are skipped.
func Summarize(employeeID leave.EmployeeID, year int, month time.Month, records []Record) MonthSummary {
	summary := MonthSummary{
		EmployeeID: employeeID,
		Year:       year,
		Month:      month,
		LeaveDays:  make(map[leave.Type]decimal.Decimal),
	}

	one := decimal.NewFromInt(1)
	for _, rec := range records {
		if rec.EmployeeID != employeeID || rec.Date.Year() != year || rec.Date.Month() != month {
			continue
		}

		switch rec.Status {
		case StatusPresent, StatusLate:
			summary.PresentDays++
		case StatusAbsent:
			summary.AbsentDays++
		case StatusHoliday:
			summary.HolidayDays++
		case StatusOnLeave:
			summary.LeaveDays[rec.LeaveType] = summary.LeaveDays[rec.LeaveType].Add(one)
		}

		summary.LateMinutes += rec.LateMinutes
		summary.EarlyLeaveMinutes += rec.EarlyLeaveMinutes
	}
	return summary
}
