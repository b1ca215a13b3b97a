package payroll

import (
	"github.com/edustaff/hr-core/leave"
	"github.com/shopspring/decimal"
)

// =============================================================================
// MONTHLY CALCULATION
// =============================================================================

var (
	defaultMonthDivisor = decimal.NewFromInt(30)
	hoursPerWorkDay     = decimal.NewFromInt(8)
	minutesPerHour      = decimal.NewFromInt(60)
)

// CalculateMonthly aggregates one employee's month of attendance and leave
// usage into gross salary, deductions, and a provisional net figure. Pure:
// it never touches the ledger or any store.
//
// Deduction model:
//   - daily wage: explicit value, else gross / working days, else gross / 30
//   - lateness: late minutes at an hourly rate of dailyWage/8, unless an
//     explicit override amount is supplied
//   - unpaid days: sick + maternity + child-care + unpaid, plus any annual
//     or casual usage above the respective balance snapshot
//   - absence deduction: (unpaid days + unexcused absent days) * daily wage
//
// Net-before-tax clamps at zero.
func CalculateMonthly(in CalcInput) (CalcResult, error) {
	if err := checkGenderUsage(in); err != nil {
		return CalcResult{}, err
	}

	gross := in.Employee.MonthlyGrossSalary
	daily := resolveDailyWage(in)
	hourly := decimal.Zero
	if !daily.IsZero() {
		hourly = daily.Div(hoursPerWorkDay)
	}

	lateness := latenessDeduction(in, hourly)
	unpaidDays := unpaidLeaveDays(in.Leave)

	absentDays := decimal.NewFromInt(int64(in.Attendance.AbsentDays))
	absence := unpaidDays.Add(absentDays).Mul(daily)

	net := gross.Sub(absence).Sub(lateness)
	if net.IsNegative() {
		net = decimal.Zero
	}

	return CalcResult{
		EmployeeID:        in.Employee.ID,
		GrossSalary:       gross,
		DailyWage:         daily,
		UnpaidLeaveDays:   unpaidDays,
		AbsenceDeduction:  absence,
		LatenessDeduction: lateness,
		NetBeforeTax:      net,
		AppliesInsurance:  usageDays(in.Leave, leave.TypeChildCare).IsZero(),
	}, nil
}

// checkGenderUsage rejects female-only leave usage on a male employee's
// input. Zero usage of those types is fine.
func checkGenderUsage(in CalcInput) error {
	if in.Employee.Gender != leave.GenderMale {
		return nil
	}
	for _, t := range []leave.Type{leave.TypeMaternity, leave.TypeChildCare} {
		if usageDays(in.Leave, t).IsPositive() {
			return &GenderSalaryError{EmployeeID: in.Employee.ID, LeaveType: t}
		}
	}
	return nil
}

func resolveDailyWage(in CalcInput) decimal.Decimal {
	if in.Employee.DailyWage != nil {
		return *in.Employee.DailyWage
	}
	divisor := defaultMonthDivisor
	if in.TotalWorkingDays > 0 {
		divisor = decimal.NewFromInt(int64(in.TotalWorkingDays))
	}
	return in.Employee.MonthlyGrossSalary.Div(divisor)
}

func latenessDeduction(in CalcInput, hourly decimal.Decimal) decimal.Decimal {
	if in.LatenessDeductionOverride != nil {
		return *in.LatenessDeductionOverride
	}
	if in.Attendance.LateMinutes <= 0 {
		return decimal.Zero
	}
	lateHours := decimal.NewFromInt(int64(in.Attendance.LateMinutes)).Div(minutesPerHour)
	return lateHours.Mul(hourly)
}

// unpaidLeaveDays normalizes the month's usage: each type clamps at zero,
// annual and casual cap at their balance snapshots with the excess becoming
// unpaid absence, and the unpaid-by-nature types count in full.
func unpaidLeaveDays(u LeaveUsage) decimal.Decimal {
	total := decimal.Zero
	for _, t := range []leave.Type{leave.TypeSick, leave.TypeMaternity, leave.TypeChildCare, leave.TypeUnpaid} {
		total = total.Add(usageDays(u, t))
	}
	total = total.Add(excessOverBalance(usageDays(u, leave.TypeAnnual), u.AnnualBalance))
	total = total.Add(excessOverBalance(usageDays(u, leave.TypeCasual), u.CasualBalance))
	return total
}

func excessOverBalance(used, balance decimal.Decimal) decimal.Decimal {
	if balance.IsNegative() {
		balance = decimal.Zero
	}
	excess := used.Sub(balance)
	if excess.IsNegative() {
		return decimal.Zero
	}
	return excess
}

// usageDays reads one type's usage, clamped at zero.
func usageDays(u LeaveUsage, t leave.Type) decimal.Decimal {
	if u.Days == nil {
		return decimal.Zero
	}
	d := u.Days[t]
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
