package payroll_test

import (
	"testing"

	"github.com/edustaff/hr-core/attendance"
	"github.com/edustaff/hr-core/leave"
	"github.com/edustaff/hr-core/payroll"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func calcInput(gender leave.Gender, gross float64) payroll.CalcInput {
	return payroll.CalcInput{
		Employee: payroll.EmployeePay{
			ID:                 "emp-1",
			Gender:             gender,
			MonthlyGrossSalary: dec(gross),
		},
		Leave: payroll.LeaveUsage{Days: map[leave.Type]decimal.Decimal{}},
	}
}

// =============================================================================
// GENDER CONSISTENCY
// =============================================================================

func TestCalculateMonthly_MaleWithMaternityDay_Rejected(t *testing.T) {
	// GIVEN: A male employee with one maternity day in the month's usage
	// WHEN: Calculating the monthly payroll
	// THEN: The calculation fails with a gender-consistency error

	in := calcInput(leave.GenderMale, 3000)
	in.Leave.Days[leave.TypeMaternity] = dec(1)

	_, err := payroll.CalculateMonthly(in)

	require.Error(t, err)
	assert.ErrorIs(t, err, payroll.ErrGenderSalaryInconsistency)
	var genderErr *payroll.GenderSalaryError
	require.ErrorAs(t, err, &genderErr)
	assert.Equal(t, leave.TypeMaternity, genderErr.LeaveType)
}

func TestCalculateMonthly_MaleWithChildCare_Rejected(t *testing.T) {
	in := calcInput(leave.GenderMale, 3000)
	in.Leave.Days[leave.TypeChildCare] = dec(2)

	_, err := payroll.CalculateMonthly(in)

	assert.ErrorIs(t, err, payroll.ErrGenderSalaryInconsistency)
}

func TestCalculateMonthly_FemaleWithMaternity_Allowed(t *testing.T) {
	in := calcInput(leave.GenderFemale, 3000)
	in.Leave.Days[leave.TypeMaternity] = dec(5)

	res, err := payroll.CalculateMonthly(in)

	require.NoError(t, err)
	// 5 unpaid maternity days at gross/30 = 100/day
	assert.True(t, res.UnpaidLeaveDays.Equal(dec(5)))
	assert.True(t, res.AbsenceDeduction.Equal(dec(500)), "got %s", res.AbsenceDeduction)
}

// =============================================================================
// DAILY WAGE RESOLUTION
// =============================================================================

func TestCalculateMonthly_DailyWage_DefaultDivisor30(t *testing.T) {
	in := calcInput(leave.GenderMale, 3000)

	res, err := payroll.CalculateMonthly(in)

	require.NoError(t, err)
	assert.True(t, res.DailyWage.Equal(dec(100)))
}

func TestCalculateMonthly_DailyWage_WorkingDaysDivisor(t *testing.T) {
	in := calcInput(leave.GenderMale, 3000)
	in.TotalWorkingDays = 20

	res, err := payroll.CalculateMonthly(in)

	require.NoError(t, err)
	assert.True(t, res.DailyWage.Equal(dec(150)))
}

func TestCalculateMonthly_DailyWage_ExplicitOverride(t *testing.T) {
	in := calcInput(leave.GenderMale, 3000)
	wage := dec(80)
	in.Employee.DailyWage = &wage
	in.TotalWorkingDays = 20

	res, err := payroll.CalculateMonthly(in)

	require.NoError(t, err)
	assert.True(t, res.DailyWage.Equal(dec(80)))
}

// =============================================================================
// ABSENCE AND EXCESS-OVER-BALANCE
// =============================================================================

func TestCalculateMonthly_AnnualExcess_BecomesUnpaidAbsence(t *testing.T) {
	// GIVEN: 25 annual days used against a balance snapshot of 21
	// WHEN: Calculating the monthly payroll
	// THEN: 21 days are paid and 4 days deduct as unpaid absence

	in := calcInput(leave.GenderFemale, 3000)
	in.Leave.Days[leave.TypeAnnual] = dec(25)
	in.Leave.AnnualBalance = dec(21)

	res, err := payroll.CalculateMonthly(in)

	require.NoError(t, err)
	assert.True(t, res.UnpaidLeaveDays.Equal(dec(4)), "got %s", res.UnpaidLeaveDays)
	// 4 days at 100/day
	assert.True(t, res.AbsenceDeduction.Equal(dec(400)))
	assert.True(t, res.NetBeforeTax.Equal(dec(2600)))
}

func TestCalculateMonthly_CasualWithinBalance_NoDeduction(t *testing.T) {
	in := calcInput(leave.GenderMale, 3000)
	in.Leave.Days[leave.TypeCasual] = dec(3)
	in.Leave.CasualBalance = dec(6)

	res, err := payroll.CalculateMonthly(in)

	require.NoError(t, err)
	assert.True(t, res.AbsenceDeduction.IsZero())
	assert.True(t, res.NetBeforeTax.Equal(dec(3000)))
}

func TestCalculateMonthly_UnexcusedAbsences_Deducted(t *testing.T) {
	in := calcInput(leave.GenderMale, 3000)
	in.Attendance = attendance.MonthSummary{AbsentDays: 2}

	res, err := payroll.CalculateMonthly(in)

	require.NoError(t, err)
	assert.True(t, res.AbsenceDeduction.Equal(dec(200)))
}

func TestCalculateMonthly_NegativeUsage_ClampedToZero(t *testing.T) {
	in := calcInput(leave.GenderMale, 3000)
	in.Leave.Days[leave.TypeSick] = dec(-3)

	res, err := payroll.CalculateMonthly(in)

	require.NoError(t, err)
	assert.True(t, res.UnpaidLeaveDays.IsZero())
}

// =============================================================================
// LATENESS
// =============================================================================

func TestCalculateMonthly_LateMinutes_HourlyRateDeduction(t *testing.T) {
	// GIVEN: 30 late minutes, daily wage 100 so hourly rate 12.5
	// WHEN: Calculating
	// THEN: Lateness deduction is half an hour at 12.5/h = 6.25

	in := calcInput(leave.GenderMale, 3000)
	in.Attendance = attendance.MonthSummary{LateMinutes: 30}

	res, err := payroll.CalculateMonthly(in)

	require.NoError(t, err)
	assert.True(t, res.LatenessDeduction.Equal(dec(6.25)), "got %s", res.LatenessDeduction)
}

func TestCalculateMonthly_LatenessOverride_Wins(t *testing.T) {
	in := calcInput(leave.GenderMale, 3000)
	in.Attendance = attendance.MonthSummary{LateMinutes: 30}
	override := dec(10)
	in.LatenessDeductionOverride = &override

	res, err := payroll.CalculateMonthly(in)

	require.NoError(t, err)
	assert.True(t, res.LatenessDeduction.Equal(dec(10)))
}

// =============================================================================
// CLAMPS AND FLAGS
// =============================================================================

func TestCalculateMonthly_NetNeverNegative(t *testing.T) {
	// Deductions exceed gross: 40 unpaid days at 100/day against 3000 gross.
	in := calcInput(leave.GenderMale, 3000)
	in.Leave.Days[leave.TypeUnpaid] = dec(40)

	res, err := payroll.CalculateMonthly(in)

	require.NoError(t, err)
	assert.True(t, res.NetBeforeTax.IsZero())
}

func TestCalculateMonthly_ChildCareUsage_DisablesInsurance(t *testing.T) {
	in := calcInput(leave.GenderFemale, 3000)
	in.Leave.Days[leave.TypeChildCare] = dec(1)

	res, err := payroll.CalculateMonthly(in)

	require.NoError(t, err)
	assert.False(t, res.AppliesInsurance)
}

func TestCalculateMonthly_NoChildCare_InsuranceApplies(t *testing.T) {
	in := calcInput(leave.GenderFemale, 3000)

	res, err := payroll.CalculateMonthly(in)

	require.NoError(t, err)
	assert.True(t, res.AppliesInsurance)
}
