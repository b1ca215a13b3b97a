package payroll_test

import (
	"testing"

	"github.com/edustaff/hr-core/payroll"
	"github.com/stretchr/testify/assert"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func threeBrackets() []payroll.Bracket {
	return []payroll.Bracket{
		{From: dec(0), To: dec(3750), Percent: dec(0)},
		{From: dec(3751), To: dec(6000), Percent: dec(2.5)},
		{From: dec(6001), To: dec(8000), Percent: dec(10)},
	}
}

func impactInput(base float64, s payroll.Settings) payroll.ImpactInput {
	return payroll.ImpactInput{
		BaseSalary: dec(base),
		Settings:   s,
	}
}

// =============================================================================
// TAX BRACKET SELECTION
// =============================================================================

func TestSettingsImpact_FlatBracket_WholeBaseTaxed(t *testing.T) {
	// GIVEN: Brackets [0-3750 @0%, 3751-6000 @2.5%, 6001-8000 @10%]
	//        and a taxable base of 5000
	// WHEN: Calculating the impact
	// THEN: The 2.5% bracket applies to the ENTIRE base: tax = 125.00

	s := payroll.Settings{
		Taxes: payroll.TaxSettings{Enabled: true, Brackets: threeBrackets()},
	}

	res := payroll.CalculateSettingsImpact(impactInput(5000, s))

	assert.True(t, res.TaxDeduction.Equal(dec(125)), "got %s", res.TaxDeduction)
	assert.True(t, res.NetSalary.Equal(dec(4875)))
}

func TestSettingsImpact_ZeroPercentBracket_NoTax(t *testing.T) {
	s := payroll.Settings{
		Taxes: payroll.TaxSettings{Enabled: true, Brackets: threeBrackets()},
	}

	res := payroll.CalculateSettingsImpact(impactInput(3000, s))

	assert.True(t, res.TaxDeduction.IsZero())
}

func TestSettingsImpact_UnboundedBracket_ToZero(t *testing.T) {
	// To == 0 marks an open-ended top bracket.
	s := payroll.Settings{
		Taxes: payroll.TaxSettings{Enabled: true, Brackets: []payroll.Bracket{
			{From: dec(0), To: dec(5000), Percent: dec(0)},
			{From: dec(5001), To: dec(0), Percent: dec(10)},
		}},
	}

	res := payroll.CalculateSettingsImpact(impactInput(20000, s))

	assert.True(t, res.TaxDeduction.Equal(dec(2000)), "got %s", res.TaxDeduction)
}

func TestSettingsImpact_TaxDisabled_NoTax(t *testing.T) {
	s := payroll.Settings{
		Taxes: payroll.TaxSettings{Enabled: false, Brackets: threeBrackets()},
	}

	res := payroll.CalculateSettingsImpact(impactInput(5000, s))

	assert.True(t, res.TaxDeduction.IsZero())
}

func TestSettingsImpact_MonthlyExemption_ReducesBase(t *testing.T) {
	// 5000 gross with a 1500 exemption lands in the 0% bracket.
	s := payroll.Settings{
		Taxes: payroll.TaxSettings{
			Enabled:          true,
			MonthlyExemption: dec(1500),
			Brackets:         threeBrackets(),
		},
	}

	res := payroll.CalculateSettingsImpact(impactInput(5000, s))

	assert.True(t, res.TaxableBase.Equal(dec(3500)))
	assert.True(t, res.TaxDeduction.IsZero())
}

func TestSettingsImpact_ApplyAfterInsurance_ShrinksTaxableBase(t *testing.T) {
	// GIVEN: 11% employee insurance on 5000 gross, tax applied after
	// WHEN: Calculating the impact
	// THEN: Taxable base is 5000 - 550 = 4450, still in the 2.5% bracket

	s := payroll.Settings{
		Insurance: payroll.InsuranceSettings{
			Enabled:         true,
			EmployeePercent: dec(11),
			EmployerPercent: dec(18.75),
		},
		Taxes: payroll.TaxSettings{
			Enabled:             true,
			ApplyAfterInsurance: true,
			Brackets:            threeBrackets(),
		},
	}

	res := payroll.CalculateSettingsImpact(impactInput(5000, s))

	assert.True(t, res.InsuranceEmployee.Equal(dec(550)))
	assert.True(t, res.TaxableBase.Equal(dec(4450)))
	assert.True(t, res.TaxDeduction.Equal(dec(111.25)), "got %s", res.TaxDeduction)
}

// =============================================================================
// INSURANCE AND EMERGENCY FUND
// =============================================================================

func TestSettingsImpact_Insurance_BothShares(t *testing.T) {
	s := payroll.Settings{
		Insurance: payroll.InsuranceSettings{
			Enabled:         true,
			EmployeePercent: dec(11),
			EmployerPercent: dec(18.75),
		},
	}

	res := payroll.CalculateSettingsImpact(impactInput(4000, s))

	assert.True(t, res.InsuranceEmployee.Equal(dec(440)))
	assert.True(t, res.InsuranceEmployer.Equal(dec(750)))
	// Only the employee share reduces net.
	assert.True(t, res.NetSalary.Equal(dec(3560)))
}

func TestSettingsImpact_InsurableEarningsOverride(t *testing.T) {
	s := payroll.Settings{
		Insurance: payroll.InsuranceSettings{Enabled: true, EmployeePercent: dec(10)},
	}
	in := impactInput(4000, s)
	insurable := dec(2000)
	in.InsurableEarnings = &insurable

	res := payroll.CalculateSettingsImpact(in)

	assert.True(t, res.InsuranceEmployee.Equal(dec(200)))
}

func TestSettingsImpact_EmergencyFund_PercentOfGross(t *testing.T) {
	s := payroll.Settings{
		EmergencyFund: payroll.EmergencyFundSettings{Enabled: true, Percent: dec(1)},
	}
	in := impactInput(4000, s)
	in.Incentives = dec(500)
	in.Allowances = dec(500)

	res := payroll.CalculateSettingsImpact(in)

	// 1% of 5000 gross
	assert.True(t, res.EmergencyFundDeduction.Equal(dec(50)))
	assert.True(t, res.NetSalary.Equal(dec(4950)))
}

// =============================================================================
// NET AND BREAKDOWN
// =============================================================================

func TestSettingsImpact_NetNeverNegative(t *testing.T) {
	s := payroll.Settings{}
	in := impactInput(1000, s)
	in.AttendanceDeductions = dec(2000)

	res := payroll.CalculateSettingsImpact(in)

	assert.True(t, res.NetSalary.IsZero())
}

func TestSettingsImpact_Breakdown_CoversEveryComponent(t *testing.T) {
	s := payroll.Settings{
		Insurance:     payroll.InsuranceSettings{Enabled: true, EmployeePercent: dec(11), EmployerPercent: dec(18.75)},
		Taxes:         payroll.TaxSettings{Enabled: true, Brackets: threeBrackets()},
		EmergencyFund: payroll.EmergencyFundSettings{Enabled: true, Percent: dec(1)},
	}

	res := payroll.CalculateSettingsImpact(impactInput(5000, s))

	labels := make([]string, 0, len(res.Breakdown))
	for _, line := range res.Breakdown {
		labels = append(labels, line.Label)
	}
	assert.Contains(t, labels, "Base salary")
	assert.Contains(t, labels, "Insurance (employee share)")
	assert.Contains(t, labels, "Income tax")
	assert.Contains(t, labels, "Emergency fund")
	assert.Contains(t, labels, "Net salary")
}
