package payroll

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// SETTINGS IMPACT
// =============================================================================

var percentDivisor = decimal.NewFromInt(100)

// CalculateSettingsImpact applies the organization's insurance, tax, and
// emergency-fund settings to one employee's payroll figures. Pure; the
// settings value travels in the input, never read from a store here.
//
// Tax is flat-bracket: the single bracket whose [From, To] range contains
// the taxable base applies its rate to the ENTIRE base. To == 0 marks an
// unbounded upper edge. This is not a marginal/progressive scheme.
func CalculateSettingsImpact(in ImpactInput) ImpactResult {
	gross := in.BaseSalary.Add(in.Incentives).Add(in.Allowances)

	res := ImpactResult{GrossSalary: gross}
	res.addLine("Base salary", in.BaseSalary, false)
	res.addLine("Incentives", in.Incentives, false)
	res.addLine("Allowances", in.Allowances, false)
	res.addLine("Attendance and leave deductions", in.AttendanceDeductions, true)

	if in.Settings.Insurance.Enabled {
		insurable := gross
		if in.InsurableEarnings != nil {
			insurable = *in.InsurableEarnings
		}
		res.InsuranceEmployee = percentOf(insurable, in.Settings.Insurance.EmployeePercent)
		res.InsuranceEmployer = percentOf(insurable, in.Settings.Insurance.EmployerPercent)
		res.addLine("Insurance (employee share)", res.InsuranceEmployee, true)
		res.addLine("Insurance (employer share)", res.InsuranceEmployer, false)
	}

	res.TaxableBase, res.TaxDeduction = taxDeduction(in, gross, res.InsuranceEmployee)
	if in.Settings.Taxes.Enabled {
		res.addLine("Income tax", res.TaxDeduction, true)
	}

	if in.Settings.EmergencyFund.Enabled {
		res.EmergencyFundDeduction = percentOf(gross, in.Settings.EmergencyFund.Percent)
		res.addLine("Emergency fund", res.EmergencyFundDeduction, true)
	}

	net := gross.
		Sub(in.AttendanceDeductions).
		Sub(res.InsuranceEmployee).
		Sub(res.TaxDeduction).
		Sub(res.EmergencyFundDeduction)
	if net.IsNegative() {
		net = decimal.Zero
	}
	res.NetSalary = net
	res.addLine("Net salary", net, false)

	return res
}

// taxDeduction returns the taxable base and the resulting tax. Disabled
// taxes or a non-positive base yield zero tax.
func taxDeduction(in ImpactInput, gross, insuranceEmployee decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	taxable := gross.Sub(in.AttendanceDeductions)
	if in.TaxableEarnings != nil {
		taxable = *in.TaxableEarnings
	}
	if in.Settings.Taxes.ApplyAfterInsurance {
		taxable = taxable.Sub(insuranceEmployee)
	}
	taxable = taxable.Sub(in.Settings.Taxes.MonthlyExemption)

	if !in.Settings.Taxes.Enabled || !taxable.IsPositive() {
		return taxable, decimal.Zero
	}

	for _, b := range in.Settings.Taxes.Brackets {
		if taxable.LessThan(b.From) {
			continue
		}
		if !b.To.IsZero() && taxable.GreaterThan(b.To) {
			continue
		}
		return taxable, percentOf(taxable, b.Percent)
	}
	return taxable, decimal.Zero
}

func percentOf(amount, percent decimal.Decimal) decimal.Decimal {
	return amount.Mul(percent).Div(percentDivisor)
}

func (r *ImpactResult) addLine(label string, amount decimal.Decimal, deduction bool) {
	r.Breakdown = append(r.Breakdown, BreakdownLine{Label: label, Amount: amount, Deduction: deduction})
}
