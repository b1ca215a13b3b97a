/*
policy.go - Leave policy resolution

PURPOSE:

	Maps a leave type plus a resolution context (gender, tenure, optional
	annual override) to a fully-specified Policy. This is a pure function:
	no storage, no side effects, safe to call on every read. Resolving the
	same inputs twice yields identical policies.

RULES:

	Casual:     both genders, 6 days/year, paid, affects nothing
	Annual:     both genders, cap = override | 0 (<1y) | 21 (1-10y) | 30 (>10y)
	Sick:       both genders, 180 days/year, unpaid, counts as absence;
	            insurance effect decided per request, not by policy
	Child-care: female only, 730 days/year, unpaid, affects salary+insurance,
	            paid by employee
	Maternity:  female only, 90 days/year, unpaid by salary rule, insurance
	            untouched, paid by school
	Unpaid:     both genders, 365 days/year, affects salary+insurance

A single-gender policy rejects the other gender outright: zero balance,
ineligible for requests.
*/
package leave

import "github.com/shopspring/decimal"

var bothGenders = []Gender{GenderMale, GenderFemale}

// Per-request duration caps for the capped leave types. The resolver marks
// these policies HasMaxDuration so the request state machine enforces them.
var (
	maxSickPerRequest      = decimal.NewFromInt(30)
	maxChildCarePerRequest = decimal.NewFromInt(90)
	maxMaternityPerRequest = decimal.NewFromInt(90)
)

// =============================================================================
// RESOLVER
// =============================================================================

// ResolvePolicy returns the policy for a leave type under the given context.
// Unknown types resolve to a zero-cap, nobody-eligible policy rather than an
// error; pure reads in this core never fail.
func ResolvePolicy(t Type, rc ResolveContext) Policy {
	switch t {
	case TypeCasual:
		return Policy{
			Type:           TypeCasual,
			AllowedGenders: bothGenders,
			YearlyCap:      decimal.NewFromInt(6),
			IsPaid:         true,
		}

	case TypeAnnual:
		return Policy{
			Type:           TypeAnnual,
			AllowedGenders: bothGenders,
			YearlyCap:      annualCap(rc),
			IsPaid:         true,
		}

	case TypeSick:
		// AffectsInsurance stays false here: the insurance effect of sick
		// leave is a per-request decision, carried on the Request itself.
		return Policy{
			Type:              TypeSick,
			AllowedGenders:    bothGenders,
			YearlyCap:         decimal.NewFromInt(180),
			IsPaid:            false,
			AffectsSalary:     true,
			HasMaxDuration:    true,
			MaxDaysPerRequest: maxSickPerRequest,
		}

	case TypeChildCare:
		return Policy{
			Type:              TypeChildCare,
			AllowedGenders:    []Gender{GenderFemale},
			YearlyCap:         decimal.NewFromInt(730),
			IsPaid:            false,
			AffectsSalary:     true,
			AffectsInsurance:  true,
			PaidBy:            PaidByEmployee,
			HasMaxDuration:    true,
			MaxDaysPerRequest: maxChildCarePerRequest,
		}

	case TypeMaternity:
		return Policy{
			Type:              TypeMaternity,
			AllowedGenders:    []Gender{GenderFemale},
			YearlyCap:         decimal.NewFromInt(90),
			IsPaid:            false,
			AffectsSalary:     true,
			AffectsInsurance:  false,
			PaidBy:            PaidBySchool,
			HasMaxDuration:    true,
			MaxDaysPerRequest: maxMaternityPerRequest,
		}

	case TypeUnpaid:
		return Policy{
			Type:             TypeUnpaid,
			AllowedGenders:   bothGenders,
			YearlyCap:        decimal.NewFromInt(365),
			IsPaid:           false,
			AffectsSalary:    true,
			AffectsInsurance: true,
		}

	default:
		return Policy{Type: t}
	}
}

// annualCap applies the tenure tiers unless an explicit override is given.
func annualCap(rc ResolveContext) decimal.Decimal {
	if rc.AnnualOverride != nil {
		return *rc.AnnualOverride
	}
	switch {
	case rc.YearsOfService < 1:
		return decimal.Zero
	case rc.YearsOfService <= 10:
		return decimal.NewFromInt(21)
	default:
		return decimal.NewFromInt(30)
	}
}

// Entitlement returns the yearly cap for an eligible employee and zero for
// an ineligible one. Used when materializing balances.
func Entitlement(t Type, rc ResolveContext) decimal.Decimal {
	p := ResolvePolicy(t, rc)
	if !p.EligibleFor(rc.Gender) {
		return decimal.Zero
	}
	return p.YearlyCap
}
