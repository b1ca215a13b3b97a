package payroll

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// Account is one chart-of-accounts entry used by the posting side.
type Account struct {
	ID   string
	Code string
	Name string
}

// AccountDirectory resolves ledger accounts. FindByCode and
// FindByNamePattern return (nil, nil) on a miss; the posting service turns
// misses into AccountNotFoundError.
type AccountDirectory interface {
	FindByCode(ctx context.Context, code string) (*Account, error)
	FindByNamePattern(ctx context.Context, pattern string) (*Account, error)
}

// AccountCodes optionally pins the accounts a posting uses. Empty fields
// fall back to name-pattern resolution.
type AccountCodes struct {
	SalariesExpense   string
	Incentives        string
	Allowances        string
	EmployerInsurance string
	InsurancePayable  string
	TaxPayable        string
	EmergencyFund     string
	CashBank          string
}

// accountSlot couples a posting line with how to find its account and
// which side of the journal it lands on.
type accountSlot struct {
	code    string
	pattern string
	side    Side
	memo    string
	amount  decimal.Decimal
}

// resolve finds the slot's account, preferring the explicit code.
func (s accountSlot) resolve(ctx context.Context, dir AccountDirectory) (*Account, error) {
	if s.code != "" {
		acc, err := dir.FindByCode(ctx, s.code)
		if err != nil {
			return nil, err
		}
		if acc != nil {
			return acc, nil
		}
	}
	acc, err := dir.FindByNamePattern(ctx, s.pattern)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, &AccountNotFoundError{Pattern: s.pattern}
	}
	return acc, nil
}

// MatchAccountName reports whether an account name matches a lookup
// pattern, case-insensitively on a substring basis. Store implementations
// share this so memory and sqlite resolve identically.
func MatchAccountName(name, pattern string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(pattern))
}
