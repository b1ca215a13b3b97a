/*
ledger.go - Leave balance ledger

PURPOSE:

	The Ledger is the sole writer of balance figures. It materializes a
	Balance for every (employee, year) on first access using the policy
	resolver, and mutates it only through validated debits that append a
	usage Transaction in the same critical section.

CRITICAL INVARIANTS:
 1. Remaining[type] >= 0 after every operation, always.
 2. Cumulative transaction days never exceed the policy's yearly cap.
 3. Debit and transaction append happen atomically relative to each other.
 4. A locked balance rejects every mutation.

CONCURRENCY:

	The check-then-debit in ApplyUsage is not safe to interleave, so every
	mutation for a given (employee, year) runs under a per-key mutex: a
	single-writer discipline rather than optimistic versioning. Reads take
	the same key lock to see a consistent snapshot.

SEE ALSO:
  - policy.go: entitlements used for materialization
  - request.go: the approval flow that drives ApplyUsage
*/
package leave

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// LEDGER
// =============================================================================

// Ledger owns leave balances. Construct with NewLedger.
type Ledger struct {
	balances  BalanceStore
	txs       TransactionStore
	employees EmployeeDirectory

	mu    sync.Mutex
	locks map[balanceKey]*sync.Mutex
	now   func() time.Time
}

type balanceKey struct {
	EmployeeID EmployeeID
	Year       int
}

func NewLedger(balances BalanceStore, txs TransactionStore, employees EmployeeDirectory) *Ledger {
	return &Ledger{
		balances:  balances,
		txs:       txs,
		employees: employees,
		locks:     make(map[balanceKey]*sync.Mutex),
		now:       time.Now,
	}
}

// keyLock returns the mutex serializing all work on one (employee, year).
func (l *Ledger) keyLock(employeeID EmployeeID, year int) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := balanceKey{EmployeeID: employeeID, Year: year}
	if l.locks[k] == nil {
		l.locks[k] = &sync.Mutex{}
	}
	return l.locks[k]
}

// =============================================================================
// READS
// =============================================================================

// Balance returns the balance for (employee, year), materializing it from
// the policy resolver on first access.
func (l *Ledger) Balance(ctx context.Context, employeeID EmployeeID, year int) (Balance, error) {
	lock := l.keyLock(employeeID, year)
	lock.Lock()
	defer lock.Unlock()

	b, err := l.loadOrMaterialize(ctx, employeeID, year)
	if err != nil {
		return Balance{}, err
	}
	return b.Clone(), nil
}

// IsEligible reports whether the employee's gender admits the leave type.
func (l *Ledger) IsEligible(ctx context.Context, employeeID EmployeeID, t Type) (bool, error) {
	emp, err := l.employee(ctx, employeeID)
	if err != nil {
		return false, err
	}
	policy := ResolvePolicy(t, ResolveContextFor(*emp, l.now().Year()))
	return policy.EligibleFor(emp.Gender), nil
}

// UsedDays returns cumulative transaction days for (employee, year, type).
func (l *Ledger) UsedDays(ctx context.Context, employeeID EmployeeID, year int, t Type) (decimal.Decimal, error) {
	return l.txs.UsedDays(ctx, employeeID, year, t)
}

// Transactions returns the usage log for (employee, year), oldest first.
func (l *Ledger) Transactions(ctx context.Context, employeeID EmployeeID, year int) ([]Transaction, error) {
	return l.txs.List(ctx, employeeID, year)
}

// =============================================================================
// MUTATIONS
// =============================================================================

// UsageInput describes one requested debit.
type UsageInput struct {
	EmployeeID EmployeeID
	Year       int
	Type       Type
	Days       decimal.Decimal
	Source     Source
	RequestID  string

	// Approved must be true for annual leave; unapproved annual usage is
	// rejected with ErrApprovalRequired.
	Approved bool
}

// ApplyUsage validates and applies one debit. On success the balance is
// reduced and a Transaction appended; on any error nothing changes.
//
// Failure modes, checked in order:
//
//	ErrBalanceLocked, ErrGenderIneligible, ErrApprovalRequired,
//	ErrPolicyCapExceeded (cumulative transactions + new usage > yearly cap),
//	ErrInsufficientBalance (balance - days < 0).
func (l *Ledger) ApplyUsage(ctx context.Context, in UsageInput) error {
	if !in.Days.IsPositive() {
		return fmt.Errorf("usage days must be positive, got %s", in.Days)
	}

	lock := l.keyLock(in.EmployeeID, in.Year)
	lock.Lock()
	defer lock.Unlock()

	balance, err := l.loadOrMaterialize(ctx, in.EmployeeID, in.Year)
	if err != nil {
		return err
	}
	if balance.Locked {
		return ErrBalanceLocked
	}

	emp, err := l.employee(ctx, in.EmployeeID)
	if err != nil {
		return err
	}
	rc := ResolveContextFor(*emp, in.Year)
	policy := ResolvePolicy(in.Type, rc)

	if !policy.EligibleFor(emp.Gender) {
		return ErrGenderIneligible
	}
	if in.Type == TypeAnnual && !in.Approved {
		return ErrApprovalRequired
	}

	used, err := l.txs.UsedDays(ctx, in.EmployeeID, in.Year, in.Type)
	if err != nil {
		return err
	}
	if used.Add(in.Days).GreaterThan(policy.YearlyCap) {
		return &CapExceededError{
			EmployeeID: in.EmployeeID, Year: in.Year, Type: in.Type,
			Cap: policy.YearlyCap, Used: used, Requested: in.Days,
		}
	}

	available := balance.Remaining[in.Type]
	if available.Sub(in.Days).IsNegative() {
		return &InsufficientBalanceError{
			EmployeeID: in.EmployeeID, Year: in.Year, Type: in.Type,
			Available: available, Requested: in.Days,
		}
	}

	// Debit and append together under the key lock.
	balance.Remaining[in.Type] = available.Sub(in.Days)
	balance.LastUpdatedAt = l.now()
	if err := l.balances.Save(ctx, balance); err != nil {
		return fmt.Errorf("failed to save balance: %w", err)
	}

	tx := Transaction{
		ID:         uuid.NewString(),
		EmployeeID: in.EmployeeID,
		Year:       in.Year,
		Type:       in.Type,
		Days:       in.Days,
		CreatedAt:  l.now(),
		Source:     in.Source,
		RequestID:  in.RequestID,
	}
	if err := l.txs.Append(ctx, tx); err != nil {
		// Roll the snapshot back so balance and log stay consistent.
		balance.Remaining[in.Type] = available
		if saveErr := l.balances.Save(ctx, balance); saveErr != nil {
			return fmt.Errorf("failed to append transaction (%v) and to restore balance: %w", err, saveErr)
		}
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

// AdjustBalance applies a manual correction (positive or negative delta) to
// one leave type. The result is clamped-checked, not clamped: an adjustment
// that would drive the balance negative is rejected.
func (l *Ledger) AdjustBalance(ctx context.Context, employeeID EmployeeID, year int, t Type, delta decimal.Decimal) error {
	lock := l.keyLock(employeeID, year)
	lock.Lock()
	defer lock.Unlock()

	balance, err := l.loadOrMaterialize(ctx, employeeID, year)
	if err != nil {
		return err
	}
	if balance.Locked {
		return ErrBalanceLocked
	}

	next := balance.Remaining[t].Add(delta)
	if next.IsNegative() {
		return &InsufficientBalanceError{
			EmployeeID: employeeID, Year: year, Type: t,
			Available: balance.Remaining[t], Requested: delta.Neg(),
		}
	}

	balance.Remaining[t] = next
	balance.LastUpdatedAt = l.now()
	return l.balances.Save(ctx, balance)
}

// Lock freezes the balance against further mutation (e.g. after year close).
func (l *Ledger) Lock(ctx context.Context, employeeID EmployeeID, year int) error {
	return l.setLocked(ctx, employeeID, year, true)
}

// Unlock re-enables mutation.
func (l *Ledger) Unlock(ctx context.Context, employeeID EmployeeID, year int) error {
	return l.setLocked(ctx, employeeID, year, false)
}

func (l *Ledger) setLocked(ctx context.Context, employeeID EmployeeID, year int, locked bool) error {
	lock := l.keyLock(employeeID, year)
	lock.Lock()
	defer lock.Unlock()

	balance, err := l.loadOrMaterialize(ctx, employeeID, year)
	if err != nil {
		return err
	}
	balance.Locked = locked
	balance.LastUpdatedAt = l.now()
	return l.balances.Save(ctx, balance)
}

// =============================================================================
// MATERIALIZATION
// =============================================================================

// loadOrMaterialize returns the stored balance or builds one from policy
// entitlements. Ineligible types materialize at zero. Caller holds the key
// lock.
func (l *Ledger) loadOrMaterialize(ctx context.Context, employeeID EmployeeID, year int) (Balance, error) {
	existing, err := l.balances.Get(ctx, employeeID, year)
	if err != nil {
		return Balance{}, err
	}
	if existing != nil {
		return existing.Clone(), nil
	}

	emp, err := l.employee(ctx, employeeID)
	if err != nil {
		return Balance{}, err
	}
	rc := ResolveContextFor(*emp, year)

	balance := Balance{
		EmployeeID:    employeeID,
		Year:          year,
		Remaining:     make(map[Type]decimal.Decimal, len(AllTypes())),
		LastUpdatedAt: l.now(),
	}
	for _, t := range AllTypes() {
		balance.Remaining[t] = Entitlement(t, rc)
	}

	if err := l.balances.Save(ctx, balance); err != nil {
		return Balance{}, fmt.Errorf("failed to materialize balance: %w", err)
	}
	return balance, nil
}

func (l *Ledger) employee(ctx context.Context, id EmployeeID) (*Employee, error) {
	emp, err := l.employees.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if emp == nil {
		return nil, ErrEmployeeNotFound
	}
	return emp, nil
}
