package leave_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/edustaff/hr-core/leave"
	"github.com/edustaff/hr-core/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestLedger(t *testing.T) (*leave.Ledger, *memory.Store) {
	t.Helper()
	store := memory.New()
	store.PutEmployee(leave.Employee{
		ID:       "emp-1",
		Gender:   leave.GenderFemale,
		HireDate: time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC),
	})
	store.PutEmployee(leave.Employee{
		ID:       "emp-2",
		Gender:   leave.GenderMale,
		HireDate: time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC),
	})
	ledger := leave.NewLedger(store.Balances(), store.Transactions(), store.Employees())
	return ledger, store
}

func usage(employeeID string, t leave.Type, days float64) leave.UsageInput {
	return leave.UsageInput{
		EmployeeID: leave.EmployeeID(employeeID),
		Year:       2026,
		Type:       t,
		Days:       dec(days),
		Source:     leave.SourceManualUsage,
		Approved:   true,
	}
}

// =============================================================================
// MATERIALIZATION
// =============================================================================

func TestBalance_FirstAccess_MaterializesFromPolicy(t *testing.T) {
	// GIVEN: A female employee with 5 full years of service, no stored balance
	// WHEN: Reading the 2026 balance
	// THEN: Entitlements come from the policy resolver

	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	b, err := ledger.Balance(ctx, "emp-1", 2026)
	require.NoError(t, err)

	assert.True(t, b.Remaining[leave.TypeCasual].Equal(dec(6)))
	assert.True(t, b.Remaining[leave.TypeAnnual].Equal(dec(21)))
	assert.True(t, b.Remaining[leave.TypeSick].Equal(dec(180)))
	assert.True(t, b.Remaining[leave.TypeMaternity].Equal(dec(90)))
	assert.True(t, b.Remaining[leave.TypeChildCare].Equal(dec(730)))
	assert.True(t, b.Remaining[leave.TypeUnpaid].Equal(dec(365)))
}

func TestBalance_MaleEmployee_FemaleOnlyTypesZero(t *testing.T) {
	ledger, _ := newTestLedger(t)

	b, err := ledger.Balance(context.Background(), "emp-2", 2026)
	require.NoError(t, err)

	assert.True(t, b.Remaining[leave.TypeMaternity].IsZero())
	assert.True(t, b.Remaining[leave.TypeChildCare].IsZero())
	assert.True(t, b.Remaining[leave.TypeAnnual].Equal(dec(21)))
}

func TestBalance_UnknownEmployee_NotFound(t *testing.T) {
	ledger, _ := newTestLedger(t)

	_, err := ledger.Balance(context.Background(), "ghost", 2026)

	assert.ErrorIs(t, err, leave.ErrEmployeeNotFound)
}

// =============================================================================
// USAGE
// =============================================================================

func TestApplyUsage_DebitsBalanceAndAppendsTransaction(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	err := ledger.ApplyUsage(ctx, usage("emp-1", leave.TypeCasual, 2))
	require.NoError(t, err)

	b, err := ledger.Balance(ctx, "emp-1", 2026)
	require.NoError(t, err)
	assert.True(t, b.Remaining[leave.TypeCasual].Equal(dec(4)))

	txs, err := ledger.Transactions(ctx, "emp-1", 2026)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, leave.TypeCasual, txs[0].Type)
	assert.True(t, txs[0].Days.Equal(dec(2)))
}

func TestApplyUsage_InsufficientBalance_Rejected(t *testing.T) {
	// GIVEN: A manual adjustment brought the casual balance down to 1 day
	// WHEN: Applying 2 days (well within the yearly cap)
	// THEN: InsufficientBalance, and the balance stays at 1

	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, ledger.AdjustBalance(ctx, "emp-1", 2026, leave.TypeCasual, dec(-5)))

	err := ledger.ApplyUsage(ctx, usage("emp-1", leave.TypeCasual, 2))

	require.Error(t, err)
	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)
	var insErr *leave.InsufficientBalanceError
	require.ErrorAs(t, err, &insErr)
	assert.True(t, insErr.Available.Equal(dec(1)))

	b, _ := ledger.Balance(ctx, "emp-1", 2026)
	assert.True(t, b.Remaining[leave.TypeCasual].Equal(dec(1)))
}

func TestApplyUsage_CapExceeded_EvenWithAdjustedBalance(t *testing.T) {
	// GIVEN: A manual adjustment pushed casual balance above the 6-day cap
	// WHEN: Applying usage that would exceed the yearly cap in transactions
	// THEN: PolicyCapExceeded; the balance snapshot alone is not trusted

	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, ledger.ApplyUsage(ctx, usage("emp-1", leave.TypeCasual, 5)))
	require.NoError(t, ledger.AdjustBalance(ctx, "emp-1", 2026, leave.TypeCasual, dec(10)))

	err := ledger.ApplyUsage(ctx, usage("emp-1", leave.TypeCasual, 3))

	assert.ErrorIs(t, err, leave.ErrPolicyCapExceeded)
}

func TestApplyUsage_AnnualWithoutApproval_Rejected(t *testing.T) {
	ledger, _ := newTestLedger(t)

	in := usage("emp-1", leave.TypeAnnual, 1)
	in.Approved = false

	err := ledger.ApplyUsage(context.Background(), in)

	assert.ErrorIs(t, err, leave.ErrApprovalRequired)
}

func TestApplyUsage_GenderIneligible_Rejected(t *testing.T) {
	ledger, _ := newTestLedger(t)

	err := ledger.ApplyUsage(context.Background(), usage("emp-2", leave.TypeMaternity, 1))

	assert.ErrorIs(t, err, leave.ErrGenderIneligible)
}

func TestApplyUsage_LockedBalance_Rejected(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, ledger.Lock(ctx, "emp-1", 2026))

	err := ledger.ApplyUsage(ctx, usage("emp-1", leave.TypeCasual, 1))
	assert.ErrorIs(t, err, leave.ErrBalanceLocked)

	// Unlock re-enables mutation.
	require.NoError(t, ledger.Unlock(ctx, "emp-1", 2026))
	assert.NoError(t, ledger.ApplyUsage(ctx, usage("emp-1", leave.TypeCasual, 1)))
}

// =============================================================================
// NON-NEGATIVITY UNDER CONCURRENCY
// =============================================================================

func TestApplyUsage_ConcurrentDebits_NeverNegative(t *testing.T) {
	// GIVEN: 6 casual days and 20 goroutines each grabbing 1 day
	// WHEN: All race through ApplyUsage
	// THEN: Exactly 6 succeed and the balance lands at exactly 0; the
	//       losers fail the cumulative-cap check, never a negative debit

	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- ledger.ApplyUsage(ctx, usage("emp-1", leave.TypeCasual, 1))
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, leave.ErrPolicyCapExceeded)
		}
	}
	assert.Equal(t, 6, succeeded)

	b, err := ledger.Balance(ctx, "emp-1", 2026)
	require.NoError(t, err)
	assert.True(t, b.Remaining[leave.TypeCasual].IsZero())
	assert.False(t, b.Remaining[leave.TypeCasual].IsNegative())
}

// =============================================================================
// ADJUSTMENTS
// =============================================================================

func TestAdjustBalance_NegativeResult_Rejected(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	err := ledger.AdjustBalance(ctx, "emp-1", 2026, leave.TypeCasual, dec(-10))

	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)

	b, _ := ledger.Balance(ctx, "emp-1", 2026)
	assert.True(t, b.Remaining[leave.TypeCasual].Equal(dec(6)))
}

func TestAdjustBalance_PositiveDelta_Credits(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, ledger.AdjustBalance(ctx, "emp-1", 2026, leave.TypeAnnual, dec(4)))

	b, _ := ledger.Balance(ctx, "emp-1", 2026)
	assert.True(t, b.Remaining[leave.TypeAnnual].Equal(dec(25)))
}
