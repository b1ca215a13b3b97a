package leave_test

import (
	"context"
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

func newTestRequestService(t *testing.T) (*leave.RequestService, *leave.Ledger, *memory.Store) {
	t.Helper()
	ledger, store := newTestLedger(t)
	svc := leave.NewRequestService(ledger, store.Requests(), store.OverrideSink(), store.Employees())
	return svc, ledger, store
}

func day(month time.Month, d int) time.Time {
	return time.Date(2026, month, d, 0, 0, 0, 0, time.UTC)
}

func addInput(employeeID string, t leave.Type, start, end time.Time) leave.AddInput {
	return leave.AddInput{
		EmployeeID: leave.EmployeeID(employeeID),
		Type:       t,
		StartDate:  start,
		EndDate:    end,
	}
}

// =============================================================================
// SUBMISSION VALIDATION
// =============================================================================

func TestAdd_ValidRequest_Pending(t *testing.T) {
	svc, _, _ := newTestRequestService(t)

	req, err := svc.Add(context.Background(),
		addInput("emp-1", leave.TypeCasual, day(time.March, 2), day(time.March, 4)))

	require.NoError(t, err)
	assert.Equal(t, leave.StatusPending, req.Status)
	assert.True(t, req.TotalDays.Equal(dec(3)))
	assert.False(t, req.AffectsSalary)
}

func TestAdd_EndBeforeStart_Rejected(t *testing.T) {
	svc, _, _ := newTestRequestService(t)

	_, err := svc.Add(context.Background(),
		addInput("emp-1", leave.TypeCasual, day(time.March, 4), day(time.March, 2)))

	assert.Error(t, err)
}

func TestAdd_GenderIneligible_Rejected(t *testing.T) {
	svc, _, _ := newTestRequestService(t)

	_, err := svc.Add(context.Background(),
		addInput("emp-2", leave.TypeChildCare, day(time.March, 2), day(time.March, 4)))

	assert.ErrorIs(t, err, leave.ErrGenderIneligible)
}

func TestAdd_SickBeyondPerRequestCap_Rejected(t *testing.T) {
	// GIVEN: Sick leave capped at 30 days per request
	// WHEN: Requesting 31 consecutive days
	// THEN: RequestDurationExceeded

	svc, _, _ := newTestRequestService(t)

	_, err := svc.Add(context.Background(),
		addInput("emp-1", leave.TypeSick, day(time.March, 1), day(time.March, 31)))

	require.Error(t, err)
	assert.ErrorIs(t, err, leave.ErrRequestDurationExceeded)
	var durErr *leave.DurationExceededError
	require.ErrorAs(t, err, &durErr)
	assert.True(t, durErr.Requested.Equal(dec(31)))
}

func TestAdd_CumulativeCap_CountsPendingRequests(t *testing.T) {
	// GIVEN: A pending 4-day casual request against the 6-day yearly cap
	// WHEN: Adding 3 more casual days
	// THEN: PolicyCapExceeded - pending requests reserve room too

	svc, _, _ := newTestRequestService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, addInput("emp-1", leave.TypeCasual, day(time.March, 2), day(time.March, 5)))
	require.NoError(t, err)

	_, err = svc.Add(ctx, addInput("emp-1", leave.TypeCasual, day(time.April, 1), day(time.April, 3)))

	assert.ErrorIs(t, err, leave.ErrPolicyCapExceeded)
}

func TestAdd_RejectedRequests_FreeTheirRoom(t *testing.T) {
	svc, _, _ := newTestRequestService(t)
	ctx := context.Background()

	first, err := svc.Add(ctx, addInput("emp-1", leave.TypeCasual, day(time.March, 2), day(time.March, 5)))
	require.NoError(t, err)
	require.NoError(t, svc.Reject(ctx, first.ID, "admin-1"))

	_, err = svc.Add(ctx, addInput("emp-1", leave.TypeCasual, day(time.April, 1), day(time.April, 3)))

	assert.NoError(t, err)
}

// =============================================================================
// APPROVAL
// =============================================================================

func TestApprove_DebitsLedgerAndGeneratesOverrides(t *testing.T) {
	// GIVEN: A pending 3-day casual request
	// WHEN: Approving it
	// THEN: The ledger is debited and one paid override exists per day

	svc, ledger, store := newTestRequestService(t)
	ctx := context.Background()

	req, err := svc.Add(ctx, addInput("emp-1", leave.TypeCasual, day(time.March, 2), day(time.March, 4)))
	require.NoError(t, err)

	require.NoError(t, svc.Approve(ctx, req.ID, "admin-1"))

	b, err := ledger.Balance(ctx, "emp-1", 2026)
	require.NoError(t, err)
	assert.True(t, b.Remaining[leave.TypeCasual].Equal(dec(3)))

	approved, err := svc.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, approved.Status)
	assert.Equal(t, "admin-1", approved.DecidedBy)

	for _, d := range []int{2, 3, 4} {
		overrides, err := store.ListForDate(ctx, "emp-1", day(time.March, d))
		require.NoError(t, err)
		require.Len(t, overrides, 1)
		assert.Equal(t, leave.TypeCasual, overrides[0].LeaveType)
		assert.True(t, overrides[0].PaidDays.Equal(dec(1)))
		assert.False(t, overrides[0].CountsAsAbsent)
		assert.True(t, overrides[0].InsuranceCovered)
	}
}

func TestApprove_SickLeave_UsesInsuranceDecision(t *testing.T) {
	// For sick leave the per-request insurance decision flag wins over
	// the policy default.
	svc, _, store := newTestRequestService(t)
	ctx := context.Background()

	covered := false
	in := addInput("emp-1", leave.TypeSick, day(time.March, 2), day(time.March, 3))
	in.InsuranceDecision = &covered

	req, err := svc.Add(ctx, in)
	require.NoError(t, err)
	require.NoError(t, svc.Approve(ctx, req.ID, "admin-1"))

	overrides, err := store.ListForDate(ctx, "emp-1", day(time.March, 2))
	require.NoError(t, err)
	require.Len(t, overrides, 1)
	assert.False(t, overrides[0].InsuranceCovered)
	// Sick leave is unpaid and counts as absence.
	assert.True(t, overrides[0].PaidDays.IsZero())
	assert.True(t, overrides[0].CountsAsAbsent)
}

func TestApprove_Twice_NoDoubleDebit(t *testing.T) {
	// GIVEN: An approved request
	// WHEN: Approving it again
	// THEN: ErrNotPending, and the ledger is debited exactly once

	svc, ledger, _ := newTestRequestService(t)
	ctx := context.Background()

	req, err := svc.Add(ctx, addInput("emp-1", leave.TypeCasual, day(time.March, 2), day(time.March, 4)))
	require.NoError(t, err)
	require.NoError(t, svc.Approve(ctx, req.ID, "admin-1"))

	err = svc.Approve(ctx, req.ID, "admin-1")

	assert.ErrorIs(t, err, leave.ErrNotPending)

	b, _ := ledger.Balance(ctx, "emp-1", 2026)
	assert.True(t, b.Remaining[leave.TypeCasual].Equal(dec(3)), "single debit only")
}

func TestApprove_InsufficientLedgerBalance_Fails(t *testing.T) {
	// A pending request survives submission but fails commit when the
	// ledger cannot cover it.
	svc, ledger, _ := newTestRequestService(t)
	ctx := context.Background()

	req, err := svc.Add(ctx, addInput("emp-1", leave.TypeCasual, day(time.March, 2), day(time.March, 5)))
	require.NoError(t, err)

	require.NoError(t, ledger.AdjustBalance(ctx, "emp-1", 2026, leave.TypeCasual, dec(-4)))

	err = svc.Approve(ctx, req.ID, "admin-1")

	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)

	pending, _ := svc.Get(ctx, req.ID)
	assert.Equal(t, leave.StatusPending, pending.Status, "failed approval leaves the request pending")
}

func TestApprove_UnknownRequest_NotFound(t *testing.T) {
	svc, _, _ := newTestRequestService(t)

	err := svc.Approve(context.Background(), "ghost", "admin-1")

	assert.ErrorIs(t, err, leave.ErrRequestNotFound)
}

// =============================================================================
// REJECTION
// =============================================================================

func TestReject_NoSideEffects(t *testing.T) {
	svc, ledger, store := newTestRequestService(t)
	ctx := context.Background()

	req, err := svc.Add(ctx, addInput("emp-1", leave.TypeCasual, day(time.March, 2), day(time.March, 4)))
	require.NoError(t, err)

	require.NoError(t, svc.Reject(ctx, req.ID, "admin-1"))

	rejected, err := svc.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusRejected, rejected.Status)

	b, _ := ledger.Balance(ctx, "emp-1", 2026)
	assert.True(t, b.Remaining[leave.TypeCasual].Equal(dec(6)), "ledger untouched")

	overrides, _ := store.ListForDate(ctx, "emp-1", day(time.March, 2))
	assert.Empty(t, overrides)
}

func TestReject_ApprovedRequest_Terminal(t *testing.T) {
	// Approval is terminal: a later rejection must not reverse the debit.
	svc, ledger, _ := newTestRequestService(t)
	ctx := context.Background()

	req, err := svc.Add(ctx, addInput("emp-1", leave.TypeCasual, day(time.March, 2), day(time.March, 4)))
	require.NoError(t, err)
	require.NoError(t, svc.Approve(ctx, req.ID, "admin-1"))

	err = svc.Reject(ctx, req.ID, "admin-2")

	assert.ErrorIs(t, err, leave.ErrNotPending)

	b, _ := ledger.Balance(ctx, "emp-1", 2026)
	assert.True(t, b.Remaining[leave.TypeCasual].Equal(dec(3)), "debit stands")
}
