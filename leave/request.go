/*
request.go - Leave request/approval state machine

PURPOSE:

	Holds leave requests through their lifecycle:

	  Pending ──▶ Approved   (ledger debited, attendance overrides generated)
	          └─▶ Rejected   (no side effects)

	Both outcomes are terminal. Approving an already-approved request fails
	with ErrNotPending rather than double-debiting the ledger, and rejecting
	an approved request fails the same way - the ledger debit is never
	reversed by a status flip.

TWO-PHASE VALIDATION:

	Add() checks the cumulative cap across ALL non-rejected requests for the
	(employee, year, type) - a submission-time guard against queueing more
	than the year allows. Approve() re-checks against APPROVED totals only,
	the stricter commit-time check, then defers balance sufficiency to the
	ledger, which performs the debit atomically under its key lock.

SEE ALSO:
  - ledger.go: ApplyUsage, the single entry point for debits
  - attendance: consumes the Override entries generated here
*/
package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// REQUEST SERVICE
// =============================================================================

type RequestService struct {
	Ledger    *Ledger
	Requests  RequestStore
	Overrides OverrideSink
	Employees EmployeeDirectory

	now func() time.Time
}

func NewRequestService(ledger *Ledger, requests RequestStore, overrides OverrideSink, employees EmployeeDirectory) *RequestService {
	return &RequestService{
		Ledger:    ledger,
		Requests:  requests,
		Overrides: overrides,
		Employees: employees,
		now:       time.Now,
	}
}

// AddInput is the submission payload.
type AddInput struct {
	EmployeeID EmployeeID
	Type       Type
	StartDate  time.Time
	EndDate    time.Time
	Notes      string

	// InsuranceDecision applies to sick leave only.
	InsuranceDecision *bool
}

// Add validates and stores a new pending request. Validation errors are
// returned, never silently clamped.
func (s *RequestService) Add(ctx context.Context, in AddInput) (*Request, error) {
	if in.EndDate.Before(in.StartDate) {
		return nil, fmt.Errorf("end date %s before start date %s",
			in.EndDate.Format("2006-01-02"), in.StartDate.Format("2006-01-02"))
	}

	emp, err := s.employee(ctx, in.EmployeeID)
	if err != nil {
		return nil, err
	}

	year := in.StartDate.Year()
	policy := ResolvePolicy(in.Type, ResolveContextFor(*emp, year))
	if !policy.EligibleFor(emp.Gender) {
		return nil, ErrGenderIneligible
	}

	req := Request{
		ID:                uuid.NewString(),
		EmployeeID:        in.EmployeeID,
		Type:              in.Type,
		StartDate:         dateOnly(in.StartDate),
		EndDate:           dateOnly(in.EndDate),
		Status:            StatusPending,
		AffectsSalary:     policy.AffectsSalary,
		AffectsInsurance:  policy.AffectsInsurance,
		PaidBy:            policy.PaidBy,
		InsuranceDecision: in.InsuranceDecision,
		Notes:             in.Notes,
		CreatedAt:         s.now(),
	}
	req.TotalDays = decimal.NewFromInt(int64(len(req.Days())))

	if policy.HasMaxDuration && req.TotalDays.GreaterThan(policy.MaxDaysPerRequest) {
		return nil, &DurationExceededError{
			Type: in.Type, Max: policy.MaxDaysPerRequest, Requested: req.TotalDays,
		}
	}

	// Cumulative cap across ALL non-rejected requests, not just approved
	// ones: pending requests reserve room against the yearly cap.
	requested, err := s.requestedDays(ctx, in.EmployeeID, year, in.Type, false)
	if err != nil {
		return nil, err
	}
	if requested.Add(req.TotalDays).GreaterThan(policy.YearlyCap) {
		return nil, &CapExceededError{
			EmployeeID: in.EmployeeID, Year: year, Type: in.Type,
			Cap: policy.YearlyCap, Used: requested, Requested: req.TotalDays,
		}
	}

	if err := s.Requests.Save(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to save request: %w", err)
	}
	return &req, nil
}

// Approve commits a pending request: the stricter approved-totals cap
// check, the ledger debit, and the attendance-override generation.
func (s *RequestService) Approve(ctx context.Context, id string, approverID string) error {
	req, err := s.pending(ctx, id)
	if err != nil {
		return err
	}

	emp, err := s.employee(ctx, req.EmployeeID)
	if err != nil {
		return err
	}

	year := req.StartDate.Year()
	policy := ResolvePolicy(req.Type, ResolveContextFor(*emp, year))
	if !policy.EligibleFor(emp.Gender) {
		return ErrGenderIneligible
	}

	// Commit-time check: approved totals only.
	approved, err := s.requestedDays(ctx, req.EmployeeID, year, req.Type, true)
	if err != nil {
		return err
	}
	if approved.Add(req.TotalDays).GreaterThan(policy.YearlyCap) {
		return &CapExceededError{
			EmployeeID: req.EmployeeID, Year: year, Type: req.Type,
			Cap: policy.YearlyCap, Used: approved, Requested: req.TotalDays,
		}
	}

	// The ledger enforces balance sufficiency and appends the usage
	// transaction atomically under its (employee, year) lock.
	err = s.Ledger.ApplyUsage(ctx, UsageInput{
		EmployeeID: req.EmployeeID,
		Year:       year,
		Type:       req.Type,
		Days:       req.TotalDays,
		Source:     SourceRequestApproval,
		RequestID:  req.ID,
		Approved:   true,
	})
	if err != nil {
		return err
	}

	now := s.now()
	req.Status = StatusApproved
	req.DecidedAt = &now
	req.DecidedBy = approverID
	if err := s.Requests.Save(ctx, *req); err != nil {
		return fmt.Errorf("failed to save approved request: %w", err)
	}

	return s.Overrides.RecordBatch(ctx, buildOverrides(*req, policy))
}

// Reject marks a pending request rejected. No ledger or attendance effects.
func (s *RequestService) Reject(ctx context.Context, id string, rejecterID string) error {
	req, err := s.pending(ctx, id)
	if err != nil {
		return err
	}

	now := s.now()
	req.Status = StatusRejected
	req.DecidedAt = &now
	req.DecidedBy = rejecterID
	return s.Requests.Save(ctx, *req)
}

// Get returns a request by id.
func (s *RequestService) Get(ctx context.Context, id string) (*Request, error) {
	req, err := s.Requests.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}
	return req, nil
}

// =============================================================================
// OVERRIDE GENERATION
// =============================================================================

// buildOverrides materializes one attendance entry per calendar day in the
// request's range. For sick leave the insurance coverage comes from the
// per-request decision flag; for every other type, from policy.
func buildOverrides(req Request, policy Policy) []Override {
	insuranceCovered := !policy.AffectsInsurance
	if req.Type == TypeSick && req.InsuranceDecision != nil {
		insuranceCovered = *req.InsuranceDecision
	}

	paidPerDay := decimal.Zero
	if policy.IsPaid {
		paidPerDay = decimal.NewFromInt(1)
	}

	days := req.Days()
	overrides := make([]Override, 0, len(days))
	for _, day := range days {
		overrides = append(overrides, Override{
			EmployeeID:       req.EmployeeID,
			Date:             day,
			LeaveType:        req.Type,
			RequestID:        req.ID,
			PaidDays:         paidPerDay,
			InsuranceCovered: insuranceCovered,
			CountsAsAbsent:   policy.AffectsSalary,
		})
	}
	return overrides
}

// =============================================================================
// HELPERS
// =============================================================================

// requestedDays sums TotalDays across the employee's requests for the year
// and type. approvedOnly=false counts pending and approved; rejected
// requests never count.
func (s *RequestService) requestedDays(ctx context.Context, employeeID EmployeeID, year int, t Type, approvedOnly bool) (decimal.Decimal, error) {
	reqs, err := s.Requests.ListByYearType(ctx, employeeID, year, t)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, r := range reqs {
		switch r.Status {
		case StatusApproved:
			total = total.Add(r.TotalDays)
		case StatusPending:
			if !approvedOnly {
				total = total.Add(r.TotalDays)
			}
		}
	}
	return total, nil
}

func (s *RequestService) pending(ctx context.Context, id string) (*Request, error) {
	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, ErrNotPending
	}
	return req, nil
}

func (s *RequestService) employee(ctx context.Context, id EmployeeID) (*Employee, error) {
	emp, err := s.Employees.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if emp == nil {
		return nil, ErrEmployeeNotFound
	}
	return emp, nil
}
