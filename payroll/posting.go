package payroll

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// POSTING - Approved rows to one balanced journal transaction
// =============================================================================

// PostingStore persists postings alongside their journal lines so a later
// reversal can mirror them.
type PostingStore interface {
	// FindPosted returns the Posted record for (month, year), or (nil, nil).
	FindPosted(ctx context.Context, month time.Month, year int) (*Posting, error)
	Get(ctx context.Context, id string) (*Posting, error)
	Save(ctx context.Context, p Posting, entries []JournalEntry) error
	Entries(ctx context.Context, journalEntryID string) ([]JournalEntry, error)
	SetStatus(ctx context.Context, id string, status PostingStatus) error
}

// TransactionSink receives the balanced journal lines. The ledger proper
// lives behind this interface; the posting service only builds and checks.
type TransactionSink interface {
	PostTransactions(ctx context.Context, journalEntryID string, entries []JournalEntry) error
}

// PostInput carries one month's approved rows into Post.
type PostInput struct {
	Month    time.Month
	Year     int
	PostedBy string
	Rows     []Row
	Codes    AccountCodes
}

// PostingService owns journal-entry creation and the one-Posted-per-month
// guard.
type PostingService struct {
	Postings PostingStore
	Accounts AccountDirectory
	Sink     TransactionSink

	now   func() time.Time
	newID func() string
}

func NewPostingService(postings PostingStore, accounts AccountDirectory, sink TransactionSink) *PostingService {
	return &PostingService{
		Postings: postings,
		Accounts: accounts,
		Sink:     sink,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Post sums the approved rows, resolves the ledger accounts, builds one
// debit per expense account and one credit per payable account, drops
// zero-amount lines, and persists a Posted record. All-or-nothing: any
// validation failure writes nothing.
//
// Balance model: the insurance payable credit carries both the employee
// and the employer share, matching the employer-insurance expense debit.
func (s *PostingService) Post(ctx context.Context, in PostInput) (*Posting, error) {
	existing, err := s.Postings.FindPosted(ctx, in.Month, in.Year)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &AlreadyPostedError{Month: in.Month, Year: in.Year}
	}

	t, ok := sumApproved(in.Rows)
	if !ok {
		return nil, ErrNoApprovedRows
	}

	slots := []accountSlot{
		{code: in.Codes.SalariesExpense, pattern: "salaries", side: Debit,
			memo: "Salaries expense", amount: t.base.Sub(t.attendance)},
		{code: in.Codes.Incentives, pattern: "incentive", side: Debit,
			memo: "Incentives expense", amount: t.incentives},
		{code: in.Codes.Allowances, pattern: "allowance", side: Debit,
			memo: "Allowances expense", amount: t.allowances},
		{code: in.Codes.EmployerInsurance, pattern: "insurance expense", side: Debit,
			memo: "Employer insurance contribution", amount: t.insuranceEmployer},
		{code: in.Codes.InsurancePayable, pattern: "insurance payable", side: Credit,
			memo:   "Insurance payable (employee and employer shares)",
			amount: t.insuranceEmployee.Add(t.insuranceEmployer)},
		{code: in.Codes.TaxPayable, pattern: "tax payable", side: Credit,
			memo: "Income tax payable", amount: t.tax},
		{code: in.Codes.EmergencyFund, pattern: "emergency fund", side: Credit,
			memo: "Emergency fund payable", amount: t.emergencyFund},
		{code: in.Codes.CashBank, pattern: "cash", side: Credit,
			memo: "Net salaries paid", amount: t.net},
	}

	entries, err := s.buildEntries(ctx, slots)
	if err != nil {
		return nil, err
	}
	if err := checkBalanced(entries); err != nil {
		return nil, err
	}

	p := Posting{
		ID:             s.newID(),
		Month:          in.Month,
		Year:           in.Year,
		JournalEntryID: s.newID(),
		PostedAt:       s.now(),
		PostedBy:       in.PostedBy,
		Status:         PostingPosted,
	}
	if err := s.Sink.PostTransactions(ctx, p.JournalEntryID, entries); err != nil {
		return nil, err
	}
	if err := s.Postings.Save(ctx, p, entries); err != nil {
		return nil, err
	}
	return &p, nil
}

// Reverse mirrors a Posted posting's journal lines (debits become credits
// and vice versa) into a fresh journal entry and marks the posting
// Reversed. A month with a Reversed posting can be posted again.
func (s *PostingService) Reverse(ctx context.Context, postingID, reversedBy string) (*Posting, error) {
	p, err := s.Postings.Get(ctx, postingID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPostingNotFound
	}
	if p.Status != PostingPosted {
		return nil, ErrNotPosted
	}

	original, err := s.Postings.Entries(ctx, p.JournalEntryID)
	if err != nil {
		return nil, err
	}
	mirrored := make([]JournalEntry, 0, len(original))
	for _, e := range original {
		side := Credit
		if e.Side == Credit {
			side = Debit
		}
		mirrored = append(mirrored, JournalEntry{
			AccountID:   e.AccountID,
			AccountName: e.AccountName,
			Side:        side,
			Amount:      e.Amount,
			Memo:        "Reversal: " + e.Memo,
		})
	}

	reversalJournalID := s.newID()
	if err := s.Sink.PostTransactions(ctx, reversalJournalID, mirrored); err != nil {
		return nil, err
	}
	if err := s.Postings.SetStatus(ctx, p.ID, PostingReversed); err != nil {
		return nil, err
	}
	p.Status = PostingReversed
	return p, nil
}

// rowTotals sums each monetary field across approved rows.
type rowTotals struct {
	base, incentives, allowances decimal.Decimal
	attendance                   decimal.Decimal
	insuranceEmployee            decimal.Decimal
	insuranceEmployer            decimal.Decimal
	tax, emergencyFund, net      decimal.Decimal
}

func sumApproved(rows []Row) (rowTotals, bool) {
	var t rowTotals
	any := false
	for _, r := range rows {
		if !r.Approved {
			continue
		}
		any = true
		t.base = t.base.Add(r.BaseSalary)
		t.incentives = t.incentives.Add(r.Incentives)
		t.allowances = t.allowances.Add(r.Allowances)
		t.attendance = t.attendance.Add(r.AttendanceDeductions)
		t.insuranceEmployee = t.insuranceEmployee.Add(r.InsuranceEmployee)
		t.insuranceEmployer = t.insuranceEmployer.Add(r.InsuranceEmployer)
		t.tax = t.tax.Add(r.TaxDeduction)
		t.emergencyFund = t.emergencyFund.Add(r.EmergencyFund)
		t.net = t.net.Add(r.NetSalary)
	}
	return t, any
}

// buildEntries resolves each slot's account and emits its journal line,
// dropping zero amounts after 2dp rounding.
func (s *PostingService) buildEntries(ctx context.Context, slots []accountSlot) ([]JournalEntry, error) {
	entries := make([]JournalEntry, 0, len(slots))
	for _, slot := range slots {
		amount := slot.amount.Round(2)
		if amount.IsZero() {
			continue
		}
		acc, err := slot.resolve(ctx, s.Accounts)
		if err != nil {
			return nil, err
		}
		entries = append(entries, JournalEntry{
			AccountID:   acc.ID,
			AccountName: acc.Name,
			Side:        slot.side,
			Amount:      amount,
			Memo:        slot.memo,
		})
	}
	return entries, nil
}

func checkBalanced(entries []JournalEntry) error {
	debits, credits := decimal.Zero, decimal.Zero
	for _, e := range entries {
		if e.Side == Debit {
			debits = debits.Add(e.Amount)
		} else {
			credits = credits.Add(e.Amount)
		}
	}
	if !debits.Round(2).Equal(credits.Round(2)) {
		return &UnbalancedEntryError{Debits: debits, Credits: credits}
	}
	return nil
}
