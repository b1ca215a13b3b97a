// Package memory provides the in-memory store implementation (tests, dev).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/edustaff/hr-core/attendance"
	"github.com/edustaff/hr-core/leave"
	"github.com/edustaff/hr-core/payroll"
	"github.com/shopspring/decimal"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

// Store backs every repository interface of the leave, attendance, and
// payroll packages with mutex-guarded maps. Reads return copies so callers
// can never alias internal state.
type Store struct {
	mu sync.RWMutex

	balances  map[balanceKey]leave.Balance
	txs       map[balanceKey][]leave.Transaction
	requests  map[string]leave.Request
	overrides map[leave.EmployeeID][]leave.Override
	employees map[leave.EmployeeID]leave.Employee

	records map[recordKey]attendance.Record

	settings    payroll.Settings
	settingsSet bool
	postings    map[string]payroll.Posting
	journal     map[string][]payroll.JournalEntry
	accounts    []payroll.Account
}

type balanceKey struct {
	EmployeeID leave.EmployeeID
	Year       int
}

type recordKey struct {
	EmployeeID leave.EmployeeID
	Date       string // "2006-01-02"
}

func New() *Store {
	return &Store{
		balances:  make(map[balanceKey]leave.Balance),
		txs:       make(map[balanceKey][]leave.Transaction),
		requests:  make(map[string]leave.Request),
		overrides: make(map[leave.EmployeeID][]leave.Override),
		employees: make(map[leave.EmployeeID]leave.Employee),
		records:   make(map[recordKey]attendance.Record),
		postings:  make(map[string]payroll.Posting),
		journal:   make(map[string][]payroll.JournalEntry),
	}
}

// =============================================================================
// INTERFACE VIEWS
// =============================================================================
// Each repository interface reuses method names (Get, Save), so the Store
// hands out one thin view per concern instead of implementing them all on
// the same receiver.

func (s *Store) Balances() leave.BalanceStore         { return balancesView{s} }
func (s *Store) Transactions() leave.TransactionStore { return s }
func (s *Store) Requests() leave.RequestStore         { return requestsView{s} }
func (s *Store) OverrideSink() leave.OverrideSink     { return s }
func (s *Store) Overrides() attendance.OverrideSource { return s }
func (s *Store) Employees() leave.EmployeeDirectory   { return employeesView{s} }
func (s *Store) Records() attendance.RecordStore      { return recordsView{s} }
func (s *Store) Settings() payroll.SettingsStore      { return s }
func (s *Store) Postings() payroll.PostingStore       { return postingsView{s} }
func (s *Store) Accounts() payroll.AccountDirectory   { return s }
func (s *Store) JournalSink() payroll.TransactionSink { return s }

type balancesView struct{ s *Store }

func (v balancesView) Get(ctx context.Context, employeeID leave.EmployeeID, year int) (*leave.Balance, error) {
	return v.s.GetBalance(ctx, employeeID, year)
}
func (v balancesView) Save(ctx context.Context, b leave.Balance) error {
	return v.s.SaveBalance(ctx, b)
}

type requestsView struct{ s *Store }

func (v requestsView) Save(ctx context.Context, r leave.Request) error {
	return v.s.SaveRequest(ctx, r)
}
func (v requestsView) Get(ctx context.Context, id string) (*leave.Request, error) {
	return v.s.GetRequest(ctx, id)
}
func (v requestsView) ListByYearType(ctx context.Context, employeeID leave.EmployeeID, year int, t leave.Type) ([]leave.Request, error) {
	return v.s.ListRequestsByYearType(ctx, employeeID, year, t)
}

type employeesView struct{ s *Store }

func (v employeesView) Get(ctx context.Context, id leave.EmployeeID) (*leave.Employee, error) {
	return v.s.GetEmployee(ctx, id)
}

type recordsView struct{ s *Store }

func (v recordsView) Save(ctx context.Context, r attendance.Record) error {
	return v.s.SaveRecord(ctx, r)
}
func (v recordsView) Get(ctx context.Context, employeeID leave.EmployeeID, date time.Time) (*attendance.Record, error) {
	return v.s.GetRecord(ctx, employeeID, date)
}
func (v recordsView) ListMonth(ctx context.Context, employeeID leave.EmployeeID, year int, month time.Month) ([]attendance.Record, error) {
	return v.s.ListMonth(ctx, employeeID, year, month)
}

type postingsView struct{ s *Store }

func (v postingsView) FindPosted(ctx context.Context, month time.Month, year int) (*payroll.Posting, error) {
	return v.s.FindPosted(ctx, month, year)
}
func (v postingsView) Get(ctx context.Context, id string) (*payroll.Posting, error) {
	return v.s.GetPosting(ctx, id)
}
func (v postingsView) Save(ctx context.Context, p payroll.Posting, entries []payroll.JournalEntry) error {
	return v.s.SavePosting(ctx, p, entries)
}
func (v postingsView) Entries(ctx context.Context, journalEntryID string) ([]payroll.JournalEntry, error) {
	return v.s.Entries(ctx, journalEntryID)
}
func (v postingsView) SetStatus(ctx context.Context, id string, status payroll.PostingStatus) error {
	return v.s.SetPostingStatus(ctx, id, status)
}

// =============================================================================
// LEAVE: BALANCES
// =============================================================================

func (s *Store) GetBalance(_ context.Context, employeeID leave.EmployeeID, year int) (*leave.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.balances[balanceKey{EmployeeID: employeeID, Year: year}]
	if !ok {
		return nil, nil
	}
	c := b.Clone()
	return &c, nil
}

func (s *Store) SaveBalance(_ context.Context, b leave.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[balanceKey{EmployeeID: b.EmployeeID, Year: b.Year}] = b.Clone()
	return nil
}

// =============================================================================
// LEAVE: TRANSACTIONS - Append-only
// =============================================================================

func (s *Store) Append(_ context.Context, tx leave.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := balanceKey{EmployeeID: tx.EmployeeID, Year: tx.Year}
	s.txs[k] = append(s.txs[k], tx)
	return nil
}

func (s *Store) List(_ context.Context, employeeID leave.EmployeeID, year int) ([]leave.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k := balanceKey{EmployeeID: employeeID, Year: year}
	out := make([]leave.Transaction, len(s.txs[k]))
	copy(out, s.txs[k])
	return out, nil
}

func (s *Store) UsedDays(_ context.Context, employeeID leave.EmployeeID, year int, t leave.Type) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := decimal.Zero
	for _, tx := range s.txs[balanceKey{EmployeeID: employeeID, Year: year}] {
		if tx.Type == t {
			total = total.Add(tx.Days)
		}
	}
	return total, nil
}

// =============================================================================
// LEAVE: REQUESTS
// =============================================================================

func (s *Store) SaveRequest(_ context.Context, r leave.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[r.ID] = r
	return nil
}

func (s *Store) GetRequest(_ context.Context, id string) (*leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *Store) ListRequestsByYearType(_ context.Context, employeeID leave.EmployeeID, year int, t leave.Type) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []leave.Request
	for _, r := range s.requests {
		if r.EmployeeID == employeeID && r.StartDate.Year() == year && r.Type == t {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

// =============================================================================
// LEAVE: OVERRIDES
// =============================================================================

func (s *Store) RecordBatch(_ context.Context, overrides []leave.Override) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range overrides {
		s.overrides[o.EmployeeID] = append(s.overrides[o.EmployeeID], o)
	}
	return nil
}

func (s *Store) ListForDate(_ context.Context, employeeID leave.EmployeeID, date time.Time) ([]leave.Override, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []leave.Override
	for _, o := range s.overrides[employeeID] {
		if sameDay(o.Date, date) {
			out = append(out, o)
		}
	}
	return out, nil
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) PutEmployee(e leave.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[e.ID] = e
}

func (s *Store) GetEmployee(_ context.Context, id leave.EmployeeID) (*leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.employees[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

// =============================================================================
// ATTENDANCE: RECORDS
// =============================================================================

func (s *Store) SaveRecord(_ context.Context, r attendance.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[recordKeyFor(r.EmployeeID, r.Date)] = r
	return nil
}

func (s *Store) GetRecord(_ context.Context, employeeID leave.EmployeeID, date time.Time) (*attendance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[recordKeyFor(employeeID, date)]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *Store) ListMonth(_ context.Context, employeeID leave.EmployeeID, year int, month time.Month) ([]attendance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []attendance.Record
	for _, r := range s.records {
		if r.EmployeeID == employeeID && r.Date.Year() == year && r.Date.Month() == month {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func recordKeyFor(employeeID leave.EmployeeID, date time.Time) recordKey {
	return recordKey{EmployeeID: employeeID, Date: date.Format("2006-01-02")}
}

// =============================================================================
// PAYROLL: SETTINGS - Replaced wholesale
// =============================================================================

func (s *Store) Load(_ context.Context) (payroll.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings, nil
}

func (s *Store) Replace(_ context.Context, settings payroll.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	s.settingsSet = true
	return nil
}

// =============================================================================
// PAYROLL: POSTINGS AND JOURNAL
// =============================================================================

func (s *Store) FindPosted(_ context.Context, month time.Month, year int) (*payroll.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.postings {
		if p.Month == month && p.Year == year && p.Status == payroll.PostingPosted {
			out := p
			return &out, nil
		}
	}
	return nil, nil
}

func (s *Store) GetPosting(_ context.Context, id string) (*payroll.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.postings[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *Store) SavePosting(_ context.Context, p payroll.Posting, entries []payroll.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.postings[p.ID] = p
	stored := make([]payroll.JournalEntry, len(entries))
	copy(stored, entries)
	s.journal[p.JournalEntryID] = stored
	return nil
}

func (s *Store) Entries(_ context.Context, journalEntryID string) ([]payroll.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]payroll.JournalEntry, len(s.journal[journalEntryID]))
	copy(out, s.journal[journalEntryID])
	return out, nil
}

func (s *Store) SetPostingStatus(_ context.Context, id string, status payroll.PostingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.postings[id]
	if !ok {
		return payroll.ErrPostingNotFound
	}
	p.Status = status
	s.postings[id] = p
	return nil
}

// PostTransactions records the journal lines. In-memory there is no ledger
// beyond the journal map itself.
func (s *Store) PostTransactions(_ context.Context, journalEntryID string, entries []payroll.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]payroll.JournalEntry, len(entries))
	copy(stored, entries)
	s.journal[journalEntryID] = stored
	return nil
}

// =============================================================================
// PAYROLL: CHART OF ACCOUNTS
// =============================================================================

func (s *Store) PutAccount(a payroll.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = append(s.accounts, a)
}

func (s *Store) FindByCode(_ context.Context, code string) (*payroll.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if a.Code == code {
			out := a
			return &out, nil
		}
	}
	return nil, nil
}

func (s *Store) FindByNamePattern(_ context.Context, pattern string) (*payroll.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if payroll.MatchAccountName(a.Name, pattern) {
			out := a
			return &out, nil
		}
	}
	return nil, nil
}
