/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:

	Implements every persistence interface of the leave, attendance, and
	payroll packages using SQLite. In production, the same patterns apply
	to PostgreSQL - only minor SQL dialect differences.

INTERFACES IMPLEMENTED:

	leave.BalanceStore:       Per-year balances
	leave.TransactionStore:   Append-only usage log
	leave.RequestStore:       Request lifecycle records
	leave.OverrideSink:       Per-day attendance overrides from approvals
	leave.EmployeeDirectory:  Employee facts for policy resolution
	attendance.RecordStore:   Derived daily records
	attendance.OverrideSource: Approved-leave lookups for record building
	payroll.SettingsStore:    Settings singleton, replaced wholesale
	payroll.PostingStore:     Posting headers and journal lines
	payroll.AccountDirectory: Chart-of-accounts lookups
	payroll.TransactionSink:  Journal line persistence

APPEND-ONLY ENFORCEMENT:

	leave_transactions and journal_entries take INSERTs only. Corrections
	go through balance adjustments and posting reversals, never UPDATE or
	DELETE.

KEY CONSTRAINT:

	idx_postings_month_posted is a UNIQUE partial index on (month, year)
	WHERE status = 'posted'. It backs the one-posting-per-month guard at
	the database level; a reversed posting frees the month.

WAL MODE:

	SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
	multiple readers don't block, single writer at a time.

USAGE:

	store, err := sqlite.New("./data/hr.db")
	if err != nil {
	    log.Fatal(err)
	}
	defer store.Close()

	ledger := leave.NewLedger(store.Balances(), store.Transactions(), store.Employees())

SEE ALSO:
  - store/memory: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/edustaff/hr-core/attendance"
	"github.com/edustaff/hr-core/leave"
	"github.com/edustaff/hr-core/payroll"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection sidesteps SQLITE_BUSY under concurrent writers;
	// the ledger serializes per-key anyway.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		gender TEXT NOT NULL,
		hire_date TEXT NOT NULL,
		annual_override TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS leave_balances (
		employee_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		remaining_json TEXT NOT NULL,
		locked INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (employee_id, year)
	);

	-- Append-only usage log
	CREATE TABLE IF NOT EXISTS leave_transactions (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		type TEXT NOT NULL,
		days TEXT NOT NULL,
		source TEXT NOT NULL,
		request_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_leave_tx_employee_year
		ON leave_transactions(employee_id, year);

	CREATE TABLE IF NOT EXISTS leave_requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		type TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		total_days TEXT NOT NULL,
		status TEXT NOT NULL,
		affects_salary INTEGER NOT NULL,
		affects_insurance INTEGER NOT NULL,
		paid_by TEXT,
		insurance_decision INTEGER,
		notes TEXT,
		created_at TEXT NOT NULL,
		decided_at TEXT,
		decided_by TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_requests_employee_type
		ON leave_requests(employee_id, type, start_date);

	-- Per-day attendance effects frozen at approval time
	CREATE TABLE IF NOT EXISTS leave_overrides (
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		leave_type TEXT NOT NULL,
		request_id TEXT NOT NULL,
		paid_days TEXT NOT NULL,
		insurance_covered INTEGER NOT NULL,
		counts_as_absent INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_overrides_employee_date
		ON leave_overrides(employee_id, date);

	CREATE TABLE IF NOT EXISTS attendance_records (
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		check_in INTEGER,
		check_out INTEGER,
		status TEXT NOT NULL,
		late_minutes INTEGER NOT NULL DEFAULT 0,
		early_leave_minutes INTEGER NOT NULL DEFAULT 0,
		leave_type TEXT,
		notes TEXT,
		PRIMARY KEY (employee_id, date)
	);

	-- Singleton row, replaced wholesale
	CREATE TABLE IF NOT EXISTS payroll_settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		config_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS payroll_postings (
		id TEXT PRIMARY KEY,
		month INTEGER NOT NULL,
		year INTEGER NOT NULL,
		journal_entry_id TEXT NOT NULL,
		posted_at TEXT NOT NULL,
		posted_by TEXT,
		status TEXT NOT NULL
	);

	-- One live posting per month; reversing frees the slot
	CREATE UNIQUE INDEX IF NOT EXISTS idx_postings_month_posted
		ON payroll_postings(month, year) WHERE status = 'posted';

	CREATE TABLE IF NOT EXISTS journal_entries (
		journal_entry_id TEXT NOT NULL,
		line_no INTEGER NOT NULL,
		account_id TEXT NOT NULL,
		account_name TEXT NOT NULL,
		side TEXT NOT NULL,
		amount TEXT NOT NULL,
		memo TEXT,
		PRIMARY KEY (journal_entry_id, line_no)
	);

	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
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
	return v.s.JournalEntries(ctx, journalEntryID)
}
func (v postingsView) SetStatus(ctx context.Context, id string, status payroll.PostingStatus) error {
	return v.s.SetPostingStatus(ctx, id, status)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) SaveEmployee(ctx context.Context, e leave.Employee) error {
	query := `
		INSERT INTO employees (id, name, gender, hire_date, annual_override, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			gender = excluded.gender,
			hire_date = excluded.hire_date,
			annual_override = excluded.annual_override
	`
	_, err := s.db.ExecContext(ctx, query,
		string(e.ID), e.Name, string(e.Gender),
		e.HireDate.UTC().Format(time.RFC3339),
		decimalPtrToString(e.AnnualOverride),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetEmployee(ctx context.Context, id leave.EmployeeID) (*leave.Employee, error) {
	query := `SELECT id, name, gender, hire_date, annual_override FROM employees WHERE id = ?`

	var (
		e        leave.Employee
		empID    string
		gender   string
		hireDate string
		override sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, string(id)).Scan(&empID, &e.Name, &gender, &hireDate, &override)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	e.ID = leave.EmployeeID(empID)
	e.Gender = leave.Gender(gender)
	if e.HireDate, err = time.Parse(time.RFC3339, hireDate); err != nil {
		return nil, fmt.Errorf("corrupt hire_date for employee %s: %w", empID, err)
	}
	if e.AnnualOverride, err = decimalPtrFromString(override); err != nil {
		return nil, fmt.Errorf("corrupt annual_override for employee %s: %w", empID, err)
	}
	return &e, nil
}

// =============================================================================
// LEAVE: BALANCES
// =============================================================================

func (s *Store) GetBalance(ctx context.Context, employeeID leave.EmployeeID, year int) (*leave.Balance, error) {
	query := `
		SELECT remaining_json, locked, updated_at
		FROM leave_balances WHERE employee_id = ? AND year = ?
	`

	var (
		remainingJSON string
		locked        bool
		updatedAt     string
	)
	err := s.db.QueryRowContext(ctx, query, string(employeeID), year).Scan(&remainingJSON, &locked, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	b := leave.Balance{
		EmployeeID: employeeID,
		Year:       year,
		Locked:     locked,
		Remaining:  make(map[leave.Type]decimal.Decimal),
	}
	if err := json.Unmarshal([]byte(remainingJSON), &b.Remaining); err != nil {
		return nil, fmt.Errorf("corrupt balance for %s/%d: %w", employeeID, year, err)
	}
	if b.LastUpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("corrupt updated_at for %s/%d: %w", employeeID, year, err)
	}
	return &b, nil
}

func (s *Store) SaveBalance(ctx context.Context, b leave.Balance) error {
	remainingJSON, err := json.Marshal(b.Remaining)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO leave_balances (employee_id, year, remaining_json, locked, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, year) DO UPDATE SET
			remaining_json = excluded.remaining_json,
			locked = excluded.locked,
			updated_at = excluded.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		string(b.EmployeeID), b.Year, string(remainingJSON), b.Locked,
		b.LastUpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// =============================================================================
// LEAVE: TRANSACTIONS - Append-only
// =============================================================================

func (s *Store) Append(ctx context.Context, tx leave.Transaction) error {
	query := `
		INSERT INTO leave_transactions (id, employee_id, year, type, days, source, request_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		tx.ID, string(tx.EmployeeID), tx.Year, string(tx.Type),
		tx.Days.String(), string(tx.Source), nullString(tx.RequestID),
		tx.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) List(ctx context.Context, employeeID leave.EmployeeID, year int) ([]leave.Transaction, error) {
	query := `
		SELECT id, employee_id, year, type, days, source, request_id, created_at
		FROM leave_transactions
		WHERE employee_id = ? AND year = ?
		ORDER BY created_at, id
	`
	rows, err := s.db.QueryContext(ctx, query, string(employeeID), year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []leave.Transaction
	for rows.Next() {
		var (
			tx        leave.Transaction
			empID     string
			txType    string
			days      string
			source    string
			requestID sql.NullString
			createdAt string
		)
		if err := rows.Scan(&tx.ID, &empID, &tx.Year, &txType, &days, &source, &requestID, &createdAt); err != nil {
			return nil, err
		}
		tx.EmployeeID = leave.EmployeeID(empID)
		tx.Type = leave.Type(txType)
		tx.Source = leave.Source(source)
		tx.RequestID = requestID.String
		if tx.Days, err = decimal.NewFromString(days); err != nil {
			return nil, fmt.Errorf("corrupt days in transaction %s: %w", tx.ID, err)
		}
		if tx.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("corrupt created_at in transaction %s: %w", tx.ID, err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (s *Store) UsedDays(ctx context.Context, employeeID leave.EmployeeID, year int, t leave.Type) (decimal.Decimal, error) {
	// Sum in Go, not SQL: days are stored as decimal strings.
	txs, err := s.List(ctx, employeeID, year)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Type == t {
			total = total.Add(tx.Days)
		}
	}
	return total, nil
}

// =============================================================================
// LEAVE: REQUESTS
// =============================================================================

func (s *Store) SaveRequest(ctx context.Context, r leave.Request) error {
	query := `
		INSERT INTO leave_requests (
			id, employee_id, type, start_date, end_date, total_days, status,
			affects_salary, affects_insurance, paid_by, insurance_decision,
			notes, created_at, decided_at, decided_by
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			decided_at = excluded.decided_at,
			decided_by = excluded.decided_by
	`

	var decidedAt sql.NullString
	if r.DecidedAt != nil {
		decidedAt = sql.NullString{String: r.DecidedAt.UTC().Format(time.RFC3339), Valid: true}
	}
	var insuranceDecision sql.NullBool
	if r.InsuranceDecision != nil {
		insuranceDecision = sql.NullBool{Bool: *r.InsuranceDecision, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		r.ID, string(r.EmployeeID), string(r.Type),
		r.StartDate.UTC().Format(dateLayout), r.EndDate.UTC().Format(dateLayout),
		r.TotalDays.String(), string(r.Status),
		r.AffectsSalary, r.AffectsInsurance, string(r.PaidBy), insuranceDecision,
		r.Notes, r.CreatedAt.UTC().Format(time.RFC3339), decidedAt, nullString(r.DecidedBy),
	)
	return err
}

func (s *Store) GetRequest(ctx context.Context, id string) (*leave.Request, error) {
	out, err := s.queryRequests(ctx, `WHERE id = ?`, id)
	if err != nil || len(out) == 0 {
		return nil, err
	}
	return &out[0], nil
}

func (s *Store) ListRequestsByYearType(ctx context.Context, employeeID leave.EmployeeID, year int, t leave.Type) ([]leave.Request, error) {
	return s.queryRequests(ctx,
		`WHERE employee_id = ? AND type = ? AND start_date >= ? AND start_date <= ? ORDER BY start_date`,
		string(employeeID), string(t),
		fmt.Sprintf("%04d-01-01", year), fmt.Sprintf("%04d-12-31", year),
	)
}

func (s *Store) queryRequests(ctx context.Context, where string, args ...any) ([]leave.Request, error) {
	query := `
		SELECT id, employee_id, type, start_date, end_date, total_days, status,
			affects_salary, affects_insurance, paid_by, insurance_decision,
			notes, created_at, decided_at, decided_by
		FROM leave_requests ` + where

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []leave.Request
	for rows.Next() {
		var (
			r                 leave.Request
			empID             string
			reqType           string
			startDate         string
			endDate           string
			totalDays         string
			status            string
			paidBy            sql.NullString
			insuranceDecision sql.NullBool
			notes             sql.NullString
			createdAt         string
			decidedAt         sql.NullString
			decidedBy         sql.NullString
		)
		err := rows.Scan(&r.ID, &empID, &reqType, &startDate, &endDate, &totalDays, &status,
			&r.AffectsSalary, &r.AffectsInsurance, &paidBy, &insuranceDecision,
			&notes, &createdAt, &decidedAt, &decidedBy)
		if err != nil {
			return nil, err
		}

		r.EmployeeID = leave.EmployeeID(empID)
		r.Type = leave.Type(reqType)
		r.Status = leave.RequestStatus(status)
		r.PaidBy = leave.PaidBy(paidBy.String)
		r.Notes = notes.String
		r.DecidedBy = decidedBy.String
		if insuranceDecision.Valid {
			v := insuranceDecision.Bool
			r.InsuranceDecision = &v
		}
		if r.StartDate, err = time.Parse(dateLayout, startDate); err != nil {
			return nil, fmt.Errorf("corrupt start_date in request %s: %w", r.ID, err)
		}
		if r.EndDate, err = time.Parse(dateLayout, endDate); err != nil {
			return nil, fmt.Errorf("corrupt end_date in request %s: %w", r.ID, err)
		}
		if r.TotalDays, err = decimal.NewFromString(totalDays); err != nil {
			return nil, fmt.Errorf("corrupt total_days in request %s: %w", r.ID, err)
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("corrupt created_at in request %s: %w", r.ID, err)
		}
		if decidedAt.Valid {
			t, err := time.Parse(time.RFC3339, decidedAt.String)
			if err != nil {
				return nil, fmt.Errorf("corrupt decided_at in request %s: %w", r.ID, err)
			}
			r.DecidedAt = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// =============================================================================
// LEAVE: OVERRIDES
// =============================================================================

func (s *Store) RecordBatch(ctx context.Context, overrides []leave.Override) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO leave_overrides (
			employee_id, date, leave_type, request_id, paid_days,
			insurance_covered, counts_as_absent
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for _, o := range overrides {
		_, err := tx.ExecContext(ctx, query,
			string(o.EmployeeID), o.Date.UTC().Format(dateLayout),
			string(o.LeaveType), o.RequestID, o.PaidDays.String(),
			o.InsuranceCovered, o.CountsAsAbsent,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) ListForDate(ctx context.Context, employeeID leave.EmployeeID, date time.Time) ([]leave.Override, error) {
	query := `
		SELECT employee_id, date, leave_type, request_id, paid_days,
			insurance_covered, counts_as_absent
		FROM leave_overrides WHERE employee_id = ? AND date = ?
	`
	rows, err := s.db.QueryContext(ctx, query, string(employeeID), date.UTC().Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []leave.Override
	for rows.Next() {
		var (
			o        leave.Override
			empID    string
			day      string
			ltype    string
			paidDays string
		)
		err := rows.Scan(&empID, &day, &ltype, &o.RequestID, &paidDays, &o.InsuranceCovered, &o.CountsAsAbsent)
		if err != nil {
			return nil, err
		}
		o.EmployeeID = leave.EmployeeID(empID)
		o.LeaveType = leave.Type(ltype)
		if o.Date, err = time.Parse(dateLayout, day); err != nil {
			return nil, fmt.Errorf("corrupt override date for %s: %w", empID, err)
		}
		if o.PaidDays, err = decimal.NewFromString(paidDays); err != nil {
			return nil, fmt.Errorf("corrupt paid_days for %s: %w", empID, err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// =============================================================================
// ATTENDANCE: RECORDS
// =============================================================================

func (s *Store) SaveRecord(ctx context.Context, r attendance.Record) error {
	query := `
		INSERT INTO attendance_records (
			employee_id, date, check_in, check_out, status,
			late_minutes, early_leave_minutes, leave_type, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, date) DO UPDATE SET
			check_in = excluded.check_in,
			check_out = excluded.check_out,
			status = excluded.status,
			late_minutes = excluded.late_minutes,
			early_leave_minutes = excluded.early_leave_minutes,
			leave_type = excluded.leave_type,
			notes = excluded.notes
	`
	_, err := s.db.ExecContext(ctx, query,
		string(r.EmployeeID), r.Date.UTC().Format(dateLayout),
		clockToNull(r.CheckIn), clockToNull(r.CheckOut), string(r.Status),
		r.LateMinutes, r.EarlyLeaveMinutes, nullString(string(r.LeaveType)), r.Notes,
	)
	return err
}

func (s *Store) GetRecord(ctx context.Context, employeeID leave.EmployeeID, date time.Time) (*attendance.Record, error) {
	out, err := s.queryRecords(ctx, `WHERE employee_id = ? AND date = ?`,
		string(employeeID), date.UTC().Format(dateLayout))
	if err != nil || len(out) == 0 {
		return nil, err
	}
	return &out[0], nil
}

func (s *Store) ListMonth(ctx context.Context, employeeID leave.EmployeeID, year int, month time.Month) ([]attendance.Record, error) {
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)
	return s.queryRecords(ctx,
		`WHERE employee_id = ? AND date >= ? AND date <= ? ORDER BY date`,
		string(employeeID), monthStart.Format(dateLayout), monthEnd.Format(dateLayout))
}

func (s *Store) queryRecords(ctx context.Context, where string, args ...any) ([]attendance.Record, error) {
	query := `
		SELECT employee_id, date, check_in, check_out, status,
			late_minutes, early_leave_minutes, leave_type, notes
		FROM attendance_records ` + where

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []attendance.Record
	for rows.Next() {
		var (
			r         attendance.Record
			empID     string
			day       string
			checkIn   sql.NullInt64
			checkOut  sql.NullInt64
			status    string
			leaveType sql.NullString
			notes     sql.NullString
		)
		err := rows.Scan(&empID, &day, &checkIn, &checkOut, &status,
			&r.LateMinutes, &r.EarlyLeaveMinutes, &leaveType, &notes)
		if err != nil {
			return nil, err
		}
		r.EmployeeID = leave.EmployeeID(empID)
		r.Status = attendance.Status(status)
		r.LeaveType = leave.Type(leaveType.String)
		r.Notes = notes.String
		r.CheckIn = clockFromNull(checkIn)
		r.CheckOut = clockFromNull(checkOut)
		if r.Date, err = time.Parse(dateLayout, day); err != nil {
			return nil, fmt.Errorf("corrupt record date for %s: %w", empID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// =============================================================================
// PAYROLL: SETTINGS - Singleton row, replaced wholesale
// =============================================================================

func (s *Store) Load(ctx context.Context) (payroll.Settings, error) {
	var configJSON string
	err := s.db.QueryRowContext(ctx, `SELECT config_json FROM payroll_settings WHERE id = 1`).Scan(&configJSON)
	if err == sql.ErrNoRows {
		return payroll.Settings{}, nil
	}
	if err != nil {
		return payroll.Settings{}, err
	}

	var settings payroll.Settings
	if err := json.Unmarshal([]byte(configJSON), &settings); err != nil {
		return payroll.Settings{}, fmt.Errorf("corrupt payroll settings: %w", err)
	}
	return settings, nil
}

func (s *Store) Replace(ctx context.Context, settings payroll.Settings) error {
	configJSON, err := json.Marshal(settings)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO payroll_settings (id, config_json, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			config_json = excluded.config_json,
			updated_at = excluded.updated_at
	`
	_, err = s.db.ExecContext(ctx, query, string(configJSON), time.Now().UTC().Format(time.RFC3339))
	return err
}

// =============================================================================
// PAYROLL: POSTINGS AND JOURNAL
// =============================================================================

func (s *Store) FindPosted(ctx context.Context, month time.Month, year int) (*payroll.Posting, error) {
	return s.queryPosting(ctx, `WHERE month = ? AND year = ? AND status = ?`,
		int(month), year, string(payroll.PostingPosted))
}

func (s *Store) GetPosting(ctx context.Context, id string) (*payroll.Posting, error) {
	return s.queryPosting(ctx, `WHERE id = ?`, id)
}

func (s *Store) queryPosting(ctx context.Context, where string, args ...any) (*payroll.Posting, error) {
	query := `
		SELECT id, month, year, journal_entry_id, posted_at, posted_by, status
		FROM payroll_postings ` + where

	var (
		p        payroll.Posting
		month    int
		postedAt string
		postedBy sql.NullString
		status   string
	)
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&p.ID, &month, &p.Year, &p.JournalEntryID, &postedAt, &postedBy, &status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p.Month = time.Month(month)
	p.PostedBy = postedBy.String
	p.Status = payroll.PostingStatus(status)
	if p.PostedAt, err = time.Parse(time.RFC3339, postedAt); err != nil {
		return nil, fmt.Errorf("corrupt posted_at in posting %s: %w", p.ID, err)
	}
	return &p, nil
}

func (s *Store) SavePosting(ctx context.Context, p payroll.Posting, entries []payroll.JournalEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payroll_postings (id, month, year, journal_entry_id, posted_at, posted_by, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID, int(p.Month), p.Year, p.JournalEntryID,
		p.PostedAt.UTC().Format(time.RFC3339), nullString(p.PostedBy), string(p.Status))
	if err != nil {
		return err
	}

	if err := insertJournalEntries(ctx, tx, p.JournalEntryID, entries); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) JournalEntries(ctx context.Context, journalEntryID string) ([]payroll.JournalEntry, error) {
	query := `
		SELECT account_id, account_name, side, amount, memo
		FROM journal_entries WHERE journal_entry_id = ?
		ORDER BY line_no
	`
	rows, err := s.db.QueryContext(ctx, query, journalEntryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []payroll.JournalEntry
	for rows.Next() {
		var (
			e      payroll.JournalEntry
			side   string
			amount string
			memo   sql.NullString
		)
		if err := rows.Scan(&e.AccountID, &e.AccountName, &side, &amount, &memo); err != nil {
			return nil, err
		}
		e.Side = payroll.Side(side)
		e.Memo = memo.String
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("corrupt amount in journal %s: %w", journalEntryID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) SetPostingStatus(ctx context.Context, id string, status payroll.PostingStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE payroll_postings SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return payroll.ErrPostingNotFound
	}
	return nil
}

// PostTransactions records journal lines that are not tied to a posting
// header yet (the reversal path writes its mirrored lines here).
func (s *Store) PostTransactions(ctx context.Context, journalEntryID string, entries []payroll.JournalEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertJournalEntries(ctx, tx, journalEntryID, entries); err != nil {
		return err
	}
	return tx.Commit()
}

func insertJournalEntries(ctx context.Context, tx *sql.Tx, journalEntryID string, entries []payroll.JournalEntry) error {
	query := `
		INSERT INTO journal_entries (journal_entry_id, line_no, account_id, account_name, side, amount, memo)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(journal_entry_id, line_no) DO NOTHING
	`
	for i, e := range entries {
		_, err := tx.ExecContext(ctx, query,
			journalEntryID, i+1, e.AccountID, e.AccountName,
			string(e.Side), e.Amount.String(), nullString(e.Memo))
		if err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// PAYROLL: CHART OF ACCOUNTS
// =============================================================================

func (s *Store) SaveAccount(ctx context.Context, a payroll.Account) error {
	query := `
		INSERT INTO accounts (id, code, name) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET code = excluded.code, name = excluded.name
	`
	_, err := s.db.ExecContext(ctx, query, a.ID, a.Code, a.Name)
	return err
}

func (s *Store) FindByCode(ctx context.Context, code string) (*payroll.Account, error) {
	var a payroll.Account
	err := s.db.QueryRowContext(ctx,
		`SELECT id, code, name FROM accounts WHERE code = ?`, code).Scan(&a.ID, &a.Code, &a.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindByNamePattern matches in Go so the semantics stay identical to the
// in-memory store.
func (s *Store) FindByNamePattern(ctx context.Context, pattern string) (*payroll.Account, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, code, name FROM accounts ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var a payroll.Account
		if err := rows.Scan(&a.ID, &a.Code, &a.Name); err != nil {
			return nil, err
		}
		if payroll.MatchAccountName(a.Name, pattern) {
			return &a, nil
		}
	}
	return nil, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func decimalPtrToString(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func decimalPtrFromString(s sql.NullString) (*decimal.Decimal, error) {
	if !s.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func clockToNull(c *attendance.ClockTime) sql.NullInt64 {
	if c == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*c), Valid: true}
}

func clockFromNull(n sql.NullInt64) *attendance.ClockTime {
	if !n.Valid {
		return nil
	}
	c := attendance.ClockTime(n.Int64)
	return &c
}
