/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Leave request lifecycle over HTTP (submit, approve, balance)
- Validation and domain error status mapping
- Settings replace/load round trip
- Payroll posting conflict handling
*/
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/edustaff/hr-core/attendance"
	"github.com/edustaff/hr-core/leave"
	"github.com/edustaff/hr-core/payroll"
	"github.com/edustaff/hr-core/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()

	store := memory.New()
	store.PutEmployee(leave.Employee{
		ID:       "emp-1",
		Name:     "Fatma Hassan",
		Gender:   leave.GenderFemale,
		HireDate: time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	store.PutEmployee(leave.Employee{
		ID:       "emp-2",
		Name:     "Omar Said",
		Gender:   leave.GenderMale,
		HireDate: time.Date(2022, 9, 1, 0, 0, 0, 0, time.UTC),
	})
	for i, name := range []string{
		"Salaries Expense", "Incentives Expense", "Allowances Expense",
		"Insurance Expense", "Insurance Payable", "Tax Payable",
		"Emergency Fund Payable", "Cash on Hand",
	} {
		store.PutAccount(payroll.Account{
			ID:   fmt.Sprintf("acc-%d", i+1),
			Code: fmt.Sprintf("%d", 5100+i*10),
			Name: name,
		})
	}

	ledger := leave.NewLedger(store.Balances(), store.Transactions(), store.Employees())
	h := &Handler{
		Ledger:    ledger,
		Requests:  leave.NewRequestService(ledger, store.Requests(), store.OverrideSink(), store.Employees()),
		Directory: store.Employees(),
		Records:   store.Records(),
		Overrides: store.Overrides(),
		Holidays:  attendance.NewCalendar(),
		Schedule: attendance.SchedulePolicy{
			WorkStart:        attendance.MustClock("08:00"),
			WorkEnd:          attendance.MustClock("14:00"),
			LateGraceMinutes: 10,
		},
		Settings: store.Settings(),
		Posting:  payroll.NewPostingService(store.Postings(), store.Accounts(), store.JournalSink()),
	}

	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)
	return srv, store
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// =============================================================================
// LEAVE LIFECYCLE
// =============================================================================

func TestSubmitAndApproveRequest_DebitsBalance(t *testing.T) {
	// GIVEN: A running server with a seeded employee
	srv, _ := newTestServer(t)

	// WHEN: A 2-day casual request is submitted and approved
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/employees/emp-1/requests", SubmitRequestDTO{
		Type:      "casual",
		StartDate: "2026-03-02",
		EndDate:   "2026-03-03",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[RequestDTO](t, resp)
	assert.Equal(t, "pending", created.Status)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/leave/requests/"+created.ID+"/approve?approver=admin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	approved := decode[RequestDTO](t, resp)
	assert.Equal(t, "approved", approved.Status)

	// THEN: The casual balance reflects the debit
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/employees/emp-1/balance?year=2026", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	balance := decode[BalanceDTO](t, resp)
	assert.Equal(t, "4", balance.Remaining["casual"])
}

func TestSubmitRequest_GenderIneligible_Returns400(t *testing.T) {
	// GIVEN: A male employee
	srv, _ := newTestServer(t)

	// WHEN: He submits a childcare request
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/employees/emp-2/requests", SubmitRequestDTO{
		Type:      "childcare",
		StartDate: "2026-03-02",
		EndDate:   "2026-03-03",
	})

	// THEN: The request is rejected as a validation error
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errResp := decode[ErrorResponse](t, resp)
	assert.NotEmpty(t, errResp.Details)
}

func TestApproveRequest_Twice_Returns409(t *testing.T) {
	// GIVEN: An approved request
	srv, _ := newTestServer(t)
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/employees/emp-1/requests", SubmitRequestDTO{
		Type:      "casual",
		StartDate: "2026-03-02",
		EndDate:   "2026-03-02",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[RequestDTO](t, resp)
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/leave/requests/"+created.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// WHEN: It is approved again
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/leave/requests/"+created.ID+"/approve", nil)

	// THEN: The terminal state is reported as a conflict
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestResolvePolicy_ByEmployee(t *testing.T) {
	// GIVEN: An employee hired 2020-03-01 (5 full years by 2026)
	srv, _ := newTestServer(t)

	// WHEN: The annual policy is resolved for 2026
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/leave/policies/annual?employee_id=emp-1&year=2026", nil)

	// THEN: The tenure-based cap applies
	require.Equal(t, http.StatusOK, resp.StatusCode)
	policy := decode[PolicyDTO](t, resp)
	assert.Equal(t, "21", policy.YearlyCap)
}

// =============================================================================
// ATTENDANCE
// =============================================================================

func TestBuildRecord_LateArrival(t *testing.T) {
	// GIVEN: A running server
	srv, _ := newTestServer(t)

	// WHEN: A record is built for a 08:15 check-in (grace is 10 minutes)
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/attendance/records", BuildRecordDTO{
		EmployeeID: "emp-1",
		Date:       "2026-03-02",
		CheckIn:    "08:15",
		CheckOut:   "14:00",
	})

	// THEN: The employee is late by 15 minutes
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rec := decode[RecordDTO](t, resp)
	assert.Equal(t, "late", rec.Status)
	assert.Equal(t, 15, rec.LateMinutes)
}

// =============================================================================
// PAYROLL SETTINGS
// =============================================================================

func TestSettings_ReplaceAndLoad(t *testing.T) {
	// GIVEN: A running server
	srv, _ := newTestServer(t)

	dto := SettingsDTO{}
	dto.Insurance.Enabled = true
	dto.Insurance.EmployeePercent = "11"
	dto.Insurance.EmployerPercent = "18.75"
	dto.Taxes.Enabled = true
	dto.Taxes.MonthlyExemption = "0"
	dto.Taxes.Brackets = []BracketDTO{{From: "0", To: "3750", Percent: "0"}}
	dto.EmergencyFund.Percent = "0"

	// WHEN: Settings are replaced and loaded back
	resp := doJSON(t, http.MethodPut, srv.URL+"/api/payroll/settings", dto)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/payroll/settings", nil)

	// THEN: The stored value round trips
	require.Equal(t, http.StatusOK, resp.StatusCode)
	loaded := decode[SettingsDTO](t, resp)
	assert.True(t, loaded.Insurance.Enabled)
	assert.Equal(t, "18.75", loaded.Insurance.EmployerPercent)
	require.Len(t, loaded.Taxes.Brackets, 1)
}

// =============================================================================
// PAYROLL POSTING
// =============================================================================

func TestPostPayroll_SecondPostSameMonth_Returns409(t *testing.T) {
	// GIVEN: One balanced approved row posted for March 2026
	srv, _ := newTestServer(t)
	body := PostPayrollDTO{
		Month:    3,
		Year:     2026,
		PostedBy: "admin",
		Rows: []RowDTO{{
			EmployeeID: "emp-1",
			Approved:   true,
			BaseSalary: "3000",
			NetSalary:  "3000",
		}},
	}
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/payroll/postings", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	posting := decode[PostingDTO](t, resp)
	assert.Equal(t, "posted", posting.Status)

	// WHEN: The same month is posted again
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/payroll/postings", body)

	// THEN: The idempotency guard reports a conflict
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestPostPayroll_Unbalanced_Returns400(t *testing.T) {
	// GIVEN: A row whose net does not reconcile with its components
	srv, _ := newTestServer(t)

	// WHEN: It is posted
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/payroll/postings", PostPayrollDTO{
		Month:    4,
		Year:     2026,
		PostedBy: "admin",
		Rows: []RowDTO{{
			EmployeeID: "emp-1",
			Approved:   true,
			BaseSalary: "3000",
			NetSalary:  "3100",
		}},
	})

	// THEN: The balance check rejects it
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
