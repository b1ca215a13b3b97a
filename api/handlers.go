/*
handlers.go - HTTP API handlers for the HR calculation core

PURPOSE:

	Exposes the leave, attendance, and payroll engines via REST API.
	Handles HTTP request/response, JSON serialization, and delegates to
	domain logic.

ENDPOINTS:

	Leave:
	  GET    /api/leave/policies/{type}        Resolve a leave policy
	  GET    /api/employees/{id}/balance       Balance for a year
	  GET    /api/employees/{id}/transactions  Usage log for a year
	  POST   /api/employees/{id}/requests      Submit leave request
	  POST   /api/leave/requests/{id}/approve  Approve (debits ledger)
	  POST   /api/leave/requests/{id}/reject   Reject (no side effects)

	Admin:
	  POST   /api/admin/adjustments            Manual balance correction
	  POST   /api/admin/balances/lock          Lock/unlock a balance

	Attendance:
	  POST   /api/attendance/records           Build + persist a daily record
	  GET    /api/attendance/summary           Monthly aggregate

	Payroll:
	  POST   /api/payroll/calculate            Monthly calculation
	  POST   /api/payroll/impact               Settings impact on one row
	  GET    /api/payroll/settings             Current settings
	  PUT    /api/payroll/settings             Replace settings wholesale
	  POST   /api/payroll/postings             Post approved rows
	  POST   /api/payroll/postings/{id}/reverse Reverse a posting

ERROR HANDLING:

	Errors are returned as JSON with appropriate HTTP status:
	- 400: Validation errors, invalid input
	- 404: Resource not found
	- 409: Conflict (already posted, not pending)
	- 500: Internal errors

SECURITY NOTE:

	No authentication middleware. Auth lives outside this core.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/edustaff/hr-core/attendance"
	"github.com/edustaff/hr-core/leave"
	"github.com/edustaff/hr-core/payroll"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Ledger    *leave.Ledger
	Requests  *leave.RequestService
	Directory leave.EmployeeDirectory

	Records   attendance.RecordStore
	Overrides attendance.OverrideSource
	Holidays  attendance.HolidayCalendar
	Schedule  attendance.SchedulePolicy

	Settings payroll.SettingsStore
	Posting  *payroll.PostingService
}

// =============================================================================
// LEAVE HANDLERS
// =============================================================================

// ResolvePolicy resolves a leave policy for an employee (employee_id +
// year query params) or for an explicit context (gender, years_of_service,
// annual_override).
func (h *Handler) ResolvePolicy(w http.ResponseWriter, r *http.Request) {
	leaveType := leave.Type(chi.URLParam(r, "type"))

	var rc leave.ResolveContext
	if employeeID := r.URL.Query().Get("employee_id"); employeeID != "" {
		emp, err := h.Directory.Get(r.Context(), leave.EmployeeID(employeeID))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to look up employee", err)
			return
		}
		if emp == nil {
			writeError(w, http.StatusNotFound, "Employee not found", nil)
			return
		}
		rc = leave.ResolveContextFor(*emp, queryInt(r, "year", time.Now().Year()))
	} else {
		rc.Gender = leave.Gender(r.URL.Query().Get("gender"))
		rc.YearsOfService = queryInt(r, "years_of_service", 0)
		if raw := r.URL.Query().Get("annual_override"); raw != "" {
			override, err := decimal.NewFromString(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid annual_override", err)
				return
			}
			rc.AnnualOverride = &override
		}
	}

	writeJSON(w, http.StatusOK, toPolicyDTO(leave.ResolvePolicy(leaveType, rc)))
}

// GetBalance returns the employee's balance for a year, materializing it
// on first access.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	employeeID := leave.EmployeeID(chi.URLParam(r, "id"))
	year := queryInt(r, "year", time.Now().Year())

	b, err := h.Ledger.Balance(r.Context(), employeeID, year)
	if err != nil {
		writeDomainError(w, "Failed to get balance", err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(b))
}

// GetTransactions returns the usage log for a year.
func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	employeeID := leave.EmployeeID(chi.URLParam(r, "id"))
	year := queryInt(r, "year", time.Now().Year())

	txs, err := h.Ledger.Transactions(r.Context(), employeeID, year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list transactions", err)
		return
	}

	type txDTO struct {
		ID        string `json:"id"`
		Type      string `json:"type"`
		Days      string `json:"days"`
		Source    string `json:"source"`
		RequestID string `json:"request_id,omitempty"`
		CreatedAt string `json:"created_at"`
	}
	dtos := make([]txDTO, 0, len(txs))
	for _, tx := range txs {
		dtos = append(dtos, txDTO{
			ID:        tx.ID,
			Type:      string(tx.Type),
			Days:      tx.Days.String(),
			Source:    string(tx.Source),
			RequestID: tx.RequestID,
			CreatedAt: tx.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SubmitRequest creates a pending leave request.
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var dto SubmitRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := time.Parse(dateLayout, dto.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date (use YYYY-MM-DD)", err)
		return
	}
	end, err := time.Parse(dateLayout, dto.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date (use YYYY-MM-DD)", err)
		return
	}

	req, err := h.Requests.Add(r.Context(), leave.AddInput{
		EmployeeID:        leave.EmployeeID(chi.URLParam(r, "id")),
		Type:              leave.Type(dto.Type),
		StartDate:         start,
		EndDate:           end,
		Notes:             dto.Notes,
		InsuranceDecision: dto.InsuranceDecision,
	})
	if err != nil {
		writeDomainError(w, "Failed to submit request", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestDTO(*req))
}

// ApproveRequest commits a pending request.
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Requests.Approve(r.Context(), id, r.URL.Query().Get("approver")); err != nil {
		writeDomainError(w, "Failed to approve request", err)
		return
	}
	req, err := h.Requests.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to load request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(*req))
}

// RejectRequest marks a pending request rejected.
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Requests.Reject(r.Context(), id, r.URL.Query().Get("rejecter")); err != nil {
		writeDomainError(w, "Failed to reject request", err)
		return
	}
	req, err := h.Requests.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to load request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(*req))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// CreateAdjustment applies a manual balance correction.
func (h *Handler) CreateAdjustment(w http.ResponseWriter, r *http.Request) {
	var dto struct {
		EmployeeID string `json:"employee_id"`
		Year       int    `json:"year"`
		Type       string `json:"type"`
		Delta      string `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	delta, err := decimal.NewFromString(dto.Delta)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid delta", err)
		return
	}

	err = h.Ledger.AdjustBalance(r.Context(), leave.EmployeeID(dto.EmployeeID), dto.Year, leave.Type(dto.Type), delta)
	if err != nil {
		writeDomainError(w, "Failed to adjust balance", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetBalanceLock locks or unlocks an (employee, year) balance.
func (h *Handler) SetBalanceLock(w http.ResponseWriter, r *http.Request) {
	var dto struct {
		EmployeeID string `json:"employee_id"`
		Year       int    `json:"year"`
		Locked     bool   `json:"locked"`
	}
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var err error
	if dto.Locked {
		err = h.Ledger.Lock(r.Context(), leave.EmployeeID(dto.EmployeeID), dto.Year)
	} else {
		err = h.Ledger.Unlock(r.Context(), leave.EmployeeID(dto.EmployeeID), dto.Year)
	}
	if err != nil {
		writeDomainError(w, "Failed to update lock", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ATTENDANCE HANDLERS
// =============================================================================

// BuildRecord derives and persists one daily attendance record. The
// record is regenerated from scratch on every call, never patched.
func (h *Handler) BuildRecord(w http.ResponseWriter, r *http.Request) {
	var dto BuildRecordDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := time.Parse(dateLayout, dto.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return
	}
	checkIn, err := parseOptionalClock(dto.CheckIn)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid check_in (use HH:MM)", err)
		return
	}
	checkOut, err := parseOptionalClock(dto.CheckOut)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid check_out (use HH:MM)", err)
		return
	}

	employeeID := leave.EmployeeID(dto.EmployeeID)
	overrides, err := h.Overrides.ListForDate(r.Context(), employeeID, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load approved leaves", err)
		return
	}

	rec := attendance.BuildDailyRecord(attendance.DailyInput{
		EmployeeID:     employeeID,
		Date:           date,
		CheckIn:        checkIn,
		CheckOut:       checkOut,
		Notes:          dto.Notes,
		ApprovedLeaves: overrides,
		Schedule:       h.Schedule,
		Holidays:       h.Holidays,
	})
	if err := h.Records.Save(r.Context(), rec); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save record", err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTO(rec))
}

// GetSummary returns the monthly attendance aggregate.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	employeeID := leave.EmployeeID(r.URL.Query().Get("employee_id"))
	year := queryInt(r, "year", time.Now().Year())
	month := time.Month(queryInt(r, "month", int(time.Now().Month())))

	records, err := h.Records.ListMonth(r.Context(), employeeID, year, month)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list records", err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(attendance.Summarize(employeeID, year, month, records)))
}

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================

// Calculate runs the monthly payroll calculation for one employee. Gross
// salary travels in the body; gender, attendance, and leave usage come
// from the stores.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	var dto CalculateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	employeeID := leave.EmployeeID(dto.EmployeeID)
	emp, err := h.Directory.Get(r.Context(), employeeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	gross, err := decimal.NewFromString(dto.MonthlyGrossSalary)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid monthly_gross_salary", err)
		return
	}

	month := time.Month(dto.Month)
	records, err := h.Records.ListMonth(r.Context(), employeeID, dto.Year, month)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list attendance", err)
		return
	}
	summary := attendance.Summarize(employeeID, dto.Year, month, records)

	balance, err := h.Ledger.Balance(r.Context(), employeeID, dto.Year)
	if err != nil {
		writeDomainError(w, "Failed to get balance", err)
		return
	}

	in := payroll.CalcInput{
		Employee: payroll.EmployeePay{
			ID:                 employeeID,
			Gender:             emp.Gender,
			MonthlyGrossSalary: gross,
		},
		Attendance: summary,
		Leave: payroll.LeaveUsage{
			Days: summary.LeaveDays,
			// Balance snapshots as of the start of the month: the month's
			// own usage was already debited when its requests were approved.
			AnnualBalance: balance.Remaining[leave.TypeAnnual].Add(summary.LeaveDays[leave.TypeAnnual]),
			CasualBalance: balance.Remaining[leave.TypeCasual].Add(summary.LeaveDays[leave.TypeCasual]),
		},
		Month:            month,
		Year:             dto.Year,
		TotalWorkingDays: dto.TotalWorkingDays,
	}
	if dto.DailyWage != nil {
		wage, err := decimal.NewFromString(*dto.DailyWage)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid daily_wage", err)
			return
		}
		in.Employee.DailyWage = &wage
	}
	if dto.LatenessOverride != nil {
		override, err := decimal.NewFromString(*dto.LatenessOverride)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid lateness_override", err)
			return
		}
		in.LatenessDeductionOverride = &override
	}

	result, err := payroll.CalculateMonthly(in)
	if err != nil {
		writeDomainError(w, "Calculation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toCalcResultDTO(result))
}

// Impact applies the stored settings to one payroll row.
func (h *Handler) Impact(w http.ResponseWriter, r *http.Request) {
	var dto ImpactDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	settings, err := h.Settings.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load settings", err)
		return
	}

	in := payroll.ImpactInput{Settings: settings}
	if in.BaseSalary, err = parseAmount(dto.BaseSalary); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid base_salary", err)
		return
	}
	if in.Incentives, err = parseAmount(dto.Incentives); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid incentives", err)
		return
	}
	if in.Allowances, err = parseAmount(dto.Allowances); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid allowances", err)
		return
	}
	if in.AttendanceDeductions, err = parseAmount(dto.AttendanceDeductions); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid attendance_deductions", err)
		return
	}
	if dto.InsurableEarnings != nil {
		insurable, err := decimal.NewFromString(*dto.InsurableEarnings)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid insurable_earnings", err)
			return
		}
		in.InsurableEarnings = &insurable
	}
	if dto.TaxableEarnings != nil {
		taxable, err := decimal.NewFromString(*dto.TaxableEarnings)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid taxable_earnings", err)
			return
		}
		in.TaxableEarnings = &taxable
	}

	writeJSON(w, http.StatusOK, toImpactResultDTO(payroll.CalculateSettingsImpact(in)))
}

// GetSettings returns the current payroll settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Settings.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load settings", err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsDTO(settings))
}

// ReplaceSettings swaps the settings value wholesale. No partial updates.
func (h *Handler) ReplaceSettings(w http.ResponseWriter, r *http.Request) {
	var dto SettingsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	settings, err := fromSettingsDTO(dto)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid settings", err)
		return
	}
	if err := h.Settings.Replace(r.Context(), settings); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save settings", err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsDTO(settings))
}

// PostPayroll posts one month's approved rows as a journal transaction.
func (h *Handler) PostPayroll(w http.ResponseWriter, r *http.Request) {
	var dto PostPayrollDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rows := make([]payroll.Row, 0, len(dto.Rows))
	for _, rowDTO := range dto.Rows {
		row, err := fromRowDTO(rowDTO)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid row amount", err)
			return
		}
		rows = append(rows, row)
	}

	posting, err := h.Posting.Post(r.Context(), payroll.PostInput{
		Month:    time.Month(dto.Month),
		Year:     dto.Year,
		PostedBy: dto.PostedBy,
		Rows:     rows,
	})
	if err != nil {
		writeDomainError(w, "Failed to post payroll", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPostingDTO(*posting))
}

// ReversePosting mirrors a posting's journal lines and marks it reversed.
func (h *Handler) ReversePosting(w http.ResponseWriter, r *http.Request) {
	posting, err := h.Posting.Reverse(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("reversed_by"))
	if err != nil {
		writeDomainError(w, "Failed to reverse posting", err)
		return
	}
	writeJSON(w, http.StatusOK, toPostingDTO(*posting))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps the domain error taxonomy onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case leave.IsNotFound(err) || payroll.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, payroll.ErrAlreadyPosted) || errors.Is(err, leave.ErrNotPending):
		writeError(w, http.StatusConflict, message, err)
	case leave.IsClientError(err) || payroll.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func parseOptionalClock(s string) (*attendance.ClockTime, error) {
	if s == "" {
		return nil, nil
	}
	c, err := attendance.ParseClock(s)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
