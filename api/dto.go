/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:

	Defines the JSON structures for API communication. These types decouple
	the internal domain model from the wire contract: decimals travel as
	strings, dates as YYYY-MM-DD, clock times as HH:MM.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - Submit, Post, and Build prefixes: Request body types from clients

VALIDATION:

	Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/edustaff/hr-core/attendance"
	"github.com/edustaff/hr-core/leave"
	"github.com/edustaff/hr-core/payroll"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// =============================================================================
// ERRORS
// =============================================================================

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// LEAVE
// =============================================================================

// PolicyDTO is a resolved leave policy.
type PolicyDTO struct {
	Type              string   `json:"type"`
	AllowedGenders    []string `json:"allowed_genders"`
	YearlyCap         string   `json:"yearly_cap"`
	IsPaid            bool     `json:"is_paid"`
	AffectsSalary     bool     `json:"affects_salary"`
	AffectsInsurance  bool     `json:"affects_insurance"`
	PaidBy            string   `json:"paid_by,omitempty"`
	MaxDaysPerRequest string   `json:"max_days_per_request,omitempty"`
}

func toPolicyDTO(p leave.Policy) PolicyDTO {
	genders := make([]string, 0, len(p.AllowedGenders))
	for _, g := range p.AllowedGenders {
		genders = append(genders, string(g))
	}
	dto := PolicyDTO{
		Type:             string(p.Type),
		AllowedGenders:   genders,
		YearlyCap:        p.YearlyCap.String(),
		IsPaid:           p.IsPaid,
		AffectsSalary:    p.AffectsSalary,
		AffectsInsurance: p.AffectsInsurance,
		PaidBy:           string(p.PaidBy),
	}
	if p.HasMaxDuration {
		dto.MaxDaysPerRequest = p.MaxDaysPerRequest.String()
	}
	return dto
}

// BalanceDTO is one employee-year balance.
type BalanceDTO struct {
	EmployeeID string            `json:"employee_id"`
	Year       int               `json:"year"`
	Remaining  map[string]string `json:"remaining"`
	Locked     bool              `json:"locked"`
	UpdatedAt  string            `json:"updated_at"`
}

func toBalanceDTO(b leave.Balance) BalanceDTO {
	remaining := make(map[string]string, len(b.Remaining))
	for t, d := range b.Remaining {
		remaining[string(t)] = d.String()
	}
	return BalanceDTO{
		EmployeeID: string(b.EmployeeID),
		Year:       b.Year,
		Remaining:  remaining,
		Locked:     b.Locked,
		UpdatedAt:  b.LastUpdatedAt.Format(time.RFC3339),
	}
}

// SubmitRequestDTO is the leave request submission body.
type SubmitRequestDTO struct {
	Type              string `json:"type"`
	StartDate         string `json:"start_date"`
	EndDate           string `json:"end_date"`
	Notes             string `json:"notes,omitempty"`
	InsuranceDecision *bool  `json:"insurance_decision,omitempty"`
}

// RequestDTO is a leave request in responses.
type RequestDTO struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	Type       string `json:"type"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	TotalDays  string `json:"total_days"`
	Status     string `json:"status"`
	DecidedBy  string `json:"decided_by,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

func toRequestDTO(r leave.Request) RequestDTO {
	return RequestDTO{
		ID:         r.ID,
		EmployeeID: string(r.EmployeeID),
		Type:       string(r.Type),
		StartDate:  r.StartDate.Format(dateLayout),
		EndDate:    r.EndDate.Format(dateLayout),
		TotalDays:  r.TotalDays.String(),
		Status:     string(r.Status),
		DecidedBy:  r.DecidedBy,
		Notes:      r.Notes,
	}
}

// =============================================================================
// ATTENDANCE
// =============================================================================

// BuildRecordDTO is the daily attendance submission body.
type BuildRecordDTO struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	CheckIn    string `json:"check_in,omitempty"`
	CheckOut   string `json:"check_out,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// RecordDTO is a daily attendance record in responses.
type RecordDTO struct {
	EmployeeID        string `json:"employee_id"`
	Date              string `json:"date"`
	CheckIn           string `json:"check_in,omitempty"`
	CheckOut          string `json:"check_out,omitempty"`
	Status            string `json:"status"`
	LateMinutes       int    `json:"late_minutes"`
	EarlyLeaveMinutes int    `json:"early_leave_minutes"`
	LeaveType         string `json:"leave_type,omitempty"`
	Notes             string `json:"notes,omitempty"`
}

func toRecordDTO(r attendance.Record) RecordDTO {
	dto := RecordDTO{
		EmployeeID:        string(r.EmployeeID),
		Date:              r.Date.Format(dateLayout),
		Status:            string(r.Status),
		LateMinutes:       r.LateMinutes,
		EarlyLeaveMinutes: r.EarlyLeaveMinutes,
		LeaveType:         string(r.LeaveType),
		Notes:             r.Notes,
	}
	if r.CheckIn != nil {
		dto.CheckIn = r.CheckIn.String()
	}
	if r.CheckOut != nil {
		dto.CheckOut = r.CheckOut.String()
	}
	return dto
}

// SummaryDTO is a monthly attendance aggregate.
type SummaryDTO struct {
	EmployeeID        string            `json:"employee_id"`
	Year              int               `json:"year"`
	Month             int               `json:"month"`
	PresentDays       int               `json:"present_days"`
	AbsentDays        int               `json:"absent_days"`
	HolidayDays       int               `json:"holiday_days"`
	LeaveDays         map[string]string `json:"leave_days"`
	LateMinutes       int               `json:"late_minutes"`
	EarlyLeaveMinutes int               `json:"early_leave_minutes"`
}

func toSummaryDTO(s attendance.MonthSummary) SummaryDTO {
	leaveDays := make(map[string]string, len(s.LeaveDays))
	for t, d := range s.LeaveDays {
		leaveDays[string(t)] = d.String()
	}
	return SummaryDTO{
		EmployeeID:        string(s.EmployeeID),
		Year:              s.Year,
		Month:             int(s.Month),
		PresentDays:       s.PresentDays,
		AbsentDays:        s.AbsentDays,
		HolidayDays:       s.HolidayDays,
		LeaveDays:         leaveDays,
		LateMinutes:       s.LateMinutes,
		EarlyLeaveMinutes: s.EarlyLeaveMinutes,
	}
}

// =============================================================================
// PAYROLL
// =============================================================================

// CalculateDTO is the monthly payroll calculation body. Leave usage and
// balances come from the stores; only overrides travel on the wire.
type CalculateDTO struct {
	EmployeeID         string  `json:"employee_id"`
	Month              int     `json:"month"`
	Year               int     `json:"year"`
	MonthlyGrossSalary string  `json:"monthly_gross_salary"`
	TotalWorkingDays   int     `json:"total_working_days,omitempty"`
	DailyWage          *string `json:"daily_wage,omitempty"`
	LatenessOverride   *string `json:"lateness_override,omitempty"`
}

// CalcResultDTO is the calculation output.
type CalcResultDTO struct {
	EmployeeID        string `json:"employee_id"`
	GrossSalary       string `json:"gross_salary"`
	DailyWage         string `json:"daily_wage"`
	UnpaidLeaveDays   string `json:"unpaid_leave_days"`
	AbsenceDeduction  string `json:"absence_deduction"`
	LatenessDeduction string `json:"lateness_deduction"`
	NetBeforeTax      string `json:"net_before_tax"`
	AppliesInsurance  bool   `json:"applies_insurance"`
}

func toCalcResultDTO(r payroll.CalcResult) CalcResultDTO {
	return CalcResultDTO{
		EmployeeID:        string(r.EmployeeID),
		GrossSalary:       r.GrossSalary.StringFixed(2),
		DailyWage:         r.DailyWage.StringFixed(2),
		UnpaidLeaveDays:   r.UnpaidLeaveDays.String(),
		AbsenceDeduction:  r.AbsenceDeduction.StringFixed(2),
		LatenessDeduction: r.LatenessDeduction.StringFixed(2),
		NetBeforeTax:      r.NetBeforeTax.StringFixed(2),
		AppliesInsurance:  r.AppliesInsurance,
	}
}

// SettingsDTO mirrors payroll.Settings on the wire.
type SettingsDTO struct {
	Insurance struct {
		Enabled         bool   `json:"enabled"`
		EmployeePercent string `json:"employee_percent"`
		EmployerPercent string `json:"employer_percent"`
	} `json:"insurance"`
	Taxes struct {
		Enabled             bool         `json:"enabled"`
		MonthlyExemption    string       `json:"monthly_exemption"`
		Brackets            []BracketDTO `json:"brackets"`
		ApplyAfterInsurance bool         `json:"apply_after_insurance"`
	} `json:"taxes"`
	EmergencyFund struct {
		Enabled bool   `json:"enabled"`
		Percent string `json:"percent"`
	} `json:"emergency_fund"`
}

type BracketDTO struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Percent string `json:"percent"`
}

func toSettingsDTO(s payroll.Settings) SettingsDTO {
	var dto SettingsDTO
	dto.Insurance.Enabled = s.Insurance.Enabled
	dto.Insurance.EmployeePercent = s.Insurance.EmployeePercent.String()
	dto.Insurance.EmployerPercent = s.Insurance.EmployerPercent.String()
	dto.Taxes.Enabled = s.Taxes.Enabled
	dto.Taxes.MonthlyExemption = s.Taxes.MonthlyExemption.String()
	dto.Taxes.ApplyAfterInsurance = s.Taxes.ApplyAfterInsurance
	dto.Taxes.Brackets = make([]BracketDTO, 0, len(s.Taxes.Brackets))
	for _, b := range s.Taxes.Brackets {
		dto.Taxes.Brackets = append(dto.Taxes.Brackets, BracketDTO{
			From: b.From.String(), To: b.To.String(), Percent: b.Percent.String(),
		})
	}
	dto.EmergencyFund.Enabled = s.EmergencyFund.Enabled
	dto.EmergencyFund.Percent = s.EmergencyFund.Percent.String()
	return dto
}

func fromSettingsDTO(dto SettingsDTO) (payroll.Settings, error) {
	var s payroll.Settings
	var err error
	if s.Insurance.EmployeePercent, err = parseAmount(dto.Insurance.EmployeePercent); err != nil {
		return s, err
	}
	if s.Insurance.EmployerPercent, err = parseAmount(dto.Insurance.EmployerPercent); err != nil {
		return s, err
	}
	if s.Taxes.MonthlyExemption, err = parseAmount(dto.Taxes.MonthlyExemption); err != nil {
		return s, err
	}
	if s.EmergencyFund.Percent, err = parseAmount(dto.EmergencyFund.Percent); err != nil {
		return s, err
	}
	s.Insurance.Enabled = dto.Insurance.Enabled
	s.Taxes.Enabled = dto.Taxes.Enabled
	s.Taxes.ApplyAfterInsurance = dto.Taxes.ApplyAfterInsurance
	s.EmergencyFund.Enabled = dto.EmergencyFund.Enabled
	for _, b := range dto.Taxes.Brackets {
		var bracket payroll.Bracket
		if bracket.From, err = parseAmount(b.From); err != nil {
			return s, err
		}
		if bracket.To, err = parseAmount(b.To); err != nil {
			return s, err
		}
		if bracket.Percent, err = parseAmount(b.Percent); err != nil {
			return s, err
		}
		s.Taxes.Brackets = append(s.Taxes.Brackets, bracket)
	}
	return s, nil
}

// ImpactDTO is the settings-impact request body.
type ImpactDTO struct {
	BaseSalary           string  `json:"base_salary"`
	Incentives           string  `json:"incentives,omitempty"`
	Allowances           string  `json:"allowances,omitempty"`
	AttendanceDeductions string  `json:"attendance_deductions,omitempty"`
	InsurableEarnings    *string `json:"insurable_earnings,omitempty"`
	TaxableEarnings      *string `json:"taxable_earnings,omitempty"`
}

// ImpactResultDTO is the settings-impact output.
type ImpactResultDTO struct {
	GrossSalary            string             `json:"gross_salary"`
	InsuranceEmployee      string             `json:"insurance_employee"`
	InsuranceEmployer      string             `json:"insurance_employer"`
	TaxDeduction           string             `json:"tax_deduction"`
	EmergencyFundDeduction string             `json:"emergency_fund_deduction"`
	NetSalary              string             `json:"net_salary"`
	Breakdown              []BreakdownLineDTO `json:"breakdown"`
}

type BreakdownLineDTO struct {
	Label     string `json:"label"`
	Amount    string `json:"amount"`
	Deduction bool   `json:"deduction"`
}

func toImpactResultDTO(r payroll.ImpactResult) ImpactResultDTO {
	breakdown := make([]BreakdownLineDTO, 0, len(r.Breakdown))
	for _, line := range r.Breakdown {
		breakdown = append(breakdown, BreakdownLineDTO{
			Label:     line.Label,
			Amount:    line.Amount.StringFixed(2),
			Deduction: line.Deduction,
		})
	}
	return ImpactResultDTO{
		GrossSalary:            r.GrossSalary.StringFixed(2),
		InsuranceEmployee:      r.InsuranceEmployee.StringFixed(2),
		InsuranceEmployer:      r.InsuranceEmployer.StringFixed(2),
		TaxDeduction:           r.TaxDeduction.StringFixed(2),
		EmergencyFundDeduction: r.EmergencyFundDeduction.StringFixed(2),
		NetSalary:              r.NetSalary.StringFixed(2),
		Breakdown:              breakdown,
	}
}

// PostPayrollDTO is the posting request body.
type PostPayrollDTO struct {
	Month    int      `json:"month"`
	Year     int      `json:"year"`
	PostedBy string   `json:"posted_by"`
	Rows     []RowDTO `json:"rows"`
}

type RowDTO struct {
	EmployeeID           string `json:"employee_id"`
	Approved             bool   `json:"approved"`
	BaseSalary           string `json:"base_salary"`
	Incentives           string `json:"incentives,omitempty"`
	Allowances           string `json:"allowances,omitempty"`
	AttendanceDeductions string `json:"attendance_deductions,omitempty"`
	InsuranceEmployee    string `json:"insurance_employee,omitempty"`
	InsuranceEmployer    string `json:"insurance_employer,omitempty"`
	TaxDeduction         string `json:"tax_deduction,omitempty"`
	EmergencyFund        string `json:"emergency_fund,omitempty"`
	NetSalary            string `json:"net_salary"`
}

func fromRowDTO(dto RowDTO) (payroll.Row, error) {
	row := payroll.Row{
		EmployeeID: leave.EmployeeID(dto.EmployeeID),
		Approved:   dto.Approved,
	}
	fields := []struct {
		dst *decimal.Decimal
		src string
	}{
		{&row.BaseSalary, dto.BaseSalary},
		{&row.Incentives, dto.Incentives},
		{&row.Allowances, dto.Allowances},
		{&row.AttendanceDeductions, dto.AttendanceDeductions},
		{&row.InsuranceEmployee, dto.InsuranceEmployee},
		{&row.InsuranceEmployer, dto.InsuranceEmployer},
		{&row.TaxDeduction, dto.TaxDeduction},
		{&row.EmergencyFund, dto.EmergencyFund},
		{&row.NetSalary, dto.NetSalary},
	}
	for _, f := range fields {
		d, err := parseAmount(f.src)
		if err != nil {
			return row, err
		}
		*f.dst = d
	}
	return row, nil
}

// PostingDTO is a persisted posting in responses.
type PostingDTO struct {
	ID             string `json:"id"`
	Month          int    `json:"month"`
	Year           int    `json:"year"`
	JournalEntryID string `json:"journal_entry_id"`
	PostedAt       string `json:"posted_at"`
	PostedBy       string `json:"posted_by"`
	Status         string `json:"status"`
}

func toPostingDTO(p payroll.Posting) PostingDTO {
	return PostingDTO{
		ID:             p.ID,
		Month:          int(p.Month),
		Year:           p.Year,
		JournalEntryID: p.JournalEntryID,
		PostedAt:       p.PostedAt.Format(time.RFC3339),
		PostedBy:       p.PostedBy,
		Status:         string(p.Status),
	}
}

// parseAmount reads a decimal wire string; empty means zero.
func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
