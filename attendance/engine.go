/*
Package attendance derives daily attendance status from check-in/out times,
a work-schedule policy, and any approved leave overlapping the day.

PURPOSE:

	BuildDailyRecord is pure and idempotent: the same inputs always
	regenerate the same record. Callers persist the result; the engine holds
	no state and is recomputed in full on every edit, never patched.

STATUS DERIVATION ORDER:

 1. Approved leave covering the date        -> OnLeave

 2. Holiday per the calendar                -> Holiday

 3. Neither check-in nor check-out recorded -> Absent

 4. Check-in after start+grace              -> Late (with lateness minutes)

 5. Otherwise                               -> Present

    Early-leave minutes accrue whenever check-out precedes work end,
    independent of the final status.

SEE ALSO:
  - summary.go: monthly aggregation over these records
  - leave/request.go: the source of the approved-leave overrides
*/
package attendance

import (
	"fmt"
	"time"

	"github.com/edustaff/hr-core/leave"
)

// =============================================================================
// CLOCK TIME - HH:MM minute-of-day
// =============================================================================

// ClockTime is a minute-of-day value, parsed from "HH:MM".
type ClockTime int

// ParseClock parses "HH:MM" (24h). The zero value is midnight.
func ParseClock(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return ClockTime(t.Hour()*60 + t.Minute()), nil
}

// MustClock parses "HH:MM" and panics on malformed input. For constants
// and tests.
func MustClock(s string) ClockTime {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c ClockTime) Minutes() int { return int(c) }

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// =============================================================================
// SCHEDULE POLICY
// =============================================================================

// SchedulePolicy is the work-day window and lateness grace.
type SchedulePolicy struct {
	WorkStart        ClockTime
	WorkEnd          ClockTime
	LateGraceMinutes int
}

// =============================================================================
// RECORD
// =============================================================================

type Status string

const (
	StatusPresent Status = "present"
	StatusLate    Status = "late"
	StatusAbsent  Status = "absent"
	StatusOnLeave Status = "on_leave"
	StatusHoliday Status = "holiday"
)

// Record is one employee-day. One record exists per (employee, date);
// edits recompute the whole record.
type Record struct {
	EmployeeID        leave.EmployeeID
	Date              time.Time
	CheckIn           *ClockTime
	CheckOut          *ClockTime
	Status            Status
	LateMinutes       int
	EarlyLeaveMinutes int

	// LeaveType attributes an OnLeave day to its leave type for payroll.
	LeaveType leave.Type
	Notes     string
}

// =============================================================================
// HOLIDAY CALENDAR
// =============================================================================

// HolidayCalendar reports organization holidays. A nil calendar means no
// holidays.
type HolidayCalendar interface {
	IsHoliday(date time.Time) bool
}

// =============================================================================
// ENGINE
// =============================================================================

// DailyInput is everything BuildDailyRecord needs for one employee-day.
type DailyInput struct {
	EmployeeID leave.EmployeeID
	Date       time.Time
	CheckIn    *ClockTime
	CheckOut   *ClockTime
	Notes      string

	// ApprovedLeaves are the employee's approved per-day overrides; only
	// entries whose date matches Date are considered.
	ApprovedLeaves []leave.Override

	Schedule SchedulePolicy
	Holidays HolidayCalendar
}

// BuildDailyRecord derives the day's status. Pure: never errors, no state.
func BuildDailyRecord(in DailyInput) Record {
	rec := Record{
		EmployeeID: in.EmployeeID,
		Date:       dateOnly(in.Date),
		CheckIn:    in.CheckIn,
		CheckOut:   in.CheckOut,
		Notes:      in.Notes,
	}

	if ov, ok := leaveCovering(in.ApprovedLeaves, rec.Date); ok {
		rec.Status = StatusOnLeave
		rec.LeaveType = ov.LeaveType
		return rec
	}

	if in.Holidays != nil && in.Holidays.IsHoliday(rec.Date) {
		rec.Status = StatusHoliday
		return rec
	}

	if in.CheckIn == nil && in.CheckOut == nil {
		rec.Status = StatusAbsent
		return rec
	}

	if in.CheckIn != nil {
		grace := in.Schedule.WorkStart.Minutes() + in.Schedule.LateGraceMinutes
		if in.CheckIn.Minutes() > grace {
			rec.LateMinutes = in.CheckIn.Minutes() - in.Schedule.WorkStart.Minutes()
		}
	}
	if in.CheckOut != nil && in.CheckOut.Minutes() < in.Schedule.WorkEnd.Minutes() {
		rec.EarlyLeaveMinutes = in.Schedule.WorkEnd.Minutes() - in.CheckOut.Minutes()
	}

	if rec.LateMinutes > 0 {
		rec.Status = StatusLate
	} else {
		rec.Status = StatusPresent
	}
	return rec
}

func leaveCovering(overrides []leave.Override, date time.Time) (leave.Override, bool) {
	for _, ov := range overrides {
		if sameDay(ov.Date, date) {
			return ov, true
		}
	}
	return leave.Override{}, false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
