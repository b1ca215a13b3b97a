package attendance

import (
	"context"
	"time"

	"github.com/edustaff/hr-core/leave"
)

// RecordStore persists daily records. One record per (employee, date);
// Save upserts, since records are regenerated on every edit.
type RecordStore interface {
	Save(ctx context.Context, r Record) error

	// Get returns the record for (employee, date), or (nil, nil).
	Get(ctx context.Context, employeeID leave.EmployeeID, date time.Time) (*Record, error)

	// ListMonth returns the employee's records for one month, oldest first.
	ListMonth(ctx context.Context, employeeID leave.EmployeeID, year int, month time.Month) ([]Record, error)
}

// OverrideSource reads the approved-leave overrides covering a date. The
// same store that absorbs leave.OverrideSink batches serves reads here.
type OverrideSource interface {
	ListForDate(ctx context.Context, employeeID leave.EmployeeID, date time.Time) ([]leave.Override, error)
}
