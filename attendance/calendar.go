package attendance

import "time"

// =============================================================================
// HOLIDAY CALENDAR - School calendar holidays
// =============================================================================

// Holiday is one school holiday. Recurring holidays repeat on the same
// month/day every year.
type Holiday struct {
	Date      time.Time
	Name      string
	Recurring bool
}

// Calendar is an in-memory HolidayCalendar.
type Calendar struct {
	fixed     map[string]struct{} // "2006-01-02"
	recurring map[string]struct{} // "01-02"
}

func NewCalendar(holidays ...Holiday) *Calendar {
	c := &Calendar{
		fixed:     make(map[string]struct{}),
		recurring: make(map[string]struct{}),
	}
	for _, h := range holidays {
		c.Add(h)
	}
	return c
}

func (c *Calendar) Add(h Holiday) {
	if h.Recurring {
		c.recurring[h.Date.Format("01-02")] = struct{}{}
		return
	}
	c.fixed[h.Date.Format("2006-01-02")] = struct{}{}
}

func (c *Calendar) IsHoliday(date time.Time) bool {
	if _, ok := c.fixed[date.Format("2006-01-02")]; ok {
		return true
	}
	_, ok := c.recurring[date.Format("01-02")]
	return ok
}
