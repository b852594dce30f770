package plan

import (
	"math"
	"strings"
	"time"

	"pland/pkg/dateutil"
)

// weekdayNames accepts full names and three-letter abbreviations,
// case-insensitively.
var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// normalizeCalendar applies defaults and validates the work-calendar part of
// a request. Calendar problems are input-shape failures, not task failures.
func normalizeCalendar(req Request) (calendar, error) {
	cal := calendar{
		hoursPerDay: req.WorkHoursPerDay,
		workdays:    defaultWorkdays(),
		start:       dateutil.Today(),
	}

	if cal.hoursPerDay == 0 {
		cal.hoursPerDay = DefaultWorkHoursPerDay
	}
	if math.IsNaN(cal.hoursPerDay) || math.IsInf(cal.hoursPerDay, 0) || cal.hoursPerDay <= 0 {
		return calendar{}, inputShapef("workHoursPerDay must be > 0 (got %v)", req.WorkHoursPerDay)
	}

	if len(req.WorkDays) > 0 {
		cal.workdays = make(map[time.Weekday]bool, len(req.WorkDays))
		for _, name := range req.WorkDays {
			wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
			if !ok {
				return calendar{}, inputShapef("unknown weekday name %q", name)
			}
			cal.workdays[wd] = true
		}
	}
	if len(cal.workdays) == 0 {
		return calendar{}, inputShapef("workDays must name at least one weekday")
	}

	if s := strings.TrimSpace(req.StartDate); s != "" {
		start, err := dateutil.Parse(s)
		if err != nil {
			return calendar{}, inputShapef("startDate: %v", err)
		}
		cal.start = start
	}

	return cal, nil
}
