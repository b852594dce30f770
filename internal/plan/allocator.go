package plan

import (
	"fmt"
	"time"

	"pland/pkg/dateutil"
)

// hourEpsilon guards the float arithmetic on remaining/free hours. Anything
// below it counts as zero.
const hourEpsilon = 1e-9

// allocate walks the sequenced order and greedily fills workdays.
//
// Invariants it maintains:
//   - the simulation date only moves forward, so day records come out in
//     first-seen order, which here is also chronological
//   - a day's allocations never exceed hoursPerDay
//   - a task never receives hours before the finish date of any dependency
//     (starting on the finish date itself is allowed)
//
// Warnings are advisory only; one is appended for each simulated day a task
// spends past its due date, without deduplication.
func allocate(order []string, tasks map[string]Task, cal calendar) ([]DayRecord, []string) {
	cur := firstWorkdayOnOrAfter(cal.start, cal.workdays)
	free := cal.hoursPerDay

	days := make([]DayRecord, 0, len(order))
	dayIndex := make(map[dateutil.Date]int, len(order))
	finish := make(map[string]dateutil.Date, len(tasks))
	warnings := []string{}

	record := func(date dateutil.Date, title string, hours float64) {
		i, ok := dayIndex[date]
		if !ok {
			days = append(days, DayRecord{Date: date})
			i = len(days) - 1
			dayIndex[date] = i
		}
		days[i].Allocations = append(days[i].Allocations, Allocation{Title: title, Hours: hours})
	}

	for _, title := range order {
		t := tasks[title]

		// Dependencies gate the earliest start; the finish date itself is fair game.
		var earliest dateutil.Date
		for _, dep := range t.DependsOn {
			if d := finish[dep]; earliest.IsZero() || d.After(earliest) {
				earliest = d
			}
		}
		if !earliest.IsZero() && earliest.After(cur) {
			cur = firstWorkdayOnOrAfter(earliest, cal.workdays)
			free = cal.hoursPerDay
		}

		remaining := t.EstimatedHours
		var last dateutil.Date
		for remaining > hourEpsilon {
			if cur.After(t.DueDate) {
				warnings = append(warnings,
					fmt.Sprintf("task %q is scheduled past its due date %s (working on %s)", t.Title, t.DueDate, cur))
			}
			if free <= hourEpsilon {
				cur = nextWorkday(cur, cal.workdays)
				free = cal.hoursPerDay
				continue
			}

			hours := remaining
			if free < hours {
				hours = free
			}
			record(cur, t.Title, hours)
			free -= hours
			remaining -= hours
			last = cur

			if remaining > hourEpsilon {
				cur = nextWorkday(cur, cal.workdays)
				free = cal.hoursPerDay
			}
		}
		finish[t.Title] = last
	}

	return days, warnings
}

// firstWorkdayOnOrAfter returns d itself when it is a workday, else the next
// one. workdays is validated non-empty, so this terminates within a week.
func firstWorkdayOnOrAfter(d dateutil.Date, workdays map[time.Weekday]bool) dateutil.Date {
	for !workdays[d.Weekday()] {
		d = d.AddDays(1)
	}
	return d
}

func nextWorkday(d dateutil.Date, workdays map[time.Weekday]bool) dateutil.Date {
	return firstWorkdayOnOrAfter(d.AddDays(1), workdays)
}
