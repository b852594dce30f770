package plan

import (
	"time"

	"pland/pkg/dateutil"
)

// TaskInput is one raw task descriptor as it arrives on the wire.
type TaskInput struct {
	Title          string   `json:"title"`
	EstimatedHours float64  `json:"estimatedHours"`
	DueDate        string   `json:"dueDate"`
	Dependencies   []string `json:"dependencies,omitempty"`
}

// Request is the full input to a single planning call.
//
// WorkHoursPerDay defaults to 8 and WorkDays to Monday through Friday when
// left empty. StartDate defaults to "today" (which makes results depend on
// the wall clock; pass an explicit date for reproducible output).
type Request struct {
	Tasks           []TaskInput `json:"tasks"`
	WorkHoursPerDay float64     `json:"workHoursPerDay,omitempty"`
	WorkDays        []string    `json:"workDays,omitempty"`
	StartDate       string      `json:"startDate,omitempty"`
}

// Task is a validated, normalized task.
type Task struct {
	Title          string
	EstimatedHours float64
	DueDate        dateutil.Date
	DependsOn      []string // deduplicated, every title known to be present
}

// calendar is the normalized work-calendar configuration.
type calendar struct {
	hoursPerDay float64
	workdays    map[time.Weekday]bool
	start       dateutil.Date
}

// Allocation is a number of hours worked on one task on one date.
type Allocation struct {
	Title string  `json:"title"`
	Hours float64 `json:"hours"`
}

// DayRecord is one simulated date and the allocations it received, in the
// order they were produced.
type DayRecord struct {
	Date        dateutil.Date `json:"date"`
	Allocations []Allocation  `json:"allocations"`
}

// Result is the output of a successful planning call.
type Result struct {
	RecommendedOrder []string    `json:"recommendedOrder"`
	Schedule         []DayRecord `json:"schedule"`
	Warnings         []string    `json:"warnings"`
}

const (
	DefaultWorkHoursPerDay = 8.0
)

// defaultWorkdays is Monday through Friday.
func defaultWorkdays() map[time.Weekday]bool {
	return map[time.Weekday]bool{
		time.Monday:    true,
		time.Tuesday:   true,
		time.Wednesday: true,
		time.Thursday:  true,
		time.Friday:    true,
	}
}
