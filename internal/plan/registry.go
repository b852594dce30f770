package plan

import (
	"math"
	"strings"

	"pland/pkg/dateutil"
)

// buildTasks validates raw descriptors and returns the normalized task set.
//
// It rejects, in this order per task: blank title, non-finite or non-positive
// hour estimate, malformed due date, duplicate title. Dependency references
// are checked in a second pass so forward references are legal.
func buildTasks(inputs []TaskInput) (map[string]Task, error) {
	if len(inputs) == 0 {
		return nil, inputShapef("tasks must be a non-empty list")
	}

	tasks := make(map[string]Task, len(inputs))
	for i, in := range inputs {
		title := strings.TrimSpace(in.Title)
		if title == "" {
			return nil, validationf("task #%d: title is required", i)
		}
		if math.IsNaN(in.EstimatedHours) || math.IsInf(in.EstimatedHours, 0) {
			return nil, validationf("task %q: estimatedHours is not a number", title)
		}
		if in.EstimatedHours <= 0 {
			return nil, validationf("task %q: estimatedHours must be > 0 (got %v)", title, in.EstimatedHours)
		}
		due, err := dateutil.Parse(in.DueDate)
		if err != nil {
			return nil, validationf("task %q: dueDate: %v", title, err)
		}
		if _, exists := tasks[title]; exists {
			return nil, validationf("duplicate task title %q", title)
		}
		tasks[title] = Task{
			Title:          title,
			EstimatedHours: in.EstimatedHours,
			DueDate:        due,
		}
	}

	// Resolve dependencies once all titles are known.
	for _, in := range inputs {
		title := strings.TrimSpace(in.Title)
		seen := make(map[string]bool, len(in.Dependencies))
		deps := make([]string, 0, len(in.Dependencies))
		for _, dep := range in.Dependencies {
			dep = strings.TrimSpace(dep)
			if dep == title {
				return nil, dependencyf("task %q depends on itself", title)
			}
			if _, ok := tasks[dep]; !ok {
				return nil, dependencyf("task %q depends on unknown task %q", title, dep)
			}
			if seen[dep] {
				continue
			}
			seen[dep] = true
			deps = append(deps, dep)
		}
		t := tasks[title]
		t.DependsOn = deps
		tasks[title] = t
	}

	return tasks, nil
}
