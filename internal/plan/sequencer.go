package plan

import (
	"container/heap"
	"sort"
	"strings"
)

// sequence computes a deterministic topological order over the task set.
//
// The ready set is a priority queue keyed by (dueDate asc, estimatedHours
// desc, title asc). The key is a total order, so ties between otherwise
// unconstrained tasks always resolve the same way. A dependent re-enters the
// ready set the moment its last dependency is emitted and interleaves with
// tasks that were already waiting.
func sequence(tasks map[string]Task) ([]string, error) {
	indeg := make(map[string]int, len(tasks))
	dependents := make(map[string][]string, len(tasks))
	for title, t := range tasks {
		indeg[title] = len(t.DependsOn)
		for _, dep := range t.DependsOn {
			dependents[dep] = append(dependents[dep], title)
		}
	}

	ready := &readyHeap{}
	heap.Init(ready)
	for title, n := range indeg {
		if n == 0 {
			heap.Push(ready, tasks[title])
		}
	}

	order := make([]string, 0, len(tasks))
	for ready.Len() > 0 {
		next := heap.Pop(ready).(Task)
		order = append(order, next.Title)
		for _, dependent := range dependents[next.Title] {
			indeg[dependent]--
			if indeg[dependent] == 0 {
				heap.Push(ready, tasks[dependent])
			}
		}
	}

	if len(order) < len(tasks) {
		if witness := findCycle(tasks, indeg); len(witness) > 0 {
			return nil, cyclef("tasks cannot be ordered (%s)", strings.Join(witness, " -> "))
		}
		return nil, cyclef("tasks cannot be ordered")
	}
	return order, nil
}

// readyHeap orders ready tasks by due date, then larger estimate, then title.
type readyHeap []Task

func (h readyHeap) Len() int { return len(h) }

func (h readyHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if c := a.DueDate.Compare(b.DueDate); c != 0 {
		return c < 0
	}
	if a.EstimatedHours != b.EstimatedHours {
		return a.EstimatedHours > b.EstimatedHours
	}
	return a.Title < b.Title
}

func (h readyHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *readyHeap) Push(x any) { *h = append(*h, x.(Task)) }

func (h *readyHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// findCycle extracts one cycle among the tasks Kahn's algorithm could not
// emit. DFS roots and neighbors are visited in sorted title order, so the
// witness is stable for a given input.
func findCycle(tasks map[string]Task, indeg map[string]int) []string {
	stuck := make([]string, 0, len(indeg))
	for title, n := range indeg {
		if n > 0 {
			stuck = append(stuck, title)
		}
	}
	sort.Strings(stuck)

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(stuck))
	parent := make(map[string]string, len(stuck))

	var cycle []string
	var dfs func(u string) bool
	dfs = func(u string) bool {
		color[u] = gray
		deps := append([]string(nil), tasks[u].DependsOn...)
		sort.Strings(deps)
		for _, v := range deps {
			switch color[v] {
			case white:
				parent[v] = u
				if dfs(v) {
					return true
				}
			case gray:
				// Back-edge u -> v closes a cycle; walk the parent chain back to v.
				cycle = append(cycle, v)
				for cur := u; cur != v; cur = parent[cur] {
					cycle = append(cycle, cur)
				}
				cycle = append(cycle, v)
				return true
			}
		}
		color[u] = black
		return false
	}

	for _, title := range stuck {
		if color[title] == white && dfs(title) {
			break
		}
	}
	if len(cycle) == 0 {
		return nil
	}

	// The parent walk produced the path in reverse; flip it so edges read in
	// dependency direction.
	out := make([]string, len(cycle))
	for i := range cycle {
		out[i] = cycle[len(cycle)-1-i]
	}
	return out
}
