package plan

import (
	"time"

	logx "pland/pkg/logx"
)

// Compute runs registry -> sequencer -> allocator on a single request.
//
// Any validation or sequencing failure aborts before allocation begins;
// there are no partial schedules. The warnings on a successful Result never
// alter scheduling decisions.
func Compute(req Request) (*Result, error) {
	cal, err := normalizeCalendar(req)
	if err != nil {
		return nil, err
	}
	tasks, err := buildTasks(req.Tasks)
	if err != nil {
		return nil, err
	}
	order, err := sequence(tasks)
	if err != nil {
		return nil, err
	}
	schedule, warnings := allocate(order, tasks, cal)
	return &Result{
		RecommendedOrder: order,
		Schedule:         schedule,
		Warnings:         warnings,
	}, nil
}

// Planner wraps Compute with logging for the service layer. All
// scheduling state is per-call; the struct holds only the logger.
type Planner struct {
	log logx.Logger
}

func New(log logx.Logger) *Planner {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Planner{log: log}
}

func (p *Planner) Plan(req Request) (*Result, error) {
	start := time.Now()
	res, err := Compute(req)
	if err != nil {
		p.log.Debug("plan rejected",
			logx.Int("tasks", len(req.Tasks)),
			logx.Err(err))
		return nil, err
	}
	p.log.Info("plan computed",
		logx.Int("tasks", len(req.Tasks)),
		logx.Int("days", len(res.Schedule)),
		logx.Int("warnings", len(res.Warnings)),
		logx.Duration("took", time.Since(start)))
	return res, nil
}
