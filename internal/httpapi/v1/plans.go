package v1

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"pland/internal/eventbus"
	"pland/internal/plan"
	"pland/internal/storage"
	logx "pland/pkg/logx"
)

type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type planCreated struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	plan.Result
}

type planSummary struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"createdAt"`
	TaskCount    int       `json:"taskCount"`
	WarningCount int       `json:"warningCount"`
}

type planList struct {
	Items []planSummary `json:"items"`
}

// createPlan handles POST /plans.
func (h *Handlers) createPlan(w http.ResponseWriter, r *http.Request) {
	var req plan.Request
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "input_shape", "invalid request body: "+err.Error())
		return
	}

	// Server-side planner defaults apply only where the request is silent.
	if req.WorkHoursPerDay == 0 && h.Defaults.HoursPerDay > 0 {
		req.WorkHoursPerDay = h.Defaults.HoursPerDay
	}
	if len(req.WorkDays) == 0 && len(h.Defaults.WorkDays) > 0 {
		req.WorkDays = h.Defaults.WorkDays
	}

	res, err := h.Planner.Plan(req)
	if err != nil {
		writePlanError(w, err)
		return
	}

	id := uuid.NewString()
	now := time.Now().UTC()

	payload, err := json.Marshal(res)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "encode result: "+err.Error())
		return
	}
	if h.Bus != nil {
		h.Bus.Publish(eventbus.Event{
			Type: eventbus.TypePlanComputed,
			Time: now,
			Data: storage.PlanEntry{
				ID:           id,
				CreatedAt:    now,
				TaskCount:    len(req.Tasks),
				WarningCount: len(res.Warnings),
				Result:       payload,
			},
		})
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Location", "/api/v1/plans/"+id)
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(planCreated{ID: id, CreatedAt: now, Result: *res})
}

// getPlan handles GET /plans/{planID}.
func (h *Handlers) getPlan(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeError(w, http.StatusNotFound, "not_found", "plan history is disabled")
		return
	}
	id := chi.URLParam(r, "planID")

	e, err := h.Store.GetPlan(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "no plan with id "+id)
			return
		}
		h.Log.Error("plan lookup failed", logx.String("id", id), logx.Err(err))
		writeError(w, http.StatusInternalServerError, "internal", "plan lookup failed")
		return
	}

	var res plan.Result
	if err := json.Unmarshal(e.Result, &res); err != nil {
		h.Log.Error("stored plan is unreadable", logx.String("id", id), logx.Err(err))
		writeError(w, http.StatusInternalServerError, "internal", "stored plan is unreadable")
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(planCreated{ID: e.ID, CreatedAt: e.CreatedAt, Result: res})
}

// listPlans handles GET /plans.
func (h *Handlers) listPlans(w http.ResponseWriter, r *http.Request) {
	items := []planSummary{}
	if h.Store != nil {
		entries, err := h.Store.ListPlans(r.Context(), 50)
		if err != nil {
			h.Log.Error("plan list failed", logx.Err(err))
			writeError(w, http.StatusInternalServerError, "internal", "plan list failed")
			return
		}
		for _, e := range entries {
			items = append(items, planSummary{
				ID:           e.ID,
				CreatedAt:    e.CreatedAt,
				TaskCount:    e.TaskCount,
				WarningCount: e.WarningCount,
			})
		}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(planList{Items: items})
}

// writePlanError maps planner failures onto HTTP statuses: malformed input
// is the caller's formatting problem (400), everything else is a valid
// request the planner refused (422).
func writePlanError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, plan.ErrInputShape):
		writeError(w, http.StatusBadRequest, "input_shape", err.Error())
	case errors.Is(err, plan.ErrTaskValidation):
		writeError(w, http.StatusUnprocessableEntity, "task_validation", err.Error())
	case errors.Is(err, plan.ErrDependency):
		writeError(w, http.StatusUnprocessableEntity, "dependency", err.Error())
	case errors.Is(err, plan.ErrCycle):
		writeError(w, http.StatusUnprocessableEntity, "cycle", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: kind, Message: msg})
}
