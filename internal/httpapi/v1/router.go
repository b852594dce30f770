// Package v1 holds the REST API v1 handlers.
package v1

import (
	"github.com/go-chi/chi/v5"

	"pland/internal/config"
	"pland/internal/eventbus"
	"pland/internal/plan"
	"pland/internal/storage"
	logx "pland/pkg/logx"
)

// Handlers carries the dependencies of the v1 endpoints. Store and Bus may
// be nil; the plan endpoints degrade to compute-only behavior.
type Handlers struct {
	Planner  *plan.Planner
	Store    storage.Store
	Bus      eventbus.Bus
	Defaults config.PlannerConfig
	Log      logx.Logger
}

// Router returns the chi.Router for REST API v1.
func Router(h *Handlers) chi.Router {
	r := chi.NewRouter()

	r.Post("/plans", h.createPlan)
	r.Get("/plans", h.listPlans)
	r.Get("/plans/{planID}", h.getPlan)

	return r
}
