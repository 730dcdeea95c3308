// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/messvote/middleware"
	"github.com/danielhkuo/messvote/models"
	"github.com/danielhkuo/messvote/plan"
)

type PlanHandler struct {
	plans *plan.Service
}

func NewPlanHandler(plans *plan.Service) *PlanHandler {
	return &PlanHandler{plans: plans}
}

// ListPlans handles GET /plans
//
// Without query parameters it returns the rolling horizon, one entry per
// day. With from and to it returns only the stored plans in that range.
func (h *PlanHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")

	var (
		plans []models.DailyPlan
		err   error
	)
	switch {
	case from == "" && to == "":
		plans, err = h.plans.Calendar(r.Context())
	case from == "" || to == "":
		middleware.ErrorResponse(w, http.StatusBadRequest, "from and to must be given together")
		return
	default:
		plans, err = h.plans.Range(r.Context(), from, to)
	}
	if err != nil {
		writeServiceError(w, err, "list plans")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, plans)
}

// GetPlan handles GET /plans/{date}
func (h *PlanHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	p, err := h.plans.Get(r.Context(), r.PathValue("date"))
	if err != nil {
		writeServiceError(w, err, "load plan")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, p)
}

// SavePlan handles PUT /admin/plans/{date}
func (h *PlanHandler) SavePlan(w http.ResponseWriter, r *http.Request) {
	var req models.SavePlanRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	p, err := h.plans.Save(r.Context(), r.PathValue("date"), req.Meals)
	if err != nil {
		writeServiceError(w, err, "save plan")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, p)
}

// ClearPlan handles DELETE /admin/plans/{date}
func (h *PlanHandler) ClearPlan(w http.ResponseWriter, r *http.Request) {
	if err := h.plans.Clear(r.Context(), r.PathValue("date")); err != nil {
		writeServiceError(w, err, "clear plan")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddItem handles POST /admin/plans/{date}/{meal}/items
func (h *PlanHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req models.AddPlanItemRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	p, err := h.plans.AddItem(r.Context(), r.PathValue("date"), r.PathValue("meal"), req.ItemID)
	if err != nil {
		writeServiceError(w, err, "add plan item")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, p)
}

// RemoveItem handles DELETE /admin/plans/{date}/{meal}/items/{itemID}
func (h *PlanHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	err := h.plans.RemoveItem(r.Context(), r.PathValue("date"), r.PathValue("meal"), r.PathValue("itemID"))
	if err != nil {
		writeServiceError(w, err, "remove plan item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
