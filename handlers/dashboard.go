// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"math"
	"net/http"

	"github.com/danielhkuo/messvote/catalog"
	"github.com/danielhkuo/messvote/clock"
	"github.com/danielhkuo/messvote/middleware"
	"github.com/danielhkuo/messvote/models"
	"github.com/danielhkuo/messvote/students"
	"github.com/danielhkuo/messvote/voting"
)

type DashboardHandler struct {
	students *students.Service
	catalog  *catalog.Service
	engine   *voting.Engine
	clock    clock.Clock
}

func NewDashboardHandler(students *students.Service, catalog *catalog.Service, engine *voting.Engine, clk clock.Clock) *DashboardHandler {
	return &DashboardHandler{students: students, catalog: catalog, engine: engine, clock: clk}
}

// GetStats handles GET /admin/stats
func (h *DashboardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	today := h.clock.Today()

	roster, err := h.students.List(ctx)
	if err != nil {
		writeServiceError(w, err, "list students")
		return
	}
	tallies, err := h.engine.Results(ctx, today)
	if err != nil {
		writeServiceError(w, err, "tally votes")
		return
	}
	items, err := h.catalog.List(ctx, "", false)
	if err != nil {
		writeServiceError(w, err, "list items")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, dashboardStats(today, len(roster), tallies, len(items)))
}

// dashboardStats counts every vote of the day, skips included. Participation
// is votes over three meals per student, as a percentage to one decimal.
func dashboardStats(day string, studentCount int, tallies map[string]map[string]int, itemCount int) models.DashboardStats {
	st := models.DashboardStats{
		Date:          day,
		TotalStudents: studentCount,
		MenuItems:     itemCount,
	}
	for _, counts := range tallies {
		for _, n := range counts {
			st.TodayVotes += n
		}
	}
	if studentCount > 0 {
		rate := float64(st.TodayVotes) / float64(studentCount*len(models.MealTypes)) * 100
		st.ParticipationRate = math.Round(rate*10) / 10
	}
	return st
}
