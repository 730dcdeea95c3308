// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"

	"github.com/danielhkuo/messvote/clock"
	"github.com/danielhkuo/messvote/middleware"
	"github.com/danielhkuo/messvote/models"
	"github.com/danielhkuo/messvote/plan"
	"github.com/danielhkuo/messvote/settings"
	"github.com/danielhkuo/messvote/voting"
)

type VotingHandler struct {
	engine   *voting.Engine
	plans    *plan.Service
	settings *settings.Service
	clock    clock.Clock
}

func NewVotingHandler(engine *voting.Engine, plans *plan.Service, settings *settings.Service, clk clock.Clock) *VotingHandler {
	return &VotingHandler{engine: engine, plans: plans, settings: settings, clock: clk}
}

// GetWindow handles GET /window
func (h *VotingHandler) GetWindow(w http.ResponseWriter, r *http.Request) {
	resp, err := h.window(r.Context())
	if err != nil {
		writeServiceError(w, err, "load voting window")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// MenuToday handles GET /menu/today
//
// Returns the votable items of every meal for today together with the
// window state and the caller's current choices.
func (h *VotingHandler) MenuToday(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFrom(r.Context())
	ctx := r.Context()

	win, err := h.window(ctx)
	if err != nil {
		writeServiceError(w, err, "load voting window")
		return
	}

	resp := models.MenuTodayResponse{
		Date:   win.Today,
		Window: win,
		Meals:  make(map[string][]models.PlanEntry, len(models.MealTypes)),
	}
	for _, meal := range models.MealTypes {
		items, err := h.plans.VotableItems(ctx, win.Today, meal)
		if err != nil {
			writeServiceError(w, err, "load votable items")
			return
		}
		resp.Meals[meal] = items
	}

	resp.Votes, err = h.engine.Mine(ctx, claims.Subject, win.Today)
	if err != nil {
		writeServiceError(w, err, "load votes")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// SubmitVote handles POST /votes
func (h *VotingHandler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFrom(r.Context())

	var req models.SubmitVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	vote, err := h.engine.Submit(r.Context(), voting.Ballot{
		StudentID: claims.Subject,
		MealType:  req.MealType,
		ItemID:    req.ItemID,
	})
	if err != nil {
		writeServiceError(w, err, "submit vote")
		return
	}

	msg := "Vote recorded"
	if vote.ItemID == models.SkipItemID {
		msg = "Meal skipped"
	}
	middleware.JSONResponse(w, http.StatusOK, models.SubmitVoteResponse{
		Vote:    *vote,
		Message: msg,
	})
}

// MyVotes handles GET /votes/me?date=
func (h *VotingHandler) MyVotes(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFrom(r.Context())

	day, ok := h.dayParam(w, r)
	if !ok {
		return
	}

	mine, err := h.engine.Mine(r.Context(), claims.Subject, day)
	if err != nil {
		writeServiceError(w, err, "load votes")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, mine)
}

// GetResults handles GET /results?date= and GET /admin/results?date=
//
// Counts are always visible; winners appear once voting for the day is over.
func (h *VotingHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	day, ok := h.dayParam(w, r)
	if !ok {
		return
	}

	summary, err := h.engine.Summary(r.Context(), day)
	if err != nil {
		writeServiceError(w, err, "compute results")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, summary)
}

func (h *VotingHandler) window(ctx context.Context) (models.WindowResponse, error) {
	win, cycleDays, err := h.settings.Window(ctx)
	if err != nil {
		return models.WindowResponse{}, err
	}

	now := h.clock.Now()
	st := clock.CurrentStatus(now, win)
	return models.WindowResponse{
		Open:      st.Open,
		Start:     st.Start,
		End:       st.End,
		Hours:     st.Remaining.Hours,
		Minutes:   st.Remaining.Minutes,
		Seconds:   st.Remaining.Seconds,
		ClosesIn:  st.ClosesIn,
		Today:     clock.Day(now, h.clock.Location()),
		CycleDays: cycleDays,
	}, nil
}

// dayParam reads the optional date query parameter, defaulting to today.
func (h *VotingHandler) dayParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	day := r.URL.Query().Get("date")
	if day == "" {
		return h.clock.Today(), true
	}
	if _, err := clock.ParseDay(day, h.clock.Location()); err != nil {
		middleware.ValidationResponse(w, models.Invalid("date", "must be YYYY-MM-DD"))
		return "", false
	}
	return day, true
}
