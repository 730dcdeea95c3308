// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/danielhkuo/messvote/clock"
	"github.com/danielhkuo/messvote/models"
)

// Results tallies every vote cast for day in one scan, keyed by meal type
// and then item id. Skip votes are counted under models.SkipItemID.
func (e *Engine) Results(ctx context.Context, day string) (map[string]map[string]int, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT meal_type, item_id, COUNT(*) FROM vote
		WHERE vote_date = $1
		GROUP BY meal_type, item_id
	`, day)
	if err != nil {
		return nil, fmt.Errorf("failed to tally votes: %w", err)
	}
	defer rows.Close()

	out := make(map[string]map[string]int, len(models.MealTypes))
	for _, m := range models.MealTypes {
		out[m] = map[string]int{}
	}
	for rows.Next() {
		var meal, item string
		var n int
		if err := rows.Scan(&meal, &item, &n); err != nil {
			return nil, fmt.Errorf("failed to scan tally: %w", err)
		}
		if counts, ok := out[meal]; ok {
			counts[item] = n
		}
	}
	return out, rows.Err()
}

// ComputeResults tallies one meal of day.
func (e *Engine) ComputeResults(ctx context.Context, day, meal string) (map[string]int, error) {
	if !models.IsMealType(meal) {
		return nil, models.Invalid("meal_type", "must be one of: breakfast, lunch, dinner")
	}
	all, err := e.Results(ctx, day)
	if err != nil {
		return nil, err
	}
	return all[meal], nil
}

// ResolveWinner returns the winning item for one meal of day, or nil when
// nobody voted for any candidate. Candidates are the votable items plus
// skip.
func (e *Engine) ResolveWinner(ctx context.Context, day, meal string) (*models.ItemTally, error) {
	counts, err := e.ComputeResults(ctx, day, meal)
	if err != nil {
		return nil, err
	}
	items, err := e.planner.VotableItemsTx(ctx, e.db, day, meal)
	if err != nil {
		return nil, err
	}

	tallies := tally(items, counts)
	return winner(tallies), nil
}

// Summary builds the per-meal results view for day. Winners are only
// filled in once voting for day has closed.
func (e *Engine) Summary(ctx context.Context, day string) (*models.DaySummary, error) {
	w, _, err := e.window.Window(ctx)
	if err != nil {
		return nil, err
	}
	all, err := e.Results(ctx, day)
	if err != nil {
		return nil, err
	}

	summary := &models.DaySummary{
		Date:   day,
		Closed: clock.ClosedFor(day, e.clock.Now(), w, e.clock.Loc),
	}
	for _, meal := range models.MealTypes {
		items, err := e.planner.VotableItemsTx(ctx, e.db, day, meal)
		if err != nil {
			return nil, err
		}

		tallies := tally(items, all[meal])
		res := models.MealResult{MealType: meal, Tallies: tallies}
		for _, t := range tallies {
			res.Total += t.Count
		}
		if summary.Closed {
			res.Winner = winner(tallies)
		}
		summary.Meals = append(summary.Meals, res)
	}
	return summary, nil
}

// tally lists every candidate with its count and share, highest first.
// Votes for items no longer votable are left out.
func tally(items []models.PlanEntry, counts map[string]int) []models.ItemTally {
	out := make([]models.ItemTally, 0, len(items)+1)
	total := 0
	for _, it := range items {
		n := counts[it.ItemID]
		total += n
		out = append(out, models.ItemTally{ItemID: it.ItemID, Name: it.Name, Count: n})
	}
	skips := counts[models.SkipItemID]
	total += skips
	out = append(out, models.ItemTally{ItemID: models.SkipItemID, Name: models.SkipLabel, Count: skips})

	for i := range out {
		if total > 0 {
			out[i].Percent = math.Round(float64(out[i].Count)*1000/float64(total)) / 10
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out
}

// winner picks the highest count; ties go to the lowest item id. No votes
// means no winner. Expects tallies sorted as tally returns them.
func winner(tallies []models.ItemTally) *models.ItemTally {
	if len(tallies) == 0 || tallies[0].Count == 0 {
		return nil
	}
	w := tallies[0]
	return &w
}
