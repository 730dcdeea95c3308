// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"testing"
	"time"

	"github.com/danielhkuo/messvote/models"
	"github.com/danielhkuo/messvote/testutil"
)

func TestTally_OrderAndPercent(t *testing.T) {
	items := []models.PlanEntry{{ItemID: "b", Name: "B"}, {ItemID: "a", Name: "A"}, {ItemID: "c", Name: "C"}}
	counts := map[string]int{"a": 2, "b": 2, "skip": 1, "gone": 9}

	got := tally(items, counts)
	wantOrder := []string{"a", "b", "skip", "c"}
	if len(got) != len(wantOrder) {
		t.Fatalf("expected %d tallies, got %+v", len(wantOrder), got)
	}
	for i, id := range wantOrder {
		if got[i].ItemID != id {
			t.Errorf("position %d = %s, want %s", i, got[i].ItemID, id)
		}
	}
	if got[0].Percent != 40 || got[2].Percent != 20 || got[3].Percent != 0 {
		t.Errorf("unexpected percentages: %+v", got)
	}
	if got[2].Name != models.SkipLabel {
		t.Errorf("skip should be labelled %q", models.SkipLabel)
	}
}

func TestWinner(t *testing.T) {
	tests := []struct {
		name   string
		items  []models.PlanEntry
		counts map[string]int
		want   string
	}{
		{"no votes", []models.PlanEntry{{ItemID: "a"}}, map[string]int{}, ""},
		{"clear winner", []models.PlanEntry{{ItemID: "a"}, {ItemID: "b"}}, map[string]int{"a": 1, "b": 3}, "b"},
		{"tie goes to lowest id", []models.PlanEntry{{ItemID: "z"}, {ItemID: "m"}}, map[string]int{"z": 2, "m": 2}, "m"},
		{"skip can win", []models.PlanEntry{{ItemID: "a"}}, map[string]int{"a": 1, "skip": 2}, "skip"},
		{"skip ties lose to lower id", []models.PlanEntry{{ItemID: "abc"}}, map[string]int{"abc": 2, "skip": 2}, "abc"},
		{"non-candidates ignored", []models.PlanEntry{{ItemID: "a"}}, map[string]int{"a": 1, "x": 5}, "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := winner(tally(tt.items, tt.counts))
			switch {
			case tt.want == "" && w != nil:
				t.Errorf("expected no winner, got %+v", w)
			case tt.want != "" && (w == nil || w.ItemID != tt.want):
				t.Errorf("winner = %+v, want %s", w, tt.want)
			}
		})
	}
}

func TestResults_PartitionsByDayAndMeal(t *testing.T) {
	e, conn := setup(t)
	ctx := context.Background()
	a := testutil.CreateTestItem(t, conn, "A", models.MealLunch)

	testutil.CastTestVote(t, conn, "1", today, models.MealLunch, a)
	testutil.CastTestVote(t, conn, "2", today, models.MealLunch, models.SkipItemID)
	testutil.CastTestVote(t, conn, "1", today, models.MealDinner, a)
	testutil.CastTestVote(t, conn, "1", "2025-06-09", models.MealLunch, a)

	all, err := e.Results(ctx, today)
	if err != nil {
		t.Fatal(err)
	}
	if all[models.MealLunch][a] != 1 || all[models.MealLunch][models.SkipItemID] != 1 {
		t.Errorf("unexpected lunch tally: %v", all[models.MealLunch])
	}
	if all[models.MealDinner][a] != 1 || len(all[models.MealBreakfast]) != 0 {
		t.Errorf("meals leaked into each other: %v", all)
	}

	lunch, err := e.ComputeResults(ctx, today, models.MealLunch)
	if err != nil {
		t.Fatal(err)
	}
	if sum(lunch) != 2 {
		t.Errorf("expected 2 lunch votes today, got %v", lunch)
	}
}

func TestResolveWinner(t *testing.T) {
	e, conn := setup(t)
	ctx := context.Background()
	a := testutil.CreateTestItem(t, conn, "A", models.MealLunch)
	b := testutil.CreateTestItem(t, conn, "B", models.MealLunch)
	testutil.CreateTestPlan(t, conn, today, map[string][]string{models.MealLunch: {a, b}})

	w, err := e.ResolveWinner(ctx, today, models.MealLunch)
	if err != nil {
		t.Fatal(err)
	}
	if w != nil {
		t.Errorf("expected no winner without votes, got %+v", w)
	}

	testutil.CastTestVote(t, conn, "1", today, models.MealLunch, a)
	testutil.CastTestVote(t, conn, "2", today, models.MealLunch, b)
	testutil.CastTestVote(t, conn, "3", today, models.MealLunch, b)

	w, err = e.ResolveWinner(ctx, today, models.MealLunch)
	if err != nil {
		t.Fatal(err)
	}
	if w == nil || w.ItemID != b || w.Count != 2 || w.Name != "B" {
		t.Errorf("winner = %+v, want B with 2 votes", w)
	}
}

func TestSummary_WinnerOnlyWhenClosed(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	testutil.SetWindow(t, conn, "08:00", "12:00", 7)
	a := testutil.CreateTestItem(t, conn, "A", models.MealLunch)
	testutil.CastTestVote(t, conn, "1", today, models.MealLunch, a)
	testutil.CastTestVote(t, conn, "1", "2025-06-11", models.MealLunch, a)

	tests := []struct {
		name       string
		now        time.Time
		day        string
		wantWinner bool
	}{
		{"today while open", time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC), today, false},
		{"today after close", time.Date(2025, 6, 10, 13, 0, 0, 0, time.UTC), today, true},
		{"past day", time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC), today, true},
		{"future day", time.Date(2025, 6, 10, 13, 0, 0, 0, time.UTC), "2025-06-11", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := newEngine(t, conn, tt.now).Summary(context.Background(), tt.day)
			if err != nil {
				t.Fatal(err)
			}
			if len(s.Meals) != 3 {
				t.Fatalf("expected 3 meals, got %d", len(s.Meals))
			}
			lunch := s.Meals[1]
			if lunch.MealType != models.MealLunch || lunch.Total != 1 {
				t.Errorf("unexpected lunch result: %+v", lunch)
			}
			if (lunch.Winner != nil) != tt.wantWinner {
				t.Errorf("winner = %+v, wantWinner %v", lunch.Winner, tt.wantWinner)
			}
		})
	}
}

func sum(m map[string]int) int {
	n := 0
	for _, v := range m {
		n += v
	}
	return n
}
