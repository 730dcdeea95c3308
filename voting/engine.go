// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/danielhkuo/messvote/clock"
	"github.com/danielhkuo/messvote/db"
	"github.com/danielhkuo/messvote/models"
	"github.com/danielhkuo/messvote/plan"
)

var (
	ErrNotAuthenticated = errors.New("student is not signed in")
	ErrVotingClosed     = errors.New("voting is closed")
	ErrItemNotVotable   = errors.New("item is not on the menu for this meal")
)

// Planner resolves the votable set for a meal.
type Planner interface {
	VotableItemsTx(ctx context.Context, q plan.Querier, date, meal string) ([]models.PlanEntry, error)
	IsVotable(ctx context.Context, q plan.Querier, date, meal, itemID string) (bool, error)
}

// WindowSource supplies the current voting window.
type WindowSource interface {
	Window(ctx context.Context) (clock.Window, int, error)
}

// Ballot is one vote submission. An empty Day means today.
type Ballot struct {
	StudentID string
	MealType  string
	ItemID    string
	Day       string
}

// Engine accepts votes and aggregates them.
type Engine struct {
	db      *sql.DB
	planner Planner
	window  WindowSource
	clock   clock.Clock
	retry   db.RetryPolicy
}

func NewEngine(conn *sql.DB, planner Planner, window WindowSource, clk clock.Clock) *Engine {
	return &Engine{db: conn, planner: planner, window: window, clock: clk, retry: db.DefaultRetry}
}

// WithRetry overrides the store retry policy.
func (e *Engine) WithRetry(p db.RetryPolicy) *Engine {
	e.retry = p
	return e
}

// Submit records a student's choice for one meal of today.
//
// The vote row, the student's counters and the item vote counts change in
// one transaction. Choosing the same item again changes nothing; switching
// moves one count from the old item to the new one.
func (e *Engine) Submit(ctx context.Context, b Ballot) (*models.Vote, error) {
	b.StudentID = strings.TrimSpace(b.StudentID)
	if b.StudentID == "" {
		return nil, ErrNotAuthenticated
	}
	if !models.IsMealType(b.MealType) {
		return nil, models.Invalid("meal_type", "must be one of: breakfast, lunch, dinner")
	}
	if strings.TrimSpace(b.ItemID) == "" {
		return nil, models.Invalid("item_id", "is required")
	}

	// Window is read fresh on every vote
	w, _, err := e.window.Window(ctx)
	if err != nil {
		return nil, err
	}
	now := e.clock.Now()
	today := clock.Day(now, e.clock.Loc)
	if b.Day == "" {
		b.Day = today
	}
	if b.Day != today || !clock.IsOpen(now, w) {
		return nil, ErrVotingClosed
	}

	var vote *models.Vote
	err = e.retry.Do(ctx, func(ctx context.Context) error {
		return db.InTx(ctx, e.db, func(tx *sql.Tx) error {
			v, err := e.apply(ctx, tx, b, now)
			vote = v
			return err
		})
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotAuthenticated), errors.Is(err, ErrItemNotVotable):
			return nil, err
		}
		return nil, fmt.Errorf("failed to record vote: %w", err)
	}

	return vote, nil
}

func (e *Engine) apply(ctx context.Context, tx *sql.Tx, b Ballot, now time.Time) (*models.Vote, error) {
	var known int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM student WHERE student_id = $1`, b.StudentID).Scan(&known); err != nil {
		return nil, err
	}
	if known == 0 {
		return nil, ErrNotAuthenticated
	}

	ok, err := e.planner.IsVotable(ctx, tx, b.Day, b.MealType, b.ItemID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrItemNotVotable
	}

	stamp := now.UTC()
	vote := &models.Vote{
		StudentID: b.StudentID,
		Date:      b.Day,
		MealType:  b.MealType,
		ItemID:    b.ItemID,
		CreatedAt: stamp,
		UpdatedAt: stamp,
	}

	var previous string
	var created, updated time.Time
	err = tx.QueryRowContext(ctx, `
		SELECT item_id, created_at, updated_at FROM vote
		WHERE student_id = $1 AND vote_date = $2 AND meal_type = $3
	`, b.StudentID, b.Day, b.MealType).Scan(&previous, &created, &updated)
	existed := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	if existed && previous == b.ItemID {
		vote.CreatedAt, vote.UpdatedAt = created, updated
		return vote, nil
	}
	if existed {
		vote.CreatedAt = created
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO vote (student_id, vote_date, meal_type, item_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (student_id, vote_date, meal_type) DO UPDATE SET
			item_id = excluded.item_id,
			updated_at = excluded.updated_at
	`, b.StudentID, b.Day, b.MealType, b.ItemID, stamp)
	if err != nil {
		return nil, err
	}

	// total_votes counts distinct (day, meal) votes, not resubmissions
	if existed {
		_, err = tx.ExecContext(ctx, `UPDATE student SET last_vote_at = $1 WHERE student_id = $2`, stamp, b.StudentID)
	} else {
		_, err = tx.ExecContext(ctx, `
			UPDATE student SET total_votes = total_votes + 1, last_vote_at = $1 WHERE student_id = $2
		`, stamp, b.StudentID)
	}
	if err != nil {
		return nil, err
	}

	if b.ItemID != models.SkipItemID {
		if _, err := tx.ExecContext(ctx, `UPDATE menu_item SET vote_count = vote_count + 1 WHERE id = $1`, b.ItemID); err != nil {
			return nil, err
		}
	}
	if existed && previous != models.SkipItemID {
		_, err := tx.ExecContext(ctx, `
			UPDATE menu_item SET vote_count = vote_count - 1 WHERE id = $1 AND vote_count > 0
		`, previous)
		if err != nil {
			return nil, err
		}
	}

	slog.Info("vote recorded",
		"student_id", b.StudentID,
		"date", b.Day,
		"meal_type", b.MealType,
		"item_id", b.ItemID,
		"changed_from", previous,
	)
	return vote, nil
}

// Mine returns the student's current choice per meal type for day.
func (e *Engine) Mine(ctx context.Context, studentID, day string) (map[string]string, error) {
	if day == "" {
		day = e.clock.Today()
	}
	rows, err := e.db.QueryContext(ctx, `
		SELECT meal_type, item_id FROM vote WHERE student_id = $1 AND vote_date = $2
	`, studentID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to load votes: %w", err)
	}
	defer rows.Close()

	mine := map[string]string{}
	for rows.Next() {
		var meal, item string
		if err := rows.Scan(&meal, &item); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		mine[meal] = item
	}
	return mine, rows.Err()
}
