// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package plan

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielhkuo/messvote/clock"
	"github.com/danielhkuo/messvote/db"
	"github.com/danielhkuo/messvote/models"
)

var (
	ErrPlanNotFound   = errors.New("no plan for this date")
	ErrDuplicateItem  = errors.New("item is already planned for this meal")
	ErrOutsideHorizon = errors.New("date is outside the planning horizon")
)

// Catalog resolves item ids when entries are planned.
type Catalog interface {
	Get(ctx context.Context, id string) (*models.MenuItem, error)
}

// Horizon supplies the planning horizon length in days.
type Horizon interface {
	Window(ctx context.Context) (clock.Window, int, error)
}

// Notifier is told after every committed plan change.
type Notifier interface {
	PlanChanged(ctx context.Context, date string)
}

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Service manages the day-by-day meal plan.
type Service struct {
	db       *sql.DB
	catalog  Catalog
	horizon  Horizon
	clock    clock.Clock
	notifier Notifier
}

func NewService(db *sql.DB, catalog Catalog, horizon Horizon, clk clock.Clock) *Service {
	return &Service{db: db, catalog: catalog, horizon: horizon, clock: clk}
}

// SetNotifier registers the change listener. Not safe to call once the
// service is in use.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// Get returns the plan for date.
func (s *Service) Get(ctx context.Context, date string) (*models.DailyPlan, error) {
	if err := checkDate(date); err != nil {
		return nil, err
	}

	plans, err := s.load(ctx, date, date)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, ErrPlanNotFound
	}
	return &plans[0], nil
}

// Range returns every stored plan with from <= date <= to, in date order.
func (s *Service) Range(ctx context.Context, from, to string) ([]models.DailyPlan, error) {
	if err := checkDate(from); err != nil {
		return nil, err
	}
	if err := checkDate(to); err != nil {
		return nil, err
	}
	return s.load(ctx, from, to)
}

// Days returns today and the following days of the planning horizon.
func (s *Service) Days(ctx context.Context) ([]string, error) {
	_, n, err := s.horizon.Window(ctx)
	if err != nil {
		return nil, err
	}
	today := s.clock.Today()
	days := make([]string, 0, n)
	for i := 0; i < n; i++ {
		d, err := clock.AddDays(today, i)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, nil
}

// Calendar returns one plan per horizon day. Days without a stored plan
// come back with empty meal lists.
func (s *Service) Calendar(ctx context.Context) ([]models.DailyPlan, error) {
	days, err := s.Days(ctx)
	if err != nil {
		return nil, err
	}

	stored, err := s.load(ctx, days[0], days[len(days)-1])
	if err != nil {
		return nil, err
	}
	byDate := make(map[string]models.DailyPlan, len(stored))
	for _, p := range stored {
		byDate[p.Date] = p
	}

	out := make([]models.DailyPlan, 0, len(days))
	for _, d := range days {
		p, ok := byDate[d]
		if !ok {
			p = emptyPlan(d)
		}
		out = append(out, p)
	}
	return out, nil
}

// AddItem appends a catalog item to one meal of date, creating the plan if
// needed.
func (s *Service) AddItem(ctx context.Context, date, meal, itemID string) (*models.DailyPlan, error) {
	if err := checkMeal(meal); err != nil {
		return nil, err
	}
	if err := s.checkHorizon(ctx, date); err != nil {
		return nil, err
	}
	entry, err := s.resolve(ctx, meal, itemID)
	if err != nil {
		return nil, err
	}

	err = db.InTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.touch(ctx, tx, date); err != nil {
			return err
		}

		var exists int
		err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM plan_entry WHERE plan_date = $1 AND meal_type = $2 AND item_id = $3
		`, date, meal, itemID).Scan(&exists)
		if err != nil {
			return err
		}
		if exists > 0 {
			return ErrDuplicateItem
		}

		var next int
		err = tx.QueryRowContext(ctx, `
			SELECT COALESCE(MAX(seq) + 1, 0) FROM plan_entry WHERE plan_date = $1 AND meal_type = $2
		`, date, meal).Scan(&next)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO plan_entry (plan_date, meal_type, seq, item_id, name, description, image_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, date, meal, next, entry.ItemID, entry.Name, entry.Description, entry.ImageURL)
		if db.IsUniqueViolation(err) {
			return ErrDuplicateItem
		}
		return err
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateItem) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to add plan item: %w", err)
	}

	slog.Info("plan item added", "date", date, "meal_type", meal, "item_id", itemID)
	s.notify(ctx, date)
	return s.Get(ctx, date)
}

// RemoveItem drops one item from a meal. Removing an absent item is a no-op.
func (s *Service) RemoveItem(ctx context.Context, date, meal, itemID string) error {
	if err := checkDate(date); err != nil {
		return err
	}
	if err := checkMeal(meal); err != nil {
		return err
	}

	var removed int64
	err := db.InTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			DELETE FROM plan_entry WHERE plan_date = $1 AND meal_type = $2 AND item_id = $3
		`, date, meal, itemID)
		if err != nil {
			return err
		}
		if removed, err = res.RowsAffected(); err != nil || removed == 0 {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE daily_plan SET updated_at = $1 WHERE plan_date = $2`,
			s.clock.Now().UTC(), date)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to remove plan item: %w", err)
	}

	if removed > 0 {
		slog.Info("plan item removed", "date", date, "meal_type", meal, "item_id", itemID)
		s.notify(ctx, date)
	}
	return nil
}

// Save replaces the whole plan for date. Meals missing from selection end
// up empty. Every id is resolved and snapshotted in the given order.
func (s *Service) Save(ctx context.Context, date string, selection map[string][]string) (*models.DailyPlan, error) {
	if err := s.checkHorizon(ctx, date); err != nil {
		return nil, err
	}

	entries := make(map[string][]models.PlanEntry, len(selection))
	for meal, ids := range selection {
		if err := checkMeal(meal); err != nil {
			return nil, err
		}
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			if seen[id] {
				return nil, fmt.Errorf("%s %s: %w", meal, id, ErrDuplicateItem)
			}
			seen[id] = true

			entry, err := s.resolve(ctx, meal, id)
			if err != nil {
				return nil, err
			}
			entries[meal] = append(entries[meal], entry)
		}
	}

	err := db.InTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.touch(ctx, tx, date); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM plan_entry WHERE plan_date = $1`, date); err != nil {
			return err
		}
		for meal, list := range entries {
			for i, e := range list {
				_, err := tx.ExecContext(ctx, `
					INSERT INTO plan_entry (plan_date, meal_type, seq, item_id, name, description, image_url)
					VALUES ($1, $2, $3, $4, $5, $6, $7)
				`, date, meal, i, e.ItemID, e.Name, e.Description, e.ImageURL)
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save plan: %w", err)
	}

	slog.Info("plan saved", "date", date)
	s.notify(ctx, date)
	return s.Get(ctx, date)
}

// Clear deletes the plan for date. Clearing an absent plan is a no-op.
func (s *Service) Clear(ctx context.Context, date string) error {
	if err := checkDate(date); err != nil {
		return err
	}

	var removed int64
	err := db.InTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM plan_entry WHERE plan_date = $1`, date); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM daily_plan WHERE plan_date = $1`, date)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to clear plan: %w", err)
	}

	if removed > 0 {
		slog.Info("plan cleared", "date", date)
		s.notify(ctx, date)
	}
	return nil
}

func (s *Service) touch(ctx context.Context, tx *sql.Tx, date string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO daily_plan (plan_date, updated_at) VALUES ($1, $2)
		ON CONFLICT (plan_date) DO UPDATE SET updated_at = excluded.updated_at
	`, date, s.clock.Now().UTC())
	return err
}

func (s *Service) resolve(ctx context.Context, meal, itemID string) (models.PlanEntry, error) {
	if itemID == "" {
		return models.PlanEntry{}, models.Invalid("item_id", "is required")
	}
	item, err := s.catalog.Get(ctx, itemID)
	if err != nil {
		return models.PlanEntry{}, err
	}
	if item.MealType != meal {
		return models.PlanEntry{}, models.Invalid("item_id", "%s is a %s item, not %s", itemID, item.MealType, meal)
	}
	return models.PlanEntry{
		ItemID:      item.ID,
		Name:        item.Name,
		Description: item.Description,
		ImageURL:    item.ImageURL,
	}, nil
}

// checkHorizon allows writes for today through the last horizon day.
func (s *Service) checkHorizon(ctx context.Context, date string) error {
	if err := checkDate(date); err != nil {
		return err
	}
	days, err := s.Days(ctx)
	if err != nil {
		return err
	}
	if date < days[0] || date > days[len(days)-1] {
		return fmt.Errorf("%s not in %s..%s: %w", date, days[0], days[len(days)-1], ErrOutsideHorizon)
	}
	return nil
}

func (s *Service) notify(ctx context.Context, date string) {
	if s.notifier != nil {
		s.notifier.PlanChanged(ctx, date)
	}
}

// load reads plans and their entries for a date range with two queries.
func (s *Service) load(ctx context.Context, from, to string) ([]models.DailyPlan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT plan_date, updated_at FROM daily_plan
		WHERE plan_date >= $1 AND plan_date <= $2
		ORDER BY plan_date
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}

	var plans []models.DailyPlan
	index := map[string]int{}
	for rows.Next() {
		var date string
		var updated time.Time
		if err := rows.Scan(&date, &updated); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		p := emptyPlan(date)
		p.UpdatedAt = updated
		index[date] = len(plans)
		plans = append(plans, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, nil
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT plan_date, meal_type, item_id, name, description, image_url FROM plan_entry
		WHERE plan_date >= $1 AND plan_date <= $2
		ORDER BY plan_date, meal_type, seq
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query plan entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var date, meal string
		var e models.PlanEntry
		if err := rows.Scan(&date, &meal, &e.ItemID, &e.Name, &e.Description, &e.ImageURL); err != nil {
			return nil, fmt.Errorf("failed to scan plan entry: %w", err)
		}
		i, ok := index[date]
		if !ok {
			continue
		}
		plans[i].Meals[meal] = append(plans[i].Meals[meal], e)
	}
	return plans, rows.Err()
}

func emptyPlan(date string) models.DailyPlan {
	meals := make(map[string][]models.PlanEntry, len(models.MealTypes))
	for _, m := range models.MealTypes {
		meals[m] = []models.PlanEntry{}
	}
	return models.DailyPlan{Date: date, Meals: meals}
}

func checkDate(date string) error {
	if _, err := time.Parse(clock.DayLayout, date); err != nil {
		return models.Invalid("date", "must be YYYY-MM-DD")
	}
	return nil
}

func checkMeal(meal string) error {
	if !models.IsMealType(meal) {
		return models.Invalid("meal_type", "must be one of: breakfast, lunch, dinner")
	}
	return nil
}
