// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package plan

import (
	"context"
	"fmt"

	"github.com/danielhkuo/messvote/models"
)

// VotableItems returns what students may vote for in one meal of date.
//
// When the date has a plan whose list for meal still has entries after
// dropping ids deleted from the catalog, that list is used in planned order.
// Otherwise every active catalog item of that meal type is votable.
// The skip pseudo-item is not included.
func (s *Service) VotableItems(ctx context.Context, date, meal string) ([]models.PlanEntry, error) {
	return s.VotableItemsTx(ctx, s.db, date, meal)
}

// VotableItemsTx is VotableItems reading through q, so callers holding a
// transaction see their own snapshot.
func (s *Service) VotableItemsTx(ctx context.Context, q Querier, date, meal string) ([]models.PlanEntry, error) {
	if err := checkDate(date); err != nil {
		return nil, err
	}
	if err := checkMeal(meal); err != nil {
		return nil, err
	}

	planned, err := queryEntries(ctx, q, `
		SELECT pe.item_id, pe.name, pe.description, pe.image_url
		FROM plan_entry pe
		JOIN menu_item mi ON mi.id = pe.item_id
		WHERE pe.plan_date = $1 AND pe.meal_type = $2
		ORDER BY pe.seq
	`, date, meal)
	if err != nil {
		return nil, fmt.Errorf("failed to load planned items: %w", err)
	}
	if len(planned) > 0 {
		return planned, nil
	}

	active, err := queryEntries(ctx, q, `
		SELECT id, name, description, image_url
		FROM menu_item
		WHERE meal_type = $1 AND is_active = TRUE
		ORDER BY created_at DESC, id
	`, meal)
	if err != nil {
		return nil, fmt.Errorf("failed to load active items: %w", err)
	}
	return active, nil
}

// IsVotable reports whether itemID may be chosen for meal on date. Skip is
// always votable.
func (s *Service) IsVotable(ctx context.Context, q Querier, date, meal, itemID string) (bool, error) {
	if itemID == models.SkipItemID {
		return true, nil
	}
	items, err := s.VotableItemsTx(ctx, q, date, meal)
	if err != nil {
		return false, err
	}
	for _, it := range items {
		if it.ItemID == itemID {
			return true, nil
		}
	}
	return false, nil
}

func queryEntries(ctx context.Context, q Querier, query string, args ...any) ([]models.PlanEntry, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.PlanEntry{}
	for rows.Next() {
		var e models.PlanEntry
		if err := rows.Scan(&e.ItemID, &e.Name, &e.Description, &e.ImageURL); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
