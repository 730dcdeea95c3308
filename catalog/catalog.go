// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/danielhkuo/messvote/blob"
	"github.com/danielhkuo/messvote/clock"
	"github.com/danielhkuo/messvote/db"
	"github.com/danielhkuo/messvote/models"
)

var (
	ErrItemNotFound   = errors.New("menu item not found")
	ErrItemReferenced = errors.New("menu item is planned for today or later; deactivate it instead")
)

const itemColumns = `id, name, meal_type, description, image_url, vote_count, is_active, created_at, updated_at`

// Service manages the menu catalog.
type Service struct {
	db    *sql.DB
	blobs blob.Store
	clock clock.Clock
}

func NewService(db *sql.DB, blobs blob.Store, clk clock.Clock) *Service {
	return &Service{db: db, blobs: blobs, clock: clk}
}

// Create adds an active item with a zero vote count.
func (s *Service) Create(ctx context.Context, req models.ItemRequest) (*models.MenuItem, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if err := models.Validate(req); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	item := &models.MenuItem{
		ID:          uuid.NewString(),
		Name:        html.EscapeString(req.Name),
		MealType:    req.MealType,
		Description: html.EscapeString(req.Description),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO menu_item (`+itemColumns+`)
		VALUES ($1, $2, $3, $4, '', 0, TRUE, $5, $5)
	`, item.ID, item.Name, item.MealType, item.Description, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert menu item: %w", err)
	}

	slog.Info("menu item created", "item_id", item.ID, "meal_type", item.MealType)
	return item, nil
}

// Get returns one item, active or not.
func (s *Service) Get(ctx context.Context, id string) (*models.MenuItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM menu_item WHERE id = $1`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load menu item: %w", err)
	}
	return item, nil
}

// List returns items newest first. An empty mealType means all meals.
func (s *Service) List(ctx context.Context, mealType string, activeOnly bool) ([]models.MenuItem, error) {
	if mealType != "" && !models.IsMealType(mealType) {
		return nil, models.Invalid("meal_type", "must be one of: breakfast, lunch, dinner")
	}

	query := `SELECT ` + itemColumns + ` FROM menu_item WHERE ($1 = '' OR meal_type = $1)`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, mealType)
	if err != nil {
		return nil, fmt.Errorf("failed to list menu items: %w", err)
	}
	defer rows.Close()

	items := []models.MenuItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// ListActive returns the active items of one meal type.
func (s *Service) ListActive(ctx context.Context, mealType string) ([]models.MenuItem, error) {
	return s.List(ctx, mealType, true)
}

// Update applies a partial update. Existing plan snapshots are untouched.
func (s *Service) Update(ctx context.Context, id string, req models.UpdateItemRequest) (*models.MenuItem, error) {
	if err := models.Validate(req); err != nil {
		return nil, err
	}

	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, models.Invalid("name", "is required")
		}
		item.Name = html.EscapeString(name)
	}
	if req.MealType != nil {
		item.MealType = *req.MealType
	}
	if req.Description != nil {
		item.Description = html.EscapeString(strings.TrimSpace(*req.Description))
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}
	item.UpdatedAt = s.clock.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		UPDATE menu_item
		SET name = $1, meal_type = $2, description = $3, is_active = $4, updated_at = $5
		WHERE id = $6
	`, item.Name, item.MealType, item.Description, item.IsActive, item.UpdatedAt, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update menu item: %w", err)
	}

	slog.Info("menu item updated", "item_id", id)
	return item, nil
}

// Deactivate hides an item from the catalog fallback without deleting it.
func (s *Service) Deactivate(ctx context.Context, id string) (*models.MenuItem, error) {
	inactive := false
	return s.Update(ctx, id, models.UpdateItemRequest{IsActive: &inactive})
}

// Delete removes an item that no current or future plan references, then
// removes its image. Image cleanup failures are logged only.
func (s *Service) Delete(ctx context.Context, id string) error {
	item, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	var refs int
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM plan_entry WHERE item_id = $1 AND plan_date >= $2
	`, id, s.clock.Today()).Scan(&refs)
	if err != nil {
		return fmt.Errorf("failed to check plan references: %w", err)
	}
	if refs > 0 {
		return ErrItemReferenced
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM menu_item WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete menu item: %w", err)
	}
	slog.Info("menu item deleted", "item_id", id)

	s.removeImage(ctx, item.ImageURL)
	return nil
}

// AttachImage stores a downscaled copy of the upload as the item's image,
// replacing any previous one.
func (s *Service) AttachImage(ctx context.Context, id, filename string, r io.Reader) (*models.MenuItem, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	url, err := s.blobs.PutImage(ctx, "menu", filename, r)
	if err != nil {
		return nil, err
	}

	previous := item.ImageURL
	item.ImageURL = url
	item.UpdatedAt = s.clock.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		UPDATE menu_item SET image_url = $1, updated_at = $2 WHERE id = $3
	`, item.ImageURL, item.UpdatedAt, id)
	if err != nil {
		s.removeImage(ctx, url)
		return nil, fmt.Errorf("failed to save image url: %w", err)
	}

	s.removeImage(ctx, previous)
	return item, nil
}

// RecountVotes rebuilds every vote_count from the vote table and returns
// how many items were touched.
func (s *Service) RecountVotes(ctx context.Context) (int, error) {
	var touched int64
	err := db.InTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE menu_item
			SET vote_count = (SELECT COUNT(*) FROM vote WHERE vote.item_id = menu_item.id)
		`)
		if err != nil {
			return err
		}
		touched, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to recount votes: %w", err)
	}

	slog.Info("vote counts rebuilt", "items", touched)
	return int(touched), nil
}

func (s *Service) removeImage(ctx context.Context, url string) {
	if url == "" || s.blobs == nil {
		return
	}
	if err := s.blobs.Delete(ctx, url); err != nil {
		slog.Warn("failed to delete item image", "error", err, "url", url)
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*models.MenuItem, error) {
	var item models.MenuItem
	err := row.Scan(&item.ID, &item.Name, &item.MealType, &item.Description, &item.ImageURL,
		&item.VoteCount, &item.IsActive, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &item, nil
}
