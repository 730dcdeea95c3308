// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielhkuo/messvote/clock"
	"github.com/danielhkuo/messvote/models"
)

// Defaults used until an administrator saves settings.
const (
	DefaultStartTime = "00:00"
	DefaultEndTime   = "12:00"
	DefaultCycleDays = 7
	MaxCycleDays     = 31
)

const settingsID = "system"

// DefaultPollInterval is used by Watch when no interval is given.
const DefaultPollInterval = 2 * time.Minute

// Service reads and writes the process-wide voting settings.
type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Defaults returns the settings in effect before any are stored.
func Defaults() models.Settings {
	return models.Settings{
		VotingStartTime: DefaultStartTime,
		VotingEndTime:   DefaultEndTime,
		MenuCycleDays:   DefaultCycleDays,
	}
}

// Get returns the stored settings, or the defaults when none are stored.
func (s *Service) Get(ctx context.Context) (models.Settings, error) {
	var st models.Settings
	err := s.db.QueryRowContext(ctx, `
		SELECT voting_start_time, voting_end_time, menu_cycle_days, updated_at
		FROM settings WHERE id = $1
	`, settingsID).Scan(&st.VotingStartTime, &st.VotingEndTime, &st.MenuCycleDays, &st.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return Defaults(), nil
	}
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return st, nil
}

// Window returns the stored window parsed for the clock helpers, plus the
// planning horizon in days.
func (s *Service) Window(ctx context.Context) (clock.Window, int, error) {
	st, err := s.Get(ctx)
	if err != nil {
		return clock.Window{}, 0, err
	}
	w, err := clock.ParseWindow(st.VotingStartTime, st.VotingEndTime)
	if err != nil {
		// Rows are validated on save; a bad row means manual edits
		slog.Warn("stored voting window is invalid, using defaults", "error", err)
		w, _ = clock.ParseWindow(DefaultStartTime, DefaultEndTime)
	}
	days := st.MenuCycleDays
	if days < 1 || days > MaxCycleDays {
		days = DefaultCycleDays
	}
	return w, days, nil
}

// Save validates and stores new settings.
func (s *Service) Save(ctx context.Context, req models.SettingsRequest) (models.Settings, error) {
	if _, err := clock.ParseTimeOfDay(req.VotingStartTime); err != nil {
		return models.Settings{}, models.Invalid("voting_start_time", "must be HH:MM (24h)")
	}
	if _, err := clock.ParseTimeOfDay(req.VotingEndTime); err != nil {
		return models.Settings{}, models.Invalid("voting_end_time", "must be HH:MM (24h)")
	}
	if req.MenuCycleDays < 1 || req.MenuCycleDays > MaxCycleDays {
		return models.Settings{}, models.Invalid("menu_cycle_days", "must be between 1 and %d", MaxCycleDays)
	}

	st := models.Settings{
		VotingStartTime: req.VotingStartTime,
		VotingEndTime:   req.VotingEndTime,
		MenuCycleDays:   req.MenuCycleDays,
		UpdatedAt:       time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (id, voting_start_time, voting_end_time, menu_cycle_days, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			voting_start_time = excluded.voting_start_time,
			voting_end_time = excluded.voting_end_time,
			menu_cycle_days = excluded.menu_cycle_days,
			updated_at = excluded.updated_at
	`, settingsID, st.VotingStartTime, st.VotingEndTime, st.MenuCycleDays, st.UpdatedAt)
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to save settings: %w", err)
	}

	slog.Info("settings saved",
		"voting_start_time", st.VotingStartTime,
		"voting_end_time", st.VotingEndTime,
		"menu_cycle_days", st.MenuCycleDays,
	)
	return st, nil
}

// Watch polls the stored settings every interval until ctx is done and calls
// fn whenever they differ from the previous read. The first read only
// records a baseline.
func (s *Service) Watch(ctx context.Context, interval time.Duration, fn func(models.Settings)) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last, err := s.Get(ctx)
	if err != nil {
		slog.Warn("settings watch: initial read failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st, err := s.Get(ctx)
			if err != nil {
				slog.Warn("settings watch: read failed", "error", err)
				continue
			}
			if sameSettings(st, last) {
				continue
			}
			last = st
			fn(st)
		}
	}
}

func sameSettings(a, b models.Settings) bool {
	return a.VotingStartTime == b.VotingStartTime &&
		a.VotingEndTime == b.VotingEndTime &&
		a.MenuCycleDays == b.MenuCycleDays
}
