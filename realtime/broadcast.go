// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"context"
	"log/slog"

	"github.com/danielhkuo/messvote/models"
)

// PlanSource loads the plans of the current horizon.
type PlanSource interface {
	Calendar(ctx context.Context) ([]models.DailyPlan, error)
}

// PlanUpdate is the payload of a plan.updated event. Plans always holds the
// whole horizon so clients can replace their copy.
type PlanUpdate struct {
	Changed string             `json:"changed"`
	Plans   []models.DailyPlan `json:"plans"`
}

// PlanBroadcaster publishes the horizon plan set whenever a plan changes.
type PlanBroadcaster struct {
	hub   *Hub
	plans PlanSource
}

func NewPlanBroadcaster(hub *Hub, plans PlanSource) *PlanBroadcaster {
	return &PlanBroadcaster{hub: hub, plans: plans}
}

// Snapshot builds a plan.updated event for the current horizon.
func (b *PlanBroadcaster) Snapshot(ctx context.Context, changed string) (Event, error) {
	plans, err := b.plans.Calendar(ctx)
	if err != nil {
		return Event{}, err
	}
	return NewEvent(EventPlanUpdated, PlanUpdate{Changed: changed, Plans: plans})
}

// PlanChanged implements plan.Notifier.
func (b *PlanBroadcaster) PlanChanged(ctx context.Context, date string) {
	ev, err := b.Snapshot(ctx, date)
	if err != nil {
		slog.Warn("failed to build plan update", "error", err, "date", date)
		return
	}
	b.hub.Publish(ev)
}

// SettingsChanged publishes new voting settings.
func (b *PlanBroadcaster) SettingsChanged(st models.Settings) {
	ev, err := NewEvent(EventSettingsUpdated, st)
	if err != nil {
		slog.Warn("failed to build settings update", "error", err)
		return
	}
	b.hub.Publish(ev)
}
