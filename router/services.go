// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danielhkuo/messvote/blob"
	"github.com/danielhkuo/messvote/catalog"
	"github.com/danielhkuo/messvote/clock"
	"github.com/danielhkuo/messvote/cliparse"
	"github.com/danielhkuo/messvote/complaints"
	"github.com/danielhkuo/messvote/plan"
	"github.com/danielhkuo/messvote/realtime"
	"github.com/danielhkuo/messvote/settings"
	"github.com/danielhkuo/messvote/students"
	"github.com/danielhkuo/messvote/voting"
)

// Services holds the wired domain services shared by all handlers.
type Services struct {
	Clock       clock.Clock
	Blobs       *blob.LocalStore
	Settings    *settings.Service
	Students    *students.Service
	Catalog     *catalog.Service
	Plans       *plan.Service
	Engine      *voting.Engine
	Complaints  *complaints.Service
	Hub         *realtime.Hub
	Broadcaster *realtime.PlanBroadcaster
}

// NewServices wires every service against conn. Plan changes are pushed to
// the realtime hub.
func NewServices(conn *sql.DB, cfg cliparse.Config) (*Services, error) {
	return newServices(conn, cfg, clock.System(cfg.Location))
}

func newServices(conn *sql.DB, cfg cliparse.Config, clk clock.Clock) (*Services, error) {
	blobs, err := blob.NewLocalStore(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open upload dir: %w", err)
	}

	s := &Services{
		Clock:    clk,
		Blobs:    blobs,
		Settings: settings.NewService(conn),
		Students: students.NewService(conn, clk),
		Catalog:  catalog.NewService(conn, blobs, clk),
		Hub:      realtime.NewHub(),
	}
	s.Plans = plan.NewService(conn, s.Catalog, s.Settings, clk)
	s.Engine = voting.NewEngine(conn, s.Plans, s.Settings, clk)
	s.Complaints = complaints.NewService(conn, blobs, clk)
	s.Broadcaster = realtime.NewPlanBroadcaster(s.Hub, s.Plans)
	s.Plans.SetNotifier(s.Broadcaster)

	return s, nil
}

// Start runs event delivery and the settings watch until ctx is done.
func (s *Services) Start(ctx context.Context, cfg cliparse.Config) {
	go s.Hub.Run(ctx)
	go s.Settings.Watch(ctx, cfg.SettingsPollInterval, s.Broadcaster.SettingsChanged)
}
