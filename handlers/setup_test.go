// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/danielhkuo/messvote/auth"
	"github.com/danielhkuo/messvote/blob"
	"github.com/danielhkuo/messvote/catalog"
	"github.com/danielhkuo/messvote/clock"
	"github.com/danielhkuo/messvote/cliparse"
	"github.com/danielhkuo/messvote/complaints"
	"github.com/danielhkuo/messvote/middleware"
	"github.com/danielhkuo/messvote/models"
	"github.com/danielhkuo/messvote/plan"
	"github.com/danielhkuo/messvote/realtime"
	"github.com/danielhkuo/messvote/settings"
	"github.com/danielhkuo/messvote/students"
	"github.com/danielhkuo/messvote/testutil"
	"github.com/danielhkuo/messvote/voting"
)

const testToday = "2026-03-10"

// openAt is inside the 08:00-11:00 test window; closedAt is after it.
var (
	openAt   = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	closedAt = time.Date(2026, 3, 10, 12, 30, 0, 0, time.UTC)
)

// testEnv wires every service against a fresh database with a frozen clock.
type testEnv struct {
	db  *sql.DB
	cfg cliparse.Config
	clk clock.Clock

	settings    *settings.Service
	students    *students.Service
	catalog     *catalog.Service
	plans       *plan.Service
	engine      *voting.Engine
	complaints  *complaints.Service
	hub         *realtime.Hub
	broadcaster *realtime.PlanBroadcaster
}

func newTestEnv(t *testing.T, now time.Time) *testEnv {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	testutil.SetWindow(t, conn, "08:00", "11:00", 7)
	cfg := testutil.GetTestConfig(t)
	clk := clock.Fixed(now)

	blobs, err := blob.NewLocalStore(cfg.UploadDir)
	if err != nil {
		t.Fatalf("Failed to create blob store: %v", err)
	}

	env := &testEnv{
		db:       conn,
		cfg:      cfg,
		clk:      clk,
		settings: settings.NewService(conn),
		students: students.NewService(conn, clk),
		catalog:  catalog.NewService(conn, blobs, clk),
		hub:      realtime.NewHub(),
	}
	env.plans = plan.NewService(conn, env.catalog, env.settings, clk)
	env.engine = voting.NewEngine(conn, env.plans, env.settings, clk)
	env.complaints = complaints.NewService(conn, blobs, clk)
	env.broadcaster = realtime.NewPlanBroadcaster(env.hub, env.plans)
	env.plans.SetNotifier(env.broadcaster)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go env.hub.Run(ctx)

	return env
}

// asStudent attaches student session claims to req, as RequireStudent would.
func (e *testEnv) asStudent(t *testing.T, req *http.Request, studentID, name string) *http.Request {
	t.Helper()
	return e.withSession(t, req, studentID, name, models.RoleStudent)
}

func (e *testEnv) asAdmin(t *testing.T, req *http.Request) *http.Request {
	t.Helper()
	return e.withSession(t, req, e.cfg.AdminUsername, e.cfg.AdminUsername, models.RoleAdmin)
}

func (e *testEnv) withSession(t *testing.T, req *http.Request, subject, name, role string) *http.Request {
	t.Helper()
	_, claims, err := auth.IssueToken(e.cfg.TokenSecret, subject, name, role, time.Hour, e.clk.Now())
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return req.WithContext(middleware.WithClaims(req.Context(), claims))
}
