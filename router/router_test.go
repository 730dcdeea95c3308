// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielhkuo/messvote/auth"
	"github.com/danielhkuo/messvote/clock"
	"github.com/danielhkuo/messvote/cliparse"
	"github.com/danielhkuo/messvote/models"
	"github.com/danielhkuo/messvote/testutil"
)

var openAt = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

func setupRouter(t *testing.T) (*http.ServeMux, *Services, cliparse.Config) {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	testutil.SetWindow(t, conn, "08:00", "11:00", 7)
	cfg := testutil.GetTestConfig(t)

	svc, err := newServices(conn, cfg, clock.Fixed(openAt))
	if err != nil {
		t.Fatalf("Failed to wire services: %v", err)
	}
	return NewRouter(svc, cfg), svc, cfg
}

func tokenFor(t *testing.T, cfg cliparse.Config, subject, role string) string {
	t.Helper()
	token, _, err := auth.IssueToken(cfg.TokenSecret, subject, subject, role, time.Hour, openAt)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return token
}

func TestHealthEndpoint(t *testing.T) {
	mux, _, _ := setupRouter(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestRootEndpoint(t *testing.T) {
	mux, _, _ := setupRouter(t)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	expected := "messvote API v1"
	if w.Body.String() != expected {
		t.Errorf("Expected body '%s', got '%s'", expected, w.Body.String())
	}

	// Only the exact root matches
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/nowhere", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown path, got %d", w.Code)
	}
}

func TestRouteExistence(t *testing.T) {
	mux, _, cfg := setupRouter(t)
	studentToken := tokenFor(t, cfg, "1", models.RoleStudent)
	adminToken := tokenFor(t, cfg, cfg.AdminUsername, models.RoleAdmin)

	// 400 and 404 are valid answers here; 405 means the route is missing
	testCases := []struct {
		method string
		path   string
		token  string
	}{
		{"GET", "/health", ""},
		{"GET", "/", ""},
		{"POST", "/auth/login", ""},
		{"POST", "/admin/login", ""},
		{"GET", "/window", ""},

		{"GET", "/menu/today", studentToken},
		{"GET", "/plans", studentToken},
		{"GET", "/plans/2026-03-10", studentToken},
		{"POST", "/votes", studentToken},
		{"GET", "/votes/me", studentToken},
		{"GET", "/results", studentToken},
		{"POST", "/complaints", studentToken},
		{"GET", "/complaints/mine", studentToken},

		{"GET", "/admin/items", adminToken},
		{"POST", "/admin/items", adminToken},
		{"POST", "/admin/items/recount", adminToken},
		{"PUT", "/admin/items/x", adminToken},
		{"DELETE", "/admin/items/x", adminToken},
		{"POST", "/admin/items/x/deactivate", adminToken},
		{"POST", "/admin/items/x/image", adminToken},
		{"GET", "/admin/plans", adminToken},
		{"GET", "/admin/plans/2026-03-10", adminToken},
		{"PUT", "/admin/plans/2026-03-10", adminToken},
		{"DELETE", "/admin/plans/2026-03-10", adminToken},
		{"POST", "/admin/plans/2026-03-10/lunch/items", adminToken},
		{"DELETE", "/admin/plans/2026-03-10/lunch/items/x", adminToken},
		{"GET", "/admin/settings", adminToken},
		{"PUT", "/admin/settings", adminToken},
		{"GET", "/admin/students", adminToken},
		{"POST", "/admin/students", adminToken},
		{"DELETE", "/admin/students/x", adminToken},
		{"GET", "/admin/results", adminToken},
		{"GET", "/admin/stats", adminToken},
		{"GET", "/admin/complaints", adminToken},
		{"GET", "/admin/complaints/stats", adminToken},
		{"GET", "/admin/complaints/export", adminToken},
		{"POST", "/admin/complaints/resolve-all", adminToken},
		{"PATCH", "/admin/complaints/x", adminToken},
		{"DELETE", "/admin/complaints/x", adminToken},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code == http.StatusMethodNotAllowed {
				t.Errorf("Route %s %s returned 405, expected route handler to exist", tc.method, tc.path)
			}
			if w.Code == http.StatusUnauthorized || w.Code == http.StatusForbidden {
				t.Errorf("Route %s %s rejected a valid session: %d", tc.method, tc.path, w.Code)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	mux, _, _ := setupRouter(t)

	testCases := []struct {
		method string
		path   string
	}{
		{"POST", "/health"},
		{"DELETE", "/window"},
		{"PUT", "/votes"},
		{"POST", "/admin/results"},
		{"PUT", "/admin/complaints/x"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != http.StatusMethodNotAllowed {
				t.Errorf("Expected 405 for %s %s, got %d", tc.method, tc.path, w.Code)
			}
		})
	}
}

func TestRouteAuthorization(t *testing.T) {
	mux, _, cfg := setupRouter(t)
	studentToken := tokenFor(t, cfg, "1", models.RoleStudent)
	adminToken := tokenFor(t, cfg, cfg.AdminUsername, models.RoleAdmin)

	testCases := []struct {
		name           string
		path           string
		token          string
		expectedStatus int
	}{
		{"student route without session", "/votes/me", "", http.StatusUnauthorized},
		{"student route with garbage", "/votes/me", "garbage", http.StatusUnauthorized},
		{"student route as admin", "/votes/me", adminToken, http.StatusForbidden},
		{"admin route without session", "/admin/items", "", http.StatusUnauthorized},
		{"admin route as student", "/admin/items", studentToken, http.StatusForbidden},
		{"admin route as admin", "/admin/items", adminToken, http.StatusOK},
		{"public route", "/window", "", http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			headers := map[string]string{}
			if tc.token != "" {
				headers = testutil.Bearer(tc.token)
			}
			req := testutil.MakeRequest("GET", tc.path, nil, headers)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			testutil.AssertStatus(t, w, tc.expectedStatus)
		})
	}
}

func TestUploadsAreServed(t *testing.T) {
	mux, svc, _ := setupRouter(t)

	if err := os.MkdirAll(filepath.Join(svc.Blobs.Dir(), "menu"), 0o755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(svc.Blobs.Dir(), "menu", "a.jpg"), []byte("jpeg"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	testCases := []struct {
		path           string
		expectedStatus int
	}{
		{"/uploads/menu/a.jpg", http.StatusOK},
		{"/uploads/menu/", http.StatusNotFound},
		{"/uploads/menu/missing.jpg", http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest("GET", tc.path, nil))
			testutil.AssertStatus(t, w, tc.expectedStatus)
		})
	}
}
