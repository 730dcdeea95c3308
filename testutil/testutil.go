// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/messvote/cliparse"
	"github.com/danielhkuo/messvote/db"
)

// SetupTestDB creates a fresh test database with the full schema.
//
// By default each test gets its own SQLite file under t.TempDir(). Set
// TEST_DATABASE_URL to run against PostgreSQL instead; tables are dropped
// first so every test starts empty.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	driver, url := db.DriverSQLite, filepath.Join(t.TempDir(), "test.db")
	if pgURL := os.Getenv("TEST_DATABASE_URL"); pgURL != "" {
		driver, url = db.DriverPostgres, pgURL
	}

	conn, err := db.Open(driver, url)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if driver == db.DriverPostgres {
		_, err = conn.Exec(`
			DROP TABLE IF EXISTS complaint, settings, vote, plan_entry, daily_plan,
				menu_item, student, schema_migrations CASCADE;
		`)
		if err != nil {
			t.Fatalf("Failed to clean database: %v", err)
		}
	}

	if err := db.Migrate(conn, driver); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig(t *testing.T) cliparse.Config {
	return cliparse.Config{
		Port:                 3318,
		DatabaseType:         db.DriverSQLite,
		TokenSecret:          "test-token-secret",
		TokenTTL:             time.Hour,
		AdminUsername:        "warden",
		AdminPassword:        "test-password",
		UploadDir:            t.TempDir(),
		Location:             time.UTC,
		SettingsPollInterval: time.Minute,
	}
}

// SetWindow stores voting settings directly.
func SetWindow(t *testing.T, conn *sql.DB, start, end string, cycleDays int) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO settings (id, voting_start_time, voting_end_time, menu_cycle_days, updated_at)
		VALUES ('system', $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			voting_start_time = excluded.voting_start_time,
			voting_end_time = excluded.voting_end_time,
			menu_cycle_days = excluded.menu_cycle_days,
			updated_at = excluded.updated_at
	`, start, end, cycleDays, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to store settings: %v", err)
	}
}

// CreateTestStudent registers a student and returns the id.
func CreateTestStudent(t *testing.T, conn *sql.DB, studentID, name string) string {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO student (student_id, name, total_votes, created_at)
		VALUES ($1, $2, 0, $3)
	`, studentID, name, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test student: %v", err)
	}

	return studentID
}

// CreateTestItem adds an active catalog item and returns its id.
func CreateTestItem(t *testing.T, conn *sql.DB, name, mealType string) string {
	t.Helper()

	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := conn.Exec(`
		INSERT INTO menu_item (id, name, meal_type, description, image_url, vote_count, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, '', '', 0, TRUE, $4, $4)
	`, id, name, mealType, now)
	if err != nil {
		t.Fatalf("Failed to create test item: %v", err)
	}

	return id
}

// CreateTestPlan stores a plan for date with the given items per meal.
// Entries snapshot the item rows as they are now.
func CreateTestPlan(t *testing.T, conn *sql.DB, date string, meals map[string][]string) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO daily_plan (plan_date, updated_at) VALUES ($1, $2)
		ON CONFLICT (plan_date) DO UPDATE SET updated_at = excluded.updated_at
	`, date, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test plan: %v", err)
	}

	for meal, ids := range meals {
		for i, id := range ids {
			var name string
			if err := conn.QueryRow(`SELECT name FROM menu_item WHERE id = $1`, id).Scan(&name); err != nil {
				t.Fatalf("Failed to read test item %s: %v", id, err)
			}
			_, err := conn.Exec(`
				INSERT INTO plan_entry (plan_date, meal_type, seq, item_id, name, description, image_url)
				VALUES ($1, $2, $3, $4, $5, '', '')
			`, date, meal, i, id, name)
			if err != nil {
				t.Fatalf("Failed to create test plan entry: %v", err)
			}
		}
	}
}

// CastTestVote writes a vote row directly, bypassing the window and counters.
func CastTestVote(t *testing.T, conn *sql.DB, studentID, date, mealType, itemID string) {
	t.Helper()

	now := time.Now().UTC()
	_, err := conn.Exec(`
		INSERT INTO vote (student_id, vote_date, meal_type, item_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`, studentID, date, mealType, itemID, now)
	if err != nil {
		t.Fatalf("Failed to cast test vote: %v", err)
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// Bearer builds the Authorization header for token.
func Bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
