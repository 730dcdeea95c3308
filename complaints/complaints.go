// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package complaints

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/messvote/blob"
	"github.com/danielhkuo/messvote/clock"
	"github.com/danielhkuo/messvote/db"
	"github.com/danielhkuo/messvote/models"
)

// List filters
const (
	FilterAll       = "all"
	FilterPending   = "pending"
	FilterResolved  = "resolved"
	FilterToday     = "today"
	FilterYesterday = "yesterday"
	FilterWeek      = "week"
)

// StudentHistoryLimit caps ForStudent results.
const StudentHistoryLimit = 5

var ErrComplaintNotFound = errors.New("complaint not found")

const complaintColumns = `id, name, room_number, category, body, urgency, status, response, photo_url, created_at, updated_at`

// Photo is an optional image attached to a new complaint.
type Photo struct {
	Name string
	Body io.Reader
}

// Service runs the complaint workflow.
type Service struct {
	db    *sql.DB
	blobs blob.Store
	clock clock.Clock
}

func NewService(db *sql.DB, blobs blob.Store, clk clock.Clock) *Service {
	return &Service{db: db, blobs: blobs, clock: clk}
}

// Submit files a new pending complaint. The photo, if any, is stored only
// after the fields validate.
func (s *Service) Submit(ctx context.Context, req models.ComplaintRequest, photo *Photo) (*models.Complaint, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Text = strings.TrimSpace(req.Text)
	if err := models.Validate(req); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	c := &models.Complaint{
		ID:         uuid.NewString(),
		Name:       html.EscapeString(req.Name),
		RoomNumber: req.RoomNumber,
		Category:   req.Category,
		Text:       html.EscapeString(req.Text),
		Urgency:    req.Urgency,
		Status:     models.ComplaintPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if photo != nil && s.blobs != nil {
		url, err := s.blobs.PutImage(ctx, "complaints", photo.Name, photo.Body)
		if err != nil {
			return nil, err
		}
		c.PhotoURL = url
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO complaint (`+complaintColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULL, $8, $9, $9)
	`, c.ID, c.Name, c.RoomNumber, c.Category, c.Text, c.Urgency, c.Status, c.PhotoURL, now)
	if err != nil {
		s.removePhoto(ctx, c.PhotoURL)
		return nil, fmt.Errorf("failed to insert complaint: %w", err)
	}

	slog.Info("complaint submitted", "complaint_id", c.ID, "category", c.Category, "urgency", c.Urgency)
	return c, nil
}

// Get returns one complaint.
func (s *Service) Get(ctx context.Context, id string) (*models.Complaint, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+complaintColumns+` FROM complaint WHERE id = $1`, id)
	c, err := scanComplaint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrComplaintNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load complaint: %w", err)
	}
	return c, nil
}

// List returns complaints matching filter, newest first. Date filters use
// calendar days in the service's zone; "week" is the last seven days.
func (s *Service) List(ctx context.Context, filter string) ([]models.Complaint, error) {
	if filter == "" {
		filter = FilterAll
	}

	query := `SELECT ` + complaintColumns + ` FROM complaint`
	var args []any
	switch filter {
	case FilterPending, FilterResolved:
		query += ` WHERE status = $1`
		args = append(args, filter)
	case FilterAll, FilterToday, FilterYesterday, FilterWeek:
	default:
		return nil, models.Invalid("filter", "must be one of: all, pending, resolved, today, yesterday, week")
	}
	query += ` ORDER BY created_at DESC, id`

	all, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	keep := s.dateFilter(filter)
	if keep == nil {
		return all, nil
	}
	out := []models.Complaint{}
	for _, c := range all {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Service) dateFilter(filter string) func(models.Complaint) bool {
	now := s.clock.Now()
	loc := s.clock.Location()
	today := clock.Day(now, loc)

	switch filter {
	case FilterToday:
		return func(c models.Complaint) bool { return clock.Day(c.CreatedAt, loc) == today }
	case FilterYesterday:
		yesterday, _ := clock.AddDays(today, -1)
		return func(c models.Complaint) bool { return clock.Day(c.CreatedAt, loc) == yesterday }
	case FilterWeek:
		weekAgo := now.Add(-7 * 24 * time.Hour)
		return func(c models.Complaint) bool { return !c.CreatedAt.Before(weekAgo) }
	}
	return nil
}

// UpdateStatus moves a complaint to pending or resolved. A non-empty
// response replaces the stored one.
func (s *Service) UpdateStatus(ctx context.Context, id string, req models.UpdateComplaintRequest) (*models.Complaint, error) {
	if req.Status != models.ComplaintPending && req.Status != models.ComplaintResolved {
		return nil, models.Invalid("status", "must be pending or resolved")
	}

	var response *string
	if r := strings.TrimSpace(req.Response); r != "" {
		escaped := html.EscapeString(r)
		response = &escaped
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE complaint
		SET status = $1, response = COALESCE($2, response), updated_at = $3
		WHERE id = $4
	`, req.Status, response, s.clock.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update complaint: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrComplaintNotFound
	}

	slog.Info("complaint updated", "complaint_id", id, "status", req.Status)
	return s.Get(ctx, id)
}

// BulkResolve resolves every pending complaint and returns how many changed.
func (s *Service) BulkResolve(ctx context.Context, response string) (int64, error) {
	var resp *string
	if r := strings.TrimSpace(response); r != "" {
		escaped := html.EscapeString(r)
		resp = &escaped
	}

	var n int64
	err := db.InTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE complaint
			SET status = $1, response = COALESCE($2, response), updated_at = $3
			WHERE status = $4
		`, models.ComplaintResolved, resp, s.clock.Now().UTC(), models.ComplaintPending)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to resolve complaints: %w", err)
	}

	slog.Info("pending complaints resolved", "count", n)
	return n, nil
}

// Delete removes a complaint, then its photo. Photo cleanup failures are
// logged only.
func (s *Service) Delete(ctx context.Context, id string) error {
	c, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM complaint WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete complaint: %w", err)
	}
	slog.Info("complaint deleted", "complaint_id", id)

	s.removePhoto(ctx, c.PhotoURL)
	return nil
}

// ForStudent returns the latest complaints filed under name. Exact matches
// are preferred; if there are none the name is matched case-insensitively.
func (s *Service) ForStudent(ctx context.Context, name string) ([]models.Complaint, error) {
	name = html.EscapeString(strings.TrimSpace(name))
	if name == "" {
		return []models.Complaint{}, nil
	}

	list, err := s.query(ctx, `
		SELECT `+complaintColumns+` FROM complaint
		WHERE name = $1 ORDER BY created_at DESC, id LIMIT $2
	`, name, StudentHistoryLimit)
	if err != nil || len(list) > 0 {
		return list, err
	}

	return s.query(ctx, `
		SELECT `+complaintColumns+` FROM complaint
		WHERE LOWER(name) = LOWER($1) ORDER BY created_at DESC, id LIMIT $2
	`, name, StudentHistoryLimit)
}

// Stats counts complaints for the admin overview.
func (s *Service) Stats(ctx context.Context) (models.ComplaintStats, error) {
	all, err := s.query(ctx, `SELECT `+complaintColumns+` FROM complaint`)
	if err != nil {
		return models.ComplaintStats{}, err
	}

	now := s.clock.Now()
	loc := s.clock.Location()
	today := clock.Day(now, loc)
	weekAgo := now.Add(-7 * 24 * time.Hour)

	var st models.ComplaintStats
	for _, c := range all {
		if clock.Day(c.CreatedAt, loc) == today {
			st.Today++
		}
		if c.Status == models.ComplaintPending {
			st.Pending++
		}
		if c.Status == models.ComplaintResolved && !c.UpdatedAt.Before(weekAgo) {
			st.ResolvedThisWeek++
		}
		if !c.CreatedAt.Before(weekAgo) {
			st.ThisWeek++
		}
	}
	return st, nil
}

func (s *Service) query(ctx context.Context, query string, args ...any) ([]models.Complaint, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query complaints: %w", err)
	}
	defer rows.Close()

	list := []models.Complaint{}
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan complaint: %w", err)
		}
		list = append(list, *c)
	}
	return list, rows.Err()
}

func (s *Service) removePhoto(ctx context.Context, url string) {
	if url == "" || s.blobs == nil {
		return
	}
	if err := s.blobs.Delete(ctx, url); err != nil {
		slog.Warn("failed to delete complaint photo", "error", err, "url", url)
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanComplaint(row scanner) (*models.Complaint, error) {
	var c models.Complaint
	var response sql.NullString
	err := row.Scan(&c.ID, &c.Name, &c.RoomNumber, &c.Category, &c.Text, &c.Urgency,
		&c.Status, &response, &c.PhotoURL, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if response.Valid {
		c.Response = &response.String
	}
	return &c, nil
}
