// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package students

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/danielhkuo/messvote/clock"
	"github.com/danielhkuo/messvote/db"
	"github.com/danielhkuo/messvote/models"
)

var (
	ErrStudentExists   = errors.New("student id already registered")
	ErrStudentNotFound = errors.New("student not found")
	ErrLoginFailed     = errors.New("student id and name do not match")
)

// Service manages registered students.
type Service struct {
	db    *sql.DB
	clock clock.Clock
}

func NewService(db *sql.DB, clk clock.Clock) *Service {
	return &Service{db: db, clock: clk}
}

// Register adds a student. Ids are 1-10 digits and unique.
func (s *Service) Register(ctx context.Context, req models.RegisterStudentRequest) (*models.Student, error) {
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.Name = strings.TrimSpace(req.Name)
	if err := models.Validate(req); err != nil {
		return nil, err
	}

	st := &models.Student{
		StudentID: req.StudentID,
		Name:      html.EscapeString(req.Name),
		CreatedAt: s.clock.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO student (student_id, name, total_votes, created_at)
		VALUES ($1, $2, 0, $3)
	`, st.StudentID, st.Name, st.CreatedAt)
	if db.IsUniqueViolation(err) {
		return nil, ErrStudentExists
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert student: %w", err)
	}

	slog.Info("student registered", "student_id", st.StudentID)
	return st, nil
}

// Get returns one student.
func (s *Service) Get(ctx context.Context, studentID string) (*models.Student, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT student_id, name, total_votes, last_vote_at, last_login_at, created_at
		FROM student WHERE student_id = $1
	`, studentID)

	st, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load student: %w", err)
	}
	return st, nil
}

// List returns all students, newest registration first.
func (s *Service) List(ctx context.Context) ([]models.Student, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT student_id, name, total_votes, last_vote_at, last_login_at, created_at
		FROM student ORDER BY created_at DESC, student_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	defer rows.Close()

	list := []models.Student{}
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		list = append(list, *st)
	}
	return list, rows.Err()
}

// Delete removes a student. Their past votes stay in the tallies.
func (s *Service) Delete(ctx context.Context, studentID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM student WHERE student_id = $1`, studentID)
	if err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStudentNotFound
	}
	slog.Info("student deleted", "student_id", studentID)
	return nil
}

// Authenticate checks an id and name pair. Names match case-insensitively.
// On success the last login time is refreshed.
func (s *Service) Authenticate(ctx context.Context, studentID, name string) (*models.Student, error) {
	studentID = strings.TrimSpace(studentID)
	name = strings.TrimSpace(name)
	if studentID == "" || name == "" {
		return nil, ErrLoginFailed
	}

	st, err := s.Get(ctx, studentID)
	if errors.Is(err, ErrStudentNotFound) {
		return nil, ErrLoginFailed
	}
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(st.Name, html.EscapeString(name)) {
		return nil, ErrLoginFailed
	}

	now := s.clock.Now().UTC()
	if _, err := s.db.ExecContext(ctx, `
		UPDATE student SET last_login_at = $1 WHERE student_id = $2
	`, now, studentID); err != nil {
		// Login still succeeds
		slog.Warn("failed to record login time", "error", err, "student_id", studentID)
	} else {
		st.LastLoginAt = &now
	}

	return st, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStudent(row scanner) (*models.Student, error) {
	var st models.Student
	var lastVote, lastLogin sql.NullTime
	if err := row.Scan(&st.StudentID, &st.Name, &st.TotalVotes, &lastVote, &lastLogin, &st.CreatedAt); err != nil {
		return nil, err
	}
	if lastVote.Valid {
		st.LastVoteAt = &lastVote.Time
	}
	if lastLogin.Valid {
		st.LastLoginAt = &lastLogin.Time
	}
	return &st, nil
}
