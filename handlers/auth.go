// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/messvote/auth"
	"github.com/danielhkuo/messvote/clock"
	"github.com/danielhkuo/messvote/cliparse"
	"github.com/danielhkuo/messvote/middleware"
	"github.com/danielhkuo/messvote/models"
	"github.com/danielhkuo/messvote/students"
)

type AuthHandler struct {
	students *students.Service
	cfg      cliparse.Config
	clock    clock.Clock
}

func NewAuthHandler(students *students.Service, cfg cliparse.Config, clk clock.Clock) *AuthHandler {
	return &AuthHandler{students: students, cfg: cfg, clock: clk}
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	st, err := h.students.Authenticate(r.Context(), req.StudentID, req.Name)
	if err != nil {
		writeServiceError(w, err, "authenticate student")
		return
	}

	token, claims, err := auth.IssueToken(h.cfg.TokenSecret, st.StudentID, st.Name, models.RoleStudent, h.cfg.TokenTTL, h.clock.Now())
	if err != nil {
		slog.Error("failed to issue token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to sign in")
		return
	}

	slog.Info("student signed in", "student_id", st.StudentID, "session", claims.ID)

	middleware.JSONResponse(w, http.StatusOK, models.TokenResponse{
		Token:     token,
		Role:      models.RoleStudent,
		ExpiresAt: claims.ExpiresAt.Time,
		Student:   st,
	})
}

// AdminLogin handles POST /admin/login
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req models.AdminLoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := auth.CheckAdmin(req.Username, req.Password, h.cfg.AdminUsername, h.cfg.AdminPassword); err != nil {
		slog.Warn("admin sign in rejected", "remote", middleware.GetClientIP(r))
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, claims, err := auth.IssueToken(h.cfg.TokenSecret, h.cfg.AdminUsername, h.cfg.AdminUsername, models.RoleAdmin, h.cfg.TokenTTL, h.clock.Now())
	if err != nil {
		slog.Error("failed to issue token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to sign in")
		return
	}

	slog.Info("admin signed in", "session", claims.ID)

	middleware.JSONResponse(w, http.StatusOK, models.TokenResponse{
		Token:     token,
		Role:      models.RoleAdmin,
		ExpiresAt: claims.ExpiresAt.Time,
	})
}
