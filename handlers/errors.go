// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/messvote/auth"
	"github.com/danielhkuo/messvote/blob"
	"github.com/danielhkuo/messvote/catalog"
	"github.com/danielhkuo/messvote/complaints"
	"github.com/danielhkuo/messvote/db"
	"github.com/danielhkuo/messvote/middleware"
	"github.com/danielhkuo/messvote/models"
	"github.com/danielhkuo/messvote/plan"
	"github.com/danielhkuo/messvote/realtime"
	"github.com/danielhkuo/messvote/students"
	"github.com/danielhkuo/messvote/voting"
)

// statusFor maps service errors onto HTTP status codes. Anything not listed
// is an unexpected store failure.
func statusFor(err error) int {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest

	case errors.Is(err, catalog.ErrItemNotFound),
		errors.Is(err, plan.ErrPlanNotFound),
		errors.Is(err, students.ErrStudentNotFound),
		errors.Is(err, complaints.ErrComplaintNotFound):
		return http.StatusNotFound

	case errors.Is(err, voting.ErrNotAuthenticated),
		errors.Is(err, students.ErrLoginFailed),
		errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized

	case errors.Is(err, voting.ErrVotingClosed),
		errors.Is(err, voting.ErrItemNotVotable),
		errors.Is(err, plan.ErrDuplicateItem),
		errors.Is(err, plan.ErrOutsideHorizon),
		errors.Is(err, catalog.ErrItemReferenced),
		errors.Is(err, students.ErrStudentExists),
		errors.Is(err, realtime.ErrAlreadySubscribed):
		return http.StatusConflict

	case errors.Is(err, blob.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, blob.ErrNotImage):
		return http.StatusUnsupportedMediaType

	case errors.Is(err, realtime.ErrHubClosed), db.IsTransient(err):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeServiceError writes the response for an error returned by a service.
// action names the operation in the log line for unexpected failures.
func writeServiceError(w http.ResponseWriter, err error, action string) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		middleware.ValidationResponse(w, verr)
		return
	}

	status := statusFor(err)
	switch status {
	case http.StatusInternalServerError:
		slog.Error("failed to "+action, "error", err)
		middleware.ErrorResponse(w, status, "Database error")
	case http.StatusServiceUnavailable:
		slog.Warn("store temporarily unavailable", "action", action, "error", err)
		middleware.ErrorResponse(w, status, "Service temporarily unavailable, please retry")
	default:
		middleware.ErrorResponse(w, status, err.Error())
	}
}
