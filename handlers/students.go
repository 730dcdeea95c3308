// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/messvote/middleware"
	"github.com/danielhkuo/messvote/models"
	"github.com/danielhkuo/messvote/students"
)

type StudentHandler struct {
	students *students.Service
}

func NewStudentHandler(students *students.Service) *StudentHandler {
	return &StudentHandler{students: students}
}

// ListStudents handles GET /admin/students
func (h *StudentHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	list, err := h.students.List(r.Context())
	if err != nil {
		writeServiceError(w, err, "list students")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, list)
}

// RegisterStudent handles POST /admin/students
func (h *StudentHandler) RegisterStudent(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterStudentRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	st, err := h.students.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "register student")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, st)
}

// DeleteStudent handles DELETE /admin/students/{id}
func (h *StudentHandler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	if err := h.students.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err, "delete student")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
