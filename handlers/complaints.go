// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"errors"
	"html"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/danielhkuo/messvote/blob"
	"github.com/danielhkuo/messvote/clock"
	"github.com/danielhkuo/messvote/complaints"
	"github.com/danielhkuo/messvote/middleware"
	"github.com/danielhkuo/messvote/models"
)

type ComplaintHandler struct {
	complaints *complaints.Service
	clock      clock.Clock
}

func NewComplaintHandler(complaints *complaints.Service, clk clock.Clock) *ComplaintHandler {
	return &ComplaintHandler{complaints: complaints, clock: clk}
}

// SubmitComplaint handles POST /complaints
//
// Accepts either a JSON body or a multipart form with the same field names
// plus an optional "photo" file.
func (h *ComplaintHandler) SubmitComplaint(w http.ResponseWriter, r *http.Request) {
	var (
		req   models.ComplaintRequest
		photo *complaints.Photo
	)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, blob.MaxUploadBytes+multipartOverhead)
		if err := r.ParseMultipartForm(blob.MaxUploadBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeServiceError(w, blob.ErrTooLarge, "submit complaint")
				return
			}
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid multipart form")
			return
		}

		room, err := strconv.Atoi(r.FormValue("room_number"))
		if err != nil {
			middleware.ValidationResponse(w, models.Invalid("room_number", "must be a number"))
			return
		}
		req = models.ComplaintRequest{
			Name:       r.FormValue("name"),
			RoomNumber: room,
			Category:   r.FormValue("category"),
			Text:       r.FormValue("text"),
			Urgency:    r.FormValue("urgency"),
		}

		file, header, err := r.FormFile("photo")
		switch {
		case err == nil:
			defer file.Close()
			photo = &complaints.Photo{Name: header.Filename, Body: file}
		case !errors.Is(err, http.ErrMissingFile):
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid photo upload")
			return
		}
	} else if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	c, err := h.complaints.Submit(r.Context(), req, photo)
	if err != nil {
		writeServiceError(w, err, "submit complaint")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, c)
}

// MyComplaints handles GET /complaints/mine
func (h *ComplaintHandler) MyComplaints(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFrom(r.Context())

	// Session names are stored escaped
	list, err := h.complaints.ForStudent(r.Context(), html.UnescapeString(claims.Name))
	if err != nil {
		writeServiceError(w, err, "load complaints")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, list)
}

// ListComplaints handles GET /admin/complaints?filter=
func (h *ComplaintHandler) ListComplaints(w http.ResponseWriter, r *http.Request) {
	list, err := h.complaints.List(r.Context(), r.URL.Query().Get("filter"))
	if err != nil {
		writeServiceError(w, err, "list complaints")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, list)
}

// GetStats handles GET /admin/complaints/stats
func (h *ComplaintHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.complaints.Stats(r.Context())
	if err != nil {
		writeServiceError(w, err, "count complaints")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, st)
}

// ExportComplaints handles GET /admin/complaints/export?filter=
func (h *ComplaintHandler) ExportComplaints(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	n, err := h.complaints.ExportCSV(r.Context(), &buf, r.URL.Query().Get("filter"))
	if err != nil {
		writeServiceError(w, err, "export complaints")
		return
	}

	filename := "complaints-" + h.clock.Today() + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("failed to write complaint export", "error", err)
		return
	}

	slog.Info("complaints exported", "rows", n)
}

// UpdateComplaint handles PATCH /admin/complaints/{id}
func (h *ComplaintHandler) UpdateComplaint(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateComplaintRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	c, err := h.complaints.UpdateStatus(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeServiceError(w, err, "update complaint")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, c)
}

// ResolveAll handles POST /admin/complaints/resolve-all
func (h *ComplaintHandler) ResolveAll(w http.ResponseWriter, r *http.Request) {
	var req models.ResolveAllRequest
	if r.ContentLength != 0 {
		if err := middleware.ParseJSONBody(r, &req); err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
	}

	n, err := h.complaints.BulkResolve(r.Context(), req.Response)
	if err != nil {
		writeServiceError(w, err, "resolve complaints")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ResolveAllResponse{Resolved: n})
}

// DeleteComplaint handles DELETE /admin/complaints/{id}
func (h *ComplaintHandler) DeleteComplaint(w http.ResponseWriter, r *http.Request) {
	if err := h.complaints.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err, "delete complaint")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
