// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/danielhkuo/messvote/blob"
	"github.com/danielhkuo/messvote/catalog"
	"github.com/danielhkuo/messvote/middleware"
	"github.com/danielhkuo/messvote/models"
)

// multipartOverhead leaves room for form boundaries and text fields around
// an upload of blob.MaxUploadBytes.
const multipartOverhead = 1 << 20

type ItemHandler struct {
	catalog *catalog.Service
}

func NewItemHandler(catalog *catalog.Service) *ItemHandler {
	return &ItemHandler{catalog: catalog}
}

// ListItems handles GET /admin/items?meal_type=&active=
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	activeOnly := false
	if v := r.URL.Query().Get("active"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "active must be true or false")
			return
		}
		activeOnly = parsed
	}

	items, err := h.catalog.List(r.Context(), r.URL.Query().Get("meal_type"), activeOnly)
	if err != nil {
		writeServiceError(w, err, "list menu items")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, items)
}

// CreateItem handles POST /admin/items
func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req models.ItemRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	item, err := h.catalog.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "create menu item")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, item)
}

// UpdateItem handles PUT /admin/items/{id}
func (h *ItemHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateItemRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	item, err := h.catalog.Update(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeServiceError(w, err, "update menu item")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, item)
}

// DeactivateItem handles POST /admin/items/{id}/deactivate
func (h *ItemHandler) DeactivateItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.catalog.Deactivate(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, "deactivate menu item")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, item)
}

// DeleteItem handles DELETE /admin/items/{id}
func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err, "delete menu item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadImage handles POST /admin/items/{id}/image (multipart field "image")
func (h *ItemHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, blob.MaxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(blob.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeServiceError(w, blob.ErrTooLarge, "upload image")
			return
		}
		middleware.ErrorResponse(w, http.StatusBadRequest, "Expected a multipart form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	item, err := h.catalog.AttachImage(r.Context(), r.PathValue("id"), header.Filename, file)
	if err != nil {
		writeServiceError(w, err, "attach image")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, item)
}

// RecountVotes handles POST /admin/items/recount
func (h *ItemHandler) RecountVotes(w http.ResponseWriter, r *http.Request) {
	n, err := h.catalog.RecountVotes(r.Context())
	if err != nil {
		writeServiceError(w, err, "recount votes")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.RecountResponse{Items: n})
}
