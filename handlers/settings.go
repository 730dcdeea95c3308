// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/messvote/middleware"
	"github.com/danielhkuo/messvote/models"
	"github.com/danielhkuo/messvote/settings"
)

// SettingsNotifier is told when an admin saves new settings.
type SettingsNotifier interface {
	SettingsChanged(st models.Settings)
}

type SettingsHandler struct {
	settings *settings.Service
	notifier SettingsNotifier
}

// NewSettingsHandler creates the handler. notifier may be nil.
func NewSettingsHandler(settings *settings.Service, notifier SettingsNotifier) *SettingsHandler {
	return &SettingsHandler{settings: settings, notifier: notifier}
}

// GetSettings handles GET /admin/settings
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := h.settings.Get(r.Context())
	if err != nil {
		writeServiceError(w, err, "load settings")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, st)
}

// SaveSettings handles PUT /admin/settings
func (h *SettingsHandler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	var req models.SettingsRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	st, err := h.settings.Save(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "save settings")
		return
	}

	if h.notifier != nil {
		h.notifier.SettingsChanged(st)
	}
	middleware.JSONResponse(w, http.StatusOK, st)
}
