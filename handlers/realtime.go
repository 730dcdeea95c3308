// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/messvote/middleware"
	"github.com/danielhkuo/messvote/realtime"
)

type RealtimeHandler struct {
	hub         *realtime.Hub
	broadcaster *realtime.PlanBroadcaster
}

func NewRealtimeHandler(hub *realtime.Hub, broadcaster *realtime.PlanBroadcaster) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, broadcaster: broadcaster}
}

// Subscribe handles GET /ws?token=
//
// Upgrades to a websocket, sends the current horizon plan set and then
// relays hub events. One connection per session; a second one gets 409.
func (h *RealtimeHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFrom(r.Context())

	// Subscribing before the upgrade lets duplicates get a plain HTTP error
	sub, err := h.hub.Subscribe(claims.ID)
	if err != nil {
		writeServiceError(w, err, "subscribe")
		return
	}

	initial, err := h.broadcaster.Snapshot(r.Context(), "")
	if err != nil {
		sub.Close()
		writeServiceError(w, err, "load plans")
		return
	}

	conn, err := realtime.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		slog.Warn("websocket upgrade failed", "error", err, "session", claims.ID)
		sub.Close()
		return
	}

	slog.Info("realtime subscriber connected", "subject", claims.Subject, "session", claims.ID)
	realtime.Pump(conn, sub, &initial)
	slog.Info("realtime subscriber disconnected", "subject", claims.Subject, "session", claims.ID)
}
