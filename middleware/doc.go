// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, client IP) and completion (status,
duration_ms). The wrapper supports hijacking, so websocket upgrades can be
logged the same way.

# Sessions

Routes that need a logged-in user are wrapped with RequireStudent or
RequireAdmin. Both read a bearer token from the Authorization header (or the
token query parameter on websocket handshakes), verify it with the token
secret and put the claims on the request context:

	mux.HandleFunc("POST /api/votes", middleware.WithLogging(
		middleware.RequireStudent(cfg.TokenSecret, clk, h.SubmitVote)))

	claims, _ := middleware.ClaimsFrom(r.Context())

Missing, malformed or expired tokens get 401. A valid token with the wrong
role gets 403.

# CORS Middleware

Enable cross-origin requests for frontend access:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows methods GET, POST, PUT, PATCH, DELETE, OPTIONS with headers
Content-Type and Authorization.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")
	middleware.ValidationResponse(w, verr) // includes the field name

Parse JSON request bodies:

	var req models.ItemRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)

Used in request logs.
*/
package middleware
