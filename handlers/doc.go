// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the messvote API.

# Handler Types

Each handler is a struct over the domain services it needs:

  - AuthHandler: student and warden login
  - ItemHandler: menu catalog and item images
  - PlanHandler: daily plans and the horizon calendar
  - VotingHandler: window status, today's menu, votes and results
  - ComplaintHandler: complaint desk
  - SettingsHandler: voting window and menu cycle
  - StudentHandler: student roster
  - RealtimeHandler: websocket subscriptions

Handlers never touch the database directly:

	votingHandler := handlers.NewVotingHandler(engine, plans, settings, clk)

# Sessions

Routes are wrapped in middleware.RequireStudent or middleware.RequireAdmin,
which put the session claims in the request context. Handlers read them with
middleware.ClaimsFrom.

# Errors

Service errors go through writeServiceError, which maps validation errors
to 400 with the offending field, missing records to 404, state conflicts
such as a closed window to 409, bad uploads to 413/415 and transient store
failures to 503. Anything else is logged and reported as "Database error".
*/
package handlers
