// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the messvote API.

# Route Registration

NewServices wires the domain services against a database; NewRouter maps
them onto a http.ServeMux:

	svc, err := router.NewServices(conn, cfg)
	svc.Start(ctx, cfg)
	mux := router.NewRouter(svc, cfg)

# Endpoints

Public:

	GET  /health
	POST /auth/login        - Student login
	POST /admin/login       - Warden login
	GET  /window            - Voting window status
	GET  /uploads/...       - Stored images

Students (Bearer session, role student):

	GET  /menu/today        - Votable items, window and own votes
	GET  /plans             - Horizon calendar (?from=&to= for a range)
	GET  /plans/{date}      - One day's plan
	POST /votes             - Cast or change a vote
	GET  /votes/me          - Own votes (?date=)
	GET  /results           - Day summary (?date=)
	POST /complaints        - File a complaint (JSON or multipart)
	GET  /complaints/mine   - Own recent complaints
	GET  /ws?token=         - Realtime updates (any role)

Warden (Bearer session, role admin):

	/admin/items, /admin/plans, /admin/settings, /admin/students,
	/admin/results, /admin/complaints, /admin/stats

See NewRouter for the full method list.
*/
package router
