// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the messvote API server.

messvote lets hostel residents vote on which planned dish the mess should
cook for each meal of the day, and lets the warden run the menu calendar and
a complaint desk.

# Starting the Server

	TOKEN_SECRET=... ADMIN_USERNAME=warden ADMIN_PASSWORD=... go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..."

A .env file in the working directory is loaded first if present.

# Configuration

Required settings:

  - TOKEN_SECRET (--token-secret): session token signing secret
  - ADMIN_USERNAME, ADMIN_PASSWORD: the warden's credentials

Optional settings:

  - PORT (-p): server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - DATABASE_URL (-d): connection string (default: file:messvote.db)
  - UPLOAD_DIR: image storage directory (default: uploads)
  - TIMEZONE: IANA zone calendar days are cut in (default: local)
  - SETTINGS_POLL_INTERVAL: how often stored settings are re-read
  - LOG_LEVEL: debug, info, warn or error

# Architecture

  - handlers: HTTP request handlers
  - router: route table and service wiring
  - middleware: logging, sessions, CORS, JSON helpers
  - catalog, plan, voting, complaints, students, settings: domain services
  - realtime: websocket push of plan and settings changes
  - blob: uploaded image storage
  - clock: voting window arithmetic and calendar days
  - auth: session tokens
  - db: connections, migrations, retry helpers
  - models: request/response and domain types
  - cliparse: configuration parsing
*/
package main
