// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the store and keeps its schema current.

Both SQLite (modernc.org/sqlite, the default) and PostgreSQL (lib/pq) are
supported:

	conn, err := db.Open(db.DriverSQLite, "file:messvote.db")
	err = db.Migrate(conn, db.DriverSQLite)

Migrations are embedded and applied with golang-migrate. SQLite runs on a
single connection.

# Tables

  - student: roster and vote/login bookkeeping
  - menu_item: catalog with the per-item vote counter
  - daily_plan, plan_entry: ordered item snapshots per day and meal
  - vote: one row per student, day and meal
  - settings: single row holding the voting window
  - complaint: complaint desk

# Errors

IsTransient and IsUniqueViolation classify driver errors. RetryPolicy
retries transient failures with a per-attempt timeout, and InTx runs a
function inside a transaction.
*/
package db
