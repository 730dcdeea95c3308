// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# CLI Flags

	-p                Server port
	-d                Database URL
	-t                Database type (sqlite or postgres)
	--uploads         Upload directory
	--tz              Time zone for calendar days
	--settings-poll   Settings re-read interval
	--log-level       Log level
	--token-secret    Session signing secret
	--admin-user      Warden username
	--admin-password  Warden password

# Environment Variables

Flags fall back to environment variables:

	PORT, DATABASE_URL, DATABASE_TYPE, UPLOAD_DIR, TIMEZONE,
	SETTINGS_POLL_INTERVAL, LOG_LEVEL, TOKEN_SECRET,
	ADMIN_USERNAME, ADMIN_PASSWORD

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if TOKEN_SECRET or the warden credentials are
missing, or if the database type, time zone or poll interval is invalid.
*/
package cliparse
