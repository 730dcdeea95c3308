// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported database types
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// SQLite waits this long on a locked database before reporting SQLITE_BUSY.
const sqliteBusyTimeoutMS = 5000

// Open opens and pings a connection pool for the given driver.
func Open(driver, url string) (*sql.DB, error) {
	var dsn string
	switch driver {
	case DriverSQLite:
		dsn = sqliteDSN(url)
	case DriverPostgres:
		dsn = url
	default:
		return nil, fmt.Errorf("unsupported database type %q", driver)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; a single connection serialises writers
	// instead of surfacing SQLITE_BUSY to callers.
	if driver == DriverSQLite {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return conn, nil
}

func sqliteDSN(url string) string {
	if !strings.HasPrefix(url, "file:") && url != ":memory:" {
		url = "file:" + url
	}
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)", url, sep, sqliteBusyTimeoutMS)
}
