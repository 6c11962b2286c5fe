package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
)

const tripsDDL = `
CREATE TABLE IF NOT EXISTS trips (
	id CHAR(36) NOT NULL PRIMARY KEY,
	trip_number VARCHAR(64) NOT NULL,
	trip_date DATE NOT NULL,
	origin VARCHAR(120) NOT NULL,
	destination VARCHAR(120) NOT NULL,
	departure_time DATETIME NOT NULL,
	fare BIGINT NOT NULL DEFAULT 0,
	total_seats INT NOT NULL,
	seats_per_row INT NOT NULL,
	boarding_point VARCHAR(255) NULL,
	driver_name VARCHAR(120) NOT NULL,
	driver_contact VARCHAR(64) NOT NULL,
	created_by VARCHAR(64) NOT NULL,
	seat_ledger JSON NOT NULL,
	version BIGINT NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	UNIQUE KEY uniq_trip_number (trip_number),
	KEY idx_destination (destination)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;
`

const usersDDL = `
CREATE TABLE IF NOT EXISTS users (
	id VARCHAR(64) NOT NULL PRIMARY KEY,
	username VARCHAR(120) NOT NULL,
	email VARCHAR(255) NOT NULL,
	role VARCHAR(16) NOT NULL DEFAULT 'user',
	UNIQUE KEY uniq_email (email)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;
`

// EnsureSchema creates the tables the engine needs when they are missing.
func EnsureSchema(ctx context.Context, conn *sql.DB) error {
	if conn == nil {
		return fmt.Errorf("db is not available")
	}
	for _, t := range []struct{ name, ddl string }{
		{"trips", tripsDDL},
		{"users", usersDDL},
	} {
		if HasTable(ctx, conn, t.name) {
			continue
		}
		if _, err := conn.ExecContext(ctx, t.ddl); err != nil {
			return fmt.Errorf("create table %s: %w", t.name, err)
		}
		log.Printf("[DB] action=ensure_schema msg=created table %s", t.name)
	}

	// trips tables created before optimistic locking have no version column.
	if !HasColumn(ctx, conn, "trips", "version") {
		if _, err := conn.ExecContext(ctx, `ALTER TABLE trips ADD COLUMN version BIGINT NOT NULL DEFAULT 1`); err != nil {
			return fmt.Errorf("add trips.version: %w", err)
		}
		log.Println("[DB] action=ensure_schema msg=added trips.version")
	}
	return nil
}
