package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema holds the DDL for the reservation tables.  Statements are
// idempotent so EnsureSchema can run on every start.
//
// bookings.live is 1 for pending/approved rows and NULL otherwise.  MySQL
// unique indexes never treat NULLs as equal, so uq_bookings_live_slot
// allows one live booking per (resource, date, slot) and any number of
// rejected/cancelled/completed rows for the same key.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS resources (
		id            VARCHAR(64)  NOT NULL,
		name          VARCHAR(255) NOT NULL,
		category      ENUM('library','lab','sports') NOT NULL,
		capacity      INT UNSIGNED NOT NULL,
		description   TEXT         NOT NULL,
		location      VARCHAR(255) NOT NULL DEFAULT '',
		amenities     JSON         NOT NULL,
		status        ENUM('active','maintenance','inactive') NOT NULL DEFAULT 'active',
		booking_count BIGINT UNSIGNED NOT NULL DEFAULT 0,
		created_at    DATETIME(6)  NOT NULL,
		updated_at    DATETIME(6)  NOT NULL,
		PRIMARY KEY (id),
		CONSTRAINT chk_resources_capacity CHECK (capacity > 0)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		requester_id  BIGINT UNSIGNED NOT NULL,
		resource_id   VARCHAR(64)  NOT NULL,
		booking_date  DATE         NOT NULL,
		slot          VARCHAR(64)  NOT NULL,
		status        ENUM('pending','approved','rejected','cancelled','completed') NOT NULL DEFAULT 'pending',
		reason        VARCHAR(500) NULL,
		attendees     INT UNSIGNED NULL,
		decision_note VARCHAR(500) NULL,
		checked_in_at DATETIME(6)  NULL,
		created_at    DATETIME(6)  NOT NULL,
		updated_at    DATETIME(6)  NOT NULL,
		live          TINYINT GENERATED ALWAYS AS (IF(status IN ('pending','approved'), 1, NULL)) STORED,
		PRIMARY KEY (id),
		UNIQUE KEY uq_bookings_live_slot (resource_id, booking_date, slot, live),
		KEY idx_bookings_requester (requester_id, booking_date),
		KEY idx_bookings_status (status, booking_date),
		CONSTRAINT fk_bookings_resource FOREIGN KEY (resource_id) REFERENCES resources (id) ON DELETE RESTRICT
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates the tables when they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
