package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/slot-booking/internal/config"
)

// MySQL has no partial indexes, so active_slot carries the slot only while
// the row is booked.  NULLs never collide in a unique key, which frees the
// (date, slot) pair as soon as a booking leaves the booked state.
const mysqlBookingsTable = `
CREATE TABLE IF NOT EXISTS bookings (
    id          BIGINT NOT NULL AUTO_INCREMENT,
    date        VARCHAR(10) NOT NULL,
    slot        INT NOT NULL,
    name        VARCHAR(255) NOT NULL DEFAULT '',
    phone       VARCHAR(64) NOT NULL DEFAULT '',
    email       VARCHAR(255) NOT NULL DEFAULT '',
    address     VARCHAR(512) NOT NULL DEFAULT '',
    notes       VARCHAR(2000) NOT NULL DEFAULT '',
    status      VARCHAR(16) NOT NULL DEFAULT 'booked',
    active_slot INT GENERATED ALWAYS AS (CASE WHEN status = 'booked' THEN slot END) STORED,
    PRIMARY KEY (id),
    UNIQUE KEY ux_bookings_date_active_slot (date, active_slot),
    KEY idx_bookings_date_slot (date, slot)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS bookings (
    id      INTEGER PRIMARY KEY AUTOINCREMENT,
    date    TEXT NOT NULL,
    slot    INTEGER NOT NULL,
    name    TEXT NOT NULL DEFAULT '',
    phone   TEXT NOT NULL DEFAULT '',
    email   TEXT NOT NULL DEFAULT '',
    address TEXT NOT NULL DEFAULT '',
    notes   TEXT NOT NULL DEFAULT '',
    status  TEXT NOT NULL DEFAULT 'booked'
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_bookings_date_active_slot
    ON bookings (date, slot) WHERE status = 'booked'`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_date_slot ON bookings (date, slot)`,
}

// Migrate creates the bookings table for the given driver.  It is
// idempotent and runs at every start.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	var stmts []string
	switch driver {
	case config.DriverMySQL:
		stmts = []string{mysqlBookingsTable}
	case config.DriverSQLite:
		stmts = sqliteSchema
	default:
		return fmt.Errorf("unsupported driver %q", driver)
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migrate bookings: %w", err)
		}
	}
	return nil
}
