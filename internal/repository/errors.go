// Package repository holds the SQL access layer for bookings.  Sentinel
// errors let the service layer tell storage outcomes apart without
// inspecting driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrNotFound is returned when no booking has the requested id.
var ErrNotFound = errors.New("booking not found")

// ErrSlotTaken is returned when an insert collides with an existing booked
// row for the same (date, slot).
var ErrSlotTaken = errors.New("slot already booked")

// ErrInvalidTransition is returned when a status change would leave one
// terminal state for another.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrCorruptRow is returned when a stored row holds a value the model
// does not know, such as an unrecognised status.
var ErrCorruptRow = errors.New("corrupt booking row")

const mysqlDuplicateEntry = 1062

// isUniqueViolation recognises duplicate-key errors from either driver.
func isUniqueViolation(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return false
}
