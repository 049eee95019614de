package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/slot-booking/internal/model"
)

// BookingRepo provides access to the bookings table.  The (date, slot)
// uniqueness of booked rows is enforced by the schema, not here; Create
// only translates the resulting constraint error.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to db.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// Filter narrows List.  Empty fields are ignored.
type Filter struct {
	Date     string       // exact date
	FromDate string       // date >= FromDate
	Status   model.Status // exact status
}

const bookingColumns = `id, date, slot, name, phone, email, address, notes, status`

// Create inserts b as a booked row and sets b.ID and b.Status.  A
// conflicting booked row yields ErrSlotTaken.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO bookings (date, slot, name, phone, email, address, notes, status)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, b.Date, b.Slot, b.Name, b.Phone, b.Email, b.Address, b.Notes, string(model.StatusBooked))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlotTaken
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = id
	b.Status = model.StatusBooked
	return nil
}

// GetByID loads a single booking or returns ErrNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	return getByID(ctx, r.db, id)
}

// BookedSlots returns the set of slots holding a booked row on date.
func (r *BookingRepo) BookedSlots(ctx context.Context, date string) (map[int]bool, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT slot FROM bookings WHERE date = ? AND status = ?`, date, string(model.StatusBooked))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int]bool)
	for rows.Next() {
		var slot int
		if err := rows.Scan(&slot); err != nil {
			return nil, err
		}
		out[slot] = true
	}
	return out, rows.Err()
}

// List returns bookings matching f ordered by date then slot.
func (r *BookingRepo) List(ctx context.Context, f Filter) ([]model.Booking, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.Date != "" {
		where = append(where, "date = ?")
		args = append(args, f.Date)
	}
	if f.FromDate != "" {
		where = append(where, "date >= ?")
		args = append(args, f.FromDate)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	q := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY date, slot, id`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// Transition moves booking id from booked to next inside a transaction.
// It reports changed=false with a nil error when the booking is already in
// next, ErrInvalidTransition when it sits in the other terminal state and
// ErrNotFound when the id is unknown.  The returned booking reflects the
// stored state after the call.
func (r *BookingRepo) Transition(ctx context.Context, id int64, next model.Status) (b *model.Booking, changed bool, err error) {
	if !model.StatusBooked.CanTransition(next) {
		return nil, false, fmt.Errorf("%w: to %q", ErrInvalidTransition, next)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = ? WHERE id = ? AND status = ?`, string(next), id, string(model.StatusBooked))
	if err != nil {
		return nil, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	b, err = getByID(ctx, tx, id)
	if err != nil {
		return nil, false, err
	}
	if n == 0 && b.Status != next {
		return b, false, ErrInvalidTransition
	}
	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	committed = true
	return b, n > 0, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func getByID(ctx context.Context, q queryRower, id int64) (*model.Booking, error) {
	row := q.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(s scanner) (*model.Booking, error) {
	var b model.Booking
	var status string
	if err := s.Scan(&b.ID, &b.Date, &b.Slot, &b.Name, &b.Phone, &b.Email, &b.Address, &b.Notes, &status); err != nil {
		return nil, err
	}
	b.Status = model.Status(status)
	if !b.Status.Valid() {
		return nil, fmt.Errorf("%w: booking %d has status %q", ErrCorruptRow, b.ID, status)
	}
	return &b, nil
}
