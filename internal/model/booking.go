package model

// Status is the lifecycle state of a booking.  Rows start as StatusBooked
// and may move once to either terminal state.
type Status string

const (
	StatusBooked    Status = "booked"
	StatusCanceled  Status = "canceled"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusBooked, StatusCanceled, StatusCompleted:
		return true
	}
	return false
}

// CanTransition reports whether a booking in state s may move to next.
// Only booked → canceled and booked → completed are permitted.
func (s Status) CanTransition(next Status) bool {
	return s == StatusBooked && (next == StatusCanceled || next == StatusCompleted)
}

// Booking is a reservation of one slot on one date.  Only Status changes
// after the row is created.
type Booking struct {
	ID      int64  `json:"id"`      // bookings.id
	Date    string `json:"date"`    // bookings.date (YYYY-MM-DD)
	Slot    int    `json:"slot"`    // bookings.slot
	Name    string `json:"name"`    // bookings.name
	Phone   string `json:"phone"`   // bookings.phone
	Email   string `json:"email"`   // bookings.email
	Address string `json:"address"` // bookings.address
	Notes   string `json:"notes"`   // bookings.notes
	Status  Status `json:"status"`  // bookings.status
}

// BookingRequest carries the customer-supplied fields for a new booking.
type BookingRequest struct {
	Date    string `json:"date" form:"date"`
	Slot    int    `json:"slot" form:"slot"`
	Name    string `json:"name" form:"name"`
	Phone   string `json:"phone" form:"phone"`
	Email   string `json:"email" form:"email"`
	Address string `json:"address" form:"address"`
	Notes   string `json:"notes" form:"notes"`
}
