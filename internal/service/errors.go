package service

import "errors"

// Error kinds surfaced by BookingService.  Handlers map them to HTTP
// statuses with errors.Is.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrSlotConflict      = errors.New("slot already booked")
	ErrNotFound          = errors.New("booking not found")
	ErrInvalidTransition = errors.New("booking is no longer active")
	ErrStoreUnavailable  = errors.New("store unavailable")
)
