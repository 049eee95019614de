package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/iliyamo/slot-booking/internal/logger"
	"github.com/iliyamo/slot-booking/internal/model"
	"github.com/iliyamo/slot-booking/internal/notify"
	"github.com/iliyamo/slot-booking/internal/repository"
)

// Store is the persistence the service depends on; *repository.BookingRepo
// implements it.
type Store interface {
	Create(ctx context.Context, b *model.Booking) error
	BookedSlots(ctx context.Context, date string) (map[int]bool, error)
	List(ctx context.Context, f repository.Filter) ([]model.Booking, error)
	Transition(ctx context.Context, id int64, next model.Status) (*model.Booking, bool, error)
}

// Notifier accepts messages for asynchronous delivery and must not block.
type Notifier interface {
	Notify(m notify.Message)
}

// AvailabilityCache short-circuits CheckAvailability.  Implementations
// treat errors as misses.  Set must refuse to write when the date's
// version moved past the one passed in; Invalidate moves it.
type AvailabilityCache interface {
	Get(ctx context.Context, date string) ([]model.SlotAvailability, bool)
	Version(ctx context.Context, date string) (int64, error)
	Set(ctx context.Context, date string, version int64, list []model.SlotAvailability) (bool, error)
	Invalidate(ctx context.Context, date string) error
}

// Recorder receives booking counters; *metrics.Metrics implements it.
type Recorder interface {
	IncBookingCreated()
	IncSlotConflict()
	IncTransition(status string)
}

// ListFilter selects bookings for ListBookings.  A zero value lists active
// bookings from today on.
type ListFilter struct {
	Date string // exact date, any status
	All  bool   // every booking regardless of status or date
}

// BookingService applies the allocation and status rules.  It holds no
// mutable state of its own; the store's unique constraint arbitrates races
// for a slot.
type BookingService struct {
	store      Store
	catalog    model.Catalog
	notifier   Notifier
	cache      AvailabilityCache
	rec        Recorder
	ownerEmail string
	now        func() time.Time
	log        *slog.Logger
}

// Option customises a BookingService.
type Option func(*BookingService)

func WithNotifier(n Notifier, ownerEmail string) Option {
	return func(s *BookingService) { s.notifier, s.ownerEmail = n, ownerEmail }
}

func WithCache(c AvailabilityCache) Option { return func(s *BookingService) { s.cache = c } }

func WithRecorder(r Recorder) Option { return func(s *BookingService) { s.rec = r } }

func WithClock(now func() time.Time) Option { return func(s *BookingService) { s.now = now } }

func WithLogger(l *slog.Logger) Option { return func(s *BookingService) { s.log = l } }

// NewBookingService wires a service over store and catalog.
func NewBookingService(store Store, catalog model.Catalog, opts ...Option) *BookingService {
	s := &BookingService{
		store:   store,
		catalog: catalog,
		now:     time.Now,
		log:     logger.Discard(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Catalog returns the slot catalog in use.
func (s *BookingService) Catalog() model.Catalog { return s.catalog }

// CheckAvailability reports every catalog slot for date in catalog order.
func (s *BookingService) CheckAvailability(ctx context.Context, date string) ([]model.SlotAvailability, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	var (
		version   int64
		cacheable bool
	)
	if s.cache != nil {
		if list, ok := s.cache.Get(ctx, date); ok && len(list) == s.catalog.Len() {
			return list, nil
		}
		v, err := s.cache.Version(ctx, date)
		if err != nil {
			s.log.Debug("availability cache version failed", "date", date, "err", err)
		} else {
			version, cacheable = v, true
		}
	}
	booked, err := s.store.BookedSlots(ctx, date)
	if err != nil {
		return nil, s.storeErr("check availability", err)
	}
	slots := s.catalog.Slots()
	out := make([]model.SlotAvailability, 0, len(slots))
	for _, sl := range slots {
		out = append(out, model.SlotAvailability{Slot: sl.ID, Label: sl.Label, Available: !booked[sl.ID]})
	}
	if cacheable {
		if stored, err := s.cache.Set(ctx, date, version, out); err != nil {
			s.log.Debug("availability cache set failed", "date", date, "err", err)
		} else if !stored {
			s.log.Debug("availability changed during lookup; not cached", "date", date)
		}
	}
	return out, nil
}

// CreateBooking stores a new booked row and returns its id.  A concurrent
// or earlier booking of the same (date, slot) yields ErrSlotConflict.
func (s *BookingService) CreateBooking(ctx context.Context, req model.BookingRequest) (int64, error) {
	req.Date = strings.TrimSpace(req.Date)
	if req.Date == "" || req.Slot == 0 {
		return 0, fmt.Errorf("%w: date and slot are required", ErrInvalidInput)
	}
	if !s.catalog.Contains(req.Slot) {
		return 0, fmt.Errorf("%w: unknown slot %d", ErrInvalidInput, req.Slot)
	}
	b := &model.Booking{
		Date:    req.Date,
		Slot:    req.Slot,
		Name:    strings.TrimSpace(req.Name),
		Phone:   strings.TrimSpace(req.Phone),
		Email:   strings.TrimSpace(req.Email),
		Address: strings.TrimSpace(req.Address),
		Notes:   strings.TrimSpace(req.Notes),
	}
	if err := s.store.Create(ctx, b); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			if s.rec != nil {
				s.rec.IncSlotConflict()
			}
			return 0, ErrSlotConflict
		}
		return 0, s.storeErr("create booking", err)
	}
	s.invalidate(ctx, b.Date)
	if s.rec != nil {
		s.rec.IncBookingCreated()
	}
	s.log.Info("booking created", "id", b.ID, "date", b.Date, "slot", b.Slot)
	s.notify(newBookingMessage(s.ownerEmail, *b, s.catalog.Label(b.Slot)))
	return b.ID, nil
}

// ListBookings returns bookings for f ordered by date then slot.
func (s *BookingService) ListBookings(ctx context.Context, f ListFilter) ([]model.Booking, error) {
	var rf repository.Filter
	switch {
	case strings.TrimSpace(f.Date) != "":
		rf.Date = strings.TrimSpace(f.Date)
	case f.All:
	default:
		rf.FromDate = s.now().Format("2006-01-02")
		rf.Status = model.StatusBooked
	}
	list, err := s.store.List(ctx, rf)
	if err != nil {
		return nil, s.storeErr("list bookings", err)
	}
	return list, nil
}

// CancelBooking marks id canceled and notifies the owner and customer.
// Canceling an already canceled booking succeeds without side effects.
func (s *BookingService) CancelBooking(ctx context.Context, id int64) error {
	b, changed, err := s.transition(ctx, id, model.StatusCanceled)
	if err != nil || !changed {
		return err
	}
	label := s.catalog.Label(b.Slot)
	s.notify(canceledOwnerMessage(s.ownerEmail, *b, label))
	s.notify(canceledCustomerMessage(*b, label))
	return nil
}

// CompleteBooking marks id completed.  Completing an already completed
// booking succeeds without side effects.
func (s *BookingService) CompleteBooking(ctx context.Context, id int64) error {
	_, _, err := s.transition(ctx, id, model.StatusCompleted)
	return err
}

func (s *BookingService) transition(ctx context.Context, id int64, next model.Status) (*model.Booking, bool, error) {
	if id <= 0 {
		return nil, false, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	b, changed, err := s.store.Transition(ctx, id, next)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, false, ErrNotFound
	case errors.Is(err, repository.ErrInvalidTransition):
		if b != nil {
			return nil, false, fmt.Errorf("%w: booking %d is %s", ErrInvalidTransition, id, b.Status)
		}
		return nil, false, ErrInvalidTransition
	case err != nil:
		return nil, false, s.storeErr("update booking", err)
	}
	if changed {
		s.invalidate(ctx, b.Date)
		if s.rec != nil {
			s.rec.IncTransition(string(next))
		}
		s.log.Info("booking status changed", "id", id, "status", next)
	}
	return b, changed, nil
}

func (s *BookingService) invalidate(ctx context.Context, date string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, date); err != nil {
		s.log.Warn("availability cache invalidate failed", "date", date, "err", err)
	}
}

func (s *BookingService) notify(m notify.Message) {
	if s.notifier == nil || m.To == "" {
		return
	}
	s.notifier.Notify(m)
}

func (s *BookingService) storeErr(op string, err error) error {
	s.log.Error(op+" failed", "err", err)
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}
