package repository

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/iliyamo/slot-booking/internal/config"
	"github.com/iliyamo/slot-booking/internal/database"
	"github.com/iliyamo/slot-booking/internal/model"
)

func newTestRepo(t *testing.T) *BookingRepo {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "repo.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(context.Background(), db, config.DriverSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewBookingRepo(db)
}

func mustCreate(t *testing.T, r *BookingRepo, date string, slot int) *model.Booking {
	t.Helper()
	b := &model.Booking{Date: date, Slot: slot, Name: "A"}
	if err := r.Create(context.Background(), b); err != nil {
		t.Fatalf("create %s/%d: %v", date, slot, err)
	}
	return b
}

func TestCreateAssignsIDAndRejectsDuplicate(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	b := mustCreate(t, r, "2024-05-01", 1)
	if b.ID != 1 || b.Status != model.StatusBooked {
		t.Fatalf("unexpected booking: %+v", b)
	}
	err := r.Create(ctx, &model.Booking{Date: "2024-05-01", Slot: 1})
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
	// Other slot and other date are independent.
	mustCreate(t, r, "2024-05-01", 2)
	mustCreate(t, r, "2024-05-02", 1)
}

func TestCanceledSlotCanBeRebooked(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	b := mustCreate(t, r, "2024-05-01", 1)
	if _, _, err := r.Transition(ctx, b.ID, model.StatusCanceled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	again := mustCreate(t, r, "2024-05-01", 1)
	if again.ID == b.ID {
		t.Fatal("rebooking reused id")
	}
	if err := r.Create(ctx, &model.Booking{Date: "2024-05-01", Slot: 1}); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("second active booking must conflict, got %v", err)
	}
}

func TestConcurrentCreateSingleWinner(t *testing.T) {
	r := newTestRepo(t)
	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := r.Create(context.Background(), &model.Booking{Date: "2024-06-01", Slot: 2})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrSlotTaken):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if wins != 1 || conflicts != n-1 {
		t.Fatalf("wins=%d conflicts=%d", wins, conflicts)
	}
}

func TestBookedSlots(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	mustCreate(t, r, "2024-05-01", 1)
	b := mustCreate(t, r, "2024-05-01", 3)
	if _, _, err := r.Transition(ctx, b.ID, model.StatusCompleted); err != nil {
		t.Fatal(err)
	}
	got, err := r.BookedSlots(ctx, "2024-05-01")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !got[1] {
		t.Fatalf("booked slots = %v", got)
	}
}

func TestListFilterAndOrder(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	mustCreate(t, r, "2024-05-02", 3)
	mustCreate(t, r, "2024-05-01", 2)
	c := mustCreate(t, r, "2024-05-01", 1)
	mustCreate(t, r, "2024-04-30", 1)
	if _, _, err := r.Transition(ctx, c.ID, model.StatusCanceled); err != nil {
		t.Fatal(err)
	}

	byDate, err := r.List(ctx, Filter{Date: "2024-05-01"})
	if err != nil {
		t.Fatal(err)
	}
	if len(byDate) != 2 || byDate[0].Slot != 1 || byDate[1].Slot != 2 {
		t.Fatalf("by date = %+v", byDate)
	}
	if byDate[0].Status != model.StatusCanceled {
		t.Errorf("date filter must include canceled rows")
	}

	upcoming, err := r.List(ctx, Filter{FromDate: "2024-05-01", Status: model.StatusBooked})
	if err != nil {
		t.Fatal(err)
	}
	if len(upcoming) != 2 || upcoming[0].Date != "2024-05-01" || upcoming[1].Date != "2024-05-02" {
		t.Fatalf("upcoming = %+v", upcoming)
	}

	all, err := r.List(ctx, Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 || all[0].Date != "2024-04-30" {
		t.Fatalf("all = %+v", all)
	}
}

func TestTransitionRules(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	b := mustCreate(t, r, "2024-05-01", 1)

	got, changed, err := r.Transition(ctx, b.ID, model.StatusCanceled)
	if err != nil || !changed || got.Status != model.StatusCanceled {
		t.Fatalf("cancel: got=%+v changed=%v err=%v", got, changed, err)
	}
	_, changed, err = r.Transition(ctx, b.ID, model.StatusCanceled)
	if err != nil || changed {
		t.Fatalf("repeat cancel should be a no-op, changed=%v err=%v", changed, err)
	}
	_, _, err = r.Transition(ctx, b.ID, model.StatusCompleted)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("complete after cancel: %v", err)
	}
	_, _, err = r.Transition(ctx, 999, model.StatusCompleted)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown id: %v", err)
	}
	_, _, err = r.Transition(ctx, b.ID, model.StatusBooked)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("back to booked: %v", err)
	}
	stored, err := r.GetByID(ctx, b.ID)
	if err != nil || stored.Status != model.StatusCanceled {
		t.Fatalf("stored = %+v err=%v", stored, err)
	}
}

func TestScanRejectsUnknownStatus(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO bookings (date, slot, name, phone, email, address, notes, status) VALUES ('2024-05-01', 1, 'A', '', '', '', '', 'archived')`); err != nil {
		t.Fatal(err)
	}
	if _, err := r.GetByID(ctx, 1); !errors.Is(err, ErrCorruptRow) {
		t.Fatalf("GetByID err = %v", err)
	}
	if _, err := r.List(ctx, Filter{Date: "2024-05-01"}); !errors.Is(err, ErrCorruptRow) {
		t.Fatalf("List err = %v", err)
	}
}
