package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/slot-booking/internal/config"
	"github.com/iliyamo/slot-booking/internal/database"
	"github.com/iliyamo/slot-booking/internal/handler"
	"github.com/iliyamo/slot-booking/internal/logger"
	"github.com/iliyamo/slot-booking/internal/model"
	"github.com/iliyamo/slot-booking/internal/repository"
	"github.com/iliyamo/slot-booking/internal/router"
	"github.com/iliyamo/slot-booking/internal/service"
)

var testAdmin = config.AdminConfig{User: "admin", Password: "admin123", JWTSecret: "k", TokenTTL: time.Hour}

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "http.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(context.Background(), db, config.DriverSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	svc := service.NewBookingService(repository.NewBookingRepo(db), model.DefaultCatalog(),
		service.WithClock(func() time.Time { return time.Date(2024, 4, 30, 9, 0, 0, 0, time.UTC) }))

	e := echo.New()
	router.RegisterRoutes(e, &handler.HealthHandler{DB: db}, nil)
	router.RegisterPublic(e, handler.NewBookingHandler(svc, nil), func(next echo.HandlerFunc) echo.HandlerFunc { return next })
	router.RegisterAdmin(e, handler.NewAdminHandler(svc, testAdmin, nil), testAdmin)
	return e
}

func do(e *echo.Echo, method, path, body string, admin bool) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if admin {
		req.SetBasicAuth(testAdmin.User, testAdmin.Password)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func availability(t *testing.T, e *echo.Echo, date string) map[int]bool {
	t.Helper()
	rec := do(e, http.MethodGet, "/availability?date="+date, "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("availability: %d %s", rec.Code, rec.Body.String())
	}
	var out []model.SlotAvailability
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 {
		t.Fatalf("want 3 slots, got %d", len(out))
	}
	m := map[int]bool{}
	for _, s := range out {
		m[s.Slot] = s.Available
	}
	return m
}

func TestBookCancelScenario(t *testing.T) {
	e := newServer(t)

	rec := do(e, http.MethodPost, "/book", `{"date":"2024-05-01","slot":1,"name":"A"}`, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("book: %d %s", rec.Code, rec.Body.String())
	}
	var booked struct {
		Success bool  `json:"success"`
		ID      int64 `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &booked); err != nil {
		t.Fatal(err)
	}
	if !booked.Success || booked.ID != 1 {
		t.Fatalf("book response = %+v", booked)
	}

	rec = do(e, http.MethodPost, "/book", `{"date":"2024-05-01","slot":1,"name":"B"}`, false)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate book: %d", rec.Code)
	}

	got := availability(t, e, "2024-05-01")
	if got[1] || !got[2] || !got[3] {
		t.Fatalf("availability after booking = %v", got)
	}

	rec = do(e, http.MethodPost, "/admin/cancel", `{"id":1}`, true)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"success":true`) {
		t.Fatalf("cancel: %d %s", rec.Code, rec.Body.String())
	}

	if got := availability(t, e, "2024-05-01"); !got[1] {
		t.Fatalf("slot 1 still taken after cancel: %v", got)
	}
}

func TestBookValidation(t *testing.T) {
	e := newServer(t)
	for _, body := range []string{
		`{"slot":1}`,
		`{"date":"2024-05-01"}`,
		`{"date":"2024-05-01","slot":7}`,
		`not json`,
	} {
		if rec := do(e, http.MethodPost, "/book", body, false); rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status %d", body, rec.Code)
		}
	}
	rec := do(e, http.MethodGet, "/availability", "", false)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "error") {
		t.Fatalf("availability without date: %d %s", rec.Code, rec.Body.String())
	}
}

func TestAdminStatusEndpoints(t *testing.T) {
	e := newServer(t)
	do(e, http.MethodPost, "/book", `{"date":"2024-05-01","slot":2}`, false)

	cases := []struct {
		path, body string
		want       int
	}{
		{"/admin/complete", `{}`, http.StatusBadRequest},
		{"/admin/complete", `{"id":99}`, http.StatusNotFound},
		{"/admin/cancel", `{"id":99}`, http.StatusNotFound},
		{"/admin/complete", `{"id":1}`, http.StatusOK},
		{"/admin/complete", `{"id":1}`, http.StatusOK},
		{"/admin/cancel", `{"id":1}`, http.StatusConflict},
	}
	for _, tc := range cases {
		if rec := do(e, http.MethodPost, tc.path, tc.body, true); rec.Code != tc.want {
			t.Errorf("%s %s: got %d want %d (%s)", tc.path, tc.body, rec.Code, tc.want, rec.Body.String())
		}
	}
}

func TestAdminListBookings(t *testing.T) {
	e := newServer(t)
	do(e, http.MethodPost, "/book", `{"date":"2024-05-02","slot":3}`, false)
	do(e, http.MethodPost, "/book", `{"date":"2024-05-01","slot":2}`, false)
	do(e, http.MethodPost, "/book", `{"date":"2024-05-01","slot":1}`, false)
	do(e, http.MethodPost, "/admin/cancel", `{"id":3}`, true)

	list := func(q string) []model.Booking {
		rec := do(e, http.MethodGet, "/admin/bookings"+q, "", true)
		if rec.Code != http.StatusOK {
			t.Fatalf("list %s: %d", q, rec.Code)
		}
		var out []model.Booking
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatal(err)
		}
		return out
	}

	byDate := list("?date=2024-05-01")
	if len(byDate) != 2 || byDate[0].Slot != 1 || byDate[1].Slot != 2 {
		t.Fatalf("by date = %+v", byDate)
	}
	if byDate[0].Status != model.StatusCanceled {
		t.Errorf("date filter should include canceled rows, got %s", byDate[0].Status)
	}
	if active := list(""); len(active) != 2 {
		t.Fatalf("active = %+v", active)
	}
	if all := list("?all=true"); len(all) != 3 {
		t.Fatalf("all = %+v", all)
	}
	if rec := do(e, http.MethodGet, "/admin/bookings?all=maybe", "", true); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad all flag: %d", rec.Code)
	}
}

func TestAdminRequiresAuth(t *testing.T) {
	e := newServer(t)
	for _, p := range []string{"/admin", "/admin.html", "/admin/bookings", "/admin/bookings/export"} {
		rec := do(e, http.MethodGet, p, "", false)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: %d", p, rec.Code)
		}
		if rec.Header().Get("WWW-Authenticate") == "" {
			t.Errorf("%s: missing challenge", p)
		}
	}
	if rec := do(e, http.MethodPost, "/admin/cancel", `{"id":1}`, false); rec.Code != http.StatusUnauthorized {
		t.Errorf("cancel without auth: %d", rec.Code)
	}

	rec := do(e, http.MethodGet, "/admin", "", true)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "<html") {
		t.Fatalf("admin page: %d", rec.Code)
	}
}

func TestAdminTokenFlow(t *testing.T) {
	e := newServer(t)
	rec := do(e, http.MethodPost, "/admin/token", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("token: %d %s", rec.Code, rec.Body.String())
	}
	var tok struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &tok); err != nil || tok.Token == "" {
		t.Fatalf("token body %s: %v", rec.Body.String(), err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/bookings", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("bearer list: %d", rec.Code)
	}
}

func TestExport(t *testing.T) {
	e := newServer(t)
	do(e, http.MethodPost, "/book", `{"date":"2024-05-01","slot":1,"name":"A"}`, false)

	rec := do(e, http.MethodGet, "/admin/bookings/export?date=2024-05-01", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("export: %d %s", rec.Code, rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "bookings-2024-05-01.xlsx") {
		t.Errorf("content disposition = %q", cd)
	}
	f, err := excelize.OpenReader(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows("Bookings")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[1][4] != "A" {
		t.Fatalf("rows = %v", rows)
	}
}

func TestSlotsAndHealth(t *testing.T) {
	e := newServer(t)
	rec := do(e, http.MethodGet, "/slots", "", false)
	var slots []model.Slot
	if err := json.Unmarshal(rec.Body.Bytes(), &slots); err != nil || len(slots) != 3 {
		t.Fatalf("slots %s: %v", rec.Body.String(), err)
	}
	if slots[0].Label != "9:00 AM - 12:00 PM" {
		t.Errorf("first label = %q", slots[0].Label)
	}
	if rec := do(e, http.MethodGet, "/healthz", "", false); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", rec.Code, rec.Body.String())
	}
}

type downDB struct{}

func (downDB) PingContext(context.Context) error { return errors.New("down") }

func TestHealthReportsDatabaseDown(t *testing.T) {
	e := echo.New()
	h := &handler.HealthHandler{DB: downDB{}}
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/healthz", nil), rec)
	if err := h.Health(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestStoreFailureIsLoggedAndHidden(t *testing.T) {
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "closed.db"))
	if err != nil {
		t.Fatal(err)
	}
	if err := database.Migrate(context.Background(), db, config.DriverSQLite); err != nil {
		t.Fatal(err)
	}
	svc := service.NewBookingService(repository.NewBookingRepo(db), model.DefaultCatalog())
	_ = db.Close()

	var buf bytes.Buffer
	lg := logger.NewWithWriter(&buf, "debug", "text")
	e := echo.New()
	router.RegisterPublic(e, handler.NewBookingHandler(svc, lg), func(next echo.HandlerFunc) echo.HandlerFunc { return next })
	router.RegisterAdmin(e, handler.NewAdminHandler(svc, testAdmin, lg), testAdmin)

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/availability?date=2024-05-01", ""},
		{http.MethodGet, "/admin/bookings", ""},
	} {
		buf.Reset()
		rec := do(e, tc.method, tc.path, tc.body, true)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("%s: status %d", tc.path, rec.Code)
		}
		if strings.Contains(rec.Body.String(), "closed") {
			t.Errorf("%s: driver detail leaked: %s", tc.path, rec.Body.String())
		}
		if !strings.Contains(buf.String(), "request failed") || !strings.Contains(buf.String(), "closed") {
			t.Errorf("%s: store error not logged: %q", tc.path, buf.String())
		}
	}
}
