package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/slot-booking/internal/logger"
	"github.com/iliyamo/slot-booking/internal/model"
	"github.com/iliyamo/slot-booking/internal/service"
)

// BookingHandler serves the unauthenticated customer endpoints.
type BookingHandler struct {
	Svc *service.BookingService
	Log *slog.Logger
}

// NewBookingHandler panics when svc is nil.  A nil log discards output.
func NewBookingHandler(svc *service.BookingService, log *slog.Logger) *BookingHandler {
	if svc == nil {
		panic("nil service passed to NewBookingHandler")
	}
	if log == nil {
		log = logger.Discard()
	}
	return &BookingHandler{Svc: svc, Log: log}
}

// Availability handles GET /availability?date=YYYY-MM-DD.
func (h *BookingHandler) Availability(c echo.Context) error {
	date := strings.TrimSpace(c.QueryParam("date"))
	if date == "" {
		return badRequest(c, "date is required")
	}
	out, err := h.Svc.CheckAvailability(c.Request().Context(), date)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Book handles POST /book.  JSON and form bodies are both accepted.
func (h *BookingHandler) Book(c echo.Context) error {
	var req model.BookingRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	req.Date = strings.TrimSpace(req.Date)
	id, err := h.Svc.CreateBooking(c.Request().Context(), req)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "id": id})
}

// Slots handles GET /slots and lists the catalog.
func (h *BookingHandler) Slots(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Svc.Catalog().Slots())
}
