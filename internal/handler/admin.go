package handler

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/slot-booking/internal/config"
	"github.com/iliyamo/slot-booking/internal/export"
	"github.com/iliyamo/slot-booking/internal/logger"
	"github.com/iliyamo/slot-booking/internal/middleware"
	"github.com/iliyamo/slot-booking/internal/service"
	"github.com/iliyamo/slot-booking/internal/utils"
	"github.com/iliyamo/slot-booking/internal/web"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminHandler serves the endpoints behind middleware.AdminAuth.
type AdminHandler struct {
	Svc   *service.BookingService
	Admin config.AdminConfig
	Log   *slog.Logger
}

// NewAdminHandler panics when svc is nil.  A nil log discards output.
func NewAdminHandler(svc *service.BookingService, admin config.AdminConfig, log *slog.Logger) *AdminHandler {
	if svc == nil {
		panic("nil service passed to NewAdminHandler")
	}
	if log == nil {
		log = logger.Discard()
	}
	return &AdminHandler{Svc: svc, Admin: admin, Log: log}
}

// ListBookings handles GET /admin/bookings with optional date and all=true.
func (h *AdminHandler) ListBookings(c echo.Context) error {
	f, err := listFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	out, err := h.Svc.ListBookings(c.Request().Context(), f)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Cancel handles POST /admin/cancel with body {"id": n}.
func (h *AdminHandler) Cancel(c echo.Context) error {
	id, err := bindID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	if err := h.Svc.CancelBooking(c.Request().Context(), id); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Complete handles POST /admin/complete with body {"id": n}.
func (h *AdminHandler) Complete(c echo.Context) error {
	id, err := bindID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	if err := h.Svc.CompleteBooking(c.Request().Context(), id); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Export handles GET /admin/bookings/export and returns an XLSX workbook
// for the same filter ListBookings accepts.
func (h *AdminHandler) Export(c echo.Context) error {
	f, err := listFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	out, err := h.Svc.ListBookings(c.Request().Context(), f)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	var buf bytes.Buffer
	if err := export.WriteBookings(&buf, out, h.Svc.Catalog()); err != nil {
		h.Log.Error("export bookings", "rows", len(out), "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "export failed"})
	}
	name := "upcoming"
	switch {
	case f.All:
		name = "all"
	case f.Date != "":
		name = f.Date
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="bookings-%s.xlsx"`, name))
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Token handles POST /admin/token and issues a bearer token for the
// authenticated admin.  It answers 404 when no signing secret is set.
func (h *AdminHandler) Token(c echo.Context) error {
	if h.Admin.JWTSecret == "" {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "token issuing disabled"})
	}
	user, _ := c.Get(middleware.AdminKey).(string)
	if user == "" {
		user = h.Admin.User
	}
	tok, err := utils.NewAdminToken(h.Admin.JWTSecret, user, h.Admin.TokenTTL)
	if err != nil {
		h.Log.Error("issue admin token", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue token"})
	}
	return c.JSON(http.StatusOK, tok)
}

// Page serves the embedded admin page.
func (h *AdminHandler) Page(c echo.Context) error {
	return c.HTMLBlob(http.StatusOK, web.AdminPage)
}

func listFilter(c echo.Context) (service.ListFilter, error) {
	f := service.ListFilter{Date: strings.TrimSpace(c.QueryParam("date"))}
	if v := c.QueryParam("all"); v != "" {
		all, err := strconv.ParseBool(v)
		if err != nil {
			return f, fmt.Errorf("invalid all flag %q", v)
		}
		f.All = all
	}
	return f, nil
}

func bindID(c echo.Context) (int64, error) {
	var req idRequest
	if err := c.Bind(&req); err != nil {
		return 0, errors.New("invalid request body")
	}
	if req.ID <= 0 {
		return 0, errors.New("id is required")
	}
	return req.ID, nil
}
