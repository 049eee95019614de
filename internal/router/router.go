package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/slot-booking/internal/config"
	"github.com/iliyamo/slot-booking/internal/handler"
	"github.com/iliyamo/slot-booking/internal/middleware"
)

// RegisterRoutes registers the operational endpoints: the health check and,
// when metrics is non-nil, the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler, metrics http.Handler) {
	e.GET("/healthz", h.Health)
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics))
	}
}

// RegisterPublic registers the customer endpoints behind the rate limiter.
func RegisterPublic(e *echo.Echo, b *handler.BookingHandler, limiter echo.MiddlewareFunc) {
	e.GET("/availability", b.Availability, limiter)
	e.POST("/book", b.Book, limiter)
	e.GET("/slots", b.Slots)
}

// RegisterAdmin registers every admin endpoint, all gated by AdminAuth.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, admin config.AdminConfig) {
	auth := middleware.AdminAuth(admin)
	e.GET("/admin.html", a.Page, auth)

	g := e.Group("/admin", auth)
	g.GET("", a.Page)
	g.GET("/bookings", a.ListBookings)
	g.GET("/bookings/export", a.Export)
	g.POST("/cancel", a.Cancel)
	g.POST("/complete", a.Complete)
	g.POST("/token", a.Token)
}
