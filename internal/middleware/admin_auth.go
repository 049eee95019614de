package middleware // middleware provides shared request processing for handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/slot-booking/internal/config"
	"github.com/iliyamo/slot-booking/internal/utils"
)

// AdminKey is the context key holding the authenticated admin name.
const AdminKey = "admin"

// AdminAuth gates admin routes.  It accepts HTTP Basic credentials matching
// cfg and, when cfg.JWTSecret is set, a Bearer token issued by
// utils.NewAdminToken.  Anything else gets 401 with a Basic challenge.
func AdminAuth(cfg config.AdminConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if raw, ok := strings.CutPrefix(auth, "Bearer "); ok && cfg.JWTSecret != "" {
				sub, err := utils.ParseAdminToken(cfg.JWTSecret, strings.TrimSpace(raw))
				if err != nil {
					return unauthorized(c, "invalid token")
				}
				c.Set(AdminKey, sub)
				return next(c)
			}
			user, pass, ok := c.Request().BasicAuth()
			if !ok {
				return unauthorized(c, "authentication required")
			}
			if !CheckAdmin(cfg, user, pass) {
				return unauthorized(c, "invalid credentials")
			}
			c.Set(AdminKey, user)
			return next(c)
		}
	}
}

// CheckAdmin reports whether user and pass match the configured admin.
func CheckAdmin(cfg config.AdminConfig, user, pass string) bool {
	userOK := utils.EqualConstantTime(user, cfg.User)
	var passOK bool
	if cfg.PasswordHash != "" {
		passOK = utils.VerifyPassword(cfg.PasswordHash, pass)
	} else {
		passOK = utils.EqualConstantTime(pass, cfg.Password)
	}
	return userOK && passOK
}

func unauthorized(c echo.Context, msg string) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Basic realm="admin"`)
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": msg})
}
