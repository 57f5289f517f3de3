package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const sessionCookie = "session"

// clientUserAgent extracts the visitor's user agent. A missing header is
// a valid state, represented as nil.
func clientUserAgent(r *http.Request) *string {
	ua := r.UserAgent()
	if ua == "" {
		return nil
	}
	return &ua
}

// currentUserID resolves the session cookie to a user id. Absence or
// invalidity of the cookie means "no identity", never an error.
func (h *Handler) currentUserID(c echo.Context) (int64, bool) {
	cookie, err := c.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		return 0, false
	}
	return h.sessions.Resolve(cookie.Value)
}

// RequireAuth rejects requests without a valid session. Mutating routes
// must not silently fall through to an anonymous view.
func (h *Handler) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := h.currentUserID(c); !ok {
			return redirectWithFlash(c, "error", "You must be logged in to do that.")
		}
		return next(c)
	}
}

// RequestLogger returns an echo middleware that logs requests using slog.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			req := c.Request()
			res := c.Response()

			slog.Info("request",
				"method", req.Method,
				"path", req.URL.Path,
				"status", res.Status,
				"latency_ms", time.Since(start).Milliseconds(),
				"ip", c.RealIP(),
				"user_agent", req.UserAgent(),
			)

			return err
		}
	}
}
