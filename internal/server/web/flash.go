package web

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
)

const flashCookie = "flash"

// Flash is a one-shot message carried across a redirect.
type Flash struct {
	Kind    string // "success" or "error"
	Message string
}

// setFlash stores a flash message in a short-lived cookie. It is read
// and cleared by the next render of the index page.
func setFlash(c echo.Context, kind, message string) {
	c.SetCookie(&http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(kind + "|" + message),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash returns the pending flash message, if any, and clears it.
func popFlash(c echo.Context) *Flash {
	cookie, err := c.Cookie(flashCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}

	c.SetCookie(&http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	decoded, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return nil
	}
	kind, message, found := strings.Cut(decoded, "|")
	if !found {
		return nil
	}
	return &Flash{Kind: kind, Message: message}
}

// redirectWithFlash sets a flash message and redirects to the index page.
func redirectWithFlash(c echo.Context, kind, message string) error {
	setFlash(c, kind, message)
	return c.Redirect(http.StatusFound, "/")
}
