package web

import (
	"errors"
	"fmt"
	"net/http"

	"shorts/internal/server/auth"
	"shorts/internal/server/database"
	"shorts/internal/server/service"

	"github.com/labstack/echo/v4"
)

// Handler contains the HTTP handlers for the shortener.
type Handler struct {
	links    *service.LinkService
	accounts *service.AccountService
	sessions *auth.Sessions
	db       *database.DB
}

// NewHandler creates a new handler with its service dependencies.
func NewHandler(links *service.LinkService, accounts *service.AccountService, sessions *auth.Sessions, db *database.DB) *Handler {
	return &Handler{links: links, accounts: accounts, sessions: sessions, db: db}
}

// indexContext is the data passed to the index template.
type indexContext struct {
	Links     []database.Link
	TotalHits int64
	User      *database.User
	Flash     *Flash
}

// HandleIndex handles GET /.
// Renders the link listing; admin affordances appear when the request
// carries a valid session, otherwise the public view is shown.
func (h *Handler) HandleIndex(c echo.Context) error {
	overview, err := h.links.Overview(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load links")
	}

	ctx := indexContext{
		Links:     overview.Links,
		TotalHits: overview.TotalHits,
		Flash:     popFlash(c),
	}

	if userID, ok := h.currentUserID(c); ok {
		// A profile miss (stale session) degrades to the public view.
		ctx.User, _ = h.accounts.Profile(c.Request().Context(), userID)
	}

	return c.Render(http.StatusOK, "index.html", ctx)
}

// HandleResolve handles GET /x/:short.
// Redirects to the link's target, or to the not-found page. The visitor
// never sees a raw error.
func (h *Handler) HandleResolve(c echo.Context) error {
	short := c.Param("short")
	ua := clientUserAgent(c.Request())

	target, err := h.links.Resolve(c.Request().Context(), short, ua)
	if err != nil {
		return c.Redirect(http.StatusFound, "/notfound")
	}

	return c.Redirect(http.StatusFound, target)
}

// HandleNotFound handles GET /notfound.
func (h *Handler) HandleNotFound(c echo.Context) error {
	return c.String(http.StatusOK, "The specified shortlink was not found.")
}

// HandleSubmit handles POST /submit (form fields: url, short).
func (h *Handler) HandleSubmit(c echo.Context) error {
	short := c.FormValue("short")
	target := c.FormValue("url")

	err := h.links.Create(c.Request().Context(), short, target)
	switch {
	case err == nil:
		return redirectWithFlash(c, "success", fmt.Sprintf("Created /x/%s", short))
	case errors.Is(err, service.ErrDuplicateShort):
		return redirectWithFlash(c, "error", "That short token is already taken.")
	case errors.Is(err, service.ErrInvalidShort), errors.Is(err, service.ErrInvalidURL):
		return redirectWithFlash(c, "error", err.Error())
	default:
		return redirectWithFlash(c, "error", "Could not create the link.")
	}
}

// HandleDelete handles GET /delete/:short.
func (h *Handler) HandleDelete(c echo.Context) error {
	short := c.Param("short")

	deleted, err := h.links.Delete(c.Request().Context(), short)
	switch {
	case err != nil:
		return redirectWithFlash(c, "error", "Delete failed!")
	case !deleted:
		return redirectWithFlash(c, "error", "No such link.")
	default:
		return redirectWithFlash(c, "success", "Deleted successfully!")
	}
}

// HandleLogin handles POST /account/login (form fields: email, password).
func (h *Handler) HandleLogin(c echo.Context) error {
	email := c.FormValue("email")
	password := c.FormValue("password")

	user, err := h.accounts.Login(c.Request().Context(), email, password)
	if err != nil {
		// Unknown email and wrong password share one message.
		if errors.Is(err, service.ErrInvalidCredentials) {
			return redirectWithFlash(c, "error", "Invalid email or password.")
		}
		return redirectWithFlash(c, "error", "Login failed, try again.")
	}

	if err := h.startSession(c, user.ID); err != nil {
		return redirectWithFlash(c, "error", "Login failed, try again.")
	}
	return c.Redirect(http.StatusFound, "/")
}

// HandleRegister handles POST /account/create (form fields: email,
// password, invite). A valid invite code is required; on success a
// session is issued immediately.
func (h *Handler) HandleRegister(c echo.Context) error {
	email := c.FormValue("email")
	password := c.FormValue("password")
	invite := c.FormValue("invite")

	user, err := h.accounts.Register(c.Request().Context(), email, password, invite)
	switch {
	case err == nil:
		// fall through to session issuance
	case errors.Is(err, service.ErrInviteNotSet):
		return redirectWithFlash(c, "error", "No invite code is configured.")
	case errors.Is(err, service.ErrInvalidInvite):
		return redirectWithFlash(c, "error", "Invalid invite code.")
	case errors.Is(err, service.ErrInvalidEmail):
		return redirectWithFlash(c, "error", "That email address does not look valid.")
	case errors.Is(err, service.ErrDuplicateEmail):
		return redirectWithFlash(c, "error", "This user already exists!")
	default:
		return redirectWithFlash(c, "error", "Could not create the account.")
	}

	if err := h.startSession(c, user.ID); err != nil {
		return redirectWithFlash(c, "error", "Account created, but login failed.")
	}
	return redirectWithFlash(c, "success", "Created account successfully.")
}

// HandleLogout handles GET /account/logout.
// Clears the session cookie; the token itself simply ages out.
func (h *Handler) HandleLogout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return redirectWithFlash(c, "success", "Logged out successfully!")
}

// HandleHealth handles GET /health.
func (h *Handler) HandleHealth(c echo.Context) error {
	status := "healthy"
	dbStatus := "connected"

	if err := h.db.HealthCheck(c.Request().Context()); err != nil {
		status = "degraded"
		dbStatus = fmt.Sprintf("error: %v", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":   status,
		"database": dbStatus,
	})
}

// startSession issues a token for userID and sets the session cookie.
func (h *Handler) startSession(c echo.Context, userID int64) error {
	token, err := h.sessions.Issue(userID)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessions.TTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
