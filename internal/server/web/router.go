package web

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// SetupRouter creates and configures the echo router with all routes and
// middleware.
func SetupRouter(handler *Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Renderer = NewRenderer()

	e.Use(middleware.Recover())
	e.Use(RequestLogger())

	// Public surface
	e.GET("/", handler.HandleIndex)
	e.GET("/x/:short", handler.HandleResolve)
	e.GET("/notfound", handler.HandleNotFound)
	e.GET("/health", handler.HandleHealth)

	// Account lifecycle
	e.POST("/account/login", handler.HandleLogin)
	e.POST("/account/create", handler.HandleRegister)
	e.GET("/account/logout", handler.HandleLogout)

	// Link mutations require a valid session
	e.POST("/submit", handler.HandleSubmit, handler.RequireAuth)
	e.GET("/delete/:short", handler.HandleDelete, handler.RequireAuth)

	// Static assets
	e.StaticFS("/static", echo.MustSubFS(staticFS, "static"))

	return e
}
