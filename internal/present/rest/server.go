package rest

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	dmsmiddleware "github.com/totegamma/dms/internal/present/rest/middleware"
)

// NewServer builds the echo instance with the middleware stack and routes.
func NewServer(h *Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(otelecho.Middleware("dms"))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(dmsmiddleware.Annotate)

	h.RegisterRoutes(e)
	return e
}
