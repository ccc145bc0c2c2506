package middlewares

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func errorHandler(err error, ctx echo.Context) {
	// do the logging straight inside the error handler
	// this keeps controller methods clean
	he, ok := err.(*echo.HTTPError)
	if !ok {
		he = &echo.HTTPError{Code: http.StatusInternalServerError, Message: http.StatusText(http.StatusInternalServerError), Internal: err}
	}
	if he.Code >= 500 {
		slog.Error(err.Error(), "requestId", requestID(ctx), "method", ctx.Request().Method, "path", ctx.Request().URL)
	} else {
		slog.Debug(err.Error(), "requestId", requestID(ctx), "method", ctx.Request().Method, "path", ctx.Request().URL)
	}

	if ctx.Response().Committed {
		return
	}

	message := he.Message
	if m, ok := message.(string); ok {
		message = echo.Map{"message": m}
	}

	if ctx.Request().Method == http.MethodHead {
		err = ctx.NoContent(he.Code)
	} else {
		err = ctx.JSON(he.Code, message)
	}
	if err != nil {
		slog.Error("could not send error response", "error", err)
	}
}

func registerMiddlewares(e *echo.Echo) {
	e.Pre(middleware.AddTrailingSlash())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{http.MethodGet, http.MethodHead},
		ExposeHeaders: []string{"ETag", "Last-Modified", echo.HeaderXRequestID},
	}))
	e.Use(middleware.RequestID())
	e.Use(logger())
	e.Use(recovermiddleware())
	e.HTTPErrorHandler = errorHandler
}

func Server() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(99)
	registerMiddlewares(e)
	return e
}
