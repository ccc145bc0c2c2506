package middlewares

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

var quietPaths = map[string]struct{}{
	"/api/v1/health/": {},
	"/metrics/":       {},
}

func requestID(ctx echo.Context) string {
	return ctx.Response().Header().Get(echo.HeaderXRequestID)
}

// responseStatus resolves the status of a failed request before the error handler wrote it.
func responseStatus(ctx echo.Context, err error) int {
	if err == nil {
		return ctx.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

// logger writes one line per request, keyed by the id of the RequestID middleware.
func logger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			err := next(ctx)

			if _, quiet := quietPaths[ctx.Request().URL.Path]; quiet {
				return err
			}
			status := responseStatus(ctx, err)
			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			slog.Log(ctx.Request().Context(), level, "handled request",
				"requestId", requestID(ctx),
				"method", ctx.Request().Method,
				"route", ctx.Path(),
				"path", ctx.Request().URL.Path,
				"status", status,
				"bytes", ctx.Response().Size,
				"duration", time.Since(start),
			)
			return err
		}
	}
}
