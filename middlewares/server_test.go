package middlewares

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer(t *testing.T) {
	e := Server()
	e.GET("/ok/", func(ctx echo.Context) error { return ctx.String(200, "ok") })
	e.GET("/missing/", func(ctx echo.Context) error { return echo.NewHTTPError(404, "could not find package") })
	e.GET("/panic/", func(ctx echo.Context) error { panic("boom") })

	t.Run("should add the trailing slash", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
		assert.Equal(t, 200, rec.Code)
	})

	t.Run("should render http errors as json", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing/", nil))
		assert.Equal(t, 404, rec.Code)
		assert.JSONEq(t, `{"message": "could not find package"}`, rec.Body.String())
	})

	t.Run("should turn panics into 500", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic/", nil))
		assert.Equal(t, 500, rec.Code)
	})
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	t.Cleanup(func() { slog.SetDefault(previous) })
	return &buf
}

func requestLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, raw := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(raw) == 0 {
			continue
		}
		var line map[string]any
		require.NoError(t, json.Unmarshal(raw, &line))
		if line["msg"] == "handled request" {
			lines = append(lines, line)
		}
	}
	return lines
}

func TestRequestLogging(t *testing.T) {
	e := Server()
	e.GET("/packages/:name/", func(ctx echo.Context) error { return ctx.String(200, "ok") })
	e.GET("/missing/", func(ctx echo.Context) error { return echo.NewHTTPError(404, "could not find package") })
	e.GET("/api/v1/health/", func(ctx echo.Context) error { return ctx.String(200, "ok") })

	t.Run("should log the route with the request id", func(t *testing.T) {
		buf := captureLogs(t)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/packages/redis/", nil))

		id := rec.Header().Get(echo.HeaderXRequestID)
		require.NotEmpty(t, id)
		lines := requestLines(t, buf)
		require.Len(t, lines, 1)
		assert.Equal(t, id, lines[0]["requestId"])
		assert.Equal(t, "/packages/:name/", lines[0]["route"])
		assert.EqualValues(t, 200, lines[0]["status"])
	})

	t.Run("should log failed requests with their status", func(t *testing.T) {
		buf := captureLogs(t)
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing/", nil))

		lines := requestLines(t, buf)
		require.Len(t, lines, 1)
		assert.EqualValues(t, 404, lines[0]["status"])
		assert.Equal(t, "INFO", lines[0]["level"])
	})

	t.Run("should keep an incoming request id", func(t *testing.T) {
		buf := captureLogs(t)
		req := httptest.NewRequest(http.MethodGet, "/packages/redis/", nil)
		req.Header.Set(echo.HeaderXRequestID, "abc-123")
		e.ServeHTTP(httptest.NewRecorder(), req)

		lines := requestLines(t, buf)
		require.Len(t, lines, 1)
		assert.Equal(t, "abc-123", lines[0]["requestId"])
	})

	t.Run("should not log health checks", func(t *testing.T) {
		buf := captureLogs(t)
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/health/", nil))
		assert.Empty(t, requestLines(t, buf))
	})
}
