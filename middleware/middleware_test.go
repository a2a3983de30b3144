package middleware

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func tokenApp() *fiber.App {
	app := fiber.New()
	app.Use(SessionToken("sid"))
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(Token(c))
	})
	return app
}

func echoToken(t *testing.T, app *fiber.App, header, cookie string) string {
	t.Helper()
	req := httptest.NewRequest("GET", "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	if cookie != "" {
		req.Header.Set("Cookie", "sid="+cookie)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestSessionToken(t *testing.T) {
	app := tokenApp()

	assert.Equal(t, "", echoToken(t, app, "", ""))
	assert.Equal(t, "abc", echoToken(t, app, "Bearer abc", ""))
	assert.Equal(t, "jar", echoToken(t, app, "", "jar"))
	// header wins over cookie
	assert.Equal(t, "abc", echoToken(t, app, "Bearer abc", "jar"))
	// other schemes fall back to the cookie
	assert.Equal(t, "jar", echoToken(t, app, "Basic dXNlcjpwdw==", "jar"))
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	app := fiber.New()
	app.Use(requestid.New())
	app.Use(RequestLogger(zap.New(core)))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("boom") })
	app.Get("/missing", func(c *fiber.Ctx) error { return fiber.ErrNotFound })

	for _, path := range []string{"/ok", "/boom", "/missing"} {
		_, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
	}

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/ok", fields["path"])
	assert.Equal(t, int64(200), fields["status"])
	assert.NotEmpty(t, fields["request_id"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, int64(500), entries[1].ContextMap()["status"])

	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, int64(404), entries[2].ContextMap()["status"])
}
