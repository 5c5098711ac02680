package http

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vinotel/cellar-service/internal/observability"
	apperrors "github.com/vinotel/cellar-service/pkg/util"
)

func middlewareTestApp() (*fiber.App, *observability.Metrics) {
	metrics := observability.NewMetrics()
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, time.Second)
	return app, metrics
}

func TestErrorMiddlewareRendersDomainError(t *testing.T) {
	app, _ := middlewareTestApp()
	app.Get("/missing", func(c *fiber.Ctx) error {
		return apperrors.NewNotFound("employee", map[string]any{"id": "42"})
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/missing", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var body struct {
		Error struct {
			Code    string         `json:"code"`
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
	assert.Equal(t, "employee not found", body.Error.Message)
	assert.Equal(t, "42", body.Error.Details["id"])
}

func TestErrorMiddlewareHidesInternalDetails(t *testing.T) {
	app, _ := middlewareTestApp()
	app.Get("/boom", func(c *fiber.Ctx) error {
		return assert.AnError
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/boom", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var body map[string]map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "INTERNAL_ERROR", body["error"]["code"])
	assert.Equal(t, "internal server error", body["error"]["message"])
	assert.NotContains(t, body["error"], "details")
}

func TestErrorMiddlewareRecoversPanic(t *testing.T) {
	app, _ := middlewareTestApp()
	app.Get("/panic", func(c *fiber.Ctx) error {
		panic("unexpected")
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/panic", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var body map[string]map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "INTERNAL_ERROR", body["error"]["code"])
}

func TestRequestLoggerObservesErrorStatus(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	metrics := observability.NewMetrics()
	app := fiber.New()
	RegisterMiddlewares(app, zap.New(core), metrics, time.Second)
	app.Get("/missing", func(c *fiber.Ctx) error {
		return apperrors.NewNotFound("employee", nil)
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/missing", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	// The access log and the request counter carry the status the error
	// envelope wrote, not the pre-error default.
	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(fiber.StatusNotFound), entries[0].ContextMap()["status"])

	assert.EqualValues(t, 1, metrics.RequestCount("/missing", fiber.MethodGet, fiber.StatusNotFound))
	assert.EqualValues(t, 1, metrics.ErrorCount("/missing", fiber.MethodGet, "NOT_FOUND"))
}

func TestSuccessfulRequestPassesThrough(t *testing.T) {
	app, _ := middlewareTestApp()
	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/ok", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
