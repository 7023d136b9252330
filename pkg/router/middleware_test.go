package router

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCachedApp() (*fiber.App, *atomic.Int64) {
	app := fiber.New()
	app.Use(HttpCacheInMemory(60))

	var hits atomic.Int64
	handler := func(c *fiber.Ctx) error {
		hits.Add(1)
		return c.SendString(strconv.FormatInt(hits.Load(), 10))
	}
	app.Get("/", handler)
	app.Get("/status", handler)
	app.Get("/static", handler)
	return app, &hits
}

func get(t *testing.T, app *fiber.App, path string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCacheSkipsLiveRoutes(t *testing.T) {
	app, hits := newCachedApp()

	// Index and status reflect session state; both must bypass the cache.
	get(t, app, "/")
	get(t, app, "/")
	get(t, app, "/status")
	get(t, app, "/status")
	assert.Equal(t, int64(4), hits.Load())
}

func TestCacheHoldsOtherGETs(t *testing.T) {
	app, hits := newCachedApp()

	get(t, app, "/static")
	get(t, app, "/static")
	assert.Equal(t, int64(1), hits.Load(), "second hit must come from cache")
}
