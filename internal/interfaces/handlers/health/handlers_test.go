package health

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	healthsvc "fortyacres-backend/internal/application/health"
	"fortyacres-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type okDB struct{}

func (okDB) PingContext(ctx context.Context) error { return nil }

func setupHealthTest(t *testing.T) (*fiber.App, *redis.Client) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	h := &Handlers{Deps: healthsvc.Deps{Rdb: rdb, DB: okDB{}}, HealthAdminKey: "secret"}
	app := fiber.New()
	app.Get("/", h.Dashboard)
	app.Get("/reset", h.Reset)
	app.Get("/health/json", h.JSON)
	app.Get("/health/errors", h.Errors)
	return app, rdb
}

func TestHealthJSON(t *testing.T) {
	app, _ := setupHealthTest(t)
	resp, err := app.Test(httptest.NewRequest("GET", "/health/json", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "fortyacres-api", body["service"])
	assert.Equal(t, "ok", body["status"])
	assert.Contains(t, body, "workflow")
}

func TestHealthReset(t *testing.T) {
	app, rdb := setupHealthTest(t)
	require.NoError(t, rdb.Set(context.Background(), middleware.KeyReqTotal, "9", 0).Err())

	resp, err := app.Test(httptest.NewRequest("GET", "/reset?key=wrong", nil))
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/reset?key=secret", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, int64(0), rdb.Exists(context.Background(), middleware.KeyReqTotal).Val())
}

func TestHealthErrors(t *testing.T) {
	app, rdb := setupHealthTest(t)
	require.NoError(t, rdb.LPush(context.Background(), middleware.KeyErrorLog, `{"path":"/api/v1/withdrawals/submit","status":500}`, "not json").Err())

	resp, err := app.Test(httptest.NewRequest("GET", "/health/errors", nil))
	require.NoError(t, err)
	var entries []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "/api/v1/withdrawals/submit", entries[0]["path"])
}

func TestHealthDashboard(t *testing.T) {
	app, _ := setupHealthTest(t)
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html"))
	b, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(b), "40 Acres")
}
