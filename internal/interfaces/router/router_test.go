package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fortyacres-backend/internal/config"
	"fortyacres-backend/internal/infrastructure/database"
	"fortyacres-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:               "test",
		SessionSecret:     "test-secret",
		HealthAdminKey:    "key",
		WithdrawalFeeRate: decimal.RequireFromString("0.005"),
		WithdrawalMinFee:  decimal.NewFromInt(10),
		TierCacheTTL:      time.Minute,
	}
}

func setupRouterTest(t *testing.T) (*fiber.App, *Services) {
	t.Helper()
	db, err := database.Open("sqlite://:memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	app, svcs := Build(testConfig(), db, rdb)
	require.NoError(t, svcs.Tiers.Seed(context.Background()))
	return app, svcs
}

func jsonReq(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestBuild_WithoutDatabase(t *testing.T) {
	app, svcs := Build(testConfig(), nil, nil)
	assert.Nil(t, svcs.Withdrawals)

	resp, err := app.Test(httptest.NewRequest("GET", "/health/json", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/tiers", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestRoutes_PublicAndProtected(t *testing.T) {
	app, svcs := setupRouterTest(t)
	require.NotNil(t, svcs.Investments)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/tiers", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(jsonReq("POST", "/api/v1/withdrawals/preview", `{"amount":"100","withdrawal_type":"partial"}`))
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	resp, err = app.Test(jsonReq("POST", "/api/v1/stripe/webhook", ""))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestRoutes_RegisterLoginAndPermissions(t *testing.T) {
	app, _ := setupRouterTest(t)

	resp, err := app.Test(jsonReq("POST", "/api/v1/auth/register", `{"email":"ada@example.com","password":"S3cure!pass","fullname":"ada investor"}`))
	require.NoError(t, err)
	require.Equal(t, 201, resp.StatusCode)

	resp, err = app.Test(jsonReq("POST", "/api/v1/auth/login", `{"email":"ada@example.com","password":"S3cure!pass"}`))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var session *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == middleware.SessionCookieName {
			session = ck
		}
	}
	require.NotNil(t, session)

	withSession := func(req *http.Request) *http.Request {
		req.AddCookie(&http.Cookie{Name: session.Name, Value: session.Value})
		return req
	}

	resp, err = app.Test(withSession(httptest.NewRequest("GET", "/api/v1/auth/me", nil)))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(withSession(httptest.NewRequest("GET", "/api/v1/withdrawals/review", nil)))
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)

	resp, err = app.Test(withSession(jsonReq("POST", "/api/v1/withdrawals/preview", `{"amount":"100","withdrawal_type":"partial"}`)))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}
