package investments

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	invsvc "fortyacres-backend/internal/application/investments"
	tiersvc "fortyacres-backend/internal/application/tiers"
	"fortyacres-backend/internal/domain"
	"fortyacres-backend/internal/pkg/clock"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeIntentMaker struct {
	cents    int64
	metadata map[string]string
	err      error
}

func (f *fakeIntentMaker) Create(amountCents int64, currency string, metadata map[string]string) (*invsvc.PaymentIntentResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.cents = amountCents
	f.metadata = metadata
	return &invsvc.PaymentIntentResult{ID: "pi_123", ClientSecret: "pi_123_secret"}, nil
}

type env struct {
	app    *fiber.App
	db     *gorm.DB
	intent *fakeIntentMaker
	userID uuid.UUID
}

func setup(t *testing.T) *env {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.InvestmentTier{}, &domain.Property{}, &domain.InvestmentAccount{},
		&domain.InvestmentLot{}, &domain.Transaction{}))
	require.NoError(t, (&tiersvc.Service{DB: db}).Seed(context.Background()))

	e := &env{db: db, intent: &fakeIntentMaker{}, userID: uuid.New()}
	h := &Handlers{
		Service:     &invsvc.Service{DB: db, Clock: clock.Fixed{T: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}},
		IntentMaker: e.intent,
	}
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{"user_id": e.userID.String(), "role": "investor"})
		return c.Next()
	})
	app.Get("/properties", h.ListProperties)
	app.Get("/properties/:id", h.GetProperty)
	app.Post("/properties", h.CreateProperty)
	app.Post("/create-intent", h.CreateIntent)
	app.Post("/record", h.Record)
	e.app = app
	return e
}

func (e *env) call(t *testing.T, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.app.Test(req)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	out := map[string]interface{}{}
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func (e *env) createProperty(t *testing.T) string {
	status, body := e.call(t, "POST", "/properties", map[string]string{
		"name": "Maple Street Duplex", "location": "Detroit, MI", "target_amount": "100000", "share_price": "250",
	})
	require.Equal(t, 201, status)
	return body["data"].(map[string]interface{})["id"].(string)
}

func TestProperties(t *testing.T) {
	e := setup(t)
	id := e.createProperty(t)

	status, body := e.call(t, "GET", "/properties/"+id, nil)
	require.Equal(t, 200, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "0", data["fundingProgress"])
	assert.Equal(t, "100000", data["remaining"])

	status, body = e.call(t, "GET", "/properties?status=funding", nil)
	require.Equal(t, 200, status)
	assert.Len(t, body["data"], 1)

	status, _ = e.call(t, "GET", "/properties?status=sold", nil)
	assert.Equal(t, 400, status)
	status, _ = e.call(t, "GET", "/properties/"+uuid.New().String(), nil)
	assert.Equal(t, 404, status)
	status, _ = e.call(t, "POST", "/properties", map[string]string{"name": "No price", "location": "x", "target_amount": "10"})
	assert.Equal(t, 400, status)
}

func TestCreateIntent(t *testing.T) {
	e := setup(t)
	id := e.createProperty(t)

	status, body := e.call(t, "POST", "/create-intent", map[string]interface{}{"property_id": id, "shares": 8})
	require.Equal(t, 200, status)
	assert.Equal(t, "pi_123_secret", body["data"].(map[string]interface{})["clientSecret"])
	assert.Equal(t, int64(200000), e.intent.cents)
	assert.Equal(t, e.userID.String(), e.intent.metadata["user_id"])
	assert.Equal(t, "8", e.intent.metadata["shares"])
	assert.Equal(t, "2000.00", e.intent.metadata["amount"])

	status, _ = e.call(t, "POST", "/create-intent", map[string]interface{}{"property_id": id, "shares": 1000})
	assert.Equal(t, 409, status)

	status, _ = e.call(t, "POST", "/create-intent", map[string]interface{}{"property_id": id})
	assert.Equal(t, 400, status)

	e.intent.err = fiber.NewError(501, "Stripe integration pending")
	status, _ = e.call(t, "POST", "/create-intent", map[string]interface{}{"property_id": id, "shares": 1})
	assert.Equal(t, 501, status)
}

func TestRecord(t *testing.T) {
	e := setup(t)
	id := e.createProperty(t)
	investor := uuid.New()

	status, body := e.call(t, "POST", "/record", map[string]interface{}{"user_id": investor.String(), "property_id": id, "amount": "12000"})
	require.Equal(t, 201, status)
	assert.Equal(t, "12000", body["data"].(map[string]interface{})["amount"])

	var account domain.InvestmentAccount
	require.NoError(t, e.db.Where("user_id = ?", investor).First(&account).Error)
	assert.True(t, account.LockedBalance.Equal(decimal.NewFromInt(12000)))

	var property domain.Property
	require.NoError(t, e.db.Where("property_id = ?", id).First(&property).Error)
	assert.True(t, property.RaisedAmount.Equal(decimal.NewFromInt(12000)))

	status, _ = e.call(t, "POST", "/record", map[string]interface{}{"user_id": investor.String(), "amount": "-5"})
	assert.Equal(t, 400, status)

	status, _ = e.call(t, "POST", "/record", map[string]interface{}{"user_id": investor.String(), "amount": "0.005"})
	assert.Equal(t, 400, status)
	require.NoError(t, e.db.Where("user_id = ?", investor).First(&account).Error)
	assert.True(t, account.TotalInvested.Equal(decimal.NewFromInt(12000)))
}
