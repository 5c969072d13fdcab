package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	invsvc "fortyacres-backend/internal/application/investments"
	tiersvc "fortyacres-backend/internal/application/tiers"
	"fortyacres-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "whsec_test_secret_123"

func setupWebhookTest(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.InvestmentTier{}, &domain.Property{}, &domain.InvestmentAccount{},
		&domain.InvestmentLot{}, &domain.Transaction{}, &domain.Payment{}))
	require.NoError(t, (&tiersvc.Service{DB: db}).Seed(context.Background()))

	wh := &WebhookHandler{Investments: &invsvc.Service{DB: db}, WebhookSecret: testSecret}
	app := fiber.New()
	app.Post("/webhook", wh.HandleWebhook)
	return app, db
}

func signPayload(payload []byte, secret string) string {
	ts := fmt.Sprintf("%d", time.Now().Unix())
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + "." + string(payload)))
	return fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func post(t *testing.T, app *fiber.App, body []byte, sig string) int {
	t.Helper()
	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	if sig != "" {
		req.Header.Set("Stripe-Signature", sig)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func succeededEvent(eventID, piID string, metadata map[string]string) []byte {
	b, _ := json.Marshal(map[string]interface{}{
		"id":          eventID,
		"object":      "event",
		"type":        "payment_intent.succeeded",
		"api_version": "2023-10-16",
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id":              piID,
				"object":          "payment_intent",
				"amount_received": 100000,
				"currency":        "usd",
				"status":          "succeeded",
				"metadata":        metadata,
			},
		},
	})
	return b
}

func TestWebhook_RejectsBadSignatures(t *testing.T) {
	app, _ := setupWebhookTest(t)
	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)

	assert.Equal(t, 400, post(t, app, body, ""))
	assert.Equal(t, 400, post(t, app, body, "t=123,v1=invalid"))
	assert.Equal(t, 400, post(t, app, body, signPayload(body, "whsec_other")))
	assert.Equal(t, 400, post(t, app, nil, signPayload(nil, testSecret)))
}

func TestWebhook_OtherEventsAreAcknowledged(t *testing.T) {
	app, _ := setupWebhookTest(t)
	body, _ := json.Marshal(map[string]interface{}{
		"id": "evt_2", "object": "event", "type": "charge.succeeded",
		"data": map[string]interface{}{"object": map[string]interface{}{}},
	})
	assert.Equal(t, 200, post(t, app, body, signPayload(body, testSecret)))
}

func TestWebhook_RecordsInvestmentOnce(t *testing.T) {
	app, db := setupWebhookTest(t)
	property := domain.Property{Name: "Elm Court", Location: "Atlanta, GA",
		TargetAmount: decimal.NewFromInt(50000), SharePrice: decimal.NewFromInt(100)}
	require.NoError(t, db.Create(&property).Error)
	userID := uuid.New()

	body := succeededEvent("evt_3", "pi_3", map[string]string{
		"user_id": userID.String(), "property_id": property.PropertyID.String(), "shares": "10", "amount": "1000.00",
	})
	assert.Equal(t, 200, post(t, app, body, signPayload(body, testSecret)))
	assert.Equal(t, 200, post(t, app, body, signPayload(body, testSecret)))

	var payments, lots int64
	db.Model(&domain.Payment{}).Count(&payments)
	db.Model(&domain.InvestmentLot{}).Count(&lots)
	assert.Equal(t, int64(1), payments)
	assert.Equal(t, int64(1), lots)

	var account domain.InvestmentAccount
	require.NoError(t, db.Where("user_id = ?", userID).First(&account).Error)
	assert.True(t, account.TotalInvested.Equal(decimal.NewFromInt(1000)))
	require.NoError(t, db.Where("property_id = ?", property.PropertyID).First(&property).Error)
	assert.True(t, property.RaisedAmount.Equal(decimal.NewFromInt(1000)))
}

func TestWebhook_IncompleteMetadataStill200(t *testing.T) {
	app, db := setupWebhookTest(t)
	body := succeededEvent("evt_4", "pi_4", map[string]string{"user_id": "nope"})
	assert.Equal(t, 200, post(t, app, body, signPayload(body, testSecret)))

	var payments int64
	db.Model(&domain.Payment{}).Count(&payments)
	assert.Zero(t, payments)
}

func TestWebhook_FullyFundedPropertyHeldForRefund(t *testing.T) {
	app, db := setupWebhookTest(t)
	property := domain.Property{Name: "Birch Row", Location: "Durham, NC",
		TargetAmount: decimal.NewFromInt(50000), RaisedAmount: decimal.NewFromInt(50000),
		SharePrice: decimal.NewFromInt(100), Status: domain.PropertyStatusFunded}
	require.NoError(t, db.Create(&property).Error)
	userID := uuid.New()

	body := succeededEvent("evt_5", "pi_5", map[string]string{
		"user_id": userID.String(), "property_id": property.PropertyID.String(), "shares": "10", "amount": "1000.00",
	})
	assert.Equal(t, 200, post(t, app, body, signPayload(body, testSecret)))
	assert.Equal(t, 200, post(t, app, body, signPayload(body, testSecret)))

	var payments []domain.Payment
	require.NoError(t, db.Find(&payments).Error)
	require.Len(t, payments, 1)
	assert.Equal(t, "pi_5", payments[0].StripePaymentIntentID)
	assert.Equal(t, domain.PaymentStatusRequiresRefund, payments[0].Status)

	var lots int64
	db.Model(&domain.InvestmentLot{}).Count(&lots)
	assert.Zero(t, lots)
	require.NoError(t, db.Where("property_id = ?", property.PropertyID).First(&property).Error)
	assert.True(t, property.RaisedAmount.Equal(decimal.NewFromInt(50000)))
}

func TestWebhook_StorageFailureAsksForRedelivery(t *testing.T) {
	app, db := setupWebhookTest(t)
	body := succeededEvent("evt_6", "pi_6", map[string]string{
		"user_id": uuid.New().String(), "property_id": uuid.New().String(), "shares": "1", "amount": "100.00",
	})
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	assert.Equal(t, 500, post(t, app, body, signPayload(body, testSecret)))
}
