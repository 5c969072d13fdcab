package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type sampleBody struct {
	Amount         string `validate:"required,numeric"`
	WithdrawalType string `validate:"required,oneof=partial full emergency"`
	PropertyID     string `validate:"omitempty,uuid"`
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(sampleBody{Amount: "100.50", WithdrawalType: "partial"}))
}

func TestStruct_Messages(t *testing.T) {
	err := Struct(sampleBody{WithdrawalType: "partial"})
	assert.EqualError(t, err, "amount is required")

	err = Struct(sampleBody{Amount: "ten", WithdrawalType: "partial"})
	assert.EqualError(t, err, "amount must be a number")

	err = Struct(sampleBody{Amount: "10", WithdrawalType: "instant"})
	assert.EqualError(t, err, "withdrawal_type must be one of: partial full emergency")

	err = Struct(sampleBody{Amount: "10", WithdrawalType: "full", PropertyID: "abc"})
	assert.EqualError(t, err, "Invalid UUID format for property_id")
}

func TestIsValidPassword(t *testing.T) {
	assert.True(t, IsValidPassword("acres#2024"))
	assert.False(t, IsValidPassword("short1!"))
	assert.False(t, IsValidPassword("nodigits!!"))
	assert.False(t, IsValidPassword("nospecial12"))
}

func TestIsValidEmailAndFullname(t *testing.T) {
	assert.True(t, IsValidEmail("investor@fortyacres.io"))
	assert.False(t, IsValidEmail("investor@"))
	assert.True(t, IsValidFullname("Ada O'Neil-Smith"))
	assert.False(t, IsValidFullname("R2D2"))
}

func TestIsWholeCents(t *testing.T) {
	for _, s := range []string{"0.01", "10", "10.5", "10.500", "49999.99"} {
		assert.True(t, IsWholeCents(decimal.RequireFromString(s)), s)
	}
	for _, s := range []string{"0.005", "49999.995", "1.001"} {
		assert.False(t, IsWholeCents(decimal.RequireFromString(s)), s)
	}
}
