package validation_test

import (
	"testing"

	"bidmarket/internal/apperr"
	"bidmarket/internal/validation"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Title string `json:"title" validate:"required,max=5"`
	Days  int    `json:"deliveryTimeDays" validate:"min=1,max=365"`
	Note  string `validate:"max=3"`
}

func TestStructReportsJSONNames(t *testing.T) {
	err := validation.Struct(&sample{Title: "too long", Days: 0, Note: "abcd"})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
	assert.Contains(t, err.Error(), "title failed max=5")
	assert.Contains(t, err.Error(), "deliveryTimeDays failed min=1")
	assert.Contains(t, err.Error(), "Note failed max=3")

	require.NoError(t, validation.Struct(&sample{Title: "ok", Days: 7}))
}

func TestMoneyChecks(t *testing.T) {
	require.NoError(t, validation.NonNegative("laborCost", decimal.NullDecimal{}))
	require.NoError(t, validation.NonNegative("laborCost", decimal.NewNullDecimal(decimal.Zero)))
	require.ErrorIs(t, validation.NonNegative("laborCost", decimal.NewNullDecimal(decimal.NewFromInt(-1))), apperr.ErrInvalidInput)

	require.NoError(t, validation.Positive("price", decimal.RequireFromString("0.01")))
	require.ErrorIs(t, validation.Positive("price", decimal.Zero), apperr.ErrInvalidInput)
}
