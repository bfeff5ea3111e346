package validator

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testItem struct {
	Name     string          `json:"name" validate:"required,notblank"`
	Price    decimal.Decimal `json:"price" validate:"gte=0"`
	Quantity int             `json:"quantity" validate:"gte=0,lte=100"`
}

type testRequest struct {
	Items []testItem `json:"items" validate:"required,min=1,dive"`
}

func TestNewValidator(t *testing.T) {
	tests := []struct {
		name      string
		input     testRequest
		wantField string
		wantMsg   string
	}{
		{
			name:  "valid request",
			input: testRequest{Items: []testItem{{Name: "CPU: X", Price: decimal.RequireFromString("199.4"), Quantity: 1}}},
		},
		{
			name:      "missing items",
			input:     testRequest{},
			wantField: "items",
			wantMsg:   ErrRequired,
		},
		{
			name:      "empty items",
			input:     testRequest{Items: []testItem{}},
			wantField: "items",
			wantMsg:   fmt.Sprintf(ErrMinLength, "1"),
		},
		{
			name:      "blank name",
			input:     testRequest{Items: []testItem{{Name: "   ", Price: decimal.NewFromInt(1)}}},
			wantField: "name",
			wantMsg:   ErrNotBlank,
		},
		{
			name:      "negative price",
			input:     testRequest{Items: []testItem{{Name: "X", Price: decimal.NewFromInt(-1)}}},
			wantField: "price",
			wantMsg:   fmt.Sprintf(ErrMinValue, "0"),
		},
		{
			name:      "quantity too large",
			input:     testRequest{Items: []testItem{{Name: "X", Quantity: 101}}},
			wantField: "quantity",
			wantMsg:   fmt.Sprintf(ErrMaxValue, "100"),
		},
	}

	v := NewValidator()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.input)

			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}

			var validationErrs validator.ValidationErrors
			require.True(t, errors.As(err, &validationErrs))
			require.NotEmpty(t, validationErrs)
			assert.Equal(t, tt.wantField, validationErrs[0].Field())
			assert.Equal(t, tt.wantMsg, ValidationMessage(validationErrs[0]))
		})
	}
}
