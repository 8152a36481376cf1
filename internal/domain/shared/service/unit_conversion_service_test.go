package service

import (
	"errors"
	"testing"

	"github.com/salehmohamadkhani/cafe/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestUnitConversionService_Convert(t *testing.T) {
	svc := NewUnitConversionService(nil)

	tests := []struct {
		name            string
		quantity        decimal.Decimal
		from            string
		to              string
		wantTarget      decimal.Decimal
		wantPassThrough bool
		wantErr         bool
	}{
		{
			name:       "litres into millilitres",
			quantity:   decimal.NewFromInt(2),
			from:       "l",
			to:         "ml",
			wantTarget: decimal.NewFromInt(2000),
		},
		{
			name:       "localized kilogram into grams",
			quantity:   decimal.NewFromFloat(1.5),
			from:       "کیلو",
			to:         "gr",
			wantTarget: decimal.NewFromInt(1500),
		},
		{
			name:            "count into grams is a pass-through",
			quantity:        decimal.NewFromInt(3),
			from:            "count",
			to:              "g",
			wantTarget:      decimal.NewFromInt(3),
			wantPassThrough: true,
		},
		{
			name:     "negative quantity rejected",
			quantity: decimal.NewFromInt(-1),
			from:     "g",
			to:       "kg",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Convert(tt.quantity, tt.from, tt.to)
			if tt.wantErr {
				require.Error(t, err)
				var vErr *shared.ValidationError
				assert.True(t, errors.As(err, &vErr))
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.wantTarget.Equal(res.TargetQuantity), "got %s", res.TargetQuantity)
			assert.Equal(t, tt.wantPassThrough, res.PassThrough)
		})
	}
}

func TestUnitConversionService_LogsPassThrough(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	svc := NewUnitConversionService(zap.New(core))

	_, err := svc.Convert(decimal.NewFromInt(2), "pack", "g")
	require.NoError(t, err)
	assert.Equal(t, 1, logs.Len())

	_, err = svc.Convert(decimal.NewFromInt(2), "kg", "g")
	require.NoError(t, err)
	assert.Equal(t, 1, logs.Len())
}

func TestUnitConversionService_ValidateUnit(t *testing.T) {
	svc := NewUnitConversionService(nil)

	assert.NoError(t, svc.ValidateUnit("from", "gr"))

	err := svc.ValidateUnit("to", "   ")
	var vErr *shared.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "to", vErr.Field)
}
