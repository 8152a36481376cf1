package service

import (
	"github.com/salehmohamadkhani/cafe/internal/domain/shared"
	"github.com/salehmohamadkhani/cafe/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// UnitConversionResult represents the result of converting an entered quantity
// into a material's default unit
type UnitConversionResult struct {
	// The quantity as entered
	SourceQuantity decimal.Decimal
	// The canonical code of the entered unit
	SourceUnitCode string
	// The quantity in the target unit
	TargetQuantity decimal.Decimal
	// The canonical code of the target unit
	TargetUnitCode string
	// PassThrough is true when the units were not convertible and the quantity was kept as is
	PassThrough bool
}

// UnitConversionService converts ledger quantities between units.
// This is a domain service as it is shared by every ledger aggregate.
type UnitConversionService struct {
	logger *zap.Logger
}

// NewUnitConversionService creates a new unit conversion service
func NewUnitConversionService(logger *zap.Logger) *UnitConversionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UnitConversionService{logger: logger}
}

// Convert converts a quantity between two unit labels.
// Cross-dimension requests keep the quantity unchanged and are logged at warn level.
func (s *UnitConversionService) Convert(quantity decimal.Decimal, fromUnit, toUnit string) (*UnitConversionResult, error) {
	if quantity.IsNegative() {
		return nil, shared.NewValidationError("quantity", "Quantity cannot be negative")
	}

	passThrough := !valueobject.SameDimension(fromUnit, toUnit)
	if passThrough {
		s.logger.Warn("Unit conversion across dimensions, quantity kept unchanged",
			zap.String("from_unit", fromUnit),
			zap.String("to_unit", toUnit),
			zap.String("quantity", quantity.String()),
		)
	}

	return &UnitConversionResult{
		SourceQuantity: quantity,
		SourceUnitCode: valueobject.NormalizeUnit(fromUnit),
		TargetQuantity: valueobject.Convert(quantity, fromUnit, toUnit),
		TargetUnitCode: valueobject.NormalizeUnit(toUnit),
		PassThrough:    passThrough,
	}, nil
}

// ValidateUnit rejects blank unit labels, reporting field as the offending input
func (s *UnitConversionService) ValidateUnit(field, unit string) error {
	if valueobject.NormalizeUnit(unit) == "" {
		return shared.NewValidationError(field, "Unit is required")
	}
	return nil
}
