package shared

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes shared by the ledger errors
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeInsufficientStock  = "INSUFFICIENT_STOCK"
	CodeDependencyConflict = "DEPENDENCY_CONFLICT"
	CodeImportRejected     = "IMPORT_REJECTED"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInsufficientStock   = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
)

// ValidationError rejects malformed input before any ledger event is considered.
type ValidationError struct {
	DomainError
	Field string `json:"field"`
}

// NewValidationError creates a field-level validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		DomainError: DomainError{Code: CodeValidation, Message: message},
		Field:       field,
	}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Unwrap exposes the embedded DomainError to errors.As
func (e *ValidationError) Unwrap() error {
	return &e.DomainError
}

// Shortage describes one recipe line or transfer that exceeds the available balance.
// Quantities are expressed in Unit.
type Shortage struct {
	MaterialID   uuid.UUID       `json:"material_id"`
	MaterialName string          `json:"material_name"`
	Unit         string          `json:"unit"`
	Required     decimal.Decimal `json:"required"`
	Available    decimal.Decimal `json:"available"`
	Deficit      decimal.Decimal `json:"deficit"`
}

// NewShortage builds a Shortage and derives the deficit
func NewShortage(materialID uuid.UUID, name, unit string, required, available decimal.Decimal) Shortage {
	return Shortage{
		MaterialID:   materialID,
		MaterialName: name,
		Unit:         unit,
		Required:     required,
		Available:    available,
		Deficit:      required.Sub(available),
	}
}

// InsufficientStockError is returned by write operations that would overdraw a balance.
// It lists every failing line, not only the first.
type InsufficientStockError struct {
	DomainError
	Shortages []Shortage `json:"shortages"`
}

// NewInsufficientStockError creates an InsufficientStockError for the given shortages
func NewInsufficientStockError(shortages []Shortage) *InsufficientStockError {
	parts := make([]string, 0, len(shortages))
	for _, s := range shortages {
		parts = append(parts, fmt.Sprintf("%s: required %s %s, available %s, short %s",
			s.MaterialName, s.Required.String(), s.Unit, s.Available.String(), s.Deficit.String()))
	}
	return &InsufficientStockError{
		DomainError: DomainError{
			Code:    CodeInsufficientStock,
			Message: "Insufficient stock: " + strings.Join(parts, "; "),
		},
		Shortages: shortages,
	}
}

// Unwrap exposes the embedded DomainError to errors.As
func (e *InsufficientStockError) Unwrap() error {
	return &e.DomainError
}

// Reference counts the rows of one kind that block a deletion
type Reference struct {
	Kind  string `json:"kind"`
	Count int64  `json:"count"`
}

// DependencyConflictError blocks deletion of an entity that is still referenced
type DependencyConflictError struct {
	DomainError
	Entity     string      `json:"entity"`
	EntityID   uuid.UUID   `json:"entity_id"`
	References []Reference `json:"references"`
}

// NewDependencyConflictError creates a DependencyConflictError listing the blocking references
func NewDependencyConflictError(entity string, id uuid.UUID, refs []Reference) *DependencyConflictError {
	parts := make([]string, 0, len(refs))
	for _, r := range refs {
		parts = append(parts, fmt.Sprintf("%d %s", r.Count, r.Kind))
	}
	return &DependencyConflictError{
		DomainError: DomainError{
			Code:    CodeDependencyConflict,
			Message: fmt.Sprintf("Cannot delete %s: referenced by %s", entity, strings.Join(parts, ", ")),
		},
		Entity:     entity,
		EntityID:   id,
		References: refs,
	}
}

// Unwrap exposes the embedded DomainError to errors.As
func (e *DependencyConflictError) Unwrap() error {
	return &e.DomainError
}

// RowError locates one rejected row of an imported file. Row counts the header as 1.
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// Error implements the error interface
func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column '%s': %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// ImportRejectedError is returned when any row of a bulk import is invalid.
// Nothing from the import has been written.
type ImportRejectedError struct {
	DomainError
	Rows []RowError `json:"rows"`
}

// NewImportRejectedError creates an ImportRejectedError for the given rows
func NewImportRejectedError(rows []RowError) *ImportRejectedError {
	return &ImportRejectedError{
		DomainError: DomainError{
			Code:    CodeImportRejected,
			Message: fmt.Sprintf("Import rejected: %d invalid row(s)", len(rows)),
		},
		Rows: rows,
	}
}

// Unwrap exposes the embedded DomainError to errors.As
func (e *ImportRejectedError) Unwrap() error {
	return &e.DomainError
}
