package csvimport

import (
	"fmt"
	"io"
	"strings"
	"time"

	appinv "github.com/salehmohamadkhani/cafe/internal/application/inventory"
	"github.com/shopspring/decimal"
)

// Purchase file columns
const (
	ColumnMaterial     = "material"
	ColumnQuantity     = "quantity"
	ColumnUnit         = "unit"
	ColumnTotalPrice   = "total_price"
	ColumnPurchaseDate = "purchase_date"
	ColumnVendorName   = "vendor_name"
	ColumnVendorPhone  = "vendor_phone"
	ColumnNote         = "note"
)

const dateLayout = "2006-01-02"

// PurchaseReader turns a purchase CSV file into import rows
type PurchaseReader struct {
	location  *time.Location
	maxRows   int
	maxErrors int
	opts      []ParserOption
}

// NewPurchaseReader creates a reader that reads plain dates in loc
func NewPurchaseReader(loc *time.Location, maxRows int, opts ...ParserOption) *PurchaseReader {
	if loc == nil {
		loc = time.UTC
	}
	return &PurchaseReader{location: loc, maxRows: maxRows, maxErrors: 100, opts: opts}
}

// Read parses every data row. File-level problems return a plain error; bad cells
// are collected and returned together as an ImportRejectedError.
func (r *PurchaseReader) Read(src io.Reader) ([]appinv.PurchaseImportRow, error) {
	parser, err := NewCSVParser(src, r.opts...)
	if err != nil {
		return nil, err
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, err
	}
	if missing := parser.ValidateHeaders([]string{ColumnMaterial, ColumnQuantity}); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing column(s) %s", ErrMissingHeader, strings.Join(missing, ", "))
	}

	rows, err := parser.ReadAllRows()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoDataRows
	}
	if r.maxRows > 0 && len(rows) > r.maxRows {
		return nil, fmt.Errorf("file has %d rows, at most %d can be imported at once", len(rows), r.maxRows)
	}

	errs := NewErrorCollection(r.maxErrors)
	result := make([]appinv.PurchaseImportRow, 0, len(rows))
	for _, row := range rows {
		if purchase, ok := r.parseRow(row, errs); ok {
			result = append(result, purchase)
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PurchaseReader) parseRow(row *Row, errs *ErrorCollection) (appinv.PurchaseImportRow, bool) {
	ok := true
	line := row.LineNumber
	purchase := appinv.PurchaseImportRow{
		Row:         line,
		Material:    row.Get(ColumnMaterial),
		Unit:        row.Get(ColumnUnit),
		VendorName:  row.Get(ColumnVendorName),
		VendorPhone: row.Get(ColumnVendorPhone),
		Note:        row.Get(ColumnNote),
	}
	if purchase.Material == "" {
		errs.AddRequiredError(line, ColumnMaterial)
		ok = false
	}

	if raw := row.Get(ColumnQuantity); raw == "" {
		errs.AddRequiredError(line, ColumnQuantity)
		ok = false
	} else if q, err := decimal.NewFromString(raw); err != nil {
		errs.AddTypeError(line, ColumnQuantity, "a number", raw)
		ok = false
	} else {
		purchase.Quantity = q
	}

	if raw := row.Get(ColumnTotalPrice); raw != "" {
		if p, err := decimal.NewFromString(raw); err != nil {
			errs.AddTypeError(line, ColumnTotalPrice, "a number", raw)
			ok = false
		} else {
			purchase.TotalPrice = p
		}
	}

	if raw := row.Get(ColumnPurchaseDate); raw != "" {
		if t, err := r.parseDate(raw); err != nil {
			errs.AddFormatError(line, ColumnPurchaseDate, "YYYY-MM-DD or RFC 3339", raw)
			ok = false
		} else {
			purchase.PurchaseDate = &t
		}
	}
	return purchase, ok
}

func (r *PurchaseReader) parseDate(raw string) (time.Time, error) {
	if t, err := time.ParseInLocation(dateLayout, raw, r.location); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
