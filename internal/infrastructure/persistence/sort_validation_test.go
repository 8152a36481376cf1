package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderClause(t *testing.T) {
	tests := []struct {
		name  string
		field string
		dir   string
		want  string
	}{
		{"defaults to name ascending", "", "", "name ASC"},
		{"allowed field", "min_stock", "desc", "min_stock DESC"},
		{"direction is case-insensitive", "code", "  DESC ", "code DESC"},
		{"unknown direction is ascending", "code", "sideways", "code ASC"},
		{"unknown field falls back", "price", "asc", "name ASC"},
		{"field names are case-sensitive", "NAME", "", "name ASC"},
		{"injected field falls back", "name; DROP TABLE raw_materials;--", "", "name ASC"},
		{"injected direction is ascending", "name", "DESC; DROP TABLE raw_materials;--", "name ASC"},
		{"surrounding spaces are ignored", "  default_unit ", "", "default_unit ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OrderClause(tt.field, tt.dir, RawMaterialSortFields, "name"))
		})
	}
}
