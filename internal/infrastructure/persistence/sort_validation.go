package persistence

import "strings"

// RawMaterialSortFields are the columns raw material lists may be ordered by
var RawMaterialSortFields = map[string]bool{
	"created_at":   true,
	"updated_at":   true,
	"name":         true,
	"code":         true,
	"default_unit": true,
	"min_stock":    true,
}

// OrderClause builds an ORDER BY clause from request input. Fields outside
// allowed fall back to fallback, and the direction is ASC unless DESC is asked for.
func OrderClause(field, dir string, allowed map[string]bool, fallback string) string {
	field = strings.TrimSpace(field)
	if !allowed[field] {
		field = fallback
	}
	if strings.EqualFold(strings.TrimSpace(dir), "desc") {
		return field + " DESC"
	}
	return field + " ASC"
}
