package shared

// Filter carries list options for repository queries.
// Filters holds repository-specific switches such as "include_inactive".
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Filters  map[string]interface{}
}
