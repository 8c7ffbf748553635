package shared

// Default paging for list endpoints
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Filter is a page request plus optional named conditions. Repositories
// read the conditions they understand and ignore the rest.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Filters  map[string]interface{}
}

// DefaultFilter returns the first page, newest first
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: DefaultPageSize,
		OrderBy:  "created_at",
		OrderDir: "desc",
		Filters:  make(map[string]interface{}),
	}
}

// Set stores a condition
func (f *Filter) Set(key string, value interface{}) {
	if f.Filters == nil {
		f.Filters = make(map[string]interface{})
	}
	f.Filters[key] = value
}

// String returns a non-empty string condition
func (f Filter) String(key string) (string, bool) {
	s, ok := f.Filters[key].(string)
	return s, ok && s != ""
}

// Bool returns a boolean condition
func (f Filter) Bool(key string) (bool, bool) {
	b, ok := f.Filters[key].(bool)
	return b, ok
}

// Offset returns the row offset for the filter's page
func (f Filter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit()
}

// Limit returns the page size clamped to [1, MaxPageSize]
func (f Filter) Limit() int {
	switch {
	case f.PageSize <= 0:
		return DefaultPageSize
	case f.PageSize > MaxPageSize:
		return MaxPageSize
	}
	return f.PageSize
}
