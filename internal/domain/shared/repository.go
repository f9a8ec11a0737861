package shared

import "strings"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Filter is the paging and ordering window of a listing. Column names in
// OrderBy are checked against an allow list by the repository.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}

// DefaultFilter returns the first page, newest first
func DefaultFilter() Filter {
	return Filter{Page: 1, PageSize: DefaultPageSize, OrderBy: "created_at", OrderDir: "desc"}
}

// Normalized clamps the window and fills missing fields from DefaultFilter
func (f Filter) Normalized() Filter {
	def := DefaultFilter()
	if f.Page < 1 {
		f.Page = def.Page
	}
	switch {
	case f.PageSize < 1:
		f.PageSize = def.PageSize
	case f.PageSize > MaxPageSize:
		f.PageSize = MaxPageSize
	}
	if f.OrderBy == "" {
		f.OrderBy = def.OrderBy
	}
	if d := strings.ToLower(f.OrderDir); d == "asc" || d == "desc" {
		f.OrderDir = d
	} else {
		f.OrderDir = def.OrderDir
	}
	return f
}

// Offset returns the row offset for the current page
func (f Filter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// PageCount is the number of pages needed for total rows
func (f Filter) PageCount(total int64) int {
	if f.PageSize < 1 || total <= 0 {
		return 0
	}
	return int((total + int64(f.PageSize) - 1) / int64(f.PageSize))
}
