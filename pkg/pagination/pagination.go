package pagination

import (
	"net/http"
	"strconv"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Params is a zero-based page request, the shape the dashboard paginator uses.
type Params struct {
	PageIndex int `json:"page_index"`
	PageSize  int `json:"page_size"`
}

// Offset returns the number of rows to skip.
func (p Params) Offset() int {
	return p.PageIndex * p.PageSize
}

// FromRequest reads page_index and page_size from the query string. Invalid
// or out-of-range values fall back to the defaults.
func FromRequest(r *http.Request, defaultSize int) Params {
	if defaultSize <= 0 || defaultSize > MaxPageSize {
		defaultSize = DefaultPageSize
	}
	p := Params{PageSize: defaultSize}
	q := r.URL.Query()

	if v, err := strconv.Atoi(q.Get("page_index")); err == nil && v >= 0 {
		p.PageIndex = v
	}
	if v, err := strconv.Atoi(q.Get("page_size")); err == nil && v > 0 && v <= MaxPageSize {
		p.PageSize = v
	}
	return p
}

// TotalPages returns how many pages of size pageSize hold total items.
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
