// Package pagination carries the page/page_size parameters and the result
// envelope shared by every list endpoint.
package pagination

// Pagination defaults and bounds.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Params holds normalized pagination parameters. Page is 1-based.
type Params struct {
	Page     int
	PageSize int
}

// Normalize applies defaults for missing values and clamps page_size to the
// maximum. Out-of-range values (page <= 0, page_size <= 0) fall back to the
// defaults; the HTTP boundary rejects them before they get here, so this is
// only a safety net for direct callers.
func Normalize(page, pageSize int) Params {
	if page <= 0 {
		page = DefaultPage
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Params{Page: page, PageSize: pageSize}
}

// Offset returns the number of records to skip for the current page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Limit returns the number of records in a full page.
func (p Params) Limit() int {
	return p.PageSize
}

// Page is the paginated result envelope.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// NewPage builds the envelope for one page of results. TotalPages is
// ceil(total/page_size), or 0 when there are no matches at all.
func NewPage[T any](items []T, total int, p Params) Page[T] {
	if items == nil {
		items = []T{}
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + p.PageSize - 1) / p.PageSize
	}

	return Page[T]{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: totalPages,
	}
}
