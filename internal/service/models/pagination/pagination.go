// Package pagination normalizes page requests.
package pagination

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Limits bounds the page size of a listing.
type Limits struct {
	Default int
	Max     int
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{Default: DefaultLimit, Max: MaxLimit}
}

// Page is a normalized page request.
type Page struct {
	Page  int
	Limit int
}

// Offset returns the number of rows skipped before the page.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// TotalPages returns ceil(totalItems / limit).
func (p Page) TotalPages(totalItems int) int {
	if p.Limit <= 0 {
		return 0
	}

	return (totalItems + p.Limit - 1) / p.Limit
}

// Normalize applies defaults to unset values and caps the limit.
func Normalize(page, limit int, limits Limits) Page {
	if limits.Default <= 0 {
		limits.Default = DefaultLimit
	}
	if limits.Max <= 0 {
		limits.Max = MaxLimit
	}

	if page <= 0 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = limits.Default
	}
	if limit > limits.Max {
		limit = limits.Max
	}

	return Page{Page: page, Limit: limit}
}
