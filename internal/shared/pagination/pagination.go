// Package pagination provides the generic offset-based listing primitive
// shared by read paths.
package pagination

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Page carries offset pagination parameters.
type Page struct {
	Skip  int
	Limit int
}

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Result is a single page of items plus the unpaged total.
type Result[T any] struct {
	Items []T
	Total int64
	Skip  int
	Limit int
}

// NewResult pairs a page of items with its total count.
func NewResult[T any](items []T, total int64, page Page) Result[T] {
	return Result[T]{Items: items, Total: total, Skip: page.Skip, Limit: page.Limit}
}
