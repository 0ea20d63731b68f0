// Package listing slices an already fetched collection into fixed-size pages.
package listing

// DefaultPageSize is the number of rows per page in the response listing.
const DefaultPageSize = 6

// Pager describes the pages of a collection of Total items. A Size of zero
// or less counts as DefaultPageSize.
type Pager struct {
	Total int
	Size  int
}

// Paginate returns a Pager over n items. size <= 0 means DefaultPageSize.
func Paginate(n, size int) Pager {
	if size <= 0 {
		size = DefaultPageSize
	}
	if n < 0 {
		n = 0
	}
	return Pager{Total: n, Size: size}
}

// Pages returns the page count. An empty collection still has one (empty) page.
func (p Pager) Pages() int {
	if p.Total <= 0 {
		return 1
	}
	size := p.size()
	return (p.Total + size - 1) / size
}

func (p Pager) size() int {
	if p.Size <= 0 {
		return DefaultPageSize
	}
	return p.Size
}

// Clamp maps page into [1, Pages()].
func (p Pager) Clamp(page int) int {
	if page < 1 {
		return 1
	}
	if last := p.Pages(); page > last {
		return last
	}
	return page
}

// Bounds returns the half-open index range of the 1-based page after clamping.
func (p Pager) Bounds(page int) (start, end int) {
	page = p.Clamp(page)
	size, total := p.size(), max(p.Total, 0)
	start = min((page-1)*size, total)
	end = min(start+size, total)
	return start, end
}

// Page returns the items on the 1-based page.
func Page[T any](items []T, page, size int) []T {
	start, end := Paginate(len(items), size).Bounds(page)
	return items[start:end]
}
