package domain

// Pagination defaults and bounds for feed requests.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Pagination selects one window of each category.
type Pagination struct {
	Page     int
	PageSize int
}

// Window returns the [start, end) slice bounds for a list of n items,
// clamped to n. start == end means the window is empty. Pages far past the
// end are clamped before multiplying, so huge page numbers cannot overflow.
func (p Pagination) Window(n int) (start, end int) {
	if p.Page < 1 || p.PageSize < 1 || p.Page-1 >= (n+p.PageSize-1)/p.PageSize {
		return n, n
	}
	start = (p.Page - 1) * p.PageSize
	end = min(start+p.PageSize, n)
	return start, end
}
