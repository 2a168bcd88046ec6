// Package pagination provides page/size pagination utilities. Invalid input
// is normalized rather than rejected: callers always get a usable page
// request, and the size cap bounds the work a single request can ask for.
package pagination

const (
	// DefaultSize is the page size used when the client sends none
	DefaultSize = 20
	// MaxSize is the largest page a single request may ask for
	MaxSize = 100
)

// Page is a normalized pagination request.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps raw page/size values into a valid Page.
// page < 0 → 0; size <= 0 → DefaultSize; size > MaxSize → MaxSize.
func Normalize(page, size int) Page {
	if page < 0 {
		page = 0
	}
	switch {
	case size <= 0:
		size = DefaultSize
	case size > MaxSize:
		size = MaxSize
	}
	return Page{Number: page, Size: size}
}

// Offset returns the row offset for the page.
func (p Page) Offset() int {
	return p.Number * p.Size
}

// TotalPages returns the page count for totalCount rows at this page size.
func (p Page) TotalPages(totalCount int) int {
	if totalCount <= 0 {
		return 0
	}
	return (totalCount + p.Size - 1) / p.Size
}

// Slice returns the [start, end) bounds of this page within a list of
// totalCount items, for paginating an in-memory result set.
func (p Page) Slice(totalCount int) (int, int) {
	start := p.Offset()
	if start >= totalCount {
		return 0, 0
	}
	end := start + p.Size
	if end > totalCount {
		end = totalCount
	}
	return start, end
}
