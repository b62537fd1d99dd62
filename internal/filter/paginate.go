package filter

const (
	// DefaultPageSize is used when a page size is not provided.
	DefaultPageSize = 12
	// MaxPageSize caps how many items a single page can hold.
	MaxPageSize = 100
)

// Page is one window over an in-memory list.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

// HasNext reports whether a later page exists.
func (p Page[T]) HasNext() bool { return p.Page < p.TotalPages }

// HasPrev reports whether an earlier page exists.
func (p Page[T]) HasPrev() bool { return p.Page > 1 }

// NormalizePageSize enforces the default and maximum page sizes.
func NormalizePageSize(size int) int {
	if size <= 0 {
		return DefaultPageSize
	}
	if size > MaxPageSize {
		return MaxPageSize
	}
	return size
}

// TotalPages returns how many pages total items span; never less than one.
func TotalPages(total, pageSize int) int {
	pageSize = NormalizePageSize(pageSize)
	if total <= 0 {
		return 1
	}
	return (total-1)/pageSize + 1
}

// Paginate slices items into the requested 1-based page, clamping the page
// number into range.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	pageSize = NormalizePageSize(pageSize)
	totalPages := TotalPages(len(items), pageSize)
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := min(start+pageSize, len(items))
	window := []T{}
	if start < end {
		window = items[start:end]
	}

	return Page[T]{
		Items:      window,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: len(items),
		TotalPages: totalPages,
	}
}
