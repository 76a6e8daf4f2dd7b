// Package paginate slices an ordered ID list into pages.
package paginate

// DefaultPerPage is the page size used when none is requested
const DefaultPerPage = 20

// Page is one contiguous slice of an ordered result set
type Page[T any] struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
	TotalCount int `json:"total_count"`
	Items      []T `json:"items"`
}

// Paginate returns the requested page of items. perPage is clamped to at
// least 1 and page to [1, TotalPages]. The boolean is false when items is
// empty, in which case no page exists.
func Paginate[T any](items []T, perPage, page int) (Page[T], bool) {
	if perPage < 1 {
		perPage = 1
	}

	total := len(items)
	if total == 0 {
		return Page[T]{}, false
	}

	totalPages := total / perPage
	if total%perPage != 0 {
		totalPages++
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	// offset < total because page <= totalPages
	offset := (page - 1) * perPage
	end := total
	if perPage < total-offset {
		end = offset + perPage
	}

	return Page[T]{
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
		TotalCount: total,
		Items:      items[offset:end],
	}, true
}

// Offset returns the index of the page's first item in the full result set
func (p Page[T]) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PerPage
}

// HasPrev reports whether a previous page exists
func (p Page[T]) HasPrev() bool {
	return p.Page > 1
}

// HasNext reports whether a next page exists
func (p Page[T]) HasNext() bool {
	return p.Page < p.TotalPages
}

// Links describes the navigation a renderer needs for a page
type Links struct {
	Prev    int   `json:"prev,omitempty"`
	Next    int   `json:"next,omitempty"`
	Pages   []int `json:"pages"`
	Current int   `json:"current"`
}

// Links returns prev/next page numbers (zero when absent) and every page
// number from 1 to TotalPages.
func (p Page[T]) Links() Links {
	links := Links{Current: p.Page, Pages: make([]int, 0, p.TotalPages)}
	for i := 1; i <= p.TotalPages; i++ {
		links.Pages = append(links.Pages, i)
	}
	if p.HasPrev() {
		links.Prev = p.Page - 1
	}
	if p.HasNext() {
		links.Next = p.Page + 1
	}
	return links
}
