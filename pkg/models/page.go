package models

// SortDir is a sort direction on a listing or review query.
type SortDir string

const (
	SortAsc  SortDir = "ASC"
	SortDesc SortDir = "DESC"
)

// Sortable fields accepted by the backend.
const (
	SortByCreatedAt      = "createdAt"
	SortByRating         = "rating"
	SortByAverageRating  = "averageRating"
	SortByWeightedRating = "weightedRating"
	SortByReviewCount    = "reviewCount"
)

// SortSpec drives review and listing ordering. Changing it resets
// pagination to page 0.
type SortSpec struct {
	By  string  `json:"sortBy"`
	Dir SortDir `json:"sortDir"`
}

// DefaultSort is newest-first, the ordering every listing starts with.
var DefaultSort = SortSpec{By: SortByCreatedAt, Dir: SortDesc}

// Page is one page of a paginated collection. Invariants: PageNo is 0-based,
// TotalPages == ceil(TotalElements/PageSize), and PageNo < TotalPages
// whenever TotalElements > 0.
type Page[T any] struct {
	Content       []T `json:"content"`
	PageNo        int `json:"pageNo"`
	PageSize      int `json:"pageSize"`
	TotalPages    int `json:"totalPages"`
	TotalElements int `json:"totalElements"`
}

// HasNext reports whether a page after this one exists.
func (p *Page[T]) HasNext() bool {
	return p.PageNo+1 < p.TotalPages
}

// TotalPagesFor computes the page count for a collection size.
func TotalPagesFor(totalElements, pageSize int) int {
	if pageSize <= 0 || totalElements <= 0 {
		return 0
	}
	pages := totalElements / pageSize
	if totalElements%pageSize > 0 {
		pages++
	}
	return pages
}

// NewPage slices a full collection into one page and fills the metadata
// consistently.
func NewPage[T any](all []T, pageNo, pageSize int) Page[T] {
	if pageSize <= 0 {
		pageSize = 10
	}
	if pageNo < 0 {
		pageNo = 0
	}
	total := len(all)
	start := pageNo * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return Page[T]{
		Content:       all[start:end],
		PageNo:        pageNo,
		PageSize:      pageSize,
		TotalPages:    TotalPagesFor(total, pageSize),
		TotalElements: total,
	}
}
