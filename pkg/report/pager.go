package report

// PageSize is the fixed number of rows per listing page.
const PageSize = 25

// Pager describes one page of a listing. Pages are numbered from 1;
// requests below 1 clamp to the first page and requests past the end return
// an empty page with the pager still describing the real total.
type Pager struct {
	Page      int `json:"page"`
	PageCount int `json:"pageCount"`
	Total     int `json:"total"`

	offset int
}

func newPager(page, total int) Pager {
	if page < 1 {
		page = 1
	}
	count := (total + PageSize - 1) / PageSize
	if count < 1 {
		count = 1
	}
	return Pager{
		Page:      page,
		PageCount: count,
		Total:     total,
		offset:    (page - 1) * PageSize,
	}
}

// HasPrev reports whether a previous page exists.
func (p Pager) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a following page exists.
func (p Pager) HasNext() bool { return p.Page < p.PageCount }

// Offset returns the row offset of the page's first entry. Row numbering
// continues across pages from this offset.
func (p Pager) Offset() int { return p.offset }
