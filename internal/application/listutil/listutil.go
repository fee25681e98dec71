// Package listutil parses and describes paged listings such as /visitas.
package listutil

import (
	"net/url"
	"slices"
	"strconv"
)

// DefaultPerPage is used when per_page is missing or not offered.
const DefaultPerPage = 25

// PerPageOptions are the rows-per-page values offered on list pages.
var PerPageOptions = []int{10, 25, 50, 100}

// maxPageLinks bounds the numbered links shown around the current page.
const maxPageLinks = 5

// PageParams is the page a caller asked for.
type PageParams struct {
	Page    int
	PerPage int
}

// ParsePageParams reads ?page= and ?per_page=.
// POST: Page >= 1; PerPage is one of PerPageOptions
func ParsePageParams(q url.Values) PageParams {
	p := PageParams{Page: 1, PerPage: DefaultPerPage}
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 1 {
		p.Page = n
	}
	if n, err := strconv.Atoi(q.Get("per_page")); err == nil && slices.Contains(PerPageOptions, n) {
		p.PerPage = n
	}
	return p
}

// PageInfo is everything a list template needs to render one page and its navigation.
// Prev and Next are 0 when there is no such page.
type PageInfo struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
	Offset     int
	StartRow   int // 1-indexed, 0 when the list is empty
	EndRow     int
	Prev       int
	Next       int
	Links      []int
}

// NewPageInfo places page within total rows.
// PRE: total >= 0
// POST: Page clamped to [1, TotalPages]; TotalPages >= 1
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	pages := max((total+perPage-1)/perPage, 1)
	page = min(max(page, 1), pages)

	info := PageInfo{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: pages,
		Offset:     (page - 1) * perPage,
	}
	if total > 0 {
		info.StartRow = info.Offset + 1
		info.EndRow = min(info.Offset+perPage, total)
	}
	if page > 1 {
		info.Prev = page - 1
	}
	if page < pages {
		info.Next = page + 1
	}
	info.Links = linkWindow(page, pages)
	return info
}

// Paginated reports whether navigation should be shown at all.
func (p PageInfo) Paginated() bool {
	return p.TotalPages > 1
}

// linkWindow centres up to maxPageLinks page numbers on page, sliding at either end.
func linkWindow(page, pages int) []int {
	first := max(page-maxPageLinks/2, 1)
	last := min(first+maxPageLinks-1, pages)
	first = max(last-maxPageLinks+1, 1)
	links := make([]int, 0, last-first+1)
	for n := first; n <= last; n++ {
		links = append(links, n)
	}
	return links
}
