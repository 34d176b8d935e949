package capture

import (
	"context"
	"strings"
)

// Page size bounds for the capture listing.
const (
	MinPageSize     = 5
	MaxPageSize     = 50
	DefaultPageSize = 20
)

// Query selects a page of capture rows.
type Query struct {
	Search string
	Page   int // 1-based
	Size   int
}

// Page is one page of loaded entries.
type Page struct {
	Entries []Entry `json:"entries"`
	Number  int     `json:"page"`
	Pages   int     `json:"pages"`
	Size    int     `json:"size"`
	Total   int     `json:"total"`
}

// Search keeps rows whose indicator or responsible contains term, ignoring
// case. An empty term keeps every row.
func Search(rows []Row, term string) []Row {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return rows
	}
	var out []Row
	for _, r := range rows {
		if strings.Contains(strings.ToLower(r.Indicator), term) ||
			strings.Contains(strings.ToLower(r.Responsible), term) {
			out = append(out, r)
		}
	}
	return out
}

// ClampSize bounds a requested page size.
func ClampSize(size int) int {
	switch {
	case size <= 0:
		return DefaultPageSize
	case size < MinPageSize:
		return MinPageSize
	case size > MaxPageSize:
		return MaxPageSize
	}
	return size
}

// Page loads the entries of the requested page.
func (s *Service) Page(ctx context.Context, rows []Row, q Query) (Page, error) {
	matched := Search(rows, q.Search)
	size := ClampSize(q.Size)
	pages := (len(matched) + size - 1) / size
	if pages < 1 {
		pages = 1
	}
	number := q.Page
	if number < 1 {
		number = 1
	}
	if number > pages {
		number = pages
	}

	start := (number - 1) * size
	end := min(start+size, len(matched))

	p := Page{Number: number, Pages: pages, Size: size, Total: len(matched)}
	for _, row := range matched[start:end] {
		e, err := s.Load(ctx, row)
		if err != nil {
			return Page{}, err
		}
		p.Entries = append(p.Entries, e)
	}
	return p, nil
}
