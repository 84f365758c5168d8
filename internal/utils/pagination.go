package utils

import (
	"net/url"
	"strconv"
)

// Page size bounds
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page holds pagination request parameters
type Page struct {
	Number int // 1-based page number
	Size   int // Items per page
}

// NewPage clamps raw query values into a valid Page
func NewPage(rawPage, rawSize string) Page {
	p := Page{Number: 1, Size: DefaultPageSize}
	if v, err := strconv.Atoi(rawPage); err == nil && v > 0 {
		p.Number = v
	}
	if v, err := strconv.Atoi(rawSize); err == nil && v > 0 && v <= MaxPageSize {
		p.Size = v
	}
	return p
}

// Offset returns the SQL offset
func (p Page) Offset() int {
	if p.Number < 1 || p.Size < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// Limit returns the SQL limit
func (p Page) Limit() int {
	if p.Size < 1 {
		return DefaultPageSize
	}
	return p.Size
}

// TotalPages returns the number of pages for total items
func (p Page) TotalPages(total int64) int {
	size := int64(p.Limit())
	return int((total + size - 1) / size)
}

// PageResult is the paginated response body
type PageResult[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// NewPageResult builds a PageResult whose links point at base with the page parameter swapped
func NewPageResult[T any](items []T, total int64, p Page, base *url.URL) PageResult[T] {
	if items == nil {
		items = []T{}
	}
	res := PageResult[T]{Count: total, Results: items}
	if base == nil {
		return res
	}
	if p.Number < p.TotalPages(total) {
		res.Next = pageLink(base, p.Number+1)
	}
	if p.Number > 1 {
		res.Previous = pageLink(base, p.Number-1)
	}
	return res
}

func pageLink(base *url.URL, number int) *string {
	u := *base
	q := u.Query()
	q.Set("page", strconv.Itoa(number))
	u.RawQuery = q.Encode()
	s := u.String()
	return &s
}
