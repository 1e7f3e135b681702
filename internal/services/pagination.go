package services

import "gorm.io/gorm"

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// Page is a 1-based page request.
type Page struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

func NewPage(page, perPage int) Page {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return Page{Page: page, PerPage: perPage}
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.PerPage
}

func (p Page) scope(db *gorm.DB) *gorm.DB {
	p = NewPage(p.Page, p.PerPage)
	return db.Offset(p.Offset()).Limit(p.PerPage)
}

// PageResult is one page of items plus the total match count.
type PageResult[T any] struct {
	Items   []T   `json:"items"`
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Pages   int   `json:"pages"`
}

func newPageResult[T any](items []T, total int64, p Page) PageResult[T] {
	p = NewPage(p.Page, p.PerPage)
	if items == nil {
		items = []T{}
	}
	pages := int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	return PageResult[T]{Items: items, Total: total, Page: p.Page, PerPage: p.PerPage, Pages: pages}
}
