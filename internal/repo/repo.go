// Package repo contains the gorm persistence layer.
package repo

import "errors"

// ErrNotFound is returned when a record does not exist.
// Callers distinguish it from infrastructure errors instead of
// relying on nil returns or panics.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned on unique-constraint violations.
var ErrDuplicate = errors.New("record already exists")

// PagedResult is a page of items plus paging metadata.
type PagedResult[T any] struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalCount int64 `json:"totalCount"`
	Items      []T   `json:"items"`
}

// TotalPages returns the number of pages for the current page size.
func (p *PagedResult[T]) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return int((p.TotalCount + int64(p.PageSize) - 1) / int64(p.PageSize))
}
