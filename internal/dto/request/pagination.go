package request

import (
	"net/url"
	"strconv"
)

type PaginatedRequest struct {
	Page    int `json:"page" validate:"min=1"`
	PerPage int `json:"per_page" validate:"min=1,max=100"`
}

// PaginationFromQuery reads page/per_page query parameters, falling back to
// the first page of 10 on anything unparseable.
func PaginationFromQuery(query url.Values) *PaginatedRequest {
	req := &PaginatedRequest{Page: 1, PerPage: 10}
	if page, err := strconv.Atoi(query.Get("page")); err == nil && page > 0 {
		req.Page = page
	}
	if perPage, err := strconv.Atoi(query.Get("per_page")); err == nil && perPage > 0 {
		req.PerPage = perPage
	}
	return req
}

func (p PaginatedRequest) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PerPage
}

func (p PaginatedRequest) Limit() int {
	if p.PerPage < 1 {
		return 10
	}
	if p.PerPage > 100 {
		return 100
	}
	return p.PerPage
}
