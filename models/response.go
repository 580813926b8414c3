package models

// ErrorResponse is the body of every failed request. Errors is set for
// field validation failures.
type ErrorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// MessageResponse acknowledges an action that returns no entity.
type MessageResponse struct {
	Message string `json:"message"`
}

// Page is one page of a list endpoint.
type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

// NewPage wraps content fetched with p.
func NewPage[T any](content []T, p Pagination, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}
	pages := 0
	if p.Size > 0 {
		pages = int((total + int64(p.Size) - 1) / int64(p.Size))
	}
	return Page[T]{
		Content:       content,
		Page:          p.Page,
		Size:          p.Size,
		TotalElements: total,
		TotalPages:    pages,
	}
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Pagination is a zero based page request.
type Pagination struct {
	Page int
	Size int
}

// Normalize clamps the page to sane bounds.
func (p Pagination) Normalize() Pagination {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Pagination) Offset() int {
	return p.Page * p.Size
}

// HealthResponse reports service and database availability.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}
