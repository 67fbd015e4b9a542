// Package response shapes query results into the {data, meta} envelope
// returned by every endpoint, and errors into the {error} body.
package response

import (
	"github.com/noot-app/fct-api/internal/query"
)

// Envelope is the body of every successful response
type Envelope struct {
	Data any `json:"data"`
	Meta any `json:"meta"`
}

// ListMeta describes a page of search results. It carries everything a caller
// needs to request the next page.
type ListMeta struct {
	Total      int               `json:"total"`
	Count      int               `json:"count"`
	Limit      int               `json:"limit"`
	Offset     int               `json:"offset"`
	Sort       string            `json:"sort"`
	Order      query.Order       `json:"order"`
	Filters    map[string]string `json:"filters"`
	NextOffset *int              `json:"next_offset"`
}

// CountMeta is the meta of the taxonomy listings
type CountMeta struct {
	Total int `json:"total"`
}

// List wraps a page of items. items must be a slice; a nil slice is written
// as [].
func List[T any](items []T, total int, p query.Params) Envelope {
	if items == nil {
		items = []T{}
	}

	meta := ListMeta{
		Total:   total,
		Count:   len(items),
		Limit:   p.Limit,
		Offset:  p.Offset,
		Sort:    p.Sort,
		Order:   p.Order,
		Filters: p.Filters(),
	}
	if meta.Order == "" {
		meta.Order = query.OrderAsc
	}
	if next := p.Offset + len(items); len(items) > 0 && next < total {
		meta.NextOffset = &next
	}

	return Envelope{Data: items, Meta: meta}
}

// Collection wraps an unpaged list such as the taxonomy
func Collection[T any](items []T) Envelope {
	if items == nil {
		items = []T{}
	}
	return Envelope{Data: items, Meta: CountMeta{Total: len(items)}}
}

// Single wraps one record
func Single(data any) Envelope {
	return Envelope{Data: data, Meta: struct{}{}}
}

// Error codes
const (
	CodeInvalidParam = "invalid_param"
	CodeNotFound     = "not_found"
	CodeNotReady     = "not_ready"
	CodeRateLimited  = "rate_limited"
	CodeUnauthorized = "unauthorized"
	CodeInternal     = "internal"
)

// ErrorDetail is the content of an error response
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Param     string `json:"param,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorBody is the body of every failed response
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// Error builds an error body
func Error(code, message, param, requestID string) ErrorBody {
	return ErrorBody{Error: ErrorDetail{
		Code:      code,
		Message:   message,
		Param:     param,
		RequestID: requestID,
	}}
}
