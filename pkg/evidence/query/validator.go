package query

import (
	"fmt"

	"mercator-hq/courier/pkg/evidence"
)

const (
	// DefaultLimit is the number of records returned when no limit is set.
	DefaultLimit = 20

	// MaxLimit is the largest accepted limit.
	MaxLimit = 10000
)

// ValidSortFields contains the fields that can be used for sorting.
var ValidSortFields = map[string]bool{
	"request_time": true,
	"cost":         true,
	"total_tokens": true,
	"latency":      true,
}

// ValidSortOrders contains the valid sort orders.
var ValidSortOrders = map[string]bool{
	"asc":  true,
	"desc": true,
}

// ValidStatuses contains the exchange statuses a query can filter on.
var ValidStatuses = map[string]bool{
	evidence.StatusSuccess: true,
	evidence.StatusError:   true,
}

// Validate returns a QueryError for the first invalid parameter.
func Validate(q *evidence.Query) error {
	if q.Limit < 0 {
		return evidence.NewQueryError(q, fmt.Errorf("limit must be >= 0, got %d", q.Limit))
	}
	if q.Limit > MaxLimit {
		return evidence.NewQueryError(q, fmt.Errorf("limit must be <= %d, got %d", MaxLimit, q.Limit))
	}

	if q.Offset < 0 {
		return evidence.NewQueryError(q, fmt.Errorf("offset must be >= 0, got %d", q.Offset))
	}

	if q.SortBy != "" && !ValidSortFields[q.SortBy] {
		return evidence.NewQueryError(q, fmt.Errorf("invalid sort field: %s", q.SortBy))
	}

	if q.SortOrder != "" && !ValidSortOrders[q.SortOrder] {
		return evidence.NewQueryError(q, fmt.Errorf("invalid sort order: %s (must be 'asc' or 'desc')", q.SortOrder))
	}

	if q.StartTime != nil && q.EndTime != nil && q.StartTime.After(*q.EndTime) {
		return evidence.NewQueryError(q, fmt.Errorf("start_time must be before end_time"))
	}

	if q.MinCost != nil && *q.MinCost < 0 {
		return evidence.NewQueryError(q, fmt.Errorf("min_cost must be >= 0"))
	}
	if q.MinTokens != nil && *q.MinTokens < 0 {
		return evidence.NewQueryError(q, fmt.Errorf("min_tokens must be >= 0"))
	}

	if q.Status != "" && !ValidStatuses[q.Status] {
		return evidence.NewQueryError(q, fmt.Errorf("invalid status: %s (must be 'success' or 'error')", q.Status))
	}

	return nil
}

// ApplyDefaults fills the limit and sort settings.
func ApplyDefaults(q *evidence.Query) {
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.SortBy == "" {
		q.SortBy = "request_time"
	}
	if q.SortOrder == "" {
		q.SortOrder = "desc"
	}
}
