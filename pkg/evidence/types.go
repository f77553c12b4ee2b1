package evidence

import (
	"context"
	"io"
	"time"
)

// Exchange status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Record is the audit entry for one chat completion exchange sent through
// the proxy. Bodies are kept only when configured; hashes always are.
type Record struct {
	// Identity
	ID        string `json:"id"`         // UUID v4
	RequestID string `json:"request_id"` // X-Request-ID sent upstream

	// Timestamps
	RequestTime  time.Time     `json:"request_time"`
	ResponseTime time.Time     `json:"response_time"`
	Latency      time.Duration `json:"latency"`

	// Route
	Provider string `json:"provider"`
	BaseURL  string `json:"base_url"`
	Proxy    string `json:"proxy"`   // proxy URL without password, or "direct"
	APIKey   string `json:"api_key"` // SHA-256 fingerprint

	// Request
	Model        string `json:"model"`
	Messages     int    `json:"messages"`
	SystemPrompt string `json:"system_prompt"` // truncated
	UserPrompt   string `json:"user_prompt"`   // truncated
	Stream       bool   `json:"stream"`
	RequestHash  string `json:"request_hash"`
	RequestBody  string `json:"request_body,omitempty"`

	// Response
	Status          string `json:"status"`      // success or error
	HTTPStatus      int    `json:"http_status"` // 0 when no response arrived
	ResponseModel   string `json:"response_model"`
	ResponseHash    string `json:"response_hash"`
	ResponseContent string `json:"response_content"` // truncated
	ResponseBody    string `json:"response_body,omitempty"`
	FinishReason    string `json:"finish_reason"`

	// Usage
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	TokensEstimated  bool    `json:"tokens_estimated"`
	Cost             float64 `json:"cost"`

	// Error info
	Error     string `json:"error,omitempty"`
	ErrorType string `json:"error_type,omitempty"`
}

// Query defines filter parameters for evidence records.
type Query struct {
	// Time range (inclusive)
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	// Filters
	Model     string `json:"model,omitempty"`
	Provider  string `json:"provider,omitempty"`
	Status    string `json:"status,omitempty"`
	RequestID string `json:"request_id,omitempty"`

	// IDs restricts the query to the listed record IDs.
	IDs []string `json:"ids,omitempty"`

	// Thresholds
	MinCost   *float64 `json:"min_cost,omitempty"`
	MinTokens *int     `json:"min_tokens,omitempty"`

	// Pagination
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	// Sorting
	SortBy    string `json:"sort_by,omitempty"`    // request_time, cost, total_tokens, latency
	SortOrder string `json:"sort_order,omitempty"` // asc, desc
}

// Storage is implemented by evidence backends. Implementations must be safe
// for concurrent use.
type Storage interface {
	// Store persists a record.
	Store(ctx context.Context, record *Record) error

	// Get returns the record with the given ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// Query returns the records matching q. An empty result is not an error.
	Query(ctx context.Context, q *Query) ([]*Record, error)

	// Count returns the number of records matching q.
	Count(ctx context.Context, q *Query) (int64, error)

	// Delete removes the records matching q and returns how many were removed.
	Delete(ctx context.Context, q *Query) (int64, error)

	// Close releases the backend.
	Close() error
}

// Exporter writes records in a file format.
type Exporter interface {
	Export(ctx context.Context, records []*Record, w io.Writer) error
}
