package export

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"mercator-hq/courier/pkg/evidence"
)

// CSVExporter exports evidence records as CSV. Bodies are left out.
type CSVExporter struct {
	// IncludeHeader writes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{
		IncludeHeader: includeHeader,
	}
}

// Header is the CSV column list.
var Header = []string{
	"id", "request_id",
	"request_time", "response_time", "latency_ms",
	"provider", "base_url", "proxy", "api_key",
	"model", "messages", "system_prompt", "user_prompt", "stream", "request_hash",
	"status", "http_status", "response_model", "response_hash", "response_content", "finish_reason",
	"prompt_tokens", "completion_tokens", "total_tokens", "tokens_estimated", "cost",
	"error", "error_type",
}

// Export writes one row per record.
func (e *CSVExporter) Export(ctx context.Context, records []*evidence.Record, w io.Writer) error {
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write(Header); err != nil {
			return evidence.NewExportError("csv", len(records), err)
		}
	}

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return evidence.NewExportError("csv", len(records), err)
		}
		if err := writer.Write(recordToRow(record)); err != nil {
			return evidence.NewExportError("csv", len(records), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return evidence.NewExportError("csv", len(records), err)
	}

	return nil
}

// recordToRow converts a record to a CSV row in Header order.
func recordToRow(record *evidence.Record) []string {
	formatTime := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format(time.RFC3339Nano)
	}

	return []string{
		record.ID,
		record.RequestID,
		formatTime(record.RequestTime),
		formatTime(record.ResponseTime),
		strconv.FormatInt(record.Latency.Milliseconds(), 10),
		record.Provider,
		record.BaseURL,
		record.Proxy,
		record.APIKey,
		record.Model,
		strconv.Itoa(record.Messages),
		record.SystemPrompt,
		record.UserPrompt,
		strconv.FormatBool(record.Stream),
		record.RequestHash,
		record.Status,
		strconv.Itoa(record.HTTPStatus),
		record.ResponseModel,
		record.ResponseHash,
		record.ResponseContent,
		record.FinishReason,
		strconv.Itoa(record.PromptTokens),
		strconv.Itoa(record.CompletionTokens),
		strconv.Itoa(record.TotalTokens),
		strconv.FormatBool(record.TokensEstimated),
		strconv.FormatFloat(record.Cost, 'f', 6, 64),
		record.Error,
		record.ErrorType,
	}
}
