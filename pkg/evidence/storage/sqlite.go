package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"mercator-hq/courier/pkg/evidence"
)

const backendSQLite = "sqlite"

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path. Parent directories are created.
	Path string

	// WALMode enables write-ahead logging.
	// Default: true
	WALMode bool

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:        "courier-evidence.db",
		WALMode:     true,
		BusyTimeout: 5 * time.Second,
	}
}

// SQLiteStorage implements evidence.Storage on a single SQLite file.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens (or creates) the database and applies the schema.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.Path == "" {
		return nil, evidence.NewStorageError(backendSQLite, "open", errors.New("database path is required"))
	}
	if config.BusyTimeout == 0 {
		config.BusyTimeout = 5 * time.Second
	}

	logger := slog.Default().With("component", "evidence.storage.sqlite")

	if dir := filepath.Dir(config.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, evidence.NewStorageError(backendSQLite, "open", err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)", config.Path, config.BusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, evidence.NewStorageError(backendSQLite, "open", err)
	}

	// SQLite only supports a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("SQLite storage initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
	)

	return s, nil
}

// initialize enables WAL mode, creates the schema and checks its version.
func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return evidence.NewStorageError(backendSQLite, "enable_wal", err)
		}
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return evidence.NewStorageError(backendSQLite, "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return evidence.NewStorageError(backendSQLite, "insert_schema_version", err)
	}

	var version int
	if err := s.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil {
		return evidence.NewStorageError(backendSQLite, "get_schema_version", err)
	}
	if version != SchemaVersion {
		return evidence.NewStorageError(backendSQLite, "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	return nil
}

// Store persists an evidence record.
func (s *SQLiteStorage) Store(ctx context.Context, record *evidence.Record) error {
	query := `INSERT INTO exchanges (` + columns + `) VALUES (
		?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
	)`

	_, err := s.db.ExecContext(ctx, query,
		record.ID, record.RequestID,
		record.RequestTime.UnixNano(), record.ResponseTime.UnixNano(), record.Latency.Milliseconds(),
		record.Provider, record.BaseURL, record.Proxy, nullString(record.APIKey),
		record.Model, record.Messages, record.SystemPrompt, record.UserPrompt, record.Stream, record.RequestHash, nullString(record.RequestBody),
		record.Status, record.HTTPStatus, record.ResponseModel, record.ResponseHash, record.ResponseContent, nullString(record.ResponseBody), record.FinishReason,
		record.PromptTokens, record.CompletionTokens, record.TotalTokens, record.TokensEstimated, record.Cost,
		nullString(record.Error), nullString(record.ErrorType),
	)
	if err != nil {
		return evidence.NewStorageError(backendSQLite, "store", err)
	}

	return nil
}

// Get returns a single record by ID.
func (s *SQLiteStorage) Get(ctx context.Context, id string) (*evidence.Record, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+columns+" FROM exchanges WHERE id = ?", id)
	if err != nil {
		return nil, evidence.NewStorageError(backendSQLite, "get", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, evidence.NewStorageError(backendSQLite, "get", err)
		}
		return nil, evidence.ErrNotFound
	}

	record, err := scanRow(rows)
	if err != nil {
		return nil, evidence.NewStorageError(backendSQLite, "scan", err)
	}
	return record, nil
}

// Query retrieves evidence records matching the query filters.
func (s *SQLiteStorage) Query(ctx context.Context, q *evidence.Query) ([]*evidence.Record, error) {
	whereClause, args := buildWhereClause(q)

	sqlQuery := "SELECT " + columns + " FROM exchanges"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	column, ok := sortColumns[q.SortBy]
	if !ok {
		column = "request_time"
	}
	order := "DESC"
	if strings.EqualFold(q.SortOrder, "asc") {
		order = "ASC"
	}
	// id breaks ties between records with equal sort keys
	sqlQuery += fmt.Sprintf(" ORDER BY %s %s, id %s", column, order, order)

	if q.Limit > 0 {
		sqlQuery += fmt.Sprintf(" LIMIT %d", q.Limit)
		if q.Offset > 0 {
			sqlQuery += fmt.Sprintf(" OFFSET %d", q.Offset)
		}
	} else if q.Offset > 0 {
		sqlQuery += fmt.Sprintf(" LIMIT -1 OFFSET %d", q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, evidence.NewStorageError(backendSQLite, "query", err)
	}
	defer rows.Close()

	records := []*evidence.Record{}
	for rows.Next() {
		record, err := scanRow(rows)
		if err != nil {
			return nil, evidence.NewStorageError(backendSQLite, "scan", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, evidence.NewStorageError(backendSQLite, "query", err)
	}

	return records, nil
}

// Count returns the number of evidence records matching the query filters.
func (s *SQLiteStorage) Count(ctx context.Context, q *evidence.Query) (int64, error) {
	whereClause, args := buildWhereClause(q)

	sqlQuery := "SELECT COUNT(*) FROM exchanges"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, evidence.NewStorageError(backendSQLite, "count", err)
	}

	return count, nil
}

// Delete removes evidence records matching the query filters.
func (s *SQLiteStorage) Delete(ctx context.Context, q *evidence.Query) (int64, error) {
	whereClause, args := buildWhereClause(q)

	sqlQuery := "DELETE FROM exchanges"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	result, err := s.db.ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		return 0, evidence.NewStorageError(backendSQLite, "delete", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, evidence.NewStorageError(backendSQLite, "delete", err)
	}

	return count, nil
}

// Close releases the database.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return evidence.NewStorageError(backendSQLite, "close", err)
	}
	return nil
}

// buildWhereClause builds a WHERE clause (without the keyword) and its
// arguments from the query filters.
func buildWhereClause(q *evidence.Query) (string, []any) {
	var conditions []string
	var args []any

	if q.StartTime != nil {
		conditions = append(conditions, "request_time >= ?")
		args = append(args, q.StartTime.UnixNano())
	}
	if q.EndTime != nil {
		conditions = append(conditions, "request_time <= ?")
		args = append(args, q.EndTime.UnixNano())
	}
	if q.Model != "" {
		conditions = append(conditions, "model = ?")
		args = append(args, q.Model)
	}
	if q.Provider != "" {
		conditions = append(conditions, "provider = ?")
		args = append(args, q.Provider)
	}
	if q.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, q.Status)
	}
	if q.RequestID != "" {
		conditions = append(conditions, "request_id = ?")
		args = append(args, q.RequestID)
	}
	if len(q.IDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(q.IDs)), ",")
		conditions = append(conditions, "id IN ("+placeholders+")")
		for _, id := range q.IDs {
			args = append(args, id)
		}
	}
	if q.MinCost != nil {
		conditions = append(conditions, "cost >= ?")
		args = append(args, *q.MinCost)
	}
	if q.MinTokens != nil {
		conditions = append(conditions, "total_tokens >= ?")
		args = append(args, *q.MinTokens)
	}

	return strings.Join(conditions, " AND "), args
}

// scanRow scans one exchanges row.
func scanRow(rows *sql.Rows) (*evidence.Record, error) {
	var record evidence.Record
	var requestTime, responseTime, latencyMs int64
	var apiKey, requestBody, responseBody, errorVal, errorTypeVal sql.NullString

	err := rows.Scan(
		&record.ID, &record.RequestID,
		&requestTime, &responseTime, &latencyMs,
		&record.Provider, &record.BaseURL, &record.Proxy, &apiKey,
		&record.Model, &record.Messages, &record.SystemPrompt, &record.UserPrompt, &record.Stream, &record.RequestHash, &requestBody,
		&record.Status, &record.HTTPStatus, &record.ResponseModel, &record.ResponseHash, &record.ResponseContent, &responseBody, &record.FinishReason,
		&record.PromptTokens, &record.CompletionTokens, &record.TotalTokens, &record.TokensEstimated, &record.Cost,
		&errorVal, &errorTypeVal,
	)
	if err != nil {
		return nil, err
	}

	record.RequestTime = time.Unix(0, requestTime)
	record.ResponseTime = time.Unix(0, responseTime)
	record.Latency = time.Duration(latencyMs) * time.Millisecond
	record.APIKey = apiKey.String
	record.RequestBody = requestBody.String
	record.ResponseBody = responseBody.String
	record.Error = errorVal.String
	record.ErrorType = errorTypeVal.String

	return &record, nil
}

// nullString stores empty strings as NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ evidence.Storage = (*SQLiteStorage)(nil)
