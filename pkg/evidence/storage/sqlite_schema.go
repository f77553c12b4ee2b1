package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the evidence tables. Timestamps are Unix nanoseconds and
// latency is milliseconds.
const Schema = `
CREATE TABLE IF NOT EXISTS exchanges (
    id TEXT PRIMARY KEY,
    request_id TEXT NOT NULL,

    -- Timestamps
    request_time INTEGER NOT NULL,
    response_time INTEGER NOT NULL,
    latency_ms INTEGER NOT NULL,

    -- Route
    provider TEXT NOT NULL,
    base_url TEXT NOT NULL,
    proxy TEXT NOT NULL,
    api_key TEXT,

    -- Request
    model TEXT NOT NULL,
    messages INTEGER NOT NULL,
    system_prompt TEXT,
    user_prompt TEXT,
    stream BOOLEAN NOT NULL,
    request_hash TEXT NOT NULL,
    request_body TEXT,

    -- Response
    status TEXT NOT NULL,
    http_status INTEGER,
    response_model TEXT,
    response_hash TEXT,
    response_content TEXT,
    response_body TEXT,
    finish_reason TEXT,

    -- Usage
    prompt_tokens INTEGER,
    completion_tokens INTEGER,
    total_tokens INTEGER,
    tokens_estimated BOOLEAN,
    cost REAL,

    -- Error info
    error TEXT,
    error_type TEXT
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_exchanges_request_time ON exchanges(request_time);
CREATE INDEX IF NOT EXISTS idx_exchanges_model ON exchanges(model);
CREATE INDEX IF NOT EXISTS idx_exchanges_status ON exchanges(status);
CREATE INDEX IF NOT EXISTS idx_exchanges_request_id ON exchanges(request_id);
`

// InsertSchemaVersion records the schema version.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

// columns lists the exchanges columns in scan order.
const columns = `id, request_id,
    request_time, response_time, latency_ms,
    provider, base_url, proxy, api_key,
    model, messages, system_prompt, user_prompt, stream, request_hash, request_body,
    status, http_status, response_model, response_hash, response_content, response_body, finish_reason,
    prompt_tokens, completion_tokens, total_tokens, tokens_estimated, cost,
    error, error_type`

// sortColumns maps query sort fields to columns.
var sortColumns = map[string]string{
	"request_time": "request_time",
	"cost":         "cost",
	"total_tokens": "total_tokens",
	"latency":      "latency_ms",
}
