// Package logging provides structured logging with secret redaction.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - Structured logging with JSON, text, and console formats
//   - Redaction of API keys and bearer tokens in every record
//   - Context-aware logging with request IDs and metadata
//   - Configurable log levels (debug, info, warn, error)
//
// Redaction lives in the slog.Handler, so records logged through the
// package-level slog functions are covered once SetDefault has been called.
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "text",
//	    Writer: os.Stderr,
//	})
//	logger.SetDefault()
//
//	slog.Info("sending request",
//	    "api_key", "sk-abc123",  // redacted
//	    "model", "gpt-3.5-turbo",
//	)
//
//	ctx = logging.WithRequestID(ctx, "req-123")
//	slog.InfoContext(ctx, "response received") // includes request_id
//
// # Redaction
//
//   - API keys: sk-abc123xyz → sk-***
//   - Bearer tokens: Bearer abc → Bearer ***
//   - Values of sensitive keys (api_key, authorization, token, ...) keep a
//     four-character hint: sk-abc123 → sk-a***
//
// Custom patterns from configuration are applied after the built-in ones.
package logging
