package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText prints the assistant's reply as plain text.
	FormatText OutputFormat = "text"
	// FormatJSON prints the normalized response as indented JSON.
	FormatJSON OutputFormat = "json"
	// FormatRaw prints the upstream response body unchanged (default).
	FormatRaw OutputFormat = "raw"
)

// ParseOutputFormat validates an --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatRaw:
		return f, nil
	case "":
		return FormatRaw, nil
	default:
		return "", NewConfigError("output", fmt.Sprintf("unknown format %q (want text, json or raw)", s))
	}
}

// Formatter formats command output.
type Formatter interface {
	Format(data interface{}) ([]byte, error)
	FormatTo(w io.Writer, data interface{}) error
}

// TextFormatter formats output as plain text.
type TextFormatter struct{}

// Format converts data to text format.
func (f *TextFormatter) Format(data interface{}) ([]byte, error) {
	return []byte(fmt.Sprintf("%v\n", data)), nil
}

// FormatTo writes data to writer in text format.
func (f *TextFormatter) FormatTo(w io.Writer, data interface{}) error {
	_, err := fmt.Fprintf(w, "%v\n", data)
	return err
}

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	Indent bool
}

// Format converts data to JSON format.
func (f *JSONFormatter) Format(data interface{}) ([]byte, error) {
	if f.Indent {
		return json.MarshalIndent(data, "", "  ")
	}
	return json.Marshal(data)
}

// FormatTo writes data to writer in JSON format.
func (f *JSONFormatter) FormatTo(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// RawFormatter writes bytes exactly as received, ending with one newline.
// Only []byte, json.RawMessage and string are accepted.
type RawFormatter struct{}

// Format returns the raw bytes of data.
func (f *RawFormatter) Format(data interface{}) ([]byte, error) {
	var raw []byte
	switch v := data.(type) {
	case []byte:
		raw = v
	case json.RawMessage:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return nil, fmt.Errorf("raw output needs bytes, got %T", data)
	}

	out := make([]byte, 0, len(raw)+1)
	out = append(out, bytes.TrimRight(raw, "\r\n")...)
	return append(out, '\n'), nil
}

// FormatTo writes data to writer unchanged.
func (f *RawFormatter) FormatTo(w io.Writer, data interface{}) error {
	out, err := f.Format(data)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// NewFormatter creates a new formatter for the specified format.
func NewFormatter(format OutputFormat) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatRaw:
		return &RawFormatter{}
	default:
		return &TextFormatter{}
	}
}
